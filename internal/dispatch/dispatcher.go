package dispatch

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/souta-ok/storesync/internal/domain"
)

// Uploader is the single write operation the dispatcher fans out
type Uploader interface {
	UploadProduct(ctx context.Context, store domain.StoreRef, product domain.Product) (json.RawMessage, error)
}

// Dispatcher applies an upload across the cross-product of destination stores
// and products. Pairs are fully isolated: one pair's failure never aborts,
// retries or delays another, and the first attempt is final.
type Dispatcher struct {
	uploader    Uploader
	storeRPS    float64
	maxInFlight int
	logger      *zap.Logger
}

// NewDispatcher creates a dispatcher. storeRPS throttles requests per
// destination store; maxInFlight bounds concurrent uploads per invocation.
func NewDispatcher(uploader Uploader, storeRPS float64, maxInFlight int, logger *zap.Logger) *Dispatcher {
	if storeRPS <= 0 {
		storeRPS = 2
	}
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		uploader:    uploader,
		storeRPS:    storeRPS,
		maxInFlight: maxInFlight,
		logger:      logger,
	}
}

// Dispatch uploads every product to every store. The result lists preserve
// the deterministic (store, then product) ordering of the inputs regardless
// of which network calls resolve first. Cancelling ctx marks pairs that have
// not resolved as failed with the context error; pairs already in flight are
// not waited out beyond their own call.
func (d *Dispatcher) Dispatch(ctx context.Context, stores []domain.StoreRef, products []domain.Product) *domain.DispatchResult {
	total := len(stores) * len(products)
	outcomes := make([]domain.UploadOutcome, total)

	limiters := make([]*rate.Limiter, len(stores))
	for i := range stores {
		limiters[i] = rate.NewLimiter(rate.Limit(d.storeRPS), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxInFlight)

	for si, store := range stores {
		for pi, product := range products {
			idx := si*len(products) + pi
			store, product, limiter := store, product, limiters[si]
			g.Go(func() error {
				outcomes[idx] = d.uploadOne(gctx, limiter, store, product)
				return nil
			})
		}
	}
	// Goroutines never return errors; failures land in their outcome slot.
	_ = g.Wait()

	result := &domain.DispatchResult{
		Results: make([]domain.UploadOutcome, 0, total),
		Errors:  make([]domain.UploadOutcome, 0),
	}
	for _, o := range outcomes {
		if o.Success {
			result.Uploaded++
			result.Results = append(result.Results, o)
		} else {
			result.Failed++
			result.Errors = append(result.Errors, o)
		}
	}

	d.logger.Info("Dispatch finished",
		zap.Int("stores", len(stores)),
		zap.Int("products", len(products)),
		zap.Int("uploaded", result.Uploaded),
		zap.Int("failed", result.Failed),
	)
	return result
}

func (d *Dispatcher) uploadOne(ctx context.Context, limiter *rate.Limiter, store domain.StoreRef, product domain.Product) domain.UploadOutcome {
	outcome := domain.UploadOutcome{
		Store:     store.Domain,
		ProductID: product.ID,
	}

	if err := limiter.Wait(ctx); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	data, err := d.uploader.UploadProduct(ctx, store, product)
	if err != nil {
		d.logger.Warn("Upload pair failed",
			zap.String("store", store.Domain),
			zap.Int64("product_id", product.ID),
			zap.Error(err),
		)
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Success = true
	outcome.Data = data
	return outcome
}
