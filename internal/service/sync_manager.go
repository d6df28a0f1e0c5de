package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/internal/repository"
	"github.com/souta-ok/storesync/pkg/errors"
)

// SyncManager owns one polling loop per actively syncing group. Each loop
// snapshots the parent catalog, diffs it against the previous snapshot by
// (product id, updated_at) and fans changed products out to all child stores.
// Nothing survives a restart: loops are resumed from the stored is_syncing
// flag and a fresh catalog fetch.
type SyncManager struct {
	repos      *repository.Repositories
	catalog    Catalog
	dispatcher ProductDispatcher
	interval   time.Duration
	logger     *zap.Logger

	mu    sync.Mutex
	loops map[uuid.UUID]context.CancelFunc
	wg    sync.WaitGroup
}

// NewSyncManager creates a sync manager polling at the given interval
func NewSyncManager(repos *repository.Repositories, catalog Catalog, dispatcher ProductDispatcher, interval time.Duration, logger *zap.Logger) *SyncManager {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncManager{
		repos:      repos,
		catalog:    catalog,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     logger,
		loops:      make(map[uuid.UUID]context.CancelFunc),
	}
}

// Resume starts loops for every group whose stored flag says it is syncing.
// Call once on process start.
func (m *SyncManager) Resume(ctx context.Context) error {
	groups, err := m.repos.Group.ListSyncing(ctx)
	if err != nil {
		return err
	}
	for _, group := range groups {
		m.Start(group)
	}
	if len(groups) > 0 {
		m.logger.Info("Resumed sync loops", zap.Int("groups", len(groups)))
	}
	return nil
}

// Start launches the polling loop for a group. Starting an already-running
// group is a no-op.
func (m *SyncManager) Start(group *domain.Group) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, running := m.loops[group.ID]; running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.loops[group.ID] = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx, group.ID, group.UserID)
	}()

	m.logger.Info("Sync loop started",
		zap.String("group_id", group.ID.String()),
		zap.String("sync_type", string(group.SyncType)),
	)
}

// Stop cancels a group's loop. The loop exits within one poll interval.
func (m *SyncManager) Stop(groupID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel, running := m.loops[groupID]; running {
		cancel()
		delete(m.loops, groupID)
		m.logger.Info("Sync loop stopped", zap.String("group_id", groupID.String()))
	}
}

// Shutdown cancels all loops and waits for them to exit
func (m *SyncManager) Shutdown() {
	m.mu.Lock()
	for id, cancel := range m.loops {
		cancel()
		delete(m.loops, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Running reports whether a loop is active for the group
func (m *SyncManager) Running(groupID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, running := m.loops[groupID]
	return running
}

func (m *SyncManager) run(ctx context.Context, groupID, userID uuid.UUID) {
	// The first successful fetch is a baseline only; existing products are
	// not re-blasted to children on activation.
	snapshot := make(map[int64]string)
	baselined := false

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	if m.tick(ctx, groupID, userID, snapshot, &baselined) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.tick(ctx, groupID, userID, snapshot, &baselined) {
				return
			}
		}
	}
}

// tick runs one poll cycle. Returns true when the loop should terminate.
func (m *SyncManager) tick(ctx context.Context, groupID, userID uuid.UUID, snapshot map[int64]string, baselined *bool) bool {
	group, err := m.repos.Group.GetByIDAndUser(ctx, groupID, userID)
	if err != nil {
		if _, isNotFound := err.(*errors.ErrNotFound); isNotFound {
			m.logger.Info("Sync loop exiting: group gone", zap.String("group_id", groupID.String()))
			m.Stop(groupID)
			return true
		}
		m.logger.Warn("Sync tick: group lookup failed", zap.String("group_id", groupID.String()), zap.Error(err))
		return false
	}
	if !group.IsSyncing {
		m.logger.Info("Sync loop exiting: group deactivated", zap.String("group_id", groupID.String()))
		m.Stop(groupID)
		return true
	}

	products, err := m.catalog.FetchProducts(ctx, group.ParentStore)
	if err != nil {
		m.logger.Warn("Sync tick: parent catalog fetch failed",
			zap.String("group_id", groupID.String()),
			zap.String("parent", group.ParentStore.Domain),
			zap.Error(err),
		)
		return false
	}

	changed := diffSnapshot(snapshot, products)
	if !*baselined {
		// First fetch after activation establishes the baseline.
		*baselined = true
		return false
	}
	if len(changed) == 0 || len(group.ChildStores) == 0 {
		return false
	}

	m.logger.Info("Sync tick: propagating changed products",
		zap.String("group_id", groupID.String()),
		zap.Int("changed", len(changed)),
		zap.Int("child_stores", len(group.ChildStores)),
	)

	if group.SyncType == domain.SyncTypeSync {
		m.dispatchAndLog(ctx, group, changed)
	} else {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.dispatchAndLog(ctx, group, changed)
		}()
	}
	return false
}

func (m *SyncManager) dispatchAndLog(ctx context.Context, group *domain.Group, products []domain.Product) {
	result := m.dispatcher.Dispatch(ctx, group.ChildStores, products)
	if result.Failed > 0 {
		m.logger.Warn("Sync propagation had failures",
			zap.String("group_id", group.ID.String()),
			zap.Int("uploaded", result.Uploaded),
			zap.Int("failed", result.Failed),
		)
	}
}

// diffSnapshot returns products that are new or changed relative to the
// snapshot, then updates the snapshot in place. Parent wins: whatever the
// parent reports replaces the remembered state. Products that disappeared
// from the parent are forgotten, not deleted downstream.
func diffSnapshot(snapshot map[int64]string, products []domain.Product) []domain.Product {
	seen := make(map[int64]bool, len(products))
	var changed []domain.Product
	for _, p := range products {
		seen[p.ID] = true
		if prev, ok := snapshot[p.ID]; !ok || prev != p.UpdatedAt {
			changed = append(changed, p)
		}
		snapshot[p.ID] = p.UpdatedAt
	}
	for id := range snapshot {
		if !seen[id] {
			delete(snapshot, id)
		}
	}
	return changed
}
