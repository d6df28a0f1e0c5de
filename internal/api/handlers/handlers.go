package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/internal/service"
	"github.com/souta-ok/storesync/pkg/errors"
)

// UserService is the account surface the auth handlers consume
type UserService interface {
	CreateUserWithPassword(ctx context.Context, email, rawPassword, name string) (*domain.User, error)
	Authenticate(ctx context.Context, email, rawPassword string) (*domain.User, error)
}

// GroupService is the group/propagation surface the handlers consume
type GroupService interface {
	Create(ctx context.Context, userID uuid.UUID, input service.CreateGroupInput) (*domain.Group, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error)
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error)
	Update(ctx context.Context, id, userID uuid.UUID, patch service.GroupPatch) (*domain.Group, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	FetchProducts(ctx context.Context, id, userID uuid.UUID) ([]domain.Product, error)
	Share(ctx context.Context, id, userID uuid.UUID, products []domain.Product) (*domain.DispatchResult, error)
	Upload(ctx context.Context, store domain.StoreRef, products []domain.Product) (*domain.DispatchResult, error)
	ToggleSync(ctx context.Context, id, userID uuid.UUID, action domain.SyncAction) (*domain.Group, error)
}

// respondError maps the closed error taxonomy to HTTP statuses
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		notFound     *errors.ErrNotFound
		unauthorized *errors.ErrUnauthorized
		validation   *errors.ErrValidation
		remote       *errors.ErrRemoteStore
		resolution   *errors.ErrDomainResolution
	)
	switch {
	case stderrors.As(err, &unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorized.Error()})
	case stderrors.As(err, &validation):
		body := gin.H{"error": validation.Error()}
		if len(validation.Fields) > 0 {
			body["fields"] = validation.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case stderrors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case stderrors.As(err, &resolution):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": resolution.Error()})
	case stderrors.As(err, &remote):
		c.JSON(http.StatusBadGateway, gin.H{"error": remote.Error()})
	default:
		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// pathGroupID parses the :id route parameter
func pathGroupID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return uuid.Nil, false
	}
	return id, true
}
