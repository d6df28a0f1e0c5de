package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/souta-ok/storesync/internal/domain"
)

// UserRepository defines user data access methods
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// GroupRepository defines store group data access methods. Every lookup and
// mutation is scoped by owning user; a group owned by someone else behaves
// exactly like a missing one.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error)
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id, userID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error)
	SetSyncing(ctx context.Context, id, userID uuid.UUID, syncing bool) (*domain.Group, error)
	ListSyncing(ctx context.Context) ([]*domain.Group, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	User  UserRepository
	Group GroupRepository
}
