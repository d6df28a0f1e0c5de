package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		User:  NewUserRepository(db, logger),
		Group: NewGroupRepository(db, logger),
	}
}
