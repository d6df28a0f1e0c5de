package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/pkg/errors"
)

type groupRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *sql.DB, logger *zap.Logger) *groupRepository {
	return &groupRepository{
		db:     db,
		logger: logger,
	}
}

const groupColumns = `id, user_id, name, parent_store, child_stores, sync_type, is_syncing, created_at, updated_at`

func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	parentJSON, childJSON, err := marshalStores(group)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO groups (id, user_id, name, parent_store, child_stores, sync_type, is_syncing, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		group.ID,
		group.UserID,
		group.Name,
		parentJSON,
		childJSON,
		string(group.SyncType),
		group.IsSyncing,
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create group", zap.Error(err), zap.String("name", group.Name))
		return err
	}
	return nil
}

func (r *groupRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE id = $1 AND user_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, id, userID)
	group, err := r.scanGroup(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "group", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to query group", zap.Error(err), zap.String("group_id", id.String()))
		return nil, err
	}
	return group, nil
}

func (r *groupRepository) Update(ctx context.Context, group *domain.Group) error {
	group.UpdatedAt = time.Now().UTC()

	parentJSON, childJSON, err := marshalStores(group)
	if err != nil {
		return err
	}

	query := `
		UPDATE groups
		SET name = $3, parent_store = $4, child_stores = $5, sync_type = $6, is_syncing = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		group.ID,
		group.UserID,
		group.Name,
		parentJSON,
		childJSON,
		string(group.SyncType),
		group.IsSyncing,
		group.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update group", zap.Error(err), zap.String("group_id", group.ID.String()))
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "group", ID: group.ID.String()}
	}
	return nil
}

func (r *groupRepository) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error("Failed to delete group", zap.Error(err), zap.String("group_id", id.String()))
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *groupRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryGroups(ctx, query, userID)
}

// SetSyncing flips the activation flag only; it performs no propagation
func (r *groupRepository) SetSyncing(ctx context.Context, id, userID uuid.UUID, syncing bool) (*domain.Group, error) {
	query := `
		UPDATE groups
		SET is_syncing = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + groupColumns + `
	`
	row := r.db.QueryRowContext(ctx, query, id, userID, syncing, time.Now().UTC())
	group, err := r.scanGroup(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "group", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to set syncing flag", zap.Error(err), zap.String("group_id", id.String()))
		return nil, err
	}
	return group, nil
}

// ListSyncing returns every group with an active sync flag, across all users.
// Used on startup to resume polling loops.
func (r *groupRepository) ListSyncing(ctx context.Context) ([]*domain.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE is_syncing = true
		ORDER BY created_at
	`
	return r.queryGroups(ctx, query)
}

func (r *groupRepository) queryGroups(ctx context.Context, query string, args ...interface{}) ([]*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query groups", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	groups := make([]*domain.Group, 0)
	for rows.Next() {
		group, err := r.scanGroup(rows.Scan)
		if err != nil {
			r.logger.Error("Failed to scan group row", zap.Error(err))
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) scanGroup(scan func(...interface{}) error) (*domain.Group, error) {
	var group domain.Group
	var parentJSON, childJSON []byte
	var syncType string
	err := scan(
		&group.ID,
		&group.UserID,
		&group.Name,
		&parentJSON,
		&childJSON,
		&syncType,
		&group.IsSyncing,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parentJSON, &group.ParentStore); err != nil {
		return nil, err
	}
	group.ChildStores = make([]domain.StoreRef, 0)
	if len(childJSON) > 0 {
		if err := json.Unmarshal(childJSON, &group.ChildStores); err != nil {
			return nil, err
		}
	}
	group.SyncType = domain.SyncType(syncType)
	return &group, nil
}

func marshalStores(group *domain.Group) ([]byte, []byte, error) {
	parentJSON, err := json.Marshal(group.ParentStore)
	if err != nil {
		return nil, nil, err
	}
	childStores := group.ChildStores
	if childStores == nil {
		childStores = []domain.StoreRef{}
	}
	childJSON, err := json.Marshal(childStores)
	if err != nil {
		return nil, nil, err
	}
	return parentJSON, childJSON, nil
}
