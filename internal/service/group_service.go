package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/internal/repository"
	"github.com/souta-ok/storesync/pkg/errors"
)

// Catalog reads product catalogs from storefronts
type Catalog interface {
	ScrapeProducts(ctx context.Context, storeDomain string) ([]domain.Product, error)
	FetchProducts(ctx context.Context, store domain.StoreRef) ([]domain.Product, error)
}

// ProductDispatcher fans an upload out across stores and products
type ProductDispatcher interface {
	Dispatch(ctx context.Context, stores []domain.StoreRef, products []domain.Product) *domain.DispatchResult
}

// SyncStarter is the sync-controller hook the group service drives. Toggling
// a group flips the stored flag and then starts or stops the loop here.
type SyncStarter interface {
	Start(group *domain.Group)
	Stop(groupID uuid.UUID)
}

// CreateGroupInput carries all group fields supplied up front on creation
type CreateGroupInput struct {
	Name        string            `json:"name"`
	ParentStore domain.StoreRef   `json:"parentStore"`
	ChildStores []domain.StoreRef `json:"childStores"`
	SyncType    domain.SyncType   `json:"syncType"`
}

// GroupPatch carries updatable group fields; nil means "leave unchanged".
// Ownership is not patchable.
type GroupPatch struct {
	Name        *string            `json:"name"`
	ParentStore *domain.StoreRef   `json:"parentStore"`
	ChildStores *[]domain.StoreRef `json:"childStores"`
	SyncType    *domain.SyncType   `json:"syncType"`
}

type groupService struct {
	repos      *repository.Repositories
	catalog    Catalog
	dispatcher ProductDispatcher
	sync       SyncStarter
	logger     *zap.Logger
}

// NewGroupService creates a new group service. sync may be nil in tools that
// never toggle synchronization.
func NewGroupService(repos *repository.Repositories, catalog Catalog, dispatcher ProductDispatcher, sync SyncStarter, logger *zap.Logger) *groupService {
	return &groupService{
		repos:      repos,
		catalog:    catalog,
		dispatcher: dispatcher,
		sync:       sync,
		logger:     logger,
	}
}

// Create validates and persists a new group. Validation runs before any
// persistence or store I/O.
func (s *groupService) Create(ctx context.Context, userID uuid.UUID, input CreateGroupInput) (*domain.Group, error) {
	if err := validateGroupInput(input); err != nil {
		return nil, err
	}

	syncType := input.SyncType
	if syncType == "" {
		syncType = domain.SyncTypeAsync
	}
	childStores := input.ChildStores
	if childStores == nil {
		childStores = []domain.StoreRef{}
	}

	group := &domain.Group{
		UserID:      userID,
		Name:        strings.TrimSpace(input.Name),
		ParentStore: input.ParentStore,
		ChildStores: childStores,
		SyncType:    syncType,
		IsSyncing:   false,
	}
	if err := s.repos.Group.Create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("Group created",
		zap.String("group_id", group.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("child_stores", len(group.ChildStores)),
	)
	return group, nil
}

// Get returns a group owned by the user
func (s *groupService) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error) {
	return s.repos.Group.GetByIDAndUser(ctx, id, userID)
}

// List returns the user's groups, newest first
func (s *groupService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error) {
	return s.repos.Group.ListByUser(ctx, userID)
}

// Update applies a patch to a group owned by the user
func (s *groupService) Update(ctx context.Context, id, userID uuid.UUID, patch GroupPatch) (*domain.Group, error) {
	group, err := s.repos.Group.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, &errors.ErrValidation{Message: "name must not be empty"}
		}
		group.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ParentStore != nil {
		if err := validateStore("parentStore", *patch.ParentStore); err != nil {
			return nil, err
		}
		group.ParentStore = *patch.ParentStore
	}
	if patch.ChildStores != nil {
		for i, child := range *patch.ChildStores {
			if err := validateStore(fmt.Sprintf("childStores[%d]", i), child); err != nil {
				return nil, err
			}
		}
		group.ChildStores = *patch.ChildStores
	}
	if patch.SyncType != nil {
		if !patch.SyncType.IsValid() {
			return nil, &errors.ErrValidation{Message: "syncType must be sync or async"}
		}
		group.SyncType = *patch.SyncType
	}

	if err := s.repos.Group.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// Delete removes a group owned by the user and stops any running sync loop
func (s *groupService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	deleted, err := s.repos.Group.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return &errors.ErrNotFound{Resource: "group", ID: id.String()}
	}
	if s.sync != nil {
		s.sync.Stop(id)
	}
	s.logger.Info("Group deleted", zap.String("group_id", id.String()))
	return nil
}

// FetchProducts reads the parent store's catalog through the admin API
func (s *groupService) FetchProducts(ctx context.Context, id, userID uuid.UUID) ([]domain.Product, error) {
	group, err := s.repos.Group.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.catalog.FetchProducts(ctx, group.ParentStore)
}

// Share uploads the selected products to every child store of the group
func (s *groupService) Share(ctx context.Context, id, userID uuid.UUID, products []domain.Product) (*domain.DispatchResult, error) {
	if len(products) == 0 {
		return nil, &errors.ErrValidation{Message: "products array is required"}
	}
	group, err := s.repos.Group.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if len(group.ChildStores) == 0 {
		return nil, &errors.ErrValidation{Message: "group has no child stores"}
	}
	return s.dispatcher.Dispatch(ctx, group.ChildStores, products), nil
}

// Upload pushes products to a single explicit destination store
func (s *groupService) Upload(ctx context.Context, store domain.StoreRef, products []domain.Product) (*domain.DispatchResult, error) {
	if err := validateStore("store", store); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, &errors.ErrValidation{Message: "products array is required"}
	}
	return s.dispatcher.Dispatch(ctx, []domain.StoreRef{store}, products), nil
}

// ToggleSync flips the group's activation flag and starts or stops its
// polling loop. The flip itself performs no propagation.
func (s *groupService) ToggleSync(ctx context.Context, id, userID uuid.UUID, action domain.SyncAction) (*domain.Group, error) {
	if !action.IsValid() {
		return nil, &errors.ErrValidation{Message: "action must be sync or unsync"}
	}

	group, err := s.repos.Group.SetSyncing(ctx, id, userID, action == domain.SyncActionStart)
	if err != nil {
		return nil, err
	}

	if s.sync != nil {
		if action == domain.SyncActionStart {
			s.sync.Start(group)
		} else {
			s.sync.Stop(group.ID)
		}
	}
	return group, nil
}

func validateGroupInput(input CreateGroupInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = "required"
	}
	if input.ParentStore.Domain == "" {
		fields["parentStore.domain"] = "required"
	}
	if input.ParentStore.AdminToken == "" {
		fields["parentStore.adminToken"] = "required"
	}
	for i, child := range input.ChildStores {
		if child.Domain == "" {
			fields[fmt.Sprintf("childStores[%d].domain", i)] = "required"
		}
		if child.AdminToken == "" {
			fields[fmt.Sprintf("childStores[%d].adminToken", i)] = "required"
		}
	}
	if input.SyncType != "" && !input.SyncType.IsValid() {
		fields["syncType"] = "must be sync or async"
	}
	if len(fields) > 0 {
		return &errors.ErrValidation{Message: "invalid group input", Fields: fields}
	}
	return nil
}

func validateStore(field string, store domain.StoreRef) error {
	fields := map[string]string{}
	if store.Domain == "" {
		fields[field+".domain"] = "required"
	}
	if store.AdminToken == "" {
		fields[field+".adminToken"] = "required"
	}
	if len(fields) > 0 {
		return &errors.ErrValidation{Message: "invalid store reference", Fields: fields}
	}
	return nil
}
