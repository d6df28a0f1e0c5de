package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/internal/repository"
	"github.com/souta-ok/storesync/pkg/errors"
)

// In-memory repositories for service tests.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "user", ID: email}
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	copied := *u
	return &copied, nil
}

type memGroupRepo struct {
	mu     sync.Mutex
	groups map[uuid.UUID]*domain.Group
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{groups: make(map[uuid.UUID]*domain.Group)}
}

func (r *memGroupRepo) Create(ctx context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	copied := cloneGroup(group)
	r.groups[group.ID] = copied
	return nil
}

func (r *memGroupRepo) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok || g.UserID != userID {
		return nil, &errors.ErrNotFound{Resource: "group", ID: id.String()}
	}
	return cloneGroup(g), nil
}

func (r *memGroupRepo) Update(ctx context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[group.ID]
	if !ok || existing.UserID != group.UserID {
		return &errors.ErrNotFound{Resource: "group", ID: group.ID.String()}
	}
	group.UpdatedAt = time.Now()
	r.groups[group.ID] = cloneGroup(group)
	return nil
}

func (r *memGroupRepo) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok || g.UserID != userID {
		return false, nil
	}
	delete(r.groups, id)
	return true, nil
}

func (r *memGroupRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*domain.Group
	for _, g := range r.groups {
		if g.UserID == userID {
			list = append(list, cloneGroup(g))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *memGroupRepo) SetSyncing(ctx context.Context, id, userID uuid.UUID, syncing bool) (*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok || g.UserID != userID {
		return nil, &errors.ErrNotFound{Resource: "group", ID: id.String()}
	}
	g.IsSyncing = syncing
	g.UpdatedAt = time.Now()
	return cloneGroup(g), nil
}

func (r *memGroupRepo) ListSyncing(ctx context.Context) ([]*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*domain.Group
	for _, g := range r.groups {
		if g.IsSyncing {
			list = append(list, cloneGroup(g))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func cloneGroup(g *domain.Group) *domain.Group {
	copied := *g
	copied.ChildStores = append([]domain.StoreRef(nil), g.ChildStores...)
	return &copied
}

func newMemRepos() *repository.Repositories {
	return &repository.Repositories{
		User:  newMemUserRepo(),
		Group: newMemGroupRepo(),
	}
}

// fakeCatalog serves canned products per store domain
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string][]domain.Product
	fetchErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: make(map[string][]domain.Product)}
}

func (f *fakeCatalog) set(storeDomain string, products []domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[storeDomain] = append([]domain.Product(nil), products...)
}

func (f *fakeCatalog) ScrapeProducts(ctx context.Context, storeDomain string) ([]domain.Product, error) {
	return f.FetchProducts(ctx, domain.StoreRef{Domain: storeDomain})
}

func (f *fakeCatalog) FetchProducts(ctx context.Context, store domain.StoreRef) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]domain.Product(nil), f.products[store.Domain]...), nil
}

// fakeDispatcher records invocations and reports full success
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

type dispatchCall struct {
	stores   []domain.StoreRef
	products []domain.Product
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, stores []domain.StoreRef, products []domain.Product) *domain.DispatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{
		stores:   append([]domain.StoreRef(nil), stores...),
		products: append([]domain.Product(nil), products...),
	})
	result := &domain.DispatchResult{}
	for _, s := range stores {
		for _, p := range products {
			result.Uploaded++
			result.Results = append(result.Results, domain.UploadOutcome{
				Store:     s.Domain,
				ProductID: p.ID,
				Success:   true,
			})
		}
	}
	return result
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeDispatcher) lastCall() (dispatchCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return dispatchCall{}, false
	}
	return f.calls[len(f.calls)-1], true
}
