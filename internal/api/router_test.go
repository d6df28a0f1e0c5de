package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/api/handlers"
	"github.com/souta-ok/storesync/internal/auth"
	"github.com/souta-ok/storesync/internal/config"
	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/internal/repository"
	"github.com/souta-ok/storesync/internal/service"
	"github.com/souta-ok/storesync/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*domain.User{}}
}

func (m *memUsers) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "user", ID: email}
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	return u, nil
}

// stubUsers backs the auth handlers without bcrypt work
type stubUsers struct {
	store *memUsers
}

func (s *stubUsers) CreateUserWithPassword(ctx context.Context, email, rawPassword, name string) (*domain.User, error) {
	if rawPassword == "" {
		return nil, &errors.ErrValidation{Message: "validation failed", Fields: map[string]string{"password": "required"}}
	}
	user := &domain.User{ID: uuid.New(), Email: email, Name: name, Provider: "local"}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *stubUsers) Authenticate(ctx context.Context, email, rawPassword string) (*domain.User, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, &errors.ErrUnauthorized{Message: "invalid email or password"}
	}
	return user, nil
}

// stubGroups embeds the interface so each test overrides only the methods it
// exercises; calling anything else panics and fails the test loudly.
type stubGroups struct {
	handlers.GroupService

	getFn    func(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error)
	createFn func(ctx context.Context, userID uuid.UUID, input service.CreateGroupInput) (*domain.Group, error)
	listFn   func(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error)
	uploadFn func(ctx context.Context, store domain.StoreRef, products []domain.Product) (*domain.DispatchResult, error)
	shareFn  func(ctx context.Context, id, userID uuid.UUID, products []domain.Product) (*domain.DispatchResult, error)
	toggleFn func(ctx context.Context, id, userID uuid.UUID, action domain.SyncAction) (*domain.Group, error)
}

func (s *stubGroups) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error) {
	return s.getFn(ctx, id, userID)
}

func (s *stubGroups) Create(ctx context.Context, userID uuid.UUID, input service.CreateGroupInput) (*domain.Group, error) {
	return s.createFn(ctx, userID, input)
}

func (s *stubGroups) List(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error) {
	return s.listFn(ctx, userID)
}

func (s *stubGroups) Upload(ctx context.Context, store domain.StoreRef, products []domain.Product) (*domain.DispatchResult, error) {
	return s.uploadFn(ctx, store, products)
}

func (s *stubGroups) Share(ctx context.Context, id, userID uuid.UUID, products []domain.Product) (*domain.DispatchResult, error) {
	return s.shareFn(ctx, id, userID, products)
}

func (s *stubGroups) ToggleSync(ctx context.Context, id, userID uuid.UUID, action domain.SyncAction) (*domain.Group, error) {
	return s.toggleFn(ctx, id, userID, action)
}

type stubScraper struct {
	products []domain.Product
	err      error
}

func (s *stubScraper) ScrapeProducts(ctx context.Context, storeDomain string) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

type testEnv struct {
	router *gin.Engine
	tokens *auth.Tokens
	users  *memUsers
	groups *stubGroups
	scrape *stubScraper
	user   *domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := newMemUsers()
	groups := &stubGroups{}
	scrape := &stubScraper{}
	tokens := auth.NewTokens("test-secret", time.Hour)

	user := &domain.User{ID: uuid.New(), Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, users.Create(context.Background(), user))

	cfg := &config.Config{Environment: "test"}
	router := NewRouter(cfg, Deps{
		Users:   &stubUsers{store: users},
		Groups:  groups,
		Scraper: scrape,
		Tokens:  tokens,
		Repos:   &repository.Repositories{User: users},
	}, zap.NewNop())

	return &testEnv{router: router, tokens: tokens, users: users, groups: groups, scrape: scrape, user: user}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := e.tokens.Issue(e.user.ID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthAndRoot(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.request(t, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Store Sync API", body["service"])
}

func TestRegisterIssuesToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/v1/auth/register", gin.H{
		"email":    "new@example.com",
		"password": "hunter2hunter2",
		"name":     "New User",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// The issued token is a working session token
	userID, err := env.tokens.Verify(token)
	require.NoError(t, err)
	_, err = env.users.GetByID(context.Background(), userID)
	assert.NoError(t, err)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/v1/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "whatever",
	}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/v1/groups", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid token for a user that no longer exists is rejected too
	gone, err := env.tokens.Issue(uuid.New())
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/groups", nil)
	req.Header.Set("Authorization", "Bearer "+gone)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateGroupPassesCallerAndInput(t *testing.T) {
	env := newTestEnv(t)

	var gotUserID uuid.UUID
	var gotInput service.CreateGroupInput
	env.groups.createFn = func(ctx context.Context, userID uuid.UUID, input service.CreateGroupInput) (*domain.Group, error) {
		gotUserID = userID
		gotInput = input
		return &domain.Group{ID: uuid.New(), UserID: userID, Name: input.Name, SyncType: domain.SyncTypeAsync}, nil
	}

	rec := env.request(t, http.MethodPost, "/v1/groups", gin.H{
		"name":        "EU Stores",
		"parentStore": gin.H{"domain": "parent.myshopify.com", "adminToken": "pt"},
		"childStores": []gin.H{{"domain": "child.myshopify.com", "adminToken": "ct"}},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, env.user.ID, gotUserID)
	assert.Equal(t, "EU Stores", gotInput.Name)
	assert.Equal(t, "parent.myshopify.com", gotInput.ParentStore.Domain)
	require.Len(t, gotInput.ChildStores, 1)
}

func TestErrorTaxonomyMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", &errors.ErrNotFound{Resource: "group", ID: "x"}, http.StatusNotFound},
		{"validation", &errors.ErrValidation{Message: "bad input"}, http.StatusBadRequest},
		{"unauthorized", &errors.ErrUnauthorized{Message: "nope"}, http.StatusUnauthorized},
		{"domain resolution", &errors.ErrDomainResolution{Domain: "???"}, http.StatusUnprocessableEntity},
		{"remote store", &errors.ErrRemoteStore{Op: "fetch", Store: "s", Cause: fmt.Errorf("boom")}, http.StatusBadGateway},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.groups.getFn = func(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error) {
				return nil, tc.err
			}
			rec := env.request(t, http.MethodGet, "/v1/groups/"+uuid.NewString(), nil, true)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGetGroupRejectsMalformedID(t *testing.T) {
	env := newTestEnv(t)
	env.groups.getFn = func(ctx context.Context, id, userID uuid.UUID) (*domain.Group, error) {
		t.Fatal("service should not be reached")
		return nil, nil
	}

	rec := env.request(t, http.MethodGet, "/v1/groups/not-a-uuid", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.scrape.products = []domain.Product{{ID: 1, Title: "Hat"}, {ID: 2, Title: "Scarf"}}

	rec := env.request(t, http.MethodPost, "/v1/scrape", gin.H{"domain": "shop.myshopify.com"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["products"], 2)

	rec = env.request(t, http.MethodPost, "/v1/scrape", gin.H{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrapeRemoteFailureIsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.scrape.err = &errors.ErrRemoteStore{Op: "scrape", Store: "shop", Cause: fmt.Errorf("timeout")}

	rec := env.request(t, http.MethodPost, "/v1/scrape", gin.H{"domain": "shop.myshopify.com"}, true)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestUploadEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.groups.uploadFn = func(ctx context.Context, store domain.StoreRef, products []domain.Product) (*domain.DispatchResult, error) {
		return &domain.DispatchResult{
			Uploaded: len(products),
			Results: []domain.UploadOutcome{
				{Store: store.Domain, ProductID: products[0].ID, Success: true},
			},
			Errors: []domain.UploadOutcome{},
		}, nil
	}

	rec := env.request(t, http.MethodPost, "/v1/upload", gin.H{
		"domain":     "dest.myshopify.com",
		"adminToken": "tok",
		"products":   []gin.H{{"id": 42, "title": "Hat"}},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["uploaded"])
	assert.Equal(t, float64(0), body["failed"])

	// Missing products array never reaches the service
	rec = env.request(t, http.MethodPost, "/v1/upload", gin.H{
		"domain":     "dest.myshopify.com",
		"adminToken": "tok",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShareEndpoint(t *testing.T) {
	env := newTestEnv(t)
	groupID := uuid.New()

	env.groups.shareFn = func(ctx context.Context, id, userID uuid.UUID, products []domain.Product) (*domain.DispatchResult, error) {
		assert.Equal(t, groupID, id)
		assert.Equal(t, env.user.ID, userID)
		return &domain.DispatchResult{Uploaded: 2, Failed: 1,
			Results: []domain.UploadOutcome{{Success: true}, {Success: true}},
			Errors:  []domain.UploadOutcome{{Error: "boom"}},
		}, nil
	}

	rec := env.request(t, http.MethodPost, "/v1/share", gin.H{
		"groupId":  groupID.String(),
		"products": []gin.H{{"id": 1}},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["uploaded"])
	assert.Equal(t, float64(1), body["failed"])

	rec = env.request(t, http.MethodPost, "/v1/share", gin.H{"groupId": "nope", "products": []gin.H{{"id": 1}}}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggleSyncMessages(t *testing.T) {
	env := newTestEnv(t)
	env.groups.toggleFn = func(ctx context.Context, id, userID uuid.UUID, action domain.SyncAction) (*domain.Group, error) {
		return &domain.Group{ID: id, UserID: userID, IsSyncing: action == domain.SyncActionStart}, nil
	}

	rec := env.request(t, http.MethodPost, "/v1/groups/"+uuid.NewString()+"/sync", gin.H{"action": "sync"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sync started", decodeBody(t, rec)["message"])

	rec = env.request(t, http.MethodPost, "/v1/groups/"+uuid.NewString()+"/sync", gin.H{"action": "unsync"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sync stopped", decodeBody(t, rec)["message"])
}

func TestListGroups(t *testing.T) {
	env := newTestEnv(t)
	env.groups.listFn = func(ctx context.Context, userID uuid.UUID) ([]*domain.Group, error) {
		return []*domain.Group{{ID: uuid.New(), UserID: userID, Name: "A"}}, nil
	}

	rec := env.request(t, http.MethodGet, "/v1/groups", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["groups"], 1)
}
