package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

const secret = "test-secret"

type userRepoMock struct{ mock.Mock }

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *userRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *userRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// 検証で止まるルートだけ叩くので repo は nil のまま
func newTestServer(t *testing.T, health server.HealthCheck) http.Handler {
	t.Helper()

	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Role: model.RoleAdmin, IsActive: true}, nil)
	users.On("FindByID", mock.Anything, int64(2)).Return(&model.User{ID: 2, Role: model.RoleUser, IsActive: true}, nil)

	log := zap.NewNop()
	cfg := config.Config{Port: "0", JWTSecret: secret}

	h := server.Handlers{
		Auth:         handler.NewAuthHandler(usecase.NewAuthUsecase(cfg, users, nil, nil, log), time.Hour, false),
		Catalog:      handler.NewCatalogHandler(usecase.NewCatalogUsecase(nil, nil, cache.NopCatalogCache{}, log)),
		Review:       handler.NewReviewHandler(usecase.NewReviewUsecase(nil, nil, nil, cache.NopCatalogCache{}, log)),
		Cart:         handler.NewCartHandler(nil),
		Address:      handler.NewAddressHandler(nil),
		Order:        handler.NewOrderHandler(nil),
		AdminOrder:   handler.NewAdminOrderHandler(usecase.NewAdminOrderUsecase(nil, nil, nil, nil, log), nil),
		AdminProduct: handler.NewAdminProductHandler(nil),
		Newsletter:   handler.NewNewsletterHandler(nil),
	}
	return server.New(cfg, log, users, h, health).Handler()
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"tv":   0,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	assert.NoError(t, err)
	return "Bearer " + s
}

func do(h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var r handler.ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r.Error
}

func TestServer_ProtectedRoutes_RequireToken(t *testing.T) {
	h := newTestServer(t, nil)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/cart"},
		{http.MethodPatch, "/cart/1"},
		{http.MethodGet, "/addresses"},
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders/1"},
		{http.MethodPost, "/products/1/reviews"},
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/auth/logout-all"},
		{http.MethodGet, "/admin/dashboard"},
		{http.MethodPost, "/admin/products"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := do(h, r.method, r.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", errorBody(t, rec))
		})
	}
}

func TestServer_AdminRoutes_ForbiddenForUser(t *testing.T) {
	h := newTestServer(t, nil)

	for _, path := range []string{"/admin/orders", "/admin/dashboard", "/admin/audit-logs"} {
		rec := do(h, http.MethodGet, path, bearer(t, 2, "user"), "")
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, "admin only", errorBody(t, rec))
	}
}

// role は DB の値で判定する
func TestServer_AdminRoutes_ForgedRoleClaim(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/admin/dashboard", bearer(t, 2, "admin"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_AdminRoutes_AdminPassesGate(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/admin/orders?status=lost", bearer(t, 1, "admin"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid status", errorBody(t, rec))
}

func TestServer_PublicRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodGet, "/products/search?q=", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(h, http.MethodGet, "/products?page=0", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ReviewValidation(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/products/1/reviews", bearer(t, 2, "user"), `{"rating":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Refresh_RequiresCsrf(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh", Value: "rt"})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "a"})
	req.Header.Set("X-CSRF-Token", "b")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_Healthz(t *testing.T) {
	rec := do(newTestServer(t, func(context.Context) error { return nil }), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(newTestServer(t, func(context.Context) error { return errors.New("down") }), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	rec := do(newTestServer(t, nil), http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", errorBody(t, rec))
}
