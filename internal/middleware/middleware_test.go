package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// =====================
// レスポンス確認用
// =====================

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

// =====================
// UserRepository モック
// =====================

type userRepoMock struct {
	mock.Mock
}

func (m *userRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
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
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *userRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repository.UserRepository = (*userRepoMock)(nil)

// =====================
// helper
// =====================

const secret = "test-secret"

func mustMakeJWT(t *testing.T, key string, sub string, role string, tv int, method jwt.SigningMethod) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"tv":   tv,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}

	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func runRequest(t *testing.T, e *echo.Echo, path string, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func echoContextHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	tv, _ := c.Get(middleware.CtxTokenVersionKey).(int)
	return c.JSON(http.StatusOK, mwOKResponse{UserID: userID, Role: role, TokenVersion: tv})
}

func newProtected(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/protected", echoContextHandler, mw...)
	return e
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Unauthorized(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "user", "tv": 0, "exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(secret))
	assert.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": "user", "tv": 0,
	}).SignedString([]byte(secret))
	assert.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"bad scheme", "Token abc.def.ghi"},
		{"empty bearer", "Bearer "},
		{"bad signature", "Bearer " + mustMakeJWT(t, "wrong-secret", "1", "user", 0, jwt.SigningMethodHS256)},
		{"wrong alg", "Bearer " + mustMakeJWT(t, secret, "1", "user", 0, jwt.SigningMethodHS512)},
		{"expired", "Bearer " + expired},
		{"no exp", "Bearer " + noExp},
		{"bad sub", "Bearer " + mustMakeJWT(t, secret, "abc", "user", 0, jwt.SigningMethodHS256)},
		{"no role", "Bearer " + mustMakeJWT(t, secret, "1", "", 0, jwt.SigningMethodHS256)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := runRequest(t, newProtected(middleware.AuthJWT(cfg)), "/protected", tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeError(t, rec).Error)
		})
	}
}

func TestAuthJWT_Success_SetsContext(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	raw := mustMakeJWT(t, secret, "123", "user", 7, jwt.SigningMethodHS256)

	rec := runRequest(t, newProtected(middleware.AuthJWT(cfg)), "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(123), body.UserID)
	assert.Equal(t, "user", body.Role)
	assert.Equal(t, 7, body.TokenVersion)
}

// =====================
// TokenVersionGuard
// =====================

func TestTokenVersionGuard_MissingContext(t *testing.T) {
	users := new(userRepoMock)

	rec := runRequest(t, newProtected(middleware.TokenVersionGuard(users, zap.NewNop())), "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTokenVersionGuard_VersionMismatch(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, Role: model.RoleUser, TokenVersion: 1, IsActive: true,
	}, nil)

	raw := mustMakeJWT(t, secret, "1", "user", 0, jwt.SigningMethodHS256)
	e := newProtected(middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users, zap.NewNop()))

	rec := runRequest(t, e, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertExpectations(t)
}

func TestTokenVersionGuard_InactiveUser(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, Role: model.RoleUser, IsActive: false,
	}, nil)

	raw := mustMakeJWT(t, secret, "1", "user", 0, jwt.SigningMethodHS256)
	e := newProtected(middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users, zap.NewNop()))

	rec := runRequest(t, e, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenVersionGuard_StoreFailure(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(1)).Return(nil, errors.New("db down"))

	raw := mustMakeJWT(t, secret, "1", "user", 0, jwt.SigningMethodHS256)
	e := newProtected(middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users, zap.NewNop()))

	rec := runRequest(t, e, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// token の role ではなく DB の role を使う
func TestTokenVersionGuard_RoleFromStore(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, Role: model.RoleUser, TokenVersion: 2, IsActive: true,
	}, nil)

	raw := mustMakeJWT(t, secret, "1", "admin", 2, jwt.SigningMethodHS256)
	e := newProtected(middleware.AuthJWT(cfg), middleware.TokenVersionGuard(users, zap.NewNop()))

	rec := runRequest(t, e, "/protected", "Bearer "+raw)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "user", body.Role)
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	users := new(userRepoMock)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Role: model.RoleAdmin, IsActive: true}, nil)
	users.On("FindByID", mock.Anything, int64(2)).Return(&model.User{ID: 2, Role: model.RoleUser, IsActive: true}, nil)

	e := newProtected(
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(users, zap.NewNop()),
		middleware.AdminRoleGuard(),
	)

	rec := runRequest(t, e, "/protected", "Bearer "+mustMakeJWT(t, secret, "1", "admin", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runRequest(t, e, "/protected", "Bearer "+mustMakeJWT(t, secret, "2", "user", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin only", decodeError(t, rec).Error)
}

func TestAdminRoleGuard_NoRole(t *testing.T) {
	rec := runRequest(t, newProtected(middleware.AdminRoleGuard()), "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
