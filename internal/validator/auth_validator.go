package validator

import (
	"context"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"

	"go.uber.org/zap"
)

type authValidator struct {
	users repository.UserRepository
	rv    *RequestValidator
	log   *zap.Logger
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository, rv *RequestValidator, log *zap.Logger) usecase.AuthValidator {
	return &authValidator{users: users, rv: rv, log: log}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, name string, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.NewValidationError("email and password are required")
	}
	if len(name) > 255 {
		return usecase.NewValidationError("name too long")
	}

	// email形式
	if err := v.rv.Var(email, "email,max=320"); err != nil {
		return usecase.NewValidationError("invalid email")
	}

	// パスワード（8〜72文字。bcryptの上限）
	if len(password) < 8 || len(password) > 72 {
		return usecase.NewValidationError("password must be 8 to 72 characters")
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		v.log.Error("register: email lookup failed", zap.Error(err))
		return usecase.NewStoreUnavailableError()
	}
	if u != nil {
		return usecase.NewConflictError("email already used")
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return usecase.NewValidationError("email and password are required")
	}
	if err := v.rv.Var(email, "email"); err != nil {
		return usecase.NewValidationError("invalid email")
	}

	return nil
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.NewUnauthorizedError("refresh token required")
	}
	return nil
}
