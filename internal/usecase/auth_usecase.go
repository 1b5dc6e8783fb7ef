package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, name string, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error
}

type UserDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Role         string  `json:"role"`
	TokenVersion int     `json:"token_version"`
	IsActive     bool    `json:"is_active"`
	LastSignedIn *string `json:"last_signed_in,omitempty"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type LoginResult struct {
	Body              AuthLoginResponse
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type RefreshResult struct {
	Body              JwtAccessTokenDTO
	RefreshTokenPlain string
	CsrfTokenPlain    string
}

type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	rtRepo    repository.RefreshTokenRepository
	validator AuthValidator
	log       *zap.Logger
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	rtRepo repository.RefreshTokenRepository,
	validator AuthValidator,
	log *zap.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		rtRepo:    rtRepo,
		validator: validator,
		log:       log,
	}
}

// OWNER_EMAIL で登録したユーザーは admin
func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, name, email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewInternalError()
	}

	role := model.RoleUser
	if u.cfg.OwnerEmail != "" && email == u.cfg.OwnerEmail {
		role = model.RoleAdmin
	}

	user := &model.User{
		OpenID:       uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(pwHash),
		LoginMethod:  model.LoginMethodPassword,
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewConflictError("email already used")
		}
		u.log.Error("register: create user failed", zap.Error(err))
		return nil, NewStoreUnavailableError()
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, userAgent string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := u.validator.ValidateLogin(ctx, email, req.Password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		u.log.Error("login: find user failed", zap.Error(err))
		return nil, NewStoreUnavailableError()
	}
	if user == nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, NewForbiddenError("account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	now := time.Now()
	user.LastSignedIn = &now
	if err := u.users.Update(ctx, user); err != nil {
		u.log.Warn("login: update last_signed_in failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	sess, err := u.startSession(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Body:              AuthLoginResponse{User: toUserDTO(user), Token: sess.token},
		RefreshTokenPlain: sess.refresh,
		CsrfTokenPlain:    sess.csrf,
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, NewUnauthorizedError("unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if !user.IsActive {
		return nil, NewForbiddenError("account disabled")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// ローテーション。使用済みトークンが来たら全セッション破棄
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain, userAgent); err != nil {
		return nil, err
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, NewUnauthorizedError("invalid refresh token")
	}

	//期限切れ
	if rt.ExpiresAt.Before(time.Now()) {
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return nil, NewUnauthorizedError("refresh token expired")
	}

	if rt.RevokedAt != nil {
		return nil, NewUnauthorizedError("invalid refresh token")
	}

	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		u.log.Warn("refresh token replay detected", zap.Int64("user_id", rt.UserID))
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, NewSecurityIncidentError()
	}

	//user_agent違い（再認証扱い。全削除）
	if userAgent != "" && rt.UserAgent != "" && userAgent != rt.UserAgent {
		u.log.Warn("refresh token user agent mismatch", zap.Int64("user_id", rt.UserID))
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, NewSecurityIncidentError()
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, NewUnauthorizedError("unauthorized")
	}
	if !user.IsActive {
		return nil, NewForbiddenError("account disabled")
	}

	//旧tokenをusedにする（同時に使われたら片方は失敗）
	if err := u.rtRepo.MarkUsed(ctx, rt.ID); err != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, NewSecurityIncidentError()
	}

	sess, err := u.startSession(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		Body:              sess.token,
		RefreshTokenPlain: sess.refresh,
		CsrfTokenPlain:    sess.csrf,
	}, nil
}

func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) (*SuccessResponse, error) {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, NewUnauthorizedError("unauthorized")
	}

	// 失効済みならそのまま成功
	if err := u.rtRepo.Revoke(ctx, rt.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		u.log.Error("logout: revoke refresh token failed", zap.Error(err))
		return nil, NewStoreUnavailableError()
	}

	return &SuccessResponse{Message: "logout success"}, nil
}

// 全端末ログアウト（token_version を上げて既存のアクセストークンも無効に）
func (u *AuthUsecase) LogoutAll(ctx context.Context, userID int64) (*SuccessResponse, error) {
	if userID <= 0 {
		return nil, NewUnauthorizedError("unauthorized")
	}

	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewUnauthorizedError("unauthorized")
		}
		u.log.Error("logout all: increment token version failed", zap.Error(err))
		return nil, NewStoreUnavailableError()
	}

	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		u.log.Error("logout all: delete refresh tokens failed", zap.Error(err))
		return nil, NewStoreUnavailableError()
	}

	return &SuccessResponse{Message: "logout all success"}, nil
}

type session struct {
	token   JwtAccessTokenDTO
	refresh string
	csrf    string
}

// アクセストークン + refresh（DBにはhashだけ）+ csrf をまとめて発行
func (u *AuthUsecase) startSession(ctx context.Context, user *model.User, userAgent string) (session, error) {
	access, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		return session{}, NewInternalError()
	}

	refreshPlain, refreshHash, err := newRandomTokenAndHash()
	if err != nil {
		return session{}, NewInternalError()
	}
	if err := u.rtRepo.Create(ctx, &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(u.cfg.RefreshTokenTTL),
	}); err != nil {
		u.log.Error("save refresh token failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return session{}, NewStoreUnavailableError()
	}

	csrf, _, err := newRandomTokenAndHash()
	if err != nil {
		return session{}, NewInternalError()
	}

	return session{
		token:   JwtAccessTokenDTO{AccessToken: access, ExpiresIn: expiresIn, TokenVersion: user.TokenVersion},
		refresh: refreshPlain,
		csrf:    csrf,
	}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := time.Now()
	ttl := u.cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(ttl.Seconds()), nil
}

// refresh token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}

	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	dto := UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
	if u.LastSignedIn != nil {
		t := u.LastSignedIn.Format(time.RFC3339)
		dto.LastSignedIn = &t
	}
	return dto
}
