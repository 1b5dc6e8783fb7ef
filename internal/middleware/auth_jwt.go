package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var errInvalidClaims = errors.New("invalid claims")

// アクセストークンから取り出す値
type accessClaims struct {
	UserID       int64
	Role         string
	TokenVersion int
}

// Authorization: Bearer <jwt> を検証して context に user_id / role / tv を入れる
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	key := []byte(cfg.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := parseAccessToken(parser, key, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, claims.Role)
			c.Set(CtxTokenVersionKey, claims.TokenVersion)
			return next(c)
		}
	}
}

func bearerToken(h string) (string, bool) {
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func parseAccessToken(p *jwt.Parser, key []byte, raw string) (accessClaims, error) {
	mc := jwt.MapClaims{}
	if _, err := p.ParseWithClaims(raw, mc, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}); err != nil {
		return accessClaims{}, err
	}

	// sub は文字列（RFC 7519）
	sub, err := mc.GetSubject()
	if err != nil {
		return accessClaims{}, err
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return accessClaims{}, errInvalidClaims
	}

	role, _ := mc["role"].(string)
	if role == "" {
		return accessClaims{}, errInvalidClaims
	}

	// 数値は JSON なので float64
	tv, ok := mc["tv"].(float64)
	if !ok || tv < 0 || tv != float64(int(tv)) {
		return accessClaims{}, errInvalidClaims
	}

	return accessClaims{UserID: userID, Role: role, TokenVersion: int(tv)}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
