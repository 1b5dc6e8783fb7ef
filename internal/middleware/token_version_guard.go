package middleware

import (
	"net/http"

	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthJWT の後ろに置く。tv が古い・無効ユーザーは 401
// role は DB の値で上書きする
func TokenVersionGuard(users repository.UserRepository, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, tv, ok := identityFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			switch {
			case err != nil:
				log.Error("token version guard: find user failed", zap.Int64("user_id", userID), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, errorJSON("store unavailable"))
			case user == nil, !user.IsActive, user.TokenVersion != tv:
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}

func identityFromContext(c echo.Context) (userID int64, tv int, ok bool) {
	userID, ok = c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, 0, false
	}
	tv, ok = c.Get(CtxTokenVersionKey).(int)
	if !ok || tv < 0 {
		return 0, 0, false
	}
	return userID, tv, true
}
