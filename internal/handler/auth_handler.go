package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	refreshCookieName = "refresh"
	csrfCookieName    = "csrf_token"
	csrfHeaderName    = "X-CSRF-Token"
)

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	refreshTTL   time.Duration // refresh/csrf cookie の有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/auth")

	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)
	g.POST("/logout-all", h.logoutAll, guards.User...)
	g.GET("/me", h.me, guards.User...)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	res, err := h.uc.Login(c.Request().Context(), req, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}

	// refresh cookie + csrf cookie
	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)

	//JSONレスポンス（user + token）
	return c.JSON(http.StatusOK, res.Body)
}

// double submit: ヘッダと cookie の csrf_token が一致すること
func (h *AuthHandler) refresh(c echo.Context) error {
	rc, err := c.Cookie(refreshCookieName)
	if err != nil || rc.Value == "" {
		return unauthorized(c)
	}

	cc, err := c.Cookie(csrfCookieName)
	header := c.Request().Header.Get(csrfHeaderName)
	if err != nil || cc.Value == "" || header == "" ||
		subtle.ConstantTimeCompare([]byte(cc.Value), []byte(header)) != 1 {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "invalid csrf token"})
	}

	res, err := h.uc.Refresh(c.Request().Context(), rc.Value, c.Request().UserAgent())
	if err != nil {
		// 再利用検知などで無効になった cookie は消す
		h.clearCookies(c)
		return writeError(c, err)
	}

	h.setRefreshCookie(c, res.RefreshTokenPlain)
	h.setCsrfCookie(c, res.CsrfTokenPlain)
	return c.JSON(http.StatusOK, res.Body)
}

func (h *AuthHandler) logout(c echo.Context) error {
	rc, err := c.Cookie(refreshCookieName)
	if err != nil || rc.Value == "" {
		return unauthorized(c)
	}

	out, err := h.uc.Logout(c.Request().Context(), rc.Value)
	h.clearCookies(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) logoutAll(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.LogoutAll(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	h.clearCookies(c)
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

// csrftokenをCookieにセット（JSから読むので HttpOnly なし）
func (h *AuthHandler) setCsrfCookie(c echo.Context, csrfToken string) {
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    csrfToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearCookies(c echo.Context) {
	for _, name := range []string{refreshCookieName, csrfCookieName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: name == refreshCookieName,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}
