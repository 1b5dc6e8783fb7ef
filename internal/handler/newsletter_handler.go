package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NewsletterHandler struct {
	uc *usecase.NewsletterUsecase
}

func NewNewsletterHandler(uc *usecase.NewsletterUsecase) *NewsletterHandler {
	return &NewsletterHandler{uc: uc}
}

func (h *NewsletterHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/newsletter", h.subscribe)
}

func (h *NewsletterHandler) subscribe(c echo.Context) error {
	var req usecase.NewsletterSubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Subscribe(c.Request().Context(), req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
