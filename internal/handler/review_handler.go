package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

// 一覧は公開、投稿はログイン必須
func (h *ReviewHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.GET("/products/:id/reviews", h.list)
	e.POST("/products/:id/reviews", h.create, guards.User...)
}

func (h *ReviewHandler) list(c echo.Context) error {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	list, err := h.uc.ListByProduct(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *ReviewHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	productID, ok := parseIDParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	var req usecase.CreateReviewInput
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	review, err := h.uc.Create(c.Request().Context(), userID, productID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, review)
}
