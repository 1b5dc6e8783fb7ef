package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /categories と /products の公開API
type CatalogHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

func (h *CatalogHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/categories", h.listCategories)
	e.GET("/categories/:slug", h.categoryBySlug)
	e.GET("/categories/:slug/products", h.productsByCategory)

	// 静的パスが :slug より優先される
	e.GET("/products", h.listProducts)
	e.GET("/products/featured", h.featured)
	e.GET("/products/search", h.search)
	e.GET("/products/:slug", h.productBySlug)
}

func (h *CatalogHandler) listCategories(c echo.Context) error {
	list, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) categoryBySlug(c echo.Context) error {
	cat, err := h.uc.GetCategoryBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) productsByCategory(c echo.Context) error {
	page, limit, ok := pageAndLimit(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page or limit"})
	}

	out, err := h.uc.ListByCategorySlug(c.Request().Context(), c.Param("slug"), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) listProducts(c echo.Context) error {
	page, limit, ok := pageAndLimit(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page or limit"})
	}

	categoryID, err := queryInt64Ptr(c, "category_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid category_id"})
	}

	out, err := h.uc.ListProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:       page,
		Limit:      limit,
		CategoryID: categoryID,
		Sort:       c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) featured(c echo.Context) error {
	list, err := h.uc.ListFeatured(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) search(c echo.Context) error {
	list, err := h.uc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) productBySlug(c echo.Context) error {
	p, err := h.uc.GetProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// page（default 1）/ limit（default 20）
func pageAndLimit(c echo.Context) (int, int, bool) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return 0, 0, false
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return 0, 0, false
	}
	return page, limit, true
}
