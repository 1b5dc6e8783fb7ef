package server

import (
	"net/http"

	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Catalog      *handler.CatalogHandler
	Review       *handler.ReviewHandler
	Cart         *handler.CartHandler
	Address      *handler.AddressHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminProduct *handler.AdminProductHandler
	Newsletter   *handler.NewsletterHandler
}

func registerRoutes(e *echo.Echo, guards handler.Guards, h Handlers, health HealthCheck) {
	e.GET("/healthz", func(c echo.Context) error {
		if health != nil {
			if err := health(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, handler.ErrorResponse{Error: "store unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	//公開
	h.Catalog.RegisterRoutes(e)
	h.Newsletter.RegisterRoutes(e)

	//一部ログイン必須
	h.Auth.RegisterRoutes(e, guards)
	h.Review.RegisterRoutes(e, guards)

	//ログイン必須
	h.Cart.RegisterRoutes(e, guards)
	h.Address.RegisterRoutes(e, guards)
	h.Order.RegisterRoutes(e, guards)

	//admin
	admin := e.Group("/admin", guards.Admin...)
	h.AdminOrder.RegisterRoutes(admin)
	h.AdminProduct.RegisterRoutes(admin)
}
