package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// /healthz で呼ぶ
type HealthCheck func(ctx context.Context) error

type Server struct {
	e    *echo.Echo
	http *http.Server
	log  *zap.Logger
}

func New(
	cfg config.Config,
	log *zap.Logger,
	users repository.UserRepository,
	h Handlers,
	health HealthCheck,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.NewRequestValidator()
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.BodyLimit("1M"))
	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     []string{cfg.FEURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token", "X-Idempotency-Key"},
			AllowCredentials: true,
		}))
	}

	guards := handler.Guards{
		User: []echo.MiddlewareFunc{
			middleware.AuthJWT(cfg),
			middleware.TokenVersionGuard(users, log),
		},
	}
	guards.Admin = append(append([]echo.MiddlewareFunc{}, guards.User...), middleware.AdminRoleGuard())

	registerRoutes(e, guards, h, health)

	return &Server{
		e: e,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           e,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

// ctx が終わるまで待って graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("http server stopped gracefully")
	return nil
}

// echo の既定エラーも {"error": "..."} に揃える
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		} else {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		msg := http.StatusText(code)
		if code >= http.StatusInternalServerError {
			msg = "internal error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, handler.ErrorResponse{Error: msg})
	}
}
