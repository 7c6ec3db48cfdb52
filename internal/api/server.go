// Package api serves chat sessions over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/salesq/chat"
	"github.com/spektr-org/salesq/internal/metrics"
)

// Handler exposes a session manager.
type Handler struct {
	assistant *chat.Assistant
	sessions  *chat.Manager
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetrics records request metrics and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger logs one line per request.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler builds the handler for the sessions of one assistant.
func NewHandler(a *chat.Assistant, sessions *chat.Manager, opts ...Option) *Handler {
	h := &Handler{
		assistant: a,
		sessions:  sessions,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// New returns an echo instance with middleware and routes installed.
func (h *Handler) New() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = goccySerializer{}
	e.HTTPErrorHandler = h.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRoutePath: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if h.metrics != nil {
				h.metrics.RecordAPIRequest(v.Method, v.RoutePath, v.Status, v.Latency)
			}
			ev := h.logger.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = h.logger.Warn()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("duration", v.Latency).
				Msg("request")
			return nil
		},
	}))

	h.RegisterRoutes(e)
	return e
}

// RegisterRoutes installs the API routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}

	api := e.Group("/api")
	api.GET("/dataset", h.Dataset)
	api.GET("/examples", h.Examples)
	api.POST("/sessions", h.CreateSession)
	api.POST("/sessions/:id/ask", h.Ask)
	api.GET("/sessions/:id/history", h.History)
	api.GET("/sessions/:id/export.csv", h.Export)
	api.DELETE("/sessions/:id", h.ClearSession)
}

// Serve runs the server on addr and blocks until ctx is cancelled.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// goccySerializer implements echo.JSONSerializer with goccy/go-json.
type goccySerializer struct{}

func (goccySerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := json.NewEncoder(c.Response())
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (goccySerializer) Deserialize(c echo.Context, i any) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset)).SetInternal(err)
	case errors.As(err, &typeErr):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("field %s: expected %s", typeErr.Field, typeErr.Type)).SetInternal(err)
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
