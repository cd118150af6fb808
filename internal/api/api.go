// Package api exposes the vault over HTTP.
package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/David-H-Afonso/beastvault/internal/conf"
	"github.com/David-H-Afonso/beastvault/internal/datastore"
	"github.com/David-H-Afonso/beastvault/internal/errors"
	"github.com/David-H-Afonso/beastvault/internal/logging"
	"github.com/David-H-Afonso/beastvault/internal/observability"
	"github.com/David-H-Afonso/beastvault/internal/vault"
)

// listCacheTTL is how long list query responses stay cached. Any mutation
// flushes the cache, so the TTL only bounds staleness across processes.
const listCacheTTL = 30 * time.Second

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Vault    *vault.Service

	listCache      *cache.Cache // caches list query responses
	metrics        *observability.Metrics
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
}

// New creates the API controller and registers its routes on e.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	vaultService *vault.Service, metrics *observability.Metrics) *Controller {

	c := &Controller{
		Echo:      e,
		DS:        ds,
		Settings:  settings,
		Vault:     vaultService,
		metrics:   metrics,
		listCache: cache.New(listCacheTTL, time.Minute),
	}

	c.apiLevelVar = new(slog.LevelVar)
	if settings.Server.Debug {
		c.apiLevelVar.Set(slog.LevelDebug)
	}
	logger, closeFunc, err := logging.NewFileLogger("logs/api.log", "api", c.apiLevelVar)
	if err != nil || logger == nil {
		logger = slog.Default().With("service", "api")
		closeFunc = func() error { return nil }
	}
	c.apiLogger = logger
	c.apiLoggerClose = closeFunc

	c.initRoutes()
	return c
}

// initRoutes registers every route under /api/v1.
func (c *Controller) initRoutes() {
	c.Echo.Use(middleware.Recover())

	c.Group = c.Echo.Group("/api/v1")

	// Collection
	c.Group.GET("/pokemon", c.GetPokemonList)
	c.Group.GET("/pokemon/grouped", c.GetPokemonGrouped)
	c.Group.DELETE("/pokemon/:id", c.DeletePokemon)
	c.Group.POST("/pokemon/import", c.ImportPokemon)
	c.Group.GET("/pokemon/:id/download", c.DownloadPokemon)
	c.Group.PUT("/pokemon/:id/tags", c.AssignTags)
	c.Group.POST("/scan", c.RunScan)

	// Tags
	c.Group.GET("/tags", c.GetTags)
	c.Group.POST("/tags", c.CreateTag)
	c.Group.DELETE("/tags/:id", c.DeleteTag)
	c.Group.POST("/tags/:id/image", c.UploadTagImage)
	c.Group.DELETE("/tags/:id/image", c.DeleteTagImage)

	// Client state
	c.Group.GET("/settings/:key", c.GetSetting)
	c.Group.PUT("/settings/:key", c.PutSetting)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// Shutdown flushes caches and closes the API log file.
func (c *Controller) Shutdown() {
	c.listCache.Flush()
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			slog.Default().Error("failed to close API log file", "error", err)
		}
	}
}

// invalidateListCache drops every cached list response. Called by every
// mutating handler.
func (c *Controller) invalidateListCache() {
	c.listCache.Flush()
}

// ErrorResponse is the JSON body returned for every handler failure.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs err and returns the JSON error response. The HTTP code
// is derived from the error category when code is zero.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	if code == 0 {
		code = statusForError(err)
	}
	resp := NewErrorResponse(err, message, code)

	c.apiLogger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", resp.Error,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP())

	return ctx.JSON(code, resp)
}

// statusForError maps error categories to HTTP status codes.
func statusForError(err error) int {
	var enhanced *errors.EnhancedError
	if !errors.As(err, &enhanced) {
		return http.StatusInternalServerError
	}
	switch enhanced.Category {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation, errors.CategoryFileParsing:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryNetwork, errors.CategoryTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
