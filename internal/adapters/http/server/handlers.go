package server

import (
	"net/http"
	"time"

	"tokenbot/internal/adapters/logger"
	"tokenbot/internal/domain/chain"

	httpports "tokenbot/internal/ports/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HandlerAdapter adapts domain services to HTTP handlers
type HandlerAdapter struct {
	tokensService httpports.TokensService
	logger        *logger.Logger
}

// NewHandlerAdapter creates a new handler adapter
func NewHandlerAdapter(tokensService httpports.TokensService, log *logger.Logger) *HandlerAdapter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &HandlerAdapter{
		tokensService: tokensService,
		logger:        log,
	}
}

func (h *HandlerAdapter) ListTokens(c echo.Context) error {
	watchers := h.tokensService.List(c.Request().Context())
	return c.JSON(http.StatusOK, httpports.TokenList{
		Data:  httpports.ToHTTPTokens(watchers),
		Total: len(watchers),
	})
}

func (h *HandlerAdapter) GetToken(c echo.Context) error {
	address := c.Param("address")
	if !chain.IsChecksumAddress(address) {
		return c.JSON(http.StatusBadRequest, httpports.ErrorResponse{
			Error:   "Bad Request",
			Message: "address must be a checksummed 0x address",
		})
	}

	w, ok := h.tokensService.Snapshot(c.Request().Context(), address)
	if !ok {
		h.logger.Debug("Token not found", zap.String("address", address))
		return c.JSON(http.StatusNotFound, httpports.ErrorResponse{
			Error:   "Not Found",
			Message: "token not found",
		})
	}
	return c.JSON(http.StatusOK, httpports.ToHTTPToken(&w))
}

func (h *HandlerAdapter) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, httpports.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "tokenbot",
		Version:   "1.0.0",
		Tokens:    len(h.tokensService.List(c.Request().Context())),
	})
}
