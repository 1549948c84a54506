// Package v1 provides the public HTTP handlers for the chat backend.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altbridge/chatd/internal/domain"
	"github.com/altbridge/chatd/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the public routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Sessions
	e.POST("/sessions", h.CreateSession)
	e.GET("/sessions", h.ListSessions)
	e.PATCH("/sessions/:session_id", h.UpdateSession)

	// Messages
	e.POST("/sessions/:session_id/messages", h.PostMessage)
	e.GET("/sessions/:session_id/messages", h.GetSessionMessages)
	e.PUT("/messages/:message_id", h.UpdateMessage)
	e.DELETE("/messages/:message_id", h.DeleteMessage)
	e.POST("/messages/:message_id/reaction", h.SetReaction)
	e.DELETE("/messages/:message_id/reaction", h.ClearReaction)

	// Operational tooling
	e.GET("/admin/connections", h.GetConnections)
	e.POST("/admin/broadcast", h.ForceBroadcast)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// writeError maps a domain error to the error envelope with a stable
// code. Provider and persistence details never leak to the client.
func writeError(c echo.Context, err error) error {
	return c.JSON(domain.HTTPStatus(err), map[string]interface{}{
		"status": "error",
		"error": map[string]string{
			"code":    domain.ErrorCode(err),
			"message": domain.ClientMessage(err),
		},
	})
}
