package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altbridge/chatd/internal/domain"
	"github.com/altbridge/chatd/internal/hub"
)

type broadcastRequest struct {
	TargetKind string      `json:"target_kind"`
	TargetID   string      `json:"target_id"`
	Event      string      `json:"event"`
	Payload    interface{} `json:"payload"`
}

// GetConnections reports live connection and room counts.
// GET /admin/connections
func (h *Handler) GetConnections(c echo.Context) error {
	hb := h.service.Hub()
	return c.JSON(http.StatusOK, map[string]int{
		"connections": hb.ConnectionCount(),
		"rooms":       hb.RoomCount(),
	})
}

// ForceBroadcast publishes an arbitrary event to a target room and
// reports how many connections received it.
// POST /admin/broadcast
func (h *Handler) ForceBroadcast(c echo.Context) error {
	var body broadcastRequest
	if err := c.Bind(&body); err != nil {
		return writeError(c, domain.NewValidationError("invalid request body"))
	}
	if body.Event == "" {
		return writeError(c, domain.NewValidationError("event is required"))
	}
	if body.TargetID == "" {
		return writeError(c, domain.NewValidationError("target_id is required"))
	}

	var target hub.Target
	switch body.TargetKind {
	case "session":
		target = hub.SessionTarget(body.TargetID)
	case "user":
		target = hub.UserTarget(body.TargetID)
	default:
		return writeError(c, domain.NewValidationError("target_kind must be session or user"))
	}

	delivered, err := h.service.Hub().Publish(target, body.Event, body.Payload)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"delivered": delivered,
	})
}
