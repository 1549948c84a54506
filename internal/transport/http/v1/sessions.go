package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altbridge/chatd/internal/domain"
	"github.com/altbridge/chatd/internal/service"
)

// CreateSession creates a new session.
// POST /sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req service.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, domain.NewValidationError("invalid request body"))
	}

	session, err := h.service.CreateSession(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

// ListSessions lists a user's sessions.
// GET /sessions?user_id=
func (h *Handler) ListSessions(c echo.Context) error {
	userID := c.QueryParam("user_id")

	sessions, err := h.service.ListSessions(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// UpdateSession updates title, category or archival state.
// PATCH /sessions/:session_id
func (h *Handler) UpdateSession(c echo.Context) error {
	var upd domain.SessionUpdate
	if err := c.Bind(&upd); err != nil {
		return writeError(c, domain.NewValidationError("invalid request body"))
	}

	session, err := h.service.UpdateSession(c.Request().Context(), c.Param("session_id"), upd)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// GetSessionMessages retrieves the ordered messages of a session.
// GET /sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	messages, err := h.service.GetMessages(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return writeError(c, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messages})
}
