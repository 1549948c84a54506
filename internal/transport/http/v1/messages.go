package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altbridge/chatd/internal/domain"
)

type updateMessageRequest struct {
	Content string `json:"content"`
}

type reactionRequest struct {
	Reaction string `json:"reaction"`
}

// UpdateMessage replaces a message's content.
// PUT /messages/:message_id
func (h *Handler) UpdateMessage(c echo.Context) error {
	var body updateMessageRequest
	if err := c.Bind(&body); err != nil {
		return writeError(c, domain.NewValidationError("invalid request body"))
	}

	msg, err := h.service.UpdateMessage(c.Request().Context(), c.Param("message_id"), body.Content)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

// DeleteMessage removes a message.
// DELETE /messages/:message_id
func (h *Handler) DeleteMessage(c echo.Context) error {
	if err := h.service.DeleteMessage(c.Request().Context(), c.Param("message_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// SetReaction sets a message's reaction, last write wins.
// POST /messages/:message_id/reaction
func (h *Handler) SetReaction(c echo.Context) error {
	var body reactionRequest
	if err := c.Bind(&body); err != nil {
		return writeError(c, domain.NewValidationError("invalid request body"))
	}

	if err := h.service.SetReaction(c.Request().Context(), c.Param("message_id"), body.Reaction); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ClearReaction removes a message's reaction.
// DELETE /messages/:message_id/reaction
func (h *Handler) ClearReaction(c echo.Context) error {
	if err := h.service.ClearReaction(c.Request().Context(), c.Param("message_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
