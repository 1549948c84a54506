package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/altbridge/chatd/internal/domain"
	"github.com/altbridge/chatd/internal/service"
	"github.com/altbridge/chatd/internal/sse"
)

// postMessageRequest is the body for POST /sessions/:session_id/messages.
type postMessageRequest struct {
	Message            string `json:"message"`
	UserID             string `json:"user_id"`
	AIProviderOverride string `json:"ai_provider_override"`
	ModelIDOverride    string `json:"model_id_override"`
	SpecialModeType    string `json:"specialModeType"`
	SystemPrompt       string `json:"systemPrompt"`
}

// postMessageResponse is the non-streaming completion object.
type postMessageResponse struct {
	Message       string `json:"message"`
	UserMessageID string `json:"user_message_id"`
	AIMessageID   string `json:"ai_message_id"`
}

// PostMessage submits a user message and runs one turn against the
// resolved provider. With specialModeType "stream" and a streaming-capable
// provider the response is an SSE stream; otherwise a single JSON object.
// POST /sessions/:session_id/messages
func (h *Handler) PostMessage(c echo.Context) error {
	var body postMessageRequest
	if err := c.Bind(&body); err != nil {
		return writeError(c, domain.NewValidationError("invalid request body"))
	}

	req := service.TurnRequest{
		SessionID:    c.Param("session_id"),
		UserID:       body.UserID,
		Text:         body.Message,
		Provider:     body.AIProviderOverride,
		Model:        body.ModelIDOverride,
		SystemPrompt: body.SystemPrompt,
	}

	if body.SpecialModeType == "stream" && h.service.SupportsStreaming(req.Provider) {
		return h.streamTurn(c, req)
	}

	result, err := h.service.CompleteTurn(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, postMessageResponse{
		Message:       result.Message,
		UserMessageID: result.UserMessageID,
		AIMessageID:   result.AIMessageID,
	})
}

// streamTurn writes the turn's protocol events as server-sent events.
// Errors raised before the stream starts map to plain HTTP errors; once
// headers are committed they arrive as terminal error events instead.
func (h *Handler) streamTurn(c echo.Context, req service.TurnRequest) error {
	events, err := h.service.StreamTurn(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	for ev := range events {
		frame, err := sse.Encode(ev)
		if err != nil {
			// Encoding never fails for well-formed events; drop the frame
			// and let the turn finish.
			continue
		}
		if _, err := res.Write(frame); err != nil {
			// Client is gone. Keep draining so the turn reaches a
			// terminal state and the partial message is persisted.
			for range events {
			}
			return nil
		}
		flusher.Flush()
	}
	return nil
}
