package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/altbridge/chatd/internal/domain"
	"github.com/altbridge/chatd/internal/hub"
	"github.com/altbridge/chatd/internal/prompt"
	"github.com/altbridge/chatd/internal/provider"
	"github.com/altbridge/chatd/internal/telemetry"
)

// TurnRequest is one user-submitted message plus generation options.
type TurnRequest struct {
	SessionID    string
	UserID       string
	Text         string
	Provider     string
	Model        string
	SystemPrompt string
}

// TurnResult is the single completion object returned for non-streaming
// turns.
type TurnResult struct {
	Message       string         `json:"message"`
	UserMessageID string         `json:"user_message_id"`
	AIMessageID   string         `json:"ai_message_id"`
	Usage         provider.Usage `json:"usage"`
}

// SupportsStreaming reports whether the resolved provider can stream.
// Unknown provider keys report false; the turn itself surfaces the error.
func (s *Service) SupportsStreaming(providerKey string) bool {
	if providerKey == "" {
		providerKey = s.config.DefaultProvider
	}
	p, err := s.providers.Resolve(providerKey)
	if err != nil {
		return false
	}
	return provider.CanStream(p)
}

// preparedTurn carries everything assembled before generation starts.
type preparedTurn struct {
	turn     *domain.Turn
	prov     provider.Provider
	model    string
	messages []provider.Message
	meta     prompt.Meta
	started  time.Time
}

// prepareTurn validates the request, persists the user message and builds
// the effective prompt. After it returns, the user message exists and
// every failure path must produce an error record.
func (s *Service) prepareTurn(ctx context.Context, req TurnRequest) (*preparedTurn, error) {
	if req.Text == "" {
		return nil, domain.NewValidationError("message text is required")
	}
	if req.UserID == "" {
		return nil, domain.NewValidationError("user_id is required")
	}
	if _, err := s.store.GetSession(ctx, req.SessionID); err != nil {
		return nil, err
	}

	providerKey := req.Provider
	if providerKey == "" {
		providerKey = s.config.DefaultProvider
	}
	prov, err := s.providers.Resolve(providerKey)
	if err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = s.config.DefaultModel
	}

	// Fetch history before persisting so the new message is not doubled
	// into the prompt.
	history, err := s.store.GetMessages(ctx, req.SessionID, s.config.HistoryLimit)
	if err != nil {
		return nil, err
	}

	turn := domain.NewTurn("turn_"+uuid.New().String()[:8], req.SessionID, req.UserID)
	turn.Provider = prov.Name()
	turn.Model = model

	userMsg := &domain.Message{
		MessageID: "msg_" + uuid.New().String()[:8],
		SessionID: req.SessionID,
		Role:      domain.RoleUser,
		Content:   req.Text,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}
	turn.UserMessageID = userMsg.MessageID
	if err := turn.Transition(domain.TurnStateUserPersisted); err != nil {
		return nil, err
	}

	messages, meta := s.prompts.Build(history, req.Text, req.SystemPrompt)
	return &preparedTurn{
		turn:     turn,
		prov:     prov,
		model:    model,
		messages: messages,
		meta:     meta,
		started:  time.Now(),
	}, nil
}

// CompleteTurn runs a full non-streaming turn and returns the completion
// object. The persisted content is identical to what streaming mode would
// have produced for the same provider output.
func (s *Service) CompleteTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	pt, err := s.prepareTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	turn := pt.turn

	if err := turn.Transition(domain.TurnStateGenerating); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	genReq := &provider.Request{Model: pt.model, Messages: pt.messages, MaxTokens: s.config.MaxTokens}
	result, err := pt.prov.Generate(callCtx, genReq)
	if err != nil {
		s.recordTurnFailure(pt, err)
		return nil, err
	}

	usage := result.Usage
	toolsUsed := len(result.ToolCalls)
	if toolsUsed > 0 {
		followUp, err := s.runToolFollowUp(callCtx, pt, result)
		if err != nil {
			s.recordTurnFailure(pt, err)
			return nil, err
		}
		result.Text = followUp.Text
		usage.Input += followUp.Usage.Input
		usage.Output += followUp.Usage.Output
		usage.Total += followUp.Usage.Total
	}

	turn.Accumulate(result.Text)
	if err := s.persistAIMessage(ctx, turn); err != nil {
		s.recordTurnFailure(pt, err)
		return nil, err
	}
	if err := turn.Transition(domain.TurnStateCompleted); err != nil {
		return nil, err
	}

	s.notifyTurnCompleted(turn)
	s.recordTurnCompleted(pt, map[string]interface{}{
		"input_tokens":  usage.Input,
		"output_tokens": usage.Output,
		"total_tokens":  usage.Total,
		"tool_calls":    toolsUsed,
	})

	return &TurnResult{
		Message:       turn.Buffer(),
		UserMessageID: turn.UserMessageID,
		AIMessageID:   turn.AIMessageID,
		Usage:         usage,
	}, nil
}

// StreamTurn runs a streaming turn. The returned channel carries the
// turn's protocol events in generation order and is closed after the
// terminal event. Errors before the user message is persisted are
// returned directly; the caller maps them to a plain HTTP error.
func (s *Service) StreamTurn(ctx context.Context, req TurnRequest) (<-chan domain.ProtocolEvent, error) {
	pt, err := s.prepareTurn(ctx, req)
	if err != nil {
		return nil, err
	}
	streamer, ok := pt.prov.(provider.Streamer)
	if !ok {
		// Callers gate on SupportsStreaming; reaching this is a bug.
		s.recordTurnFailure(pt, domain.NewValidationError("provider %q cannot stream", pt.prov.Name()))
		return nil, domain.NewValidationError("provider %q cannot stream", pt.prov.Name())
	}

	events := make(chan domain.ProtocolEvent, 16)
	go s.runStreamingTurn(ctx, events, pt, streamer)
	return events, nil
}

// runStreamingTurn drives one streaming turn to a terminal state. It owns
// the event channel and closes it after the terminal event.
func (s *Service) runStreamingTurn(ctx context.Context, events chan<- domain.ProtocolEvent, pt *preparedTurn, streamer provider.Streamer) {
	defer close(events)
	turn := pt.turn

	// emit never blocks past client disconnect; the turn still runs to a
	// terminal state so the AI message is not lost.
	emit := func(ev domain.ProtocolEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	emit(domain.NewIDsEvent(turn.UserMessageID))

	if err := turn.Transition(domain.TurnStateGenerating); err != nil {
		s.failStreamingTurn(pt, err, emit)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	genReq := &provider.Request{Model: pt.model, Messages: pt.messages, MaxTokens: s.config.MaxTokens}
	stream, err := streamer.GenerateStream(callCtx, genReq)
	if err != nil {
		s.failStreamingTurn(pt, err, emit)
		return
	}
	defer stream.Close()

	if err := turn.Transition(domain.TurnStateStreaming); err != nil {
		s.failStreamingTurn(pt, err, emit)
		return
	}

	var toolCalls []provider.ToolCall
	deltaCount := 0
	clientGone := false

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil && callCtx.Err() != context.DeadlineExceeded {
				// Client disconnected mid-stream. Stop consuming but keep
				// the partial content; it is persisted below.
				clientGone = true
				break
			}
			s.failStreamingTurn(pt, err, emit)
			return
		}
		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
			continue
		}
		// Deltas pass through verbatim, one event per chunk, in
		// generation order.
		turn.Accumulate(chunk.Delta)
		deltaCount++
		emit(domain.NewDeltaEvent(chunk.Delta))
	}

	if !clientGone && len(toolCalls) > 0 {
		followUp, err := s.runToolFollowUp(callCtx, pt, &provider.Result{Text: turn.Buffer(), ToolCalls: toolCalls})
		if err != nil {
			s.failStreamingTurn(pt, err, emit)
			return
		}
		if followUp.Text != "" {
			turn.Accumulate(followUp.Text)
			deltaCount++
			emit(domain.NewDeltaEvent(followUp.Text))
		}
	}

	// Persist with a fresh context: the request context may already be
	// cancelled and the partial message must not be silently lost.
	persistCtx, persistCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer persistCancel()
	if err := s.persistAIMessage(persistCtx, turn); err != nil {
		s.failStreamingTurn(pt, err, emit)
		return
	}
	if err := turn.Transition(domain.TurnStateCompleted); err != nil {
		s.failStreamingTurn(pt, err, emit)
		return
	}

	emit(domain.NewAIMessageIDEvent(turn.AIMessageID))
	emit(domain.NewEndEvent(turn.AIMessageID))

	s.notifyTurnCompleted(turn)
	s.recordTurnCompleted(pt, map[string]interface{}{
		"delta_count": deltaCount,
		"tool_calls":  len(toolCalls),
		"partial":     clientGone,
	})
}

// persistAIMessage writes the accumulated buffer as the turn's AI message
// and advances the state machine.
func (s *Service) persistAIMessage(ctx context.Context, turn *domain.Turn) error {
	aiMsg := &domain.Message{
		MessageID: "msg_" + uuid.New().String()[:8],
		SessionID: turn.SessionID,
		Role:      domain.RoleAI,
		Content:   turn.Buffer(),
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateMessage(ctx, aiMsg); err != nil {
		return err
	}
	turn.AIMessageID = aiMsg.MessageID
	return turn.Transition(domain.TurnStateAIPersisted)
}

// runToolFollowUp executes reported tool calls and performs one follow-up
// generation with the results appended. Tool calls close the delta stream
// for the turn rather than interleaving with text.
func (s *Service) runToolFollowUp(ctx context.Context, pt *preparedTurn, result *provider.Result) (*provider.Result, error) {
	messages := append([]provider.Message{}, pt.messages...)
	messages = append(messages, provider.Message{
		Role:      provider.RoleAssistant,
		Content:   result.Text,
		ToolCalls: result.ToolCalls,
	})

	for _, call := range result.ToolCalls {
		out, err := s.tools.Execute(ctx, call.Name, json.RawMessage(call.Arguments))
		if err != nil {
			log.Printf("WARN: tool %s failed: %v", call.Name, err)
			out = json.RawMessage(`{"error":"tool execution failed"}`)
		}
		messages = append(messages, provider.Message{
			Role:       provider.RoleTool,
			Content:    string(out),
			ToolCallID: call.ID,
		})
	}

	return pt.prov.Generate(ctx, &provider.Request{
		Model:     pt.model,
		Messages:  messages,
		MaxTokens: s.config.MaxTokens,
	})
}

// failStreamingTurn moves the turn to failed, emits the terminal error
// event and records the failure.
func (s *Service) failStreamingTurn(pt *preparedTurn, err error, emit func(domain.ProtocolEvent)) {
	emit(domain.NewErrorEvent(domain.ErrorCode(err), domain.ClientMessage(err)))
	s.recordTurnFailure(pt, err)
}

// notifyTurnCompleted fans the completion out to the session and user
// rooms. Delivery is best-effort and decoupled from the response path.
func (s *Service) notifyTurnCompleted(turn *domain.Turn) {
	payload := map[string]interface{}{
		"session_id":      turn.SessionID,
		"user_message_id": turn.UserMessageID,
		"ai_message_id":   turn.AIMessageID,
	}
	if _, err := s.hub.Publish(hub.SessionTarget(turn.SessionID), "message_completed", payload); err != nil {
		log.Printf("WARN: failed to publish session notification: %v", err)
	}
	if _, err := s.hub.Publish(hub.UserTarget(turn.UserID), "message_completed", payload); err != nil {
		log.Printf("WARN: failed to publish user notification: %v", err)
	}
}

func (s *Service) recordTurnCompleted(pt *preparedTurn, extra map[string]interface{}) {
	payload := s.turnPayload(pt)
	for k, v := range extra {
		payload[k] = v
	}
	s.telemetry.Record(telemetry.LevelInfo, "turn_completed", payload)
}

// recordTurnFailure marks the turn failed and writes the failure record.
// Once the user message is persisted every failure lands here; no error
// is silently swallowed.
func (s *Service) recordTurnFailure(pt *preparedTurn, err error) {
	if !pt.turn.State().Terminal() {
		if terr := pt.turn.Transition(domain.TurnStateFailed); terr != nil {
			log.Printf("ERROR: failed to mark turn failed: %v", terr)
		}
	}
	payload := s.turnPayload(pt)
	payload["error"] = err.Error()
	payload["error_code"] = domain.ErrorCode(err)
	s.telemetry.Record(telemetry.LevelError, "turn_failed", payload)
}

func (s *Service) turnPayload(pt *preparedTurn) map[string]interface{} {
	turn := pt.turn
	payload := map[string]interface{}{
		"turn_id":      turn.TurnID,
		"session_id":   turn.SessionID,
		"user_id":      turn.UserID,
		"provider":     turn.Provider,
		"model":        turn.Model,
		"state":        string(turn.State()),
		"latency_ms":   time.Since(pt.started).Milliseconds(),
		"prompt_chars": pt.meta.Chars,
		"personalized": pt.meta.Personalized,
		"history":      pt.meta.History,
	}
	if turn.UserMessageID != "" {
		payload["user_message_id"] = turn.UserMessageID
	}
	if turn.AIMessageID != "" {
		payload["ai_message_id"] = turn.AIMessageID
	}
	return payload
}
