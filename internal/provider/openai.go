package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/altbridge/chatd/internal/domain"
)

// OpenAIProvider adapts the OpenAI chat completion API (or any
// OpenAI-compatible endpoint via base URL override).
type OpenAIProvider struct {
	client *openai.Client
	name   string
}

// NewOpenAI creates an OpenAI provider. baseURL may be empty for the
// default endpoint.
func NewOpenAI(apiKey, baseURL string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		name:   "openai",
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

// Generate performs a single-shot completion.
func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &domain.ProviderError{Provider: p.name, Code: "empty_response", Err: fmt.Errorf("no choices returned")}
	}

	choice := resp.Choices[0]
	result := &Result{
		Text: choice.Message.Content,
		Usage: Usage{
			Input:  resp.Usage.PromptTokens,
			Output: resp.Usage.CompletionTokens,
			Total:  resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}

// GenerateStream opens a pull-based delta stream.
func (p *OpenAIProvider) GenerateStream(ctx context.Context, req *Request) (Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(req, true))
	if err != nil {
		return nil, p.wrapError(err)
	}
	return &openaiStream{provider: p, stream: stream}, nil
}

func (p *OpenAIProvider) buildRequest(req *Request, stream bool) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Stream:    stream,
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out.Messages = append(out.Messages, msg)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// wrapError normalizes API failures into ProviderError with a retryable
// flag. 429 and 5xx are retryable, other API failures are not.
func (p *OpenAIProvider) wrapError(err error) *domain.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ProviderError{Provider: p.name, Code: domain.CodeTimeout, Retryable: true, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider:  p.name,
			Code:      fmt.Sprintf("api_error_%d", apiErr.HTTPStatusCode),
			Retryable: apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500,
			Err:       err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.ProviderError{
			Provider:  p.name,
			Code:      fmt.Sprintf("request_error_%d", reqErr.HTTPStatusCode),
			Retryable: reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500,
			Err:       err,
		}
	}
	// Network-level failures are worth retrying.
	return &domain.ProviderError{Provider: p.name, Code: "network_error", Retryable: true, Err: err}
}

// openaiStream adapts the SDK stream to the pull contract. Tool call
// fragments are accumulated and surfaced as a single chunk once complete.
type openaiStream struct {
	provider *OpenAIProvider
	stream   *openai.ChatCompletionStream
	calls    []ToolCall
}

func (s *openaiStream) Recv() (Chunk, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			if len(s.calls) > 0 {
				call := s.calls[0]
				s.calls = s.calls[1:]
				return Chunk{ToolCall: &call}, nil
			}
			return Chunk{}, io.EOF
		}
		if err != nil {
			return Chunk{}, s.provider.wrapError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta
		if len(delta.ToolCalls) > 0 {
			s.accumulateToolCalls(delta.ToolCalls)
			continue
		}
		if delta.Content == "" {
			continue
		}
		return Chunk{Delta: delta.Content}, nil
	}
}

func (s *openaiStream) accumulateToolCalls(calls []openai.ToolCall) {
	for _, tc := range calls {
		idx := 0
		if tc.Index != nil {
			idx = *tc.Index
		}
		for len(s.calls) <= idx {
			s.calls = append(s.calls, ToolCall{})
		}
		if tc.ID != "" {
			s.calls[idx].ID = tc.ID
		}
		if tc.Function.Name != "" {
			s.calls[idx].Name = tc.Function.Name
		}
		s.calls[idx].Arguments += tc.Function.Arguments
	}
}

func (s *openaiStream) Close() error {
	s.stream.Close()
	return nil
}

// Compile-time capability checks.
var (
	_ Provider = (*OpenAIProvider)(nil)
	_ Streamer = (*OpenAIProvider)(nil)
)
