package provider

import (
	"context"
	"fmt"

	"github.com/Morwran/yagpt"

	"github.com/altbridge/chatd/internal/domain"
)

// YandexProvider adapts YandexGPT. The API is single-shot only, so the
// provider deliberately does not implement Streamer; turns routed here
// fall back to non-streaming delivery.
type YandexProvider struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

// NewYandex exchanges the OAuth token for an IAM token and builds a
// client bound to the given folder.
func NewYandex(oauthToken, folderID string) (*YandexProvider, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexProvider{ya: ya, iamToken: resp.IamToken}, nil
}

func (p *YandexProvider) Name() string { return "yandex" }

// Generate performs a single-shot completion.
func (p *YandexProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	var messages []yagpt.Message
	for _, m := range req.Messages {
		role := m.Role
		// YandexGPT has no tool role; tool results are folded into user turns.
		if role == RoleTool {
			role = RoleUser
		}
		messages = append(messages, yagpt.Message{Role: role, Content: m.Content})
	}

	resp, err := p.ya.CompletionWithCtx(ctx, p.iamToken, messages)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &domain.ProviderError{Provider: p.Name(), Code: domain.CodeTimeout, Retryable: true, Err: err}
		}
		return nil, &domain.ProviderError{Provider: p.Name(), Code: "completion_failed", Retryable: true, Err: err}
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return nil, &domain.ProviderError{Provider: p.Name(), Code: "empty_response", Err: fmt.Errorf("yagpt returned empty response")}
	}

	return &Result{
		Text: resp.Alternatives[0].Message.Content,
		Usage: Usage{
			Input:  int(resp.Usage.InputTextTokens),
			Output: int(resp.Usage.CompletionTokens),
			Total:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

var _ Provider = (*YandexProvider)(nil)
