// Package prompt assembles the effective prompt for a turn.
package prompt

import (
	"github.com/altbridge/chatd/internal/domain"
	"github.com/altbridge/chatd/internal/provider"
)

// Meta describes an assembled prompt for logging. Callers treat the
// prompt itself as opaque.
type Meta struct {
	Chars        int  `json:"chars"`
	Personalized bool `json:"personalized"`
	History      int  `json:"history"`
}

// Assembler builds provider message slices from the system prompt and the
// session's prior messages.
type Assembler struct {
	defaultSystemPrompt string
}

// NewAssembler creates an assembler with the given default system prompt.
func NewAssembler(defaultSystemPrompt string) *Assembler {
	return &Assembler{defaultSystemPrompt: defaultSystemPrompt}
}

// Build maps history and the new user text into provider messages. A
// non-empty override replaces the default system prompt and marks the
// prompt as personalized.
func (a *Assembler) Build(history []domain.Message, text, systemPromptOverride string) ([]provider.Message, Meta) {
	system := a.defaultSystemPrompt
	personalized := false
	if systemPromptOverride != "" {
		system = systemPromptOverride
		personalized = true
	}

	var messages []provider.Message
	if system != "" {
		messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: system})
	}
	for _, m := range history {
		role := provider.RoleUser
		if m.Role == domain.RoleAI {
			role = provider.RoleAssistant
		}
		messages = append(messages, provider.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: text})

	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return messages, Meta{Chars: chars, Personalized: personalized, History: len(history)}
}
