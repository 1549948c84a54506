package provider

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockProvider is a deterministic in-process provider used in mock mode
// and in tests. Responses echo the last user message unless a scripted
// Response is set.
type MockProvider struct {
	// Response, when non-empty, is returned verbatim instead of the echo.
	Response string
	// Chunks, when set, overrides the stream chunking.
	Chunks []string
	// GenerateErr / StreamErr force failures.
	GenerateErr error
	StreamErr   error
	// ToolCalls are attached to single-shot results.
	ToolCalls []ToolCall
	// ChunkGate, when set, is received from before each chunk is yielded;
	// tests use it to pace the stream.
	ChunkGate chan struct{}
}

// NewMock creates a mock provider.
func NewMock() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Name() string { return "mock" }

// Generate returns a mock completion.
func (m *MockProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}
	text := m.responseText(req)
	return &Result{
		Text: text,
		Usage: Usage{
			Input:  m.estimateTokens(req),
			Output: len(text) / 4,
			Total:  m.estimateTokens(req) + len(text)/4,
		},
		ToolCalls: m.ToolCalls,
	}, nil
}

// GenerateStream yields the mock completion in small chunks.
func (m *MockProvider) GenerateStream(ctx context.Context, req *Request) (Stream, error) {
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	chunks := m.Chunks
	if chunks == nil {
		chunks = splitIntoChunks(m.responseText(req), 10)
	}
	return &mockStream{ctx: ctx, chunks: chunks, gate: m.ChunkGate}, nil
}

func (m *MockProvider) responseText(req *Request) string {
	if m.Response != "" {
		return m.Response
	}
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			lastUser = req.Messages[i].Content
			break
		}
	}
	if lastUser == "" {
		return "[MOCK] This is a mock response."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q.", truncate(lastUser, 100))
}

func (m *MockProvider) estimateTokens(req *Request) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

type mockStream struct {
	ctx    context.Context
	chunks []string
	gate   chan struct{}
	pos    int
	mu     sync.Mutex
	closed bool
}

func (s *mockStream) Recv() (Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Chunk{}, io.EOF
	}
	if s.pos >= len(s.chunks) {
		return Chunk{}, io.EOF
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-s.ctx.Done():
			return Chunk{}, s.ctx.Err()
		}
	} else if err := s.ctx.Err(); err != nil {
		return Chunk{}, err
	}
	chunk := Chunk{Delta: s.chunks[s.pos]}
	s.pos++
	return chunk, nil
}

func (s *mockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// splitIntoChunks splits a string into chunks of approximately the given size.
func splitIntoChunks(s string, chunkSize int) []string {
	if len(s) == 0 {
		return []string{""}
	}
	var chunks []string
	for i := 0; i < len(s); i += chunkSize {
		end := i + chunkSize
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var (
	_ Provider = (*MockProvider)(nil)
	_ Streamer = (*MockProvider)(nil)
)
