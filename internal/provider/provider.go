// Package provider abstracts heterogeneous AI backends behind a uniform
// generate/stream contract.
package provider

import "context"

// Chat roles understood by providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the effective prompt.
type Message struct {
	Role       string
	Content    string
	ToolCallID string     // set for role=tool results
	ToolCalls  []ToolCall // set when echoing an assistant tool request
}

// Request is a normalized generation request.
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
	Tools     []ToolSpec
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is a tool invocation reported by the model. Providers never
// execute tools; execution belongs to the caller.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Usage is normalized token accounting.
type Usage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Result is a completed single-shot generation.
type Result struct {
	Text      string
	Usage     Usage
	ToolCalls []ToolCall
}

// Chunk is one element of a streamed generation. Exactly one of Delta or
// ToolCall is set.
type Chunk struct {
	Delta    string
	ToolCall *ToolCall
}

// Stream is a finite, non-restartable pull sequence of chunks. Recv
// returns io.EOF after the last chunk.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// Provider is the minimal capability set every backend supports.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// Streamer is implemented by providers capable of incremental output.
type Streamer interface {
	Provider
	GenerateStream(ctx context.Context, req *Request) (Stream, error)
}
