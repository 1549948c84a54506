package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMockGenerateEchoesLastUserMessage(t *testing.T) {
	m := NewMock()
	result, err := m.Generate(context.Background(), &Request{
		Model: "test",
		Messages: []Message{
			{Role: RoleSystem, Content: "You are helpful."},
			{Role: RoleUser, Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(result.Text, "hello") {
		t.Fatalf("echo missing user text: %q", result.Text)
	}
	if result.Usage.Total == 0 {
		t.Fatalf("usage not reported")
	}
}

func TestMockStreamConcatenatesToResponse(t *testing.T) {
	m := NewMock()
	m.Response = "streaming response text"

	stream, err := m.GenerateStream(context.Background(), &Request{Model: "test"})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		sb.WriteString(chunk.Delta)
	}
	if sb.String() != m.Response {
		t.Fatalf("chunks do not concatenate to response: %q", sb.String())
	}
}

func TestMockStreamScriptedChunks(t *testing.T) {
	m := NewMock()
	m.Chunks = []string{"He", "llo"}

	stream, _ := m.GenerateStream(context.Background(), &Request{})
	first, err := stream.Recv()
	if err != nil || first.Delta != "He" {
		t.Fatalf("unexpected first chunk: %q, %v", first.Delta, err)
	}
	second, err := stream.Recv()
	if err != nil || second.Delta != "llo" {
		t.Fatalf("unexpected second chunk: %q, %v", second.Delta, err)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestMockStreamHonorsContextCancel(t *testing.T) {
	m := NewMock()
	m.Chunks = []string{"a", "b", "c"}

	ctx, cancel := context.WithCancel(context.Background())
	stream, _ := m.GenerateStream(ctx, &Request{})

	if _, err := stream.Recv(); err != nil {
		t.Fatalf("first Recv failed: %v", err)
	}
	cancel()
	if _, err := stream.Recv(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMockStreamRecvAfterClose(t *testing.T) {
	m := NewMock()
	m.Chunks = []string{"a"}
	stream, _ := m.GenerateStream(context.Background(), &Request{})
	stream.Close()
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after close, got %v", err)
	}
}
