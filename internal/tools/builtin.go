package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// NewBuiltinRegistry returns a registry preloaded with the built-in
// tools.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	mustRegister(r, "time.now", func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(fmt.Sprintf(`{"now":%q}`, time.Now().UTC().Format(time.RFC3339))), nil
	})
	mustRegister(r, "echo", func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		if len(args) == 0 {
			return json.RawMessage(`{}`), nil
		}
		return args, nil
	})
	return r
}

func mustRegister(r *Registry, name string, exec ExecutorFunc) {
	if err := r.Register(name, exec); err != nil {
		panic(err)
	}
}
