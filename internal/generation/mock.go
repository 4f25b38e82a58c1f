package generation

import (
	"context"
	"sync"
)

// DefaultMockReply is returned by a MockGenerator without a configured reply.
const DefaultMockReply = "Ini adalah jawaban uji dari generator lokal."

// MockGenerator returns a fixed reply (or error) and records every prompt.
// It backs the "mock" provider for offline runs and tests.
type MockGenerator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

// NewMockGenerator returns a generator that always answers reply.
func NewMockGenerator(reply string) *MockGenerator {
	if reply == "" {
		reply = DefaultMockReply
	}
	return &MockGenerator{Reply: reply}
}

// Generate records prompt and returns the configured reply or error.
func (g *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

// Prompts returns a copy of the prompts received so far.
func (g *MockGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Close is a no-op.
func (g *MockGenerator) Close() error { return nil }
