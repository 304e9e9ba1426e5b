package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type mockGenerator struct{}

// NewMockGenerator returns a Generator that echoes the prompt.
func NewMockGenerator() Generator { return &mockGenerator{} }

func (m *mockGenerator) Generate(ctx context.Context, prompt string, history []Message) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	return TextReply(fmt.Sprintf("[mock completion for %s after %d prior messages]",
		strings.TrimSpace(prompt), len(history))), nil
}
