package tts

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

type mockEngine struct {
	seq atomic.Int64
}

// NewMockEngine returns an Engine that fabricates audio references without
// touching the network.
func NewMockEngine() Engine { return &mockEngine{} }

func (m *mockEngine) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	return fmt.Sprintf("mock://audio/%s/%d", req.VoiceID, m.seq.Add(1)), nil
}
