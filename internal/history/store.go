// Package history keeps per-session conversation transcripts for the life of
// the process. The store is deliberately not persistent; the turn log is the
// durable record.
package history

import (
	"context"
	"errors"
	"sync"
)

// Role tags an utterance as spoken by the user or generated by the model.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Utterance is one role-tagged message. Immutable once appended.
type Utterance struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrConflict is returned by CompareAndSwapAppend when the session grew since
// the expected length was observed.
var ErrConflict = errors.New("history: session modified concurrently")

// Store abstracts conversation storage so handlers can be tested with
// doubles. Appends are compare-and-swap so two concurrent turns on the same
// session can never silently overwrite each other's contribution.
type Store interface {
	// Get returns a snapshot of the session's history, oldest first. An
	// unseen session yields an empty history, not an error.
	Get(ctx context.Context, sessionID string) ([]Utterance, error)

	// CompareAndSwapAppend appends entries when the session currently holds
	// exactly expectedLen utterances, else returns ErrConflict.
	CompareAndSwapAppend(ctx context.Context, sessionID string, entries []Utterance, expectedLen int) error
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]Utterance
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Utterance)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Utterance(nil), s.sessions[sessionID]...), nil
}

func (s *MemoryStore) CompareAndSwapAppend(_ context.Context, sessionID string, entries []Utterance, expectedLen int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.sessions[sessionID]
	if len(current) != expectedLen {
		return ErrConflict
	}
	s.sessions[sessionID] = append(current, entries...)
	return nil
}

// Len reports the current history length for a session.
func (s *MemoryStore) Len(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[sessionID])
}
