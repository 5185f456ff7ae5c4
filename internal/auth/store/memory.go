package store

import (
	"context"
	"sync"
	"time"
)

// Memory keeps revocations in process memory. They are lost on restart and
// not shared between instances.
type Memory struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{revoked: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}

	m.revoked[tokenID] = until

	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[tokenID]

	return ok && exp.After(m.now()), nil
}
