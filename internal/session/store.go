package session

import (
	"context"
	"sync"
)

// CredentialStore persists the raw credential between runs. Get returns ""
// when nothing is stored; Set("") is equivalent to Clear.
type CredentialStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, credential string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	credential string
}

// NewMemoryStore returns a store, optionally seeded with a credential.
func NewMemoryStore(credential string) *MemoryStore {
	return &MemoryStore{credential: credential}
}

func (m *MemoryStore) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential, nil
}

func (m *MemoryStore) Set(_ context.Context, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = credential
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	return m.Set(ctx, "")
}
