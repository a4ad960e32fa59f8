// Package directory provides reference implementations of the engine's
// user-directory collaborator: an in-process map for the single-user
// budgeting app, and a Redis hash for server deployments. Hosts with their
// own user database implement authkit.Directory directly instead.
package directory

import (
	"context"
	"sort"
	"sync"

	"github.com/pocketledger/authkit"
)

// Memory is an in-process Directory. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	creds map[string]authkit.Credential
}

// NewMemory returns an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{creds: make(map[string]authkit.Credential)}
}

// Get implements authkit.Directory.
func (m *Memory) Get(_ context.Context, userID string) (*authkit.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, ok := m.creds[userID]
	if !ok {
		return nil, authkit.ErrUserNotFound
	}
	out := cred
	return &out, nil
}

// List implements authkit.Directory. Results are ordered by user ID.
func (m *Memory) List(_ context.Context) ([]authkit.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]authkit.Credential, 0, len(m.creds))
	for _, cred := range m.creds {
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Upsert implements authkit.Directory.
func (m *Memory) Upsert(_ context.Context, cred authkit.Credential) error {
	m.mu.Lock()
	m.creds[cred.UserID] = cred
	m.mu.Unlock()
	return nil
}

// Delete implements authkit.Directory.
func (m *Memory) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.creds, userID)
	m.mu.Unlock()
	return nil
}
