// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"context"
	"errors"
	"sync"

	"github.com/toeirei/chatlocked/internal/security"
)

// ErrWrongPassword is returned by the memory backend for a password that
// does not match the one the vault was first persisted with.
var ErrWrongPassword = errors.New("vault: wrong password")

// MemoryBackends keeps snapshots in process memory, keyed by vault path.
// It backs the "memory" backend used for ephemeral sessions and tests.
type MemoryBackends struct {
	mu     sync.Mutex
	vaults map[string]*memoryVault
}

type memoryVault struct {
	password security.Secret
	snap     *Snapshot
}

// NewMemoryBackends returns an empty in-memory vault set.
func NewMemoryBackends() *MemoryBackends {
	return &MemoryBackends{vaults: map[string]*memoryVault{}}
}

// Open is a BackendFactory.
func (m *MemoryBackends) Open(ctx context.Context, path string, password []byte) (Backend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vaults[path]; ok && !v.password.Equal(password) {
		return nil, ErrWrongPassword
	}
	return &memoryBackend{set: m, path: path, password: security.FromBytes(password)}, nil
}

type memoryBackend struct {
	set      *MemoryBackends
	path     string
	password security.Secret
}

func (b *memoryBackend) Load(ctx context.Context) (*Snapshot, error) {
	b.set.mu.Lock()
	defer b.set.mu.Unlock()
	v, ok := b.set.vaults[b.path]
	if !ok {
		return nil, ErrNoVault
	}
	return v.snap.Clone(), nil
}

func (b *memoryBackend) Persist(ctx context.Context, snap *Snapshot) error {
	b.set.mu.Lock()
	defer b.set.mu.Unlock()
	b.set.vaults[b.path] = &memoryVault{password: b.password.Bytes(), snap: snap.Clone()}
	return nil
}

func (b *memoryBackend) Close() error {
	b.password.Zero()
	return nil
}
