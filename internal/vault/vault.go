// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vault implements the stronghold plugin contract on top of a
// pluggable Backend. The decrypted snapshot lives in memory between Load and
// Unload; Save hands a copy to the backend. Record lifetimes are enforced
// here, so expired records read as absent whatever the backend.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/internal/stronghold"
)

var (
	// ErrNoVault is returned by Backend.Load when nothing has been persisted yet.
	ErrNoVault = errors.New("vault: nothing persisted yet")
	// ErrUnloaded is returned by handles used after Unload.
	ErrUnloaded = errors.New("vault: unloaded")
	// ErrClientExists is returned by CreateClient for an existing client.
	ErrClientExists = errors.New("vault: client already exists")
)

// Backend stores sealed snapshots.
type Backend interface {
	// Load returns the persisted snapshot, or ErrNoVault.
	Load(ctx context.Context) (*Snapshot, error)
	// Persist replaces the persisted snapshot.
	Persist(ctx context.Context, snap *Snapshot) error
	// Close releases key material and connections.
	Close() error
}

// BackendFactory opens the backend for the vault at path unlocked with password.
type BackendFactory func(ctx context.Context, path string, password []byte) (Backend, error)

// Plugin is a stronghold.Plugin backed by a Backend.
type Plugin struct {
	Open BackendFactory
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewPlugin returns a Plugin opening backends with open.
func NewPlugin(open BackendFactory) *Plugin {
	return &Plugin{Open: open, Now: time.Now}
}

// Load implements stronghold.Plugin.
func (p *Plugin) Load(ctx context.Context, path, password string) (stronghold.Vault, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}

	backend, err := p.Open(ctx, path, []byte(password))
	if err != nil {
		return nil, err
	}

	snap, err := backend.Load(ctx)
	switch {
	case errors.Is(err, ErrNoVault):
		logging.Debugf("vault: creating new vault at %s", path)
		snap = NewSnapshot()
	case err != nil:
		_ = backend.Close()
		return nil, err
	}
	if n := snap.Purge(now()); n > 0 {
		logging.Debugf("vault: purged %d expired records on load", n)
	}

	return &handle{backend: backend, snap: snap, now: now}, nil
}

// handle is an unlocked vault.
type handle struct {
	mu       sync.Mutex
	backend  Backend
	snap     *Snapshot
	now      func() time.Time
	unloaded bool
}

func (h *handle) LoadClient(ctx context.Context, name string) (stronghold.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded {
		return nil, ErrUnloaded
	}
	if _, ok := h.snap.Clients[name]; !ok {
		return nil, fmt.Errorf("vault: client %q: %w", name, stronghold.ErrClientNotFound)
	}
	return &client{h: h, name: name}, nil
}

func (h *handle) CreateClient(ctx context.Context, name string) (stronghold.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded {
		return nil, ErrUnloaded
	}
	if _, ok := h.snap.Clients[name]; ok {
		return nil, fmt.Errorf("vault: client %q: %w", name, ErrClientExists)
	}
	h.snap.Clients[name] = map[string]Record{}
	return &client{h: h, name: name}, nil
}

func (h *handle) Save(ctx context.Context) error {
	h.mu.Lock()
	if h.unloaded {
		h.mu.Unlock()
		return ErrUnloaded
	}
	h.snap.Purge(h.now())
	snap := h.snap.Clone()
	h.mu.Unlock()

	defer snap.Wipe()
	return h.backend.Persist(ctx, snap)
}

func (h *handle) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded {
		return nil
	}
	h.unloaded = true
	h.snap.Wipe()
	return h.backend.Close()
}

// records returns the records of client name, or an error when the handle
// was unloaded. Callers hold h.mu.
func (h *handle) records(name string) (map[string]Record, error) {
	if h.unloaded {
		return nil, ErrUnloaded
	}
	records, ok := h.snap.Clients[name]
	if !ok {
		return nil, fmt.Errorf("vault: client %q: %w", name, stronghold.ErrClientNotFound)
	}
	return records, nil
}

type client struct {
	h    *handle
	name string
}

func (c *client) Records() stronghold.Records { return c }

func (c *client) Insert(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	records, err := c.h.records(c.name)
	if err != nil {
		return err
	}
	r := Record{Value: append([]byte{}, value...)}
	if ttl > 0 {
		r.ExpiresAt = c.h.now().Add(ttl)
	}
	records[key] = r
	return nil
}

func (c *client) Get(ctx context.Context, key string) ([]byte, error) {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	r, ok, err := c.lookup(key)
	if err != nil || !ok {
		return nil, err
	}
	return append([]byte{}, r.Value...), nil
}

func (c *client) Remove(ctx context.Context, key string) ([]byte, error) {
	c.h.mu.Lock()
	defer c.h.mu.Unlock()
	r, ok, err := c.lookup(key)
	if err != nil || !ok {
		return nil, err
	}
	delete(c.h.snap.Clients[c.name], key)
	return append([]byte{}, r.Value...), nil
}

// lookup returns the live record under key, dropping it when expired.
func (c *client) lookup(key string) (Record, bool, error) {
	records, err := c.h.records(c.name)
	if err != nil {
		return Record{}, false, err
	}
	r, ok := records[key]
	if !ok {
		return Record{}, false, nil
	}
	if r.Expired(c.h.now()) {
		delete(records, key)
		return Record{}, false, nil
	}
	return r, true, nil
}

var (
	_ stronghold.Plugin  = (*Plugin)(nil)
	_ stronghold.Vault   = (*handle)(nil)
	_ stronghold.Records = (*client)(nil)
)
