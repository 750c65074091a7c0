// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package stronghold

import (
	"context"
	"time"
)

// Plugin opens encrypted vaults.
type Plugin interface {
	// Load opens the vault at path, creating it when absent, and unlocks it
	// with password.
	Load(ctx context.Context, path, password string) (Vault, error)
}

// Vault is an unlocked vault.
type Vault interface {
	// LoadClient returns the named client. Implementations return an error
	// matching ErrClientNotFound when the vault has no such client.
	LoadClient(ctx context.Context, name string) (Client, error)
	// CreateClient creates the named client.
	CreateClient(ctx context.Context, name string) (Client, error)
	// Save persists the vault.
	Save(ctx context.Context) error
	// Unload releases the vault. Unsaved changes are lost.
	Unload() error
}

// Client is a named identity inside a vault.
type Client interface {
	Records() Records
}

// Records is the key-value record store of a client.
type Records interface {
	// Insert stores value under key, replacing any previous value. A ttl of
	// zero means the record does not expire.
	Insert(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value stored under key, or nil when there is none.
	Get(ctx context.Context, key string) ([]byte, error)
	// Remove deletes key and returns the removed value, or nil when there was none.
	Remove(ctx context.Context, key string) ([]byte, error)
}
