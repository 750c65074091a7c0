// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package stronghold

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/toeirei/chatlocked/internal/logging"
)

const (
	// VaultFileName is the name of the vault file inside the app data directory.
	VaultFileName = "chatlocked.hold"
	// ClientName is the single client every ChatLocked vault holds.
	ClientName = "ChatLocked Client"

	// KeyEmail holds the account email.
	KeyEmail = "email"
	// KeySecretKey holds the account secret key.
	KeySecretKey = "secretKey"
	// KeyEncryptionKey holds the derived session encryption key.
	KeyEncryptionKey = "encryptionKey"

	// EncryptionKeyLifetime is how long the session encryption key lives in the vault.
	EncryptionKeyLifetime = 3600 * time.Second
)

// session is an opened vault together with its client and record store.
// The three handles are only ever created and dropped together.
type session struct {
	vault   Vault
	client  Client
	records Records
}

// openSession loads or creates the vault at path and its ChatLocked client.
func openSession(ctx context.Context, plugin Plugin, path, password string) (*session, error) {
	logging.Infof("Loading vault.")
	vault, err := plugin.Load(ctx, path, password)
	if err != nil {
		return nil, fmt.Errorf("load vault %s: %w", path, err)
	}

	logging.Infof("Loading client.")
	client, err := vault.LoadClient(ctx, ClientName)
	if errors.Is(err, ErrClientNotFound) {
		logging.Debugf("client %q not found, creating it", ClientName)
		client, err = vault.CreateClient(ctx, ClientName)
	}
	if err != nil {
		if uerr := vault.Unload(); uerr != nil {
			logging.Warnf("unload vault after failed client load: %v", uerr)
		}
		return nil, fmt.Errorf("load client %q: %w", ClientName, err)
	}

	return &session{vault: vault, client: client, records: client.Records()}, nil
}

// Store is the vault facade. The zero value is not usable; construct with New.
//
// All methods are safe for concurrent use. Operations are serialised, so a
// Lock racing a record operation either happens entirely before it (and the
// operation fails with ErrUninitialized) or entirely after it.
type Store struct {
	plugin  Plugin
	dataDir func() (string, error)

	mu        sync.Mutex
	sess      *session
	vaultPath string
}

// New returns an uninitialized Store. dataDir resolves the directory holding
// the vault file; it is called on every Init.
func New(plugin Plugin, dataDir func() (string, error)) *Store {
	return &Store{plugin: plugin, dataDir: dataDir}
}

// Init opens the vault with password. It fails with ErrAlreadyInitialized,
// without side effects, when a vault is already open.
func (s *Store) Init(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil {
		return ErrAlreadyInitialized
	}

	logging.Infof("Initializing stronghold.")

	dir, err := s.dataDir()
	if err != nil {
		return fmt.Errorf("resolve app data directory: %w", err)
	}
	path := filepath.Join(dir, VaultFileName)

	sess, err := openSession(ctx, s.plugin, path, password)
	if err != nil {
		return err
	}

	s.vaultPath = path
	s.sess = sess
	logging.Infof("Stronghold initialized.")
	return nil
}

// IsInitialized reports whether a vault, its client and its record store are open.
func (s *Store) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess != nil
}

// VaultPath returns the path of the last vault opened by Init.
func (s *Store) VaultPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vaultPath
}

// Setup stores the account email, secret key and session encryption key and
// saves the vault. The first failing step aborts; earlier writes stay in place.
func (s *Store) Setup(ctx context.Context, email, secretKey, encryptionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.insert(ctx, KeyEmail, email, 0); err != nil {
		return err
	}
	if err := s.insert(ctx, KeySecretKey, secretKey, 0); err != nil {
		return err
	}
	if err := s.insert(ctx, KeyEncryptionKey, encryptionKey, EncryptionKeyLifetime); err != nil {
		return err
	}
	return s.save(ctx)
}

// SetEncryptionKey stores the session encryption key with EncryptionKeyLifetime.
func (s *Store) SetEncryptionKey(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(ctx, KeyEncryptionKey, key, EncryptionKeyLifetime)
}

// InsertRecord stores value under key. A ttl of zero means no expiry.
func (s *Store) InsertRecord(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(ctx, key, value, ttl)
}

// GetRecord returns the value stored under key. A missing key yields an
// *InvalidKeyError.
func (s *Store) GetRecord(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return "", ErrUninitialized
	}
	data, err := s.sess.records.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get record %q: %w", key, err)
	}
	if data == nil {
		return "", &InvalidKeyError{Key: key}
	}
	return string(data), nil
}

// DeleteRecord removes key and returns the value it held. A missing key
// yields an *InvalidKeyError.
func (s *Store) DeleteRecord(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, key)
}

// Save persists the vault.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

// Lock removes the session encryption key, saves, and closes the vault.
// It never fails: the Store is uninitialized afterwards whatever happened
// to the cleanup.
func (s *Store) Lock(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return
	}

	// The session key may already be gone (expired or never set).
	ignore("remove session key", func() error {
		if _, err := s.remove(ctx, KeyEncryptionKey); err != nil {
			return err
		}
		return s.save(ctx)
	})

	sess := s.sess
	s.sess = nil
	if err := sess.vault.Unload(); err != nil {
		logging.Warnf("unload vault: %v", err)
	}
	logging.Infof("Stronghold locked.")
}

// ignore runs fn and drops its error after logging it at debug level.
func ignore(what string, fn func() error) {
	if err := fn(); err != nil {
		logging.Debugf("%s (ignored): %v", what, err)
	}
}

func (s *Store) insert(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.sess == nil {
		return ErrUninitialized
	}
	if err := s.sess.records.Insert(ctx, key, []byte(value), ttl); err != nil {
		return fmt.Errorf("insert record %q: %w", key, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, key string) (string, error) {
	if s.sess == nil {
		return "", ErrUninitialized
	}
	data, err := s.sess.records.Remove(ctx, key)
	if err != nil {
		return "", fmt.Errorf("remove record %q: %w", key, err)
	}
	if data == nil {
		return "", &InvalidKeyError{Key: key}
	}
	return string(data), nil
}

func (s *Store) save(ctx context.Context) error {
	if s.sess == nil {
		return ErrUninitialized
	}
	if err := s.sess.vault.Save(ctx); err != nil {
		return fmt.Errorf("save vault: %w", err)
	}
	return nil
}
