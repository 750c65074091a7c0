// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package factory builds the vault plugin selected by configuration.
package factory

import (
	"fmt"
	"strings"

	"github.com/toeirei/chatlocked/internal/config"
	"github.com/toeirei/chatlocked/internal/crypto/seal"
	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/internal/stronghold"
	"github.com/toeirei/chatlocked/internal/vault"
	"github.com/toeirei/chatlocked/internal/vault/hold"
	"github.com/toeirei/chatlocked/internal/vault/sqlstore"
)

// Backends lists the accepted values of vault.backend.
var Backends = []string{"hold", "sqlite", "postgres", "mysql", "memory"}

// New returns a stronghold.Plugin for cfg. An empty backend selects hold.
func New(cfg config.VaultConfig) (stronghold.Plugin, error) {
	kdf := seal.Argon2ID
	if cfg.KDF != "" {
		k, err := seal.ParseKDF(cfg.KDF)
		if err != nil {
			return nil, fmt.Errorf("vault.kdf: %w", err)
		}
		kdf = k
	}
	cipher := seal.XChaCha20Poly1305
	if cfg.Cipher != "" {
		c, err := seal.ParseCipher(cfg.Cipher)
		if err != nil {
			return nil, fmt.Errorf("vault.cipher: %w", err)
		}
		cipher = c
	}

	backend := strings.ToLower(cfg.Backend)
	var open vault.BackendFactory
	switch {
	case backend == "" || backend == "hold":
		backend = "hold"
		open = hold.Open(hold.Options{KDF: kdf, Cipher: cipher})
	case backend == "memory":
		open = vault.NewMemoryBackends().Open
	case sqlstore.IsDialect(backend):
		if backend != "sqlite" && cfg.DSN.Empty() {
			return nil, fmt.Errorf("vault.dsn is required for the %s backend", backend)
		}
		open = sqlstore.Open(sqlstore.Options{Type: backend, DSN: cfg.DSN.Reveal(), KDF: kdf, Cipher: cipher})
	default:
		return nil, fmt.Errorf("unknown vault backend %q (want one of %s)", cfg.Backend, strings.Join(Backends, ", "))
	}

	logging.Debugf("vault backend %s (kdf %s, cipher %s)", backend, kdf, cipher)
	return vault.NewPlugin(open), nil
}
