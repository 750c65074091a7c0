// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core implements the account workflows on top of the vault facade:
// creating an account in a new vault, unlocking it, reading its keys and
// locking it again. The TUI and the CLI both drive a Service.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/toeirei/chatlocked/internal/crypto/envelope"
	"github.com/toeirei/chatlocked/internal/crypto/keygen"
	"github.com/toeirei/chatlocked/internal/form"
	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/internal/stronghold"
)

var (
	// ErrNotSetUp is returned by Login for a vault without an account.
	ErrNotSetUp = errors.New("vault has no account, run setup first")
	// ErrAlreadySetUp is returned by Setup for a vault that holds an account.
	ErrAlreadySetUp = errors.New("vault already holds an account")
	// ErrSessionExpired is returned when the session encryption key is gone.
	ErrSessionExpired = errors.New("session encryption key missing or expired, unlock again")
)

// KeyData is what an unlocked vault knows about the account. Absent records,
// including an expired encryption key, are nil.
type KeyData struct {
	Email         *string
	SecretKey     *string
	EncryptionKey *string
}

// Service runs account workflows against a vault.
type Service struct {
	Vault *stronghold.Store
	// Iterations is the PBKDF2 work factor for the encryption key.
	Iterations int
}

// NewService returns a Service for store. Non-positive iterations select
// keygen.DefaultIterations.
func NewService(store *stronghold.Store, iterations int) *Service {
	if iterations <= 0 {
		iterations = keygen.DefaultIterations
	}
	return &Service{Vault: store, Iterations: iterations}
}

// Setup opens the vault with the form password, generates the secret key,
// derives the encryption key and stores the account. The vault stays
// unlocked on success. The returned secret key is shown to the user once.
func (s *Service) Setup(ctx context.Context, f form.SetupForm) (string, error) {
	if err := form.Validate(f); err != nil {
		return "", err
	}
	if err := s.Vault.Init(ctx, f.Password); err != nil {
		return "", err
	}

	secretKey, err := s.setup(ctx, f)
	if err != nil {
		s.Vault.Lock(ctx)
		return "", err
	}
	logging.Infof("Account set up for %s.", f.Email)
	return secretKey, nil
}

func (s *Service) setup(ctx context.Context, f form.SetupForm) (string, error) {
	if _, err := s.Vault.GetRecord(ctx, stronghold.KeyEmail); err == nil {
		return "", ErrAlreadySetUp
	} else if !errors.Is(err, stronghold.ErrInvalidKey) {
		return "", err
	}

	secretKey, err := keygen.GenerateSecretKey()
	if err != nil {
		return "", err
	}
	encryptionKey, err := keygen.DeriveEncryptionKey(s.Iterations, f.Email, f.Password, secretKey)
	if err != nil {
		return "", err
	}
	if err := s.Vault.Setup(ctx, f.Email, secretKey, encryptionKey); err != nil {
		return "", err
	}
	return secretKey, nil
}

// Login opens the vault and refreshes the session encryption key from the
// stored account. Any failure after the vault opened locks it again.
func (s *Service) Login(ctx context.Context, f form.LoginForm) error {
	if err := form.Validate(f); err != nil {
		return err
	}
	if err := s.Vault.Init(ctx, f.Password); err != nil {
		return err
	}
	if err := s.login(ctx, f.Password); err != nil {
		s.Vault.Lock(ctx)
		return err
	}
	logging.Infof("Vault unlocked.")
	return nil
}

func (s *Service) login(ctx context.Context, password string) error {
	email, err := s.Vault.GetRecord(ctx, stronghold.KeyEmail)
	if err != nil {
		return accountErr(err)
	}
	secretKey, err := s.Vault.GetRecord(ctx, stronghold.KeySecretKey)
	if err != nil {
		return accountErr(err)
	}
	encryptionKey, err := keygen.DeriveEncryptionKey(s.Iterations, email, password, secretKey)
	if err != nil {
		return err
	}
	if err := s.Vault.SetEncryptionKey(ctx, encryptionKey); err != nil {
		return err
	}
	return s.Vault.Save(ctx)
}

func accountErr(err error) error {
	if errors.Is(err, stronghold.ErrInvalidKey) {
		return fmt.Errorf("%w: %w", ErrNotSetUp, err)
	}
	return err
}

// Keys reads the account records of the unlocked vault.
func (s *Service) Keys(ctx context.Context) (KeyData, error) {
	var data KeyData
	for _, field := range []struct {
		key string
		dst **string
	}{
		{stronghold.KeyEmail, &data.Email},
		{stronghold.KeySecretKey, &data.SecretKey},
		{stronghold.KeyEncryptionKey, &data.EncryptionKey},
	} {
		v, err := s.Vault.GetRecord(ctx, field.key)
		switch {
		case errors.Is(err, stronghold.ErrInvalidKey):
			continue
		case err != nil:
			return KeyData{}, err
		}
		*field.dst = &v
	}
	return data, nil
}

// EncryptText encrypts text under the session encryption key.
func (s *Service) EncryptText(ctx context.Context, text string) (*envelope.Document, error) {
	key, err := s.sessionKey(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := envelope.EncryptText(text, key)
	if err != nil {
		return nil, err
	}
	logging.Debugf("Encrypted %d bytes of text.", len(text))
	return doc, nil
}

// DecryptText opens a document made by EncryptText under the same session
// encryption key.
func (s *Service) DecryptText(ctx context.Context, doc *envelope.Document) (string, error) {
	key, err := s.sessionKey(ctx)
	if err != nil {
		return "", err
	}
	return envelope.DecryptText(doc, key)
}

func (s *Service) sessionKey(ctx context.Context) (string, error) {
	key, err := s.Vault.GetRecord(ctx, stronghold.KeyEncryptionKey)
	if errors.Is(err, stronghold.ErrInvalidKey) {
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return key, err
}

// Lock closes the vault.
func (s *Service) Lock(ctx context.Context) {
	s.Vault.Lock(ctx)
}

// IsUnlocked reports whether the vault is open.
func (s *Service) IsUnlocked() bool {
	return s.Vault.IsInitialized()
}
