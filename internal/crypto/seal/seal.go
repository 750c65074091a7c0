// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package seal derives a vault key from a password and seals vault payloads
// with an authenticated cipher. The derived key lives in a memguard enclave
// and is only decrypted into locked memory for the duration of one operation.
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
)

const (
	// SaltSize is the size of the KDF salt in bytes.
	SaltSize = 24
	// keySize is the size of the derived key in bytes.
	keySize = 32
)

var (
	// ErrEmptyPassword is returned when the password is empty.
	ErrEmptyPassword = errors.New("empty password")
	// ErrDecrypt is returned when a blob cannot be opened, usually because the
	// password is wrong or the data was tampered with.
	ErrDecrypt = errors.New("decryption failed: wrong password or corrupted data")
	// ErrUnknownKDF is returned for an unregistered key derivation function.
	ErrUnknownKDF = errors.New("unknown key derivation function")
	// ErrUnknownCipher is returned for an unregistered cipher.
	ErrUnknownCipher = errors.New("unknown cipher")
	// ErrDestroyed is returned when a destroyed Sealer is used.
	ErrDestroyed = errors.New("sealer destroyed")
	// ErrShortBlob is returned when a sealed blob is shorter than its nonce.
	ErrShortBlob = errors.New("sealed blob too short")
	// ErrKeySize is returned by NewKeySealer for a key of the wrong length.
	ErrKeySize = errors.New("invalid key size")
)

// operationError is an error that includes the operation name.
type operationError struct {
	operation string
	err       error
}

// Error returns the error message.
func (e *operationError) Error() string {
	if e.err == nil {
		return "op:" + e.operation + " - no error provided"
	}
	return "op:" + e.operation + " - " + e.err.Error()
}

// Unwrap returns the wrapped error.
func (e *operationError) Unwrap() error {
	return e.err
}

// Params describes how a vault key is derived and used. They are stored next
// to the sealed data in clear.
type Params struct {
	KDF    KDF
	Cipher Cipher
	Salt   []byte
}

// NewParams returns params with a fresh random salt.
func NewParams(kdf KDF, c Cipher) (Params, error) {
	if _, ok := kdfRegistry[kdf]; !ok {
		return Params{}, &operationError{"NewParams", ErrUnknownKDF}
	}
	if _, ok := aeadRegistry[c]; !ok {
		return Params{}, &operationError{"NewParams", ErrUnknownCipher}
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return Params{}, &operationError{"NewParams", fmt.Errorf("salt generation error: %w", err)}
	}
	return Params{KDF: kdf, Cipher: c, Salt: salt}, nil
}

// Sealer seals and opens blobs with a key derived from a password.
type Sealer struct {
	params Params
	key    *memguard.Enclave
}

// NewSealer derives the vault key from password and params.
func NewSealer(password []byte, params Params) (*Sealer, error) {
	switch {
	case len(password) == 0:
		return nil, &operationError{"NewSealer", ErrEmptyPassword}
	case len(params.Salt) == 0:
		return nil, &operationError{"NewSealer", fmt.Errorf("salt not set")}
	}

	derive, ok := kdfRegistry[params.KDF]
	if !ok {
		return nil, &operationError{"NewSealer", ErrUnknownKDF}
	}
	if _, ok := aeadRegistry[params.Cipher]; !ok {
		return nil, &operationError{"NewSealer", ErrUnknownCipher}
	}

	key, err := derive(password, params.Salt, keySize)
	if err != nil {
		return nil, &operationError{"NewSealer", fmt.Errorf("key derivation error: %w", err)}
	}

	// NewEnclave wipes key.
	return &Sealer{params: params, key: memguard.NewEnclave(key)}, nil
}

// NewKeySealer seals with key as is, without key derivation. key must be
// 32 bytes; it is wiped once moved into the enclave.
func NewKeySealer(key []byte, c Cipher) (*Sealer, error) {
	if len(key) != keySize {
		return nil, &operationError{"NewKeySealer", fmt.Errorf("%w: got %d bytes, want %d", ErrKeySize, len(key), keySize)}
	}
	if _, ok := aeadRegistry[c]; !ok {
		return nil, &operationError{"NewKeySealer", ErrUnknownCipher}
	}
	return &Sealer{params: Params{Cipher: c}, key: memguard.NewEnclave(key)}, nil
}

// Params returns the parameters the sealer was built with.
func (s *Sealer) Params() Params { return s.params }

// Seal encrypts plaintext bound to aad. The result is NONCE || CIPHERTEXT.
func (s *Sealer) Seal(plaintext, aad []byte) ([]byte, error) {
	var out []byte
	err := s.withAEAD("Seal", func(aead cipher.AEAD) error {
		nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
		if _, err := rand.Read(nonce); err != nil {
			return fmt.Errorf("nonce generation error: %w", err)
		}
		out = aead.Seal(nonce, nonce, plaintext, aad)
		return nil
	})
	return out, err
}

// Open decrypts a blob produced by Seal with the same aad.
func (s *Sealer) Open(blob, aad []byte) ([]byte, error) {
	var out []byte
	err := s.withAEAD("Open", func(aead cipher.AEAD) error {
		if len(blob) < aead.NonceSize() {
			return ErrShortBlob
		}
		plaintext, err := aead.Open(nil, blob[:aead.NonceSize()], blob[aead.NonceSize():], aad)
		if err != nil {
			return ErrDecrypt
		}
		out = plaintext
		return nil
	})
	return out, err
}

// Destroy drops the key. The sealer is unusable afterwards.
func (s *Sealer) Destroy() {
	s.key = nil
}

func (s *Sealer) withAEAD(op string, fn func(cipher.AEAD) error) error {
	if s == nil || s.key == nil {
		return &operationError{op, ErrDestroyed}
	}
	buf, err := s.key.Open()
	if err != nil {
		return &operationError{op, fmt.Errorf("open key enclave: %w", err)}
	}
	defer buf.Destroy()

	aead, err := aeadRegistry[s.params.Cipher](buf.Bytes())
	if err != nil {
		return &operationError{op, err}
	}
	if err := fn(aead); err != nil {
		return &operationError{op, err}
	}
	return nil
}
