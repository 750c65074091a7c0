// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keygen creates the account secret key and derives the session
// encryption key from the user's credentials.
package keygen

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// EncryptionKeySize is the size of a derived encryption key in bytes.
	EncryptionKeySize = sha256.Size
	// SecretKeySize is the number of random bytes in a secret key.
	SecretKeySize = EncryptionKeySize / 2
	// DefaultIterations is the PBKDF2 iteration count used when none is configured.
	DefaultIterations = 600000

	groupSize = 5
)

// ErrInvalidIterations is returned for a non-positive iteration count.
var ErrInvalidIterations = errors.New("pbkdf2 iterations must be positive")

// GenerateSecretKey returns a new random secret key formatted as upper-case
// hex in dash separated groups of five, e.g. "0A1B2-C3D4E-...".
func GenerateSecretKey() (string, error) {
	raw := make([]byte, SecretKeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return formatSecretKey(raw), nil
}

func formatSecretKey(raw []byte) string {
	digits := strings.ToUpper(hex.EncodeToString(raw))
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/groupSize)
	for i, r := range digits {
		if i != 0 && i%groupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DeriveEncryptionKey derives the hex encoded session encryption key with
// PBKDF2-HMAC-SHA512. The salt is the secret key followed by the email.
func DeriveEncryptionKey(iterations int, email, password, secretKey string) (string, error) {
	if iterations <= 0 {
		return "", ErrInvalidIterations
	}
	salt := make([]byte, 0, len(secretKey)+len(email))
	salt = append(salt, secretKey...)
	salt = append(salt, email...)

	key := pbkdf2.Key([]byte(password), salt, iterations, EncryptionKeySize, sha512.New)
	return hex.EncodeToString(key), nil
}
