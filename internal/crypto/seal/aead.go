// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher identifies the authenticated encryption scheme of a vault.
type Cipher uint8

const (
	// XChaCha20Poly1305 is the default cipher.
	XChaCha20Poly1305 Cipher = iota + 1
	// AESGCM seals with AES-256-GCM.
	AESGCM
)

var cipherNames = map[Cipher]string{
	XChaCha20Poly1305: "xchacha20poly1305",
	AESGCM:            "aesgcm",
}

// aeadRegistry is the authenticated encryption with associated data registry.
var aeadRegistry = map[Cipher]func([]byte) (cipher.AEAD, error){
	AESGCM: func(key []byte) (cipher.AEAD, error) {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, &operationError{operation: "aesgcm", err: err}
		}

		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, &operationError{operation: "aesgcm", err: err}
		}

		return aead, nil
	},
	XChaCha20Poly1305: func(key []byte) (cipher.AEAD, error) {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, &operationError{operation: "xchacha20poly1305", err: err}
		}

		return aead, nil
	},
}

func (c Cipher) String() string {
	if name, ok := cipherNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cipher(%d)", uint8(c))
}

// ParseCipher maps a configuration name to a Cipher.
func ParseCipher(name string) (Cipher, error) {
	for c, n := range cipherNames {
		if strings.EqualFold(n, name) {
			return c, nil
		}
	}
	return 0, &operationError{"ParseCipher", fmt.Errorf("%w: %q", ErrUnknownCipher, name)}
}
