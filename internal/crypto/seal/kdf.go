// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package seal

import (
	"crypto/sha512"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// KDF identifies the password based key derivation function of a vault.
type KDF uint8

const (
	// Argon2ID is the default key derivation function.
	Argon2ID KDF = iota + 1
	// Scrypt derives keys with scrypt.
	Scrypt
	// PBKDF2 derives keys with PBKDF2-HMAC-SHA512.
	PBKDF2
)

const (
	argon2Iterations = 3
	argon2Memory     = 64 * 1024
	argon2Threads    = 4

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1

	pbkdf2IterationCount = 250000
)

var kdfNames = map[KDF]string{
	Argon2ID: "argon2id",
	Scrypt:   "scrypt",
	PBKDF2:   "pbkdf2",
}

// kdfRegistry is the key derivation function registry.
var kdfRegistry = map[KDF]func(secret, salt []byte, dkLen int) ([]byte, error){
	Argon2ID: func(secret, salt []byte, dkLen int) ([]byte, error) {
		return argon2.IDKey(secret, salt, argon2Iterations, argon2Memory, argon2Threads, uint32(dkLen)), nil
	},
	Scrypt: func(secret, salt []byte, dkLen int) ([]byte, error) {
		return scrypt.Key(secret, salt, scryptN, scryptR, scryptP, dkLen)
	},
	PBKDF2: func(secret, salt []byte, dkLen int) ([]byte, error) {
		return pbkdf2.Key(secret, salt, pbkdf2IterationCount, dkLen, sha512.New), nil
	},
}

func (k KDF) String() string {
	if name, ok := kdfNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kdf(%d)", uint8(k))
}

// ParseKDF maps a configuration name to a KDF.
func ParseKDF(name string) (KDF, error) {
	for k, n := range kdfNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return 0, &operationError{"ParseKDF", fmt.Errorf("%w: %q", ErrUnknownKDF, name)}
}
