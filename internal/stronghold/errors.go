// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package stronghold

import "errors"

var (
	// ErrUninitialized is returned by record and save operations before Init.
	ErrUninitialized = errors.New("stronghold uninitialized: call Init and supply a password before continuing")
	// ErrInvalidKey is matched by every *InvalidKeyError.
	ErrInvalidKey = errors.New("invalid stronghold key")
	// ErrAlreadyInitialized is returned by Init when a vault is already open.
	ErrAlreadyInitialized = errors.New("stronghold already initialized")
	// ErrClientNotFound is returned by plugins from Vault.LoadClient when the
	// client does not exist. It is the only load failure that makes Init
	// create the client.
	ErrClientNotFound = errors.New("client not found")
)

// InvalidKeyError reports a record key with no data behind it.
type InvalidKeyError struct {
	Key string
}

func (e *InvalidKeyError) Error() string {
	return "invalid stronghold key: " + e.Key
}

// Is reports whether target is ErrInvalidKey.
func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}
