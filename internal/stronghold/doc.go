// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package stronghold is the vault facade of ChatLocked.
//
// A Store owns the lifecycle of one unlocked vault: Init opens (or creates)
// the vault file with a password, loads the ChatLocked client inside it and
// keeps the resulting vault, client and record handles together in a single
// session. Record operations require that session and fail with
// ErrUninitialized otherwise. Lock drops the session key, persists, unloads
// the vault and always leaves the Store uninitialized.
//
// Encryption, persistence and expiry enforcement belong to the Plugin the
// Store is constructed with; see internal/vault for the implementations
// shipped with ChatLocked.
package stronghold
