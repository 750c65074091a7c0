// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package hold

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/toeirei/chatlocked/internal/crypto/seal"
	"github.com/toeirei/chatlocked/internal/vault"
)

func testSnapshot() *vault.Snapshot {
	s := vault.NewSnapshot()
	s.Clients["ChatLocked Client"] = map[string]vault.Record{
		"email":         {Value: []byte("a@b.com")},
		"encryptionKey": {Value: []byte("ek456"), ExpiresAt: time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)},
	}
	return s
}

func TestHold_NewVaultThenReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "chatlocked.hold")
	factory := Open(Options{KDF: seal.PBKDF2, Cipher: seal.AESGCM})

	b, err := factory(ctx, path, []byte("pw1"))
	if err != nil {
		t.Fatalf("open new: %v", err)
	}
	if _, err := b.Load(ctx); !errors.Is(err, vault.ErrNoVault) {
		t.Fatalf("expected ErrNoVault for a new vault, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("opening must not create the file, stat err: %v", err)
	}
	if err := b.Persist(ctx, testSnapshot()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	_ = b.Close()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("vault file mode = %v, want 0600", info.Mode().Perm())
	}
	raw, _ := os.ReadFile(path)
	if !bytes.HasPrefix(raw, []byte(magic)) || bytes.Contains(raw, []byte("a@b.com")) {
		t.Fatalf("unexpected file content")
	}

	b, err = factory(ctx, path, []byte("pw1"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = b.Close() }()
	snap, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	records := snap.Clients["ChatLocked Client"]
	if string(records["email"].Value) != "a@b.com" {
		t.Fatalf("email = %q", records["email"].Value)
	}
	if !records["encryptionKey"].ExpiresAt.Equal(time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("expiry not preserved: %v", records["encryptionKey"].ExpiresAt)
	}
	if !records["email"].ExpiresAt.IsZero() {
		t.Fatalf("record without expiry gained one: %v", records["email"].ExpiresAt)
	}
}

func TestHold_WrongPassword(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chatlocked.hold")
	factory := Open(Options{})

	b, err := factory(ctx, path, []byte("right"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := b.Persist(ctx, testSnapshot()); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	_ = b.Close()

	b, err = factory(ctx, path, []byte("wrong"))
	if err != nil {
		t.Fatalf("open with wrong password: %v", err)
	}
	if _, err := b.Load(ctx); !errors.Is(err, seal.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestHold_BadFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	notVault := filepath.Join(dir, "junk.hold")
	if err := os.WriteFile(notVault, []byte("hello world, definitely not a vault"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(Options{})(ctx, notVault, []byte("pw")); !errors.Is(err, ErrBadFormat) {
		t.Fatalf("expected ErrBadFormat, got %v", err)
	}

	if _, err := Open(Options{})(ctx, filepath.Join(dir, "new.hold"), nil); !errors.Is(err, seal.ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestHold_ThroughPlugin(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chatlocked.hold")
	p := vault.NewPlugin(Open(Options{KDF: seal.PBKDF2}))

	v, err := p.Load(ctx, path, "pw")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, err := v.CreateClient(ctx, "ChatLocked Client")
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if err := c.Records().Insert(ctx, "secretKey", []byte("sk123"), 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := v.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := v.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}

	v, err = p.Load(ctx, path, "pw")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer func() { _ = v.Unload() }()
	c, err = v.LoadClient(ctx, "ChatLocked Client")
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	got, err := c.Records().Get(ctx, "secretKey")
	if err != nil || string(got) != "sk123" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}
