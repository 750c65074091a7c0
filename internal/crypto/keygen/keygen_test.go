// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package keygen

import (
	"errors"
	"regexp"
	"testing"
)

var secretKeyPattern = regexp.MustCompile(`^([0-9A-F]{5}-){6}[0-9A-F]{2}$`)

func TestGenerateSecretKeyFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		k, err := GenerateSecretKey()
		if err != nil {
			t.Fatalf("GenerateSecretKey: %v", err)
		}
		if !secretKeyPattern.MatchString(k) {
			t.Fatalf("unexpected secret key format: %q", k)
		}
		if seen[k] {
			t.Fatalf("duplicate secret key %q", k)
		}
		seen[k] = true
	}
}

func TestFormatSecretKey(t *testing.T) {
	got := formatSecretKey([]byte{0xab, 0xcd, 0xef, 0x01, 0x23, 0x45})
	if got != "ABCDE-F0123-45" {
		t.Fatalf("unexpected formatting: %q", got)
	}
}

func TestDeriveEncryptionKey(t *testing.T) {
	a, err := DeriveEncryptionKey(1000, "a@b.com", "password1", "SK-1")
	if err != nil {
		t.Fatalf("DeriveEncryptionKey: %v", err)
	}
	if len(a) != EncryptionKeySize*2 {
		t.Fatalf("expected %d hex chars, got %d", EncryptionKeySize*2, len(a))
	}

	b, _ := DeriveEncryptionKey(1000, "a@b.com", "password1", "SK-1")
	if a != b {
		t.Fatalf("derivation is not deterministic")
	}

	for _, other := range [][3]string{
		{"c@d.com", "password1", "SK-1"},
		{"a@b.com", "password2", "SK-1"},
		{"a@b.com", "password1", "SK-2"},
	} {
		c, _ := DeriveEncryptionKey(1000, other[0], other[1], other[2])
		if c == a {
			t.Fatalf("expected different key for %v", other)
		}
	}

	if _, err := DeriveEncryptionKey(0, "a", "b", "c"); !errors.Is(err, ErrInvalidIterations) {
		t.Fatalf("expected ErrInvalidIterations, got %v", err)
	}
}
