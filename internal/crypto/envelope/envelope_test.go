// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package envelope

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/chatlocked/internal/crypto/seal"
)

var (
	testKey  = strings.Repeat("ab", 32)
	otherKey = strings.Repeat("cd", 32)
)

func TestTextRoundTrip(t *testing.T) {
	doc, err := EncryptText("hello chat", testKey)
	if err != nil {
		t.Fatalf("EncryptText: %v", err)
	}
	if _, err := hex.DecodeString(doc.EDEK); err != nil || doc.EDEK == "" {
		t.Fatalf("edek not hex: %q", doc.EDEK)
	}
	if got := doc.Fields(); len(got) != 1 || got[0] != MessageField {
		t.Fatalf("unexpected fields %v", got)
	}
	if strings.Contains(doc.Document[MessageField], hex.EncodeToString([]byte("hello chat"))) {
		t.Fatalf("message stored in clear")
	}
	got, err := DecryptText(doc, testKey)
	if err != nil || got != "hello chat" {
		t.Fatalf("DecryptText = %q, %v", got, err)
	}
}

func TestFreshDataKeyPerDocument(t *testing.T) {
	a, _ := EncryptText("same", testKey)
	b, _ := EncryptText("same", testKey)
	if a.EDEK == b.EDEK || a.Document[MessageField] == b.Document[MessageField] {
		t.Fatalf("two encryptions produced identical output")
	}
}

func TestWrongKey(t *testing.T) {
	doc, _ := EncryptText("secret", testKey)
	if _, err := DecryptText(doc, otherKey); !errors.Is(err, seal.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestInvalidKey(t *testing.T) {
	for _, key := range []string{"", "zz", strings.Repeat("ab", 16)} {
		if _, err := EncryptText("x", key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestTamperedDocument(t *testing.T) {
	doc, _ := EncryptText("secret", testKey)

	// moving a sealed field under another name must fail
	moved := &Document{EDEK: doc.EDEK, Document: map[string]string{"other": doc.Document[MessageField]}}
	if _, err := Decrypt(moved, testKey); !errors.Is(err, seal.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for renamed field, got %v", err)
	}

	raw, _ := hex.DecodeString(doc.Document[MessageField])
	raw[len(raw)-1] ^= 1
	flipped := &Document{EDEK: doc.EDEK, Document: map[string]string{MessageField: hex.EncodeToString(raw)}}
	if _, err := DecryptText(flipped, testKey); !errors.Is(err, seal.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for flipped bit, got %v", err)
	}

	bad := &Document{EDEK: "not hex", Document: doc.Document}
	if _, err := DecryptText(bad, testKey); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestMissingMessage(t *testing.T) {
	doc, err := Encrypt(map[string][]byte{"title": []byte("t")}, testKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := DecryptText(doc, testKey); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	fields, err := Decrypt(doc, testKey)
	if err != nil || string(fields["title"]) != "t" {
		t.Fatalf("Decrypt = %v, %v", fields, err)
	}
}
