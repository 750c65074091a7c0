// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package seal

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	for _, kdf := range []KDF{Argon2ID, Scrypt, PBKDF2} {
		for _, c := range []Cipher{XChaCha20Poly1305, AESGCM} {
			t.Run(kdf.String()+"/"+c.String(), func(t *testing.T) {
				params, err := NewParams(kdf, c)
				if err != nil {
					t.Fatalf("NewParams: %v", err)
				}
				s, err := NewSealer([]byte("hunter22"), params)
				if err != nil {
					t.Fatalf("NewSealer: %v", err)
				}
				defer s.Destroy()

				blob, err := s.Seal([]byte("payload"), []byte("aad"))
				if err != nil {
					t.Fatalf("Seal: %v", err)
				}
				if bytes.Contains(blob, []byte("payload")) {
					t.Fatalf("plaintext visible in sealed blob")
				}
				got, err := s.Open(blob, []byte("aad"))
				if err != nil {
					t.Fatalf("Open: %v", err)
				}
				if string(got) != "payload" {
					t.Fatalf("expected payload, got %q", got)
				}

				if _, err := s.Open(blob, []byte("other")); !errors.Is(err, ErrDecrypt) {
					t.Fatalf("expected ErrDecrypt for aad mismatch, got %v", err)
				}
			})
		}
	}
}

func TestWrongPassword(t *testing.T) {
	params, err := NewParams(PBKDF2, XChaCha20Poly1305)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	good, err := NewSealer([]byte("right"), params)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	blob, err := good.Seal([]byte("x"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	bad, err := NewSealer([]byte("wrong"), params)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	if _, err := bad.Open(blob, nil); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestSealerArguments(t *testing.T) {
	params, err := NewParams(PBKDF2, AESGCM)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}

	t.Run("EmptyPassword", func(t *testing.T) {
		if _, err := NewSealer(nil, params); !errors.Is(err, ErrEmptyPassword) {
			t.Fatalf("expected ErrEmptyPassword, got %v", err)
		}
	})

	t.Run("UnknownKDF", func(t *testing.T) {
		p := params
		p.KDF = 42
		if _, err := NewSealer([]byte("pw"), p); !errors.Is(err, ErrUnknownKDF) {
			t.Fatalf("expected ErrUnknownKDF, got %v", err)
		}
	})

	t.Run("Destroyed", func(t *testing.T) {
		s, err := NewSealer([]byte("pw"), params)
		if err != nil {
			t.Fatalf("NewSealer: %v", err)
		}
		s.Destroy()
		if _, err := s.Seal([]byte("x"), nil); !errors.Is(err, ErrDestroyed) {
			t.Fatalf("expected ErrDestroyed, got %v", err)
		}
	})

	t.Run("ShortBlob", func(t *testing.T) {
		s, err := NewSealer([]byte("pw"), params)
		if err != nil {
			t.Fatalf("NewSealer: %v", err)
		}
		if _, err := s.Open([]byte{1, 2}, nil); !errors.Is(err, ErrShortBlob) {
			t.Fatalf("expected ErrShortBlob, got %v", err)
		}
	})
}

func TestParseNames(t *testing.T) {
	tests := []struct {
		name    string
		want    KDF
		wantErr bool
	}{
		{"argon2id", Argon2ID, false},
		{"SCRYPT", Scrypt, false},
		{"pbkdf2", PBKDF2, false},
		{"bcrypt", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKDF(tt.name)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseKDF(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseKDF(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if c, err := ParseCipher("aesgcm"); err != nil || c != AESGCM {
		t.Fatalf("ParseCipher(aesgcm) = %v, %v", c, err)
	}
	if _, err := ParseCipher("rot13"); !errors.Is(err, ErrUnknownCipher) {
		t.Fatalf("expected ErrUnknownCipher, got %v", err)
	}
}

func TestKeySealer(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	s, err := NewKeySealer(append([]byte{}, key...), AESGCM)
	if err != nil {
		t.Fatalf("NewKeySealer: %v", err)
	}
	blob, err := s.Seal([]byte("hello"), []byte("message"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	again, _ := NewKeySealer(append([]byte{}, key...), AESGCM)
	got, err := again.Open(blob, []byte("message"))
	if err != nil || string(got) != "hello" {
		t.Fatalf("Open = %q, %v", got, err)
	}

	other, _ := NewKeySealer(bytes.Repeat([]byte{8}, 32), AESGCM)
	if _, err := other.Open(blob, []byte("message")); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for another key, got %v", err)
	}

	if _, err := NewKeySealer(make([]byte, 16), AESGCM); !errors.Is(err, ErrKeySize) {
		t.Fatalf("expected ErrKeySize, got %v", err)
	}
	if _, err := NewKeySealer(make([]byte, 32), Cipher(99)); !errors.Is(err, ErrUnknownCipher) {
		t.Fatalf("expected ErrUnknownCipher, got %v", err)
	}
}
