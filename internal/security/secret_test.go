// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestSecretRedactionAndJSON(t *testing.T) {
	s := FromString("supersecret")
	for _, verb := range []string{"%v", "%s", "%q", "%#v", "%x"} {
		if got := fmt.Sprintf(verb, s); got != "[SECRET]" {
			t.Fatalf("unexpected fmt output for %s: %q", verb, got)
		}
	}
	b, err := json.Marshal(struct{ P Secret }{s})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(b) != `{"P":"[SECRET]"}` {
		t.Fatalf("unexpected json marshal: %s", string(b))
	}
	if s.Reveal() != "supersecret" {
		t.Fatalf("Reveal returned %q", s.Reveal())
	}
}

func TestSecretZero(t *testing.T) {
	s := FromString("abc123")
	(&s).Zero()
	for i, c := range s {
		if c != 0 {
			t.Fatalf("expected zeroed byte at index %d, got %d", i, c)
		}
	}

	var nilSecret *Secret
	nilSecret.Zero()
}

func TestSecretCopiesAndEqual(t *testing.T) {
	src := []byte("pw")
	s := FromBytes(src)
	src[0] = 'x'
	if s.Reveal() != "pw" {
		t.Fatalf("FromBytes did not copy: %q", s.Reveal())
	}

	b := s.Bytes()
	b[0] = 'y'
	if s.Reveal() != "pw" {
		t.Fatalf("Bytes did not copy: %q", s.Reveal())
	}

	if !s.Equal(FromString("pw")) || s.Equal(FromString("pw2")) {
		t.Fatalf("Equal returned unexpected result")
	}
	if !Secret(nil).Empty() || s.Empty() {
		t.Fatalf("Empty returned unexpected result")
	}
}
