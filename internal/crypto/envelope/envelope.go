// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package envelope encrypts documents under the session encryption key.
//
// Every document gets a fresh data key. The fields are sealed with the data
// key, each bound to its field name, and the data key itself is sealed with
// the session key into the EDEK. Both are hex encoded, so a Document is plain
// JSON that can be stored or sent anywhere.
package envelope

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/toeirei/chatlocked/internal/crypto/seal"
	"github.com/toeirei/chatlocked/internal/security"
)

// MessageField is the field EncryptText stores the text under.
const MessageField = "message"

const (
	dataKeySize    = 32
	edekAAD        = "chatlocked edek"
	documentCipher = seal.AESGCM
)

var (
	// ErrInvalidKey is returned for a session key that is not 32 hex encoded bytes.
	ErrInvalidKey = errors.New("envelope: encryption key must be 64 hex characters")
	// ErrMissingField is returned by DecryptText for a document without a message.
	ErrMissingField = errors.New("envelope: document has no message field")
	// ErrMalformed is returned for documents whose EDEK or fields are not hex.
	ErrMalformed = errors.New("envelope: malformed document")
)

// Document is an encrypted document: the sealed data key and the sealed
// fields, all hex encoded.
type Document struct {
	EDEK     string            `json:"edek"`
	Document map[string]string `json:"document"`
}

// Fields returns the sorted field names of d.
func (d *Document) Fields() []string {
	names := make([]string, 0, len(d.Document))
	for name := range d.Document {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncryptText encrypts text under the hex encoded session key.
func EncryptText(text, key string) (*Document, error) {
	return Encrypt(map[string][]byte{MessageField: []byte(text)}, key)
}

// DecryptText returns the message of a document made by EncryptText.
func DecryptText(doc *Document, key string) (string, error) {
	fields, err := Decrypt(doc, key)
	if err != nil {
		return "", err
	}
	msg, ok := fields[MessageField]
	if !ok {
		return "", ErrMissingField
	}
	return string(msg), nil
}

// Encrypt seals every field under a new data key wrapped with key.
func Encrypt(fields map[string][]byte, key string) (*Document, error) {
	kek, err := keySealer(key)
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()

	dek := make([]byte, dataKeySize)
	if _, err := rand.Read(dek); err != nil {
		return nil, fmt.Errorf("envelope: generate data key: %w", err)
	}
	edek, err := kek.Seal(dek, []byte(edekAAD))
	if err != nil {
		security.Wipe(dek)
		return nil, fmt.Errorf("envelope: wrap data key: %w", err)
	}
	// NewKeySealer wipes dek.
	dataSealer, err := seal.NewKeySealer(dek, documentCipher)
	if err != nil {
		return nil, err
	}
	defer dataSealer.Destroy()

	doc := &Document{EDEK: hex.EncodeToString(edek), Document: make(map[string]string, len(fields))}
	for name, value := range fields {
		sealed, err := dataSealer.Seal(value, []byte(name))
		if err != nil {
			return nil, fmt.Errorf("envelope: seal field %q: %w", name, err)
		}
		doc.Document[name] = hex.EncodeToString(sealed)
	}
	return doc, nil
}

// Decrypt unwraps the data key of doc with key and opens every field.
func Decrypt(doc *Document, key string) (map[string][]byte, error) {
	if doc == nil {
		return nil, ErrMalformed
	}
	kek, err := keySealer(key)
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()

	edek, err := hex.DecodeString(doc.EDEK)
	if err != nil {
		return nil, fmt.Errorf("%w: edek: %v", ErrMalformed, err)
	}
	dek, err := kek.Open(edek, []byte(edekAAD))
	if err != nil {
		return nil, fmt.Errorf("envelope: unwrap data key: %w", err)
	}
	dataSealer, err := seal.NewKeySealer(dek, documentCipher)
	if err != nil {
		return nil, err
	}
	defer dataSealer.Destroy()

	fields := make(map[string][]byte, len(doc.Document))
	for _, name := range doc.Fields() {
		sealed, err := hex.DecodeString(doc.Document[name])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformed, name, err)
		}
		value, err := dataSealer.Open(sealed, []byte(name))
		if err != nil {
			return nil, fmt.Errorf("envelope: open field %q: %w", name, err)
		}
		fields[name] = value
	}
	return fields, nil
}

func keySealer(key string) (*seal.Sealer, error) {
	raw, err := hex.DecodeString(key)
	if err != nil || len(raw) != dataKeySize {
		security.Wipe(raw)
		return nil, ErrInvalidKey
	}
	return seal.NewKeySealer(raw, documentCipher)
}
