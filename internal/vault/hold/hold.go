// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package hold stores a vault in a single encrypted file.
//
// File layout:
//
//	MAGIC(8) || KDF(1) || CIPHER(1) || SALT_LEN(1) || SALT || SEALED_PAYLOAD
//
// The header is authenticated as associated data of the sealed payload. The
// payload is the zstd compressed JSON encoding of the vault snapshot.
package hold

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/chatlocked/internal/crypto/seal"
	"github.com/toeirei/chatlocked/internal/logging"
	"github.com/toeirei/chatlocked/internal/vault"
)

const magic = "CLHOLD1\n"

// ErrBadFormat is returned for files that are not ChatLocked vaults.
var ErrBadFormat = errors.New("hold: not a chatlocked vault file")

// Options select the key derivation and cipher of newly created vaults.
// Existing vaults keep the parameters stored in their header.
type Options struct {
	KDF    seal.KDF
	Cipher seal.Cipher
}

// DefaultOptions are used by Open when opts are zero.
var DefaultOptions = Options{KDF: seal.Argon2ID, Cipher: seal.XChaCha20Poly1305}

// Open returns a vault.BackendFactory for hold files.
func Open(opts Options) vault.BackendFactory {
	if opts.KDF == 0 {
		opts.KDF = DefaultOptions.KDF
	}
	if opts.Cipher == 0 {
		opts.Cipher = DefaultOptions.Cipher
	}
	return func(ctx context.Context, path string, password []byte) (vault.Backend, error) {
		return open(path, password, opts)
	}
}

type backend struct {
	path   string
	header []byte
	body   []byte // sealed payload read at open; nil for a new vault
	sealer *seal.Sealer
}

func open(path string, password []byte, opts Options) (*backend, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		params, err := seal.NewParams(opts.KDF, opts.Cipher)
		if err != nil {
			return nil, err
		}
		sealer, err := seal.NewSealer(password, params)
		if err != nil {
			return nil, err
		}
		return &backend{path: path, header: encodeHeader(params), sealer: sealer}, nil
	case err != nil:
		return nil, fmt.Errorf("hold: read %s: %w", path, err)
	}

	params, headerLen, err := decodeHeader(data)
	if err != nil {
		return nil, fmt.Errorf("hold: %s: %w", path, err)
	}
	sealer, err := seal.NewSealer(password, params)
	if err != nil {
		return nil, err
	}
	return &backend{path: path, header: data[:headerLen], body: data[headerLen:], sealer: sealer}, nil
}

func encodeHeader(p seal.Params) []byte {
	h := make([]byte, 0, len(magic)+3+len(p.Salt))
	h = append(h, magic...)
	h = append(h, byte(p.KDF), byte(p.Cipher), byte(len(p.Salt)))
	return append(h, p.Salt...)
}

func decodeHeader(data []byte) (seal.Params, int, error) {
	fixed := len(magic) + 3
	if len(data) < fixed || !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return seal.Params{}, 0, ErrBadFormat
	}
	saltLen := int(data[len(magic)+2])
	if saltLen == 0 || len(data) < fixed+saltLen {
		return seal.Params{}, 0, ErrBadFormat
	}
	p := seal.Params{
		KDF:    seal.KDF(data[len(magic)]),
		Cipher: seal.Cipher(data[len(magic)+1]),
		Salt:   append([]byte{}, data[fixed:fixed+saltLen]...),
	}
	return p, fixed + saltLen, nil
}

func (b *backend) Load(ctx context.Context) (*vault.Snapshot, error) {
	if b.body == nil {
		return nil, vault.ErrNoVault
	}
	compressed, err := b.sealer.Open(b.body, b.header)
	if err != nil {
		return nil, fmt.Errorf("hold: open %s: %w", b.path, err)
	}

	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("hold: create zstd reader: %w", err)
	}
	defer zr.Close()
	payload, err := zr.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("hold: decompress: %w", err)
	}

	snap := vault.NewSnapshot()
	if err := json.Unmarshal(payload, snap); err != nil {
		return nil, fmt.Errorf("hold: decode snapshot: %w", err)
	}
	if snap.Clients == nil {
		snap.Clients = map[string]map[string]vault.Record{}
	}
	return snap, nil
}

func (b *backend) Persist(ctx context.Context, snap *vault.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("hold: encode snapshot: %w", err)
	}

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("hold: create zstd writer: %w", err)
	}
	compressed := zw.EncodeAll(payload, nil)
	_ = zw.Close()

	body, err := b.sealer.Seal(compressed, b.header)
	if err != nil {
		return fmt.Errorf("hold: seal: %w", err)
	}

	if err := writeAtomic(b.path, append(append([]byte{}, b.header...), body...)); err != nil {
		return err
	}
	b.body = body
	logging.Debugf("hold: saved %s (%d bytes sealed)", b.path, len(body))
	return nil
}

func (b *backend) Close() error {
	b.sealer.Destroy()
	b.body = nil
	return nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("hold: create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".chatlocked-*.tmp")
	if err != nil {
		return fmt.Errorf("hold: create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("hold: write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("hold: chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("hold: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("hold: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("hold: replace %s: %w", path, err)
	}
	return nil
}
