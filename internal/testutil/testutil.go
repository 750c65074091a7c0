// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil provides in-memory test doubles for the vault plugin
// contract so facade and UI tests run without touching disk or crypto.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toeirei/chatlocked/internal/stronghold"
)

// ErrWrongPassword is returned by FakePlugin.Load for a password mismatch.
var ErrWrongPassword = errors.New("fake: wrong password")

// FakePlugin is an in-memory stronghold.Plugin. Vaults survive Unload so a
// test can lock and re-open the same path. Every plugin call is recorded in
// Calls.
type FakePlugin struct {
	// LoadErr, if set, is returned by Load.
	LoadErr error
	// LoadClientErr, if set, is returned by LoadClient instead of a lookup.
	LoadClientErr error
	// InsertFunc, if set, is called before every Insert; its error aborts it.
	InsertFunc func(key string) error
	// SaveFunc, if set, is called by Save; its error is returned.
	SaveFunc func() error

	mu     sync.Mutex
	calls  []string
	vaults map[string]*FakeVault
}

// NewFakePlugin returns a ready-to-use FakePlugin.
func NewFakePlugin() *FakePlugin {
	return &FakePlugin{vaults: map[string]*FakeVault{}}
}

func (p *FakePlugin) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

// Calls returns the plugin calls made so far, e.g. "load", "insert:email".
func (p *FakePlugin) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Vault returns the vault stored at path, or nil.
func (p *FakePlugin) Vault(path string) *FakeVault {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vaults[path]
}

// Load implements stronghold.Plugin.
func (p *FakePlugin) Load(ctx context.Context, path, password string) (stronghold.Vault, error) {
	p.record("load")
	if p.LoadErr != nil {
		return nil, p.LoadErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.vaults[path]
	if !ok {
		v = &FakeVault{plugin: p, password: password, clients: map[string]*fakeRecords{}}
		p.vaults[path] = v
	} else if v.password != password {
		return nil, ErrWrongPassword
	}
	v.unloaded = false
	return v, nil
}

// FakeVault is the vault handle of FakePlugin.
type FakeVault struct {
	plugin   *FakePlugin
	password string
	clients  map[string]*fakeRecords
	saves    int
	unloaded bool
}

// Saves returns how often Save succeeded.
func (v *FakeVault) Saves() int {
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	return v.saves
}

// Unloaded reports whether Unload was called since the last Load.
func (v *FakeVault) Unloaded() bool {
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	return v.unloaded
}

// Expire drops key from client name as if its lifetime had run out.
func (v *FakeVault) Expire(client, key string) {
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	if c, ok := v.clients[client]; ok {
		delete(c.values, key)
	}
}

// TTL returns the lifetime key was inserted with.
func (v *FakeVault) TTL(client, key string) time.Duration {
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	if c, ok := v.clients[client]; ok {
		return c.ttls[key]
	}
	return 0
}

// LoadClient implements stronghold.Vault.
func (v *FakeVault) LoadClient(ctx context.Context, name string) (stronghold.Client, error) {
	v.plugin.record("loadClient")
	if v.plugin.LoadClientErr != nil {
		return nil, v.plugin.LoadClientErr
	}
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	c, ok := v.clients[name]
	if !ok {
		return nil, fmt.Errorf("fake: client %q: %w", name, stronghold.ErrClientNotFound)
	}
	return c, nil
}

// CreateClient implements stronghold.Vault.
func (v *FakeVault) CreateClient(ctx context.Context, name string) (stronghold.Client, error) {
	v.plugin.record("createClient")
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	c := &fakeRecords{plugin: v.plugin, values: map[string][]byte{}, ttls: map[string]time.Duration{}}
	v.clients[name] = c
	return c, nil
}

// Save implements stronghold.Vault.
func (v *FakeVault) Save(ctx context.Context) error {
	v.plugin.record("save")
	if v.plugin.SaveFunc != nil {
		if err := v.plugin.SaveFunc(); err != nil {
			return err
		}
	}
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	v.saves++
	return nil
}

// Unload implements stronghold.Vault.
func (v *FakeVault) Unload() error {
	v.plugin.record("unload")
	v.plugin.mu.Lock()
	defer v.plugin.mu.Unlock()
	v.unloaded = true
	return nil
}

type fakeRecords struct {
	plugin *FakePlugin
	values map[string][]byte
	ttls   map[string]time.Duration
}

func (r *fakeRecords) Records() stronghold.Records { return r }

func (r *fakeRecords) Insert(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.plugin.record("insert:" + key)
	if r.plugin.InsertFunc != nil {
		if err := r.plugin.InsertFunc(key); err != nil {
			return err
		}
	}
	r.plugin.mu.Lock()
	defer r.plugin.mu.Unlock()
	r.values[key] = append([]byte{}, value...)
	r.ttls[key] = ttl
	return nil
}

func (r *fakeRecords) Get(ctx context.Context, key string) ([]byte, error) {
	r.plugin.record("get:" + key)
	r.plugin.mu.Lock()
	defer r.plugin.mu.Unlock()
	v, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, v...), nil
}

func (r *fakeRecords) Remove(ctx context.Context, key string) ([]byte, error) {
	r.plugin.record("remove:" + key)
	r.plugin.mu.Lock()
	defer r.plugin.mu.Unlock()
	v, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	delete(r.values, key)
	delete(r.ttls, key)
	return v, nil
}

var (
	_ stronghold.Plugin = (*FakePlugin)(nil)
	_ stronghold.Vault  = (*FakeVault)(nil)
)
