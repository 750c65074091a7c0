// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toeirei/chatlocked/internal/stronghold"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPlugin() (*Plugin, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	p := NewPlugin(NewMemoryBackends().Open)
	p.Now = clock.Now
	return p, clock
}

func openRecords(t *testing.T, p *Plugin, password string) (stronghold.Vault, stronghold.Records) {
	t.Helper()
	ctx := context.Background()
	v, err := p.Load(ctx, "/vault.hold", password)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, err := v.LoadClient(ctx, "client")
	if errors.Is(err, stronghold.ErrClientNotFound) {
		c, err = v.CreateClient(ctx, "client")
	}
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return v, c.Records()
}

func TestPlugin_PersistAcrossLoads(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlugin()

	v, r := openRecords(t, p, "pw")
	if err := r.Insert(ctx, "email", []byte("a@b.com"), 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := r.Insert(ctx, "unsaved", []byte("x"), 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := v.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := r.Insert(ctx, "after-save", []byte("y"), 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := v.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}

	v, r = openRecords(t, p, "pw")
	defer func() { _ = v.Unload() }()
	got, err := r.Get(ctx, "email")
	if err != nil || string(got) != "a@b.com" {
		t.Fatalf("Get(email) = %q, %v", got, err)
	}
	if got, _ := r.Get(ctx, "after-save"); got != nil {
		t.Fatalf("unsaved record survived unload: %q", got)
	}
}

func TestPlugin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlugin()
	v, _ := openRecords(t, p, "pw")
	if err := v.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = v.Unload()

	if _, err := p.Load(ctx, "/vault.hold", "nope"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestClients(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlugin()
	v, err := p.Load(ctx, "/vault.hold", "pw")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := v.LoadClient(ctx, "c"); !errors.Is(err, stronghold.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if _, err := v.CreateClient(ctx, "c"); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if _, err := v.CreateClient(ctx, "c"); !errors.Is(err, ErrClientExists) {
		t.Fatalf("expected ErrClientExists, got %v", err)
	}
	if _, err := v.LoadClient(ctx, "c"); err != nil {
		t.Fatalf("LoadClient after create: %v", err)
	}
}

func TestRecords_GetRemoveAbsent(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlugin()
	_, r := openRecords(t, p, "pw")

	if got, err := r.Get(ctx, "nope"); got != nil || err != nil {
		t.Fatalf("Get(absent) = %v, %v; want nil, nil", got, err)
	}
	if got, err := r.Remove(ctx, "nope"); got != nil || err != nil {
		t.Fatalf("Remove(absent) = %v, %v; want nil, nil", got, err)
	}

	if err := r.Insert(ctx, "empty", []byte{}, 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got, err := r.Get(ctx, "empty"); got == nil || err != nil {
		t.Fatalf("empty value must be present, got %v, %v", got, err)
	}
	if got, _ := r.Remove(ctx, "empty"); got == nil {
		t.Fatalf("Remove must return the empty value")
	}
}

func TestRecords_TTL(t *testing.T) {
	ctx := context.Background()
	p, clock := newTestPlugin()
	v, r := openRecords(t, p, "pw")

	if err := r.Insert(ctx, "session", []byte("ek"), time.Hour); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := r.Insert(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	clock.Advance(59 * time.Minute)
	if got, _ := r.Get(ctx, "session"); string(got) != "ek" {
		t.Fatalf("record expired early: %q", got)
	}

	clock.Advance(time.Minute)
	if got, _ := r.Get(ctx, "session"); got != nil {
		t.Fatalf("record outlived its ttl: %q", got)
	}
	if got, _ := r.Remove(ctx, "session"); got != nil {
		t.Fatalf("expired record removable: %q", got)
	}
	if got, _ := r.Get(ctx, "forever"); string(got) != "v" {
		t.Fatalf("record without ttl expired: %q", got)
	}
	_ = v.Unload()
}

func TestRecords_ExpiredNotPersisted(t *testing.T) {
	ctx := context.Background()
	p, clock := newTestPlugin()
	v, r := openRecords(t, p, "pw")
	if err := r.Insert(ctx, "session", []byte("ek"), time.Second); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	clock.Advance(2 * time.Second)
	if err := v.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = v.Unload()

	_, r = openRecords(t, p, "pw")
	if got, _ := r.Get(ctx, "session"); got != nil {
		t.Fatalf("expired record persisted: %q", got)
	}
}

func TestUnload(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPlugin()
	v, r := openRecords(t, p, "pw")
	if err := v.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if err := v.Unload(); err != nil {
		t.Fatalf("second Unload: %v", err)
	}
	if err := r.Insert(ctx, "k", []byte("v"), 0); !errors.Is(err, ErrUnloaded) {
		t.Fatalf("expected ErrUnloaded from Insert, got %v", err)
	}
	if err := v.Save(ctx); !errors.Is(err, ErrUnloaded) {
		t.Fatalf("expected ErrUnloaded from Save, got %v", err)
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := NewSnapshot()
	s.Clients["c"] = map[string]Record{"k": {Value: []byte("v")}}
	c := s.Clone()
	c.Clients["c"]["k"].Value[0] = 'x'
	if string(s.Clients["c"]["k"].Value) != "v" {
		t.Fatalf("clone shares value storage")
	}
	s.Wipe()
	if len(s.Clients) != 0 {
		t.Fatalf("Wipe left clients behind")
	}
}
