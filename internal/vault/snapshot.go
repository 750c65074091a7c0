// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"time"

	"github.com/toeirei/chatlocked/internal/security"
)

// Record is a stored value with an optional expiry.
type Record struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the record has a lifetime that ended before now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Snapshot is the complete decrypted content of a vault: client name to
// record key to record.
type Snapshot struct {
	Clients map[string]map[string]Record `json:"clients"`
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Clients: map[string]map[string]Record{}}
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	for name, records := range s.Clients {
		cp := make(map[string]Record, len(records))
		for k, r := range records {
			cp[k] = Record{Value: append([]byte{}, r.Value...), ExpiresAt: r.ExpiresAt}
		}
		out.Clients[name] = cp
	}
	return out
}

// Purge drops every expired record and returns how many were dropped.
func (s *Snapshot) Purge(now time.Time) int {
	n := 0
	for _, records := range s.Clients {
		for k, r := range records {
			if r.Expired(now) {
				security.Wipe(r.Value)
				delete(records, k)
				n++
			}
		}
	}
	return n
}

// Wipe zeroes every value and empties the snapshot.
func (s *Snapshot) Wipe() {
	for _, records := range s.Clients {
		for _, r := range records {
			security.Wipe(r.Value)
		}
	}
	s.Clients = map[string]map[string]Record{}
}
