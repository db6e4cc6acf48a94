// Copyright 2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package blob implements the content-addressed, refcounted store for
// var-len payloads that don't fit inline in a row's granule chain (spec
// §4.1 "Blob store"). Every payload is hashed, optionally snappy-
// compressed, and deduplicated by content: two rows that reference equal
// payloads share one on-disk blob, distinguished only by their reference
// count.
package blob

import (
	"context"
	"sync"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/riftdb/riftdb/store/hash"
	"github.com/riftdb/riftdb/store/rdberr"
)

// compressionThreshold is the minimum payload size, in bytes, below which
// snappy compression is skipped: tiny payloads rarely compress well enough
// to offset the framing overhead.
const compressionThreshold = 256

// entry is one blob's durable state: its (possibly compressed) payload
// bytes and the number of live row references to it.
type entry struct {
	raw        []byte
	compressed bool
	refs       int64
}

func (e *entry) data() ([]byte, error) {
	if !e.compressed {
		return e.raw, nil
	}
	out, err := snappy.Decode(nil, e.raw)
	if err != nil {
		return nil, errors.Wrap(err, "blob: corrupt snappy frame")
	}
	return out, nil
}

// Store is an in-memory content-addressed blob table. Its entries are not
// written to the commit log or to disk: a reopened datastore starts with
// an empty Store, and blob-routed fields are stored again as replay
// re-inserts the rows that carry them.
type Store struct {
	mu      sync.RWMutex
	entries map[hash.Hash]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[hash.Hash]*entry)}
}

// Insert hashes payload, stores it if not already present, and returns its
// content hash with its reference count incremented by one. Callers that
// already hold a hash for a known-present payload should prefer Incref.
func (s *Store) Insert(_ context.Context, payload []byte) (hash.Hash, error) {
	h := hash.Of(payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[h]; ok {
		e.refs++
		return h, nil
	}

	e := &entry{refs: 1}
	if len(payload) >= compressionThreshold {
		e.raw = snappy.Encode(nil, payload)
		e.compressed = true
	} else {
		e.raw = append([]byte(nil), payload...)
	}
	s.entries[h] = e
	return h, nil
}

// Get returns the decompressed payload for h, or rdberr.NotFound if h was
// never inserted or has been removed by Reap. An entry whose reference
// count is zero but which has not been reaped is still returned.
func (s *Store) Get(_ context.Context, h hash.Hash) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[h]
	s.mu.RUnlock()
	if !ok {
		return nil, rdberr.NewNotFound(rdberr.RowNotFound, h.String())
	}
	return e.data()
}

// Has reports whether the Store holds an entry for h, including one whose
// reference count is zero but which has not yet been reaped.
func (s *Store) Has(h hash.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[h]
	return ok
}

// Incref adds one reference to an already-present blob, used when a new
// row's field value equals a payload already stored under h (the common
// case for repeated large values, e.g. a shared WASM module blob across
// many st_module rows).
func (s *Store) Incref(h hash.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return rdberr.NewNotFound(rdberr.RowNotFound, h.String())
	}
	e.refs++
	return nil
}

// Decref drops one reference from h. The blob is not physically removed
// here: a dead entry (refs == 0) is only purged by Reap, so that a
// rolled-back transaction's Decref/Incref pair can cheaply cancel out
// without racing a concurrent reader's Get.
func (s *Store) Decref(h hash.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return rdberr.NewNotFound(rdberr.RowNotFound, h.String())
	}
	if e.refs > 0 {
		e.refs--
	}
	return nil
}

// RefCount returns h's current reference count, or 0 if h is unknown.
func (s *Store) RefCount(h hash.Hash) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[h]; ok {
		return e.refs
	}
	return 0
}

// Reap physically removes every blob whose reference count has reached
// zero and returns the hashes removed. Nothing in the engine calls Reap,
// so zero-reference entries stay in the Store until a caller does.
func (s *Store) Reap() []hash.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dead []hash.Hash
	for h, e := range s.entries {
		if e.refs <= 0 {
			dead = append(dead, h)
			delete(s.entries, h)
		}
	}
	return dead
}

// Len returns the number of live and zero-refcount-but-unreaped blobs
// currently tracked.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
