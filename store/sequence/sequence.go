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

// Package sequence implements the durable, monotone auto-increment
// counters used by primary-key/auto-increment columns (spec §4.6): each
// Allocator reserves values in batches, persisting only the new
// high-water mark rather than every individual value handed out, so a
// crash never replays more than one batch's worth of wasted values
// (I5: values handed out are strictly monotone across durable commits).
package sequence

import (
	"sync"

	"github.com/riftdb/riftdb/store/rdberr"
	"github.com/riftdb/riftdb/store/schema"
)

// DefaultBatchSize is the number of values reserved per durable commit
// when an allocator's batch runs dry.
const DefaultBatchSize = 4096

// Allocator hands out strictly increasing values for one sequence. Next
// advances the in-memory cursor; Persist is called by store/datastore
// whenever the cursor would exceed the last durably allocated value,
// producing the new high-water mark to write as a SeqAlloc commit-log
// record.
type Allocator struct {
	mu sync.Mutex

	def schema.SequenceDef

	cursor    int64 // next value to hand out
	allocated int64 // durable high-water mark; cursor must never exceed this
	batchSize int64
}

// NewAllocator creates an allocator for def, resuming from a previously
// durable high-water mark (0 for a brand-new sequence).
func NewAllocator(def schema.SequenceDef, durableAllocated int64, batchSize int64) *Allocator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	start := def.Start
	if durableAllocated > start {
		start = durableAllocated
	}
	return &Allocator{def: def, cursor: start, allocated: durableAllocated, batchSize: batchSize}
}

// Next reserves the next value in the sequence. If the in-memory cursor
// has exhausted the current durable batch, reserve is invoked to persist
// a new high-water mark (a SeqAlloc record) before a value is handed out,
// guaranteeing the value returned is never re-handed-out after a crash.
func (a *Allocator) Next(reserve func(newAllocated int64) error) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cursor > a.def.MaxValue {
		return 0, rdberr.NewSequenceExhausted(a.def.ID)
	}

	if a.cursor >= a.allocated {
		next := a.cursor + a.batchSize
		if next > a.def.MaxValue {
			next = a.def.MaxValue
		}
		if reserve != nil {
			if err := reserve(next); err != nil {
				return 0, err
			}
		}
		a.allocated = next
	}

	v := a.cursor
	a.cursor += a.def.Increment
	return v, nil
}

// Allocated returns the current durable high-water mark, for metrics and
// tests.
func (a *Allocator) Allocated() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}

// Cursor returns the next value Next would hand out without reserving a
// new batch, for tests.
func (a *Allocator) Cursor() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursor
}

// Reset restores a recovered allocator's cursor to its durable high-water
// mark conservatively (spec §4.6): since individual handed-out values
// within a batch are not themselves durable, recovery must assume the
// entire last reserved batch might have been consumed.
func (a *Allocator) Reset(durableAllocated int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocated = durableAllocated
	if a.cursor < durableAllocated {
		a.cursor = durableAllocated
	}
}
