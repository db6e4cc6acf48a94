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

package btree

import (
	"encoding/binary"

	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/rdberr"
)

// DirectIndex is a dense-array index over a small-integer single-column
// key (spec §9 "Direct indexes"): O(1) lookup by slice index instead of a
// tree descent, used for tables whose key column is a densely packed
// small-int enum (e.g. a fixed set of module-defined row kinds).
type DirectIndex struct {
	Name   string
	Unique bool
	slots  []*page.Pointer // nil slot == no row at that key
	multi  map[uint32][]page.Pointer
}

// NewDirect creates an empty direct index.
func NewDirect(name string, unique bool) *DirectIndex {
	return &DirectIndex{Name: name, Unique: unique, multi: make(map[uint32][]page.Pointer)}
}

func (dx *DirectIndex) grow(key uint32) {
	if int(key) < len(dx.slots) {
		return
	}
	grown := make([]*page.Pointer, key+1)
	copy(grown, dx.slots)
	dx.slots = grown
}

// Insert adds ptr under the small-int key. A unique DirectIndex rejects
// an insert into an already-occupied slot pointing at a different row.
func (dx *DirectIndex) Insert(key uint32, ptr page.Pointer) error {
	if dx.Unique {
		dx.grow(key)
		if existing := dx.slots[key]; existing != nil && *existing != ptr {
			keyBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(keyBytes, key)
			return rdberr.NewUniqueViolation(dx.Name, keyBytes, *existing)
		}
		p := ptr
		dx.slots[key] = &p
		return nil
	}
	dx.multi[key] = append(dx.multi[key], ptr)
	return nil
}

// Delete removes ptr from key's slot. It reports whether anything was
// removed.
func (dx *DirectIndex) Delete(key uint32, ptr page.Pointer) bool {
	if dx.Unique {
		if int(key) >= len(dx.slots) || dx.slots[key] == nil || *dx.slots[key] != ptr {
			return false
		}
		dx.slots[key] = nil
		return true
	}
	ptrs := dx.multi[key]
	for i, p := range ptrs {
		if p == ptr {
			dx.multi[key] = append(ptrs[:i], ptrs[i+1:]...)
			return true
		}
	}
	return false
}

// SeekEq returns every pointer stored under key.
func (dx *DirectIndex) SeekEq(key uint32) []page.Pointer {
	if dx.Unique {
		if int(key) < len(dx.slots) && dx.slots[key] != nil {
			return []page.Pointer{*dx.slots[key]}
		}
		return nil
	}
	return dx.multi[key]
}
