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

// Package btree implements the ordered multimap index over a table's
// column tuples (spec §4.2): a forked, node-based B-tree with fan-out
// fixed at build time, plus a dense-array DirectIndex for small-integer
// single-column keys (spec §9 "Direct indexes"). Both support unique and
// non-unique keys. Insert and Delete mutate the tree in place; Range reads
// a Clone of the tree taken when it starts, so its result is unaffected
// by later mutation.
package btree

import (
	"github.com/google/btree"

	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/rdberr"
	"github.com/riftdb/riftdb/store/val"
)

// degree is the B-tree's node fan-out, fixed at build time (spec §4.2
// requires >= 11; google/btree degree d yields fan-out 2d).
const degree = 8

// entry is one (key, pointer) pair stored in the tree. Distinct rows that
// share a key are distinguished, and given a stable iteration order, by
// comparing Ptr after Key compares equal.
type entry struct {
	desc val.TupleDescriptor
	key  val.Tuple
	ptr  page.Pointer
}

func (e *entry) Less(than btree.Item) bool {
	o := than.(*entry)
	if c := e.desc.Compare(e.key, o.key); c != 0 {
		return c < 0
	}
	return comparePointers(e.ptr, o.ptr) < 0
}

func comparePointers(a, b page.Pointer) int {
	switch {
	case a.PageIndex != b.PageIndex:
		if a.PageIndex < b.PageIndex {
			return -1
		}
		return 1
	case a.PageOffset != b.PageOffset:
		if a.PageOffset < b.PageOffset {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Index is an ordered multimap from index key to row Pointer (spec
// §4.2). A Unique index rejects an insert whose key already has a
// distinct pointer stored against it.
type Index struct {
	desc   val.TupleDescriptor
	Name   string
	Unique bool
	tree   *btree.BTree
}

// New creates an empty index over keys shaped like desc.
func New(name string, desc val.TupleDescriptor, unique bool) *Index {
	return &Index{desc: desc, Name: name, Unique: unique, tree: btree.New(degree)}
}

// Insert adds (key, ptr) to the index. If the index is unique and key is
// already present against a different pointer, Insert returns
// rdberr.UniqueViolation without modifying the index.
func (ix *Index) Insert(key val.Tuple, ptr page.Pointer) error {
	if ix.Unique {
		if existing, ok := ix.seekFirst(key); ok && existing != ptr {
			return rdberr.NewUniqueViolation(ix.Name, key, existing)
		}
	}
	ix.tree.ReplaceOrInsert(&entry{desc: ix.desc, key: key, ptr: ptr})
	return nil
}

// Delete removes (key, ptr) from the index. It reports whether an entry
// was actually removed.
func (ix *Index) Delete(key val.Tuple, ptr page.Pointer) bool {
	removed := ix.tree.Delete(&entry{desc: ix.desc, key: key, ptr: ptr})
	return removed != nil
}

// seekFirst returns the first pointer stored under key, if any.
func (ix *Index) seekFirst(key val.Tuple) (page.Pointer, bool) {
	var found page.Pointer
	var ok bool
	pivot := &entry{desc: ix.desc, key: key, ptr: page.Pointer{}}
	ix.tree.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
		e := i.(*entry)
		if ix.desc.Compare(e.key, key) != 0 {
			return false
		}
		found, ok = e.ptr, true
		return false
	})
	return found, ok
}

// SeekEq returns every pointer stored under key, in tree order.
func (ix *Index) SeekEq(key val.Tuple) []page.Pointer {
	var out []page.Pointer
	pivot := &entry{desc: ix.desc, key: key, ptr: page.Pointer{}}
	ix.tree.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
		e := i.(*entry)
		if ix.desc.Compare(e.key, key) != 0 {
			return false
		}
		out = append(out, e.ptr)
		return true
	})
	return out
}

// Bound is one endpoint of a Range query. A nil Key means unbounded.
type Bound struct {
	Key       val.Tuple
	Inclusive bool
}

// Range returns every pointer whose key falls within [start, end] (end
// exclusive unless end.Inclusive), in ascending key order. Range takes a
// stable snapshot via Clone so the caller's iteration is unaffected by
// concurrent mutation of the live index (spec §4.2 "Iteration is stable
// under concurrent readers").
func (ix *Index) Range(start, end Bound) []page.Pointer {
	snap := ix.tree.Clone()

	var out []page.Pointer
	visit := func(i btree.Item) bool {
		e := i.(*entry)
		if end.Key != nil {
			c := ix.desc.Compare(e.key, end.Key)
			if c > 0 || (c == 0 && !end.Inclusive) {
				return false
			}
		}
		out = append(out, e.ptr)
		return true
	}

	if start.Key == nil {
		snap.Ascend(visit)
		return out
	}

	pivot := &entry{desc: ix.desc, key: start.Key, ptr: page.Pointer{}}
	if start.Inclusive {
		snap.AscendGreaterOrEqual(pivot, visit)
	} else {
		snap.AscendGreaterOrEqual(pivot, func(i btree.Item) bool {
			e := i.(*entry)
			if ix.desc.Compare(e.key, start.Key) == 0 {
				return true
			}
			return visit(i)
		})
	}
	return out
}

// Len reports the number of (key, ptr) pairs currently in the index.
func (ix *Index) Len() int { return ix.tree.Len() }

// Clone returns a new Index over a lazy copy-on-write clone of ix's tree:
// later mutations of either index are not visible in the other.
func (ix *Index) Clone() *Index {
	return &Index{desc: ix.desc, Name: ix.Name, Unique: ix.Unique, tree: ix.tree.Clone()}
}
