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

// Package table implements spec §4.3: one table's row storage (pages),
// pointer map (row-hash → pointers), and the set of indexes declared over
// it, all typed by a schema.TableDef.
package table

import (
	"context"
	"sync"

	"github.com/riftdb/riftdb/store/blob"
	"github.com/riftdb/riftdb/store/btree"
	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/rdberr"
	"github.com/riftdb/riftdb/store/schema"
	"github.com/riftdb/riftdb/store/val"
)

// blobInlineThreshold is the var-len field length above which a value is
// routed to the blob store instead of an in-page granule chain (spec
// §4.1). The threshold is this constant; config.BlobInlineThreshold is
// not consulted.
const blobInlineThreshold = 4096

// varLenTag distinguishes how a var-len field's handle should be
// interpreted once its granule chain is read back.
type varLenTag byte

const (
	granuleTag varLenTag = iota
	blobTag
)

// Table owns one table's physical storage: its schema, page allocator,
// pointer map, and indexes (spec §4.3). Every method takes the Table's
// own lock, so concurrent readers share one Table with the writer;
// store/datastore serializes writers with its own lock.
type Table struct {
	mu sync.RWMutex

	Def   schema.TableDef
	desc  val.TupleDescriptor
	pages *page.Pages
	blobs *blob.Store

	pointerMap map[uint64][]page.Pointer

	indexes       map[string]*btree.Index
	directIndexes map[string]*btree.DirectIndex
}

// New creates an empty table for def, sharing blobs with every other
// table in the same database (content-addressed blobs are deduplicated
// database-wide, not per-table).
func New(def schema.TableDef, blobs *blob.Store) *Table {
	desc := def.Columns.ToTupleDescriptor()
	t := &Table{
		Def:           def,
		desc:          desc,
		pages:         page.NewPages(fixedRowWidth(desc)),
		blobs:         blobs,
		pointerMap:    make(map[uint64][]page.Pointer),
		indexes:       make(map[string]*btree.Index),
		directIndexes: make(map[string]*btree.DirectIndex),
	}
	for _, ix := range def.Indexes {
		if ix.Algo == schema.DirectAlgorithm {
			t.directIndexes[ix.Name] = btree.NewDirect(ix.Name, ix.Unique)
		} else {
			t.indexes[ix.Name] = btree.New(ix.Name, projectDesc(desc, ix.Columns), ix.Unique)
		}
	}
	return t
}

// fixedRowWidth computes the constant physical width of one row: fixed
// fields are stored inline at their natural width, and every var-len
// field is stored as a constant-width handle into a granule chain (spec
// §3 "Row layout (BFLATN)"), so the physical width never depends on
// content length.
func fixedRowWidth(desc val.TupleDescriptor) int {
	w := 0
	for _, typ := range desc.Types {
		w += fieldSlotWidth(typ.Enc)
	}
	return bitmapWidth(len(desc.Types)) + w
}

func fieldSlotWidth(enc val.Encoding) int {
	switch enc {
	case val.BoolEnc, val.Int8Enc, val.Uint8Enc:
		return 1
	case val.Int16Enc, val.Uint16Enc:
		return 2
	case val.Int32Enc, val.Uint32Enc, val.Float32Enc:
		return 4
	case val.Int64Enc, val.Uint64Enc, val.Float64Enc:
		return 8
	case val.Int128Enc, val.Uint128Enc:
		return 16
	case val.Int256Enc, val.Uint256Enc:
		return 32
	default:
		return varLenHandleWidth
	}
}

func projectDesc(desc val.TupleDescriptor, cols []int) val.TupleDescriptor {
	types := make([]val.Type, len(cols))
	for i, c := range cols {
		types[i] = desc.Types[c]
	}
	return val.NewTupleDescriptor(types...)
}

func projectFields(fields [][]byte, cols []int) [][]byte {
	out := make([][]byte, len(cols))
	for i, c := range cols {
		out[i] = fields[c]
	}
	return out
}

// directKey extracts a direct-index's single small-int column as uint32.
func directKey(fields [][]byte, cols []int) uint32 {
	f := fields[cols[0]]
	var v uint64
	for _, b := range f {
		v = v<<8 | uint64(b)
	}
	return uint32(v)
}

// logicalHash hashes a row's logical field values, not its physical
// encoding, so that two rows whose granule-chain layout differs but whose
// content is equal still hash equal (spec §4.1 "hash(page, slot)").
func logicalHash(fields [][]byte) uint64 {
	w := val.NewTuple(nil, fields...)
	return page.Hash64(w)
}

// Insert encodes and stores one row given as its raw logical field
// values, one per column of t's schema, updating the pointer map and
// every index. If the table already holds a row with equal content,
// Insert returns its existing pointer without creating a duplicate (spec
// §4.3). If any unique index rejects the insert, Insert rolls back
// whatever partial state it had already written and returns the
// violation untouched.
func (t *Table) Insert(ctx context.Context, fields [][]byte) (page.Pointer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(ctx, fields)
}

func (t *Table) insertLocked(ctx context.Context, fields [][]byte) (page.Pointer, error) {
	h := logicalHash(fields)
	if existing, ok := t.findExact(ctx, h, fields); ok {
		return existing, nil
	}

	ptr := t.pages.Alloc()
	ptr.SquashHash = page.Squash(h)

	row, err := t.encodeRowFixed(ctx, ptr, fields)
	if err != nil {
		_ = t.pages.Free(ptr)
		return page.Pointer{}, err
	}
	if err := t.pages.Write(ptr, row); err != nil {
		_ = t.pages.Free(ptr)
		return page.Pointer{}, err
	}

	var addedIdx, addedDirect []string
	rollback := func() {
		for _, name := range addedIdx {
			ix := t.indexes[name]
			ix.Delete(projectKeyTuple(fields, indexColumns(t.Def, name)), ptr)
		}
		for _, name := range addedDirect {
			dx := t.directIndexes[name]
			dx.Delete(directKey(fields, indexColumns(t.Def, name)), ptr)
		}
		t.freeRowVarLen(ptr, row)
		_ = t.pages.Free(ptr)
	}

	for _, ixDef := range t.Def.Indexes {
		if ixDef.Algo == schema.DirectAlgorithm {
			dx := t.directIndexes[ixDef.Name]
			if err := dx.Insert(directKey(fields, ixDef.Columns), ptr); err != nil {
				rollback()
				return page.Pointer{}, err
			}
			addedDirect = append(addedDirect, ixDef.Name)
			continue
		}
		ix := t.indexes[ixDef.Name]
		key := projectKeyTuple(fields, ixDef.Columns)
		if err := ix.Insert(key, ptr); err != nil {
			rollback()
			return page.Pointer{}, err
		}
		addedIdx = append(addedIdx, ixDef.Name)
	}

	t.pointerMap[h] = append(t.pointerMap[h], ptr)
	return ptr, nil
}

func indexColumns(def schema.TableDef, name string) []int {
	for _, ix := range def.Indexes {
		if ix.Name == name {
			return ix.Columns
		}
	}
	return nil
}

func projectKeyTuple(fields [][]byte, cols []int) val.Tuple {
	return val.NewTuple(nil, projectFields(fields, cols)...)
}

// findExact returns an existing row pointer whose decoded content equals
// fields, if one is already present under hash h.
func (t *Table) findExact(ctx context.Context, h uint64, fields [][]byte) (page.Pointer, bool) {
	for _, ptr := range t.pointerMap[h] {
		row, err := t.pages.Read(ptr)
		if err != nil {
			continue
		}
		decoded, err := t.decodeRowFixed(ctx, ptr, row)
		if err != nil {
			continue
		}
		if fieldsEqual(decoded, fields) {
			return ptr, true
		}
	}
	return page.Pointer{}, false
}

func fieldsEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if string(a[i]) != string(b[i]) {
			return false
		}
	}
	return true
}

// Delete removes the row at ptr from every index, the pointer map, and
// frees its page slot and var-len storage.
func (t *Table) Delete(ctx context.Context, ptr page.Pointer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteLocked(ctx, ptr)
}

func (t *Table) deleteLocked(ctx context.Context, ptr page.Pointer) error {
	raw, err := t.pages.Read(ptr)
	if err != nil {
		return err
	}
	row := append([]byte(nil), raw...)

	fields, err := t.decodeRowFixed(ctx, ptr, row)
	if err != nil {
		return err
	}

	for _, ixDef := range t.Def.Indexes {
		if ixDef.Algo == schema.DirectAlgorithm {
			t.directIndexes[ixDef.Name].Delete(directKey(fields, ixDef.Columns), ptr)
			continue
		}
		t.indexes[ixDef.Name].Delete(projectKeyTuple(fields, ixDef.Columns), ptr)
	}

	h := logicalHash(fields)
	t.pointerMap[h] = removePointer(t.pointerMap[h], ptr)
	if len(t.pointerMap[h]) == 0 {
		delete(t.pointerMap, h)
	}

	t.freeRowVarLen(ptr, row)
	return t.pages.Free(ptr)
}

func removePointer(ptrs []page.Pointer, target page.Pointer) []page.Pointer {
	for i, p := range ptrs {
		if p == target {
			return append(ptrs[:i], ptrs[i+1:]...)
		}
	}
	return ptrs
}

// Contains reports whether ptr currently addresses a live row.
func (t *Table) Contains(ptr page.Pointer) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, err := t.pages.Read(ptr)
	return err == nil
}

// Get returns the decoded logical field values of the row at ptr.
func (t *Table) Get(ctx context.Context, ptr page.Pointer) ([][]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, err := t.pages.Read(ptr)
	if err != nil {
		return nil, err
	}
	return t.decodeRowFixed(ctx, ptr, row)
}

// IndexScan returns every pointer in index name within [start, end].
func (t *Table) IndexScan(name string, start, end btree.Bound) ([]page.Pointer, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ix, ok := t.indexes[name]
	if !ok {
		return nil, rdberr.NewNotFound(rdberr.IndexNotFound, name)
	}
	return ix.Range(start, end), nil
}

// Scan returns every live row pointer in the table, in pointer-map
// iteration order (spec §4.4 "unspecified but stable for heap scans").
func (t *Table) Scan() []page.Pointer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []page.Pointer
	for _, ptrs := range t.pointerMap {
		out = append(out, ptrs...)
	}
	return out
}

// ApplyBatch applies every delete then every insert under a single write
// lock acquisition, so a concurrent Scan/Get/IndexScan call — each gated by
// the same t.mu — observes either the complete pre-batch or complete
// post-batch state, never a row count in between (spec §8 P4/S5). This is
// the method store/datastore's commit path uses instead of calling
// Insert/Delete once per row, which would let a concurrent reader's Scan
// interleave with a partially-applied transaction.
func (t *Table) ApplyBatch(ctx context.Context, inserts [][][]byte, deletes []page.Pointer) ([]page.Pointer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ptr := range deletes {
		if err := t.deleteLocked(ctx, ptr); err != nil {
			return nil, err
		}
	}

	ptrs := make([]page.Pointer, 0, len(inserts))
	for _, fields := range inserts {
		ptr, err := t.insertLocked(ctx, fields)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, ptr)
	}
	return ptrs, nil
}
