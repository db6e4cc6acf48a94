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

package page

import (
	"github.com/cespare/xxhash/v2"

	"github.com/riftdb/riftdb/store/rdberr"
)

// Pointer addresses one row: a page index, a row slot within that page,
// and the low bits of the row's content hash, embedded so the pointer map
// can reject non-matching candidates without dereferencing the row (spec
// §3 "Row layout (BFLATN)").
type Pointer struct {
	PageIndex  uint32
	PageOffset uint32
	SquashHash uint32
}

// Squash derives the embedded hash bits a Pointer carries from a row's
// full 64-bit content hash.
func Squash(fullHash uint64) uint32 { return uint32(fullHash) }

// Hash64 returns the stable 64-bit content hash of row bytes, used both
// for pointer-map dedup lookup and for the Pointer.SquashHash bits (spec
// §4.1 "hash(page, slot) → u64"). It is a pure function of the row's
// fixed bytes plus dereferenced var-len content, so logical equality
// implies hash equality regardless of granule-chain layout.
func Hash64(rowBytes []byte) uint64 {
	return xxhash.Sum64(rowBytes)
}

// Pages is the allocator that owns every physical Page backing one
// table's fixed-width rows: it hands out Pointers on insert and never
// returns a page to the OS once grown (spec §3 "Lifecycles" — pages are
// reused via free-lists, never freed).
type Pages struct {
	rowWidth int
	pages    []*Page
}

// NewPages creates an allocator for rows of the given fixed width.
func NewPages(rowWidth int) *Pages {
	return &Pages{rowWidth: rowWidth}
}

// Alloc reserves a row slot, growing the page set with a fresh Page if
// every existing page is full. Pages grows without bound; Alloc panics if
// the row width does not fit in a page's usable space.
func (ps *Pages) Alloc() Pointer {
	for i, pg := range ps.pages {
		if idx, ok := pg.AllocRow(); ok {
			return Pointer{PageIndex: uint32(i), PageOffset: idx}
		}
	}
	pg := New(ps.rowWidth)
	ps.pages = append(ps.pages, pg)
	idx, ok := pg.AllocRow()
	if !ok {
		// A brand-new page cannot fail its first allocation unless
		// rowWidth exceeds the page's usable space.
		panic("page: row width too large for page size")
	}
	return Pointer{PageIndex: uint32(len(ps.pages) - 1), PageOffset: idx}
}

func (ps *Pages) page(idx uint32) (*Page, error) {
	if int(idx) >= len(ps.pages) {
		return nil, rdberr.NewNotFound(rdberr.RowNotFound, idx)
	}
	return ps.pages[idx], nil
}

// Write stores data (already exactly rowWidth bytes, with any var-len
// fields already resolved to inline granule-chain or blob handles by
// store/table) into the slot addressed by ptr.
func (ps *Pages) Write(ptr Pointer, data []byte) error {
	pg, err := ps.page(ptr.PageIndex)
	if err != nil {
		return err
	}
	pg.WriteRow(ptr.PageOffset, data)
	return nil
}

// Read returns the fixed row bytes at ptr.
func (ps *Pages) Read(ptr Pointer) ([]byte, error) {
	pg, err := ps.page(ptr.PageIndex)
	if err != nil {
		return nil, err
	}
	return pg.ReadRow(ptr.PageOffset), nil
}

// Free returns the slot at ptr to its page's free list.
func (ps *Pages) Free(ptr Pointer) error {
	pg, err := ps.page(ptr.PageIndex)
	if err != nil {
		return err
	}
	pg.FreeRow(ptr.PageOffset)
	return nil
}

// WriteChain allocates a granule chain on the same page as ptr's row and
// writes data into it, returning the first granule's index to embed as
// that row's var-len handle.
func (ps *Pages) WriteChain(ptr Pointer, data []byte) (first uint32, ok bool, err error) {
	pg, err := ps.page(ptr.PageIndex)
	if err != nil {
		return 0, false, err
	}
	first, ok = pg.WriteChain(data)
	return first, ok, nil
}

// ReadChain reads the granule chain starting at first on ptr's page.
func (ps *Pages) ReadChain(ptr Pointer, first uint32) ([]byte, error) {
	pg, err := ps.page(ptr.PageIndex)
	if err != nil {
		return nil, err
	}
	return pg.ReadChain(first), nil
}

// FreeChain frees the granule chain starting at first on ptr's page.
func (ps *Pages) FreeChain(ptr Pointer, first uint32) error {
	pg, err := ps.page(ptr.PageIndex)
	if err != nil {
		return err
	}
	pg.FreeChain(first)
	return nil
}

// PageCount reports how many physical pages this allocator currently
// owns, for metrics and tests.
func (ps *Pages) PageCount() int { return len(ps.pages) }
