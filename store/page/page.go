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

// Package page implements the fixed-size page that backs every table's
// row storage (spec §4.1, §4.3): a contiguous array of fixed-width row
// slots growing from the front, and a pool of 64-byte variable-length
// granules growing from the back, each free-listed independently so
// pages are never physically freed during a database's run — only their
// slots and granules are recycled (spec §3 "Lifecycles").
package page

import "encoding/binary"

// Size is the fixed on-disk and in-memory size of every page (spec §3).
const Size = 64 * 1024

// headerWidth is the byte width of a page's fixed header.
const headerWidth = 16

// GranuleWidth is the size of one variable-length granule, including its
// 6-byte prefix (4-byte link, 2-byte length).
const GranuleWidth = 64

// granulePayloadWidth is the usable payload bytes per granule.
const granulePayloadWidth = GranuleWidth - 6

// noLink marks the end of a free-list or granule chain.
const noLink uint32 = 0xFFFFFFFF

// Page is one fixed 64 KiB block holding rows of a single fixed row
// width, plus the granule pool its var-len fields chain into.
//
// Layout: [header][row slots, growing forward][free space][granules,
// growing backward from the end of the page].
type Page struct {
	buf      []byte
	rowWidth int

	rowCount     uint32 // row capacity currently carved out of buf
	freeRowHead  uint32 // index of first free row slot, or noLink
	granuleCount uint32 // granule capacity currently carved out of buf
	freeGranHead uint32 // index of first free granule, or noLink
}

// header field offsets.
const (
	offRowWidth     = 0
	offRowCount     = 4
	offFreeRowHead  = 8
	offGranuleCount = 12
)

// New allocates an empty page sized to hold rows of rowWidth bytes.
func New(rowWidth int) *Page {
	p := &Page{
		buf:          make([]byte, Size),
		rowWidth:     rowWidth,
		freeRowHead:  noLink,
		freeGranHead: noLink,
	}
	p.writeHeader()
	return p
}

func (p *Page) writeHeader() {
	binary.LittleEndian.PutUint32(p.buf[offRowWidth:], uint32(p.rowWidth))
	binary.LittleEndian.PutUint32(p.buf[offRowCount:], p.rowCount)
	binary.LittleEndian.PutUint32(p.buf[offFreeRowHead:], p.freeRowHead)
	binary.LittleEndian.PutUint32(p.buf[offGranuleCount:], p.granuleCount)
}

// rowsEnd is the first byte past the currently carved-out row slots.
func (p *Page) rowsEnd() int { return headerWidth + int(p.rowCount)*p.rowWidth }

// granulesStart is the first byte of the currently carved-out granule
// pool, which grows toward lower addresses from the end of the page.
func (p *Page) granulesStart() int { return Size - int(p.granuleCount)*GranuleWidth }

// capacity reports how many more rows and granules can still be carved
// out of unused space between the two growing regions.
func (p *Page) capacity() (rows, granules int) {
	free := p.granulesStart() - p.rowsEnd()
	if free <= 0 {
		return 0, 0
	}
	return free / p.rowWidth, free / GranuleWidth
}

func (p *Page) slotOffset(i uint32) int { return headerWidth + int(i)*p.rowWidth }
func (p *Page) granOffset(i uint32) int { return Size - int(i+1)*GranuleWidth }

// AllocRow reserves a row slot and returns its index. ok is false if the
// page has no space for another row (caller must allocate a new page).
func (p *Page) AllocRow() (index uint32, ok bool) {
	if p.freeRowHead != noLink {
		idx := p.freeRowHead
		p.freeRowHead = binary.LittleEndian.Uint32(p.buf[p.slotOffset(idx):])
		p.writeHeader()
		return idx, true
	}
	rows, _ := p.capacity()
	if rows == 0 {
		return 0, false
	}
	idx := p.rowCount
	p.rowCount++
	p.writeHeader()
	return idx, true
}

// WriteRow copies data into row slot index. len(data) must equal the
// page's row width.
func (p *Page) WriteRow(index uint32, data []byte) {
	copy(p.buf[p.slotOffset(index):p.slotOffset(index)+p.rowWidth], data)
}

// ReadRow returns a view of row slot index's bytes. The returned slice
// aliases the page buffer and must not be retained past the next mutation
// of that slot.
func (p *Page) ReadRow(index uint32) []byte {
	off := p.slotOffset(index)
	return p.buf[off : off+p.rowWidth]
}

// FreeRow returns row slot index to the free list.
func (p *Page) FreeRow(index uint32) {
	binary.LittleEndian.PutUint32(p.buf[p.slotOffset(index):], p.freeRowHead)
	p.freeRowHead = index
	p.writeHeader()
}

// RowWidth returns the fixed row width this page was created with.
func (p *Page) RowWidth() int { return p.rowWidth }

// allocGranule reserves one granule and returns its index, or ok=false if
// the page has no room left.
func (p *Page) allocGranule() (index uint32, ok bool) {
	if p.freeGranHead != noLink {
		idx := p.freeGranHead
		p.freeGranHead = binary.LittleEndian.Uint32(p.buf[p.granOffset(idx):])
		p.writeHeader()
		return idx, true
	}
	_, granules := p.capacity()
	if granules == 0 {
		return 0, false
	}
	idx := p.granuleCount
	p.granuleCount++
	p.writeHeader()
	return idx, true
}

// WriteChain copies data into a newly allocated chain of granules and
// returns the index of the first granule. ok is false if the page ran
// out of granule space partway through (the partially allocated chain is
// freed before returning).
func (p *Page) WriteChain(data []byte) (first uint32, ok bool) {
	if len(data) == 0 {
		return noLink, true
	}

	var chain []uint32
	for off := 0; off < len(data); off += granulePayloadWidth {
		idx, allocOk := p.allocGranule()
		if !allocOk {
			for _, g := range chain {
				p.freeGranule(g)
			}
			return 0, false
		}
		chain = append(chain, idx)
	}

	for i, idx := range chain {
		start := i * granulePayloadWidth
		end := start + granulePayloadWidth
		if end > len(data) {
			end = len(data)
		}
		next := noLink
		if i+1 < len(chain) {
			next = chain[i+1]
		}
		p.writeGranule(idx, next, data[start:end])
	}
	return chain[0], true
}

func (p *Page) writeGranule(idx uint32, next uint32, payload []byte) {
	off := p.granOffset(idx)
	binary.LittleEndian.PutUint32(p.buf[off:], next)
	binary.LittleEndian.PutUint16(p.buf[off+4:], uint16(len(payload)))
	copy(p.buf[off+6:off+GranuleWidth], payload)
}

// ReadChain concatenates the payload of every granule in the chain
// starting at first.
func (p *Page) ReadChain(first uint32) []byte {
	var out []byte
	for idx := first; idx != noLink; {
		off := p.granOffset(idx)
		next := binary.LittleEndian.Uint32(p.buf[off:])
		n := binary.LittleEndian.Uint16(p.buf[off+4:])
		out = append(out, p.buf[off+6:off+6+int(n)]...)
		idx = next
	}
	return out
}

// FreeChain returns every granule in the chain starting at first to the
// free list.
func (p *Page) FreeChain(first uint32) {
	for idx := first; idx != noLink; {
		off := p.granOffset(idx)
		next := binary.LittleEndian.Uint32(p.buf[off:])
		p.freeGranule(idx)
		idx = next
	}
}

func (p *Page) freeGranule(idx uint32) {
	off := p.granOffset(idx)
	binary.LittleEndian.PutUint32(p.buf[off:], p.freeGranHead)
	p.freeGranHead = idx
	p.writeHeader()
}
