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

package table

import (
	"context"
	"encoding/binary"

	"github.com/riftdb/riftdb/store/hash"
	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/rdberr"
	"github.com/riftdb/riftdb/store/val"
)

// bitmapWidth is the number of null-bitmap bytes needed to track n fields,
// one bit per field.
func bitmapWidth(n int) int { return (n + 7) / 8 }

func bitmapGet(bitmap []byte, i int) bool {
	return bitmap[i/8]&(1<<uint(i%8)) != 0
}

func bitmapSet(bitmap []byte, i int) {
	bitmap[i/8] |= 1 << uint(i%8)
}

// isVarLen reports whether enc requires out-of-line storage routing
// (granule chain or blob), as opposed to an inline fixed-width field.
func isVarLen(enc val.Encoding) bool {
	switch enc {
	case val.StringEnc, val.BytesEnc, val.ArrayEnc, val.ProductEnc, val.SumEnc:
		return true
	default:
		return false
	}
}

// varLenHandleWidth is the fixed in-row width of every var-len field's
// handle: a 1-byte tag plus a 4-byte granule-chain index. The chain
// itself holds either the field's raw content (granuleTag) or a 32-byte
// blob content hash (blobTag) — both cases use the same in-page chain
// mechanism, so the row's per-column width stays constant regardless of
// the field's actual content length (spec §3 "Row layout (BFLATN)").
const varLenHandleWidth = 5

// fieldOffsets returns, for desc, the byte offset of each field's slot
// within a row's field area (i.e. excluding the leading null bitmap) and
// the field area's total width.
func fieldOffsets(desc val.TupleDescriptor) (offsets []int, total int) {
	offsets = make([]int, len(desc.Types))
	off := 0
	for i, typ := range desc.Types {
		offsets[i] = off
		off += fieldSlotWidth(typ.Enc)
	}
	return offsets, off
}

// encodeRowFixed converts logical field values into the fixed-width row
// bytes that belong in a page row slot: a leading null bitmap (one bit per
// column) followed by each column's slot, in declared order. Inline fixed
// fields are copied directly into their slot; each var-len field becomes a
// 5-byte handle pointing at a granule chain already written on the
// destination page. Large fields (over blobInlineThreshold) are first
// deduplicated into the shared blob store and the chain holds only their
// content hash instead of the raw content (spec §4.1 "Blob store").
//
// A dedicated fixed layout is used here rather than val.Tuple: val.Tuple's
// offset-array footer must sit at the exact end of the slice, which a
// page's zero-padded fixed-width row slot cannot guarantee once NULLs or
// var-len handles make the packed content shorter than the slot.
func (t *Table) encodeRowFixed(ctx context.Context, ptr page.Pointer, fields [][]byte) ([]byte, error) {
	offsets, fieldsWidth := fieldOffsets(t.desc)
	bw := bitmapWidth(len(fields))
	row := make([]byte, bw+fieldsWidth)
	bitmap := row[:bw]
	area := row[bw:]

	for i, f := range fields {
		if f == nil {
			bitmapSet(bitmap, i)
			continue
		}

		enc := t.desc.Types[i].Enc
		w := fieldSlotWidth(enc)
		slot := area[offsets[i] : offsets[i]+w]

		if !isVarLen(enc) {
			copy(slot, f)
			continue
		}

		chainPayload := f
		tag := granuleTag
		if len(f) > blobInlineThreshold {
			h, err := t.blobs.Insert(ctx, f)
			if err != nil {
				return nil, err
			}
			chainPayload = h[:]
			tag = blobTag
		}

		first, ok, err := t.pages.WriteChain(ptr, chainPayload)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, rdberr.NewOutOfPages(t.Def.TableID)
		}

		slot[0] = byte(tag)
		binary.LittleEndian.PutUint32(slot[1:], first)
	}
	return row, nil
}

// decodeRowFixed reverses encodeRowFixed: inline fields are returned
// as-is, and each var-len handle is dereferenced through its page's
// granule chain (and, for blob-tagged handles, the shared blob store) to
// recover the logical field value.
func (t *Table) decodeRowFixed(ctx context.Context, ptr page.Pointer, row []byte) ([][]byte, error) {
	n := len(t.desc.Types)
	offsets, _ := fieldOffsets(t.desc)
	bw := bitmapWidth(n)
	bitmap := row[:bw]
	area := row[bw:]

	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		if bitmapGet(bitmap, i) {
			continue
		}

		enc := t.desc.Types[i].Enc
		w := fieldSlotWidth(enc)
		slot := area[offsets[i] : offsets[i]+w]

		if !isVarLen(enc) {
			out[i] = append([]byte(nil), slot...)
			continue
		}

		first := binary.LittleEndian.Uint32(slot[1:])
		chainPayload, err := t.pages.ReadChain(ptr, first)
		if err != nil {
			return nil, err
		}

		switch varLenTag(slot[0]) {
		case blobTag:
			data, err := t.blobs.Get(ctx, hash.New(chainPayload))
			if err != nil {
				return nil, err
			}
			out[i] = data
		default:
			out[i] = chainPayload
		}
	}
	return out, nil
}

// freeRowVarLen frees every var-len field's granule chain in row and
// drops a blob reference for any blob-tagged field, called by Delete once
// the row is no longer reachable from any index.
func (t *Table) freeRowVarLen(ptr page.Pointer, row []byte) {
	n := len(t.desc.Types)
	offsets, _ := fieldOffsets(t.desc)
	bw := bitmapWidth(n)
	bitmap := row[:bw]
	area := row[bw:]

	for i := 0; i < n; i++ {
		if bitmapGet(bitmap, i) {
			continue
		}
		enc := t.desc.Types[i].Enc
		if !isVarLen(enc) {
			continue
		}

		w := fieldSlotWidth(enc)
		slot := area[offsets[i] : offsets[i]+w]
		first := binary.LittleEndian.Uint32(slot[1:])
		if varLenTag(slot[0]) == blobTag {
			if chainPayload, err := t.pages.ReadChain(ptr, first); err == nil {
				_ = t.blobs.Decref(hash.New(chainPayload))
			}
		}
		_ = t.pages.FreeChain(ptr, first)
	}
}
