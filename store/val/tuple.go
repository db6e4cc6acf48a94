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

package val

import (
	"encoding/binary"

	"github.com/riftdb/riftdb/store/pool"
)

// Tuple is a packed BFLATN row (or row fragment, e.g. an index key): field
// values laid out back-to-back in declared order, followed by a trailing
// offset array, a one-byte offset width, and a two-byte field count. A
// zero-length field is NULL.
const (
	tupleFooterWidth = 3 // 1 byte offset-width + 2 byte field count
)

type Tuple []byte

// NewTuple packs fields into a Tuple. It does not require a
// TupleDescriptor: callers that already have raw field byte slices (e.g.
// a row decoded from the commit log) can round-trip them directly.
func NewTuple(p *pool.BuffPool, fields ...[]byte) Tuple {
	valuesLen := 0
	for _, f := range fields {
		valuesLen += len(f)
	}

	offWidth := offsetWidth(valuesLen)
	n := len(fields)
	total := valuesLen + n*offWidth + tupleFooterWidth

	var buf []byte
	if p != nil {
		buf = p.Get(uint64(total))
	} else {
		buf = make([]byte, total)
	}

	pos := 0
	offsets := buf[valuesLen : valuesLen+n*offWidth]
	for i, f := range fields {
		copy(buf[pos:], f)
		pos += len(f)
		putUint(offsets[i*offWidth:(i+1)*offWidth], uint64(pos), offWidth)
	}
	buf[total-3] = byte(offWidth)
	binary.LittleEndian.PutUint16(buf[total-2:total], uint16(n))

	return Tuple(buf)
}

// empty reports whether t carries no fields at all.
func (t Tuple) empty() bool { return len(t) < tupleFooterWidth }

func (t Tuple) offsetWidth() int {
	if t.empty() {
		return 0
	}
	return int(t[len(t)-3])
}

// FieldCount returns the number of fields packed into t.
func (t Tuple) FieldCount() int {
	if t.empty() {
		return 0
	}
	return int(binary.LittleEndian.Uint16(t[len(t)-2:]))
}

// GetField returns the raw bytes of field i, or nil if it is NULL.
func (t Tuple) GetField(i int) []byte {
	n := t.FieldCount()
	if i < 0 || i >= n {
		return nil
	}
	offWidth := t.offsetWidth()
	valuesLen := len(t) - tupleFooterWidth - n*offWidth
	offsets := t[valuesLen : len(t)-tupleFooterWidth]

	start := 0
	if i > 0 {
		start = int(getUint(offsets[(i-1)*offWidth:i*offWidth], offWidth))
	}
	end := int(getUint(offsets[i*offWidth:(i+1)*offWidth], offWidth))
	if start == end {
		return nil
	}
	return t[start:end]
}

func offsetWidth(valuesLen int) int {
	switch {
	case valuesLen < 1<<8:
		return 1
	case valuesLen < 1<<16:
		return 2
	default:
		return 4
	}
}

func putUint(b []byte, v uint64, width int) {
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	}
}

func getUint(b []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	}
	return 0
}
