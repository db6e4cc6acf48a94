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
	"math"

	"github.com/riftdb/riftdb/store/pool"
)

// TupleBuilder accumulates field values in declared order and packs them
// into a Tuple. Call Tuple once all fields relevant to desc have been put
// (unset fields encode as NULL); Tuple resets the builder for reuse.
type TupleBuilder struct {
	desc   TupleDescriptor
	fields [][]byte
}

func NewTupleBuilder(desc TupleDescriptor) *TupleBuilder {
	return &TupleBuilder{desc: desc, fields: make([][]byte, len(desc.Types))}
}

func (tb *TupleBuilder) PutBool(i int, v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	tb.fields[i] = []byte{b}
}

func (tb *TupleBuilder) PutInt8(i int, v int8)   { tb.fields[i] = []byte{byte(v)} }
func (tb *TupleBuilder) PutUint8(i int, v uint8) { tb.fields[i] = []byte{v} }

func (tb *TupleBuilder) PutInt16(i int, v int16) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	tb.fields[i] = b
}

func (tb *TupleBuilder) PutUint16(i int, v uint16) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	tb.fields[i] = b
}

func (tb *TupleBuilder) PutInt32(i int, v int32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	tb.fields[i] = b
}

func (tb *TupleBuilder) PutUint32(i int, v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	tb.fields[i] = b
}

func (tb *TupleBuilder) PutInt64(i int, v int64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	tb.fields[i] = b
}

func (tb *TupleBuilder) PutUint64(i int, v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	tb.fields[i] = b
}

// PutInt128/PutUint128/PutInt256/PutUint256 take the big-endian two's
// complement (signed) or magnitude (unsigned) representation directly;
// store/schema is responsible for producing that representation from
// whatever arbitrary-precision type a reducer host passes in.
func (tb *TupleBuilder) PutInt128(i int, v []byte)  { tb.fields[i] = fixedCopy(v, 16) }
func (tb *TupleBuilder) PutUint128(i int, v []byte) { tb.fields[i] = fixedCopy(v, 16) }
func (tb *TupleBuilder) PutInt256(i int, v []byte)  { tb.fields[i] = fixedCopy(v, 32) }
func (tb *TupleBuilder) PutUint256(i int, v []byte) { tb.fields[i] = fixedCopy(v, 32) }

func fixedCopy(v []byte, width int) []byte {
	out := make([]byte, width)
	copy(out[width-len(v):], v)
	return out
}

func (tb *TupleBuilder) PutFloat32(i int, v float32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	tb.fields[i] = b
}

func (tb *TupleBuilder) PutFloat64(i int, v float64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	tb.fields[i] = b
}

func (tb *TupleBuilder) PutString(i int, v string) { tb.fields[i] = []byte(v) }
func (tb *TupleBuilder) PutBytes(i int, v []byte)  { tb.fields[i] = v }

// PutRaw sets field i to an already-encoded payload: used for nested
// Product/Sum fields and for var-len handles produced by store/page.
func (tb *TupleBuilder) PutRaw(i int, v []byte) { tb.fields[i] = v }

// Tuple packs the accumulated fields and resets the builder's field set
// so it can be reused for the next row.
func (tb *TupleBuilder) Tuple(p *pool.BuffPool) Tuple {
	t := NewTuple(p, tb.fields...)
	tb.fields = make([][]byte, len(tb.desc.Types))
	return t
}
