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
	"math"

	"encoding/binary"
)

// TupleDescriptor describes the ordered field types of every Tuple built
// or read against it — the physical counterpart of a schema.ProductType.
type TupleDescriptor struct {
	Types []Type
}

// NewTupleDescriptor builds a descriptor over the given field types, in
// declared order.
func NewTupleDescriptor(types ...Type) TupleDescriptor {
	return TupleDescriptor{Types: types}
}

func (td TupleDescriptor) Count() int { return len(td.Types) }

func (td TupleDescriptor) GetBool(i int, t Tuple) bool {
	f := t.GetField(i)
	return len(f) > 0 && f[0] != 0
}

func (td TupleDescriptor) GetInt8(i int, t Tuple) int8 { return int8(t.GetField(i)[0]) }
func (td TupleDescriptor) GetUint8(i int, t Tuple) uint8 { return t.GetField(i)[0] }

func (td TupleDescriptor) GetInt16(i int, t Tuple) int16 {
	return int16(binary.LittleEndian.Uint16(t.GetField(i)))
}
func (td TupleDescriptor) GetUint16(i int, t Tuple) uint16 {
	return binary.LittleEndian.Uint16(t.GetField(i))
}

func (td TupleDescriptor) GetInt32(i int, t Tuple) int32 {
	return int32(binary.LittleEndian.Uint32(t.GetField(i)))
}
func (td TupleDescriptor) GetUint32(i int, t Tuple) uint32 {
	return binary.LittleEndian.Uint32(t.GetField(i))
}

func (td TupleDescriptor) GetInt64(i int, t Tuple) int64 {
	return int64(binary.LittleEndian.Uint64(t.GetField(i)))
}
func (td TupleDescriptor) GetUint64(i int, t Tuple) uint64 {
	return binary.LittleEndian.Uint64(t.GetField(i))
}

func (td TupleDescriptor) GetInt128(i int, t Tuple) []byte  { return t.GetField(i) }
func (td TupleDescriptor) GetUint128(i int, t Tuple) []byte { return t.GetField(i) }
func (td TupleDescriptor) GetInt256(i int, t Tuple) []byte  { return t.GetField(i) }
func (td TupleDescriptor) GetUint256(i int, t Tuple) []byte { return t.GetField(i) }

func (td TupleDescriptor) GetFloat32(i int, t Tuple) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(t.GetField(i)))
}
func (td TupleDescriptor) GetFloat64(i int, t Tuple) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(t.GetField(i)))
}

func (td TupleDescriptor) GetString(i int, t Tuple) string { return string(t.GetField(i)) }
func (td TupleDescriptor) GetBytes(i int, t Tuple) []byte  { return t.GetField(i) }

// IsNull reports whether field i is NULL in t.
func (td TupleDescriptor) IsNull(i int, t Tuple) bool { return t.GetField(i) == nil }

// Compare orders two tuples field-by-field according to td, implementing
// the spec's total order over algebraic values: NaN floats compare by bit
// pattern, sum fields compare tag-then-payload (handled by the caller
// encoding the tag as the first byte of a SumEnc field), and a NULL field
// sorts before any non-NULL value of the same column.
func (td TupleDescriptor) Compare(left, right Tuple) int {
	for i, typ := range td.Types {
		if c := compareField(typ.Enc, left.GetField(i), right.GetField(i)); c != 0 {
			return c
		}
	}
	return 0
}

func compareField(enc Encoding, l, r []byte) int {
	if l == nil && r == nil {
		return 0
	}
	if l == nil {
		return -1
	}
	if r == nil {
		return 1
	}

	switch enc {
	case BoolEnc, Int8Enc, Int16Enc, Int32Enc, Int64Enc,
		Uint8Enc, Uint16Enc, Uint32Enc, Uint64Enc,
		Int128Enc, Int256Enc, Uint128Enc, Uint256Enc,
		StringEnc, BytesEnc, ProductEnc, SumEnc, ArrayEnc:
		return compareOrdered(enc, l, r)
	case Float32Enc:
		lb := binary.LittleEndian.Uint32(l)
		rb := binary.LittleEndian.Uint32(r)
		return compareUint(uint64(lb), uint64(rb))
	case Float64Enc:
		lb := binary.LittleEndian.Uint64(l)
		rb := binary.LittleEndian.Uint64(r)
		return compareUint(lb, rb)
	default:
		return compareBytes(l, r)
	}
}

// compareOrdered compares signed/unsigned integers by value (not raw byte
// order, since little-endian byte order does not match numeric order) and
// falls back to lexicographic byte comparison for string/bytes/nested
// payloads.
func compareOrdered(enc Encoding, l, r []byte) int {
	switch enc {
	case Int8Enc:
		return compareInt(int64(int8(l[0])), int64(int8(r[0])))
	case Int16Enc:
		return compareInt(int64(int16(binary.LittleEndian.Uint16(l))), int64(int16(binary.LittleEndian.Uint16(r))))
	case Int32Enc:
		return compareInt(int64(int32(binary.LittleEndian.Uint32(l))), int64(int32(binary.LittleEndian.Uint32(r))))
	case Int64Enc:
		return compareInt(int64(binary.LittleEndian.Uint64(l)), int64(binary.LittleEndian.Uint64(r)))
	case BoolEnc, Uint8Enc:
		return compareUint(uint64(l[0]), uint64(r[0]))
	case Uint16Enc:
		return compareUint(uint64(binary.LittleEndian.Uint16(l)), uint64(binary.LittleEndian.Uint16(r)))
	case Uint32Enc:
		return compareUint(uint64(binary.LittleEndian.Uint32(l)), uint64(binary.LittleEndian.Uint32(r)))
	case Uint64Enc:
		return compareUint(binary.LittleEndian.Uint64(l), binary.LittleEndian.Uint64(r))
	case Int128Enc, Int256Enc:
		return compareBigSigned(l, r)
	case Uint128Enc, Uint256Enc:
		return compareBytes(l, r) // big-endian magnitude stored directly
	default:
		return compareBytes(l, r)
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBytes(l, r []byte) int {
	n := len(l)
	if len(r) < n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		if l[i] != r[i] {
			if l[i] < r[i] {
				return -1
			}
			return 1
		}
	}
	return compareInt(int64(len(l)), int64(len(r)))
}

// compareBigSigned compares two big-endian two's complement integers of
// equal width by sign bit first, then magnitude.
func compareBigSigned(l, r []byte) int {
	lNeg := l[0]&0x80 != 0
	rNeg := r[0]&0x80 != 0
	if lNeg != rNeg {
		if lNeg {
			return -1
		}
		return 1
	}
	c := compareBytes(l, r)
	if lNeg {
		return -c
	}
	return c
}
