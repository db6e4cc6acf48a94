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

// Package val implements BFLATN tuples: the fixed-width, in-place row
// encoding used for index keys, row hashing and the row bytes written to
// the commit log (spec §3, §4.1); a table's pages use store/table's own
// fixed layout. A row
// is built field-by-field with a TupleBuilder against a TupleDescriptor
// and produces a Tuple: a single packed byte buffer plus a trailing
// offset array, so that any field can be read in O(1) without decoding
// the fields before it.
package val

// Encoding identifies the physical representation of one field within a
// Tuple. It is the BFLATN analog of an algebraic primitive type (spec §3);
// Product and Sum carry nested BFLATN-encoded payloads, and String/Bytes
// carry the var-len content directly (the page/blob routing decision for
// over-threshold payloads happens one layer up, in store/table).
type Encoding byte

const (
	NullEnc Encoding = iota
	BoolEnc
	Int8Enc
	Int16Enc
	Int32Enc
	Int64Enc
	Int128Enc
	Int256Enc
	Uint8Enc
	Uint16Enc
	Uint32Enc
	Uint64Enc
	Uint128Enc
	Uint256Enc
	Float32Enc
	Float64Enc
	StringEnc
	BytesEnc
	ArrayEnc
	ProductEnc
	SumEnc
)

func (e Encoding) String() string {
	switch e {
	case BoolEnc:
		return "bool"
	case Int8Enc:
		return "i8"
	case Int16Enc:
		return "i16"
	case Int32Enc:
		return "i32"
	case Int64Enc:
		return "i64"
	case Int128Enc:
		return "i128"
	case Int256Enc:
		return "i256"
	case Uint8Enc:
		return "u8"
	case Uint16Enc:
		return "u16"
	case Uint32Enc:
		return "u32"
	case Uint64Enc:
		return "u64"
	case Uint128Enc:
		return "u128"
	case Uint256Enc:
		return "u256"
	case Float32Enc:
		return "f32"
	case Float64Enc:
		return "f64"
	case StringEnc:
		return "string"
	case BytesEnc:
		return "bytes"
	case ArrayEnc:
		return "array"
	case ProductEnc:
		return "product"
	case SumEnc:
		return "sum"
	default:
		return "null"
	}
}

// Type describes one field's physical encoding. Enc fully determines
// fixed width (if any); variable-width encodings (String, Bytes, Array,
// Product, Sum) are stored length-delimited within the Tuple.
type Type struct {
	Enc Encoding
}

// fixedWidth returns the byte width of e if it is a fixed-size encoding,
// or (0, false) if e is variable-width.
func fixedWidth(e Encoding) (int, bool) {
	switch e {
	case BoolEnc, Int8Enc, Uint8Enc:
		return 1, true
	case Int16Enc, Uint16Enc:
		return 2, true
	case Int32Enc, Uint32Enc, Float32Enc:
		return 4, true
	case Int64Enc, Uint64Enc, Float64Enc:
		return 8, true
	case Int128Enc, Uint128Enc:
		return 16, true
	case Int256Enc, Uint256Enc:
		return 32, true
	default:
		return 0, false
	}
}
