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

// Package schema models the algebraic type system and table/index
// definitions of spec §3: a Typespace of flat type definitions referenced
// by index (so recursive types are expressible), ProductTypes built from
// them, and the TableDef/IndexDef/ConstraintDef catalog shapes that
// store/datastore persists as ordinary rows in the st_* system tables
// (spec §4.8).
package schema

import "github.com/riftdb/riftdb/store/val"

// TypeRef is an index into a Typespace.
type TypeRef int

// AlgebraicKind is the tag of an AlgebraicType sum.
type AlgebraicKind byte

const (
	PrimitiveKind AlgebraicKind = iota
	StringKind
	BytesKind
	ArrayKind
	ProductKind
	SumKind
	RefKind // a reference to another entry in the owning Typespace
)

// AlgebraicType is one entry of a Typespace (spec §3 "Types (algebraic)").
type AlgebraicType struct {
	Kind AlgebraicKind

	// Primitive is set when Kind == PrimitiveKind.
	Primitive val.Encoding

	// Elem is set when Kind == ArrayKind: the element type.
	Elem *AlgebraicType

	// Fields is set when Kind == ProductKind: ordered named fields.
	Fields []Field

	// Variants is set when Kind == SumKind: ordered named variants.
	Variants []Field

	// Ref is set when Kind == RefKind: an index into the Typespace this
	// type was resolved from, allowing recursive type definitions.
	Ref TypeRef
}

// Field is one named, typed member of a product or sum type.
type Field struct {
	Name string
	Type AlgebraicType
}

// Typespace is a flat, index-addressed list of type definitions. Types
// reference each other by TypeRef rather than embedding, so a type may
// recursively refer to itself or to a type defined later in the space.
type Typespace struct {
	Types []AlgebraicType
}

func (ts *Typespace) Add(t AlgebraicType) TypeRef {
	ts.Types = append(ts.Types, t)
	return TypeRef(len(ts.Types) - 1)
}

func (ts *Typespace) Resolve(ref TypeRef) AlgebraicType {
	return ts.Types[ref]
}

// ProductType is an ordered list of named, typed columns: the schema of
// one table's rows (spec §3).
type ProductType struct {
	Fields []Field
}

// ToTupleDescriptor projects a ProductType down to the physical
// val.TupleDescriptor that store/val encodes rows with. Product and sum
// fields encode as nested ProductEnc/SumEnc payloads; arrays encode as
// BytesEnc blobs of their serialized elements (store/table decides, based
// on length, whether that blob lives inline in granules or out-of-line in
// the blob store).
func (pt ProductType) ToTupleDescriptor() val.TupleDescriptor {
	types := make([]val.Type, len(pt.Fields))
	for i, f := range pt.Fields {
		types[i] = val.Type{Enc: physicalEncoding(f.Type)}
	}
	return val.NewTupleDescriptor(types...)
}

func physicalEncoding(t AlgebraicType) val.Encoding {
	switch t.Kind {
	case PrimitiveKind:
		return t.Primitive
	case StringKind:
		return val.StringEnc
	case BytesKind, ArrayKind:
		return val.BytesEnc
	case ProductKind:
		return val.ProductEnc
	case SumKind:
		return val.SumEnc
	default:
		return val.BytesEnc
	}
}
