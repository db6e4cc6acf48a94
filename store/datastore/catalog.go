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

package datastore

import (
	"encoding/binary"

	"github.com/riftdb/riftdb/store/schema"
	"github.com/riftdb/riftdb/store/val"
)

// The functions in this file translate between schema.TableDef/IndexDef/
// ConstraintDef/SequenceDef and the raw [][]byte field rows stored in the
// st_table/st_column/st_index/st_constraint/st_sequence system tables
// (spec §4.8). Schema changes travel through exactly the same RowPut/
// RowDelete commit-log records as user data, so recovery never needs a
// second code path.

func u32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u8Bytes(v byte) []byte { return []byte{v} }

func boolBytes(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func i64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func getU32(f []byte) uint32 { return binary.LittleEndian.Uint32(f) }
func getU8(f []byte) byte    { return f[0] }
func getBool(f []byte) bool  { return len(f) > 0 && f[0] != 0 }
func getI64(f []byte) int64  { return int64(binary.LittleEndian.Uint64(f)) }

// encodeColumns packs a column-index list into the bytes form st_index and
// st_constraint store their "columns" field as: one uint16 (LE) per index,
// back to back.
func encodeColumns(cols []int) []byte {
	out := make([]byte, 2*len(cols))
	for i, c := range cols {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(c))
	}
	return out
}

func decodeColumns(b []byte) []int {
	cols := make([]int, len(b)/2)
	for i := range cols {
		cols[i] = int(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return cols
}

// stTableRow builds the st_table row for def.
func stTableRow(def schema.TableDef) [][]byte {
	return [][]byte{u32Bytes(def.TableID), []byte(def.Name)}
}

// stColumnRows builds one st_column row per column of def.
func stColumnRows(def schema.TableDef) [][][]byte {
	rows := make([][][]byte, len(def.Columns.Fields))
	for i, f := range def.Columns.Fields {
		rows[i] = [][]byte{
			u32Bytes(def.TableID),
			u32Bytes(uint32(i)),
			[]byte(f.Name),
			u8Bytes(byte(physicalEncodingOf(f.Type))),
		}
	}
	return rows
}

// physicalEncodingOf mirrors schema.ProductType.ToTupleDescriptor's private
// physicalEncoding: the system catalog only needs to remember the physical
// encoding of a column, not its full algebraic type, to rebuild a
// ToTupleDescriptor-equivalent val.TupleDescriptor on replay.
func physicalEncodingOf(t schema.AlgebraicType) byte {
	desc := schema.ProductType{Fields: []schema.Field{{Type: t}}}.ToTupleDescriptor()
	return byte(desc.Types[0].Enc)
}

// stIndexRows builds one st_index row per index of def, assigning sequential
// index IDs starting at firstIndexID.
func stIndexRows(def schema.TableDef, firstIndexID uint32) [][][]byte {
	rows := make([][][]byte, len(def.Indexes))
	for i, ix := range def.Indexes {
		rows[i] = [][]byte{
			u32Bytes(firstIndexID + uint32(i)),
			u32Bytes(def.TableID),
			[]byte(ix.Name),
			boolBytes(ix.Unique),
			u8Bytes(byte(ix.Algo)),
			encodeColumns(ix.Columns),
		}
	}
	return rows
}

func stConstraintRows(def schema.TableDef) [][][]byte {
	rows := make([][][]byte, len(def.Constraints))
	for i, c := range def.Constraints {
		rows[i] = [][]byte{
			u32Bytes(def.TableID),
			u8Bytes(byte(c.Kind)),
			encodeColumns(c.Columns),
		}
	}
	return rows
}

func stSequenceRows(def schema.TableDef) [][][]byte {
	rows := make([][][]byte, len(def.Sequences))
	for i, s := range def.Sequences {
		rows[i] = [][]byte{
			u32Bytes(s.ID),
			u32Bytes(def.TableID),
			u32Bytes(uint32(s.Column)),
			i64Bytes(s.Start),
			i64Bytes(s.MinValue),
			i64Bytes(s.MaxValue),
			i64Bytes(s.Increment),
			i64Bytes(s.Start), // allocated starts equal to start
		}
	}
	return rows
}

// catalogBuilder accumulates the system-catalog rows replayed for one
// user table before that table's own rows appear in the log, so the
// table's TableDef can be reconstructed the moment it is first needed
// (see committed.go ensureUserTable).
type catalogBuilder struct {
	name        string
	haveName    bool
	columns     map[uint32]schema.Field
	constraints []schema.ConstraintDef
	indexes     []schema.IndexDef
	sequences   []schema.SequenceDef
}

func newCatalogBuilder() *catalogBuilder {
	return &catalogBuilder{columns: make(map[uint32]schema.Field)}
}

func (b *catalogBuilder) addColumn(pos uint32, name string, enc byte) {
	b.columns[pos] = schema.Field{Name: name, Type: algebraicTypeFromEncoding(val.Encoding(enc))}
}

// algebraicTypeFromEncoding is the approximate inverse of
// schema.ProductType.ToTupleDescriptor's physicalEncoding: the system
// catalog only records a column's physical encoding, not its full
// algebraic type, so a restarted engine rebuilds String/Bytes columns
// precisely but collapses Array columns to Bytes (both already share the
// BytesEnc physical encoding, so row storage and indexing are unaffected;
// only a host layer that distinguishes "array of T" from "opaque bytes" at
// the type-system level would notice, and this engine has no such layer).
func algebraicTypeFromEncoding(enc val.Encoding) schema.AlgebraicType {
	switch enc {
	case val.StringEnc:
		return schema.AlgebraicType{Kind: schema.StringKind}
	case val.BytesEnc:
		return schema.AlgebraicType{Kind: schema.BytesKind}
	default:
		return schema.AlgebraicType{Kind: schema.PrimitiveKind, Primitive: enc}
	}
}

func (b *catalogBuilder) addIndex(def schema.IndexDef) { b.indexes = append(b.indexes, def) }
func (b *catalogBuilder) addConstraint(def schema.ConstraintDef) {
	b.constraints = append(b.constraints, def)
}
func (b *catalogBuilder) addSequence(def schema.SequenceDef) { b.sequences = append(b.sequences, def) }

// buildDef assembles a TableDef from whatever has accumulated so far. It is
// called the first time a row targets this table id, or at the end of the
// replayed transaction that logged its st_table row, by which
// point every st_column/st_index/st_constraint/st_sequence row the owning
// CreateTable call produced has already been replayed (DDL always precedes
// the DML it makes possible within the same commit-log history).
func (b *catalogBuilder) buildDef(tableID uint32) schema.TableDef {
	fields := make([]schema.Field, len(b.columns))
	for pos, f := range b.columns {
		fields[pos] = f
	}
	return schema.TableDef{
		TableID:     tableID,
		Name:        b.name,
		Columns:     schema.ProductType{Fields: fields},
		Constraints: b.constraints,
		Indexes:     b.indexes,
		Sequences:   b.sequences,
	}
}
