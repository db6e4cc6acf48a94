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

package schema

import "github.com/riftdb/riftdb/store/val"

// Reserved system table IDs (spec §4.8). User tables are assigned IDs
// starting at FirstUserTableID by the catalog allocator in
// store/datastore.
const (
	StTableID      uint32 = 0
	StColumnID     uint32 = 1
	StIndexID      uint32 = 2
	StConstraintID uint32 = 3
	StSequenceID   uint32 = 4
	StModuleID     uint32 = 5

	FirstUserTableID uint32 = 64
)

func col(name string, enc val.Encoding) Field {
	return Field{Name: name, Type: AlgebraicType{Kind: PrimitiveKind, Primitive: enc}}
}

func strCol(name string) Field {
	return Field{Name: name, Type: AlgebraicType{Kind: StringKind}}
}

func bytesCol(name string) Field {
	return Field{Name: name, Type: AlgebraicType{Kind: BytesKind}}
}

// SystemCatalog returns the TableDefs for every reserved st_* table,
// persisted exclusively through the same insert/delete path user tables
// use (spec §4.8): this guarantees schema changes are captured by the
// commit log with no parallel recovery code path.
func SystemCatalog() []TableDef {
	return []TableDef{
		{
			TableID: StTableID,
			Name:    "st_table",
			Columns: ProductType{Fields: []Field{
				col("table_id", val.Uint32Enc),
				strCol("table_name"),
			}},
			Constraints: []ConstraintDef{{Kind: PrimaryKeyConstraint, Columns: []int{0}}},
			Indexes:     []IndexDef{{Name: "pk_st_table", Columns: []int{0}, Unique: true, Algo: BTreeAlgorithm}},
		},
		{
			TableID: StColumnID,
			Name:    "st_column",
			Columns: ProductType{Fields: []Field{
				col("table_id", val.Uint32Enc),
				col("col_pos", val.Uint32Enc),
				strCol("col_name"),
				col("col_encoding", val.Uint8Enc),
			}},
			Indexes: []IndexDef{{Name: "idx_st_column_table", Columns: []int{0}, Algo: BTreeAlgorithm}},
		},
		{
			TableID: StIndexID,
			Name:    "st_index",
			Columns: ProductType{Fields: []Field{
				col("index_id", val.Uint32Enc),
				col("table_id", val.Uint32Enc),
				strCol("index_name"),
				col("unique", val.BoolEnc),
				col("algo", val.Uint8Enc),
				bytesCol("columns"),
			}},
			Constraints: []ConstraintDef{{Kind: PrimaryKeyConstraint, Columns: []int{0}}},
			Indexes: []IndexDef{
				{Name: "pk_st_index", Columns: []int{0}, Unique: true, Algo: BTreeAlgorithm},
				{Name: "idx_st_index_table", Columns: []int{1}, Algo: BTreeAlgorithm},
			},
		},
		{
			TableID: StConstraintID,
			Name:    "st_constraint",
			Columns: ProductType{Fields: []Field{
				col("table_id", val.Uint32Enc),
				col("kind", val.Uint8Enc),
				bytesCol("columns"),
			}},
			Indexes: []IndexDef{{Name: "idx_st_constraint_table", Columns: []int{0}, Algo: BTreeAlgorithm}},
		},
		{
			TableID: StSequenceID,
			Name:    "st_sequence",
			Columns: ProductType{Fields: []Field{
				col("seq_id", val.Uint32Enc),
				col("table_id", val.Uint32Enc),
				col("col_pos", val.Uint32Enc),
				col("start", val.Int64Enc),
				col("min_value", val.Int64Enc),
				col("max_value", val.Int64Enc),
				col("increment", val.Int64Enc),
				col("allocated", val.Int64Enc),
			}},
			Constraints: []ConstraintDef{{Kind: PrimaryKeyConstraint, Columns: []int{0}}},
			Indexes:     []IndexDef{{Name: "pk_st_sequence", Columns: []int{0}, Unique: true, Algo: BTreeAlgorithm}},
		},
		{
			TableID: StModuleID,
			Name:    "st_module",
			Columns: ProductType{Fields: []Field{
				col("module_id", val.Uint32Enc),
				bytesCol("wasm_hash"),
				col("epoch", val.Uint64Enc),
			}},
			Constraints: []ConstraintDef{{Kind: PrimaryKeyConstraint, Columns: []int{0}}},
			Indexes:     []IndexDef{{Name: "pk_st_module", Columns: []int{0}, Unique: true, Algo: BTreeAlgorithm}},
		},
	}
}
