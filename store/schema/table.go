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

// IndexAlgorithm selects the physical index structure (spec §3, §4.2,
// §9 "Direct indexes").
type IndexAlgorithm byte

const (
	BTreeAlgorithm IndexAlgorithm = iota
	DirectAlgorithm
)

// IndexDef is a named index over an ordered column list.
type IndexDef struct {
	Name    string
	Columns []int // field indices into the owning TableDef's ProductType
	Unique  bool
	Algo    IndexAlgorithm
}

// ConstraintKind enumerates the constraint kinds spec §3 calls out.
type ConstraintKind byte

const (
	PrimaryKeyConstraint ConstraintKind = iota
	UniqueConstraint
	AutoIncrementConstraint
)

// ConstraintDef binds a constraint kind to the column(s) it governs.
type ConstraintDef struct {
	Kind    ConstraintKind
	Columns []int
}

// SequenceDef describes an auto-increment counter (spec §4.6).
type SequenceDef struct {
	ID        uint32
	Column    int
	Start     int64
	MinValue  int64
	MaxValue  int64
	Increment int64
}

// TableDef is the full catalog entry for one user or system table.
type TableDef struct {
	TableID     uint32
	Name        string
	Columns     ProductType
	Constraints []ConstraintDef
	Indexes     []IndexDef
	Sequences   []SequenceDef
}

// PrimaryKeyIndex returns the index implementing the table's primary key,
// if it has one.
func (td TableDef) PrimaryKeyIndex() (IndexDef, bool) {
	for _, c := range td.Constraints {
		if c.Kind == PrimaryKeyConstraint {
			for _, idx := range td.Indexes {
				if sameColumns(idx.Columns, c.Columns) {
					return idx, true
				}
			}
		}
	}
	return IndexDef{}, false
}

func sameColumns(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
