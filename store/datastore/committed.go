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
	"context"

	"github.com/riftdb/riftdb/store/blob"
	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/schema"
	"github.com/riftdb/riftdb/store/sequence"
	"github.com/riftdb/riftdb/store/table"
	"github.com/riftdb/riftdb/store/val"
)

// CommittedState is the durable, logically-immutable-between-commits view
// every reader iterates against (spec §4.4): the live set of tables, the
// sequence allocators bound to them, and the catalog bookkeeping needed to
// rebuild a user table's schema on recovery. A single Datastore.mu guards
// the top-level maps (a table being added or dropped); each *table.Table
// guards its own rows, so a reader mid-Scan is never affected by a schema
// change to a *different* table.
type CommittedState struct {
	tables    map[uint32]*table.Table
	tableDefs map[uint32]schema.TableDef
	sequences map[uint32]*sequence.Allocator

	blobs *blob.Store

	nextUserTableID uint32
	nextIndexID     uint32

	// builders accumulates st_column/st_index/st_constraint/st_sequence
	// rows for a user table whose st_table row has already been seen but
	// whose own rows have not, so its TableDef can be assembled the
	// instant it's first needed (spec §4.8: schema travels through the
	// ordinary row path, not a side channel).
	builders map[uint32]*catalogBuilder
}

func newCommittedState(blobs *blob.Store) *CommittedState {
	cs := &CommittedState{
		tables:          make(map[uint32]*table.Table),
		tableDefs:       make(map[uint32]schema.TableDef),
		sequences:       make(map[uint32]*sequence.Allocator),
		blobs:           blobs,
		nextUserTableID: schema.FirstUserTableID,
		nextIndexID:     1,
		builders:        make(map[uint32]*catalogBuilder),
	}
	for _, def := range schema.SystemCatalog() {
		cs.registerTable(def)
	}
	return cs
}

func (cs *CommittedState) registerTable(def schema.TableDef) {
	cs.tables[def.TableID] = table.New(def, cs.blobs)
	cs.tableDefs[def.TableID] = def
}

func isSystemTable(id uint32) bool { return id < schema.FirstUserTableID }

// builderFor returns (creating if necessary) the catalogBuilder accumulating
// rows for a not-yet-materialized user table id.
func (cs *CommittedState) builderFor(tableID uint32) *catalogBuilder {
	b, ok := cs.builders[tableID]
	if !ok {
		b = newCatalogBuilder()
		cs.builders[tableID] = b
	}
	return b
}

// ensureUserTable materializes tableID's *table.Table from its accumulated
// catalog rows the first time any row targets it (and, during replay, at
// the end of the transaction that logged its st_table row), and is a
// no-op once the table already exists.
func (cs *CommittedState) ensureUserTable(tableID uint32) {
	if _, ok := cs.tables[tableID]; ok {
		return
	}
	b, ok := cs.builders[tableID]
	if !ok {
		return
	}
	def := b.buildDef(tableID)
	cs.registerTable(def)
	for _, s := range def.Sequences {
		cs.sequences[s.ID] = sequence.NewAllocator(s, s.Start, sequence.DefaultBatchSize)
	}
	if tableID >= cs.nextUserTableID {
		cs.nextUserTableID = tableID + 1
	}
	delete(cs.builders, tableID)
}

// applySystemRow feeds one replayed system-catalog row into the matching
// catalogBuilder, or (for st_table) records a table's name and guarantees a
// builder exists for it.
func (cs *CommittedState) applySystemRow(tableID uint32, fields [][]byte) {
	switch tableID {
	case schema.StTableID:
		id := getU32(fields[0])
		b := cs.builderFor(id)
		b.name = string(fields[1])
		b.haveName = true
		if id >= cs.nextUserTableID {
			cs.nextUserTableID = id + 1
		}
	case schema.StColumnID:
		id := getU32(fields[0])
		cs.builderFor(id).addColumn(getU32(fields[1]), string(fields[2]), getU8(fields[3]))
	case schema.StIndexID:
		indexID := getU32(fields[0])
		tableID := getU32(fields[1])
		cs.builderFor(tableID).addIndex(schema.IndexDef{
			Name:    string(fields[2]),
			Unique:  getBool(fields[3]),
			Algo:    schema.IndexAlgorithm(getU8(fields[4])),
			Columns: decodeColumns(fields[5]),
		})
		if indexID >= cs.nextIndexID {
			cs.nextIndexID = indexID + 1
		}
	case schema.StConstraintID:
		id := getU32(fields[0])
		cs.builderFor(id).addConstraint(schema.ConstraintDef{
			Kind:    schema.ConstraintKind(getU8(fields[1])),
			Columns: decodeColumns(fields[2]),
		})
	case schema.StSequenceID:
		id := getU32(fields[1])
		cs.builderFor(id).addSequence(schema.SequenceDef{
			ID:        getU32(fields[0]),
			Column:    int(getU32(fields[2])),
			Start:     getI64(fields[3]),
			MinValue:  getI64(fields[4]),
			MaxValue:  getI64(fields[5]),
			Increment: getI64(fields[6]),
		})
	}
}

// applyInsert applies one decoded RowPut record to the committed state
// during recovery replay. CommitMutTx applies a live transaction's rows
// through Table.ApplyBatch instead.
func (cs *CommittedState) applyInsert(ctx context.Context, tableID uint32, fields [][]byte) (page.Pointer, error) {
	if isSystemTable(tableID) {
		cs.applySystemRow(tableID, fields)
	} else {
		cs.ensureUserTable(tableID)
	}
	return cs.tables[tableID].Insert(ctx, fields)
}

// applyDelete applies one decoded RowDelete record to the committed state.
func (cs *CommittedState) applyDelete(ctx context.Context, tableID uint32, ptr page.Pointer) error {
	return cs.tables[tableID].Delete(ctx, ptr)
}

// decodeRow unpacks a commit-log RowBytes payload back into raw field
// slices. val.Tuple is self-describing (its trailing footer carries the
// field count), so decoding needs no schema lookup ahead of the table's
// own materialization.
func decodeRow(rowBytes []byte) [][]byte {
	t := val.Tuple(rowBytes)
	n := t.FieldCount()
	fields := make([][]byte, n)
	for i := 0; i < n; i++ {
		fields[i] = t.GetField(i)
	}
	return fields
}

// encodeRow packs raw field slices into the commit-log wire form.
func encodeRow(fields [][]byte) []byte {
	return val.NewTuple(nil, fields...)
}
