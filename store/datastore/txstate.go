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
	"sync"

	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/schema"
)

// tableOverlay holds one touched table's pending writes for the lifetime of
// a MutTxId: staged inserts (raw field rows, not yet assigned a pointer)
// and a set of committed pointers marked for deletion. Visible iteration
// within the owning transaction is committed ∪ inserts \ deletes (spec
// §4.4).
type tableOverlay struct {
	inserts [][][]byte
	deletes map[page.Pointer]struct{}
}

func newTableOverlay() *tableOverlay {
	return &tableOverlay{deletes: make(map[page.Pointer]struct{})}
}

// TxState is the private, single-owner staging area a MutTxId mutates
// before commit_mut_tx merges it into CommittedState (spec §4.4). Nothing
// in TxState is visible to any other transaction or reader until commit.
type TxState struct {
	mu sync.Mutex

	tables map[uint32]*tableOverlay

	newTables     []schema.TableDef
	droppedTables []uint32
}

func newTxState() *TxState {
	return &TxState{tables: make(map[uint32]*tableOverlay)}
}

func (ts *TxState) overlay(tableID uint32) *tableOverlay {
	ov, ok := ts.tables[tableID]
	if !ok {
		ov = newTableOverlay()
		ts.tables[tableID] = ov
	}
	return ov
}

// TxId is a read-only transaction handle (spec §4.5): a reference to the
// datastore's live committed state at the moment begin_tx was called. Row
// operations against a TxId read straight from CommittedState — there is
// no overlay to merge, since a read-only transaction never stages writes.
type TxId struct {
	ds *Datastore
}

// MutTxId is a read-write transaction handle wrapping a private TxState.
// Row operations see committed ∪ (this tx's own overlay); no other
// transaction observes the overlay until commit_mut_tx succeeds.
type MutTxId struct {
	TxId
	state *TxState
}
