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

import "github.com/riftdb/riftdb/store/schema"

// TableByName resolves a user or system table's catalog definition by
// name, for callers (cmd/riftdb) that only know a table's name, not its
// id. Table names are not indexed, so this is a linear scan over the
// (small) set of materialized tables; it is not on any hot path.
func (ds *Datastore) TableByName(name string) (schema.TableDef, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	for _, def := range ds.committed.tableDefs {
		if def.Name == name {
			return def, true
		}
	}
	return schema.TableDef{}, false
}

// ListTables returns every materialized table's catalog definition,
// system and user alike, in no particular order.
func (ds *Datastore) ListTables() []schema.TableDef {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	defs := make([]schema.TableDef, 0, len(ds.committed.tableDefs))
	for _, def := range ds.committed.tableDefs {
		defs = append(defs, def)
	}
	return defs
}

// RowCount returns the number of live rows in tableID, for the stat
// command's summary output.
func (ds *Datastore) RowCount(tableID uint32) (int, error) {
	tx := ds.BeginTx()
	ptrs, err := tx.Scan(tableID)
	if err != nil {
		return 0, err
	}
	return len(ptrs), nil
}

// Stats returns this Datastore's lifetime commit/rollback/row counters.
func (ds *Datastore) Stats() EngineStats { return ds.metrics.Snapshot() }
