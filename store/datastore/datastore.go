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

// Package datastore is the top-level embeddable engine (spec §4.4,
// §4.5): it owns the commit log, the committed table/catalog state, and
// the single-writer discipline under which begin_mut_tx/commit_mut_tx/
// rollback_mut_tx let one writer at a time mutate the database. Readers
// hold no snapshot: every TxId read goes to the live committed tables, so
// a read made after a commit sees that commit; a single Scan of one table
// is atomic with respect to a commit.
package datastore

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/dolthub/fslock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/riftdb/riftdb/config"
	"github.com/riftdb/riftdb/store/blob"
	"github.com/riftdb/riftdb/store/btree"
	"github.com/riftdb/riftdb/store/commitlog"
	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/rdberr"
	"github.com/riftdb/riftdb/store/schema"
)

// lockFileName is the advisory lock every process opening the same
// directory contends for, mirroring Dolt's own repository LOCK file
// (cmd/dolt/commands/engine/lock_release_test.go): a second Open against
// the same dir fails fast instead of corrupting the log with two
// writers.
const lockFileName = "LOCK"

// Datastore is one open database: a durable commit log, the live
// CommittedState every reader iterates against, and the bookkeeping that
// lets a single writer commit at a time (spec §4.4 "single writer,
// multiple readers").
type Datastore struct {
	mu sync.RWMutex // guards committed's top-level maps (table/index add or drop)

	// writerMu serializes begin_mut_tx..commit_mut_tx/rollback_mut_tx:
	// only one mutating transaction is ever open at a time (spec §4.5).
	writerMu sync.Mutex

	committed *CommittedState
	log       *commitlog.Log
	blobs     *blob.Store
	cfg       config.Config
	metrics   *metrics
	lock      *fslock.Lock
	logger    *logrus.Logger

	degradedMu sync.RWMutex
	degraded   bool
}

// Open acquires dir's advisory lock, replays its commit log into a fresh
// CommittedState, and returns a Datastore ready for transactions.
func Open(dir string, cfg config.Config) (*Datastore, error) {
	logger := logrus.StandardLogger()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.LogFormat == string(config.LogFormatJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lock := fslock.New(filepath.Join(dir, lockFileName))
	if err := lock.LockWithTimeout(5 * time.Second); err != nil {
		return nil, rdberr.NewIo("acquire datastore lock", err)
	}

	blobs := blob.NewStore()
	committed := newCommittedState(blobs)

	replayer := newReplayBuffer(committed)
	logPath := filepath.Join(dir, "segments")
	logg, err := commitlog.Open(logPath, cfg.FsyncPolicyValue(), cfg.RecoveryPolicyValue(), cfg.CommitLogOptions(), logger, replayer.apply)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	ds := &Datastore{
		committed: committed,
		log:       logg,
		blobs:     blobs,
		cfg:       cfg,
		metrics:   newMetrics(),
		lock:      lock,
		logger:    logger,
	}
	return ds, nil
}

// Close syncs and closes the commit log and releases the directory lock.
func (ds *Datastore) Close() error {
	if err := ds.log.Close(); err != nil {
		return err
	}
	return ds.lock.Unlock()
}

// Registry exposes the Prometheus registry backing this datastore's
// metrics, for a host process to serve on its own /metrics endpoint.
func (ds *Datastore) Registry() *prometheus.Registry { return ds.metrics.registry }

func (ds *Datastore) isDegraded() bool {
	ds.degradedMu.RLock()
	defer ds.degradedMu.RUnlock()
	return ds.degraded
}

func (ds *Datastore) setDegraded() {
	ds.degradedMu.Lock()
	ds.degraded = true
	ds.degradedMu.Unlock()
	ds.metrics.degraded.Set(1)
	ds.logger.Error("datastore: entering degraded state after a failed commit")
}

// replayBuffer accumulates records between TxBoundaryKind markers so
// recovery applies a transaction's writes atomically or not at all: a
// crash that left well-formed records on disk but no trailing boundary
// record leaves those records buffered and, since Open simply returns
// once recovery is finished, silently discarded (spec §4.7, §8 I6 — a
// reader never observes a transaction's partial effects, including
// across a restart).
type replayBuffer struct {
	committed *CommittedState
	puts      []commitlog.Record
	deletes   []commitlog.Record
	seqs      []commitlog.Record
}

func newReplayBuffer(cs *CommittedState) *replayBuffer {
	return &replayBuffer{committed: cs}
}

func (rb *replayBuffer) apply(rec commitlog.Record) error {
	switch rec.Kind {
	case commitlog.RowPutKind:
		rb.puts = append(rb.puts, rec)
	case commitlog.RowDeleteKind:
		rb.deletes = append(rb.deletes, rec)
	case commitlog.SeqAllocKind:
		rb.seqs = append(rb.seqs, rec)
	case commitlog.TxBoundaryKind:
		if err := rb.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (rb *replayBuffer) flush() error {
	ctx := context.Background()
	for _, rec := range rb.deletes {
		ptr := page.Pointer{
			PageIndex:  rec.PagePointer.PageIndex,
			PageOffset: rec.PagePointer.PageOffset,
			SquashHash: rec.PagePointer.SquashHash,
		}
		// A deleted st_table row means drop_table ran; look up which
		// table it named before the delete removes the row, so the
		// dropped table's in-memory state can be torn down too
		// (drop_table logs no deletes for the dropped table's own rows;
		// they go away with its Table).
		var droppedTableID uint32
		var dropping bool
		if rec.TableID == schema.StTableID {
			if t, ok := rb.committed.tables[schema.StTableID]; ok {
				if fields, err := t.Get(ctx, ptr); err == nil {
					droppedTableID = getU32(fields[0])
					dropping = true
				}
			}
		}
		if err := rb.committed.applyDelete(ctx, rec.TableID, ptr); err != nil {
			return err
		}
		if dropping {
			delete(rb.committed.tables, droppedTableID)
			delete(rb.committed.tableDefs, droppedTableID)
		}
	}
	for _, rec := range rb.puts {
		if _, err := rb.committed.applyInsert(ctx, rec.TableID, decodeRow(rec.RowBytes)); err != nil {
			return err
		}
	}
	// Materialize every table whose st_table row has been replayed, so a
	// table with no rows yet exists once its CREATE TABLE is replayed.
	for id, b := range rb.committed.builders {
		if b.haveName {
			rb.committed.ensureUserTable(id)
		}
	}
	for _, rec := range rb.seqs {
		if a, ok := rb.committed.sequences[rec.SeqID]; ok {
			a.Reset(rec.Allocated)
		}
	}
	rb.puts = rb.puts[:0]
	rb.deletes = rb.deletes[:0]
	rb.seqs = rb.seqs[:0]
	return nil
}

// BeginTx opens a read-only transaction over the current committed
// state (spec §4.5).
func (ds *Datastore) BeginTx() *TxId {
	return &TxId{ds: ds}
}

// BeginMutTx opens a read-write transaction, blocking until any other
// mutating transaction in flight has committed or rolled back (spec
// §4.5 "single writer").
func (ds *Datastore) BeginMutTx() (*MutTxId, error) {
	if ds.isDegraded() {
		return nil, rdberr.NewDegraded()
	}
	ds.writerMu.Lock()
	return &MutTxId{TxId: TxId{ds: ds}, state: newTxState()}, nil
}

// ---- read path (shared by TxId and MutTxId) ----

// Get returns the decoded row at ptr as committed, ignoring any pending
// overlay (callers on a MutTxId should prefer MutTxId.Get).
func (tx *TxId) Get(ctx context.Context, tableID uint32, ptr page.Pointer) ([][]byte, error) {
	tx.ds.mu.RLock()
	t, ok := tx.ds.committed.tables[tableID]
	tx.ds.mu.RUnlock()
	if !ok {
		return nil, rdberr.NewNotFound(rdberr.TableNotFound, tableID)
	}
	return t.Get(ctx, ptr)
}

// Scan returns every committed row pointer in tableID.
func (tx *TxId) Scan(tableID uint32) ([]page.Pointer, error) {
	tx.ds.mu.RLock()
	t, ok := tx.ds.committed.tables[tableID]
	tx.ds.mu.RUnlock()
	if !ok {
		return nil, rdberr.NewNotFound(rdberr.TableNotFound, tableID)
	}
	return t.Scan(), nil
}

// IndexScan returns every committed pointer in tableID's named index
// within [start, end].
func (tx *TxId) IndexScan(tableID uint32, index string, start, end btree.Bound) ([]page.Pointer, error) {
	tx.ds.mu.RLock()
	t, ok := tx.ds.committed.tables[tableID]
	tx.ds.mu.RUnlock()
	if !ok {
		return nil, rdberr.NewNotFound(rdberr.TableNotFound, tableID)
	}
	return t.IndexScan(index, start, end)
}

// stagedPointer builds the synthetic pointer form a MutTxId hands out for a
// row it has staged but not yet committed: since the row has no page
// slot yet, PageIndex is pinned to a sentinel value so it can never
// collide with a real page.Pointer, and PageOffset indexes into the
// owning tableOverlay's inserts slice.
const stagedPageIndex = ^uint32(0)

func stagedPointer(slot int) page.Pointer {
	return page.Pointer{PageIndex: stagedPageIndex, PageOffset: uint32(slot)}
}

func isStagedPointer(ptr page.Pointer) bool { return ptr.PageIndex == stagedPageIndex }

// Get returns the decoded row at ptr as visible to tx: its own staged
// insert if ptr is a synthetic pointer, nothing if the row was staged for
// deletion, otherwise the committed row (spec §4.4 "read your own
// writes").
func (tx *MutTxId) Get(ctx context.Context, tableID uint32, ptr page.Pointer) ([][]byte, error) {
	tx.state.mu.Lock()
	ov, touched := tx.state.tables[tableID]
	tx.state.mu.Unlock()

	if isStagedPointer(ptr) {
		if touched && int(ptr.PageOffset) < len(ov.inserts) {
			return ov.inserts[ptr.PageOffset], nil
		}
		return nil, rdberr.NewNotFound(rdberr.RowNotFound, ptr)
	}
	if touched {
		if _, deleted := ov.deletes[ptr]; deleted {
			return nil, rdberr.NewNotFound(rdberr.RowNotFound, ptr)
		}
	}
	return tx.TxId.Get(ctx, tableID, ptr)
}

// Scan returns every row pointer visible to tx: committed pointers minus
// this transaction's staged deletes, plus a synthetic pointer per staged
// insert.
func (tx *MutTxId) Scan(tableID uint32) ([]page.Pointer, error) {
	ptrs, err := tx.TxId.Scan(tableID)
	if err != nil {
		return nil, err
	}

	tx.state.mu.Lock()
	ov, touched := tx.state.tables[tableID]
	tx.state.mu.Unlock()
	if !touched {
		return ptrs, nil
	}

	out := ptrs[:0]
	for _, p := range ptrs {
		if _, deleted := ov.deletes[p]; !deleted {
			out = append(out, p)
		}
	}
	for i := range ov.inserts {
		out = append(out, stagedPointer(i))
	}
	return out, nil
}

// InsertRow stages fields for insertion into tableID, visible to tx
// immediately and to every other transaction only after a successful
// commit_mut_tx.
func (tx *MutTxId) InsertRow(tableID uint32, fields [][]byte) page.Pointer {
	tx.state.mu.Lock()
	defer tx.state.mu.Unlock()
	ov := tx.state.overlay(tableID)
	ov.inserts = append(ov.inserts, fields)
	return stagedPointer(len(ov.inserts) - 1)
}

// DeleteRow stages ptr for deletion from tableID. Deleting a pointer this
// same transaction staged as an insert simply drops it from the pending
// insert list.
func (tx *MutTxId) DeleteRow(tableID uint32, ptr page.Pointer) {
	tx.state.mu.Lock()
	defer tx.state.mu.Unlock()
	ov := tx.state.overlay(tableID)
	if isStagedPointer(ptr) {
		if int(ptr.PageOffset) < len(ov.inserts) {
			ov.inserts = append(ov.inserts[:ptr.PageOffset], ov.inserts[ptr.PageOffset+1:]...)
		}
		return
	}
	ov.deletes[ptr] = struct{}{}
}

// ---- schema operations ----

// CreateTable allocates a fresh table id, appends a CreateTable entry to
// tx's pending DDL, and stages the table's system-catalog rows into the
// st_table/st_column/st_index/st_constraint/st_sequence overlays (spec
// §4.8). The new table and its rows become visible to other
// transactions only at commit; issuing DML against the same tableID from
// this same transaction is not supported (commit_mut_tx only
// materializes new tables after every staged row has been applied).
func (tx *MutTxId) CreateTable(name string, columns schema.ProductType, constraints []schema.ConstraintDef, indexes []schema.IndexDef, sequences []schema.SequenceDef) schema.TableDef {
	tx.ds.mu.Lock()
	tableID := tx.ds.committed.nextUserTableID
	tx.ds.committed.nextUserTableID++
	firstIndexID := tx.ds.committed.nextIndexID
	tx.ds.committed.nextIndexID += uint32(len(indexes) + len(sequences))
	tx.ds.mu.Unlock()

	for i := range sequences {
		sequences[i].ID = firstIndexID + uint32(len(indexes)) + uint32(i)
	}

	def := schema.TableDef{
		TableID:     tableID,
		Name:        name,
		Columns:     columns,
		Constraints: constraints,
		Indexes:     indexes,
		Sequences:   sequences,
	}

	tx.state.mu.Lock()
	tx.state.newTables = append(tx.state.newTables, def)
	tx.state.mu.Unlock()

	tx.InsertRow(schema.StTableID, stTableRow(def))
	for _, row := range stColumnRows(def) {
		tx.InsertRow(schema.StColumnID, row)
	}
	for _, row := range stIndexRows(def, firstIndexID) {
		tx.InsertRow(schema.StIndexID, row)
	}
	for _, row := range stConstraintRows(def) {
		tx.InsertRow(schema.StConstraintID, row)
	}
	for _, row := range stSequenceRows(def) {
		tx.InsertRow(schema.StSequenceID, row)
	}
	return def
}

// DropTable stages tableID for removal: every st_table/st_column/
// st_index/st_constraint/st_sequence row referencing it is staged for
// deletion, and commit_mut_tx tears down the in-memory Table once those
// deletes are applied.
func (tx *MutTxId) DropTable(tableID uint32) error {
	tx.ds.mu.RLock()
	_, ok := tx.ds.committed.tables[tableID]
	tx.ds.mu.RUnlock()
	if !ok {
		return rdberr.NewNotFound(rdberr.TableNotFound, tableID)
	}

	tx.dropSystemRows(schema.StTableID, func(f [][]byte) bool { return getU32(f[0]) == tableID })
	tx.dropSystemRows(schema.StColumnID, func(f [][]byte) bool { return getU32(f[0]) == tableID })
	tx.dropSystemRows(schema.StIndexID, func(f [][]byte) bool { return getU32(f[1]) == tableID })
	tx.dropSystemRows(schema.StConstraintID, func(f [][]byte) bool { return getU32(f[0]) == tableID })
	tx.dropSystemRows(schema.StSequenceID, func(f [][]byte) bool { return getU32(f[1]) == tableID })

	tx.state.mu.Lock()
	tx.state.droppedTables = append(tx.state.droppedTables, tableID)
	tx.state.mu.Unlock()
	return nil
}

// dropSystemRows scans sysTableID as committed (this table is never
// itself touched by the same CreateTable/DropTable call in one
// transaction) and stages a delete for every row match matches.
func (tx *MutTxId) dropSystemRows(sysTableID uint32, match func([][]byte) bool) {
	ctx := context.Background()
	ptrs, err := tx.TxId.Scan(sysTableID)
	if err != nil {
		return
	}
	for _, ptr := range ptrs {
		fields, err := tx.TxId.Get(ctx, sysTableID, ptr)
		if err != nil {
			continue
		}
		if match(fields) {
			tx.DeleteRow(sysTableID, ptr)
		}
	}
}

// AllocateSequence reserves the next value of seqID, durably recording a
// new high-water mark via a SeqAlloc commit-log record whenever the
// in-memory batch runs dry (spec §4.6). The SeqAlloc record is appended
// immediately, independent of whether tx ultimately commits: a rolled
// back transaction may waste part of a batch, never less-than-durable
// values (I5).
func (tx *MutTxId) AllocateSequence(seqID uint32) (int64, error) {
	tx.ds.mu.RLock()
	a, ok := tx.ds.committed.sequences[seqID]
	tx.ds.mu.RUnlock()
	if !ok {
		return 0, rdberr.NewNotFound(rdberr.ColumnNotFound, seqID)
	}
	return a.Next(func(newAllocated int64) error {
		_, err := tx.ds.log.Append(commitlog.SeqAllocKind, func(r *commitlog.Record) {
			r.SeqID = seqID
			r.Allocated = newAllocated
		})
		return err
	})
}

// ---- commit / rollback ----

// CommitMutTx validates and applies every staged row change to
// CommittedState first (Table.ApplyBatch, spec §8 S5), so a unique-index
// violation is rejected without ever reaching the commit log, then
// durably appends the same changes followed by a TxBoundary
// record. Applying before logging means a transaction that fails
// validation never poisons recovery with a record replay would itself
// reject (spec §6 unique_check_on_commit); the narrow remaining risk —
// CommittedState already updated in memory but the following log append
// fails — flips the datastore into degraded state, since at that point
// only a restart-and-replay can re-derive a state consistent with the
// log (spec §4.7, §7).
func (tx *MutTxId) CommitMutTx(ctx context.Context) (CommitStats, error) {
	defer tx.ds.writerMu.Unlock()
	start := time.Now()

	if tx.ds.isDegraded() {
		return CommitStats{}, rdberr.NewDegraded()
	}

	var stats CommitStats

	tx.ds.mu.Lock()
	for tableID, ov := range tx.state.tables {
		deletes := make([]page.Pointer, 0, len(ov.deletes))
		for ptr := range ov.deletes {
			deletes = append(deletes, ptr)
		}
		tx.ds.committed.ensureUserTable(tableID)
		t, ok := tx.ds.committed.tables[tableID]
		if !ok {
			continue
		}
		if isSystemTable(tableID) {
			for _, fields := range ov.inserts {
				tx.ds.committed.applySystemRow(tableID, fields)
			}
		}
		if _, err := t.ApplyBatch(ctx, ov.inserts, deletes); err != nil {
			tx.ds.mu.Unlock()
			return CommitStats{}, err
		}
		stats.RowsInserted += len(ov.inserts)
		stats.RowsDeleted += len(deletes)
	}
	for _, def := range tx.state.newTables {
		tx.ds.committed.ensureUserTable(def.TableID)
	}
	for _, tableID := range tx.state.droppedTables {
		delete(tx.ds.committed.tables, tableID)
		delete(tx.ds.committed.tableDefs, tableID)
	}
	tx.ds.mu.Unlock()

	var lastTxOffset uint64
	for tableID, ov := range tx.state.tables {
		for _, fields := range ov.inserts {
			rowBytes := encodeRow(fields)
			txOffset, err := tx.ds.log.Append(commitlog.RowPutKind, func(r *commitlog.Record) {
				r.TableID = tableID
				r.RowBytes = rowBytes
			})
			if err != nil {
				tx.ds.setDegraded()
				return CommitStats{}, err
			}
			lastTxOffset = txOffset
			stats.BytesAppended += int64(len(rowBytes))
		}
		for ptr := range ov.deletes {
			txOffset, err := tx.ds.log.Append(commitlog.RowDeleteKind, func(r *commitlog.Record) {
				r.TableID = tableID
				r.PagePointer = commitlog.PointerBytes{
					PageIndex:  ptr.PageIndex,
					PageOffset: ptr.PageOffset,
					SquashHash: ptr.SquashHash,
				}
			})
			if err != nil {
				tx.ds.setDegraded()
				return CommitStats{}, err
			}
			lastTxOffset = txOffset
		}
	}

	txOffset, err := tx.ds.log.Append(commitlog.TxBoundaryKind, nil)
	if err != nil {
		tx.ds.setDegraded()
		return CommitStats{}, err
	}
	lastTxOffset = txOffset
	stats.TxOffset = lastTxOffset

	tx.ds.metrics.commits.Inc()
	tx.ds.metrics.rowsInserted.Add(float64(stats.RowsInserted))
	tx.ds.metrics.rowsDeleted.Add(float64(stats.RowsDeleted))
	tx.ds.metrics.bytesAppended.Add(float64(stats.BytesAppended))
	stats.Duration = time.Since(start)
	tx.ds.metrics.commitLatency.Observe(stats.Duration.Seconds())
	return stats, nil
}

// RollbackMutTx discards tx's staged writes without touching the log or
// CommittedState.
func (tx *MutTxId) RollbackMutTx() {
	defer tx.ds.writerMu.Unlock()
	tx.ds.metrics.rollbacks.Inc()
}
