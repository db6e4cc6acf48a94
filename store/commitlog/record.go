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

// Package commitlog is the durable, append-only record of every
// committed transaction (spec §4.7): fixed-size segment files plus a
// sparse offset index, replayed in full on open to reconstruct committed
// state (I6).
package commitlog

import (
	"github.com/riftdb/riftdb/internal/bsatn"
)

// Kind tags the type of one commit-log record.
type Kind byte

const (
	RowPutKind Kind = iota
	RowDeleteKind
	BlobIncrefKind
	BlobDecrefKind
	SeqAllocKind
	SchemaChangeKind
	TxBoundaryKind
)

// Record is one decoded commit-log entry. Every field is populated
// according to Kind; a RowPut record carries RowBytes, a SeqAlloc record
// carries SeqID/Allocated, and so on. A single struct (rather than one
// type per Kind) lets the replay callback passed to Open be a flat switch
// on Kind instead of a type-switch over seven types.
type Record struct {
	Kind Kind

	// TxOffset is the offset Log.Append assigned to this record. Every
	// appended record takes the next offset, so the records of one commit
	// carry consecutive offsets rather than a shared per-transaction one.
	TxOffset uint64

	TableID uint32 // RowPut, RowDelete, SchemaChange

	RowBytes []byte // RowPut

	PagePointer PointerBytes // RowDelete: the pointer being removed

	BlobHash []byte // BlobIncref, BlobDecref

	SeqID     uint32 // SeqAlloc
	Allocated int64  // SeqAlloc: new high-water mark

	SchemaOp  byte   // SchemaChange: create_table, drop_table, create_index, drop_index, alter_sequence
	SchemaArg []byte // SchemaChange: opaque bsatn-encoded payload for SchemaOp
}

// PointerBytes is the wire form of a page.Pointer: three little-endian
// uint32s, kept independent of the page package so commitlog has no
// import-cycle-prone dependency on it.
type PointerBytes struct {
	PageIndex  uint32
	PageOffset uint32
	SquashHash uint32
}

// Encode serializes r into a fresh BSATN payload.
func (r Record) Encode() []byte {
	w := bsatn.NewWriter()
	w.Tag(byte(r.Kind))
	w.Uint64(r.TxOffset)

	switch r.Kind {
	case RowPutKind:
		w.Uint32(r.TableID)
		w.VarBytes(r.RowBytes)
	case RowDeleteKind:
		w.Uint32(r.TableID)
		w.Uint32(r.PagePointer.PageIndex)
		w.Uint32(r.PagePointer.PageOffset)
		w.Uint32(r.PagePointer.SquashHash)
	case BlobIncrefKind, BlobDecrefKind:
		w.VarBytes(r.BlobHash)
	case SeqAllocKind:
		w.Uint32(r.SeqID)
		w.Int64(r.Allocated)
	case SchemaChangeKind:
		w.Uint8(r.SchemaOp)
		w.VarBytes(r.SchemaArg)
	case TxBoundaryKind:
		// no additional fields
	}
	return w.Bytes()
}

// Decode parses a Record from a BSATN payload previously produced by
// Encode.
func Decode(payload []byte) (Record, error) {
	r := bsatn.NewReader(payload)
	tag, err := r.Tag()
	if err != nil {
		return Record{}, err
	}
	txOffset, err := r.Uint64()
	if err != nil {
		return Record{}, err
	}

	rec := Record{Kind: Kind(tag), TxOffset: txOffset}
	switch rec.Kind {
	case RowPutKind:
		if rec.TableID, err = r.Uint32(); err != nil {
			return Record{}, err
		}
		if rec.RowBytes, err = r.VarBytes(); err != nil {
			return Record{}, err
		}
	case RowDeleteKind:
		if rec.TableID, err = r.Uint32(); err != nil {
			return Record{}, err
		}
		if rec.PagePointer.PageIndex, err = r.Uint32(); err != nil {
			return Record{}, err
		}
		if rec.PagePointer.PageOffset, err = r.Uint32(); err != nil {
			return Record{}, err
		}
		if rec.PagePointer.SquashHash, err = r.Uint32(); err != nil {
			return Record{}, err
		}
	case BlobIncrefKind, BlobDecrefKind:
		if rec.BlobHash, err = r.VarBytes(); err != nil {
			return Record{}, err
		}
	case SeqAllocKind:
		if rec.SeqID, err = r.Uint32(); err != nil {
			return Record{}, err
		}
		if rec.Allocated, err = r.Int64(); err != nil {
			return Record{}, err
		}
	case SchemaChangeKind:
		if rec.SchemaOp, err = r.Uint8(); err != nil {
			return Record{}, err
		}
		if rec.SchemaArg, err = r.VarBytes(); err != nil {
			return Record{}, err
		}
	case TxBoundaryKind:
		// no additional fields
	}
	return rec, nil
}
