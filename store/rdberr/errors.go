// Copyright 2019 Dolthub, Inc.
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

// Package rdberr defines the typed, recoverable error kinds the engine
// surfaces at its public API boundary (spec §7). Every kind wraps its
// cause with github.com/pkg/errors so callers retain a stack trace
// without engine internals leaking into the message text.
package rdberr

import (
	"fmt"

	"github.com/pkg/errors"
)

// NotFoundKind distinguishes what sort of catalog object was missing.
type NotFoundKind int

const (
	TableNotFound NotFoundKind = iota
	IndexNotFound
	ColumnNotFound
	RowNotFound
)

func (k NotFoundKind) String() string {
	switch k {
	case TableNotFound:
		return "table"
	case IndexNotFound:
		return "index"
	case ColumnNotFound:
		return "column"
	case RowNotFound:
		return "row"
	default:
		return "unknown"
	}
}

// NotFound is returned when a table, index, column or row lookup misses.
type NotFound struct {
	Kind NotFoundKind
	ID   any
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("not found: %s %v", e.Kind, e.ID)
}

// NewNotFound constructs a wrapped NotFound error.
func NewNotFound(kind NotFoundKind, id any) error {
	return errors.WithStack(&NotFound{Kind: kind, ID: id})
}

// UniqueViolation is returned when an insert collides with an existing key
// in a unique or primary-key index.
type UniqueViolation struct {
	Index    string
	Key      []byte
	Existing any
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique constraint %q violated by key %x", e.Index, e.Key)
}

// NewUniqueViolation constructs a wrapped UniqueViolation error.
func NewUniqueViolation(index string, key []byte, existing any) error {
	return errors.WithStack(&UniqueViolation{Index: index, Key: key, Existing: existing})
}

// SchemaMismatch is returned when row bytes are decoded against a
// ProductType they weren't encoded with.
type SchemaMismatch struct {
	TableID uint32
	Reason  string
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("schema mismatch on table %d: %s", e.TableID, e.Reason)
}

func NewSchemaMismatch(tableID uint32, reason string) error {
	return errors.WithStack(&SchemaMismatch{TableID: tableID, Reason: reason})
}

// SequenceExhausted is returned when a sequence's max_value is reached.
type SequenceExhausted struct {
	SequenceID uint32
}

func (e *SequenceExhausted) Error() string {
	return fmt.Sprintf("sequence %d exhausted", e.SequenceID)
}

func NewSequenceExhausted(seqID uint32) error {
	return errors.WithStack(&SequenceExhausted{SequenceID: seqID})
}

// LogCorruption is detected during recovery; it never escapes steady
// state, only the recovery path that decides between Truncate and Refuse.
type LogCorruption struct {
	Segment      string
	RecordOffset int64
	Reason       string
}

func (e *LogCorruption) Error() string {
	return fmt.Sprintf("log corruption in %s at offset %d: %s", e.Segment, e.RecordOffset, e.Reason)
}

func NewLogCorruption(segment string, recordOffset int64, reason string) error {
	return errors.WithStack(&LogCorruption{Segment: segment, RecordOffset: recordOffset, Reason: reason})
}

// Io wraps a read/write/fsync failure from the underlying storage. A
// mid-commit Io error also flips the owning datastore into degraded mode.
type Io struct {
	Op    string
	Cause error
}

func (e *Io) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Cause)
}

func (e *Io) Unwrap() error { return e.Cause }

func NewIo(op string, cause error) error {
	return errors.WithStack(&Io{Op: op, Cause: cause})
}

// Degraded is returned by every write operation once the datastore has
// entered degraded state following a mid-commit Io error.
type Degraded struct{}

func (e *Degraded) Error() string {
	return "datastore is degraded after a failed commit; restart required"
}

func NewDegraded() error {
	return errors.WithStack(&Degraded{})
}

// OutOfPages is fatal: the page allocator cannot grow further.
type OutOfPages struct {
	TableID uint32
}

func (e *OutOfPages) Error() string {
	return fmt.Sprintf("out of pages for table %d", e.TableID)
}

func NewOutOfPages(tableID uint32) error {
	return errors.WithStack(&OutOfPages{TableID: tableID})
}

// As is a thin re-export of errors.As so callers don't need a second
// import for the common case of unwrapping one of the kinds above.
func As(err error, target any) bool { return errors.As(err, target) }
