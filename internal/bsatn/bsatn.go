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

// Package bsatn is the commit log's wire envelope codec: little-endian
// fixed-width integers, length-prefixed byte strings, and tag-prefixed
// sums, on the same tag/length discipline store/val already uses for
// in-memory rows. It is intentionally not a general-purpose serialization
// framework: store/commitlog is the only caller, and every record type it
// writes (row put/delete, blob incref/decref, sequence allocation,
// schema change) is a fixed, hand-written Encode/Decode pair below.
package bsatn

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Writer accumulates a BSATN-encoded payload into an in-memory buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Uint8(v uint8)  { w.buf = append(w.buf, v) }
func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) Uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }
func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

// VarBytes writes a length-prefixed (uint32 LE) byte string.
func (w *Writer) VarBytes(v []byte) {
	w.Uint32(uint32(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *Writer) String(v string) { w.VarBytes([]byte(v)) }

// Tag writes a one-byte sum-type discriminant.
func (w *Writer) Tag(v byte) { w.buf = append(w.buf, v) }

// Reader decodes a BSATN payload written by Writer, failing with
// io.ErrUnexpectedEOF (wrapped) if the buffer runs out before a field is
// fully read — the condition store/commitlog treats as a truncated final
// record during recovery.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, errors.Wrap(io.ErrUnexpectedEOF, "bsatn: short read")
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.Uint8()
	return b != 0, err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

func (r *Reader) VarBytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (r *Reader) String() (string, error) {
	b, err := r.VarBytes()
	return string(b), err
}

func (r *Reader) Tag() (byte, error) { return r.Uint8() }

// Remaining returns the number of undecoded bytes left in the buffer.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }
