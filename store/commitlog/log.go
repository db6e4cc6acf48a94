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

package commitlog

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/riftdb/riftdb/store/rdberr"
)

// RecoveryPolicy selects what happens when a segment's final record is
// found truncated or CRC-corrupt during recovery (spec §4.7).
type RecoveryPolicy int

const (
	// Truncate discards everything from the first bad record onward and
	// resumes appending there. Default.
	Truncate RecoveryPolicy = iota
	// Refuse returns rdberr.LogCorruption instead of opening, leaving the
	// operator to inspect or manually repair the segment.
	Refuse
)

// Options configures tunables a Log otherwise defaults (spec §6).
type Options struct {
	// MaxSegmentSize is the approximate size at which the log rotates to a
	// fresh segment. Zero means DefaultMaxSegmentSize.
	MaxSegmentSize int64
	// IndexStride is the number of records between sparse index entries.
	// Zero means DefaultIndexStride.
	IndexStride int
}

func (o Options) withDefaults() Options {
	if o.MaxSegmentSize <= 0 {
		o.MaxSegmentSize = DefaultMaxSegmentSize
	}
	if o.IndexStride <= 0 {
		o.IndexStride = DefaultIndexStride
	}
	return o
}

// Log is the durable, append-only record of every committed transaction.
// A single writer appends; replay happens once, synchronously, in Open.
type Log struct {
	mu  sync.Mutex
	dir string

	policy       FsyncPolicy
	opts         Options
	active       *segment
	ordinal      uint64   // record count within the active segment, for index striding
	nextTx       uint64   // next tx offset to assign
	segmentStart []uint64 // firstTxOffset of every known segment, ascending
	idxCache     *indexCache

	appendsSinceSync int
	lastSync         time.Time

	log *logrus.Logger
}

// Open scans dir for existing segments, replays every well-formed record
// into replay in tx-offset order, and leaves the Log ready to append
// starting at the next tx offset. If the final segment's tail is
// truncated or corrupt, behavior is governed by recovery.
func Open(dir string, policy FsyncPolicy, recovery RecoveryPolicy, opts Options, logger *logrus.Logger, replay func(Record) error) (*Log, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, rdberr.NewIo("create commitlog dir", err)
	}
	opts = opts.withDefaults()

	segments, err := discoverSegments(dir)
	if err != nil {
		return nil, err
	}

	l := &Log{dir: dir, policy: policy, opts: opts, idxCache: newIndexCache(256), log: logger, lastSync: time.Now()}

	if len(segments) == 0 {
		seg, err := createSegment(dir, 0)
		if err != nil {
			return nil, err
		}
		l.active = seg
		l.segmentStart = []uint64{0}
		return l, nil
	}
	l.segmentStart = segments

	for i, firstTxOffset := range segments {
		isLast := i == len(segments)-1
		validSize, ordinal, lastTx, corrupt, err := l.recoverSegment(firstTxOffset, replay)
		if err != nil {
			return nil, err
		}

		if corrupt && !isLast {
			// A truncated/corrupt non-final segment is always an error:
			// Truncate only ever applies to the newest segment's tail.
			return nil, rdberr.NewLogCorruption(segmentName(firstTxOffset), validSize, "corruption in a non-final segment")
		}

		if corrupt {
			if recovery == Refuse {
				return nil, rdberr.NewLogCorruption(segmentName(firstTxOffset), validSize, "truncated or corrupt final record")
			}
			l.log.WithFields(logrus.Fields{
				"segment":    segmentName(firstTxOffset),
				"valid_size": validSize,
			}).Warn("commitlog: truncating corrupt tail of final segment")
		}

		if isLast {
			seg, err := openSegmentForAppend(dir, firstTxOffset, validSize)
			if err != nil {
				return nil, err
			}
			l.active = seg
			l.ordinal = ordinal
			l.nextTx = lastTx + 1
		}
	}

	return l, nil
}

// discoverSegments returns the firstTxOffset of every segment file in dir,
// ascending.
func discoverSegments(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, rdberr.NewIo("read commitlog dir", err)
	}

	var offsets []uint64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(name, ".log"), 10, 64)
		if err != nil {
			continue
		}
		offsets = append(offsets, n)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets, nil
}

// recoverSegment reads every record in the segment starting at
// firstTxOffset, invoking replay for each well-formed one, and reports
// where the valid data ends.
func (l *Log) recoverSegment(firstTxOffset uint64, replay func(Record) error) (validSize int64, ordinal uint64, lastTx uint64, corrupt bool, err error) {
	path := filepath.Join(l.dir, segmentName(firstTxOffset))
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, false, rdberr.NewIo("open segment for recovery", err)
	}
	defer f.Close()

	pos := int64(segmentHeaderSize)
	lastTx = firstTxOffset

	var hdr [segmentHeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return 0, 0, firstTxOffset, true, nil
	}
	if string(hdr[0:4]) != string(magic[:]) {
		return 0, 0, firstTxOffset, true, nil
	}

	for {
		var frame [recordHeaderSize]byte
		if _, err := io.ReadFull(f, frame[:]); err != nil {
			if err != io.EOF {
				// a partial header means a write was torn mid-record.
				corrupt = true
			}
			break
		}
		wantCRC := binary.BigEndian.Uint32(frame[0:4])
		n := binary.LittleEndian.Uint32(frame[4:8])

		payload := make([]byte, n)
		if _, err := io.ReadFull(f, payload); err != nil {
			corrupt = true
			break
		}
		if crc32.Checksum(payload, crcTable) != wantCRC {
			corrupt = true
			break
		}

		rec, err := Decode(payload)
		if err != nil {
			corrupt = true
			break
		}
		if replay != nil {
			if err := replay(rec); err != nil {
				return 0, 0, 0, false, err
			}
		}

		pos += int64(len(frame) + len(payload))
		ordinal++
		lastTx = rec.TxOffset
	}

	return pos, ordinal, lastTx, corrupt, nil
}

// Append durably records one entry and returns the tx offset assigned to
// it. Append rotates to a fresh segment first if the active one has grown
// past the configured MaxSegmentSize.
func (l *Log) Append(kind Kind, fill func(*Record)) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active.size >= l.opts.MaxSegmentSize {
		if err := l.rotateLocked(); err != nil {
			return 0, err
		}
	}

	tx := l.nextTx
	rec := Record{Kind: kind, TxOffset: tx}
	if fill != nil {
		fill(&rec)
	}

	if _, err := l.active.append(tx, rec.Encode(), l.ordinal, uint64(l.opts.IndexStride)); err != nil {
		return 0, err
	}
	l.ordinal++
	l.nextTx++
	l.appendsSinceSync++

	if l.policy.shouldSync(l.appendsSinceSync, time.Since(l.lastSync)) {
		if err := l.active.sync(); err != nil {
			return 0, err
		}
		l.appendsSinceSync = 0
		l.lastSync = time.Now()
	}

	return tx, nil
}

func (l *Log) rotateLocked() error {
	if err := l.active.sync(); err != nil {
		return err
	}
	if err := l.active.close(); err != nil {
		return err
	}
	seg, err := createSegment(l.dir, l.nextTx)
	if err != nil {
		return err
	}
	l.active = seg
	l.ordinal = 0
	l.segmentStart = append(l.segmentStart, seg.firstTxOffset)
	return nil
}

// Locate returns the on-disk segment path and an approximate byte offset
// within it from which a forward scan reaches txOffset, using the sparse
// index rather than a full replay.
func (l *Log) Locate(txOffset uint64) (segmentPath string, approxFileOffset int64, err error) {
	l.mu.Lock()
	starts := append([]uint64(nil), l.segmentStart...)
	l.mu.Unlock()

	i := sort.Search(len(starts), func(i int) bool { return starts[i] > txOffset })
	if i == 0 {
		return "", 0, rdberr.NewNotFound(rdberr.RowNotFound, txOffset)
	}
	first := starts[i-1]

	path := filepath.Join(l.dir, segmentName(first))
	entries, err := l.idxCache.load(filepath.Join(l.dir, indexName(first)))
	if err != nil {
		return "", 0, err
	}
	if j := seekFloor(entries, txOffset); j >= 0 {
		return path, entries[j].FileOffset, nil
	}
	return path, segmentHeaderSize, nil
}

// Sync forces a fsync of the active segment regardless of policy; used
// by an explicit checkpoint/shutdown path.
func (l *Log) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active.sync()
}

// Close syncs and closes the active segment.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.active.sync(); err != nil {
		return err
	}
	return l.active.close()
}

// NextTxOffset reports the tx offset that will be assigned to the next
// Append call.
func (l *Log) NextTxOffset() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextTx
}
