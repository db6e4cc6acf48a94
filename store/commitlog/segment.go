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
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/riftdb/riftdb/store/rdberr"
)

// magic identifies a riftdb commit-log segment file.
var magic = [4]byte{'R', 'D', 'B', 'L'}

const (
	segmentVersion    uint16 = 1
	logFormatVersion  uint16 = 1
	segmentHeaderSize        = 8 // magic(4) + version(2) + logFormatVersion(2)

	// recordHeaderSize is the CRC32(4) + length(4) framing prepended to
	// every record payload (spec §4.7).
	recordHeaderSize = 8

	// DefaultMaxSegmentSize is the approximate size at which the log rotates
	// to a fresh segment file, absent an explicit Options.MaxSegmentSize
	// (spec §6 "segment_size = 256 MiB").
	DefaultMaxSegmentSize = 256 * 1024 * 1024
)

var crcTable = crc32.MakeTable(crc32.IEEE)

// segmentName renders the on-disk filename for a segment whose first
// record has the given tx offset.
func segmentName(firstTxOffset uint64) string {
	return fmt.Sprintf("%016d.log", firstTxOffset)
}

func indexName(firstTxOffset uint64) string {
	return fmt.Sprintf("%016d.idx", firstTxOffset)
}

// segment is one open, append-only log file plus its in-progress sparse
// index.
type segment struct {
	file          *os.File
	path          string
	firstTxOffset uint64
	size          int64

	idx *indexWriter
}

func createSegment(dir string, firstTxOffset uint64) (*segment, error) {
	path := filepath.Join(dir, segmentName(firstTxOffset))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0644)
	if err != nil {
		return nil, rdberr.NewIo("create segment", err)
	}

	var hdr [segmentHeaderSize]byte
	copy(hdr[0:4], magic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], segmentVersion)
	binary.LittleEndian.PutUint16(hdr[6:8], logFormatVersion)
	if _, err := f.Write(hdr[:]); err != nil {
		f.Close()
		return nil, rdberr.NewIo("write segment header", err)
	}

	idxPath := filepath.Join(dir, indexName(firstTxOffset))
	idx, err := newIndexWriter(idxPath)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &segment{file: f, path: path, firstTxOffset: firstTxOffset, size: segmentHeaderSize, idx: idx}, nil
}

// openSegmentForAppend reopens an existing segment file (found during
// recovery) so the log can continue appending after its last valid
// record.
func openSegmentForAppend(dir string, firstTxOffset uint64, validSize int64) (*segment, error) {
	path := filepath.Join(dir, segmentName(firstTxOffset))
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, rdberr.NewIo("reopen segment", err)
	}
	if err := f.Truncate(validSize); err != nil {
		f.Close()
		return nil, rdberr.NewIo("truncate segment to last valid record", err)
	}
	if _, err := f.Seek(validSize, 0); err != nil {
		f.Close()
		return nil, rdberr.NewIo("seek segment", err)
	}

	idxPath := filepath.Join(dir, indexName(firstTxOffset))
	idx, err := newIndexWriter(idxPath)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &segment{file: f, path: path, firstTxOffset: firstTxOffset, size: validSize, idx: idx}, nil
}

// append frames payload with its CRC32 and length prefix, writes it, and
// records a sparse index entry every indexStride-th record. It does not
// fsync; callers apply the configured FsyncPolicy.
func (s *segment) append(txOffset uint64, payload []byte, recordOrdinal uint64, indexStride uint64) (offset int64, err error) {
	offset = s.size

	var hdr [recordHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], crc32.Checksum(payload, crcTable))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(payload)))

	if _, err := s.file.Write(hdr[:]); err != nil {
		return 0, rdberr.NewIo("write record header", err)
	}
	if _, err := s.file.Write(payload); err != nil {
		return 0, rdberr.NewIo("write record payload", err)
	}
	s.size += int64(len(hdr) + len(payload))

	if recordOrdinal%indexStride == 0 {
		if err := s.idx.append(txOffset, offset); err != nil {
			return 0, err
		}
	}
	return offset, nil
}

func (s *segment) sync() error {
	if err := s.file.Sync(); err != nil {
		return rdberr.NewIo("fsync segment", err)
	}
	return s.idx.sync()
}

func (s *segment) close() error {
	err1 := s.file.Close()
	err2 := s.idx.close()
	if err1 != nil {
		return errors.Wrap(err1, "commitlog: close segment")
	}
	return err2
}
