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
	"os"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/edsrzf/mmap-go"

	"github.com/riftdb/riftdb/store/rdberr"
)

// DefaultIndexStride is the default number of records between sparse
// index entries, absent an explicit Options.IndexStride (spec §4.7).
const DefaultIndexStride = 64

// indexEntryWidth is the on-disk width of one (txOffset, fileOffset) pair.
const indexEntryWidth = 16

// IndexEntry is one sparse checkpoint into a segment: record txOffset
// begins at byte fileOffset within the segment's .log file.
type IndexEntry struct {
	TxOffset   uint64
	FileOffset int64
}

// indexWriter appends sparse index entries to a segment's .idx file.
type indexWriter struct {
	file *os.File
}

func newIndexWriter(path string) (*indexWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, rdberr.NewIo("open index file", err)
	}
	return &indexWriter{file: f}, nil
}

func (w *indexWriter) append(txOffset uint64, fileOffset int64) error {
	var b [indexEntryWidth]byte
	binary.LittleEndian.PutUint64(b[0:8], txOffset)
	binary.LittleEndian.PutUint64(b[8:16], uint64(fileOffset))
	if _, err := w.file.Write(b[:]); err != nil {
		return rdberr.NewIo("append index entry", err)
	}
	return nil
}

func (w *indexWriter) sync() error {
	if err := w.file.Sync(); err != nil {
		return rdberr.NewIo("fsync index", err)
	}
	return nil
}

func (w *indexWriter) close() error { return w.file.Close() }

// indexCache holds decoded sparse indexes for segments that have already
// been fully written, keyed by segment path, so a reader that seeks
// across many segments doesn't remap and reparse the same .idx file on
// every lookup (mirrors Dolt NBS's globalIndexCache/manifestCache).
type indexCache struct {
	lru *lru.Cache[string, []IndexEntry]
}

func newIndexCache(size int) *indexCache {
	c, _ := lru.New[string, []IndexEntry](size)
	return &indexCache{lru: c}
}

// load reads and decodes the sparse index at path, serving from cache
// when possible. The .idx file is read via mmap-go rather than ordinary
// buffered reads, since it may be large and is only ever scanned once per
// cache miss.
func (c *indexCache) load(path string) ([]IndexEntry, error) {
	if entries, ok := c.lru.Get(path); ok {
		return entries, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, rdberr.NewIo("open index file for read", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, rdberr.NewIo("stat index file", err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, rdberr.NewIo("mmap index file", err)
	}
	defer m.Unmap()

	n := len(m) / indexEntryWidth
	entries := make([]IndexEntry, n)
	for i := 0; i < n; i++ {
		b := m[i*indexEntryWidth : (i+1)*indexEntryWidth]
		entries[i] = IndexEntry{
			TxOffset:   binary.LittleEndian.Uint64(b[0:8]),
			FileOffset: int64(binary.LittleEndian.Uint64(b[8:16])),
		}
	}

	c.lru.Add(path, entries)
	return entries, nil
}

// seekFloor returns the index of the last entry whose TxOffset <= target,
// or -1 if every entry is greater than target. The caller scans forward
// from that entry's FileOffset to reach target exactly.
func seekFloor(entries []IndexEntry, target uint64) int {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].TxOffset > target })
	return i - 1
}
