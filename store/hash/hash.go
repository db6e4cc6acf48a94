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

// Package hash provides the 32-byte content-addressing hash used by the
// blob store (spec §4.1) and by store/table to reference blob-routed
// fields. Hashes print as lowercase, unpadded base32 so they are safe
// path components on every platform the engine targets.
package hash

import (
	"encoding/base32"

	"github.com/zeebo/blake3"
)

// ByteLen is the width of a Hash in bytes.
const ByteLen = 32

// StringLen is the width of a Hash's base32 string encoding.
const StringLen = 52

var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// Hash is a 32-byte BLAKE3 digest over a blob's content.
type Hash [ByteLen]byte

var emptyHash = Hash{}

// Of returns the content hash of data.
func Of(data []byte) Hash {
	return Hash(blake3.Sum256(data))
}

// New wraps a raw digest, panicking if it is not ByteLen bytes.
func New(digest []byte) Hash {
	if len(digest) != ByteLen {
		panic("hash: digest must be 32 bytes")
	}
	var h Hash
	copy(h[:], digest)
	return h
}

// Parse decodes a base32 hash string, panicking on malformed input. Use
// MaybeParse when the input isn't already known-good.
func Parse(s string) Hash {
	h, ok := MaybeParse(s)
	if !ok {
		panic("hash: invalid hash string " + s)
	}
	return h
}

// MaybeParse decodes a base32 hash string, returning ok=false instead of
// panicking on malformed input.
func MaybeParse(s string) (Hash, bool) {
	if len(s) != StringLen {
		return emptyHash, false
	}
	data, err := encoding.DecodeString(upper(s))
	if err != nil || len(data) != ByteLen {
		return emptyHash, false
	}
	return New(data), true
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// String renders h as lowercase unpadded base32.
func (h Hash) String() string {
	s := encoding.EncodeToString(h[:])
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// IsEmpty reports whether h is the zero hash.
func (h Hash) IsEmpty() bool { return h == emptyHash }

// Less reports whether h sorts before other, byte-lexicographically.
func (h Hash) Less(other Hash) bool {
	return h.Compare(other) < 0
}

// Greater reports whether h sorts after other.
func (h Hash) Greater(other Hash) bool {
	return h.Compare(other) > 0
}

// Compare returns -1, 0 or 1 as h is less than, equal to, or greater than
// other, byte-lexicographically.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// HashSlice is a sortable slice of Hash.
type HashSlice []Hash

func (hs HashSlice) Len() int           { return len(hs) }
func (hs HashSlice) Less(i, j int) bool { return hs[i].Less(hs[j]) }
func (hs HashSlice) Swap(i, j int)      { hs[i], hs[j] = hs[j], hs[i] }

// Equals reports whether hs and other contain the same hashes in the same
// order.
func (hs HashSlice) Equals(other HashSlice) bool {
	if len(hs) != len(other) {
		return false
	}
	for i := range hs {
		if hs[i] != other[i] {
			return false
		}
	}
	return true
}

// HashSet is an unordered set of Hash.
type HashSet map[Hash]struct{}

func NewHashSet(hashes ...Hash) HashSet {
	hs := make(HashSet, len(hashes))
	for _, h := range hashes {
		hs[h] = struct{}{}
	}
	return hs
}

func (hs HashSet) Insert(h Hash) { hs[h] = struct{}{} }
func (hs HashSet) Has(h Hash) bool {
	_, ok := hs[h]
	return ok
}
func (hs HashSet) Remove(h Hash) { delete(hs, h) }
