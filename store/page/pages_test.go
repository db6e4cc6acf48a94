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

package page

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagesAllocGrowsPages(t *testing.T) {
	ps := NewPages(Size - headerWidth) // one row per page forces growth every insert
	p1 := ps.Alloc()
	p2 := ps.Alloc()
	assert.NotEqual(t, p1.PageIndex, p2.PageIndex)
	assert.Equal(t, 2, ps.PageCount())
}

func TestPagesWriteReadFree(t *testing.T) {
	ps := NewPages(16)
	ptr := ps.Alloc()

	row := bytes.Repeat([]byte{0x7}, 16)
	require.NoError(t, ps.Write(ptr, row))

	got, err := ps.Read(ptr)
	require.NoError(t, err)
	assert.Equal(t, row, got)

	require.NoError(t, ps.Free(ptr))
}

func TestPagesChainRoundTrip(t *testing.T) {
	ps := NewPages(8)
	ptr := ps.Alloc()

	data := []byte("a variable length field value")
	first, ok, err := ps.WriteChain(ptr, data)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := ps.ReadChain(ptr, first)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, ps.FreeChain(ptr, first))
}

func TestHash64StableAcrossEqualContent(t *testing.T) {
	a := []byte("same row bytes")
	b := append([]byte(nil), a...)
	assert.Equal(t, Hash64(a), Hash64(b))
}
