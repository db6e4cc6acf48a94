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
)

func TestAllocWriteReadRow(t *testing.T) {
	p := New(32)
	idx, ok := p.AllocRow()
	assert.True(t, ok)

	row := bytes.Repeat([]byte{0xAB}, 32)
	p.WriteRow(idx, row)
	assert.Equal(t, row, p.ReadRow(idx))
}

func TestFreeRowIsReused(t *testing.T) {
	p := New(16)
	a, _ := p.AllocRow()
	p.FreeRow(a)
	b, _ := p.AllocRow()
	assert.Equal(t, a, b)
}

func TestPageExhaustsRowCapacity(t *testing.T) {
	p := New(Size - headerWidth) // one row consumes the whole usable page
	_, ok := p.AllocRow()
	assert.True(t, ok)
	_, ok = p.AllocRow()
	assert.False(t, ok)
}

func TestGranuleChainRoundTrip(t *testing.T) {
	p := New(8)
	data := bytes.Repeat([]byte("granule-chain-payload-"), 10)

	first, ok := p.WriteChain(data)
	assert.True(t, ok)
	assert.Equal(t, data, p.ReadChain(first))
}

func TestEmptyChainRoundTrips(t *testing.T) {
	p := New(8)
	first, ok := p.WriteChain(nil)
	assert.True(t, ok)
	assert.Equal(t, noLink, first)
	assert.Empty(t, p.ReadChain(first))
}

func TestFreeChainReclaimsGranules(t *testing.T) {
	p := New(8)
	data := bytes.Repeat([]byte{0x42}, granulePayloadWidth*3)

	first, ok := p.WriteChain(data)
	assert.True(t, ok)
	before := p.granuleCount

	p.FreeChain(first)
	second, ok := p.WriteChain(data)
	assert.True(t, ok)
	assert.Equal(t, before, p.granuleCount, "reused granules should not grow the pool")
	assert.Equal(t, data, p.ReadChain(second))
}
