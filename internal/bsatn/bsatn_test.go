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

package bsatn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripScalarFields(t *testing.T) {
	w := NewWriter()
	w.Tag(7)
	w.Bool(true)
	w.Uint32(0xDEADBEEF)
	w.Int64(-12345)
	w.Float64(math.Pi)
	w.String("riftdb")
	w.VarBytes([]byte{1, 2, 3})

	r := NewReader(w.Bytes())
	tag, err := r.Tag()
	require.NoError(t, err)
	assert.Equal(t, byte(7), tag)

	b, err := r.Bool()
	require.NoError(t, err)
	assert.True(t, b)

	u32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	i64, err := r.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), i64)

	f64, err := r.Float64()
	require.NoError(t, err)
	assert.Equal(t, math.Pi, f64)

	s, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "riftdb", s)

	bs, err := r.VarBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, bs)

	assert.Equal(t, 0, r.Remaining())
}

func TestReaderErrorsOnTruncatedPayload(t *testing.T) {
	w := NewWriter()
	w.String("a longer string than the truncation leaves")
	truncated := w.Bytes()[:4]

	r := NewReader(truncated)
	_, err := r.String()
	assert.Error(t, err)
}

func TestLittleEndianByteOrder(t *testing.T) {
	w := NewWriter()
	w.Uint32(1)
	assert.Equal(t, []byte{1, 0, 0, 0}, w.Bytes())
}
