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

package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/store/page"
	"github.com/riftdb/riftdb/store/pool"
	"github.com/riftdb/riftdb/store/rdberr"
	"github.com/riftdb/riftdb/store/val"
)

var shared = pool.NewBuffPool()

func int32Key(n int32) val.Tuple {
	desc := val.NewTupleDescriptor(val.Type{Enc: val.Int32Enc})
	tb := val.NewTupleBuilder(desc)
	tb.PutInt32(0, n)
	return tb.Tuple(shared)
}

func int32Desc() val.TupleDescriptor {
	return val.NewTupleDescriptor(val.Type{Enc: val.Int32Enc})
}

func ptr(i uint32) page.Pointer { return page.Pointer{PageIndex: 0, PageOffset: i} }

func TestUniqueIndexRejectsDuplicateKey(t *testing.T) {
	ix := New("pk", int32Desc(), true)
	require.NoError(t, ix.Insert(int32Key(1), ptr(1)))

	err := ix.Insert(int32Key(1), ptr(2))
	var uv *rdberr.UniqueViolation
	assert.True(t, rdberr.As(err, &uv))
}

func TestNonUniqueIndexAllowsDuplicateKey(t *testing.T) {
	ix := New("idx", int32Desc(), false)
	require.NoError(t, ix.Insert(int32Key(1), ptr(1)))
	require.NoError(t, ix.Insert(int32Key(1), ptr(2)))

	got := ix.SeekEq(int32Key(1))
	assert.Len(t, got, 2)
}

func TestDeleteRemovesExactEntry(t *testing.T) {
	ix := New("idx", int32Desc(), false)
	require.NoError(t, ix.Insert(int32Key(1), ptr(1)))
	require.NoError(t, ix.Insert(int32Key(1), ptr(2)))

	assert.True(t, ix.Delete(int32Key(1), ptr(1)))
	assert.False(t, ix.Delete(int32Key(1), ptr(1)))
	assert.Equal(t, []page.Pointer{ptr(2)}, ix.SeekEq(int32Key(1)))
}

func TestRangeOrdersByKeyValue(t *testing.T) {
	ix := New("idx", int32Desc(), false)
	for _, n := range []int32{5, -3, 0, 9, 1} {
		require.NoError(t, ix.Insert(int32Key(n), ptr(uint32(n+100))))
	}

	got := ix.Range(Bound{}, Bound{})
	want := []page.Pointer{ptr(97), ptr(100), ptr(101), ptr(105), ptr(109)}
	assert.Equal(t, want, got)
}

func TestRangeExclusiveStartBound(t *testing.T) {
	ix := New("idx", int32Desc(), false)
	for _, n := range []int32{1, 2, 3} {
		require.NoError(t, ix.Insert(int32Key(n), ptr(uint32(n))))
	}

	got := ix.Range(Bound{Key: int32Key(1), Inclusive: false}, Bound{})
	assert.Equal(t, []page.Pointer{ptr(2), ptr(3)}, got)
}

func TestCloneIsIndependentOfFurtherMutation(t *testing.T) {
	ix := New("idx", int32Desc(), false)
	require.NoError(t, ix.Insert(int32Key(1), ptr(1)))

	snap := ix.Clone()
	require.NoError(t, ix.Insert(int32Key(2), ptr(2)))

	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 2, ix.Len())
}

func TestDirectIndexUniqueInsertAndSeek(t *testing.T) {
	dx := NewDirect("direct_pk", true)
	require.NoError(t, dx.Insert(3, ptr(3)))

	err := dx.Insert(3, ptr(4))
	var uv *rdberr.UniqueViolation
	assert.True(t, rdberr.As(err, &uv))
	assert.Equal(t, []page.Pointer{ptr(3)}, dx.SeekEq(3))
}

func TestDirectIndexNonUniqueAndDelete(t *testing.T) {
	dx := NewDirect("direct_idx", false)
	require.NoError(t, dx.Insert(3, ptr(3)))
	require.NoError(t, dx.Insert(3, ptr(4)))

	assert.Len(t, dx.SeekEq(3), 2)
	assert.True(t, dx.Delete(3, ptr(3)))
	assert.Equal(t, []page.Pointer{ptr(4)}, dx.SeekEq(3))
}
