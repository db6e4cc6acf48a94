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

package table

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/store/blob"
	"github.com/riftdb/riftdb/store/btree"
	"github.com/riftdb/riftdb/store/rdberr"
	"github.com/riftdb/riftdb/store/schema"
	"github.com/riftdb/riftdb/store/val"
)

func i32(n int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(n))
	return b
}

// usersDef is a small two-column schema (id int32 primary key, name
// string) used across these tests, with a unique b-tree index over id.
func usersDef() schema.TableDef {
	return schema.TableDef{
		TableID: 64,
		Name:    "users",
		Columns: schema.ProductType{Fields: []schema.Field{
			{Name: "id", Type: schema.AlgebraicType{Kind: schema.PrimitiveKind, Primitive: val.Int32Enc}},
			{Name: "name", Type: schema.AlgebraicType{Kind: schema.StringKind}},
		}},
		Constraints: []schema.ConstraintDef{
			{Kind: schema.PrimaryKeyConstraint, Columns: []int{0}},
		},
		Indexes: []schema.IndexDef{
			{Name: "pk", Columns: []int{0}, Unique: true, Algo: schema.BTreeAlgorithm},
		},
	}
}

func newUsersTable() *Table {
	return New(usersDef(), blob.NewStore())
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	tbl := newUsersTable()

	ptr, err := tbl.Insert(ctx, [][]byte{i32(1), []byte("alice")})
	require.NoError(t, err)

	got, err := tbl.Get(ctx, ptr)
	require.NoError(t, err)
	assert.Equal(t, i32(1), got[0])
	assert.Equal(t, []byte("alice"), got[1])
}

func TestInsertDedupesIdenticalRow(t *testing.T) {
	ctx := context.Background()
	tbl := newUsersTable()

	p1, err := tbl.Insert(ctx, [][]byte{i32(1), []byte("alice")})
	require.NoError(t, err)
	p2, err := tbl.Insert(ctx, [][]byte{i32(1), []byte("alice")})
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Len(t, tbl.Scan(), 1)
}

func TestInsertRejectsDuplicateKeyAndRollsBack(t *testing.T) {
	ctx := context.Background()
	tbl := newUsersTable()

	_, err := tbl.Insert(ctx, [][]byte{i32(1), []byte("alice")})
	require.NoError(t, err)

	_, err = tbl.Insert(ctx, [][]byte{i32(1), []byte("bob")})
	var uv *rdberr.UniqueViolation
	assert.True(t, rdberr.As(err, &uv))

	// the rejected row must not have left a page or pointer-map trace
	// behind.
	assert.Len(t, tbl.Scan(), 1)
	assert.Equal(t, 1, tbl.pages.PageCount())
}

func TestDeleteFreesRowAndIndexEntries(t *testing.T) {
	ctx := context.Background()
	tbl := newUsersTable()

	ptr, err := tbl.Insert(ctx, [][]byte{i32(1), []byte("alice")})
	require.NoError(t, err)

	require.NoError(t, tbl.Delete(ctx, ptr))
	assert.False(t, tbl.Contains(ptr))
	assert.Empty(t, tbl.Scan())

	// the id is free to reuse once the old row is gone.
	_, err = tbl.Insert(ctx, [][]byte{i32(1), []byte("carol")})
	require.NoError(t, err)
}

func TestNullFieldRoundTrips(t *testing.T) {
	ctx := context.Background()
	tbl := newUsersTable()

	ptr, err := tbl.Insert(ctx, [][]byte{i32(2), nil})
	require.NoError(t, err)

	got, err := tbl.Get(ctx, ptr)
	require.NoError(t, err)
	assert.Nil(t, got[1])
}

func TestLargeFieldRoutesThroughBlobStore(t *testing.T) {
	ctx := context.Background()
	tbl := newUsersTable()

	big := []byte(strings.Repeat("x", blobInlineThreshold+1024))
	ptr, err := tbl.Insert(ctx, [][]byte{i32(3), big})
	require.NoError(t, err)

	got, err := tbl.Get(ctx, ptr)
	require.NoError(t, err)
	assert.Equal(t, big, got[1])
	assert.Equal(t, 1, tbl.blobs.Len())

	require.NoError(t, tbl.Delete(ctx, ptr))
	assert.Equal(t, int64(0), tbl.blobs.RefCount(tbl.blobs.Reap()[0]))
}

func TestIndexScanReturnsPointersInKeyOrder(t *testing.T) {
	ctx := context.Background()
	tbl := newUsersTable()

	for _, n := range []int32{5, 1, 3} {
		_, err := tbl.Insert(ctx, [][]byte{i32(n), []byte("u")})
		require.NoError(t, err)
	}

	ptrs, err := tbl.IndexScan("pk", btree.Bound{}, btree.Bound{})
	require.NoError(t, err)
	require.Len(t, ptrs, 3)

	var ids []int32
	for _, p := range ptrs {
		row, err := tbl.Get(ctx, p)
		require.NoError(t, err)
		ids = append(ids, int32(binary.LittleEndian.Uint32(row[0])))
	}
	assert.Equal(t, []int32{1, 3, 5}, ids)
}

func TestIndexScanUnknownIndexReturnsNotFound(t *testing.T) {
	tbl := newUsersTable()
	_, err := tbl.IndexScan("nope", btree.Bound{}, btree.Bound{})
	var nf *rdberr.NotFound
	assert.True(t, rdberr.As(err, &nf))
}
