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

package blob

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/store/hash"
	"github.com/riftdb/riftdb/store/rdberr"
)

func TestInsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	payload := bytes.Repeat([]byte("riftdb"), 1000)
	h, err := s.Insert(ctx, payload)
	require.NoError(t, err)

	got, err := s.Get(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestInsertSmallPayloadSkipsCompression(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	h, err := s.Insert(ctx, []byte("tiny"))
	require.NoError(t, err)

	s.mu.RLock()
	e := s.entries[h]
	s.mu.RUnlock()
	assert.False(t, e.compressed)
}

func TestInsertDedupesByContent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	payload := []byte("shared payload")
	h1, err := s.Insert(ctx, payload)
	require.NoError(t, err)
	h2, err := s.Insert(ctx, payload)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, int64(2), s.RefCount(h1))
	assert.Equal(t, 1, s.Len())
}

func TestDecrefThenReapRemoves(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	h, err := s.Insert(ctx, []byte("goes away"))
	require.NoError(t, err)

	require.NoError(t, s.Decref(h))
	assert.Equal(t, int64(0), s.RefCount(h))
	assert.True(t, s.Has(h), "unreaped zero-ref entry should still be present")

	dead := s.Reap()
	assert.Equal(t, []hash.Hash{h}, dead)
	assert.False(t, s.Has(h))

	_, err = s.Get(ctx, h)
	var nf *rdberr.NotFound
	assert.True(t, rdberr.As(err, &nf))
}

func TestIncrefDecrefCancelOutAcrossRollback(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	h, err := s.Insert(ctx, []byte("rolled back insert"))
	require.NoError(t, err)
	require.NoError(t, s.Decref(h)) // simulated rollback of the tx that inserted it

	assert.Equal(t, int64(0), s.RefCount(h))
	dead := s.Reap()
	assert.Len(t, dead, 1)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Get(context.Background(), hash.Hash{})
	var nf *rdberr.NotFound
	assert.True(t, rdberr.As(err, &nf))
}
