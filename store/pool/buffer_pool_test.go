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

package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffPoolGetPut(t *testing.T) {
	bp := NewBuffPool()

	b := bp.Get(37)
	assert.Equal(t, 37, len(b))
	for _, c := range b {
		assert.Equal(t, byte(0), c)
	}
	copy(b, "hello, world, this is 37 characters!"[:37])
	bp.Put(b)

	b2 := bp.Get(10)
	assert.Equal(t, 10, len(b2))
}

func TestBuffPoolLargeAlloc(t *testing.T) {
	bp := NewBuffPool()
	b := bp.Get(1 << 20)
	assert.Equal(t, 1<<20, len(b))
}
