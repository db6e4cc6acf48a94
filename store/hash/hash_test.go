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

package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func zeros(n int) string { return strings.Repeat("0", n) }

func TestParseError(t *testing.T) {
	assert := assert.New(t)

	assertParseError := func(s string) {
		assert.Panics(func() { Parse(s) })
	}

	assertParseError("foo")
	assertParseError(zeros(StringLen - 1)) // too few digits
	assertParseError(zeros(StringLen + 1)) // too many digits
	assertParseError(zeros(StringLen-1) + "!")

	r := Parse(zeros(StringLen))
	assert.NotNil(r)
}

func TestMaybeParse(t *testing.T) {
	assert := assert.New(t)

	parse := func(s string, success bool) {
		r, ok := MaybeParse(s)
		assert.Equal(success, ok, "expected success=%t for %s", success, s)
		if ok {
			assert.Equal(s, r.String())
		} else {
			assert.Equal(emptyHash, r)
		}
	}

	parse(zeros(StringLen), true)
	parse(zeros(StringLen-2)+"10", true)
	parse("", false)
	parse("adsfasdf", false)
}

func TestEquals(t *testing.T) {
	assert := assert.New(t)

	r0 := Parse(zeros(StringLen))
	r01 := Parse(zeros(StringLen))
	r1 := Parse(zeros(StringLen-2) + "10")

	assert.Equal(r0, r01)
	assert.NotEqual(r0, r1)
}

func TestOf(t *testing.T) {
	r := Of([]byte("abc"))
	assert.Equal(t, r, Of([]byte("abc")))
	assert.NotEqual(t, r, Of([]byte("abcd")))
	assert.Equal(t, StringLen, len(r.String()))
}

func TestIsEmpty(t *testing.T) {
	var r1 Hash
	assert.True(t, r1.IsEmpty())

	r2 := Parse(zeros(StringLen))
	assert.True(t, r2.IsEmpty())

	r3 := Of([]byte("abc"))
	assert.False(t, r3.IsEmpty())
}

func TestLessAndCompare(t *testing.T) {
	assert := assert.New(t)

	r1 := Parse(zeros(StringLen-2) + "10")
	r2 := Parse(zeros(StringLen-2) + "20")

	assert.False(r1.Less(r1))
	assert.True(r1.Less(r2))
	assert.False(r2.Less(r1))

	assert.True(r2.Greater(r1))
	assert.False(r1.Greater(r2))

	assert.Equal(0, r1.Compare(r1))
	assert.True(r1.Compare(r2) < 0)
	assert.True(r2.Compare(r1) > 0)
}

func TestHashSliceEqualsIsOrderSensitive(t *testing.T) {
	hs := HashSlice{Of([]byte("c")), Of([]byte("a")), Of([]byte("b"))}
	other := HashSlice{hs[1], hs[2], hs[0]}
	assert.False(t, hs.Equals(other))
}

func TestHashSet(t *testing.T) {
	a, b := Of([]byte("a")), Of([]byte("b"))
	hs := NewHashSet(a)
	assert.True(t, hs.Has(a))
	assert.False(t, hs.Has(b))
	hs.Insert(b)
	assert.True(t, hs.Has(b))
	hs.Remove(a)
	assert.False(t, hs.Has(a))
}
