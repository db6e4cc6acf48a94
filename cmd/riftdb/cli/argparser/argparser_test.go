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

package argparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNoOptions(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test")

	res, err := ap.Parse([]string{})
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.Args)

	res, err = ap.Parse([]string{"arg1", "arg2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"arg1", "arg2"}, res.Args)
}

func TestParseUnknownOption(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test")
	_, err := ap.Parse([]string{"--unknown-flag"})
	assert.Equal(t, UnknownArgumentParam{"unknown-flag"}, err)
}

func TestParseHelp(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test")
	_, err := ap.Parse([]string{"--help"})
	assert.Equal(t, ErrHelp, err)

	_, err = ap.Parse([]string{"-h"})
	assert.Equal(t, ErrHelp, err)

	res, err := ap.Parse([]string{"help"})
	require.NoError(t, err)
	assert.Equal(t, []string{"help"}, res.Args)
}

func TestParseStringOption(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test").SupportsString("param", "p", "", "")

	res, err := ap.Parse([]string{"--param", "value", "arg1"})
	require.NoError(t, err)
	v, ok := res.GetValue("param")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Equal(t, []string{"arg1"}, res.Args)

	res, err = ap.Parse([]string{"-pvalue"})
	require.NoError(t, err)
	v, _ = res.GetValue("param")
	assert.Equal(t, "value", v)

	res, err = ap.Parse([]string{"--param=value"})
	require.NoError(t, err)
	v, _ = res.GetValue("param")
	assert.Equal(t, "value", v)

	res, err = ap.Parse([]string{"--param:value"})
	require.NoError(t, err)
	v, _ = res.GetValue("param")
	assert.Equal(t, "value", v)
}

func TestParseBundledShortFlags(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test").
		SupportsFlag("force", "f", "").
		SupportsString("message", "m", "", "")

	res, err := ap.Parse([]string{"-fm", "value"})
	require.NoError(t, err)
	assert.True(t, res.Contains("force"))
	v, _ := res.GetValue("message")
	assert.Equal(t, "value", v)
}

func TestParseMaxArgs(t *testing.T) {
	ap := NewArgParserWithMaxArgs("test", 1)
	_, err := ap.Parse([]string{"foo", "bar"})
	require.Error(t, err)
}

func TestParseDuplicateOption(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test").SupportsFlag("force", "f", "")
	_, err := ap.Parse([]string{"-f", "-f"})
	assert.Equal(t, DuplicateOption{"force"}, err)
}

func TestArgParseResultsHelpers(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test").
		SupportsString("string", "s", "", "").
		SupportsFlag("flag", "f", "").
		SupportsInt("integer", "n", "", "")

	res, err := ap.Parse([]string{"-s", "string", "--flag", "--integer", "1234", "a", "b", "c"})
	require.NoError(t, err)

	assert.True(t, res.ContainsAll("string", "flag", "integer"))
	assert.False(t, res.ContainsAny("string2", "flag2"))
	assert.Equal(t, "string", res.MustGetValue("string"))
	assert.Equal(t, "default", res.GetValueOrDefault("string2", "default"))

	n, ok := res.GetInt("integer")
	require.True(t, ok)
	assert.Equal(t, 1234, n)
	assert.Equal(t, 5678, res.GetIntOrDefault("integer2", 5678))

	assert.Equal(t, 3, res.NArg())
	assert.Equal(t, "a", res.Arg(0))
}

func TestDropValue(t *testing.T) {
	ap := NewArgParserWithVariableArgs("test").
		SupportsString("string", "", "", "").
		SupportsFlag("flag", "", "")

	res, err := ap.Parse([]string{"--string", "str", "--flag", "1234"})
	require.NoError(t, err)

	dropped := res.DropValue("string")
	_, ok := dropped.GetValue("string")
	assert.False(t, ok)
	_, ok = dropped.GetValue("flag")
	assert.True(t, ok)
	assert.Equal(t, 1, dropped.NArg())
	assert.Equal(t, "1234", dropped.Arg(0))
}
