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

package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/cmd/riftdb/cli"
)

func exec(t *testing.T, name string, c cli.Command, args []string) (string, int) {
	t.Helper()
	var buf bytes.Buffer
	code := c.Exec(context.Background(), name, args, &buf)
	return buf.String(), code
}

func TestCreateInsertScanDropRoundTrip(t *testing.T) {
	dir := t.TempDir()

	out, code := exec(t, "init", InitCmd{}, []string{dir})
	require.Equal(t, 0, code, out)

	out, code = exec(t, "create-table", CreateTableCmd{}, []string{dir, "widgets", "id:i32", "name:string"})
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "created table")

	out, code = exec(t, "insert", InsertCmd{}, []string{dir, "widgets", "1", "bolt"})
	require.Equal(t, 0, code, out)

	out, code = exec(t, "insert", InsertCmd{}, []string{dir, "widgets", "2", "nut"})
	require.Equal(t, 0, code, out)

	out, code = exec(t, "scan", ScanCmd{}, []string{dir, "widgets"})
	require.Equal(t, 0, code, out)
	assert.True(t, strings.Contains(out, "bolt"))
	assert.True(t, strings.Contains(out, "nut"))
	assert.Contains(t, out, "2 row(s)")

	out, code = exec(t, "delete", DeleteCmd{}, []string{dir, "widgets", "1"})
	require.Equal(t, 0, code, out)

	out, code = exec(t, "scan", ScanCmd{}, []string{dir, "widgets"})
	require.Equal(t, 0, code, out)
	assert.False(t, strings.Contains(out, "bolt"))
	assert.True(t, strings.Contains(out, "nut"))

	out, code = exec(t, "stat", StatCmd{}, []string{dir})
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "widgets")

	out, code = exec(t, "drop-table", DropTableCmd{}, []string{dir, "widgets"})
	require.Equal(t, 0, code, out)

	out, code = exec(t, "scan", ScanCmd{}, []string{dir, "widgets"})
	assert.NotEqual(t, 0, code)
	assert.Contains(t, out, "not found")
}

func TestInsertRejectsWrongColumnCount(t *testing.T) {
	dir := t.TempDir()

	_, code := exec(t, "init", InitCmd{}, []string{dir})
	require.Equal(t, 0, code)
	_, code = exec(t, "create-table", CreateTableCmd{}, []string{dir, "widgets", "id:i32"})
	require.Equal(t, 0, code)

	out, code := exec(t, "insert", InsertCmd{}, []string{dir, "widgets", "1", "extra"})
	assert.NotEqual(t, 0, code)
	assert.Contains(t, out, "columns")
}
