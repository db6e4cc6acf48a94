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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftdb/riftdb/store/commitlog"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDocumentedDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riftdb.toml")
	body := `
page_size = 32768
fsync_policy = "batched"
batched_fsync_count = 50
batched_fsync_millis = 5
trailing_data_policy = "refuse"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32768, cfg.PageSize)
	assert.Equal(t, int64(256*1024*1024), cfg.SegmentSize, "unset knobs keep their default")
	assert.Equal(t, commitlog.Refuse, cfg.RecoveryPolicyValue())

	policy := cfg.FsyncPolicyValue()
	assert.Equal(t, commitlog.Batched, policy.Mode)
	assert.Equal(t, 50, policy.BatchCount)
	assert.Equal(t, 5*time.Millisecond, policy.BatchInterval)
}

func TestDefaultFsyncPolicyIsPerCommit(t *testing.T) {
	cfg := Default()
	assert.Equal(t, commitlog.PerCommit, cfg.FsyncPolicyValue().Mode)
	assert.Equal(t, commitlog.Truncate, cfg.RecoveryPolicyValue())
}

func TestCommitLogOptionsProjectsSegmentAndStride(t *testing.T) {
	cfg := Default()
	cfg.SegmentSize = 1024
	cfg.IndexStride = 8

	opts := cfg.CommitLogOptions()
	assert.Equal(t, int64(1024), opts.MaxSegmentSize)
	assert.Equal(t, 8, opts.IndexStride)
}
