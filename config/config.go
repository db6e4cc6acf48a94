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

// Package config loads the engine's on-disk tunables (spec §6) from a
// TOML file, the same format Dolt uses for its own config files.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/riftdb/riftdb/store/commitlog"
)

// FsyncMode names the three durability modes spec §6 allows for
// fsync_policy, as they appear in a TOML config file.
type FsyncMode string

const (
	FsyncPerCommit FsyncMode = "per-commit"
	FsyncBatched   FsyncMode = "batched"
	FsyncNever     FsyncMode = "never"
)

// TrailingDataPolicy names the two recovery behaviors spec §6 allows for
// trailing_data_policy.
type TrailingDataPolicy string

const (
	TrailingTruncate TrailingDataPolicy = "truncate"
	TrailingRefuse   TrailingDataPolicy = "refuse"
)

// LogFormat selects the ambient structured-logging encoder.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the full set of knobs spec §6 documents, plus the ambient
// logging knobs every Dolt-shaped binary carries alongside its domain
// config.
type Config struct {
	PageSize            int    `toml:"page_size"`
	BlobInlineThreshold int    `toml:"blob_inline_threshold"`
	SegmentSize         int64  `toml:"segment_size"`
	IndexStride         int    `toml:"index_stride"`
	FsyncPolicy         string `toml:"fsync_policy"`
	BatchedFsyncCount   int    `toml:"batched_fsync_count"`
	BatchedFsyncMillis  int    `toml:"batched_fsync_millis"`

	UniqueCheckOnCommit bool   `toml:"unique_check_on_commit"`
	TrailingDataPolicy  string `toml:"trailing_data_policy"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Default returns the documented defaults from spec §6.
func Default() Config {
	return Config{
		PageSize:            64 * 1024,
		BlobInlineThreshold: 4 * 1024,
		SegmentSize:         256 * 1024 * 1024,
		IndexStride:         64,
		FsyncPolicy:         string(FsyncPerCommit),
		BatchedFsyncCount:   100,
		BatchedFsyncMillis:  10,
		UniqueCheckOnCommit: true,
		TrailingDataPolicy:  string(TrailingTruncate),
		LogLevel:            "info",
		LogFormat:           string(LogFormatText),
	}
}

// Load reads and parses a TOML config file at path, filling any field the
// file omits with its documented default.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CommitLogOptions projects the config's commit-log knobs onto
// commitlog.Options.
func (c Config) CommitLogOptions() commitlog.Options {
	return commitlog.Options{
		MaxSegmentSize: c.SegmentSize,
		IndexStride:    c.IndexStride,
	}
}

// FsyncPolicyValue builds the commitlog.FsyncPolicy this config describes.
func (c Config) FsyncPolicyValue() commitlog.FsyncPolicy {
	switch FsyncMode(c.FsyncPolicy) {
	case FsyncBatched:
		return commitlog.BatchedPolicy(c.BatchedFsyncCount, time.Duration(c.BatchedFsyncMillis)*time.Millisecond)
	case FsyncNever:
		return commitlog.NeverPolicy()
	default:
		return commitlog.PerCommitPolicy()
	}
}

// RecoveryPolicyValue builds the commitlog.RecoveryPolicy this config
// describes.
func (c Config) RecoveryPolicyValue() commitlog.RecoveryPolicy {
	if TrailingDataPolicy(c.TrailingDataPolicy) == TrailingRefuse {
		return commitlog.Refuse
	}
	return commitlog.Truncate
}
