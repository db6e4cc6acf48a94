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

// Package commands implements every leaf cmd/riftdb subcommand: each one
// opens the datastore at a given directory, drives one or two transactions
// against it with store/datastore's public API, and closes it again. None
// of these commands hold a datastore open across invocations — cmd/riftdb
// is a one-shot operator tool, not a server (spec §1's non-goals exclude a
// wire protocol for this engine).
package commands

import (
	"path/filepath"

	"github.com/riftdb/riftdb/config"
	"github.com/riftdb/riftdb/store/datastore"
)

// openStore loads dir's config.toml (if present) and opens the datastore
// rooted at dir, the shape every leaf command needs before it can do
// anything.
func openStore(dir string) (*datastore.Datastore, error) {
	cfg, err := config.Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		return nil, err
	}
	return datastore.Open(dir, cfg)
}
