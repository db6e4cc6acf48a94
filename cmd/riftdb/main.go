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

// Command riftdb is the operator CLI driving the storage engine's native
// row and table operations directly (spec §1's non-goals exclude a SQL
// planner or a wire protocol; this binary only ever talks to one database
// directory at a time, in-process, the way `dolt`'s own low-level plumbing
// commands reach straight into the store).
package main

import (
	"context"
	"os"

	"github.com/riftdb/riftdb/cmd/riftdb/cli"
	"github.com/riftdb/riftdb/cmd/riftdb/commands"
)

func main() {
	root := cli.NewSubCommandHandler("riftdb", "drive a riftdb database directly", []cli.Command{
		commands.InitCmd{},
		commands.CreateTableCmd{},
		commands.InsertCmd{},
		commands.ScanCmd{},
		commands.DeleteCmd{},
		commands.DropTableCmd{},
		commands.StatCmd{},
	})

	os.Exit(cli.Run(context.Background(), root, os.Args[1:], os.Stdout))
}
