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
	"context"
	"fmt"
	"io"

	"github.com/riftdb/riftdb/cmd/riftdb/cli"
	"github.com/riftdb/riftdb/cmd/riftdb/cli/argparser"
	"github.com/riftdb/riftdb/store/rdberr"
)

// DropTableCmd removes a user table and its catalog rows (spec §4.8).
type DropTableCmd struct{}

var _ cli.Command = DropTableCmd{}

func (DropTableCmd) Name() string        { return "drop-table" }
func (DropTableCmd) Description() string { return "drop a table" }

func (DropTableCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("drop-table", 2)
}

func (DropTableCmd) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\nusage: %s <directory> <table>\n", commandStr, DropTableCmd{}.Description(), commandStr)
	return nil
}

func (c DropTableCmd) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	res, err := c.ArgParser().Parse(args)
	if err != nil {
		return cli.ExitUsageErr(out, commandStr, err)
	}
	if res.NArg() != 2 {
		fmt.Fprintf(out, "usage: %s\n", cli.FormatUsageLine(commandStr, "<directory>", "<table>"))
		return 1
	}

	dir, table := res.Arg(0), res.Arg(1)

	ds, err := openStore(dir)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}
	defer ds.Close()

	def, ok := ds.TableByName(table)
	if !ok {
		fmt.Fprintf(out, "%s: %v\n", commandStr, rdberr.NewNotFound(rdberr.TableNotFound, table))
		return 1
	}

	tx, err := ds.BeginMutTx()
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}
	if err := tx.DropTable(def.TableID); err != nil {
		tx.RollbackMutTx()
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}
	if _, err := tx.CommitMutTx(ctx); err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	fmt.Fprintf(out, "dropped table %q\n", table)
	return 0
}
