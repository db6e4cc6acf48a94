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

// InsertCmd inserts one row, its field values given as plain strings in
// column order and encoded per the table's own catalog (spec §4.8).
type InsertCmd struct{}

var _ cli.Command = InsertCmd{}

func (InsertCmd) Name() string        { return "insert" }
func (InsertCmd) Description() string { return "insert one row into a table" }

func (InsertCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithVariableArgs("insert")
}

func (InsertCmd) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\nusage: %s <directory> <table> <value>...\n",
		commandStr, InsertCmd{}.Description(), commandStr)
	return nil
}

func (c InsertCmd) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	res, err := c.ArgParser().Parse(args)
	if err != nil {
		return cli.ExitUsageErr(out, commandStr, err)
	}
	if res.NArg() < 2 {
		fmt.Fprintf(out, "usage: %s\n", cli.FormatUsageLine(commandStr, "<directory>", "<table>", "<value>..."))
		return 1
	}

	dir, table := res.Arg(0), res.Arg(1)
	values := res.Args[2:]

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
	if len(values) != len(def.Columns.Fields) {
		fmt.Fprintf(out, "%s: table %q has %d columns, got %d values\n", commandStr, table, len(def.Columns.Fields), len(values))
		return 1
	}

	fields := make([][]byte, len(values))
	for i, v := range values {
		b, err := encodeField(def.Columns.Fields[i].Type.Primitive, v)
		if err != nil {
			fmt.Fprintf(out, "%s: column %q: %v\n", commandStr, def.Columns.Fields[i].Name, err)
			return 1
		}
		fields[i] = b
	}

	tx, err := ds.BeginMutTx()
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}
	tx.InsertRow(def.TableID, fields)

	if _, err := tx.CommitMutTx(ctx); err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	fmt.Fprintf(out, "inserted 1 row into %q\n", table)
	return 0
}
