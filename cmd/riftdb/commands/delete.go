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

// DeleteCmd deletes the row whose first column (the one create-table
// always declares the primary key on) matches a given value.
// store/table.Table.Scan has no defined row order (spec §4.3 doesn't
// promise one), so addressing a row by its scan position from one CLI
// invocation to the next is not reliable; matching on the primary key's
// own value is.
type DeleteCmd struct{}

var _ cli.Command = DeleteCmd{}

func (DeleteCmd) Name() string        { return "delete" }
func (DeleteCmd) Description() string { return "delete the row whose primary key matches a value" }

func (DeleteCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("delete", 3)
}

func (DeleteCmd) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\nusage: %s <directory> <table> <primary-key-value>\n", commandStr, DeleteCmd{}.Description(), commandStr)
	return nil
}

func (c DeleteCmd) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	res, err := c.ArgParser().Parse(args)
	if err != nil {
		return cli.ExitUsageErr(out, commandStr, err)
	}
	if res.NArg() != 3 {
		fmt.Fprintf(out, "usage: %s\n", cli.FormatUsageLine(commandStr, "<directory>", "<table>", "<primary-key-value>"))
		return 1
	}

	dir, table, keyArg := res.Arg(0), res.Arg(1), res.Arg(2)

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
	if len(def.Columns.Fields) == 0 {
		fmt.Fprintf(out, "%s: table %q has no columns\n", commandStr, table)
		return 1
	}
	keyBytes, err := encodeField(def.Columns.Fields[0].Type.Primitive, keyArg)
	if err != nil {
		fmt.Fprintf(out, "%s: primary key value: %v\n", commandStr, err)
		return 1
	}

	tx, err := ds.BeginMutTx()
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	ptrs, err := tx.Scan(def.TableID)
	if err != nil {
		tx.RollbackMutTx()
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	matched := false
	for _, ptr := range ptrs {
		row, err := tx.Get(ctx, def.TableID, ptr)
		if err != nil {
			continue
		}
		if len(row) > 0 && string(row[0]) == string(keyBytes) {
			tx.DeleteRow(def.TableID, ptr)
			matched = true
			break
		}
	}
	if !matched {
		tx.RollbackMutTx()
		fmt.Fprintf(out, "%s: %v\n", commandStr, rdberr.NewNotFound(rdberr.RowNotFound, keyArg))
		return 1
	}

	if _, err := tx.CommitMutTx(ctx); err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	fmt.Fprintf(out, "deleted 1 row from %q\n", table)
	return 0
}
