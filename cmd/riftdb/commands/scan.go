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
	"strings"
	"text/tabwriter"

	"github.com/riftdb/riftdb/cmd/riftdb/cli"
	"github.com/riftdb/riftdb/cmd/riftdb/cli/argparser"
	"github.com/riftdb/riftdb/store/rdberr"
)

// ScanCmd prints every visible row in a table, one per line, tab-aligned
// under a header of column names. store/table.Table.Scan makes no row
// ordering promise (spec §4.3), so the printed order may differ between
// two scans of the same unchanged table; DeleteCmd addresses a row by its
// primary-key value rather than by position in this output.
type ScanCmd struct{}

var _ cli.Command = ScanCmd{}

func (ScanCmd) Name() string        { return "scan" }
func (ScanCmd) Description() string { return "print every row of a table" }

func (ScanCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("scan", 2)
}

func (ScanCmd) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\nusage: %s <directory> <table>\n", commandStr, ScanCmd{}.Description(), commandStr)
	return nil
}

func (c ScanCmd) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
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

	tx := ds.BeginTx()
	ptrs, err := tx.Scan(def.TableID)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	names := make([]string, len(def.Columns.Fields))
	for i, f := range def.Columns.Fields {
		names[i] = f.Name
	}

	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	for _, ptr := range ptrs {
		row, err := tx.Get(ctx, def.TableID, ptr)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", commandStr, err)
			return 1
		}
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = decodeField(def.Columns.Fields[i].Type.Primitive, v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	fmt.Fprintf(out, "%d row(s)\n", len(ptrs))
	return 0
}
