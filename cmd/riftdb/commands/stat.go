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
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/riftdb/riftdb/cmd/riftdb/cli"
	"github.com/riftdb/riftdb/cmd/riftdb/cli/argparser"
)

// StatCmd prints a one-shot summary of a database directory: every
// materialized table with its row count, plus the lifetime commit/
// rollback/bytes-appended counters this process's Open/Close pair
// gathered from the datastore's own Prometheus registry (spec §4.5
// metrics, supplemented per SPEC_FULL.md §10).
type StatCmd struct{}

var _ cli.Command = StatCmd{}

func (StatCmd) Name() string        { return "stat" }
func (StatCmd) Description() string { return "summarize a database directory" }

func (StatCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("stat", 1)
}

func (StatCmd) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\nusage: %s <directory>\n", commandStr, StatCmd{}.Description(), commandStr)
	return nil
}

func (c StatCmd) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	res, err := c.ArgParser().Parse(args)
	if err != nil {
		return cli.ExitUsageErr(out, commandStr, err)
	}
	if res.NArg() != 1 {
		fmt.Fprintf(out, "usage: %s\n", cli.FormatUsageLine(commandStr, "<directory>"))
		return 1
	}

	dir := res.Arg(0)
	ds, err := openStore(dir)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}
	defer ds.Close()

	defs := ds.ListTables()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "table\tcolumns\trows")
	for _, def := range defs {
		n, err := ds.RowCount(def.TableID)
		if err != nil {
			n = 0
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", def.Name, len(def.Columns.Fields), humanize.Comma(int64(n)))
	}
	tw.Flush()

	s := ds.Stats()
	fmt.Fprintf(out, "\ncommits: %s  rollbacks: %s  rows inserted: %s  rows deleted: %s  log bytes appended: %s\n",
		humanize.Comma(int64(s.Commits)), humanize.Comma(int64(s.Rollbacks)),
		humanize.Comma(int64(s.RowsInserted)), humanize.Comma(int64(s.RowsDeleted)),
		humanize.Bytes(s.BytesAppended))
	return 0
}
