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
	"github.com/riftdb/riftdb/store/schema"
)

// CreateTableCmd declares a new user table with a single-column primary
// key (the first column given) backed by a unique b-tree index named
// "pk" (spec §3, §4.2). Declaring secondary or non-unique indexes from
// the command line is out of scope; store/datastore itself has no
// standalone CreateIndex operation to drive (DESIGN.md's scope note).
type CreateTableCmd struct{}

var _ cli.Command = CreateTableCmd{}

func (CreateTableCmd) Name() string { return "create-table" }
func (CreateTableCmd) Description() string {
	return "create a table with a primary key on its first column"
}

func (CreateTableCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithVariableArgs("create-table")
}

func (CreateTableCmd) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\nusage: %s <directory> <table> <column:type>...\n",
		commandStr, CreateTableCmd{}.Description(), commandStr)
	return nil
}

func (c CreateTableCmd) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	res, err := c.ArgParser().Parse(args)
	if err != nil {
		return cli.ExitUsageErr(out, commandStr, err)
	}
	if res.NArg() < 3 {
		fmt.Fprintf(out, "usage: %s\n", cli.FormatUsageLine(commandStr, "<directory>", "<table>", "<column:type>..."))
		return 1
	}

	dir, table := res.Arg(0), res.Arg(1)
	columns := res.Args[2:]

	fields := make([]schema.Field, len(columns))
	for i, spec := range columns {
		name, enc, err := parseColumnSpec(spec)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", commandStr, err)
			return 1
		}
		fields[i] = schema.Field{Name: name, Type: schema.AlgebraicType{Kind: schema.PrimitiveKind, Primitive: enc}}
	}

	ds, err := openStore(dir)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}
	defer ds.Close()

	tx, err := ds.BeginMutTx()
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	def := tx.CreateTable(table, schema.ProductType{Fields: fields},
		[]schema.ConstraintDef{{Kind: schema.PrimaryKeyConstraint, Columns: []int{0}}},
		[]schema.IndexDef{{Name: "pk", Columns: []int{0}, Unique: true, Algo: schema.BTreeAlgorithm}},
		nil)

	if _, err := tx.CommitMutTx(ctx); err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	fmt.Fprintf(out, "created table %q (id %d)\n", table, def.TableID)
	return 0
}
