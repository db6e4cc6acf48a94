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
	"os"

	"github.com/riftdb/riftdb/cmd/riftdb/cli"
	"github.com/riftdb/riftdb/cmd/riftdb/cli/argparser"
)

// InitCmd creates a new, empty database directory: it opens (and
// immediately closes) a Datastore rooted there, which is enough to write
// out the directory's LOCK file and an empty commit log segment.
type InitCmd struct{}

var _ cli.Command = InitCmd{}

func (InitCmd) Name() string        { return "init" }
func (InitCmd) Description() string { return "create a new, empty database directory" }

func (InitCmd) ArgParser() *argparser.ArgParser {
	return argparser.NewArgParserWithMaxArgs("init", 1)
}

func (InitCmd) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\nusage: %s <directory>\n", commandStr, InitCmd{}.Description(), commandStr)
	return nil
}

func (c InitCmd) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	ap := c.ArgParser()
	res, err := ap.Parse(args)
	if err != nil {
		return cli.ExitUsageErr(out, commandStr, err)
	}
	if res.NArg() != 1 {
		fmt.Fprintf(out, "usage: %s\n", cli.FormatUsageLine(commandStr, "<directory>"))
		return 1
	}

	dir := res.Arg(0)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	ds, err := openStore(dir)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}
	if err := ds.Close(); err != nil {
		fmt.Fprintf(out, "%s: %v\n", commandStr, err)
		return 1
	}

	fmt.Fprintf(out, "initialized database at %s\n", dir)
	return 0
}
