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

// Package cli provides the dispatch shape cmd/riftdb runs on: a tree of
// named Commands, each owning its own ArgParser, with a SubCommandHandler
// gluing a group of subcommands under one name (mirroring Dolt's own
// cmd/dolt/cli package, minus its repo-environment plumbing — this engine
// has no working-directory-relative checkout to resolve, just a database
// directory each leaf command is handed explicitly).
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/riftdb/riftdb/cmd/riftdb/cli/argparser"
)

// Command is one node in the cmd/riftdb command tree, leaf or
// SubCommandHandler alike.
type Command interface {
	Name() string
	Description() string
	ArgParser() *argparser.ArgParser
	CreateMarkdown(wr io.Writer, commandStr string) error
	Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int
}

// SubCommandHandler dispatches a command line's first token to one of a
// fixed set of child Commands.
type SubCommandHandler struct {
	name        string
	description string
	children    []Command
}

var _ Command = (*SubCommandHandler)(nil)

// NewSubCommandHandler groups children under name.
func NewSubCommandHandler(name, description string, children []Command) *SubCommandHandler {
	return &SubCommandHandler{name: name, description: description, children: children}
}

func (h *SubCommandHandler) Name() string                    { return h.name }
func (h *SubCommandHandler) Description() string             { return h.description }
func (h *SubCommandHandler) ArgParser() *argparser.ArgParser { return nil }

func (h *SubCommandHandler) CreateMarkdown(wr io.Writer, commandStr string) error {
	fmt.Fprintf(wr, "## %s\n\n%s\n\n", commandStr, h.description)
	for _, c := range h.children {
		fmt.Fprintf(wr, "- `%s %s` — %s\n", commandStr, c.Name(), c.Description())
	}
	return nil
}

// Exec resolves args[0] against h's children and recurses into the match,
// or prints usage and returns non-zero if there is no match or args is
// empty.
func (h *SubCommandHandler) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	if len(args) == 0 {
		h.printUsage(out, commandStr)
		return 1
	}

	name := args[0]
	for _, c := range h.children {
		if c.Name() == name {
			childCmdStr := commandStr + " " + name
			rest := args[1:]
			if hasHelpFlag(rest) {
				fmt.Fprintf(out, "%s: %s\n", childCmdStr, c.Description())
				if ap := c.ArgParser(); ap != nil {
					ap.PrintUsage(out)
				}
				return 0
			}
			return c.Exec(ctx, childCmdStr, rest, out)
		}
	}

	fmt.Fprintf(out, "%s: unknown command %q\n", commandStr, name)
	h.printUsage(out, commandStr)
	return 1
}

func (h *SubCommandHandler) printUsage(out io.Writer, commandStr string) {
	fmt.Fprintf(out, "usage: %s <command> [<args>]\n\navailable commands:\n", commandStr)
	for _, c := range h.children {
		fmt.Fprintf(out, "  %-16s %s\n", c.Name(), c.Description())
	}
}

// hasHelpFlag reports whether args contains a literal -h or --help token.
func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}

// Run is the top-level entry point main() calls: it dispatches os.Args[1:]
// against root and returns the process exit code.
func Run(ctx context.Context, root Command, args []string, out io.Writer) int {
	appName := root.Name()
	if hasHelpFlag(args) {
		fmt.Fprintf(out, "%s: %s\n", appName, root.Description())
		return 0
	}
	return root.Exec(ctx, appName, args, out)
}

// FormatUsageLine renders a one-line "cmdStr [options] args..." summary,
// used by leaf commands that want a consistent --help banner without
// hand-formatting it themselves.
func FormatUsageLine(commandStr string, positional ...string) string {
	parts := append([]string{commandStr, "[options]"}, positional...)
	return strings.Join(parts, " ")
}

// ExitUsageErr prints err to out and returns the conventional
// usage-error exit code 1 (argparser.ErrHelp is treated as success, not a
// usage error, since --help is a deliberate request, not a mistake).
func ExitUsageErr(out io.Writer, commandStr string, err error) int {
	if err == argparser.ErrHelp {
		fmt.Fprintf(out, "%s\n", commandStr)
		return 0
	}
	fmt.Fprintf(out, "%s: %v\n", commandStr, err)
	return 1
}

// Stderr is the writer leaf commands use for unexpected engine errors, as
// distinct from the io.Writer Exec is handed for ordinary command output
// (mirrors Dolt's cli.Println/cli.PrintErrln split between stdout and
// stderr).
var Stderr io.Writer = os.Stderr
