// Copyright 2019 Dolthub, Inc.
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

package cli

import (
	"bytes"
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riftdb/riftdb/cmd/riftdb/cli/argparser"
)

const appName = "riftdb"

type trackedCommand struct {
	name        string
	description string
	called      bool
	cmdStr      string
	args        []string
}

var _ Command = (*trackedCommand)(nil)

func newTrackedCommand(name, desc string) *trackedCommand {
	return &trackedCommand{name: name, description: desc}
}

func (cmd *trackedCommand) Name() string        { return cmd.name }
func (cmd *trackedCommand) Description() string { return cmd.description }
func (cmd *trackedCommand) ArgParser() *argparser.ArgParser { return nil }
func (cmd *trackedCommand) CreateMarkdown(wr io.Writer, commandStr string) error { return nil }

func (cmd *trackedCommand) Exec(ctx context.Context, commandStr string, args []string, out io.Writer) int {
	cmd.called = true
	cmd.cmdStr = commandStr
	cmd.args = args
	return 0
}

func (cmd *trackedCommand) equalsState(called bool, cmdStr string, args []string) bool {
	return called == cmd.called && cmdStr == cmd.cmdStr && reflect.DeepEqual(args, cmd.args)
}

func runCommand(root Command, commandLine string) int {
	tokens := strings.Split(commandLine, " ")
	if tokens[0] != appName {
		panic("bad test command line")
	}
	return root.Exec(context.Background(), appName, tokens[1:], io.Discard)
}

func TestSubCommandDispatch(t *testing.T) {
	grandchild := newTrackedCommand("grandchild", "grandchild command")
	child2 := NewSubCommandHandler("child2", "second child", []Command{grandchild})
	child1 := newTrackedCommand("child1", "first child")
	root := NewSubCommandHandler(appName, "test application", []Command{child1, child2})

	assert.NotEqual(t, 0, runCommand(root, appName))
	assert.NotEqual(t, 0, runCommand(root, appName+" invalid"))

	assert.True(t, child1.equalsState(false, "", nil))
	assert.True(t, grandchild.equalsState(false, "", nil))

	runCommand(root, appName+" child1 -flag -param=value arg0 arg1")
	assert.True(t, child1.equalsState(true, appName+" child1", []string{"-flag", "-param=value", "arg0", "arg1"}))
	assert.True(t, grandchild.equalsState(false, "", nil))

	runCommand(root, appName+" child2 grandchild -flag arg0")
	assert.True(t, grandchild.equalsState(true, appName+" child2 grandchild", []string{"-flag", "arg0"}))
}

func TestHasHelpFlag(t *testing.T) {
	assert.False(t, hasHelpFlag([]string{}))
	assert.False(t, hasHelpFlag([]string{"help"}))
	assert.True(t, hasHelpFlag([]string{"--help"}))
	assert.True(t, hasHelpFlag([]string{"-h"}))
	assert.False(t, hasHelpFlag([]string{"--param", "value", "--flag", "help", "arg2"}))
	assert.True(t, hasHelpFlag([]string{"--param", "value", "-f", "--help", "arg1"}))
}

func TestRunTopLevelHelp(t *testing.T) {
	root := NewSubCommandHandler(appName, "test application", nil)
	var buf bytes.Buffer
	code := Run(context.Background(), root, []string{"--help"}, &buf)
	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), "test application")
}
