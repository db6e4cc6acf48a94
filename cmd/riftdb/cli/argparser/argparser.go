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

// Package argparser is a small in-house flag parser in the shape of Dolt's
// own libraries/utils/argparser: an ArgParser accumulates named Options
// (flags or value options, each with a long name and an optional one-letter
// abbreviation) and Parse turns a command's argv tail into an
// ArgParseResults of option values plus leftover positional arguments.
package argparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OptKind distinguishes a bare flag (present or absent) from an option that
// consumes a following value.
type OptKind int

const (
	OptionalFlag OptKind = iota
	OptionalValue
)

// Option describes one supported flag or value option.
type Option struct {
	Name     string
	Abbrev   string
	ValDesc  string
	Kind     OptKind
	Desc     string
}

// ErrHelp is returned by Parse when the argument list contains -h or
// --help; the caller is expected to print usage and exit zero.
var ErrHelp = fmt.Errorf("help requested")

// UnknownArgumentParam is returned by Parse when argv names an option this
// ArgParser never registered via SupportOption.
type UnknownArgumentParam struct {
	Name string
}

func (e UnknownArgumentParam) Error() string {
	return fmt.Sprintf("error: unknown option `%s'", e.Name)
}

// NoValueForOption is returned when a value option appears with nothing
// after it to consume.
type NoValueForOption struct {
	Name string
}

func (e NoValueForOption) Error() string {
	return fmt.Sprintf("error: no value for option `%s'", e.Name)
}

// DuplicateOption is returned when the same option is supplied twice.
type DuplicateOption struct {
	Name string
}

func (e DuplicateOption) Error() string {
	return fmt.Sprintf("error: multiple values provided for `%s'", e.Name)
}

// ArgParser parses one command's argument list against a fixed set of
// supported Options (spec CLI: "cmd/riftdb drives the engine's native row
// and table operations").
type ArgParser struct {
	name    string
	maxArgs int // -1 means unbounded

	byName   map[string]*Option
	byAbbrev map[string]*Option
	ordered  []*Option
}

const unboundedArgs = -1

// NewArgParserWithVariableArgs builds an ArgParser accepting any number of
// trailing positional arguments.
func NewArgParserWithVariableArgs(name string) *ArgParser {
	return &ArgParser{name: name, maxArgs: unboundedArgs, byName: map[string]*Option{}, byAbbrev: map[string]*Option{}}
}

// NewArgParserWithMaxArgs builds an ArgParser that rejects more than max
// positional arguments.
func NewArgParserWithMaxArgs(name string, max int) *ArgParser {
	return &ArgParser{name: name, maxArgs: max, byName: map[string]*Option{}, byAbbrev: map[string]*Option{}}
}

// SupportOption registers opt as one this parser recognizes.
func (ap *ArgParser) SupportOption(opt *Option) *ArgParser {
	ap.byName[opt.Name] = opt
	if opt.Abbrev != "" {
		ap.byAbbrev[opt.Abbrev] = opt
	}
	ap.ordered = append(ap.ordered, opt)
	return ap
}

// SupportsFlag registers a bare presence/absence flag.
func (ap *ArgParser) SupportsFlag(name, abbrev, desc string) *ArgParser {
	return ap.SupportOption(&Option{Name: name, Abbrev: abbrev, Kind: OptionalFlag, Desc: desc})
}

// SupportsString registers a value option.
func (ap *ArgParser) SupportsString(name, abbrev, valDesc, desc string) *ArgParser {
	return ap.SupportOption(&Option{Name: name, Abbrev: abbrev, ValDesc: valDesc, Kind: OptionalValue, Desc: desc})
}

// SupportsInt registers a value option whose value is validated as an
// integer by the caller via ArgParseResults.GetInt.
func (ap *ArgParser) SupportsInt(name, abbrev, valDesc, desc string) *ArgParser {
	return ap.SupportsString(name, abbrev, valDesc, desc)
}

// ArgParseResults is the outcome of a successful Parse: resolved option
// values plus leftover positional arguments, in order.
type ArgParseResults struct {
	options map[string]string
	Args    []string
	parser  *ArgParser
}

func (ap *ArgParser) resolveLong(token string) (*Option, string, bool) {
	name := token
	var inlineVal string
	hasInline := false
	for _, sep := range []string{"=", ":"} {
		if idx := strings.Index(token, sep); idx >= 0 {
			name = token[:idx]
			inlineVal = token[idx+1:]
			hasInline = true
			break
		}
	}
	if opt, ok := ap.byName[name]; ok {
		return opt, inlineVal, hasInline
	}
	return nil, "", false
}

// Parse consumes argv against ap's registered options, returning either a
// populated ArgParseResults or one of ErrHelp, UnknownArgumentParam,
// NoValueForOption, or DuplicateOption.
func (ap *ArgParser) Parse(argv []string) (*ArgParseResults, error) {
	if hasHelpFlag(argv) {
		return nil, ErrHelp
	}

	opts := map[string]string{}
	var positional []string

	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		switch {
		case strings.HasPrefix(tok, "--") && len(tok) > 2:
			body := tok[2:]
			opt, val, hasInline := ap.resolveLong(body)
			if opt == nil {
				return nil, UnknownArgumentParam{body}
			}
			if err := setOpt(opts, opt, val, hasInline, argv, &i); err != nil {
				return nil, err
			}
		case strings.HasPrefix(tok, "-") && len(tok) > 1 && tok != "-":
			if err := ap.parseShort(tok[1:], opts, argv, &i); err != nil {
				return nil, err
			}
		default:
			positional = append(positional, tok)
		}
	}

	if ap.maxArgs != unboundedArgs && len(positional) > ap.maxArgs {
		return nil, fmt.Errorf("error: %s has too many positional arguments. Expected at most %d, found %d: %s",
			ap.name, ap.maxArgs, len(positional), strings.Join(positional, ", "))
	}

	if positional == nil {
		positional = []string{}
	}
	return &ArgParseResults{options: opts, Args: positional, parser: ap}, nil
}

// parseShort resolves one or more bundled single-letter flags such as
// "-fm value" (force + message, message's value taken from the next
// token) or "-fmvalue" (force + message, message's value being the rest
// of the token, "value").
func (ap *ArgParser) parseShort(body string, opts map[string]string, argv []string, i *int) error {
	for j := 0; j < len(body); j++ {
		abbrev := string(body[j])
		opt, ok := ap.byAbbrev[abbrev]
		if !ok {
			return UnknownArgumentParam{abbrev}
		}
		if opt.Kind == OptionalFlag {
			if _, dup := opts[opt.Name]; dup {
				return DuplicateOption{opt.Name}
			}
			opts[opt.Name] = ""
			continue
		}
		// Value option: everything remaining in this token belongs to it,
		// or (if nothing remains) the next token does.
		if _, dup := opts[opt.Name]; dup {
			return DuplicateOption{opt.Name}
		}
		rest := body[j+1:]
		if rest != "" {
			opts[opt.Name] = rest
			return nil
		}
		if *i+1 >= len(argv) {
			return NoValueForOption{abbrev}
		}
		*i++
		opts[opt.Name] = argv[*i]
		return nil
	}
	return nil
}

func setOpt(opts map[string]string, opt *Option, inlineVal string, hasInline bool, argv []string, i *int) error {
	if _, dup := opts[opt.Name]; dup {
		return DuplicateOption{opt.Name}
	}
	if opt.Kind == OptionalFlag {
		opts[opt.Name] = ""
		return nil
	}
	if hasInline {
		opts[opt.Name] = inlineVal
		return nil
	}
	if *i+1 >= len(argv) {
		return NoValueForOption{opt.Name}
	}
	*i++
	opts[opt.Name] = argv[*i]
	return nil
}

// PrintUsage writes a one-option-per-line summary of every Option ap
// supports, in registration order.
func (ap *ArgParser) PrintUsage(w io.Writer) {
	for _, opt := range ap.ordered {
		abbrev := ""
		if opt.Abbrev != "" {
			abbrev = fmt.Sprintf(" (-%s)", opt.Abbrev)
		}
		if opt.Kind == OptionalValue {
			fmt.Fprintf(w, "  --%s%s <%s>  %s\n", opt.Name, abbrev, opt.ValDesc, opt.Desc)
		} else {
			fmt.Fprintf(w, "  --%s%s  %s\n", opt.Name, abbrev, opt.Desc)
		}
	}
}

// hasHelpFlag reports whether argv contains a literal -h or --help token
// anywhere (the word "help" alone, as a positional subcommand name, does
// not count).
func hasHelpFlag(argv []string) bool {
	for _, tok := range argv {
		if tok == "-h" || tok == "--help" {
			return true
		}
	}
	return false
}

func (r *ArgParseResults) GetValue(name string) (string, bool) {
	v, ok := r.options[name]
	return v, ok
}

func (r *ArgParseResults) MustGetValue(name string) string {
	v, ok := r.options[name]
	if !ok {
		panic(fmt.Sprintf("argparser: required option %q missing", name))
	}
	return v
}

func (r *ArgParseResults) GetValueOrDefault(name, def string) string {
	if v, ok := r.options[name]; ok {
		return v
	}
	return def
}

func (r *ArgParseResults) GetInt(name string) (int, bool) {
	v, ok := r.options[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r *ArgParseResults) GetIntOrDefault(name string, def int) int {
	if n, ok := r.GetInt(name); ok {
		return n
	}
	return def
}

func (r *ArgParseResults) Contains(name string) bool {
	_, ok := r.options[name]
	return ok
}

func (r *ArgParseResults) ContainsAll(names ...string) bool {
	for _, n := range names {
		if !r.Contains(n) {
			return false
		}
	}
	return true
}

func (r *ArgParseResults) ContainsAny(names ...string) bool {
	for _, n := range names {
		if r.Contains(n) {
			return true
		}
	}
	return false
}

func (r *ArgParseResults) NArg() int { return len(r.Args) }

func (r *ArgParseResults) Arg(i int) string { return r.Args[i] }

// DropValue returns a copy of r with name's option value removed, leaving
// positional arguments and every other option untouched.
func (r *ArgParseResults) DropValue(name string) *ArgParseResults {
	next := make(map[string]string, len(r.options))
	for k, v := range r.options {
		if k != name {
			next[k] = v
		}
	}
	return &ArgParseResults{options: next, Args: r.Args, parser: r.parser}
}
