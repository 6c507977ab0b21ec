// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// FLAG SPEC
// =============================================================================

// FlagSpec declares the flags a command accepts. Flags not listed are
// rejected. -h and -help are always accepted as booleans.
type FlagSpec struct {
	// Values take exactly one argument: -app 12 or -app=12.
	Values []string
	// Bools take no argument; -w=false is accepted.
	Bools []string
	// Lists consume every following token that is not itself a flag.
	Lists []string
}

func (s FlagSpec) kind(name string) byte {
	if name == "h" || name == "help" {
		return 'b'
	}
	for _, v := range s.Values {
		if v == name {
			return 'v'
		}
	}
	for _, v := range s.Bools {
		if v == name {
			return 'b'
		}
	}
	for _, v := range s.Lists {
		if v == name {
			return 'l'
		}
	}
	return 0
}

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser parses Go-style single-dash flags. Double-dash and -name=value
// forms are accepted too.
type ArgParser struct {
	flags      map[string]string
	lists      map[string][]string
	bools      map[string]bool
	positional []string
	raw        []string
	err        error
}

// NewArgParser parses raw against spec. Parse problems are reported by Err.
func NewArgParser(raw []string, spec FlagSpec) *ArgParser {
	p := &ArgParser{
		flags: make(map[string]string),
		lists: make(map[string][]string),
		bools: make(map[string]bool),
		raw:   raw,
	}

	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		if tok == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		name, value, hasValue, ok := splitFlag(tok)
		if !ok {
			p.positional = append(p.positional, tok)
			continue
		}

		switch spec.kind(name) {
		case 'b':
			b := true
			if hasValue {
				parsed, err := ParseBoolString(value)
				if err != nil {
					p.fail(NewValidationError("-"+name, value, "expected true or false"))
					continue
				}
				b = parsed
			}
			p.bools[name] = b
		case 'l':
			list := p.lists[name]
			if hasValue {
				list = append(list, value)
			}
			for i+1 < len(raw) && !isFlag(raw[i+1]) {
				i++
				list = append(list, raw[i])
			}
			p.lists[name] = list
		case 'v':
			switch {
			case hasValue:
				p.flags[name] = value
			case i+1 < len(raw) && !isFlag(raw[i+1]):
				i++
				p.flags[name] = raw[i]
			default:
				p.fail(NewValidationError("-"+name, "", "flag requires a value"))
			}
		default:
			p.fail(NewValidationError("flag", tok, "unknown flag"))
		}
	}
	return p
}

func (p *ArgParser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// splitFlag reports whether tok is a flag and splits -name=value.
func splitFlag(tok string) (name, value string, hasValue, ok bool) {
	if !isFlag(tok) {
		return "", "", false, false
	}
	name = strings.TrimLeft(tok, "-")
	if idx := strings.IndexByte(name, '='); idx >= 0 {
		return name[:idx], name[idx+1:], true, true
	}
	return name, "", false, true
}

// isFlag treats negative numbers as values, not flags.
func isFlag(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return false
	}
	return true
}

// Err returns the first parse problem, if any.
func (p *ArgParser) Err() error {
	return p.err
}

// Flag returns the value of the first of names that was given.
func (p *ArgParser) Flag(names ...string) string {
	for _, n := range names {
		if v, ok := p.flags[n]; ok {
			return v
		}
	}
	return ""
}

// FlagOrDefault returns the flag value, or defaultValue when absent.
func (p *ArgParser) FlagOrDefault(name, defaultValue string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return defaultValue
}

// FlagUint parses a non-negative integer flag. Underscores are allowed as
// digit separators. The bool result is false when the flag is absent.
func (p *ArgParser) FlagUint(name string) (uint64, bool, error) {
	v, ok := p.flags[name]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(strings.ReplaceAll(v, "_", ""), 10, 64)
	if err != nil {
		return 0, true, NewValidationError("-"+name, v, "expected a non-negative integer")
	}
	return n, true, nil
}

// BoolFlag reports whether a boolean flag was set.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.bools[name]
}

// List returns the tokens collected by a list flag.
func (p *ArgParser) List(name string) []string {
	return p.lists[name]
}

// HasFlag reports whether name was given in any form.
func (p *ArgParser) HasFlag(name string) bool {
	if _, ok := p.flags[name]; ok {
		return true
	}
	if _, ok := p.lists[name]; ok {
		return true
	}
	_, ok := p.bools[name]
	return ok
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the unparsed arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// ParseBoolString accepts true/false, yes/no, on/off and 1/0.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %q", s)
}

// ParseAppID parses a positive application or asset id.
func ParseAppID(field, s string) (uint64, error) {
	if s == "" {
		return 0, ErrMissingArgument(field, "")
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, NewValidationError(field, s, "expected a positive integer")
	}
	return n, nil
}
