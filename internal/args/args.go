// Package args parses the toolkit's command-line convention: mandatory
// positional arguments first, followed by optional Key=Value arguments in
// any order.
package args

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrUsage is wrapped by every argument validation failure.
	ErrUsage = errors.New("invalid arguments")
	// ErrHelp is returned when the user asked for usage.
	ErrHelp = errors.New("help requested")
)

// Error describes a single argument validation failure.
type Error struct {
	Arg string
	Msg string
}

func (e *Error) Error() string {
	if e.Arg == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Arg, e.Msg)
}

func (e *Error) Unwrap() error {
	return ErrUsage
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
)

type positional struct {
	name   string
	help   string
	target *string
}

type named struct {
	key    string
	help   string
	kind   kind
	target any
}

// Spec declares the arguments a program accepts and binds them to targets.
// Targets keep their current value as default when an argument is absent.
type Spec struct {
	program    string
	positional []positional
	named      []named
	set        map[string]bool
}

// New creates an empty Spec for program.
func New(program string) *Spec {
	return &Spec{program: program, set: make(map[string]bool)}
}

// Positional declares the next mandatory positional argument.
func (s *Spec) Positional(target *string, name, help string) *Spec {
	s.positional = append(s.positional, positional{name: name, help: help, target: target})
	return s
}

// String declares an optional Key=Value string argument.
func (s *Spec) String(target *string, key, help string) *Spec {
	s.named = append(s.named, named{key: key, help: help, kind: kindString, target: target})
	return s
}

// Bool declares an optional Key=Value boolean argument.
func (s *Spec) Bool(target *bool, key, help string) *Spec {
	s.named = append(s.named, named{key: key, help: help, kind: kindBool, target: target})
	return s
}

// Int declares an optional Key=Value integer argument.
func (s *Spec) Int(target *int, key, help string) *Spec {
	s.named = append(s.named, named{key: key, help: help, kind: kindInt, target: target})
	return s
}

// Parse binds argv (without the program name) to the declared targets.
func (s *Spec) Parse(argv []string) error {
	for _, a := range argv {
		if a == "-help" || a == "--help" || a == "-h" || a == "help" {
			return ErrHelp
		}
	}

	if len(argv) < len(s.positional) {
		missing := s.positional[len(argv)]
		return &Error{Arg: missing.name, Msg: "missing mandatory argument"}
	}

	for i, p := range s.positional {
		*p.target = argv[i]
	}

	for _, a := range argv[len(s.positional):] {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return &Error{Arg: a, Msg: "unexpected argument, expected Key=Value"}
		}
		n := s.lookup(key)
		if n == nil {
			return &Error{Arg: key, Msg: "unknown argument"}
		}
		if err := n.assign(value); err != nil {
			return err
		}
		s.set[key] = value != ""
	}

	return nil
}

// IsSet reports whether the user supplied a non-empty value for key.
func (s *Spec) IsSet(key string) bool {
	return s.set[key]
}

// Usage prints the argument summary to w.
func (s *Spec) Usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s", s.program)
	for _, p := range s.positional {
		fmt.Fprintf(w, " <%s>", p.name)
	}
	fmt.Fprint(w, " [Key=Value ...]\n")
	for _, p := range s.positional {
		fmt.Fprintf(w, "  * %-10s %s\n", p.name, p.help)
	}
	for _, n := range s.named {
		fmt.Fprintf(w, "  [%s=%s] %s\n", n.key, n.defaultString(), n.help)
	}
}

func (s *Spec) lookup(key string) *named {
	for i := range s.named {
		if s.named[i].key == key {
			return &s.named[i]
		}
	}
	return nil
}

func (n *named) assign(value string) error {
	switch n.kind {
	case kindString:
		*n.target.(*string) = value
	case kindBool:
		b, err := ParseBool(value)
		if err != nil {
			return &Error{Arg: n.key, Msg: err.Error()}
		}
		*n.target.(*bool) = b
	case kindInt:
		v, err := strconv.Atoi(value)
		if err != nil {
			return &Error{Arg: n.key, Msg: fmt.Sprintf("invalid integer %q", value)}
		}
		*n.target.(*int) = v
	}
	return nil
}

func (n *named) defaultString() string {
	switch n.kind {
	case kindString:
		return *n.target.(*string)
	case kindBool:
		return FormatBool(*n.target.(*bool))
	case kindInt:
		return strconv.Itoa(*n.target.(*int))
	}
	return ""
}

// ParseBool accepts 1/0 and true/false in any case.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q (want 0, 1, true or false)", v)
}

// FormatBool renders a boolean the way downstream stages read it.
func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// FormatFloat renders v with six significant digits in the shortest of
// fixed or exponent form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
