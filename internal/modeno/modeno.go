// Package modeno defines the closed set of orientation modes understood by
// the relative-orientation stages.
package modeno

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects a variant of the relative-orientation algorithm downstream.
type Mode int

const (
	Std Mode = iota
	StdNoTTK
	OnlyHomogr
	OnlyHomogrNoTTK
	TTK
)

// Prefix is prepended to a user tag to form the enumeration name.
const Prefix = "eModeNO_"

// DefaultTag is used when the user does not supply ModeNO.
const DefaultTag = "Std"

// ErrUnknown is returned for tags outside the enumeration.
var ErrUnknown = errors.New("unknown orientation mode")

var names = [...]string{
	Std:             "eModeNO_Std",
	StdNoTTK:        "eModeNO_StdNoTTK",
	OnlyHomogr:      "eModeNO_OnlyHomogr",
	OnlyHomogrNoTTK: "eModeNO_OnlyHomogrNoTTK",
	TTK:             "eModeNO_TTK",
}

// String returns the enumeration name, e.g. "eModeNO_Std".
func (m Mode) String() string {
	if m < 0 || int(m) >= len(names) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return names[m]
}

// Tag returns the user-facing tag, e.g. "Std".
func (m Mode) Tag() string {
	return strings.TrimPrefix(m.String(), Prefix)
}

// FromString maps an enumeration name back to its Mode.
func FromString(name string) (Mode, error) {
	for i, n := range names {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Parse maps a user tag ("Std") to its Mode by looking up Prefix+tag.
func Parse(tag string) (Mode, error) {
	m, err := FromString(Prefix + tag)
	if err != nil {
		return 0, fmt.Errorf("%w %q (valid: %s)", ErrUnknown, tag, strings.Join(Tags(), ", "))
	}
	return m, nil
}

// All lists every mode in enumeration order.
func All() []Mode {
	modes := make([]Mode, len(names))
	for i := range names {
		modes[i] = Mode(i)
	}
	return modes
}

// Tags lists every user tag in enumeration order.
func Tags() []string {
	tags := make([]string, 0, len(names))
	for _, m := range All() {
		tags = append(tags, m.Tag())
	}
	return tags
}
