package selector

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

const (
	// NegationMarker prefixes a selector whose branches are shown even when
	// no commit is attributed to them.
	NegationMarker = "!"
	// TriggerSeparator splits a trigger directive into tool and argument.
	TriggerSeparator = ":"
)

// Kind distinguishes pattern selectors from external triggers
type Kind int

const (
	Pattern Kind = iota
	Trigger
)

func (k Kind) String() string {
	switch k {
	case Pattern:
		return "pattern"
	case Trigger:
		return "trigger"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Selector is one parsed branch selection spec.
type Selector struct {
	Kind        Kind
	Raw         string
	Expr        string // glob pattern or whole trigger directive, marker stripped
	ShowIfEmpty bool
	Priority    int

	glob glob.Glob
}

// Match reports whether a pattern selector matches a branch short name.
// Trigger selectors never match.
func (s Selector) Match(name string) bool {
	if s.Kind != Pattern || s.glob == nil {
		return false
	}
	return s.glob.Match(name)
}

// Tool returns the part of a trigger directive before the separator.
func (s Selector) Tool() string {
	tool, _, _ := strings.Cut(s.Expr, TriggerSeparator)
	return tool
}

// Argument returns the part of a trigger directive after the separator.
func (s Selector) Argument() string {
	_, arg, _ := strings.Cut(s.Expr, TriggerSeparator)
	return arg
}

// PatternError reports a selector whose glob does not compile.
type PatternError struct {
	Selector string
	Err      error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid branch pattern %q: %v", e.Selector, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Parse parses a single selector string at the given priority
func Parse(raw string, priority int) (Selector, error) {
	sel := Selector{Raw: raw, Priority: priority}
	expr := raw
	if strings.HasPrefix(expr, NegationMarker) {
		sel.ShowIfEmpty = true
		expr = expr[len(NegationMarker):]
	}
	sel.Expr = expr

	if strings.Contains(expr, TriggerSeparator) {
		sel.Kind = Trigger
		return sel, nil
	}

	g, err := glob.Compile(expr)
	if err != nil {
		return Selector{}, &PatternError{Selector: raw, Err: err}
	}
	sel.Kind = Pattern
	sel.glob = g
	return sel, nil
}

// Set is an ordered, caller-owned list of selectors. Priority equals the
// position in the input list.
type Set struct {
	selectors []Selector
}

// ParseAll parses every spec; a single malformed glob fails the whole set.
func ParseAll(specs []string) (*Set, error) {
	set := &Set{selectors: make([]Selector, 0, len(specs))}
	for i, raw := range specs {
		sel, err := Parse(raw, i)
		if err != nil {
			return nil, err
		}
		set.selectors = append(set.selectors, sel)
	}
	return set, nil
}

// Triggers returns the trigger selectors in priority order
func (s *Set) Triggers() []Selector {
	var out []Selector
	for _, sel := range s.selectors {
		if sel.Kind == Trigger {
			out = append(out, sel)
		}
	}
	return out
}

// FirstMatch tests name against pattern selectors in priority order and
// returns the first that matches. Later selectors are never consulted.
func (s *Set) FirstMatch(name string) (Selector, bool) {
	for _, sel := range s.selectors {
		if sel.Match(name) {
			return sel, true
		}
	}
	return Selector{}, false
}

// Len returns the number of selectors
func (s *Set) Len() int {
	return len(s.selectors)
}
