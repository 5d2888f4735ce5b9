package layout

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/cj3636/gcontains/internal/group"
	"github.com/cj3636/gcontains/internal/resolve"
)

// Column is one branch column in the display.
type Column struct {
	Name  string
	Color lipgloss.Color
}

type candidate struct {
	name     string
	priority int
	known    bool
}

// Columns picks the branches to display and their order. A branch is shown
// when at least one surfaced commit reaches it or when its selector asked
// for it to be shown even if empty. Columns are ordered by (priority, name);
// names without a known selector sort after all known ones. Colours are
// assigned from the palette by position.
func Columns(groups []group.Group, res *resolve.Result) []Column {
	names := make(map[string]bool)
	for i := range groups {
		for _, e := range groups[i].Entries {
			for _, n := range e.Branches.Names() {
				names[n] = true
			}
		}
	}
	var registry resolve.Registry
	if res != nil {
		registry = res.Registry
		for _, b := range res.Branches {
			if b.ShowIfEmpty {
				names[b.Name] = true
			}
		}
	}

	cands := make([]candidate, 0, len(names))
	for n := range names {
		c := candidate{name: n}
		if o, ok := registry.Lookup(n); ok {
			c.priority = o.Priority
			c.known = true
		}
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.known != b.known {
			return a.known
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.name < b.name
	})

	palette := Palette()
	cols := make([]Column, len(cands))
	for i, c := range cands {
		cols[i] = Column{Name: c.name, Color: ColorAt(palette, i)}
	}
	return cols
}

// Reverse returns the columns in the opposite order. Each branch keeps its
// colour, so reversing twice restores the original.
func Reverse(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[len(cols)-1-i] = c
	}
	return out
}

// Names returns the column names in order
func Names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
