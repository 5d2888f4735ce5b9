package report

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cj3636/gcontains/internal/fingerprint"
	"github.com/cj3636/gcontains/internal/group"
	"github.com/cj3636/gcontains/internal/layout"
	"github.com/cj3636/gcontains/internal/membership"
	"github.com/cj3636/gcontains/internal/repo"
	"github.com/cj3636/gcontains/internal/resolve"
	"github.com/cj3636/gcontains/internal/selector"
)

// Variant is one commit of a row.
type Variant struct {
	ID repo.CommitID
	// Fingerprint is set only in variant mode for rows with several commits.
	Fingerprint *fingerprint.Fingerprint
	Branches    *membership.BranchSet
}

// Row is one logical change.
type Row struct {
	Time     time.Time
	Subject  string
	Variants []Variant
	// Shade alternates 0 and 1 in display order. Rows dropped by a search
	// still take their turn.
	Shade int
}

// Union returns every branch reached by any variant of the row.
func (r Row) Union() *membership.BranchSet {
	var out *membership.BranchSet
	for _, v := range r.Variants {
		out = out.Union(v.Branches)
	}
	return out
}

// Divergent reports whether the row's variants carry different content.
// Rows without fingerprints are never divergent.
func (r Row) Divergent() bool {
	var first *fingerprint.Fingerprint
	for _, v := range r.Variants {
		if v.Fingerprint == nil {
			continue
		}
		if first == nil {
			first = v.Fingerprint
			continue
		}
		if *v.Fingerprint != *first {
			return true
		}
	}
	return false
}

// Report is what the presentation layer consumes.
type Report struct {
	Rows    []Row
	Columns []layout.Column
	// Variants asks for one line per commit instead of one per row.
	Variants bool
	Reversed bool
	// Groups counts the rows before any search; zero means len(Rows).
	Groups int
}

// Reverse flips both the row order and the column order.
func (r *Report) Reverse() *Report {
	n := r.Groups
	if n == 0 {
		n = len(r.Rows)
	}
	rows := make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		if n%2 == 0 {
			row.Shade ^= 1
		}
		rows[len(r.Rows)-1-i] = row
	}
	return &Report{
		Rows:     rows,
		Columns:  layout.Reverse(r.Columns),
		Variants: r.Variants,
		Reversed: !r.Reversed,
		Groups:   r.Groups,
	}
}

// Search keeps only rows whose subject contains text. Columns are left as
// they are.
func (r *Report) Search(text string) *Report {
	if text == "" {
		return r
	}
	out := *r
	out.Rows = nil
	for _, row := range r.Rows {
		if strings.Contains(row.Subject, text) {
			out.Rows = append(out.Rows, row)
		}
	}
	return &out
}

// Options configure a Build.
type Options struct {
	// Branches are the selector specs, in priority order.
	Branches []string
	Remote   string

	RefScript string
	Home      string
	Trigger   resolve.TriggerFunc

	// Author filters commits by author; nil accepts everyone.
	Author *string

	Now          time.Time
	RefMaxAge    time.Duration
	CommitMaxAge time.Duration

	Variants bool
	Reverse  bool
	Search   string

	// Patch overrides the repository as the source of patches for
	// fingerprinting.
	Patch repo.PatchFunc

	Logger *slog.Logger
}

// Build runs the whole pipeline: resolve branches, build membership, group
// commits, order columns and, in variant mode, fingerprint rows holding
// more than one commit.
func Build(r repo.Repository, opts Options) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	selectors, err := selector.ParseAll(opts.Branches)
	if err != nil {
		return nil, err
	}

	resolver := &resolve.Resolver{
		Repo:      r,
		Selectors: selectors,
		Refs:      resolve.NewRefPattern(opts.Remote),
		RefScript: opts.RefScript,
		Home:      opts.Home,
		Trigger:   opts.Trigger,
		Logger:    log,
	}
	resolved, err := resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving branches: %w", err)
	}

	m, err := membership.Build(r, resolved.Branches, membership.Options{
		Now:          now,
		RefMaxAge:    opts.RefMaxAge,
		CommitMaxAge: opts.CommitMaxAge,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	groups, err := group.Build(r, m, group.Filter{
		Author:       opts.Author,
		Now:          now,
		CommitMaxAge: opts.CommitMaxAge,
	}, group.Ascending, log)
	if err != nil {
		return nil, err
	}
	log.Debug("grouped commits", "commits", m.Len(), "groups", len(groups), "branches", len(resolved.Branches))

	patch := opts.Patch
	if patch == nil {
		patch = r.Patch
	}
	rows, err := buildRows(groups, opts.Variants, fingerprint.New(patch))
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Rows:     rows,
		Columns:  layout.Columns(groups, resolved),
		Variants: opts.Variants,
		Groups:   len(rows),
	}
	if opts.Reverse {
		rep = rep.Reverse()
	}
	for i := range rep.Rows {
		rep.Rows[i].Shade = i % 2
	}
	return rep.Search(opts.Search), nil
}

func buildRows(groups []group.Group, variants bool, fp *fingerprint.Fingerprinter) ([]Row, error) {
	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		row := Row{Time: g.Time, Subject: g.Subject, Variants: make([]Variant, 0, len(g.Entries))}
		for _, e := range g.Entries {
			v := Variant{ID: e.ID, Branches: e.Branches}
			if variants && g.HasVariants() {
				sum, err := fp.Compute(e.ID)
				if err != nil {
					return nil, fmt.Errorf("fingerprinting %s: %w", e.ID.Short(12), err)
				}
				v.Fingerprint = &sum
			}
			row.Variants = append(row.Variants, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
