package group

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cj3636/gcontains/internal/membership"
	"github.com/cj3636/gcontains/internal/repo"
)

// Entry is one commit carrying a group's subject line.
type Entry struct {
	ID       repo.CommitID
	Branches *membership.BranchSet
}

// Group collects commits that share the first line of their description.
type Group struct {
	// Time is the committer time of the first qualifying commit processed
	// for this subject, in ascending commit id order.
	Time    time.Time
	Subject string
	Entries []Entry
}

// Branches returns the union of every entry's branch set.
func (g *Group) Branches() *membership.BranchSet {
	var out *membership.BranchSet
	for _, e := range g.Entries {
		out = out.Union(e.Branches)
	}
	return out
}

// HasVariants reports whether the group holds more than one commit.
func (g *Group) HasVariants() bool {
	return len(g.Entries) > 1
}

// Filter decides which commits may join a group.
type Filter struct {
	// Author is matched as a substring of the author's name or email. Nil
	// accepts every author.
	Author *string

	Now          time.Time
	CommitMaxAge time.Duration
}

// AuthorMatches reports whether sig passes the author filter. Matching is a
// case-sensitive substring test against the name or the email.
func AuthorMatches(sig repo.Signature, filter *string) bool {
	if filter == nil {
		return true
	}
	return strings.Contains(sig.Name, *filter) || strings.Contains(sig.Email, *filter)
}

// Subject returns the first line of a commit description. An empty
// description has no subject.
func Subject(message string) (string, bool) {
	if message == "" {
		return "", false
	}
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSuffix(line, "\r"), true
}

// Order selects the direction of the final time sort.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Build groups the commits of m by subject. Merges, commits by other authors
// and commits older than the cutoff are dropped. Groups are returned sorted
// by Time; equal times keep ascending subject order.
func Build(r repo.Repository, m *membership.Membership, f Filter, order Order, log *slog.Logger) ([]Group, error) {
	if log == nil {
		log = slog.Default()
	}
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	bySubject := make(map[string]*Group)
	for _, id := range m.IDs() {
		c, err := r.Commit(id)
		if err != nil {
			return nil, fmt.Errorf("grouping commits: %w", err)
		}
		if reason, skip := reject(c, f, now); skip {
			log.Debug("skipping commit", "commit", id.Short(12), "reason", reason)
			continue
		}
		subject, ok := Subject(c.Message)
		if !ok {
			log.Debug("skipping commit", "commit", id.Short(12), "reason", "empty description")
			continue
		}

		g, ok := bySubject[subject]
		if !ok {
			g = &Group{Time: c.Committer.When, Subject: subject}
			bySubject[subject] = g
		}
		g.Entries = append(g.Entries, Entry{ID: id, Branches: m.Branches(id)})
	}

	groups := make([]Group, 0, len(bySubject))
	for _, g := range bySubject {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Subject < groups[j].Subject
	})
	Sort(groups, order)
	return groups, nil
}

func reject(c *repo.Commit, f Filter, now time.Time) (string, bool) {
	switch {
	case c.NumParents() > 1:
		return "merge commit", true
	case !AuthorMatches(c.Author, f.Author):
		return "author does not match", true
	case membership.TooOld(now, c.Committer.When, f.CommitMaxAge):
		return "older than commit cutoff", true
	}
	return "", false
}

// Sort orders groups by Time. The sort is stable so ties keep their
// incoming order.
func Sort(groups []Group, order Order) {
	sort.SliceStable(groups, func(i, j int) bool {
		if order == Descending {
			return groups[i].Time.After(groups[j].Time)
		}
		return groups[i].Time.Before(groups[j].Time)
	})
}
