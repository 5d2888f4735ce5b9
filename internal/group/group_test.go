package group

import (
	"testing"
	"time"

	"github.com/cj3636/gcontains/internal/membership"
	"github.com/cj3636/gcontains/internal/repo"
	"github.com/cj3636/gcontains/internal/repo/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func hoursAgo(n int) time.Time {
	return now.Add(-time.Duration(n) * time.Hour)
}

func strPtr(s string) *string { return &s }

type commit struct {
	label, author, email, msg string
	parents                   []string
	when                      time.Time
	branches                  []string
}

func build(t *testing.T, commits []commit) (*repotest.Repo, *membership.Membership) {
	t.Helper()
	r := repotest.New()
	m := membership.New()
	for _, c := range commits {
		id := r.Add(repotest.CommitSpec{
			Label:   c.label,
			Parents: c.parents,
			Author:  c.author,
			Email:   c.email,
			When:    c.when,
			Message: c.msg,
		})
		for _, b := range c.branches {
			m.Add(id, b)
		}
	}
	return r, m
}

func TestAuthorMatches(t *testing.T) {
	jane := repo.Signature{Name: "Jane Doe", Email: "jd@corp.com"}
	j := repo.Signature{Name: "J", Email: "jane@x.com"}
	other := repo.Signature{Name: "Bob", Email: "bob@y.org"}

	assert.True(t, AuthorMatches(jane, strPtr("Jane")))
	assert.True(t, AuthorMatches(j, strPtr("jane@x")))
	assert.False(t, AuthorMatches(other, strPtr("Jane")))
	assert.False(t, AuthorMatches(jane, strPtr("jane")), "matching is case-sensitive")
	assert.True(t, AuthorMatches(other, nil))
	assert.True(t, AuthorMatches(other, strPtr("")), "empty filter is a substring of everything")
}

func TestSubject(t *testing.T) {
	tests := []struct {
		msg  string
		want string
		ok   bool
	}{
		{"fix crash\n\nlong body", "fix crash", true},
		{"single", "single", true},
		{"windows\r\nbody", "windows", true},
		{"\nbody after blank", "", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Subject(tt.msg)
		assert.Equal(t, tt.ok, ok, "%q", tt.msg)
		assert.Equal(t, tt.want, got, "%q", tt.msg)
	}
}

func TestBuild_Filters(t *testing.T) {
	r, m := build(t, []commit{
		{label: "ok", author: "Jane Doe", msg: "keep me", when: hoursAgo(5), branches: []string{"main"}},
		{label: "merge", author: "Jane Doe", msg: "Merge branch x", parents: []string{"ok", "other"}, when: hoursAgo(4), branches: []string{"main"}},
		{label: "other", author: "Bob", msg: "not mine", when: hoursAgo(3), branches: []string{"main"}},
		{label: "stale", author: "Jane Doe", msg: "too old", when: hoursAgo(24 * 40), branches: []string{"main"}},
		{label: "empty", author: "Jane Doe", msg: "", when: hoursAgo(2), branches: []string{"main"}},
	})

	groups, err := Build(r, m, Filter{Author: strPtr("Jane"), Now: now, CommitMaxAge: 30 * 24 * time.Hour}, Ascending, nil)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "keep me", groups[0].Subject)

	for _, g := range groups {
		for _, e := range g.Entries {
			c, err := r.Commit(e.ID)
			require.NoError(t, err)
			assert.LessOrEqual(t, c.NumParents(), 1)
		}
	}
}

func TestBuild_GroupsBySubject(t *testing.T) {
	r, m := build(t, []commit{
		{label: "fix-main", author: "dev", msg: "fix overflow\n\nmain version", when: hoursAgo(10), branches: []string{"main"}},
		{label: "fix-rel", author: "dev", msg: "fix overflow\n\nbackport", when: hoursAgo(2), branches: []string{"release/1.0"}},
		{label: "feat", author: "dev", msg: "add feature", when: hoursAgo(5), branches: []string{"main", "release/1.0"}},
	})

	groups, err := Build(r, m, Filter{Now: now}, Ascending, nil)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	var fix *Group
	for i := range groups {
		if groups[i].Subject == "fix overflow" {
			fix = &groups[i]
		}
	}
	require.NotNil(t, fix)
	require.Len(t, fix.Entries, 2)
	assert.True(t, fix.HasVariants())
	assert.Equal(t, []string{"main", "release/1.0"}, fix.Branches().Names())

	seen := map[repo.CommitID]bool{}
	for _, e := range fix.Entries {
		assert.False(t, seen[e.ID], "no duplicate entries")
		seen[e.ID] = true
	}

	// The canonical time belongs to whichever entry comes first in id order.
	first, err := r.Commit(fix.Entries[0].ID)
	require.NoError(t, err)
	assert.True(t, fix.Time.Equal(first.Committer.When))
	assert.Negative(t, fix.Entries[0].ID.Compare(fix.Entries[1].ID))
}

func TestBuild_Ordering(t *testing.T) {
	r, m := build(t, []commit{
		{label: "c", author: "dev", msg: "third", when: hoursAgo(1), branches: []string{"main"}},
		{label: "a", author: "dev", msg: "first", when: hoursAgo(3), branches: []string{"main"}},
		{label: "b2", author: "dev", msg: "tie b", when: hoursAgo(2), branches: []string{"main"}},
		{label: "b1", author: "dev", msg: "tie a", when: hoursAgo(2), branches: []string{"main"}},
	})

	asc, err := Build(r, m, Filter{Now: now}, Ascending, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "tie a", "tie b", "third"}, subjects(asc))

	desc, err := Build(r, m, Filter{Now: now}, Descending, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "tie a", "tie b", "first"}, subjects(desc))

	again, err := Build(r, m, Filter{Now: now}, Ascending, nil)
	require.NoError(t, err)
	assert.Equal(t, subjects(asc), subjects(again))
}

func subjects(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Subject
	}
	return out
}
