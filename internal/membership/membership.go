package membership

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cj3636/gcontains/internal/repo"
	"github.com/cj3636/gcontains/internal/resolve"
)

// Options bound the history considered for each branch.
type Options struct {
	// Now is the reference point for age checks.
	Now time.Time
	// RefMaxAge skips a branch entirely when its head is older.
	RefMaxAge time.Duration
	// CommitMaxAge hides commits older than this during traversal.
	CommitMaxAge time.Duration

	Logger *slog.Logger
}

// TooOld reports whether when lies further than maxAge before now. A
// non-positive maxAge disables the check.
func TooOld(now, when time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(when) > maxAge
}

// Membership maps commits to the set of branches that reach them.
type Membership struct {
	names   *Names
	commits map[repo.CommitID]*BranchSet
}

// New returns an empty mapping
func New() *Membership {
	return &Membership{
		names:   NewNames(),
		commits: make(map[repo.CommitID]*BranchSet),
	}
}

// Add records that branch reaches id. Sets only ever grow.
func (m *Membership) Add(id repo.CommitID, branch string) {
	i := m.names.Intern(branch)
	set, ok := m.commits[id]
	if !ok {
		set = NewBranchSet(m.names)
		m.commits[id] = set
	}
	set.add(i)
}

// Branches returns the set of branches reaching id, or nil
func (m *Membership) Branches(id repo.CommitID) *BranchSet {
	return m.commits[id]
}

// IDs returns every recorded commit in ascending id order
func (m *Membership) IDs() []repo.CommitID {
	ids := make([]repo.CommitID, 0, len(m.commits))
	for id := range m.commits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
	return ids
}

// Len returns the number of recorded commits
func (m *Membership) Len() int {
	return len(m.commits)
}

// Names returns the branch name arena
func (m *Membership) Names() *Names {
	return m.names
}

// Build walks each branch from its head and records membership for every
// commit not hidden by the age window. Branches whose head is older than
// RefMaxAge contribute nothing. Walks are not shared between branches.
func Build(r repo.Repository, branches []resolve.TrackedBranch, opts Options) (*Membership, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	m := New()
	hide := func(id repo.CommitID) bool {
		c, err := r.Commit(id)
		if err != nil {
			return false
		}
		return TooOld(now, c.Committer.When, opts.CommitMaxAge)
	}

	for _, b := range branches {
		head, err := r.Commit(b.Head)
		if err != nil {
			return nil, fmt.Errorf("branch %s head: %w", b.Name, err)
		}
		if TooOld(now, head.Committer.When, opts.RefMaxAge) {
			log.Debug("skipping branch", "branch", b.Name, "reason", "head older than ref cutoff",
				"head", head.ID.Short(12), "when", head.Committer.When)
			continue
		}

		ids, err := r.Walk(b.Head, hide)
		if err != nil {
			return nil, fmt.Errorf("walking branch %s: %w", b.Name, err)
		}
		for _, id := range ids {
			m.Add(id, b.Name)
		}
		log.Debug("walked branch", "branch", b.Name, "commits", len(ids))
	}
	return m, nil
}
