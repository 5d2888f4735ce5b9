// Package repotest provides an in-memory repo.Repository for tests.
package repotest

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"time"

	"github.com/cj3636/gcontains/internal/repo"
)

// Repo is a hand-built commit graph.
type Repo struct {
	commits   map[repo.CommitID]*repo.Commit
	patches   map[repo.CommitID]string
	refs      map[string]repo.CommitID
	revisions map[string]repo.CommitID

	// Lookups counts Commit calls, for asserting walk behaviour.
	Lookups int
}

// New returns an empty repository
func New() *Repo {
	return &Repo{
		commits:   make(map[repo.CommitID]*repo.Commit),
		patches:   make(map[repo.CommitID]string),
		refs:      make(map[string]repo.CommitID),
		revisions: make(map[string]repo.CommitID),
	}
}

// ID derives a stable commit id from a label.
func ID(label string) repo.CommitID {
	return repo.CommitID(sha1.Sum([]byte(label)))
}

// CommitSpec describes a commit to add.
type CommitSpec struct {
	Label   string
	Parents []string
	Author  string
	Email   string
	When    time.Time
	Message string
	Patch   string
}

// Add inserts a commit and returns its id
func (r *Repo) Add(spec CommitSpec) repo.CommitID {
	id := ID(spec.Label)
	parents := make([]repo.CommitID, 0, len(spec.Parents))
	for _, p := range spec.Parents {
		parents = append(parents, ID(p))
	}
	email := spec.Email
	if email == "" {
		email = fmt.Sprintf("%s@example.com", spec.Author)
	}
	r.commits[id] = &repo.Commit{
		ID:        id,
		Parents:   parents,
		Author:    repo.Signature{Name: spec.Author, Email: email, When: spec.When},
		Committer: repo.Signature{Name: spec.Author, Email: email, When: spec.When},
		Message:   spec.Message,
	}
	r.patches[id] = spec.Patch
	r.revisions[spec.Label] = id
	return id
}

// SetRef points a reference name at the commit with the given label.
func (r *Repo) SetRef(name, label string) {
	r.refs[name] = ID(label)
}

// SetRevision makes rev resolvable to the commit with the given label.
func (r *Repo) SetRevision(rev, label string) {
	r.revisions[rev] = ID(label)
}

func (r *Repo) References() ([]repo.Reference, error) {
	refs := make([]repo.Reference, 0, len(r.refs))
	for name, id := range r.refs {
		refs = append(refs, repo.Reference{Name: name, Target: id})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (r *Repo) ResolveRevision(rev string) (repo.CommitID, error) {
	if id, ok := r.refs[rev]; ok {
		return id, nil
	}
	if id, ok := r.revisions[rev]; ok {
		return id, nil
	}
	return repo.CommitID{}, &repo.Error{Op: "resolve", Rev: rev, Err: fmt.Errorf("unknown revision")}
}

func (r *Repo) Commit(id repo.CommitID) (*repo.Commit, error) {
	r.Lookups++
	c, ok := r.commits[id]
	if !ok {
		return nil, &repo.Error{Op: "commit", Rev: id.String(), Err: fmt.Errorf("object not found")}
	}
	return c, nil
}

func (r *Repo) Walk(start repo.CommitID, hide repo.HideFunc) ([]repo.CommitID, error) {
	return repo.WalkFrom(r, start, hide)
}

func (r *Repo) Patch(id repo.CommitID) (string, error) {
	p, ok := r.patches[id]
	if !ok {
		return "", &repo.Error{Op: "patch", Rev: id.String(), Err: fmt.Errorf("object not found")}
	}
	return p, nil
}
