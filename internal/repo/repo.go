package repo

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// CommitID is a content-addressed commit identifier
type CommitID [20]byte

// ParseCommitID decodes a full 40-character hex id
func ParseCommitID(s string) (CommitID, error) {
	var id CommitID
	s = strings.TrimSpace(s)
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("invalid commit id %q", s)
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("invalid commit id %q: %w", s, err)
	}
	return id, nil
}

// String returns the full hex form of the id
func (id CommitID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first n hex characters of the id
func (id CommitID) Short(n int) string {
	s := id.String()
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

// Compare orders ids bytewise, returning -1, 0 or 1.
func (id CommitID) Compare(other CommitID) int {
	for i := range id {
		switch {
		case id[i] < other[i]:
			return -1
		case id[i] > other[i]:
			return 1
		}
	}
	return 0
}

// IsZero reports whether the id is unset
func (id CommitID) IsZero() bool {
	return id == CommitID{}
}

// Signature identifies an author or committer at a point in time
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is the subset of commit metadata the pipeline consumes
type Commit struct {
	ID        CommitID
	Parents   []CommitID
	Author    Signature
	Committer Signature
	Message   string
}

// NumParents returns the parent count; more than one means a merge.
func (c *Commit) NumParents() int {
	return len(c.Parents)
}

// Reference is a named pointer into the commit graph
type Reference struct {
	Name   string
	Target CommitID
}

// HideFunc marks a commit as hidden during a pruned walk. A hidden commit is
// excluded and its parents are not expanded through it.
type HideFunc func(id CommitID) bool

// PatchFunc retrieves the patch text introduced by a commit.
type PatchFunc func(id CommitID) (string, error)

// Repository is the read-only view of a version-control repository.
type Repository interface {
	// References enumerates every reference that resolves to a commit.
	References() ([]Reference, error)
	// ResolveRevision turns a revision expression into a commit id.
	ResolveRevision(rev string) (CommitID, error)
	// Commit looks up commit metadata by id.
	Commit(id CommitID) (*Commit, error)
	// Walk returns every commit reachable from start through non-hidden commits.
	Walk(start CommitID, hide HideFunc) ([]CommitID, error)
	// Patch returns the commit's patch against its first parent.
	Patch(id CommitID) (string, error)
}

// Error reports a failed repository operation.
type Error struct {
	Op  string
	Rev string
	Err error
}

func (e *Error) Error() string {
	if e.Rev != "" {
		return fmt.Sprintf("repository %s %s: %v", e.Op, e.Rev, e.Err)
	}
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(op, rev string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Rev: rev, Err: err}
}
