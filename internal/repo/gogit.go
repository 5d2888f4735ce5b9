package repo

import (
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitRepository implements Repository on top of go-git. Commit lookups are
// memoised for the lifetime of the value.
type GitRepository struct {
	path    string
	repo    *git.Repository
	commits map[CommitID]*Commit
}

// Open opens the repository containing path
func Open(path string) (*GitRepository, error) {
	if path == "" {
		path = "."
	}
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, wrapErr("open", path, err)
	}
	return New(r, path), nil
}

// New wraps an already opened go-git repository
func New(r *git.Repository, path string) *GitRepository {
	return &GitRepository{
		path:    path,
		repo:    r,
		commits: make(map[CommitID]*Commit),
	}
}

// Path returns the path the repository was opened from
func (g *GitRepository) Path() string {
	return g.path
}

// References enumerates references sorted by name. Symbolic references are
// followed and annotated tags are peeled; anything that does not end at a
// commit is left out.
func (g *GitRepository) References() ([]Reference, error) {
	iter, err := g.repo.References()
	if err != nil {
		return nil, wrapErr("references", "", err)
	}
	defer iter.Close()

	var refs []Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target, ok := g.peel(ref)
		if !ok {
			return nil
		}
		refs = append(refs, Reference{Name: ref.Name().String(), Target: target})
		return nil
	})
	if err != nil {
		return nil, wrapErr("references", "", err)
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Name < refs[j].Name
	})
	return refs, nil
}

func (g *GitRepository) peel(ref *plumbing.Reference) (CommitID, bool) {
	if ref.Type() == plumbing.SymbolicReference {
		resolved, err := g.repo.Reference(ref.Name(), true)
		if err != nil {
			return CommitID{}, false
		}
		ref = resolved
	}
	hash := ref.Hash()
	if _, err := g.repo.CommitObject(hash); err == nil {
		return CommitID(hash), true
	}
	tag, err := g.repo.TagObject(hash)
	if err != nil {
		return CommitID{}, false
	}
	c, err := tag.Commit()
	if err != nil {
		return CommitID{}, false
	}
	return CommitID(c.Hash), true
}

// ResolveRevision resolves a revision expression such as a ref name or hash
func (g *GitRepository) ResolveRevision(rev string) (CommitID, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return CommitID{}, wrapErr("resolve", rev, err)
	}
	return CommitID(*hash), nil
}

// Commit returns the metadata for id
func (g *GitRepository) Commit(id CommitID) (*Commit, error) {
	if c, ok := g.commits[id]; ok {
		return c, nil
	}
	obj, err := g.repo.CommitObject(plumbing.Hash(id))
	if err != nil {
		return nil, wrapErr("commit", id.String(), err)
	}
	c := convertCommit(obj)
	g.commits[id] = c
	return c, nil
}

func convertCommit(obj *object.Commit) *Commit {
	parents := make([]CommitID, 0, len(obj.ParentHashes))
	for _, p := range obj.ParentHashes {
		parents = append(parents, CommitID(p))
	}
	return &Commit{
		ID:      CommitID(obj.Hash),
		Parents: parents,
		Author: Signature{
			Name:  obj.Author.Name,
			Email: obj.Author.Email,
			When:  obj.Author.When,
		},
		Committer: Signature{
			Name:  obj.Committer.Name,
			Email: obj.Committer.Email,
			When:  obj.Committer.When,
		},
		Message: obj.Message,
	}
}

// Walk performs a breadth-first walk from start. Hidden commits are dropped
// and their parents are only reached if another non-hidden path leads there.
func (g *GitRepository) Walk(start CommitID, hide HideFunc) ([]CommitID, error) {
	return WalkFrom(g, start, hide)
}

// WalkFrom implements the pruned breadth-first walk over any Repository's
// commit lookups.
func WalkFrom(r Repository, start CommitID, hide HideFunc) ([]CommitID, error) {
	seen := map[CommitID]bool{start: true}
	queue := []CommitID{start}
	var out []CommitID

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if hide != nil && hide(id) {
			continue
		}
		c, err := r.Commit(id)
		if err != nil {
			return nil, wrapErr("walk", id.String(), err)
		}
		out = append(out, id)

		for _, p := range c.Parents {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return out, nil
}

// Patch renders the unified diff of id against its first parent, or against
// the empty tree for a root commit.
func (g *GitRepository) Patch(id CommitID) (string, error) {
	obj, err := g.repo.CommitObject(plumbing.Hash(id))
	if err != nil {
		return "", wrapErr("patch", id.String(), err)
	}
	tree, err := obj.Tree()
	if err != nil {
		return "", wrapErr("patch", id.String(), err)
	}

	base := &object.Tree{}
	if obj.NumParents() > 0 {
		parent, err := obj.Parent(0)
		if err != nil {
			return "", wrapErr("patch", id.String(), err)
		}
		base, err = parent.Tree()
		if err != nil {
			return "", wrapErr("patch", id.String(), err)
		}
	}

	patch, err := base.Patch(tree)
	if err != nil {
		return "", wrapErr("patch", id.String(), err)
	}
	return patch.String(), nil
}

// ConfigOption reads section.option from the merged local and global git
// configuration. An unset option yields "".
func (g *GitRepository) ConfigOption(section, option string) (string, error) {
	cfg, err := g.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return "", wrapErr("config", section+"."+option, err)
	}
	if section == "user" && option == "name" && cfg.User.Name != "" {
		return cfg.User.Name, nil
	}
	if cfg.Raw == nil || !cfg.Raw.HasSection(section) {
		return "", nil
	}
	return cfg.Raw.Section(section).Option(option), nil
}

// Identity returns the configured user.name, the default author filter. An
// unset name yields "".
func (g *GitRepository) Identity() (string, error) {
	return g.ConfigOption("user", "name")
}

// String implements fmt.Stringer for log output.
func (g *GitRepository) String() string {
	return fmt.Sprintf("git repository at %s", g.path)
}
