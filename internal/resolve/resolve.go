package resolve

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/cj3636/gcontains/internal/repo"
	"github.com/cj3636/gcontains/internal/selector"
)

// DefaultRemote is the remote whose tracking branches are considered.
const DefaultRemote = "origin"

// RefPattern extracts branch short names from remote-tracking references.
type RefPattern struct {
	re *regexp.Regexp
}

// NewRefPattern matches refs/remotes/<remote>/<name>
func NewRefPattern(remote string) *RefPattern {
	if remote == "" {
		remote = DefaultRemote
	}
	return &RefPattern{re: regexp.MustCompile("^refs/remotes/" + regexp.QuoteMeta(remote) + "/(.+)$")}
}

// ShortName returns the branch name for a remote-tracking ref
func (p *RefPattern) ShortName(ref string) (string, bool) {
	m := p.re.FindStringSubmatch(ref)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// TrackedBranch is a concrete branch selected for display.
type TrackedBranch struct {
	Name        string
	Head        repo.CommitID
	Priority    int
	ShowIfEmpty bool
	Source      selector.Kind
}

// Origin records which selector produced a branch name.
type Origin struct {
	Priority    int
	ShowIfEmpty bool
}

// Registry maps branch names to their originating selector. When two
// selectors produce the same name the last one registered wins.
type Registry map[string]Origin

// Lookup returns the origin of name, if any
func (r Registry) Lookup(name string) (Origin, bool) {
	o, ok := r[name]
	return o, ok
}

// Result is the output of a resolution run.
type Result struct {
	Branches []TrackedBranch
	Registry Registry
}

// Resolver turns selectors into tracked branches.
type Resolver struct {
	Repo      repo.Repository
	Selectors *selector.Set
	Refs      *RefPattern

	// RefScript is the trigger program path; HomePlaceholder is expanded
	// with Home. Trigger selectors are ignored when it is empty.
	RefScript string
	Home      string
	Trigger   TriggerFunc

	Logger *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Resolve matches remote-tracking references against the pattern selectors
// and then runs every trigger selector. Any repository or trigger failure
// aborts the whole resolution.
func (r *Resolver) Resolve() (*Result, error) {
	res := &Result{Registry: make(Registry)}

	if err := r.resolvePatterns(res); err != nil {
		return nil, err
	}
	if err := r.resolveTriggers(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Resolver) resolvePatterns(res *Result) error {
	refs, err := r.Repo.References()
	if err != nil {
		return fmt.Errorf("listing references: %w", err)
	}

	pattern := r.Refs
	if pattern == nil {
		pattern = NewRefPattern(DefaultRemote)
	}
	log := r.logger()

	for _, ref := range refs {
		name, ok := pattern.ShortName(ref.Name)
		if !ok {
			continue
		}
		sel, ok := r.Selectors.FirstMatch(name)
		if !ok {
			log.Debug("skipping reference", "ref", ref.Name, "reason", "no matching selector")
			continue
		}
		res.add(TrackedBranch{
			Name:        name,
			Head:        ref.Target,
			Priority:    sel.Priority,
			ShowIfEmpty: sel.ShowIfEmpty,
			Source:      selector.Pattern,
		})
		log.Debug("tracking branch", "branch", name, "selector", sel.Raw, "priority", sel.Priority)
	}
	return nil
}

func (r *Resolver) resolveTriggers(res *Result) error {
	triggers := r.Selectors.Triggers()
	if len(triggers) == 0 {
		return nil
	}
	log := r.logger()
	if r.RefScript == "" {
		log.Warn("trigger selectors given but no refscript is configured", "count", len(triggers))
		return nil
	}

	run := r.Trigger
	if run == nil {
		run = ExecTrigger
	}
	program := ExpandHome(r.RefScript, r.Home)

	for _, sel := range triggers {
		out, err := run(program, sel.Expr)
		if err != nil {
			return &TriggerError{Program: program, Arg: sel.Expr, Err: err}
		}
		parsed, ok, err := parseTriggerOutput(out)
		if err != nil {
			return &TriggerError{Program: program, Arg: sel.Expr, Err: err}
		}
		if !ok {
			log.Debug("trigger produced no branch", "selector", sel.Raw, "reason", "fewer than two lines")
			continue
		}
		head, err := r.Repo.ResolveRevision(parsed.Revision)
		if err != nil {
			return fmt.Errorf("trigger %q revision: %w", sel.Raw, err)
		}
		res.add(TrackedBranch{
			Name:        parsed.Name,
			Head:        head,
			Priority:    sel.Priority,
			ShowIfEmpty: sel.ShowIfEmpty,
			Source:      selector.Trigger,
		})
		log.Debug("tracking branch", "branch", parsed.Name, "selector", sel.Raw, "revision", parsed.Revision)
	}
	return nil
}

func (res *Result) add(b TrackedBranch) {
	res.Branches = append(res.Branches, b)
	res.Registry[b.Name] = Origin{Priority: b.Priority, ShowIfEmpty: b.ShowIfEmpty}
}
