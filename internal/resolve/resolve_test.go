package resolve

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/cj3636/gcontains/internal/repo"
	"github.com/cj3636/gcontains/internal/repo/repotest"
	"github.com/cj3636/gcontains/internal/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRepo() *repotest.Repo {
	r := repotest.New()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, label := range []string{"a", "b", "c", "d", "e"} {
		r.Add(repotest.CommitSpec{Label: label, Author: "dev", When: now, Message: label})
	}
	r.SetRef("refs/remotes/origin/release/1.0", "a")
	r.SetRef("refs/remotes/origin/hotfix/9", "b")
	r.SetRef("refs/remotes/origin/feature/x", "c")
	r.SetRef("refs/remotes/upstream/release/2.0", "d")
	r.SetRef("refs/heads/release/3.0", "e")
	return r
}

func mustSet(t *testing.T, specs ...string) *selector.Set {
	t.Helper()
	set, err := selector.ParseAll(specs)
	require.NoError(t, err)
	return set
}

func byName(branches []TrackedBranch) map[string]TrackedBranch {
	m := make(map[string]TrackedBranch)
	for _, b := range branches {
		m[b.Name] = b
	}
	return m
}

func TestRefPattern(t *testing.T) {
	p := NewRefPattern("origin")
	name, ok := p.ShortName("refs/remotes/origin/release/1.0")
	require.True(t, ok)
	assert.Equal(t, "release/1.0", name)

	_, ok = p.ShortName("refs/remotes/upstream/main")
	assert.False(t, ok)
	_, ok = p.ShortName("refs/heads/main")
	assert.False(t, ok)

	up := NewRefPattern("up.stream")
	_, ok = up.ShortName("refs/remotes/upXstream/main")
	assert.False(t, ok, "remote name is matched literally")

	def := NewRefPattern("")
	_, ok = def.ShortName("refs/remotes/origin/main")
	assert.True(t, ok)
}

func TestResolve_PatternPriorities(t *testing.T) {
	r := &Resolver{
		Repo:      fixtureRepo(),
		Selectors: mustSet(t, "release/*", "!hotfix/*"),
		Refs:      NewRefPattern("origin"),
	}
	res, err := r.Resolve()
	require.NoError(t, err)

	got := byName(res.Branches)
	require.Len(t, got, 2, "feature/x, upstream and local refs are dropped")

	rel := got["release/1.0"]
	assert.Equal(t, 0, rel.Priority)
	assert.False(t, rel.ShowIfEmpty)
	assert.Equal(t, repotest.ID("a"), rel.Head)
	assert.Equal(t, selector.Pattern, rel.Source)

	hot := got["hotfix/9"]
	assert.Equal(t, 1, hot.Priority)
	assert.True(t, hot.ShowIfEmpty)

	origin, ok := res.Registry.Lookup("hotfix/9")
	require.True(t, ok)
	assert.Equal(t, Origin{Priority: 1, ShowIfEmpty: true}, origin)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	r := &Resolver{
		Repo:      fixtureRepo(),
		Selectors: mustSet(t, "*", "!release/*"),
	}
	res, err := r.Resolve()
	require.NoError(t, err)

	rel := byName(res.Branches)["release/1.0"]
	assert.Equal(t, 0, rel.Priority, "the later, more specific selector is never consulted")
	assert.False(t, rel.ShowIfEmpty)
}

func TestResolve_Trigger(t *testing.T) {
	var calls []string
	trigger := func(program, arg string) ([]byte, error) {
		calls = append(calls, program+" "+arg)
		switch arg {
		case "review:42":
			return []byte("review-42\nd\nignored third line\n"), nil
		case "review:43":
			return []byte("only-one-line\n"), nil
		}
		return nil, errors.New("unexpected argument")
	}

	r := &Resolver{
		Repo:      fixtureRepo(),
		Selectors: mustSet(t, "release/*", "!review:42", "review:43"),
		RefScript: "${HOME}/bin/refscript",
		Home:      "/home/dev",
		Trigger:   trigger,
	}
	res, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/home/dev/bin/refscript review:42",
		"/home/dev/bin/refscript review:43",
	}, calls)

	got := byName(res.Branches)
	require.Len(t, got, 2)
	rev := got["review-42"]
	assert.Equal(t, repotest.ID("d"), rev.Head)
	assert.Equal(t, 1, rev.Priority)
	assert.True(t, rev.ShowIfEmpty)
	assert.Equal(t, selector.Trigger, rev.Source)
}

func TestResolve_TriggerWithoutRefScript(t *testing.T) {
	called := false
	r := &Resolver{
		Repo:      fixtureRepo(),
		Selectors: mustSet(t, "review:1"),
		Trigger: func(string, string) ([]byte, error) {
			called = true
			return nil, nil
		},
	}
	res, err := r.Resolve()
	require.NoError(t, err)
	assert.Empty(t, res.Branches)
	assert.False(t, called)
}

func TestResolve_TriggerLastWriterWins(t *testing.T) {
	r := &Resolver{
		Repo:      fixtureRepo(),
		Selectors: mustSet(t, "release/*", "!pin:release"),
		RefScript: "refscript",
		Trigger: func(string, string) ([]byte, error) {
			return []byte("release/1.0\ne\n"), nil
		},
	}
	res, err := r.Resolve()
	require.NoError(t, err)
	require.Len(t, res.Branches, 2)
	assert.Equal(t, Origin{Priority: 1, ShowIfEmpty: true}, res.Registry["release/1.0"])
}

func TestResolve_Errors(t *testing.T) {
	t.Run("trigger failure", func(t *testing.T) {
		r := &Resolver{
			Repo:      fixtureRepo(),
			Selectors: mustSet(t, "x:y"),
			RefScript: "refscript",
			Trigger: func(string, string) ([]byte, error) {
				return nil, errors.New("exit status 2")
			},
		}
		_, err := r.Resolve()
		var terr *TriggerError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "x:y", terr.Arg)
	})

	t.Run("non utf8 output", func(t *testing.T) {
		r := &Resolver{
			Repo:      fixtureRepo(),
			Selectors: mustSet(t, "x:y"),
			RefScript: "refscript",
			Trigger: func(string, string) ([]byte, error) {
				return []byte{0xff, 0xfe, '\n', 'a', '\n'}, nil
			},
		}
		_, err := r.Resolve()
		assert.ErrorIs(t, err, ErrNonUTF8)
	})

	t.Run("unresolvable revision", func(t *testing.T) {
		r := &Resolver{
			Repo:      fixtureRepo(),
			Selectors: mustSet(t, "x:y"),
			RefScript: "refscript",
			Trigger: func(string, string) ([]byte, error) {
				return []byte("name\nno-such-rev\n"), nil
			},
		}
		_, err := r.Resolve()
		var rerr *repo.Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "no-such-rev", rerr.Rev)
	})
}

func TestParseTriggerOutput(t *testing.T) {
	out, ok, err := parseTriggerOutput([]byte("name\r\nrev\r\n"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, triggerOutput{Name: "name", Revision: "rev"}, out)

	_, ok, err = parseTriggerOutput([]byte(""))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = parseTriggerOutput([]byte("name\n"))
	require.NoError(t, err)
	assert.False(t, ok)

	out, ok, err = parseTriggerOutput([]byte("name\nrev"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rev", out.Revision)
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/a/x", ExpandHome("${HOME}/x", "/home/a"))
	assert.Equal(t, "${HOME}/x", ExpandHome("${HOME}/x", ""))
	assert.Equal(t, "/usr/bin/x", ExpandHome("/usr/bin/x", "/home/a"))
}

func TestUserHome(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Setenv("HOME", "/home/dev")
	assert.Equal(t, "/home/dev", UserHome(log))
	assert.Empty(t, buf.String())

	t.Setenv("HOME", "")
	assert.Equal(t, "", UserHome(log))
	assert.Contains(t, buf.String(), "home directory unknown")
}
