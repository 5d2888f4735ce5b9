package tui

import (
	"fmt"
	"strings"
)

// RepoContext carries repository state shown in the title bar.
type RepoContext struct {
	Path   string
	Remote string
	Author string
	Days   int
	Search string
}

func (c RepoContext) describe() string {
	parts := []string{c.Path}
	if c.Remote != "" {
		parts = append(parts, "remote "+c.Remote)
	}
	if c.Days > 0 {
		parts = append(parts, fmt.Sprintf("last %dd", c.Days))
	}
	if c.Author != "" {
		parts = append(parts, "author "+c.Author)
	}
	if c.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", c.Search))
	}
	return strings.Join(parts, " · ")
}
