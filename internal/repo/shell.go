package repo

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitShowPatch returns a PatchFunc that shells out to `git show` in repoRoot,
// matching what a user would see on the command line.
func GitShowPatch(repoRoot string) PatchFunc {
	return func(id CommitID) (string, error) {
		out, err := gitCommand(repoRoot, "show", id.String(), "--format=")
		if err != nil {
			return "", wrapErr("patch", id.String(), err)
		}
		return out, nil
	}
}

func gitCommand(repoRoot string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", repoRoot}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}
