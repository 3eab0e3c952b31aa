package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rohankatakam/changectx/internal/errors"
)

// DetectGitRepo checks that path exists and lies inside a git working tree.
// Uses git rev-parse so worktrees and submodules are recognised.
func DetectGitRepo(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.GitErrorf(err, "repository path %s is not accessible", path)
	}
	if !info.IsDir() {
		return errors.GitErrorf(fmt.Errorf("not a directory"), "repository path %s is not a directory", path)
	}

	cmd := exec.CommandContext(ctx, "git", "-C", path, "rev-parse", "--is-inside-work-tree")
	out, err := cmd.Output()
	if err != nil || strings.TrimSpace(string(out)) != "true" {
		if err == nil {
			err = fmt.Errorf("rev-parse reported %q", strings.TrimSpace(string(out)))
		}
		return errors.GitErrorf(err, "%s is not a git repository", path)
	}
	return nil
}

// HeadSHA returns the commit HEAD points at, or "" for a repository with no commits
func HeadSHA(ctx context.Context, path string) string {
	cmd := exec.CommandContext(ctx, "git", "-C", path, "rev-parse", "--verify", "--quiet", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
