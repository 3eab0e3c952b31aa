// Package gittest builds throw-away git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Repo is a temporary repository rooted at Dir
type Repo struct {
	t   *testing.T
	Dir string

	clock time.Time
}

// New initialises an empty repository in a temp dir. The test is skipped when
// git is not installed.
func New(t *testing.T) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	r := &Repo{
		t:     t,
		Dir:   t.TempDir(),
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	r.Git("init", "--quiet")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "user.name", "Test User")
	r.Git("config", "commit.gpgsign", "false")
	return r
}

// Git runs a git command in the repository and returns trimmed stdout
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	return r.gitEnv(nil, args...)
}

func (r *Repo) gitEnv(env []string, args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", append([]string{"-C", r.Dir}, args...)...)
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// Write creates or overwrites a file relative to the repository root
func (r *Repo) Write(path, content string) {
	r.t.Helper()
	full := filepath.Join(r.Dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		r.t.Fatal(err)
	}
}

// Remove deletes a tracked file
func (r *Repo) Remove(path string) {
	r.t.Helper()
	r.Git("rm", "--quiet", path)
}

// Commit stages everything and commits it one hour after the previous commit.
// Returns the new commit hash.
func (r *Repo) Commit(message string) string {
	r.t.Helper()
	r.clock = r.clock.Add(time.Hour)
	return r.CommitAt(message, r.clock)
}

// CommitAt stages everything and commits with fixed author and committer dates
func (r *Repo) CommitAt(message string, when time.Time) string {
	r.t.Helper()
	stamp := when.Format(time.RFC3339)
	env := []string{"GIT_AUTHOR_DATE=" + stamp, "GIT_COMMITTER_DATE=" + stamp}

	r.Git("add", "-A")
	r.gitEnv(env, "commit", "--quiet", "--allow-empty", "-m", message)
	return r.Git("rev-parse", "HEAD")
}
