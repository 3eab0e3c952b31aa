package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/changectx/internal/errors"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Commit is a hash-identified change with its subject line as Message.
type Commit struct {
	Hash    string
	Message string
}

// LogFilter restricts a log query. Grep is a fixed-string substring match on
// the commit message; Since/Until are handed to git unparsed.
type LogFilter struct {
	Grep  string
	Since string
	Until string
}

// Reader runs git against a single repository
type Reader struct {
	repoPath string
	logger   logrus.FieldLogger
}

// NewReader creates a Reader for the repository at repoPath
func NewReader(repoPath string, logger logrus.FieldLogger) *Reader {
	return &Reader{
		repoPath: repoPath,
		logger:   logger.WithField("repo", repoPath),
	}
}

// RepoPath returns the repository location the reader was created with
func (r *Reader) RepoPath() string {
	return r.repoPath
}

// Commits returns the full history reachable from HEAD in git's default
// (newest first) order. Message holds the subject line only; references in the
// body do not count. A repository without commits yields an empty history.
func (r *Reader) Commits(ctx context.Context) ([]Commit, error) {
	if HeadSHA(ctx, r.repoPath) == "" {
		return nil, nil
	}
	out, err := r.run(ctx, "log", "--pretty=format:%H"+fieldSep+"%s"+recordSep)
	if err != nil {
		return nil, err
	}
	return parseCommitLog(string(out)), nil
}

// Patch returns the textual diff of one commit. The a/ and b/ prefixes are
// forced so user settings such as diff.noprefix cannot change the headers.
func (r *Reader) Patch(ctx context.Context, hash string) (string, error) {
	out, err := r.run(ctx, "show", "--no-color", "--no-ext-diff", "--no-renames",
		"--src-prefix=a/", "--dst-prefix=b/", "--format=", "--patch", hash)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ChangedPaths returns every path on either side of the file changes in one commit
func (r *Reader) ChangedPaths(ctx context.Context, hash string) ([]string, error) {
	patch, err := r.Patch(ctx, hash)
	if err != nil {
		return nil, err
	}
	return PathsFromPatch(patch), nil
}

// ChangedFiles lists the paths touched by every commit matching filter, one
// entry per commit per file, blank lines removed. Duplicates are kept.
func (r *Reader) ChangedFiles(ctx context.Context, filter LogFilter) ([]string, error) {
	if HeadSHA(ctx, r.repoPath) == "" {
		return nil, nil
	}
	args := []string{"log", "--name-only", "--pretty=format:"}
	if filter.Grep != "" {
		args = append(args, "--fixed-strings", "--grep="+filter.Grep)
	}
	if filter.Since != "" {
		args = append(args, "--since="+filter.Since)
	}
	if filter.Until != "" {
		args = append(args, "--until="+filter.Until)
	}

	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		files = append(files, unquotePath(line))
	}
	return files, nil
}

func (r *Reader) run(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{
		"-C", r.repoPath,
		"-c", "core.quotePath=false",
		"-c", "diff.noprefix=false",
		"-c", "diff.mnemonicPrefix=false",
	}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.WithField("args", strings.Join(args, " ")).Debug("running git")

	out, err := cmd.Output()
	if err != nil {
		return nil, errors.GitErrorf(err, "git %s failed in %s (stderr: %s)",
			args[0], r.repoPath, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// parseCommitLog splits "%H<US>%s<RS>" records
func parseCommitLog(output string) []Commit {
	var commits []Commit
	for _, record := range strings.Split(output, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}

		parts := strings.SplitN(record, fieldSep, 2)
		hash := strings.TrimSpace(parts[0])
		if hash == "" {
			continue
		}

		commit := Commit{Hash: hash}
		if len(parts) == 2 {
			commit.Message = strings.TrimRight(parts[1], "\n")
		}
		commits = append(commits, commit)
	}
	return commits
}
