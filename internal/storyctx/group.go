package storyctx

import (
	"context"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/changectx/internal/git"
	"github.com/rohankatakam/changectx/internal/pathset"
)

// HistoryReader is the subset of git.Reader used for grouping
type HistoryReader interface {
	Commits(ctx context.Context) ([]git.Commit, error)
	ChangedPaths(ctx context.Context, hash string) ([]string, error)
}

// Group is one issue identifier with the files touched by the commits that mention it
type Group struct {
	ID      string
	Commits int
	Files   []string
}

// IssuePattern matches "<prefix>-<digits>", case sensitive
func IssuePattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(prefix) + `-[0-9]+`)
}

// ReferencedIDs returns the distinct identifiers in message, in order of appearance
func ReferencedIDs(pattern *regexp.Regexp, message string) []string {
	matches := pattern.FindAllString(message, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			ids = append(ids, m)
		}
	}
	return ids
}

// GroupCommits walks the full history once and collects, per referenced issue,
// the union of paths changed by every commit whose message mentions it.
// A commit's patch is only read when its message references at least one issue.
// Groups are returned in order of first discovery.
func GroupCommits(ctx context.Context, reader HistoryReader, projectKey string, logger logrus.FieldLogger) ([]Group, error) {
	pattern := IssuePattern(projectKey)

	commits, err := reader.Commits(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []Group
	var sets []*pathset.Set
	touched := pathset.New()

	matched := 0
	for _, commit := range commits {
		ids := ReferencedIDs(pattern, commit.Message)
		if len(ids) == 0 {
			continue
		}
		matched++

		paths, err := reader.ChangedPaths(ctx, commit.Hash)
		if err != nil {
			return nil, err
		}
		touched.Add(paths...)

		for _, id := range ids {
			i, ok := index[id]
			if !ok {
				i = len(groups)
				index[id] = i
				groups = append(groups, Group{ID: id})
				sets = append(sets, pathset.New())
			}
			groups[i].Commits++
			sets[i].Add(paths...)
		}
	}

	for i := range groups {
		groups[i].Files = sets[i].List()
	}

	logger.WithFields(logrus.Fields{
		"commits":         len(commits),
		"matched_commits": matched,
		"issues":          len(groups),
		"files":           touched.Len(),
	}).Info("grouped commits by issue")

	return groups, nil
}
