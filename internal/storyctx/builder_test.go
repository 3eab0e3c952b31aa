package storyctx

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/changectx/internal/errors"
	"github.com/rohankatakam/changectx/internal/git"
	"github.com/rohankatakam/changectx/internal/git/gittest"
	"github.com/rohankatakam/changectx/internal/jira"
	"github.com/rohankatakam/changectx/internal/logging"
)

type fakeHistory struct {
	commits []git.Commit
	paths   map[string][]string

	mu    sync.Mutex
	reads map[string]int
}

func (f *fakeHistory) Commits(ctx context.Context) ([]git.Commit, error) {
	return f.commits, nil
}

func (f *fakeHistory) ChangedPaths(ctx context.Context, hash string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reads == nil {
		f.reads = make(map[string]int)
	}
	f.reads[hash]++
	return f.paths[hash], nil
}

type fakeJira struct {
	issues map[string]string // key -> raw issue JSON

	mu    sync.Mutex
	calls []string
}

func (f *fakeJira) GetIssue(ctx context.Context, key string) (*jira.Issue, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	body, ok := f.issues[key]
	if !ok {
		return nil, errors.ExternalErrorf(jira.ErrNotFound, "jira API returned 404 for %s", key)
	}
	var issue jira.Issue
	if err := json.Unmarshal([]byte(body), &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func issueJSON(summary, description string, criteria string) string {
	return fmt.Sprintf(`{"fields":{"summary":%q,"description":{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":%q}]}]},"customfield_1":%s}}`,
		summary, description, criteria)
}

func TestGroupCommits(t *testing.T) {
	history := &fakeHistory{
		commits: []git.Commit{
			{Hash: "c3", Message: "PROJ-7 and PROJ-7 again, plus PROJ-8"},
			{Hash: "c2", Message: "no reference here (proj-7 is lowercase)"},
			{Hash: "c1", Message: "Fix thing, closes PROJ-7"},
		},
		paths: map[string][]string{
			"c3": {"src/a.ts", "src/b.ts"},
			"c2": {"ignored.ts"},
			"c1": {"src/b.ts", "src/c.ts"},
		},
	}

	groups, err := GroupCommits(context.Background(), history, "PROJ", logging.Discard())
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, Group{ID: "PROJ-7", Commits: 2, Files: []string{"src/a.ts", "src/b.ts", "src/c.ts"}}, groups[0])
	assert.Equal(t, Group{ID: "PROJ-8", Commits: 1, Files: []string{"src/a.ts", "src/b.ts"}}, groups[1])

	assert.Equal(t, map[string]int{"c3": 1, "c1": 1}, history.reads, "patch is read once per matching commit only")
}

func TestGroupCommits_PrefixIsLiteral(t *testing.T) {
	history := &fakeHistory{
		commits: []git.Commit{
			{Hash: "c1", Message: "AXB-1 should not match A.B"},
			{Hash: "c2", Message: "A.B-12 matches"},
		},
		paths: map[string][]string{"c2": {"x.go"}},
	}

	groups, err := GroupCommits(context.Background(), history, "A.B", logging.Discard())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "A.B-12", groups[0].ID)
}

func TestReferencedIDs(t *testing.T) {
	pattern := IssuePattern("PROJ")

	assert.Nil(t, ReferencedIDs(pattern, "nothing"))
	assert.Equal(t, []string{"PROJ-12", "PROJ-3"}, ReferencedIDs(pattern, "PROJ-12 PROJ-3 PROJ-12 PROJ- PROJ-x"))
	assert.Equal(t, []string{"PROJ-1"}, ReferencedIDs(pattern, "SUBPROJ-1"), "substring occurrences count")
}

func TestBuild(t *testing.T) {
	history := &fakeHistory{
		commits: []git.Commit{
			{Hash: "c2", Message: "PROJ-2 second"},
			{Hash: "c1", Message: "PROJ-1 first"},
		},
		paths: map[string][]string{
			"c2": {"b.ts"},
			"c1": {"a.ts"},
		},
	}
	fetcher := &fakeJira{issues: map[string]string{
		"PROJ-1": issueJSON("First", "one", `"single criterion"`),
		"PROJ-2": issueJSON("Second", "two", `["x","y"]`),
	}}

	builder := NewBuilder(history, fetcher, Options{ProjectKey: "PROJ", AcceptanceField: "customfield_1"}, logging.Discard())
	records, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []IssueRecord{
		{ID: "PROJ-2", Title: "Second", Description: "two", AcceptanceCriteria: []string{"x", "y"}, FilesChanged: []string{"b.ts"}},
		{ID: "PROJ-1", Title: "First", Description: "one", AcceptanceCriteria: []string{"single criterion"}, FilesChanged: []string{"a.ts"}},
	}, records)
}

func TestBuild_DropsIssuesThatFailToFetch(t *testing.T) {
	history := &fakeHistory{
		commits: []git.Commit{
			{Hash: "c2", Message: "PROJ-404 missing"},
			{Hash: "c1", Message: "PROJ-1 present"},
		},
		paths: map[string][]string{"c1": {"a.ts"}, "c2": {"b.ts"}},
	}
	fetcher := &fakeJira{issues: map[string]string{
		"PROJ-1": issueJSON("First", "one", `null`),
	}}

	records, err := NewBuilder(history, fetcher, Options{ProjectKey: "PROJ", AcceptanceField: "customfield_1"}, logging.Discard()).
		Build(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "PROJ-1", records[0].ID)
	assert.Equal(t, []string{}, records[0].AcceptanceCriteria)
	assert.ElementsMatch(t, []string{"PROJ-404", "PROJ-1"}, fetcher.calls)
}

func TestBuild_NoAcceptanceFieldConfigured(t *testing.T) {
	history := &fakeHistory{
		commits: []git.Commit{{Hash: "c1", Message: "PROJ-1"}},
	}
	fetcher := &fakeJira{issues: map[string]string{
		"PROJ-1": `{"fields":{"summary":"Only title","customfield_1":"ignored"}}`,
	}}

	records, err := NewBuilder(history, fetcher, Options{ProjectKey: "PROJ"}, logging.Discard()).Build(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Description)
	assert.Equal(t, []string{}, records[0].AcceptanceCriteria)
	assert.Equal(t, []string{}, records[0].FilesChanged)

	data, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"PROJ-1","title":"Only title","description":"","acceptanceCriteria":[],"filesChanged":[]}`, string(data))
}

func TestBuild_ConcurrentKeepsGroupingOrder(t *testing.T) {
	history := &fakeHistory{paths: map[string][]string{}}
	fetcher := &fakeJira{issues: map[string]string{}}
	for i := 20; i >= 1; i-- {
		hash := fmt.Sprintf("c%d", i)
		key := fmt.Sprintf("PROJ-%d", i)
		history.commits = append(history.commits, git.Commit{Hash: hash, Message: key})
		history.paths[hash] = []string{fmt.Sprintf("file%d.go", i)}
		if i%5 != 0 {
			fetcher.issues[key] = issueJSON("t"+key, "d", `[]`)
		}
	}

	sequential, err := NewBuilder(history, fetcher, Options{ProjectKey: "PROJ", AcceptanceField: "customfield_1", Workers: 1}, logging.Discard()).
		Build(context.Background())
	require.NoError(t, err)

	concurrent, err := NewBuilder(history, fetcher, Options{ProjectKey: "PROJ", AcceptanceField: "customfield_1", Workers: 8}, logging.Discard()).
		Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, sequential, 16)
	assert.Equal(t, sequential, concurrent)
	assert.Equal(t, "PROJ-19", sequential[0].ID)
}

func TestBuild_Cancelled(t *testing.T) {
	history := &fakeHistory{
		commits: []git.Commit{{Hash: "c1", Message: "PROJ-1"}},
	}
	fetcher := &fakeJira{issues: map[string]string{"PROJ-1": issueJSON("t", "d", `[]`)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(history, fetcher, Options{ProjectKey: "PROJ"}, logging.Discard()).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_AgainstRepository(t *testing.T) {
	repo := gittest.New(t)
	repo.Write("a.ts", "shared\n")
	repo.Commit("PROJ-1 add a")
	repo.Remove("a.ts")
	repo.Write("b.ts", "shared\n")
	repo.Commit("PROJ-1 move a to b")
	repo.Write("c.ts", "c\n")
	repo.Commit("chore: unrelated")

	fetcher := &fakeJira{issues: map[string]string{"PROJ-1": issueJSON("Move", "m", `[]`)}}
	builder := NewBuilder(git.NewReader(repo.Dir, logging.Discard()), fetcher,
		Options{ProjectKey: "PROJ", AcceptanceField: "customfield_1"}, logging.Discard())

	first, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.ElementsMatch(t, []string{"a.ts", "b.ts"}, first[0].FilesChanged)

	second, err := builder.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGroupCommits_BodyReferencesDoNotCount(t *testing.T) {
	repo := gittest.New(t)
	repo.Write("a.ts", "a\n")
	repo.Commit("PROJ-1 add a")
	repo.Write("b.ts", "b\n")
	repo.Commit("Add b\n\nCloses PROJ-2, see also PROJ-1")

	groups, err := GroupCommits(context.Background(), git.NewReader(repo.Dir, logging.Discard()), "PROJ", logging.Discard())
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, Group{ID: "PROJ-1", Commits: 1, Files: []string{"a.ts"}}, groups[0])
}
