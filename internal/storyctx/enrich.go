package storyctx

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/changectx/internal/jira"
)

// IssueFetcher is the subset of jira.Client used for enrichment
type IssueFetcher interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
}

// IssueRecord is one entry of story_context.json
type IssueRecord struct {
	ID                 string   `json:"id" yaml:"id"`
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description" yaml:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria" yaml:"acceptanceCriteria"`
	FilesChanged       []string `json:"filesChanged" yaml:"filesChanged"`
}

// Enricher turns groups into issue records by fetching each issue from Jira.
// Issues that cannot be fetched are logged and left out.
type Enricher struct {
	fetcher         IssueFetcher
	acceptanceField string
	workers         int
	logger          logrus.FieldLogger
}

// NewEnricher creates an Enricher. workers <= 1 fetches sequentially.
func NewEnricher(fetcher IssueFetcher, acceptanceField string, workers int, logger logrus.FieldLogger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{
		fetcher:         fetcher,
		acceptanceField: acceptanceField,
		workers:         workers,
		logger:          logger,
	}
}

// Enrich returns one record per successfully fetched group, in group order.
// The only error it returns is context cancellation.
func (e *Enricher) Enrich(ctx context.Context, groups []Group) ([]IssueRecord, error) {
	results := make([]*IssueRecord, len(groups))

	if e.workers == 1 {
		for i, group := range groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = e.fetch(ctx, group)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for i, group := range groups {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = e.fetch(gctx, group)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]IssueRecord, 0, len(groups))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}

	if dropped := len(groups) - len(records); dropped > 0 {
		e.logger.WithField("dropped", dropped).Warn("some issues could not be fetched and were left out")
	}

	return records, nil
}

func (e *Enricher) fetch(ctx context.Context, group Group) *IssueRecord {
	issue, err := e.fetcher.GetIssue(ctx, group.ID)
	if err != nil {
		if ctx.Err() == nil {
			e.logger.WithError(err).WithField("issue", group.ID).Error("failed to fetch issue")
		}
		return nil
	}

	description, ok := jira.DescriptionText(issue.Fields.Description)
	if !ok {
		e.logger.WithField("issue", group.ID).Debug("issue has no description text")
	}

	var criteria []string
	if e.acceptanceField != "" {
		criteria = jira.NormalizeAcceptanceCriteria(issue.Fields.Field(e.acceptanceField))
	} else {
		criteria = []string{}
	}

	files := group.Files
	if files == nil {
		files = []string{}
	}

	return &IssueRecord{
		ID:                 group.ID,
		Title:              issue.Fields.Summary,
		Description:        description,
		AcceptanceCriteria: criteria,
		FilesChanged:       files,
	}
}
