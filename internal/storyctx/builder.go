// Package storyctx builds per-issue story context: which Jira issues the commit
// history references, what each issue says, and which files its commits touched.
package storyctx

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Options configures a Builder
type Options struct {
	ProjectKey      string
	AcceptanceField string
	Workers         int
}

// Builder runs grouping followed by enrichment
type Builder struct {
	reader  HistoryReader
	fetcher IssueFetcher
	opts    Options
	logger  logrus.FieldLogger
}

// NewBuilder creates a Builder
func NewBuilder(reader HistoryReader, fetcher IssueFetcher, opts Options, logger logrus.FieldLogger) *Builder {
	return &Builder{
		reader:  reader,
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
	}
}

// Groups returns the commit grouping without contacting Jira
func (b *Builder) Groups(ctx context.Context) ([]Group, error) {
	return GroupCommits(ctx, b.reader, b.opts.ProjectKey, b.logger)
}

// Build returns the story context records in grouping order. Never nil.
func (b *Builder) Build(ctx context.Context) ([]IssueRecord, error) {
	groups, err := b.Groups(ctx)
	if err != nil {
		return nil, err
	}

	enricher := NewEnricher(b.fetcher, b.opts.AcceptanceField, b.opts.Workers, b.logger)
	records, err := enricher.Enrich(ctx, groups)
	if err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{
		"issues":  len(groups),
		"records": len(records),
	}).Info("story context built")

	return records, nil
}
