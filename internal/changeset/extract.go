// Package changeset reports the distinct files changed in the frontend and
// backend repositories for one issue identifier or one date range.
package changeset

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/changectx/internal/git"
	"github.com/rohankatakam/changectx/internal/pathset"
)

// FileLister is the subset of git.Reader used for extraction
type FileLister interface {
	ChangedFiles(ctx context.Context, filter git.LogFilter) ([]string, error)
}

// ChangeSet is the content of changes.json
type ChangeSet struct {
	Jira     string   `json:"jira" yaml:"jira"`
	Frontend []string `json:"frontend" yaml:"frontend"`
	Backend  []string `json:"backend" yaml:"backend"`
}

// Extractor queries the two repositories, frontend first
type Extractor struct {
	frontend FileLister
	backend  FileLister
	logger   logrus.FieldLogger
}

// NewExtractor creates an Extractor
func NewExtractor(frontend, backend FileLister, logger logrus.FieldLogger) *Extractor {
	return &Extractor{
		frontend: frontend,
		backend:  backend,
		logger:   logger,
	}
}

// Extract runs the filtered log query against both repositories and
// deduplicates each result. Empty results are empty lists, never nil.
func (e *Extractor) Extract(ctx context.Context, filter Filter) (*ChangeSet, error) {
	frontend, err := e.collect(ctx, "frontend", e.frontend, filter)
	if err != nil {
		return nil, err
	}

	backend, err := e.collect(ctx, "backend", e.backend, filter)
	if err != nil {
		return nil, err
	}

	return &ChangeSet{
		Jira:     filter.Label(),
		Frontend: frontend,
		Backend:  backend,
	}, nil
}

func (e *Extractor) collect(ctx context.Context, role string, lister FileLister, filter Filter) ([]string, error) {
	files, err := lister.ChangedFiles(ctx, filter.LogFilter())
	if err != nil {
		return nil, err
	}

	unique := pathset.Unique(files)
	e.logger.WithFields(logrus.Fields{
		"repo":   role,
		"filter": filter.Label(),
		"files":  len(unique),
	}).Info("collected changed files")

	return unique, nil
}
