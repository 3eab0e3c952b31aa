package cache

import (
	"context"
	"sync/atomic"

	"github.com/rohankatakam/changectx/internal/git"
)

// changedPathsBucket is versioned so a change in path extraction can start afresh
const changedPathsBucket = "changed_paths.v1"

// HistoryReader is the git history surface that History decorates
type HistoryReader interface {
	Commits(ctx context.Context) ([]git.Commit, error)
	ChangedPaths(ctx context.Context, hash string) ([]string, error)
}

// History serves ChangedPaths from the store, falling back to git on a miss.
// Commit hashes are content addressed, so entries never go stale.
type History struct {
	HistoryReader
	store *Store

	hits   atomic.Int64
	misses atomic.Int64
}

// NewHistory wraps reader with the store
func NewHistory(reader HistoryReader, store *Store) *History {
	return &History{HistoryReader: reader, store: store}
}

// ChangedPaths returns the cached path list for hash, reading the patch only on a miss
func (h *History) ChangedPaths(ctx context.Context, hash string) ([]string, error) {
	var paths []string
	if h.store.Get(changedPathsBucket, hash, &paths) {
		h.hits.Add(1)
		return paths, nil
	}
	h.misses.Add(1)

	paths, err := h.HistoryReader.ChangedPaths(ctx, hash)
	if err != nil {
		return nil, err
	}
	if paths == nil {
		paths = []string{}
	}

	if err := h.store.Put(changedPathsBucket, hash, paths); err != nil {
		h.store.logger.WithError(err).WithField("commit", hash).Warn("failed to cache changed paths")
	}
	return paths, nil
}

// Stats returns the hit and miss counts so far
func (h *History) Stats() (hits, misses int64) {
	return h.hits.Load(), h.misses.Load()
}

// Entries returns the number of commits with cached paths
func (h *History) Entries() int {
	return h.store.Len(changedPathsBucket)
}
