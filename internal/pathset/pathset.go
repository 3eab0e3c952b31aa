// Package pathset provides an insertion-ordered set of file paths.
package pathset

// Set keeps the first occurrence of each non-empty path
type Set struct {
	seen  map[string]struct{}
	order []string
}

// New returns a set holding paths
func New(paths ...string) *Set {
	s := &Set{seen: make(map[string]struct{})}
	s.Add(paths...)
	return s
}

// Add inserts paths not seen before; empty strings are ignored
func (s *Set) Add(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := s.seen[p]; ok {
			continue
		}
		s.seen[p] = struct{}{}
		s.order = append(s.order, p)
	}
}

// Len returns the number of distinct paths
func (s *Set) Len() int {
	return len(s.order)
}

// List returns the paths in first-seen order. Never nil, so an empty set
// encodes as [] rather than null.
func (s *Set) List() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Unique deduplicates paths keeping first-seen order
func Unique(paths []string) []string {
	return New(paths...).List()
}
