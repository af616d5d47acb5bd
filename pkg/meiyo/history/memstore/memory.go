package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/meiyo/pkg/meiyo/history"
)

// Store is an in-memory implementation of history.Store.
type Store struct {
	mu      sync.RWMutex
	queries map[string]int64
	reports []history.Report
	now     func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		queries: make(map[string]int64),
		now:     time.Now,
	}
}

// Close implements history.Store.
func (s *Store) Close() error { return nil }

// IncrementQuery bumps the count for text and returns the new value.
func (s *Store) IncrementQuery(ctx context.Context, text string) (int64, error) {
	q, err := history.CleanQuery(text)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries[q]++
	return s.queries[q], nil
}

// QueryCount returns how often text was submitted.
func (s *Store) QueryCount(ctx context.Context, text string) (int64, error) {
	q, err := history.CleanQuery(text)
	if err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries[q], nil
}

// TopQueries returns the k most submitted texts.
func (s *Store) TopQueries(ctx context.Context, k int) ([]history.QueryCount, error) {
	s.mu.RLock()
	out := make([]history.QueryCount, 0, len(s.queries))
	for q, c := range s.queries {
		out = append(out, history.QueryCount{Query: q, Count: c})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// AddReport stores a validated report.
func (s *Store) AddReport(ctx context.Context, r history.Report) (history.Report, error) {
	r, err := history.PrepareReport(r, s.now())
	if err != nil {
		return r, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return r, nil
}

// Reports returns the newest reports first.
func (s *Store) Reports(ctx context.Context, limit int) ([]history.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.reports)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]history.Report, 0, n)
	for i := len(s.reports) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.reports[i])
	}
	return out, nil
}

var _ history.Store = (*Store)(nil)
