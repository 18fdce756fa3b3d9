package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"comptadoc/src/core/document"
)

// Embedder converts free text into a fixed-length vector. Any error means the
// embedding is unavailable and the calling strategy degrades explicitly.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service runs the five search strategies. Each invocation is stateless: a
// pure function of the request, the visible document set and at most one
// embedding call.
type Service struct {
	store    document.Store
	embedder Embedder
	index    *VectorIndex
}

func NewService(store document.Store, embedder Embedder, index *VectorIndex) *Service {
	return &Service{
		store:    store,
		embedder: embedder,
		index:    index,
	}
}

// Index exposes the vector index for cache invalidation wiring.
func (s *Service) Index() *VectorIndex {
	return s.index
}

// fetch loads all candidates matching f under the caller's visibility.
func (s *Service) fetch(ctx context.Context, userID string, f document.Filter) ([]document.Document, error) {
	docs, _, err := s.store.FindVisible(ctx, document.Predicate(userID), f, document.Sort{}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return docs, nil
}

// matchesText is the exact-text predicate shared by the simple, hybrid and
// smart strategies: case-insensitive substring over originalName and
// description.
func matchesText(d *document.Document, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(d.OriginalName), q) ||
		strings.Contains(strings.ToLower(d.Description), q)
}

const dateLayout = "2006-01-02"

// validateDateRange checks YYYY-MM-DD syntax and ordering for an inclusive
// range.
func validateDateRange(from, to string) error {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return fmt.Errorf("%w: malformed date %q", document.ErrInvalidArgument, d)
		}
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("%w: dateFrom %q is after dateTo %q", document.ErrInvalidArgument, from, to)
	}
	return nil
}
