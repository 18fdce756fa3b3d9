package search

import (
	"context"

	"comptadoc/src/core/document"
)

// Simple matches a case-insensitive substring over originalName and
// description. Hits carry no score; ordering follows the requested sort with
// the universal tie-break.
func (s *Service) Simple(ctx context.Context, userID string, req SimpleRequest) (*Result, error) {
	docs, err := s.fetch(ctx, userID, document.Filter{Text: req.Query})
	if err != nil {
		return nil, err
	}

	cands := make([]candidate, 0, len(docs))
	for _, d := range docs {
		cands = append(cands, candidate{doc: d})
	}
	return assemble(cands, userID, req.Page, assembleOpts{limitCap: listLimitCap}), nil
}
