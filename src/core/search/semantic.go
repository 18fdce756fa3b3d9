package search

import (
	"context"
	"fmt"
	"strings"

	"comptadoc/src/core/document"
	"comptadoc/src/infrastructure/log"
)

// Semantic embeds the query and ranks documents by cosine similarity against
// their stored embeddings. Documents without an embedding are excluded, not
// scored zero. When the embedding service is unavailable the strategy answers
// with an empty result flagged degraded; it never falls back to text search.
func (s *Service) Semantic(ctx context.Context, userID string, req SemanticRequest) (*Result, error) {
	threshold, maxResults, err := semanticParams(&req)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(req.DateFrom, req.DateTo); err != nil {
		return nil, err
	}

	queryVec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		log.Error(err, "embedding unavailable, degrading semantic search", "query", req.Query)
		return emptyResult(req.Page, rankedLimitCap, true), nil
	}

	matches, err := s.index.Search(ctx, s.store, queryVec, threshold, 0)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return emptyResult(req.Page, rankedLimitCap, false), nil
	}

	ids := make([]string, len(matches))
	similarity := make(map[string]float64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
		similarity[m.ID] = m.Similarity
	}

	// Secondary filters narrow the candidate set before the maxResults cap: a
	// document passing the filters is never displaced by filtered-out hits.
	docs, err := s.fetch(ctx, userID, document.Filter{
		IDs:        ids,
		Type:       req.DocumentType,
		ClientName: req.ClientName,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
	})
	if err != nil {
		return nil, err
	}

	cands := make([]candidate, 0, len(docs))
	for _, d := range docs {
		sim := similarity[d.ID]
		cands = append(cands, candidate{
			doc:           d,
			score:         sim,
			similarity:    sim,
			hasSimilarity: true,
		})
	}
	cands = capCandidates(cands, maxResults)
	return assemble(cands, userID, req.Page, assembleOpts{
		scored:   true,
		withRank: true,
		limitCap: rankedLimitCap,
	}), nil
}

func semanticParams(req *SemanticRequest) (threshold float64, maxResults int, err error) {
	if strings.TrimSpace(req.Query) == "" {
		return 0, 0, fmt.Errorf("%w: query is required", document.ErrInvalidArgument)
	}
	threshold = DefaultThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
		if threshold < 0 || threshold > 1 {
			return 0, 0, fmt.Errorf("%w: similarityThreshold %v outside [0,1]", document.ErrInvalidArgument, threshold)
		}
	}
	maxResults = req.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return threshold, maxResults, nil
}
