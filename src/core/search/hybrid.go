package search

import (
	"context"

	"comptadoc/src/core/document"
	"comptadoc/src/infrastructure/log"
)

// Hybrid unions the semantic and exact-text candidate sets for the same query
// and re-ranks by combined = 0.7*similarity + 0.3*textBoost. A document in
// only one set keeps its partial score; the missing term contributes zero.
// Embedding unavailability degrades the whole strategy explicitly, exactly
// like Semantic.
func (s *Service) Hybrid(ctx context.Context, userID string, req SemanticRequest) (*Result, error) {
	threshold, maxResults, err := semanticParams(&req)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(req.DateFrom, req.DateTo); err != nil {
		return nil, err
	}

	queryVec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		log.Error(err, "embedding unavailable, degrading hybrid search", "query", req.Query)
		return emptyResult(req.Page, rankedLimitCap, true), nil
	}

	matches, err := s.index.Search(ctx, s.store, queryVec, threshold, 0)
	if err != nil {
		return nil, err
	}

	similarity := make(map[string]float64, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		similarity[m.ID] = m.Similarity
		ids = append(ids, m.ID)
	}

	secondary := document.Filter{
		Type:       req.DocumentType,
		ClientName: req.ClientName,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
	}

	byID := make(map[string]document.Document)
	if len(ids) > 0 {
		semFilter := secondary
		semFilter.IDs = ids
		semDocs, err := s.fetch(ctx, userID, semFilter)
		if err != nil {
			return nil, err
		}
		for _, d := range semDocs {
			byID[d.ID] = d
		}
	}

	textFilter := secondary
	textFilter.Text = req.Query
	textDocs, err := s.fetch(ctx, userID, textFilter)
	if err != nil {
		return nil, err
	}
	textHit := make(map[string]bool, len(textDocs))
	for _, d := range textDocs {
		textHit[d.ID] = true
		if _, ok := byID[d.ID]; !ok {
			byID[d.ID] = d
		}
	}

	cands := make([]candidate, 0, len(byID))
	for id, d := range byID {
		c := candidate{doc: d}
		if sim, ok := similarity[id]; ok {
			c.similarity = sim
			c.hasSimilarity = true
			c.score = sim * similarityWeight
		}
		if textHit[id] {
			c.score += textMatchBoost
		}
		cands = append(cands, c)
	}
	cands = capCandidates(cands, maxResults)
	return assemble(cands, userID, req.Page, assembleOpts{
		scored:   true,
		withRank: true,
		limitCap: rankedLimitCap,
	}), nil
}
