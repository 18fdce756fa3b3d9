package search

import (
	"sort"
	"strings"

	"comptadoc/src/core/document"
)

// assembleOpts controls how candidates are ordered and annotated.
type assembleOpts struct {
	scored   bool // order by candidate score instead of sortBy
	withRank bool // annotate items with their overall rank
	limitCap int  // strategy-defined page size cap
}

func normalizePage(p PageRequest, limitCap int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if limitCap > 0 && p.Limit > limitCap {
		p.Limit = limitCap
	}
	return p
}

func paginationMeta(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// emptyResult is the degraded-or-empty envelope with valid pagination.
func emptyResult(p PageRequest, limitCap int, degraded bool) *Result {
	p = normalizePage(p, limitCap)
	return &Result{
		Data:       []Item{},
		Pagination: paginationMeta(p.Page, p.Limit, 0),
		Degraded:   degraded,
	}
}

// assemble applies the access filter to raw candidates, orders them
// deterministically and slices out the requested page. Ordering: score
// descending for scored strategies, otherwise the whitelisted sortBy field;
// ties always break by createdAt descending, then id ascending, so repeated
// searches over an unchanged set paginate identically.
func assemble(cands []candidate, userID string, p PageRequest, opts assembleOpts) *Result {
	p = normalizePage(p, opts.limitCap)

	visible := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if document.CanView(userID, &c.doc) {
			visible = append(visible, c)
		}
	}

	less := lessFunc(opts.scored, p.SortBy, p.SortOrder)
	sort.SliceStable(visible, func(i, j int) bool { return less(&visible[i], &visible[j]) })

	total := int64(len(visible))
	offset := (p.Page - 1) * p.Limit
	end := offset + p.Limit
	if offset > len(visible) {
		offset = len(visible)
	}
	if end > len(visible) {
		end = len(visible)
	}

	items := make([]Item, 0, end-offset)
	for i := offset; i < end; i++ {
		c := visible[i]
		item := Item{
			Document:     c.doc,
			IsOwner:      c.doc.OwnerID == userID,
			MatchType:    c.matchType,
			MatchDetails: c.matchDetails,
		}
		if c.hasSimilarity {
			item.Similarity = c.similarity
		}
		if opts.withRank {
			item.Rank = i + 1
		}
		items = append(items, item)
	}

	return &Result{
		Data:       items,
		Pagination: paginationMeta(p.Page, p.Limit, total),
	}
}

// capCandidates keeps the max best-scoring candidates. Applied after the
// secondary filters and before pagination, so a filtered-in document is never
// displaced by filtered-out higher-similarity hits.
func capCandidates(cands []candidate, max int) []candidate {
	less := lessFunc(true, "", "")
	sort.SliceStable(cands, func(i, j int) bool { return less(&cands[i], &cands[j]) })
	if max > 0 && len(cands) > max {
		cands = cands[:max]
	}
	return cands
}

func lessFunc(scored bool, sortBy, sortOrder string) func(a, b *candidate) bool {
	if scored {
		return func(a, b *candidate) bool {
			if a.score != b.score {
				return a.score > b.score
			}
			return tieBreak(&a.doc, &b.doc)
		}
	}

	desc := !strings.EqualFold(sortOrder, "ASC")
	key := fieldComparator(sortBy)
	return func(a, b *candidate) bool {
		c := key(&a.doc, &b.doc)
		if c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return tieBreak(&a.doc, &b.doc)
	}
}

// tieBreak is the universal deterministic order: createdAt descending, then
// id ascending.
func tieBreak(a, b *document.Document) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// fieldComparator maps a requested sortBy onto a three-way comparison.
// Unknown fields fall back to createdAt.
func fieldComparator(sortBy string) func(a, b *document.Document) int {
	switch sortBy {
	case SortUpdatedAt:
		return func(a, b *document.Document) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortOriginalName:
		return func(a, b *document.Document) int { return strings.Compare(a.OriginalName, b.OriginalName) }
	case SortSize:
		return func(a, b *document.Document) int {
			switch {
			case a.Size < b.Size:
				return -1
			case a.Size > b.Size:
				return 1
			}
			return 0
		}
	case SortType:
		return func(a, b *document.Document) int { return strings.Compare(string(a.Type), string(b.Type)) }
	default:
		return func(a, b *document.Document) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}
