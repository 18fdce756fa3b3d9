package search_test

import (
	"context"
	"slices"
	"strings"
	"time"

	"comptadoc/src/core/document"
)

// memStore is an in-memory document.Store with the same filter semantics as
// the SQL-backed implementation: textual fields match case-insensitive
// substrings, dates compare as YYYY-MM-DD strings on the extracted date.
type memStore struct {
	docs []document.Document
}

func (s *memStore) FindVisible(ctx context.Context, vis *document.Visibility, f document.Filter, sort document.Sort, limit, offset int) ([]document.Document, int64, error) {
	var out []document.Document
	for _, d := range s.docs {
		if vis.Matches(&d) && matchesFilter(&d, f) {
			out = append(out, d)
		}
	}
	total := int64(len(out))
	if offset > 0 {
		if offset > len(out) {
			offset = len(out)
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*document.Document, error) {
	for i := range s.docs {
		if s.docs[i].ID == id {
			d := s.docs[i]
			return &d, nil
		}
	}
	return nil, nil
}

func (s *memStore) Save(ctx context.Context, d *document.Document) error {
	for i := range s.docs {
		if s.docs[i].ID == d.ID {
			s.docs[i] = *d
			return nil
		}
	}
	s.docs = append(s.docs, *d)
	return nil
}

func (s *memStore) Delete(ctx context.Context, d *document.Document) error {
	s.docs = slices.DeleteFunc(s.docs, func(x document.Document) bool { return x.ID == d.ID })
	return nil
}

func matchesFilter(d *document.Document, f document.Filter) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, d.ID) {
		return false
	}
	if f.Text != "" && !containsFold(d.OriginalName, f.Text) &&
		!containsFold(d.Description, f.Text) && !containsFold(d.TextExcerpt, f.Text) {
		return false
	}
	if f.ClientName != "" && !containsFold(d.Info(document.InfoClientName), f.ClientName) {
		return false
	}
	date := d.Info(document.InfoDate)
	if f.ExactDate != "" && date != f.ExactDate {
		return false
	}
	if (f.DateFrom != "" || f.DateTo != "") && date == "" {
		return false
	}
	if f.DateFrom != "" && date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && date > f.DateTo {
		return false
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.Filename != "" && !containsFold(d.Filename, f.Filename) {
		return false
	}
	if f.Description != "" && !containsFold(d.Description, f.Description) {
		return false
	}
	if f.MinSize > 0 && d.Size < f.MinSize {
		return false
	}
	if f.MaxSize > 0 && d.Size > f.MaxSize {
		return false
	}
	if f.MimeType != "" && d.MimeType != f.MimeType {
		return false
	}
	if f.RequireEmbedding && !d.HasEmbedding() {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

// basisVec builds a 384-dim unit vector along axis i, so identical axes have
// cosine similarity 1 and distinct axes 0.
func basisVec(i int) []float32 {
	v := make([]float32, document.EmbeddingDim)
	v[i] = 1
	return v
}

func at(day int) time.Time {
	return time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC)
}
