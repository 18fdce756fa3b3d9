package search_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"comptadoc/src/core/document"
	"comptadoc/src/core/search"
)

func semanticFixture() []document.Document {
	return []document.Document{
		{ID: "exact", OwnerID: "u1", OriginalName: "facture-acme.pdf",
			Type: document.TypeInvoice, Embedding: basisVec(0), CreatedAt: at(1)},
		{ID: "unrelated", OwnerID: "u1", OriginalName: "ticket.pdf",
			Type: document.TypeReceipt, Embedding: basisVec(1), CreatedAt: at(2)},
		{ID: "noembed", OwnerID: "u1", OriginalName: "facture-brute.pdf",
			Type: document.TypeInvoice, CreatedAt: at(3)},
	}
}

func TestSemanticRanksByCosineSimilarity(t *testing.T) {
	store := &memStore{docs: semanticFixture()}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(0)}, search.NewVectorIndex())

	res, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{Query: "facture acme"})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}

	if len(res.Data) != 1 {
		t.Fatalf("got %d hits, want 1 above the default threshold", len(res.Data))
	}
	top := res.Data[0]
	if top.Document.ID != "exact" {
		t.Errorf("top hit = %s, want exact", top.Document.ID)
	}
	if math.Abs(top.Similarity-1.0) > 1e-9 {
		t.Errorf("similarity = %v, want 1.0 for an identical embedding", top.Similarity)
	}
	if top.Rank != 1 {
		t.Errorf("rank = %d, want 1", top.Rank)
	}
}

func TestSemanticExcludesDocumentsWithoutEmbedding(t *testing.T) {
	store := &memStore{docs: semanticFixture()}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(0)}, search.NewVectorIndex())

	zero := 0.0
	res, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{
		Query:               "facture",
		SimilarityThreshold: &zero,
	})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}
	for _, item := range res.Data {
		if item.Document.ID == "noembed" {
			t.Error("document without embedding must be excluded, not scored zero")
		}
	}
}

func TestSemanticThresholdFilters(t *testing.T) {
	store := &memStore{docs: semanticFixture()}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(0)}, search.NewVectorIndex())

	high := 0.9
	res, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{
		Query:               "facture",
		SimilarityThreshold: &high,
	})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].Document.ID != "exact" {
		t.Errorf("hits = %v, want only the exact match above 0.9", resultIDs(res))
	}
}

func TestSemanticRejectsThresholdOutsideUnitInterval(t *testing.T) {
	store := &memStore{docs: semanticFixture()}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(0)}, search.NewVectorIndex())

	for _, bad := range []float64{-0.1, 1.5} {
		v := bad
		_, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{
			Query:               "facture",
			SimilarityThreshold: &v,
		})
		if !errors.Is(err, document.ErrInvalidArgument) {
			t.Errorf("threshold %v: error = %v, want ErrInvalidArgument", bad, err)
		}
	}
}

func TestSemanticDegradesWhenEmbeddingUnavailable(t *testing.T) {
	store := &memStore{docs: semanticFixture()}
	svc := search.NewService(store, &fakeEmbedder{err: errors.New("connection refused")}, search.NewVectorIndex())

	res, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{Query: "facture"})
	if err != nil {
		t.Fatalf("Semantic() must not fail on embedding outage, got %v", err)
	}
	if !res.Degraded {
		t.Error("result should be flagged degraded")
	}
	if len(res.Data) != 0 {
		t.Errorf("degraded result must be empty, got %d hits", len(res.Data))
	}
	if res.Pagination.Page != 1 || res.Pagination.Limit != search.DefaultLimit {
		t.Errorf("degraded pagination = %+v, want valid defaults", res.Pagination)
	}
}

func TestSemanticRespectsVisibility(t *testing.T) {
	docs := semanticFixture()
	docs[0].SharedWith = []string{"u2"}
	store := &memStore{docs: docs}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(0)}, search.NewVectorIndex())

	res, err := svc.Semantic(context.Background(), "u3", search.SemanticRequest{Query: "facture"})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}
	if len(res.Data) != 0 {
		t.Errorf("stranger sees %v, want nothing", resultIDs(res))
	}

	res, err = svc.Semantic(context.Background(), "u2", search.SemanticRequest{Query: "facture"})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].IsOwner {
		t.Errorf("shared user should see the hit with isOwner=false, got %v", res.Data)
	}
}

func TestSemanticFiltersNarrowBeforeMaxResultsCap(t *testing.T) {
	tilted := basisVec(0)
	tilted[1] = 2 // cos with basis(0) ≈ 0.45

	store := &memStore{docs: []document.Document{
		{ID: "receipt", OwnerID: "u1", OriginalName: "ticket.pdf",
			Type: document.TypeReceipt, Embedding: basisVec(0), CreatedAt: at(1)},
		{ID: "invoice", OwnerID: "u1", OriginalName: "facture.pdf",
			Type: document.TypeInvoice, Embedding: tilted, CreatedAt: at(2)},
	}}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(0)}, search.NewVectorIndex())

	// The receipt scores higher but is filtered out; it must not consume the
	// single-result budget.
	res, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{
		Query:        "facture",
		MaxResults:   1,
		DocumentType: document.TypeInvoice,
	})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].Document.ID != "invoice" {
		t.Errorf("ids = %v, want [invoice]", resultIDs(res))
	}
}

func TestSemanticRequiresQuery(t *testing.T) {
	store := &memStore{docs: semanticFixture()}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(0)}, search.NewVectorIndex())

	_, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{Query: "   "})
	if !errors.Is(err, document.ErrInvalidArgument) {
		t.Errorf("Semantic() error = %v, want ErrInvalidArgument", err)
	}
}

func TestSemanticSecondaryTypeFilter(t *testing.T) {
	store := &memStore{docs: semanticFixture()}
	svc := search.NewService(store, &fakeEmbedder{vec: basisVec(1)}, search.NewVectorIndex())

	res, err := svc.Semantic(context.Background(), "u1", search.SemanticRequest{
		Query:        "ticket",
		DocumentType: document.TypeInvoice,
	})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}
	if len(res.Data) != 0 {
		t.Errorf("type filter should drop the receipt hit, got %v", resultIDs(res))
	}
}
