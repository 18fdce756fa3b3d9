package document_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"comptadoc/src/core/document"
)

type memStore struct {
	docs    map[string]document.Document
	saveErr error
}

func newMemStore(docs ...document.Document) *memStore {
	s := &memStore{docs: make(map[string]document.Document)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *memStore) FindVisible(ctx context.Context, vis *document.Visibility, f document.Filter, sort document.Sort, limit, offset int) ([]document.Document, int64, error) {
	var out []document.Document
	for _, d := range s.docs {
		if vis.Matches(&d) {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*document.Document, error) {
	d, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *memStore) Save(ctx context.Context, d *document.Document) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.docs[d.ID] = *d
	return nil
}

func (s *memStore) Delete(ctx context.Context, d *document.Document) error {
	delete(s.docs, d.ID)
	return nil
}

type fakeBinaries struct {
	putErr    error
	deleteErr error
	deleted   []string
}

func (b *fakeBinaries) Put(ctx context.Context, ownerID, filename, contentType string, data []byte) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	return fmt.Sprintf("documents/%s/%s", ownerID, filename), nil
}

func (b *fakeBinaries) Delete(ctx context.Context, key string) error {
	b.deleted = append(b.deleted, key)
	return b.deleteErr
}

func (b *fakeBinaries) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://minio.local/" + key, nil
}

type fakeUsers struct {
	known []string
}

func (u *fakeUsers) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if slices.Contains(u.known, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeIndex struct {
	invalidations int
}

func (ix *fakeIndex) Invalidate() { ix.invalidations++ }

func newService(store *memStore, known ...string) (*document.Service, *fakeBinaries, *fakeIndex) {
	binaries := &fakeBinaries{}
	index := &fakeIndex{}
	svc := document.NewService(store, binaries, &fakeUsers{known: known}, index)
	return svc, binaries, index
}

func TestCreateDefaults(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newService(store)

	doc, err := svc.Create(context.Background(), "u1", document.CreateInput{
		OriginalName: "reports/facture-2024.pdf",
		MimeType:     "application/pdf",
		Data:         []byte("pdf bytes"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.Type != document.TypeOther {
		t.Errorf("Type = %q, want %q", doc.Type, document.TypeOther)
	}
	if doc.Filename != "facture-2024.pdf" {
		t.Errorf("Filename = %q, want base name", doc.Filename)
	}
	if doc.IsProcessed {
		t.Error("new document should start unprocessed")
	}
	if doc.Size != int64(len("pdf bytes")) {
		t.Errorf("Size = %d, want %d", doc.Size, len("pdf bytes"))
	}
	if doc.StorageKey == "" {
		t.Error("StorageKey should be set")
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, _, _ := newService(newMemStore())

	_, err := svc.Create(context.Background(), "u1", document.CreateInput{
		OriginalName: "x.pdf",
		Type:         "love_letter",
	})
	if !errors.Is(err, document.ErrInvalidArgument) {
		t.Errorf("Create() error = %v, want ErrInvalidArgument", err)
	}
}

func TestShare(t *testing.T) {
	tests := []struct {
		name       string
		doc        document.Document
		userID     string
		targets    []string
		known      []string
		wantShared []string
		wantErr    error
	}{
		{
			name:       "adds resolved targets",
			doc:        document.Document{ID: "d1", OwnerID: "u1"},
			userID:     "u1",
			targets:    []string{"u2", "u3"},
			known:      []string{"u2", "u3"},
			wantShared: []string{"u2", "u3"},
		},
		{
			name:       "skips unresolved ids",
			doc:        document.Document{ID: "d1", OwnerID: "u1"},
			userID:     "u1",
			targets:    []string{"u2", "ghost"},
			known:      []string{"u2"},
			wantShared: []string{"u2"},
		},
		{
			name:    "fails when nothing resolves",
			doc:     document.Document{ID: "d1", OwnerID: "u1"},
			userID:  "u1",
			targets: []string{"ghost"},
			known:   []string{"u2"},
			wantErr: document.ErrNoShareTargets,
		},
		{
			name:       "sharing with owner is a no-op",
			doc:        document.Document{ID: "d1", OwnerID: "u1"},
			userID:     "u1",
			targets:    []string{"u1", "u2"},
			known:      []string{"u1", "u2"},
			wantShared: []string{"u2"},
		},
		{
			name:       "already shared user not duplicated",
			doc:        document.Document{ID: "d1", OwnerID: "u1", SharedWith: []string{"u2"}},
			userID:     "u1",
			targets:    []string{"u2"},
			known:      []string{"u2"},
			wantShared: []string{"u2"},
		},
		{
			name:    "non-owner cannot share",
			doc:     document.Document{ID: "d1", OwnerID: "u1"},
			userID:  "u2",
			targets: []string{"u3"},
			known:   []string{"u3"},
			wantErr: document.ErrForbidden,
		},
		{
			name:    "unknown document",
			doc:     document.Document{ID: "other", OwnerID: "u1"},
			userID:  "u1",
			targets: []string{"u2"},
			known:   []string{"u2"},
			wantErr: document.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService(newMemStore(tt.doc), tt.known...)

			doc, err := svc.Share(context.Background(), "d1", tt.userID, tt.targets, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Share() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Share() error = %v", err)
			}
			if !slices.Equal(doc.SharedWith, tt.wantShared) {
				t.Errorf("SharedWith = %v, want %v", doc.SharedWith, tt.wantShared)
			}
		})
	}
}

func TestShareTogglesPublicFlag(t *testing.T) {
	svc, _, _ := newService(newMemStore(document.Document{ID: "d1", OwnerID: "u1"}), "u2")

	public := true
	doc, err := svc.Share(context.Background(), "d1", "u1", []string{"u2"}, &public)
	if err != nil {
		t.Fatalf("Share() error = %v", err)
	}
	if !doc.IsPublic {
		t.Error("IsPublic should be true after share with makePublic")
	}
}

func TestUnshareNonMemberIsNoop(t *testing.T) {
	store := newMemStore(document.Document{ID: "d1", OwnerID: "u1", SharedWith: []string{"u2"}})
	svc, _, _ := newService(store)

	doc, err := svc.Unshare(context.Background(), "d1", "u1", "u9")
	if err != nil {
		t.Fatalf("Unshare() error = %v", err)
	}
	if !slices.Equal(doc.SharedWith, []string{"u2"}) {
		t.Errorf("SharedWith = %v, want unchanged", doc.SharedWith)
	}
}

func TestUnshareRemovesMember(t *testing.T) {
	store := newMemStore(document.Document{ID: "d1", OwnerID: "u1", SharedWith: []string{"u2", "u3"}})
	svc, _, _ := newService(store)

	doc, err := svc.Unshare(context.Background(), "d1", "u1", "u2")
	if err != nil {
		t.Fatalf("Unshare() error = %v", err)
	}
	if !slices.Equal(doc.SharedWith, []string{"u3"}) {
		t.Errorf("SharedWith = %v, want [u3]", doc.SharedWith)
	}
}

func TestRemoveSurvivesBinaryDeleteFailure(t *testing.T) {
	store := newMemStore(document.Document{ID: "d1", OwnerID: "u1", StorageKey: "documents/u1/x.pdf"})
	svc, binaries, index := newService(store)
	binaries.deleteErr = errors.New("minio down")

	if err := svc.Remove(context.Background(), "d1", "u1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := store.docs["d1"]; ok {
		t.Error("document record should be deleted despite binary failure")
	}
	if index.invalidations != 1 {
		t.Errorf("invalidations = %d, want 1", index.invalidations)
	}
}

func TestGetVisibility(t *testing.T) {
	store := newMemStore(document.Document{ID: "d1", OwnerID: "u1", SharedWith: []string{"u2"}})
	svc, _, _ := newService(store)

	if _, err := svc.Get(context.Background(), "d1", "u2"); err != nil {
		t.Errorf("shared user Get() error = %v", err)
	}
	if _, err := svc.Get(context.Background(), "d1", "u3"); !errors.Is(err, document.ErrForbidden) {
		t.Errorf("stranger Get() error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Get(context.Background(), "missing", "u1"); !errors.Is(err, document.ErrNotFound) {
		t.Errorf("missing Get() error = %v, want ErrNotFound", err)
	}
}

func TestApplyAnalysis(t *testing.T) {
	store := newMemStore(document.Document{ID: "d1", OwnerID: "u1"})
	svc, _, index := newService(store)

	embedding := make([]float32, document.EmbeddingDim)
	embedding[0] = 1

	doc, err := svc.ApplyAnalysis(context.Background(), "d1", document.Analysis{
		Prediction:    "invoice",
		Confidence:    0.93,
		Type:          document.TypeInvoice,
		TextExcerpt:   "Facture n°42",
		ExtractedInfo: map[string]string{document.InfoClientName: "Acme SARL"},
		Embedding:     embedding,
	})
	if err != nil {
		t.Fatalf("ApplyAnalysis() error = %v", err)
	}
	if !doc.IsProcessed {
		t.Error("document should be marked processed")
	}
	if doc.Type != document.TypeInvoice {
		t.Errorf("Type = %q, want invoice", doc.Type)
	}
	if !doc.HasEmbedding() {
		t.Error("embedding should be stored")
	}
	if index.invalidations != 1 {
		t.Errorf("invalidations = %d, want 1", index.invalidations)
	}
}

func TestApplyAnalysisRejectsWrongDimension(t *testing.T) {
	store := newMemStore(document.Document{ID: "d1", OwnerID: "u1"})
	svc, _, _ := newService(store)

	_, err := svc.ApplyAnalysis(context.Background(), "d1", document.Analysis{
		Embedding: make([]float32, 42),
	})
	if !errors.Is(err, document.ErrInvalidArgument) {
		t.Errorf("ApplyAnalysis() error = %v, want ErrInvalidArgument", err)
	}
}
