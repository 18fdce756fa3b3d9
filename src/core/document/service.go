package document

import (
	"context"
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/google/uuid"

	"comptadoc/src/infrastructure/log"
)

// BinaryStore keeps document binaries in object storage. Keys are opaque
// outside the implementation.
type BinaryStore interface {
	Put(ctx context.Context, ownerID, filename, contentType string, data []byte) (key string, err error)
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// UserDirectory resolves which of the given user ids exist.
type UserDirectory interface {
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

// Invalidator is notified whenever a document's embedding may have changed.
type Invalidator interface {
	Invalidate()
}

// Service owns the document lifecycle: upload, sharing, visibility, deletion
// and the persistence of inference results.
type Service struct {
	store    Store
	binaries BinaryStore
	users    UserDirectory
	index    Invalidator
}

func NewService(store Store, binaries BinaryStore, users UserDirectory, index Invalidator) *Service {
	return &Service{
		store:    store,
		binaries: binaries,
		users:    users,
		index:    index,
	}
}

// CreateInput carries an uploaded file.
type CreateInput struct {
	OriginalName string
	MimeType     string
	Description  string
	Type         Type
	Data         []byte
}

// Create stores the binary and the document record. Classification and
// embedding happen later, asynchronously; the record starts unprocessed.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Document, error) {
	if in.OriginalName == "" {
		return nil, fmt.Errorf("%w: original name is required", ErrInvalidArgument)
	}
	docType := in.Type
	if docType == "" {
		docType = TypeOther
	}
	if !docType.Valid() {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidArgument, in.Type)
	}

	key, err := s.binaries.Put(ctx, ownerID, in.OriginalName, in.MimeType, in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store document binary: %w", err)
	}

	doc := &Document{
		ID:           uuid.NewString(),
		OriginalName: in.OriginalName,
		Filename:     path.Base(in.OriginalName),
		Description:  in.Description,
		MimeType:     in.MimeType,
		Size:         int64(len(in.Data)),
		StorageKey:   key,
		Type:         docType,
		OwnerID:      ownerID,
		SharedWith:   []string{},
		IsPublic:     false,
		IsProcessed:  false,
	}

	if err := s.store.Save(ctx, doc); err != nil {
		// The binary stays behind; flag it for out-of-band cleanup.
		log.Error(err, "document record save failed, binary orphaned", "storageKey", key)
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return doc, nil
}

// Get loads a document the user may view.
func (s *Service) Get(ctx context.Context, id, userID string) (*Document, error) {
	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if !CanView(userID, doc) {
		return nil, ErrForbidden
	}
	return doc, nil
}

// loadOwned loads a document and verifies ownership. The owner check and the
// following mutation run against the same read.
func (s *Service) loadOwned(ctx context.Context, id, userID string) (*Document, error) {
	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	if doc.OwnerID != userID {
		return nil, ErrForbidden
	}
	return doc, nil
}

// Share grants the target users read access. Unresolved target ids are
// skipped silently unless none resolve. Sharing with the owner or an already
// shared user is a no-op. makePublic, when non-nil, also toggles the public
// flag.
func (s *Service) Share(ctx context.Context, id, userID string, targetIDs []string, makePublic *bool) (*Document, error) {
	doc, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.users.ExistingIDs(ctx, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share targets: %w", err)
	}
	if len(resolved) == 0 && len(targetIDs) > 0 {
		return nil, ErrNoShareTargets
	}

	for _, target := range resolved {
		if target == doc.OwnerID || slices.Contains(doc.SharedWith, target) {
			continue
		}
		doc.SharedWith = append(doc.SharedWith, target)
	}
	if makePublic != nil {
		doc.IsPublic = *makePublic
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save share: %w", err)
	}
	return doc, nil
}

// Unshare revokes a user's access. Removing a non-member is a no-op.
func (s *Service) Unshare(ctx context.Context, id, userID, targetID string) (*Document, error) {
	doc, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	before := len(doc.SharedWith)
	doc.SharedWith = slices.DeleteFunc(doc.SharedWith, func(uid string) bool {
		return uid == targetID
	})
	if len(doc.SharedWith) == before {
		return doc, nil
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save unshare: %w", err)
	}
	return doc, nil
}

// SetPublic toggles the public flag. Owner-only.
func (s *Service) SetPublic(ctx context.Context, id, userID string, public bool) (*Document, error) {
	doc, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	doc.IsPublic = public
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save visibility: %w", err)
	}
	return doc, nil
}

// SharedUsers lists who the document is shared with. Owner-only.
func (s *Service) SharedUsers(ctx context.Context, id, userID string) ([]string, error) {
	doc, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return doc.SharedWith, nil
}

// Remove deletes the document. Owner-only. Binary cleanup failure is logged
// and the record is deleted anyway.
func (s *Service) Remove(ctx context.Context, id, userID string) error {
	doc, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if doc.StorageKey != "" {
		if err := s.binaries.Delete(ctx, doc.StorageKey); err != nil {
			log.Error(err, "failed to delete document binary", "storageKey", doc.StorageKey)
		}
	}

	if err := s.store.Delete(ctx, doc); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.index.Invalidate()
	return nil
}

// DownloadURL returns a presigned URL for the binary, valid for expiry.
func (s *Service) DownloadURL(ctx context.Context, id, userID string, expiry time.Duration) (string, error) {
	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return "", err
	}
	url, err := s.binaries.PresignedURL(ctx, doc.StorageKey, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign document url: %w", err)
	}
	return url, nil
}

// Analysis is the outcome of the inference service for one document.
type Analysis struct {
	Prediction    string
	Confidence    float64
	Type          Type
	TextExcerpt   string
	ExtractedInfo map[string]string
	Embedding     []float32
}

// ApplyAnalysis persists inference results and marks the document processed.
// Called by the background processing task.
func (s *Service) ApplyAnalysis(ctx context.Context, id string, a Analysis) (*Document, error) {
	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	if a.Type.Valid() {
		doc.Type = a.Type
	}
	doc.Prediction = a.Prediction
	doc.Confidence = a.Confidence
	doc.TextExcerpt = a.TextExcerpt
	if a.ExtractedInfo != nil {
		doc.ExtractedInfo = a.ExtractedInfo
	}
	if a.Embedding != nil {
		if err := doc.SetEmbedding(a.Embedding); err != nil {
			return nil, err
		}
	}
	doc.IsProcessed = true

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	s.index.Invalidate()
	return doc, nil
}
