package documentctrl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"comptadoc/src/core/document"
)

// documentRow is the persistence shape of a document. Set-valued fields live
// in jsonb columns so the visibility predicate stays a single WHERE clause.
type documentRow struct {
	ID            string    `gorm:"primaryKey;type:uuid"`
	OriginalName  string    `gorm:"not null"`
	Filename      string    `gorm:"not null"`
	Description   string
	MimeType      string
	Size          int64
	StorageKey    string `gorm:"not null;column:storage_key"`
	Type          string `gorm:"not null;index"`
	OwnerID       string `gorm:"not null;index;type:uuid"`
	SharedWith    []byte `gorm:"type:jsonb"`
	IsPublic      bool   `gorm:"not null;default:false"`
	Embedding     []byte `gorm:"type:jsonb"`
	ExtractedInfo []byte `gorm:"type:jsonb"`
	TextExcerpt   string
	Prediction    string
	Confidence    float64
	IsProcessed   bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// Service implements the document store facade over PostgreSQL.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (*Service, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return &Service{db: db}, nil
}

func (s *Service) FindVisible(ctx context.Context, vis *document.Visibility, f document.Filter, sort document.Sort, limit, offset int) ([]document.Document, int64, error) {
	q := s.db.WithContext(ctx).Model(&documentRow{})
	q = applyVisibility(q, vis)

	var err error
	if q, err = applyFilter(q, f); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	q = q.Order(orderClause(sort))
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var rows []documentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query documents: %w", err)
	}

	docs := make([]document.Document, 0, len(rows))
	for i := range rows {
		doc, err := toDomain(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *doc)
	}
	return docs, total, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*document.Document, error) {
	var row documentRow
	result := s.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", result.Error)
	}
	return toDomain(&row)
}

func (s *Service) Save(ctx context.Context, d *document.Document) error {
	row, err := toRow(d)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	d.CreatedAt = row.CreatedAt
	d.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Service) Delete(ctx context.Context, d *document.Document) error {
	if err := s.db.WithContext(ctx).Delete(&documentRow{}, "id = ?", d.ID).Error; err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// applyVisibility translates the declarative predicate: owner, public, or
// member of the shared_with jsonb array.
func applyVisibility(q *gorm.DB, vis *document.Visibility) *gorm.DB {
	if vis == nil {
		return q
	}
	member, _ := json.Marshal([]string{vis.UserID})
	return q.Where("owner_id = ? OR is_public OR shared_with @> ?::jsonb", vis.UserID, string(member))
}

func applyFilter(q *gorm.DB, f document.Filter) (*gorm.DB, error) {
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Text != "" {
		pattern := "%" + f.Text + "%"
		q = q.Where("original_name ILIKE ? OR description ILIKE ? OR text_excerpt ILIKE ?", pattern, pattern, pattern)
	}
	if f.ClientName != "" {
		q = q.Where("extracted_info->>'client_name' ILIKE ?", "%"+f.ClientName+"%")
	}
	if f.ExactDate != "" {
		q = q.Where("extracted_info->>'date' = ?", f.ExactDate)
	} else {
		if f.DateFrom != "" && f.DateTo != "" {
			q = q.Where("extracted_info->>'date' BETWEEN ? AND ?", f.DateFrom, f.DateTo)
		} else if f.DateFrom != "" {
			q = q.Where("extracted_info->>'date' >= ?", f.DateFrom)
		} else if f.DateTo != "" {
			q = q.Where("extracted_info->>'date' <= ?", f.DateTo)
		}
	}
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Filename != "" {
		q = q.Where("original_name ILIKE ?", "%"+f.Filename+"%")
	}
	if f.Description != "" {
		q = q.Where("description ILIKE ?", "%"+f.Description+"%")
	}
	if f.MinSize > 0 {
		q = q.Where("size >= ?", f.MinSize)
	}
	if f.MaxSize > 0 {
		q = q.Where("size <= ?", f.MaxSize)
	}
	if f.MimeType != "" {
		q = q.Where("mime_type = ?", f.MimeType)
	}
	if f.RequireEmbedding {
		q = q.Where("embedding IS NOT NULL")
	}
	return q, nil
}

var sortColumns = map[string]string{
	"":             "created_at",
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"originalName": "original_name",
	"size":         "size",
	"type":         "type",
}

func orderClause(s document.Sort) string {
	column, ok := sortColumns[s.Field]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if s.Asc {
		dir = "ASC"
	}
	// id tie-break keeps pagination stable under equal keys.
	return fmt.Sprintf("%s %s, id ASC", column, dir)
}

func toDomain(row *documentRow) (*document.Document, error) {
	doc := &document.Document{
		ID:           row.ID,
		OriginalName: row.OriginalName,
		Filename:     row.Filename,
		Description:  row.Description,
		MimeType:     row.MimeType,
		Size:         row.Size,
		StorageKey:   row.StorageKey,
		Type:         document.Type(row.Type),
		OwnerID:      row.OwnerID,
		IsPublic:     row.IsPublic,
		TextExcerpt:  row.TextExcerpt,
		Prediction:   row.Prediction,
		Confidence:   row.Confidence,
		IsProcessed:  row.IsProcessed,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.SharedWith) > 0 {
		if err := json.Unmarshal(row.SharedWith, &doc.SharedWith); err != nil {
			return nil, fmt.Errorf("failed to decode shared_with for %s: %w", row.ID, err)
		}
	}
	if len(row.Embedding) > 0 {
		if err := json.Unmarshal(row.Embedding, &doc.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", row.ID, err)
		}
	}
	if len(row.ExtractedInfo) > 0 {
		if err := json.Unmarshal(row.ExtractedInfo, &doc.ExtractedInfo); err != nil {
			return nil, fmt.Errorf("failed to decode extracted_info for %s: %w", row.ID, err)
		}
	}
	return doc, nil
}

func toRow(d *document.Document) (*documentRow, error) {
	row := &documentRow{
		ID:           d.ID,
		OriginalName: d.OriginalName,
		Filename:     d.Filename,
		Description:  d.Description,
		MimeType:     d.MimeType,
		Size:         d.Size,
		StorageKey:   d.StorageKey,
		Type:         string(d.Type),
		OwnerID:      d.OwnerID,
		IsPublic:     d.IsPublic,
		TextExcerpt:  d.TextExcerpt,
		Prediction:   d.Prediction,
		Confidence:   d.Confidence,
		IsProcessed:  d.IsProcessed,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}

	shared := d.SharedWith
	if shared == nil {
		shared = []string{}
	}
	var err error
	if row.SharedWith, err = json.Marshal(shared); err != nil {
		return nil, fmt.Errorf("failed to encode shared_with: %w", err)
	}
	if d.Embedding != nil {
		if row.Embedding, err = json.Marshal(d.Embedding); err != nil {
			return nil, fmt.Errorf("failed to encode embedding: %w", err)
		}
	}
	if d.ExtractedInfo != nil {
		if row.ExtractedInfo, err = json.Marshal(d.ExtractedInfo); err != nil {
			return nil, fmt.Errorf("failed to encode extracted_info: %w", err)
		}
	}
	return row, nil
}
