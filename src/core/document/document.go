package document

import (
	"fmt"
	"time"
)

// EmbeddingDim is the only accepted embedding length. The inference service
// produces 384-component sentence vectors.
const EmbeddingDim = 384

// Type classifies an accounting document. The set is closed.
type Type string

const (
	TypeInvoice       Type = "invoice"
	TypeReceipt       Type = "receipt"
	TypeBankStatement Type = "bank_statement"
	TypeTaxDocument   Type = "tax_document"
	TypePurchaseOrder Type = "purchase_order"
	TypeQuote         Type = "quote"
	TypeDeliveryNote  Type = "delivery_note"
	TypeExpenseReport Type = "expense_report"
	TypePayslip       Type = "payslip"
	TypeOther         Type = "other"
)

// Valid reports whether t is a known document type.
func (t Type) Valid() bool {
	switch t {
	case TypeInvoice, TypeReceipt, TypeBankStatement, TypeTaxDocument,
		TypePurchaseOrder, TypeQuote, TypeDeliveryNote, TypeExpenseReport,
		TypePayslip, TypeOther:
		return true
	}
	return false
}

// Keys of ExtractedInfo populated by the inference service.
const (
	InfoClientName    = "client_name"
	InfoClientAddress = "client_address"
	InfoDate          = "date"
)

// Document is an uploaded accounting document. The binary lives in object
// storage under StorageKey; this record carries everything searchable.
type Document struct {
	ID            string            `json:"id"`
	OriginalName  string            `json:"originalName"`
	Filename      string            `json:"filename"`
	Description   string            `json:"description,omitempty"`
	MimeType      string            `json:"mimeType"`
	Size          int64             `json:"size"`
	StorageKey    string            `json:"-"`
	Type          Type              `json:"type"`
	OwnerID       string            `json:"ownerId"`
	SharedWith    []string          `json:"sharedWith,omitempty"`
	IsPublic      bool              `json:"isPublic"`
	Embedding     []float32         `json:"-"`
	ExtractedInfo map[string]string `json:"extractedInfo,omitempty"`
	TextExcerpt   string            `json:"-"`
	Prediction    string            `json:"prediction,omitempty"`
	Confidence    float64           `json:"confidence,omitempty"`
	IsProcessed   bool              `json:"isProcessed"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// HasEmbedding reports whether the document carries a usable vector.
func (d *Document) HasEmbedding() bool {
	return len(d.Embedding) == EmbeddingDim
}

// SetEmbedding stores vec after checking its dimension. A nil vec clears the
// embedding.
func (d *Document) SetEmbedding(vec []float32) error {
	if vec != nil && len(vec) != EmbeddingDim {
		return fmt.Errorf("%w: embedding has %d components, want %d", ErrInvalidArgument, len(vec), EmbeddingDim)
	}
	d.Embedding = vec
	return nil
}

// Info returns an extracted field, or "" when absent.
func (d *Document) Info(key string) string {
	return d.ExtractedInfo[key]
}
