package document

import "context"

// Filter is a declarative restriction a search strategy hands to the store.
// Zero-valued fields are unconstrained; every set field narrows the result
// (AND semantics). Textual fields (Text, ClientName, Filename, Description)
// match case-insensitive substrings; everything else matches exactly or by
// range.
type Filter struct {
	IDs              []string
	Text             string // originalName, description or text excerpt
	ClientName       string // extractedInfo client_name
	ExactDate        string // extractedInfo date, YYYY-MM-DD
	DateFrom         string // inclusive, YYYY-MM-DD
	DateTo           string // inclusive, YYYY-MM-DD
	Type             Type
	Filename         string
	Description      string
	MinSize          int64
	MaxSize          int64
	MimeType         string
	RequireEmbedding bool
}

// Sort selects the storage-level ordering. The zero value means createdAt
// descending.
type Sort struct {
	Field string
	Asc   bool
}

// Store is the only component that talks to persistent document storage.
// Strategies issue declarative requests; they never see storage primitives.
type Store interface {
	// FindVisible returns documents matching vis and f, ordered by sort,
	// with the total match count before limit/offset. limit <= 0 means no
	// limit. A nil vis applies no visibility restriction.
	FindVisible(ctx context.Context, vis *Visibility, f Filter, sort Sort, limit, offset int) ([]Document, int64, error)

	// FindByID returns the document or (nil, nil) when the id does not
	// resolve.
	FindByID(ctx context.Context, id string) (*Document, error)

	Save(ctx context.Context, d *Document) error
	Delete(ctx context.Context, d *Document) error
}
