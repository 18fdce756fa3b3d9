package search

import (
	"comptadoc/src/core/document"
)

// Sortable fields for unscored strategies. Anything else falls back to
// createdAt.
const (
	SortCreatedAt    = "createdAt"
	SortUpdatedAt    = "updatedAt"
	SortOriginalName = "originalName"
	SortSize         = "size"
	SortType         = "type"
)

// Strategy result caps.
const (
	DefaultLimit      = 10
	DefaultMaxResults = 50
	DefaultThreshold  = 0.1
	listLimitCap      = 100
	rankedLimitCap    = 50
	textMatchBoost    = 0.3
	similarityWeight  = 0.7
)

// Smart-search match labels, highest priority first.
const (
	MatchMultiple   = "multiple"
	MatchClientName = "client_name"
	MatchYear       = "year"
	MatchText       = "text"
)

// PageRequest is the universal pagination payload.
type PageRequest struct {
	Page      int    `json:"page" form:"page"`
	Limit     int    `json:"limit" form:"limit"`
	SortBy    string `json:"sortBy" form:"sortBy"`
	SortOrder string `json:"sortOrder" form:"sortOrder"` // ASC or DESC
}

// Pagination describes the returned page. hasNext/hasPrev are derived from
// page, limit and total only.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Item is one search hit with its strategy-specific annotations.
type Item struct {
	Document     document.Document `json:"document"`
	IsOwner      bool              `json:"isOwner"`
	Similarity   float64           `json:"similarity,omitempty"`
	Rank         int               `json:"rank,omitempty"`
	MatchType    string            `json:"matchType,omitempty"`
	MatchDetails string            `json:"matchDetails,omitempty"`
}

// Result is the search response envelope. Degraded is set when the embedding
// service was unavailable and the strategy answered with an empty set instead
// of its real computation.
type Result struct {
	Data       []Item     `json:"data"`
	Pagination Pagination `json:"pagination"`
	Degraded   bool       `json:"degraded,omitempty"`
}

// SimpleRequest searches originalName and description for a substring.
type SimpleRequest struct {
	Query string `json:"query" form:"q"`
	Page  PageRequest
}

// AdvancedRequest is a conjunctive multi-field filter. Omitted fields are
// unconstrained. ExactDate, when present, overrides DateFrom/DateTo.
type AdvancedRequest struct {
	Query        string        `json:"query"`
	ClientName   string        `json:"clientName"`
	DateFrom     string        `json:"dateFrom"`
	DateTo       string        `json:"dateTo"`
	ExactDate    string        `json:"exactDate"`
	DocumentType document.Type `json:"documentType"`
	Filename     string        `json:"filename"`
	Description  string        `json:"description"`
	MinSize      int64         `json:"minSize"`
	MaxSize      int64         `json:"maxSize"`
	MimeType     string        `json:"mimeType"`
	Page         PageRequest   `json:"pagination"`
}

// SemanticRequest ranks documents by embedding similarity to Query.
type SemanticRequest struct {
	Query               string        `json:"query"`
	SimilarityThreshold *float64      `json:"similarityThreshold"`
	MaxResults          int           `json:"maxResults"`
	DocumentType        document.Type `json:"documentType"`
	ClientName          string        `json:"clientName"`
	DateFrom            string        `json:"dateFrom"`
	DateTo              string        `json:"dateTo"`
	Page                PageRequest   `json:"pagination"`
}

// SmartRequest matches against extracted fields.
type SmartRequest struct {
	ClientName string      `json:"clientName"`
	Year       int         `json:"year"`
	Query      string      `json:"query"`
	Page       PageRequest `json:"pagination"`
}

// candidate is a raw, not-yet-access-filtered strategy hit.
type candidate struct {
	doc           document.Document
	score         float64
	hasSimilarity bool
	similarity    float64
	matchType     string
	matchDetails  string
}
