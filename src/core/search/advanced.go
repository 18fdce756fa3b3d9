package search

import (
	"context"
	"fmt"

	"comptadoc/src/core/document"
)

// Advanced applies a conjunctive filter over every provided field. Omitted
// fields are unconstrained. An exactDate overrides any provided range.
func (s *Service) Advanced(ctx context.Context, userID string, req AdvancedRequest) (*Result, error) {
	if err := validateAdvanced(&req); err != nil {
		return nil, err
	}

	f := document.Filter{
		Text:        req.Query,
		ClientName:  req.ClientName,
		Type:        req.DocumentType,
		Filename:    req.Filename,
		Description: req.Description,
		MinSize:     req.MinSize,
		MaxSize:     req.MaxSize,
		MimeType:    req.MimeType,
	}
	if req.ExactDate != "" {
		f.ExactDate = req.ExactDate
	} else {
		f.DateFrom = req.DateFrom
		f.DateTo = req.DateTo
	}

	docs, err := s.fetch(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	cands := make([]candidate, 0, len(docs))
	for _, d := range docs {
		cands = append(cands, candidate{doc: d})
	}
	return assemble(cands, userID, req.Page, assembleOpts{limitCap: listLimitCap}), nil
}

func validateAdvanced(req *AdvancedRequest) error {
	if err := validateDateRange(req.DateFrom, req.DateTo); err != nil {
		return err
	}
	if req.ExactDate != "" {
		if err := validateDateRange(req.ExactDate, ""); err != nil {
			return err
		}
	}
	if req.DocumentType != "" && !req.DocumentType.Valid() {
		return fmt.Errorf("%w: unknown document type %q", document.ErrInvalidArgument, req.DocumentType)
	}
	if req.MinSize < 0 || req.MaxSize < 0 {
		return fmt.Errorf("%w: size bounds must be non-negative", document.ErrInvalidArgument)
	}
	if req.MinSize > 0 && req.MaxSize > 0 && req.MinSize > req.MaxSize {
		return fmt.Errorf("%w: minSize exceeds maxSize", document.ErrInvalidArgument)
	}
	return nil
}
