package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"comptadoc/src/core/document"
)

// Match priority scores. They double as the natural rank for ordering.
var smartScores = map[string]float64{
	MatchMultiple:   1.0,
	MatchClientName: 0.75,
	MatchYear:       0.5,
	MatchText:       0.25,
}

// Smart matches against extracted fields rather than raw text: an exact
// (trimmed, case-insensitive) client name, the year of the extracted date,
// and a free-text fallback with exact-text semantics. A document gets exactly
// one matchType; multiple beats client_name beats year beats text.
func (s *Service) Smart(ctx context.Context, userID string, req SmartRequest) (*Result, error) {
	if req.ClientName == "" && req.Year == 0 && req.Query == "" {
		return nil, fmt.Errorf("%w: smart search needs a clientName, year or query", document.ErrInvalidArgument)
	}

	docs, err := s.fetch(ctx, userID, document.Filter{})
	if err != nil {
		return nil, err
	}

	wantClient := strings.TrimSpace(req.ClientName)
	cands := make([]candidate, 0, len(docs))
	for _, d := range docs {
		matchType, details := classifySmartMatch(&d, wantClient, req.Year, req.Query)
		if matchType == "" {
			continue
		}
		cands = append(cands, candidate{
			doc:          d,
			score:        smartScores[matchType],
			matchType:    matchType,
			matchDetails: details,
		})
	}
	return assemble(cands, userID, req.Page, assembleOpts{
		scored:   true,
		limitCap: rankedLimitCap,
	}), nil
}

func classifySmartMatch(d *document.Document, clientName string, year int, query string) (string, string) {
	clientMatch := clientName != "" &&
		strings.EqualFold(strings.TrimSpace(d.Info(document.InfoClientName)), clientName)
	yearMatch := year != 0 && extractedYear(d) == year
	textMatch := query != "" && matchesText(d, query)

	switch {
	case clientMatch && yearMatch:
		return MatchMultiple, fmt.Sprintf("client %q and year %d", d.Info(document.InfoClientName), year)
	case clientMatch:
		return MatchClientName, fmt.Sprintf("client %q", d.Info(document.InfoClientName))
	case yearMatch:
		return MatchYear, fmt.Sprintf("year %d", year)
	case textMatch:
		return MatchText, fmt.Sprintf("text %q", query)
	}
	return "", ""
}

// extractedYear parses the year out of the extracted YYYY-MM-DD date, or 0.
func extractedYear(d *document.Document) int {
	date := strings.TrimSpace(d.Info(document.InfoDate))
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
