package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"comptadoc/src/core/document"
	"comptadoc/src/infrastructure/integrations/insight"
	"comptadoc/src/infrastructure/log"
	"comptadoc/src/storage/minioctrl"
)

// excerptChunkSize bounds the stored text excerpt.
const excerptChunkSize = 2000

// ProcessDocumentTask downloads an uploaded binary, runs it through the
// insight service and persists the classification, extracted fields and
// embedding.
type ProcessDocumentTask struct {
	store    document.Store
	docs     *document.Service
	binaries *minioctrl.Service
	insight  *insight.Client
}

func NewProcessDocumentTask(
	store document.Store,
	docs *document.Service,
	binaries *minioctrl.Service,
	insightClient *insight.Client,
) *ProcessDocumentTask {
	return &ProcessDocumentTask{
		store:    store,
		docs:     docs,
		binaries: binaries,
		insight:  insightClient,
	}
}

func (t *ProcessDocumentTask) Handle(ctx context.Context, payload json.RawMessage) error {
	var p ProcessDocumentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to unmarshal process payload: %w", err)
	}

	doc, err := t.store.FindByID(ctx, p.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", p.DocumentID, err)
	}
	if doc == nil {
		// Deleted before the worker got to it; nothing to do.
		log.Info("document gone before processing", "documentId", p.DocumentID)
		return nil
	}

	data, err := t.binaries.Get(ctx, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to fetch binary for %s: %w", doc.ID, err)
	}

	classification, err := t.insight.Classify(ctx, doc.OriginalName, data)
	if err != nil {
		return fmt.Errorf("failed to classify %s: %w", doc.ID, err)
	}

	analysis := document.Analysis{
		Prediction:    classification.ModelPrediction,
		Confidence:    classification.Confidence,
		Type:          classification.PredictedType(),
		TextExcerpt:   boundExcerpt(classification.TextExcerpt),
		ExtractedInfo: classification.ExtractedInfo,
		Embedding:     classification.Embedding,
	}
	if _, err := t.docs.ApplyAnalysis(ctx, doc.ID, analysis); err != nil {
		return fmt.Errorf("failed to apply analysis to %s: %w", doc.ID, err)
	}

	log.Info("document processed",
		"documentId", doc.ID,
		"type", analysis.Type,
		"hasEmbedding", analysis.Embedding != nil)
	return nil
}

// boundExcerpt keeps only the first chunk of a long excerpt.
func boundExcerpt(text string) string {
	if len(text) <= excerptChunkSize {
		return text
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(excerptChunkSize),
		textsplitter.WithChunkOverlap(0),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil || len(chunks) == 0 {
		return text[:excerptChunkSize]
	}
	return chunks[0]
}
