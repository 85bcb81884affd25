package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/poiesic/archivist/ai"
	"github.com/poiesic/archivist/core"
)

// Processing stages, recorded on failure so operators can see where a
// run broke.
const (
	stageExtract  = "extract"
	stageEmbed    = "embed"
	stageClassify = "classify"
	stageEntities = "entities"
	stageSummary  = "summary"
	stageFinalize = "finalize"
)

// Cache operation names. Keyed against the exact extracted text.
const (
	opEntities = "entities"
	opSummary  = "summary"
)

// Process runs the full analysis for one document synchronously.
// The document must already be in the processing state; Trigger and
// TriggerBatch arrange that. Any step failure marks the document ERROR
// and returns nil: the error lives on the document, not in the call.
func (p *Pipeline) Process(ctx context.Context, id core.ID) error {
	doc, err := p.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	// Completion may only follow a claim; a document that skipped the
	// transition must not jump straight to a terminal state.
	if doc.State != core.StateProcessing {
		return ErrNotClaimed
	}

	p.logger.Info("processing document", "id", doc.Id, "filename", doc.Filename)

	// Text extraction
	text, err := p.extractor.Text(ctx, doc.File.Path, doc.Filename)
	if err != nil {
		return p.markError(ctx, doc, stageExtract, err)
	}
	if text == "" {
		return p.markError(ctx, doc, stageExtract, ErrEmptyText)
	}
	doc.Text = text

	// Embedding
	vector, err := p.provider.Embedder().EmbedText(ctx, text)
	if err != nil {
		return p.markError(ctx, doc, stageEmbed, err)
	}
	doc.Vector = vector

	// Classification, only for documents uploaded without a type
	if doc.Type == core.TypeOther {
		label, err := p.provider.Classifier().Classify(ctx, text)
		if err != nil {
			return p.markError(ctx, doc, stageClassify, err)
		}
		if parsed, err := core.ParseDocumentType(label); err == nil {
			doc.Type = parsed
		}
	}

	// Entity extraction, memoized against the exact text
	entities, err := p.extractEntities(ctx, doc, text)
	if err != nil {
		return p.markError(ctx, doc, stageEntities, err)
	}
	doc.Metadata.Entities = entities

	// Summary, memoized against the exact text
	summary, err := p.summarize(ctx, doc, text)
	if err != nil {
		return p.markError(ctx, doc, stageSummary, err)
	}
	doc.Metadata.Summary = summary

	// Single atomic write marks the run complete
	doc.State = core.StateCompleted
	doc.ProcessedAt = time.Now().UTC()
	if _, err := p.repo.UpdateDocuments(ctx, doc); err != nil {
		return p.markError(ctx, doc, stageFinalize, err)
	}

	p.logger.Info("document processed", "id", doc.Id, "type", doc.Type)
	return nil
}

// extractEntities returns the document's entities, from cache when the
// text is unchanged and fresh.
func (p *Pipeline) extractEntities(ctx context.Context, doc *core.Document, text string) (*core.EntityBag, error) {
	if cached, ok := p.cache.Get(doc, opEntities, text); ok {
		var bag core.EntityBag
		if err := json.Unmarshal(cached, &bag); err == nil {
			p.logger.Debug("entity cache hit", "id", doc.Id)
			return &bag, nil
		}
		// Unreadable payload: fall through and recompute
	}

	extracted, err := p.provider.EntityExtractor().ExtractEntities(ctx, text)
	if err != nil {
		return nil, err
	}

	bag := entityBagFrom(extracted)
	if err := p.cache.Set(doc, opEntities, text, bag); err != nil {
		p.logger.Warn("failed to cache entities", "id", doc.Id, "err", err)
	}
	return bag, nil
}

// summarize returns the document's summary, from cache when the text
// is unchanged and fresh.
func (p *Pipeline) summarize(ctx context.Context, doc *core.Document, text string) (string, error) {
	if cached, ok := p.cache.Get(doc, opSummary, text); ok {
		var summary string
		if err := json.Unmarshal(cached, &summary); err == nil {
			p.logger.Debug("summary cache hit", "id", doc.Id)
			return summary, nil
		}
	}

	summary, err := p.provider.Summarizer().Summarize(ctx, text)
	if err != nil {
		return "", err
	}

	if err := p.cache.Set(doc, opSummary, text, summary); err != nil {
		p.logger.Warn("failed to cache summary", "id", doc.Id, "err", err)
	}
	return summary, nil
}

// markError moves the document to the error state, recording the stage
// that failed. Partial results computed before the failure stay on the
// document.
func (p *Pipeline) markError(ctx context.Context, doc *core.Document, stage string, cause error) error {
	p.logger.Error("processing failed", "id", doc.Id, "stage", stage, "err", cause)

	doc.State = core.StateError
	doc.ErrorDetail = cause.Error()
	doc.Metadata.Error = &core.ProcessingError{
		Stage:      stage,
		Message:    cause.Error(),
		OccurredAt: time.Now().UTC(),
	}

	if _, err := p.repo.UpdateDocuments(ctx, doc); err != nil {
		return err
	}
	return nil
}

// entityBagFrom converts the AI extraction result into the domain
// entity bag.
func entityBagFrom(extracted *ai.ExtractedEntities) *core.EntityBag {
	return &core.EntityBag{
		Persons:       extracted.Persons,
		Organizations: extracted.Organizations,
		Places:        extracted.Places,
		Dates:         extracted.Dates,
		Amounts:       extracted.Amounts,
		LegalRefs:     extracted.LegalRefs,
	}
}
