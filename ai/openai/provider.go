package openai

import (
	"github.com/poiesic/archivist/ai"
)

// Provider bundles all OpenAI-compatible AI services behind the
// ai.AIProvider interface.
type Provider struct {
	embedder   *Embedder
	extractor  *EntityExtractor
	classifier *Classifier
	summarizer *Summarizer
	parser     *QueryParser
}

// NewProvider creates an AI provider backed by OpenAI-compatible APIs.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	extractor, err := newEntityExtractor(config)
	if err != nil {
		return nil, err
	}

	classifier, err := newClassifier(config)
	if err != nil {
		return nil, err
	}

	summarizer, err := newSummarizer(config)
	if err != nil {
		return nil, err
	}

	parser, err := newQueryParser(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder:   embedder,
		extractor:  extractor,
		classifier: classifier,
		summarizer: summarizer,
		parser:     parser,
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder { return p.embedder }

// EntityExtractor returns the entity extraction service.
func (p *Provider) EntityExtractor() ai.EntityExtractor { return p.extractor }

// Classifier returns the document classification service.
func (p *Provider) Classifier() ai.Classifier { return p.classifier }

// Summarizer returns the summarization service.
func (p *Provider) Summarizer() ai.Summarizer { return p.summarizer }

// QueryParser returns the query parsing service.
func (p *Provider) QueryParser() ai.QueryParser { return p.parser }

// Close releases provider resources. The underlying HTTP clients hold
// no persistent connections, so this is currently a no-op.
func (p *Provider) Close() error { return nil }
