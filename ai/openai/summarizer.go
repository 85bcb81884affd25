package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/archivist/ai"
	"github.com/tmc/langchaingo/llms"
)

// Summarizer implements ai.Summarizer using OpenAI-compatible chat APIs.
type Summarizer struct {
	client         llms.Model
	maxPromptChars int
	logger         *slog.Logger
}

// newSummarizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSummarizer(config *ai.Config) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		client:         client,
		maxPromptChars: config.MaxPromptChars,
		logger:         slog.Default().With("component", "openai-summarizer"),
	}, nil
}

// NewSummarizer creates a new summarizer using the provided configuration.
//
// Returns ai.Summarizer interface to enforce abstraction.
func NewSummarizer(config *ai.Config) (ai.Summarizer, error) {
	return newSummarizer(config)
}

// Summarize produces a short prose summary of the document text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	content := chatContent(summaryPrompt, truncateForModel(text, s.maxPromptChars))

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		s.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		s.logger.Warn("no choices returned from model")
		return "", nil
	}

	summary := strings.TrimSpace(response.Choices[0].Content)
	s.logger.Debug("generated summary", "length", len(summary))
	return summary, nil
}
