package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/archivist/ai"
	"github.com/tmc/langchaingo/llms"
)

// classifyPreviewWords caps how much of the document the classifier
// sees. The opening of a legal act is what names its kind.
const classifyPreviewWords = 512

// Classifier implements ai.Classifier using OpenAI-compatible chat APIs.
type Classifier struct {
	client llms.Model
	logger *slog.Logger
}

// newClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newClassifier(config *ai.Config) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewClassifier creates a new document classifier using the provided configuration.
//
// Returns ai.Classifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.Classifier, error) {
	return newClassifier(config)
}

// Classify assigns one of the known document type labels to the text.
// An unrecognized model answer falls back to "other".
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(classifyPromptTemplate, strings.Join(ai.DocumentTypeLabels, ", "))
	content := chatContent(prompt, previewWords(text, classifyPreviewWords))

	response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		c.logger.Warn("no choices returned from model, defaulting to other")
		return "other", nil
	}

	label := normalizeLabel(response.Choices[0].Content)
	for _, known := range ai.DocumentTypeLabels {
		if label == known {
			return label, nil
		}
	}

	c.logger.Warn("model returned unknown label, defaulting to other", "label", label)
	return "other", nil
}

// previewWords returns the first n whitespace-separated words of s.
func previewWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ")
}

// normalizeLabel lowercases the model answer and strips quotes and
// trailing punctuation.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "\"'`.")
	return s
}
