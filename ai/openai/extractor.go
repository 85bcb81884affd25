// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/poiesic/archivist/ai"
	"github.com/tmc/langchaingo/llms"
)

// Regex fallbacks run alongside the model so amounts and normative
// references are found even when the model misses them.
var (
	amountPattern   = regexp.MustCompile(`(?:EUR|€)\s*(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)`)
	legalRefPattern = regexp.MustCompile(`(?i)(?:art\.|articolo)\s+\d+(?:\s+(?:comma|c\.)\s+\d+)?(?:\s+(?:del|della|dello|dell')\s+[^,.]+)`)
)

// EntityExtractor implements ai.EntityExtractor using OpenAI-compatible chat APIs.
type EntityExtractor struct {
	client         llms.Model
	maxPromptChars int
	logger         *slog.Logger
}

// entityResponse matches the JSON structure expected from the LLM.
type entityResponse struct {
	Persons       []string `json:"persons"`
	Organizations []string `json:"organizations"`
	Places        []string `json:"places"`
	Dates         []string `json:"dates"`
	Amounts       []string `json:"amounts"`
	LegalRefs     []string `json:"legal_refs"`
}

// newEntityExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEntityExtractor(config *ai.Config) (*EntityExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}

	return &EntityExtractor{
		client:         client,
		maxPromptChars: config.MaxPromptChars,
		logger:         slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewEntityExtractor creates a new entity extractor using the provided configuration.
//
// Returns ai.EntityExtractor interface to enforce abstraction.
func NewEntityExtractor(config *ai.Config) (ai.EntityExtractor, error) {
	return newEntityExtractor(config)
}

// ExtractEntities extracts structured entities from text using an LLM,
// merging in regex-based fallbacks for amounts and legal references.
func (e *EntityExtractor) ExtractEntities(ctx context.Context, text string) (*ai.ExtractedEntities, error) {
	prompt := fmt.Sprintf(entityPromptTemplate, entityResponseSchema)
	content := chatContent(prompt, truncateForModel(text, e.maxPromptChars))

	// Try up to 3 times in case of malformed JSON
	var result entityResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			lastErr = nil
			break
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
		return nil, lastErr
	}

	entities := &ai.ExtractedEntities{
		Persons:       result.Persons,
		Organizations: result.Organizations,
		Places:        result.Places,
		Dates:         result.Dates,
		Amounts:       result.Amounts,
		LegalRefs:     result.LegalRefs,
	}

	// The regex scan runs over the full text, not the truncated prompt.
	entities.Amounts = append(entities.Amounts, fallbackAmounts(text)...)
	entities.LegalRefs = append(entities.LegalRefs, fallbackLegalRefs(text)...)

	entities.Persons = dedupeSorted(entities.Persons)
	entities.Organizations = dedupeSorted(entities.Organizations)
	entities.Places = dedupeSorted(entities.Places)
	entities.Dates = dedupeSorted(entities.Dates)
	entities.Amounts = dedupeSorted(entities.Amounts)
	entities.LegalRefs = dedupeSorted(entities.LegalRefs)

	e.logger.Debug("extracted entities",
		"persons", len(entities.Persons),
		"organizations", len(entities.Organizations),
		"amounts", len(entities.Amounts))

	return entities, nil
}

// fallbackAmounts finds locale-formatted monetary amounts with a regex scan.
func fallbackAmounts(text string) []string {
	var amounts []string
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		amounts = append(amounts, m[1])
	}
	return amounts
}

// fallbackLegalRefs finds normative references with a regex scan.
func fallbackLegalRefs(text string) []string {
	return legalRefPattern.FindAllString(text, -1)
}

// dedupeSorted removes duplicates and empty strings and sorts ascending.
func dedupeSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
