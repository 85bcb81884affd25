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
	"strings"
	"time"

	"github.com/poiesic/archivist/ai"
	"github.com/tmc/langchaingo/llms"
)

// QueryParser implements ai.QueryParser using OpenAI-compatible chat APIs.
type QueryParser struct {
	client llms.Model
	logger *slog.Logger
}

// queryResponse matches the JSON structure expected from the LLM.
type queryResponse struct {
	SearchText string `json:"search_text"`
	DocType    string `json:"doc_type"`
	DateRange  struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
	Entities struct {
		Persons       []string `json:"persons"`
		Organizations []string `json:"organizations"`
		Places        []string `json:"places"`
	} `json:"entities"`
}

// newQueryParser is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQueryParser(config *ai.Config) (*QueryParser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}

	return &QueryParser{
		client: client,
		logger: slog.Default().With("component", "openai-queryparser"),
	}, nil
}

// NewQueryParser creates a new query parser using the provided configuration.
//
// Returns ai.QueryParser interface to enforce abstraction.
func NewQueryParser(config *ai.Config) (ai.QueryParser, error) {
	return newQueryParser(config)
}

// ParseQuery turns a natural-language query into structured search
// parameters. Malformed individual fields are dropped rather than
// failing the whole parse.
func (p *QueryParser) ParseQuery(ctx context.Context, query string) (*ai.ParsedQuery, error) {
	prompt := fmt.Sprintf(queryPromptTemplate, queryResponseSchema, strings.Join(ai.DocumentTypeLabels, ", "))
	content := chatContent(prompt, query)

	// Try up to 3 times in case of malformed JSON
	var result queryResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := p.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			p.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			p.logger.Debug("no choices returned from model")
			lastErr = nil
			break
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			p.logger.Warn("error parsing query response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		p.logger.Error("failed to parse query response after retries", "err", lastErr)
		return nil, lastErr
	}

	parsed := &ai.ParsedQuery{
		SearchText: strings.TrimSpace(result.SearchText),
	}
	if parsed.SearchText == "" {
		parsed.SearchText = query
	}

	if isKnownLabel(result.DocType) {
		parsed.DocType = result.DocType
	} else if result.DocType != "" {
		p.logger.Debug("dropping unknown doc_type from parsed query", "doc_type", result.DocType)
	}

	parsed.DateStart = validDate(result.DateRange.Start)
	parsed.DateEnd = validDate(result.DateRange.End)

	entities := make(map[string][]string)
	if len(result.Entities.Persons) > 0 {
		entities["persons"] = result.Entities.Persons
	}
	if len(result.Entities.Organizations) > 0 {
		entities["organizations"] = result.Entities.Organizations
	}
	if len(result.Entities.Places) > 0 {
		entities["places"] = result.Entities.Places
	}
	if len(entities) > 0 {
		parsed.Entities = entities
	}

	return parsed, nil
}

// isKnownLabel reports whether s is a valid document type label.
func isKnownLabel(s string) bool {
	for _, known := range ai.DocumentTypeLabels {
		if s == known {
			return true
		}
	}
	return false
}

// validDate returns s if it parses as YYYY-MM-DD, otherwise empty.
func validDate(s string) string {
	if s == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return ""
	}
	return s
}
