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


// Package config loads the application configuration from a YAML file,
// filling in defaults for anything the file leaves out. A missing file
// is not an error; it yields the full default configuration.
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AIConfig configures the AI service endpoints.
type AIConfig struct {
	// EmbeddingHost is the OpenAI-compatible embedding endpoint.
	EmbeddingHost string `yaml:"embedding_host"`

	// LLMHost is the OpenAI-compatible chat endpoint.
	LLMHost string `yaml:"llm_host"`

	// EmbeddingModel names the embedding model.
	EmbeddingModel string `yaml:"embedding_model"`

	// LLMModel names the chat model.
	LLMModel string `yaml:"llm_model"`

	// APIToken authenticates against the endpoints. The
	// ARCHIVIST_API_TOKEN environment variable overrides it.
	APIToken string `yaml:"api_token"`

	// MaxPromptChars caps how much document text is sent per request.
	MaxPromptChars int `yaml:"max_prompt_chars"`
}

// Config is the application configuration.
type Config struct {
	// DataDir holds the document database.
	DataDir string `yaml:"data_dir"`

	// FilesDir holds the uploaded files.
	FilesDir string `yaml:"files_dir"`

	// OCRLanguage is the tesseract language pack for scanned documents.
	OCRLanguage string `yaml:"ocr_language"`

	// PoolSize is the analysis worker pool size. Zero means one worker
	// per two CPUs.
	PoolSize int `yaml:"pool_size"`

	// CacheTTL is how long memoized AI results stay valid.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// MinSimilarity is the default search similarity threshold.
	MinSimilarity float32 `yaml:"min_similarity"`

	AI AIConfig `yaml:"ai"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DataDir:       "./data/db",
		FilesDir:      "./data/files",
		OCRLanguage:   "ita",
		CacheTTL:      24 * time.Hour,
		MinSimilarity: 0.7,
		AI: AIConfig{
			EmbeddingHost:  "http://localhost:11434/v1",
			LLMHost:        "http://localhost:11434/v1",
			EmbeddingModel: "embeddinggemma",
			LLMModel:       "qwen2.5:3b",
			MaxPromptChars: 4000,
		},
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present but malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// applyDefaults fills fields the file left zero-valued.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.FilesDir == "" {
		cfg.FilesDir = def.FilesDir
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = def.OCRLanguage
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.MinSimilarity == 0 {
		cfg.MinSimilarity = def.MinSimilarity
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = def.AI.EmbeddingHost
	}
	if cfg.AI.LLMHost == "" {
		cfg.AI.LLMHost = def.AI.LLMHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = def.AI.EmbeddingModel
	}
	if cfg.AI.LLMModel == "" {
		cfg.AI.LLMModel = def.AI.LLMModel
	}
	if cfg.AI.MaxPromptChars <= 0 {
		cfg.AI.MaxPromptChars = def.AI.MaxPromptChars
	}
}

// applyEnv applies environment overrides.
func applyEnv(cfg *Config) {
	if token := os.Getenv("ARCHIVIST_API_TOKEN"); token != "" {
		cfg.AI.APIToken = token
	}
}
