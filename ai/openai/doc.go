// Package openai implements the ai service interfaces on top of
// OpenAI-compatible HTTP APIs, such as Ollama, llama.cpp, vLLM, or the
// OpenAI platform itself.
//
// Chat-based services (extraction, classification, summarization, query
// parsing) prompt the model for strict JSON or bare labels and repair
// common formatting slips in the response. Entity extraction
// additionally backstops the model with regex scans for monetary
// amounts and normative references, so those never depend on model
// recall alone.
package openai
