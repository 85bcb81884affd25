package openai

import (
	"github.com/poiesic/archivist/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// newChatClient creates an OpenAI-compatible chat client from the config.
func newChatClient(config *ai.Config) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(config.LLMHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.LLMModel),
	)
}

// chatContent builds a system+user message pair for a chat completion.
func chatContent(systemPrompt, userText string) []llms.MessageContent {
	return []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userText),
			},
		},
	}
}
