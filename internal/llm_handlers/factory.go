package llmHandlers

import (
	"context"
	"fmt"

	"whiteboard-studio/internal/config"
)

type Provider string

const (
	ProviderGemini          Provider = "gemini"
	ProviderVertexGemini    Provider = "vertex_gemini"
	ProviderVertexAnthropic Provider = "vertex_anthropic"
	ProviderLangChain       Provider = "langchain" // openai / groq / llama etc.
)

// NewLLMClient builds the client for cfg.LLMProvider. Every client is created
// in JSON mode since the assistant only asks for structured answers.
func NewLLMClient(ctx context.Context, cfg config.Config) (Client, error) {
	switch Provider(cfg.LLMProvider) {
	case ProviderGemini:
		return NewGenaiGeminiClient(ctx, GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			ModelID:  cfg.GeminiModelID,
			JSONMode: true,
		})
	case ProviderVertexGemini:
		return NewGenaiGeminiClient(ctx, GeminiConfig{
			ModelID:  cfg.GeminiModelID,
			Project:  cfg.VertexProject,
			Location: cfg.VertexLocation,
			JSONMode: true,
		})
	case ProviderVertexAnthropic:
		return NewVertexAnthropicClient(ctx, VertexAnthropicConfig{
			Credentials: cfg.GCPCredentials,
			Project:     cfg.VertexProject,
			Location:    cfg.VertexLocation,
			Model:       cfg.ClaudeModel,
		})
	case ProviderLangChain, "openai", "groq":
		return NewLangChainClient(LangChainConfig{
			Model:    cfg.OpenAIModel,
			BaseURL:  cfg.OpenAIBaseURL,
			APIKey:   cfg.OpenAIAPIKey,
			JSONMode: true,
		})
	default:
		return nil, fmt.Errorf("unknown provider %s", cfg.LLMProvider)
	}
}
