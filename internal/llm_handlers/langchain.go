package llmHandlers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type LangChainClient struct {
	llm      llms.Model
	jsonMode bool
}

type LangChainConfig struct {
	Model    string // e.g. "gpt-4.1", "llama-3.1-70b-versatile"
	BaseURL  string // optional: for Groq or other OpenAI-compatible APIs
	APIKey   string // if not set, it'll fall back to env
	JSONMode bool
}

func NewLangChainClient(cfg LangChainConfig) (*LangChainClient, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain openai client: %w", err)
	}

	return &LangChainClient{llm: llm, jsonMode: cfg.JSONMode}, nil
}

func toMessageContents(systemMessage string, messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages)+1)
	if systemMessage != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, systemMessage))
	}
	for _, m := range messages {
		var msgType llms.ChatMessageType
		switch m.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(msgType, m.Content))
	}
	return out
}

func (c *LangChainClient) Chat(ctx context.Context, systemMessage string, messages []Message) (string, error) {
	var callOpts []llms.CallOption
	if c.jsonMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := c.llm.GenerateContent(ctx, toMessageContents(systemMessage, messages), callOpts...)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from LLM")
	}

	return resp.Choices[0].Content, nil
}
