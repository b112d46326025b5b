package llmHandlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GenaiGeminiClient implements Client for Gemini, through either the Gemini
// API or Vertex AI.
type GenaiGeminiClient struct {
	client  *genai.Client
	modelID string

	Temperature float32
	MaxTokens   int32
	JSONMode    bool
}

type GeminiConfig struct {
	APIKey  string
	ModelID string

	// Project and Location select the Vertex AI backend when APIKey is empty.
	Project  string
	Location string

	JSONMode bool
}

func NewGenaiGeminiClient(ctx context.Context, cfg GeminiConfig) (*GenaiGeminiClient, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("GEMINI_MODEL_ID must be set")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.APIKey == "" {
		if cfg.Project == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT_ID must be set")
		}
		cc = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &GenaiGeminiClient{
		client:      client,
		modelID:     cfg.ModelID,
		Temperature: 0.7,
		MaxTokens:   2048,
		JSONMode:    cfg.JSONMode,
	}, nil
}

// toGenaiContents maps our roles onto Gemini's: assistant turns become
// "model", everything else "user". System messages are folded into the
// system instruction by the caller.
func toGenaiContents(messages []Message) (string, []*genai.Content) {
	var systemParts []string
	contents := []*genai.Content{}

	for _, m := range messages {
		if m.Role == RoleSystem {
			systemParts = append(systemParts, m.Content)
			continue
		}
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return strings.Join(systemParts, "\n"), contents
}

func (v *GenaiGeminiClient) Chat(ctx context.Context, systemMessage string, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	extraSystem, contents := toGenaiContents(messages)
	if extraSystem != "" {
		systemMessage = strings.TrimSpace(systemMessage + "\n" + extraSystem)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     &v.Temperature,
		MaxOutputTokens: v.MaxTokens,
	}
	if v.JSONMode {
		genConfig.ResponseMIMEType = "application/json"
	}
	if systemMessage != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemMessage}},
		}
	}

	resp, err := v.client.Models.GenerateContent(ctx, v.modelID, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini GenerateContent: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	return sb.String(), nil
}
