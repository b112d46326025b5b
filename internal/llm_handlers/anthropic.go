package llmHandlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/api/httpbody"
)

type VertexAnthropicConfig struct {
	Credentials string // base64 service account JSON
	Project     string
	Location    string // "us-east5"
	Model       string // "claude-sonnet-4-5@20250929"
	MaxTokens   int
}

// rawPredictor is the part of aiplatform.PredictionClient used here.
type rawPredictor interface {
	RawPredict(ctx context.Context, req *aiplatformpb.RawPredictRequest, opts ...gax.CallOption) (*httpbody.HttpBody, error)
	Close() error
}

// VertexAnthropicClient calls Claude models through Vertex AI's rawPredict
// method on the publisher model.
type VertexAnthropicClient struct {
	predictor rawPredictor
	endpoint  string
	maxTokens int
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	Messages         []claudeMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
}

type claudeResponse struct {
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewVertexAnthropicClient(ctx context.Context, cfg VertexAnthropicConfig) (*VertexAnthropicClient, error) {
	if cfg.Credentials == "" {
		return nil, fmt.Errorf("GCP_SERVICE_ACCOUNT_CREDENTIALS not set")
	}
	if cfg.Project == "" || cfg.Model == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and CLAUDE_VERTEX_MODEL must be set")
	}
	saJSON, err := base64.StdEncoding.DecodeString(cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("decode sa json: %w", err)
	}

	// publisher models are only served from the regional endpoint
	predictor, err := aiplatform.NewPredictionClient(ctx,
		option.WithCredentialsJSON(saJSON),
		option.WithEndpoint(fmt.Sprintf("%s-aiplatform.googleapis.com:443", cfg.Location)),
	)
	if err != nil {
		return nil, fmt.Errorf("vertex.NewPredictionClient: %w", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &VertexAnthropicClient{
		predictor: predictor,
		endpoint: fmt.Sprintf("projects/%s/locations/%s/publishers/anthropic/models/%s",
			cfg.Project, cfg.Location, cfg.Model),
		maxTokens: maxTokens,
	}, nil
}

func (c *VertexAnthropicClient) Chat(ctx context.Context, systemMessage string, messages []Message) (string, error) {
	body := claudeRequest{
		AnthropicVersion: "vertex-2023-10-16",
		MaxTokens:        c.maxTokens,
		System:           systemMessage,
	}
	for _, m := range messages {
		// Claude takes the system prompt out of band.
		if m.Role == RoleSystem {
			body.System = strings.TrimSpace(body.System + "\n" + m.Content)
			continue
		}
		body.Messages = append(body.Messages, claudeMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}

	resp, err := c.predictor.RawPredict(ctx, &aiplatformpb.RawPredictRequest{
		Endpoint: c.endpoint,
		HttpBody: &httpbody.HttpBody{
			ContentType: "application/json",
			Data:        payload,
		},
	})
	if err != nil {
		return "", fmt.Errorf("vertex rawPredict: %w", err)
	}

	var cr claudeResponse
	if err := json.Unmarshal(resp.GetData(), &cr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range cr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude returned no text (stop_reason=%s)", cr.StopReason)
	}
	return sb.String(), nil
}

func (c *VertexAnthropicClient) Close() error {
	return c.predictor.Close()
}
