package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	llmHandlers "whiteboard-studio/internal/llm_handlers"
	"whiteboard-studio/internal/models"
)

const maxFallbackIdeas = 8

// ErrEmptyTopic is returned when the topic is blank.
var ErrEmptyTopic = errors.New("topic is required")

// Agent turns a topic into board content using a JSON-mode LLM client.
type Agent struct {
	llmClient llmHandlers.Client
}

func NewAgent(client llmHandlers.Client) *Agent {
	return &Agent{llmClient: client}
}

// Brainstorm asks for a titled list of ideas. If the answer is not valid
// JSON the non-empty lines of the reply are used as ideas instead.
func (a *Agent) Brainstorm(ctx context.Context, topic string) (models.Brainstorm, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return models.Brainstorm{}, ErrEmptyTopic
	}

	resp, err := a.llmClient.Chat(ctx, BRAINSTORM_SYSTEM, []llmHandlers.Message{
		{Role: llmHandlers.RoleUser, Content: fmt.Sprintf(BRAINSTORM_PROMPT, topic)},
	})
	if err != nil {
		return models.Brainstorm{}, fmt.Errorf("brainstorm: %w", err)
	}

	var out models.Brainstorm
	if err := parseJSON(resp, &out); err != nil || len(out.Ideas) == 0 {
		log.Printf("brainstorm: unstructured reply, splitting lines: %v", err)
		return models.Brainstorm{Title: "Brainstorm Ideas", Ideas: splitIdeas(resp)}, nil
	}
	return out, nil
}

// Diagram asks for a flowchart. Unlike Brainstorm there is no fallback.
func (a *Agent) Diagram(ctx context.Context, topic string) (models.Diagram, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return models.Diagram{}, ErrEmptyTopic
	}

	resp, err := a.llmClient.Chat(ctx, DIAGRAM_SYSTEM, []llmHandlers.Message{
		{Role: llmHandlers.RoleUser, Content: fmt.Sprintf(DIAGRAM_PROMPT, topic)},
	})
	if err != nil {
		return models.Diagram{}, fmt.Errorf("diagram: %w", err)
	}

	var out models.Diagram
	if err := parseJSON(resp, &out); err != nil {
		return models.Diagram{}, fmt.Errorf("failed to parse diagram response: %w", err)
	}
	return out, nil
}

// parseJSON decodes a reply that may be wrapped in a markdown code fence.
func parseJSON(resp string, v interface{}) error {
	s := strings.TrimSpace(resp)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return json.Unmarshal([]byte(strings.TrimSpace(s)), v)
}

func splitIdeas(resp string) []string {
	var ideas []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ideas = append(ideas, line)
		if len(ideas) == maxFallbackIdeas {
			break
		}
	}
	return ideas
}
