package handlers

import (
	"context"
	"errors"
	"log"

	"whiteboard-studio/internal/assistant"
	"whiteboard-studio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Generator produces board content from a topic.
type Generator interface {
	Brainstorm(ctx context.Context, topic string) (models.Brainstorm, error)
	Diagram(ctx context.Context, topic string) (models.Diagram, error)
}

type AIHandler struct {
	agent Generator
}

func NewAIHandler(agent Generator) *AIHandler {
	return &AIHandler{agent: agent}
}

func (h *AIHandler) Brainstorm(c *fiber.Ctx) error {
	var req models.TopicRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	out, err := h.agent.Brainstorm(c.UserContext(), req.Topic)
	if errors.Is(err, assistant.ErrEmptyTopic) {
		return badRequest(c, "Topic is required")
	}
	if err != nil {
		log.Println(err, "Error generating brainstorm")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate brainstorm ideas",
		})
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AIHandler) Diagram(c *fiber.Ctx) error {
	var req models.TopicRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	out, err := h.agent.Diagram(c.UserContext(), req.Topic)
	if errors.Is(err, assistant.ErrEmptyTopic) {
		return badRequest(c, "Topic is required")
	}
	if err != nil {
		log.Println(err, "Error generating diagram")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate diagram",
		})
	}
	return c.Status(fiber.StatusOK).JSON(out)
}
