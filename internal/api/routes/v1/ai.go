package v1

import (
	"whiteboard-studio/internal/handlers"

	"github.com/gofiber/fiber/v2"
)

func registerAI(r fiber.Router, agent handlers.Generator) {
	ai := r.Group("/whiteboards/:boardId/ai")
	if agent == nil {
		ai.Use(func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "AI assistant is not configured",
			})
		})
		return
	}

	aiHandler := handlers.NewAIHandler(agent)
	ai.Post("/brainstorm", aiHandler.Brainstorm)
	ai.Post("/diagram", aiHandler.Diagram)
}
