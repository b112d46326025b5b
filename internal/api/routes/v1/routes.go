package v1

import (
	"whiteboard-studio/internal/handlers"
	"whiteboard-studio/internal/libraries"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps are the shared services the route groups are built from.
type Deps struct {
	DB     *gorm.DB
	Images libraries.ImageStore
	// Agent may be nil when no LLM provider is configured; the AI routes then
	// answer 503.
	Agent handlers.Generator
}

func RegisterRoutes(r fiber.Router, deps Deps) {
	registerHealth(r)

	registerWhiteboard(r, deps)
	registerAI(r, deps.Agent)
}
