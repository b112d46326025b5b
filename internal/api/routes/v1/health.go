package v1

import (
	"whiteboard-studio/internal/handlers"

	"github.com/gofiber/fiber/v2"
)

func registerHealth(r fiber.Router) {
	r.Get("/health", handlers.Health)
}
