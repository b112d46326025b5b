package v1

import (
	"whiteboard-studio/internal/handlers"
	"whiteboard-studio/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerWhiteboard(r fiber.Router, deps Deps) {
	// Initialize handlers
	boardRepo := repo.NewWhiteboardRepository(deps.DB)
	elementRepo := repo.NewElementRepository(deps.DB)
	connectionRepo := repo.NewConnectionRepository(deps.DB)
	boardHandler := handlers.NewWhiteboardHandler(boardRepo, elementRepo, connectionRepo)
	imageHandler := handlers.NewImageHandler(deps.Images, boardRepo)

	// Register routes
	r.Get("/whiteboards", boardHandler.GetByProject)
	r.Get("/whiteboards/:boardId", boardHandler.GetWhiteboard)
	r.Patch("/whiteboards/:boardId", boardHandler.UpdateWhiteboard)
	r.Post("/whiteboards/:boardId/elements", boardHandler.CreateElement)
	r.Post("/whiteboards/:boardId/connections", boardHandler.CreateConnection)
	r.Post("/whiteboards/:boardId/images", imageHandler.Upload)

	r.Patch("/whiteboard-elements/:elementId", boardHandler.UpdateElement)
	r.Delete("/whiteboard-elements/:elementId", boardHandler.DeleteElement)
	r.Patch("/whiteboard-connections/:connectionId", boardHandler.UpdateConnection)
	r.Delete("/whiteboard-connections/:connectionId", boardHandler.DeleteConnection)
}
