package handlers

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"whiteboard-studio/internal/libraries"
	"whiteboard-studio/internal/repo"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

type ImageHandler struct {
	store  libraries.ImageStore
	boards repo.WhiteboardRepoInterface
}

func NewImageHandler(store libraries.ImageStore, boards repo.WhiteboardRepoInterface) *ImageHandler {
	return &ImageHandler{store: store, boards: boards}
}

// function to upload an image for a board; responds with its public url
func (h *ImageHandler) Upload(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("boardId"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "No image provided")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return badRequest(c, "Unsupported image type")
	}

	if _, err := h.boards.GetWhiteboard(boardID); err != nil {
		return notFoundOr500(c, err, "Whiteboard")
	}

	f, err := file.Open()
	if err != nil {
		log.Println(err, "Error opening upload")
		return badRequest(c, "Invalid image")
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s%s", boardID, uuid.NewString(), ext)
	url, err := h.store.Save(c.UserContext(), key, contentType, f)
	if err != nil {
		log.Println(err, "Error saving image")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save image",
		})
	}

	log.Printf("Image saved successfully: %s", key)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url": url,
	})
}
