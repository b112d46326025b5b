package handlers

import (
	"errors"
	"log"
	"math"

	"whiteboard-studio/internal/canvas"
	"whiteboard-studio/internal/models"
	"whiteboard-studio/internal/repo"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// for simple crud operations service layer is not required
type WhiteboardHandler struct {
	boards      repo.WhiteboardRepoInterface
	elements    repo.ElementRepoInterface
	connections repo.ConnectionRepoInterface
}

func NewWhiteboardHandler(boards repo.WhiteboardRepoInterface, elements repo.ElementRepoInterface, connections repo.ConnectionRepoInterface) *WhiteboardHandler {
	return &WhiteboardHandler{
		boards:      boards,
		elements:    elements,
		connections: connections,
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func notFoundOr500(c *fiber.Ctx, err error, what string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": what + " not found",
		})
	}
	log.Println(err, "Error with "+what)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to process " + what,
	})
}

// function to get (or lazily create) a project's whiteboard
func (h *WhiteboardHandler) GetByProject(c *fiber.Ctx) error {
	projectID := c.Query("project_id")
	if projectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "project_id is required",
		})
	}
	board, err := h.boards.GetOrCreateByProject(projectID)
	if err != nil {
		log.Println(err, "Error loading whiteboard")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load whiteboard",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"whiteboard": board,
	})
}

func (h *WhiteboardHandler) GetWhiteboard(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("boardId"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	board, err := h.boards.GetWhiteboard(boardID)
	if err != nil {
		return notFoundOr500(c, err, "Whiteboard")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"whiteboard": board,
	})
}

// function to update the title and the persisted viewport
func (h *WhiteboardHandler) UpdateWhiteboard(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("boardId"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	var dto struct {
		Title     *string  `json:"title"`
		ViewX     *float64 `json:"view_x"`
		ViewY     *float64 `json:"view_y"`
		ViewScale *float64 `json:"view_scale"`
		Thumbnail *string  `json:"thumbnail"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	fields := map[string]interface{}{}
	if dto.Title != nil {
		fields["title"] = *dto.Title
	}
	if dto.ViewX != nil {
		fields["view_x"] = *dto.ViewX
	}
	if dto.ViewY != nil {
		fields["view_y"] = *dto.ViewY
	}
	if dto.ViewScale != nil {
		fields["view_scale"] = math.Min(math.Max(*dto.ViewScale, canvas.ZoomMin), canvas.ZoomMax)
	}
	if dto.Thumbnail != nil {
		fields["thumbnail"] = *dto.Thumbnail
	}
	if len(fields) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	board, err := h.boards.UpdateWhiteboard(boardID, fields)
	if err != nil {
		return notFoundOr500(c, err, "Whiteboard")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"whiteboard": board,
	})
}

// function to create an element; a client-proposed id is kept
func (h *WhiteboardHandler) CreateElement(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("boardId"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	var el models.Element
	if err := c.BodyParser(&el); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := el.Canvas().Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if _, err := h.boards.GetWhiteboard(boardID); err != nil {
		return notFoundOr500(c, err, "Whiteboard")
	}

	el.WhiteboardID = boardID
	if err := h.elements.CreateElement(&el); err != nil {
		log.Println(err, "Error creating element")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create element",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"element": el,
	})
}

// function to update only the fields present in the body
func (h *WhiteboardHandler) UpdateElement(c *fiber.Ctx) error {
	elementID, err := uuid.Parse(c.Params("elementId"))
	if err != nil {
		return badRequest(c, "Invalid element ID")
	}
	var patch models.ElementPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if patch.ShapeType != nil {
		probe := models.Element{Type: string(canvas.KindShape), ShapeType: *patch.ShapeType}
		if err := probe.Canvas().Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}
	if len(patch.Columns()) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	el, err := h.elements.UpdateElement(elementID, patch)
	if err != nil {
		return notFoundOr500(c, err, "Element")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"element": el,
	})
}

func (h *WhiteboardHandler) DeleteElement(c *fiber.Ctx) error {
	elementID, err := uuid.Parse(c.Params("elementId"))
	if err != nil {
		return badRequest(c, "Invalid element ID")
	}
	if err := h.elements.DeleteElement(elementID); err != nil {
		return notFoundOr500(c, err, "Element")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Element deleted successfully",
	})
}

// function to create a connection; bound ends must reference elements of the
// same board and a known port
func (h *WhiteboardHandler) CreateConnection(c *fiber.Ctx) error {
	boardID, err := uuid.Parse(c.Params("boardId"))
	if err != nil {
		return badRequest(c, "Invalid board ID")
	}
	var conn models.Connection
	if err := c.BodyParser(&conn); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if _, err := h.boards.GetWhiteboard(boardID); err != nil {
		return notFoundOr500(c, err, "Whiteboard")
	}

	ends := []struct {
		id   *uuid.UUID
		port string
	}{{conn.StartElementID, conn.StartPort}, {conn.EndElementID, conn.EndPort}}
	for _, end := range ends {
		if end.id == nil {
			continue
		}
		if _, err := canvas.Port(end.port).Offset(canvas.Size{}); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		el, err := h.elements.GetElement(*end.id)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return notFoundOr500(c, err, "Element")
		}
		if err != nil || el.WhiteboardID != boardID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Connected element does not belong to this whiteboard",
			})
		}
	}
	if conn.StartElementID != nil && conn.EndElementID != nil && *conn.StartElementID == *conn.EndElementID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot connect an element to itself",
		})
	}

	conn.WhiteboardID = boardID
	if err := h.connections.CreateConnection(&conn); err != nil {
		log.Println(err, "Error creating connection")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create connection",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"connection": conn,
	})
}

// function to restyle a connection; endpoints cannot be changed
func (h *WhiteboardHandler) UpdateConnection(c *fiber.Ctx) error {
	connID, err := uuid.Parse(c.Params("connectionId"))
	if err != nil {
		return badRequest(c, "Invalid connection ID")
	}
	var patch models.ConnectionPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(patch.Columns()) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	conn, err := h.connections.UpdateConnection(connID, patch)
	if err != nil {
		return notFoundOr500(c, err, "Connection")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"connection": conn,
	})
}

func (h *WhiteboardHandler) DeleteConnection(c *fiber.Ctx) error {
	connID, err := uuid.Parse(c.Params("connectionId"))
	if err != nil {
		return badRequest(c, "Invalid connection ID")
	}
	if err := h.connections.DeleteConnection(connID); err != nil {
		return notFoundOr500(c, err, "Connection")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connection deleted successfully",
	})
}
