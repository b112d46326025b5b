package repo

import (
	"errors"
	"time"

	"whiteboard-studio/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// WhiteboardRepo represents the repository for the whiteboard model
type WhiteboardRepo struct {
	db *gorm.DB
}

type WhiteboardRepoInterface interface {
	GetOrCreateByProject(projectID string) (*models.Whiteboard, error)
	GetWhiteboard(id uuid.UUID) (*models.Whiteboard, error)
	UpdateWhiteboard(id uuid.UUID, fields map[string]interface{}) (*models.Whiteboard, error)
}

func NewWhiteboardRepository(db *gorm.DB) WhiteboardRepoInterface {
	return &WhiteboardRepo{db: db}
}

// GetOrCreateByProject returns the project's whiteboard, creating an empty
// one on first access.
func (r *WhiteboardRepo) GetOrCreateByProject(projectID string) (*models.Whiteboard, error) {
	var board models.Whiteboard
	err := r.db.Where("project_id = ?", projectID).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		board = models.Whiteboard{
			UUID:      uuid.New(),
			ProjectID: projectID,
			Title:     "Whiteboard",
			ViewScale: 1,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := r.db.Create(&board).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return r.GetWhiteboard(board.UUID)
}

// GetWhiteboard loads a whiteboard with its elements and connections, both in
// paint order.
func (r *WhiteboardRepo) GetWhiteboard(id uuid.UUID) (*models.Whiteboard, error) {
	var board models.Whiteboard
	err := r.db.
		Preload("Elements", func(db *gorm.DB) *gorm.DB { return db.Order("z_index ASC") }).
		Preload("Connections", func(db *gorm.DB) *gorm.DB { return db.Order("z_index ASC") }).
		Where("uuid = ?", id).
		First(&board).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &board, nil
}

func (r *WhiteboardRepo) UpdateWhiteboard(id uuid.UUID, fields map[string]interface{}) (*models.Whiteboard, error) {
	res := r.db.Model(&models.Whiteboard{}).Where("uuid = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetWhiteboard(id)
}
