package repo

import (
	"time"

	"whiteboard-studio/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConnectionRepo struct {
	db *gorm.DB
}

type ConnectionRepoInterface interface {
	CreateConnection(conn *models.Connection) error
	GetConnection(id uuid.UUID) (*models.Connection, error)
	UpdateConnection(id uuid.UUID, patch models.ConnectionPatch) (*models.Connection, error)
	DeleteConnection(id uuid.UUID) error
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepoInterface {
	return &ConnectionRepo{db: db}
}

func (r *ConnectionRepo) CreateConnection(conn *models.Connection) error {
	if conn.UUID == uuid.Nil {
		conn.UUID = uuid.New()
	}
	conn.CreatedAt = time.Now()
	conn.UpdatedAt = time.Now()
	return r.db.Create(conn).Error
}

func (r *ConnectionRepo) GetConnection(id uuid.UUID) (*models.Connection, error) {
	var conn models.Connection
	if err := r.db.Where("uuid = ?", id).First(&conn).Error; err != nil {
		return nil, notFound(err)
	}
	return &conn, nil
}

// UpdateConnection writes only the style fields present in patch.
func (r *ConnectionRepo) UpdateConnection(id uuid.UUID, patch models.ConnectionPatch) (*models.Connection, error) {
	cols := patch.Columns()
	cols["updated_at"] = time.Now()
	res := r.db.Model(&models.Connection{}).Where("uuid = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetConnection(id)
}

func (r *ConnectionRepo) DeleteConnection(id uuid.UUID) error {
	res := r.db.Where("uuid = ?", id).Delete(&models.Connection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
