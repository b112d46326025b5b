package repo

import (
	"time"

	"whiteboard-studio/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ElementRepo struct {
	db *gorm.DB
}

type ElementRepoInterface interface {
	CreateElement(element *models.Element) error
	GetElement(id uuid.UUID) (*models.Element, error)
	UpdateElement(id uuid.UUID, patch models.ElementPatch) (*models.Element, error)
	DeleteElement(id uuid.UUID) error
}

func NewElementRepository(db *gorm.DB) ElementRepoInterface {
	return &ElementRepo{db: db}
}

// CreateElement inserts the element, generating an id if the caller did not
// propose one.
func (r *ElementRepo) CreateElement(element *models.Element) error {
	if element.UUID == uuid.Nil {
		element.UUID = uuid.New()
	}
	element.FloorSize()
	element.CreatedAt = time.Now()
	element.UpdatedAt = time.Now()
	return r.db.Create(element).Error
}

func (r *ElementRepo) GetElement(id uuid.UUID) (*models.Element, error) {
	var element models.Element
	if err := r.db.Where("uuid = ?", id).First(&element).Error; err != nil {
		return nil, notFound(err)
	}
	return &element, nil
}

// UpdateElement writes only the fields present in patch.
func (r *ElementRepo) UpdateElement(id uuid.UUID, patch models.ElementPatch) (*models.Element, error) {
	cols := patch.Columns()
	cols["updated_at"] = time.Now()
	res := r.db.Model(&models.Element{}).Where("uuid = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetElement(id)
}

// DeleteElement removes the element and every connection bound to it in one
// transaction.
func (r *ElementRepo) DeleteElement(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("start_element_id = ? OR end_element_id = ?", id, id).
			Delete(&models.Connection{}).Error
		if err != nil {
			return err
		}
		res := tx.Where("uuid = ?", id).Delete(&models.Element{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
