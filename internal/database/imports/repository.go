// Package imports provides database operations for import run history.
package imports

import (
	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// Repository handles import record database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new import records repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new import record.
func (r *Repository) Create(record *entities.ImportRecord) error {
	return r.db.Create(record).Error
}

// ListForUser retrieves a user's import history, newest first.
func (r *Repository) ListForUser(userID uint, limit int) ([]entities.ImportRecord, error) {
	var records []entities.ImportRecord
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}
