// Package completed provides database operations for completed-book records.
package completed

import (
	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// Repository handles all completed-book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new completed books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser retrieves all completed books belonging to a user, most
// recently finished first.
func (r *Repository) ListForUser(userID uint) ([]entities.CompletedBook, error) {
	var records []entities.CompletedBook
	err := r.db.Where("user_id = ?", userID).
		Order("date_finished DESC, id DESC").
		Find(&records).Error
	return records, err
}

// GetByID retrieves a completed book scoped to its owner.
func (r *Repository) GetByID(id, userID uint) (*entities.CompletedBook, error) {
	var record entities.CompletedBook
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByISBN retrieves a user's completed book by ISBN.
func (r *Repository) FindByISBN(isbn string, userID uint) (*entities.CompletedBook, error) {
	var record entities.CompletedBook
	err := r.db.Where("isbn = ? AND user_id = ?", isbn, userID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByTitleAuthor retrieves a user's completed book by its
// case-insensitive title and author pair.
func (r *Repository) FindByTitleAuthor(title, author string, userID uint) (*entities.CompletedBook, error) {
	var record entities.CompletedBook
	err := r.db.Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?) AND user_id = ?",
		title, author, userID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new completed-book record.
func (r *Repository) Create(record *entities.CompletedBook) error {
	return r.db.Create(record).Error
}

// LinkLibraryBook attaches a library book to an existing completed record.
func (r *Repository) LinkLibraryBook(id, libraryBookID uint) error {
	return r.db.Model(&entities.CompletedBook{}).
		Where("id = ?", id).
		Update("library_book_id", libraryBookID).Error
}

// Delete removes a completed-book record.
func (r *Repository) Delete(id, userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&entities.CompletedBook{}, id).Error
}
