// Package library provides database operations for owned books.
package library

import (
	"time"

	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// Repository handles all library book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new library books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListForUser retrieves all library books belonging to a user.
func (r *Repository) ListForUser(userID uint) ([]entities.LibraryBook, error) {
	var books []entities.LibraryBook
	err := r.db.Where("user_id = ?", userID).Order("title ASC").Find(&books).Error
	return books, err
}

// GetByID retrieves a library book scoped to its owner.
func (r *Repository) GetByID(id, userID uint) (*entities.LibraryBook, error) {
	var book entities.LibraryBook
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByISBN retrieves a user's library book by ISBN.
func (r *Repository) FindByISBN(isbn string, userID uint) (*entities.LibraryBook, error) {
	var book entities.LibraryBook
	err := r.db.Where("isbn = ? AND user_id = ?", isbn, userID).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Create inserts a new library book.
func (r *Repository) Create(book *entities.LibraryBook) error {
	return r.db.Create(book).Error
}

// Save persists changes to an existing library book.
func (r *Repository) Save(book *entities.LibraryBook) error {
	return r.db.Save(book).Error
}

// MarkRead sets reading_status to read and, when supplied, the finish date.
func (r *Repository) MarkRead(id, userID uint, dateFinished *time.Time) error {
	updates := map[string]any{"reading_status": entities.ReadingStatusRead}
	if dateFinished != nil {
		updates["date_finished"] = dateFinished
	}
	res := r.db.Model(&entities.LibraryBook{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus changes a book's reading status. Clearing the status back to
// unread also clears any finish date.
func (r *Repository) UpdateStatus(id, userID uint, status entities.ReadingStatus, dateFinished *time.Time) error {
	updates := map[string]any{"reading_status": status}
	if status == entities.ReadingStatusUnread {
		updates["date_finished"] = nil
	} else if dateFinished != nil {
		updates["date_finished"] = dateFinished
	}
	res := r.db.Model(&entities.LibraryBook{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a library book.
func (r *Repository) Delete(id, userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&entities.LibraryBook{}, id).Error
}

// MetadataFields contains the enrichable fields. Nil means leave untouched.
type MetadataFields struct {
	PageCount *int
	Genre     *string
	Synopsis  *string
	ISBN      *string
}

// UpdateMetadata applies enrichment results to a book.
func (r *Repository) UpdateMetadata(id uint, fields MetadataFields) error {
	updates := map[string]any{}
	if fields.PageCount != nil {
		updates["page_count"] = *fields.PageCount
	}
	if fields.Genre != nil {
		updates["genre"] = *fields.Genre
	}
	if fields.Synopsis != nil {
		updates["synopsis"] = *fields.Synopsis
	}
	if fields.ISBN != nil {
		updates["isbn"] = *fields.ISBN
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&entities.LibraryBook{}).Where("id = ?", id).Updates(updates).Error
}

// ListMissingMetadata returns books lacking page count, genre or synopsis,
// across all users. Used by the background enrichment sync.
func (r *Repository) ListMissingMetadata(limit int) ([]entities.LibraryBook, error) {
	var books []entities.LibraryBook
	q := r.db.Where("page_count = 0 OR genre = '' OR synopsis = ''").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&books).Error
	return books, err
}
