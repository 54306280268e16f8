// Package users provides database operations for account management.
package users

import (
	"gorm.io/gorm"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// Repository handles user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user.
func (r *Repository) Create(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by primary key.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTokenHash retrieves a user by the sha256 hash of their API token.
func (r *Repository) GetByTokenHash(hash string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("token_hash = ?", hash).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetTokenHash stores (or clears) a user's API token hash.
func (r *Repository) SetTokenHash(id uint, hash string) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Update("token_hash", hash).Error
}

// Count returns the number of registered users.
func (r *Repository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&entities.User{}).Count(&n).Error
	return n, err
}
