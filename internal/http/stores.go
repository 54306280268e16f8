package http

import (
	"time"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// This file consolidates the store interface definitions used by HTTP
// controllers. Each controller declares only the operations it needs;
// the repository packages under internal/database satisfy them.

// LibraryStore is the library controller's view of storage.
type LibraryStore interface {
	ListForUser(userID uint) ([]entities.LibraryBook, error)
	GetByID(id, userID uint) (*entities.LibraryBook, error)
	Create(book *entities.LibraryBook) error
	UpdateStatus(id, userID uint, status entities.ReadingStatus, dateFinished *time.Time) error
	Delete(id, userID uint) error
}

// CompletedStore is the completed-books controller's view of storage.
type CompletedStore interface {
	ListForUser(userID uint) ([]entities.CompletedBook, error)
	GetByID(id, userID uint) (*entities.CompletedBook, error)
	Create(record *entities.CompletedBook) error
	Delete(id, userID uint) error
}

// ImportHistoryStore lists past imports for the history view.
type ImportHistoryStore interface {
	ListForUser(userID uint, limit int) ([]entities.ImportRecord, error)
}
