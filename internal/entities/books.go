package entities

import (
	"time"

	"gorm.io/gorm"
)

type ReadingStatus string

const (
	ReadingStatusUnread  ReadingStatus = "unread"
	ReadingStatusReading ReadingStatus = "reading"
	ReadingStatusRead    ReadingStatus = "read"
)

// Valid reports whether s is one of the known reading statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case ReadingStatusUnread, ReadingStatusReading, ReadingStatusRead:
		return true
	}
	return false
}

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string         `gorm:"size:100" json:"-"`
	TokenHash    string         `gorm:"index;size:64" json:"-"` // sha256 of the API token
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// LibraryBook is a book the user owns. ISBN uniqueness is enforced per user,
// but only for rows that actually carry an ISBN.
type LibraryBook struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"index;uniqueIndex:idx_library_user_isbn" json:"user_id"`
	Title          string        `gorm:"index;size:512" json:"title"`
	Author         string        `gorm:"index;size:256" json:"author,omitempty"`
	ISBN           string        `gorm:"size:20;uniqueIndex:idx_library_user_isbn,where:isbn <> ''" json:"isbn,omitempty"`
	PageCount      int           `json:"page_count,omitempty"`
	Genre          string        `gorm:"size:100" json:"genre,omitempty"`
	Synopsis       string        `gorm:"type:text" json:"synopsis,omitempty"`
	Tags           []string      `gorm:"serializer:json" json:"tags,omitempty"`
	SeriesName     string        `gorm:"size:256" json:"series_name,omitempty"`
	SeriesPosition float64       `json:"series_position,omitempty"` // float to allow novella numbering (0.5, 1.5)
	ReadingStatus  ReadingStatus `gorm:"size:20;default:'unread'" json:"reading_status"`
	DateFinished   *time.Time    `json:"date_finished,omitempty"`
	User           User          `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CompletedBook records a book the user has finished, independent of
// ownership. When the same physical book is also in the library,
// LibraryBookID links the two views.
type CompletedBook struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"index;uniqueIndex:idx_completed_user_isbn" json:"user_id"`
	LibraryBookID  *uint        `gorm:"index" json:"library_book_id,omitempty"`
	Title          string       `gorm:"index;size:512" json:"title"`
	Author         string       `gorm:"index;size:256" json:"author,omitempty"`
	ISBN           string       `gorm:"size:20;uniqueIndex:idx_completed_user_isbn,where:isbn <> ''" json:"isbn,omitempty"`
	PageCount      int          `json:"page_count,omitempty"`
	Genre          string       `gorm:"size:100" json:"genre,omitempty"`
	Synopsis       string       `gorm:"type:text" json:"synopsis,omitempty"`
	Tags           []string     `gorm:"serializer:json" json:"tags,omitempty"`
	SeriesName     string       `gorm:"size:256" json:"series_name,omitempty"`
	SeriesPosition float64      `json:"series_position,omitempty"`
	DateFinished   *time.Time   `json:"date_finished,omitempty"`
	LibraryBook    *LibraryBook `gorm:"foreignKey:LibraryBookID" json:"-"`
	User           User         `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ImportRecord keeps a per-user history of completed import runs.
// It is written once after confirm and never updated.
type ImportRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index" json:"user_id"`
	Format         string    `gorm:"size:10" json:"format"`
	Found          int       `json:"found"`
	NotFound       int       `json:"not_found"`
	Duplicates     int       `json:"duplicates"`
	LibraryUpdates int       `json:"library_updates"`
	Invalid        int       `json:"invalid"`
	Imported       int       `json:"imported"`
	Updated        int       `json:"updated"`
	AddedToLibrary int       `json:"added_to_library"`
	Notes          string    `gorm:"type:text" json:"notes,omitempty"` // newline-separated commit notes
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (LibraryBook) TableName() string {
	return "books"
}

func (CompletedBook) TableName() string {
	return "completed_books"
}

func (ImportRecord) TableName() string {
	return "import_records"
}
