package library

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelftrack/shelftrack/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_library_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.LibraryBook{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_CreateAndList(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.LibraryBook{
		UserID:        1,
		Title:         "Dune",
		Author:        "Frank Herbert",
		ISBN:          "9780441013593",
		Tags:          []string{"scifi", "classic"},
		ReadingStatus: entities.ReadingStatusUnread,
	}
	require.NoError(t, repo.Create(book))
	assert.NotZero(t, book.ID)

	require.NoError(t, repo.Create(&entities.LibraryBook{UserID: 2, Title: "Hyperion"}))

	books, err := repo.ListForUser(1)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, []string{"scifi", "classic"}, books[0].Tags)
}

func TestRepository_DuplicateISBNRejected(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.LibraryBook{UserID: 1, Title: "Dune", ISBN: "9780441013593"}))

	err := repo.Create(&entities.LibraryBook{UserID: 1, Title: "Dune Again", ISBN: "9780441013593"})
	assert.Error(t, err)

	// Same ISBN for a different user is fine.
	assert.NoError(t, repo.Create(&entities.LibraryBook{UserID: 2, Title: "Dune", ISBN: "9780441013593"}))
}

func TestRepository_EmptyISBNNotUnique(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Books without an ISBN must not trip the uniqueness constraint.
	require.NoError(t, repo.Create(&entities.LibraryBook{UserID: 1, Title: "Zine One"}))
	assert.NoError(t, repo.Create(&entities.LibraryBook{UserID: 1, Title: "Zine Two"}))
}

func TestRepository_GetByID_ScopedToOwner(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.LibraryBook{UserID: 1, Title: "Dune"}
	require.NoError(t, repo.Create(book))

	got, err := repo.GetByID(book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	_, err = repo.GetByID(book.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_MarkRead(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.LibraryBook{UserID: 1, Title: "Dune", ReadingStatus: entities.ReadingStatusReading}
	require.NoError(t, repo.Create(book))

	finished := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRead(book.ID, 1, &finished))

	got, err := repo.GetByID(book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.ReadingStatusRead, got.ReadingStatus)
	require.NotNil(t, got.DateFinished)

	// Wrong owner never updates.
	err = repo.MarkRead(book.ID, 2, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_UpdateStatus_UnreadClearsDate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	finished := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	book := &entities.LibraryBook{UserID: 1, Title: "Dune", ReadingStatus: entities.ReadingStatusRead, DateFinished: &finished}
	require.NoError(t, repo.Create(book))

	require.NoError(t, repo.UpdateStatus(book.ID, 1, entities.ReadingStatusUnread, nil))

	got, err := repo.GetByID(book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.ReadingStatusUnread, got.ReadingStatus)
	assert.Nil(t, got.DateFinished)
}

func TestRepository_FindByISBN(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.LibraryBook{UserID: 1, Title: "Dune", ISBN: "9780441013593"}))

	got, err := repo.FindByISBN("9780441013593", 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	_, err = repo.FindByISBN("9780441013593", 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_UpdateMetadata(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.LibraryBook{UserID: 1, Title: "Dune"}
	require.NoError(t, repo.Create(book))

	pages := 412
	genre := "Science Fiction"
	require.NoError(t, repo.UpdateMetadata(book.ID, MetadataFields{PageCount: &pages, Genre: &genre}))

	got, err := repo.GetByID(book.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 412, got.PageCount)
	assert.Equal(t, "Science Fiction", got.Genre)
	// Untouched fields stay untouched.
	assert.Equal(t, "", got.Synopsis)

	// No fields set is a no-op, not an error.
	assert.NoError(t, repo.UpdateMetadata(book.ID, MetadataFields{}))
}

func TestRepository_ListMissingMetadata(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.LibraryBook{UserID: 1, Title: "Bare"}))
	require.NoError(t, repo.Create(&entities.LibraryBook{
		UserID: 1, Title: "Complete", PageCount: 412, Genre: "Science Fiction", Synopsis: "...",
	}))

	books, err := repo.ListMissingMetadata(10)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Bare", books[0].Title)
}

func TestRepository_Delete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.LibraryBook{UserID: 1, Title: "Dune"}
	require.NoError(t, repo.Create(book))

	require.NoError(t, repo.Delete(book.ID, 1))

	_, err := repo.GetByID(book.ID, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
