package completed

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
	dbPath := "./test_completed_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.CompletedBook{})
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

	older := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(&entities.CompletedBook{UserID: 1, Title: "Dune", DateFinished: &older}))
	require.NoError(t, repo.Create(&entities.CompletedBook{UserID: 1, Title: "Hyperion", DateFinished: &newer}))
	require.NoError(t, repo.Create(&entities.CompletedBook{UserID: 2, Title: "Neuromancer"}))

	records, err := repo.ListForUser(1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Most recently finished first.
	assert.Equal(t, "Hyperion", records[0].Title)
	assert.Equal(t, "Dune", records[1].Title)
}

func TestRepository_DuplicateISBNRejected(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.CompletedBook{UserID: 1, Title: "Dune", ISBN: "9780441013593"}))

	err := repo.Create(&entities.CompletedBook{UserID: 1, Title: "Dune", ISBN: "9780441013593"})
	assert.Error(t, err)

	assert.NoError(t, repo.Create(&entities.CompletedBook{UserID: 2, Title: "Dune", ISBN: "9780441013593"}))
}

func TestRepository_EmptyISBNNotUnique(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.CompletedBook{UserID: 1, Title: "Zine One"}))
	assert.NoError(t, repo.Create(&entities.CompletedBook{UserID: 1, Title: "Zine Two"}))
}

func TestRepository_FindByISBN(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.CompletedBook{UserID: 1, Title: "Dune", ISBN: "9780441013593"}))

	got, err := repo.FindByISBN("9780441013593", 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	_, err = repo.FindByISBN("9780441013593", 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_FindByTitleAuthor(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.CompletedBook{UserID: 1, Title: "Dune", Author: "Frank Herbert"}))

	got, err := repo.FindByTitleAuthor("DUNE", "frank herbert", 1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	_, err = repo.FindByTitleAuthor("Dune", "Someone Else", 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_LinkLibraryBook(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	record := &entities.CompletedBook{UserID: 1, Title: "Dune"}
	require.NoError(t, repo.Create(record))

	require.NoError(t, repo.LinkLibraryBook(record.ID, 42))

	got, err := repo.GetByID(record.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, got.LibraryBookID)
	assert.Equal(t, uint(42), *got.LibraryBookID)
}

func TestRepository_Delete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	record := &entities.CompletedBook{UserID: 1, Title: "Dune"}
	require.NoError(t, repo.Create(record))

	require.NoError(t, repo.Delete(record.ID, 1))

	_, err := repo.GetByID(record.ID, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
