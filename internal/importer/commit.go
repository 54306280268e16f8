package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// CompletedStore is the persistence surface the pipeline needs for
// completed-book records.
type CompletedStore interface {
	ListForUser(userID uint) ([]entities.CompletedBook, error)
	FindByISBN(isbn string, userID uint) (*entities.CompletedBook, error)
	FindByTitleAuthor(title, author string, userID uint) (*entities.CompletedBook, error)
	Create(record *entities.CompletedBook) error
}

// LibraryStore is the persistence surface the pipeline needs for library books.
type LibraryStore interface {
	ListForUser(userID uint) ([]entities.LibraryBook, error)
	GetByID(id, userID uint) (*entities.LibraryBook, error)
	FindByISBN(isbn string, userID uint) (*entities.LibraryBook, error)
	Create(book *entities.LibraryBook) error
	MarkRead(id, userID uint, dateFinished *time.Time) error
}

// CommitResult summarizes one confirm call. Imported counts new
// completed-book rows, Updated counts library rows marked read, and
// AddedToLibrary counts library rows created from completed-book data.
// Notes collects per-item failures; it is returned once, never persisted.
type CommitResult struct {
	Imported       int      `json:"imported"`
	Updated        int      `json:"updated"`
	AddedToLibrary int      `json:"added_to_library"`
	Notes          []string `json:"notes,omitempty"`

	// Echoes of the affected records so callers can refresh UI state
	// without a full reload.
	CreatedCompleted []entities.CompletedBook `json:"created_completed,omitempty"`
	UpdatedLibrary   []entities.LibraryBook   `json:"updated_library,omitempty"`
	CreatedLibrary   []entities.LibraryBook   `json:"created_library,omitempty"`
}

// CommitEngine applies a finalized decision set against the two record
// stores. Writes are serialized per user to avoid unique-constraint races
// within one import batch; different users commit concurrently.
//
// The batch has partial-success semantics: one item's failure is collected
// into Notes and never rolls back sibling items. Re-running the same decision
// set after a partial failure is safe — already-created records are detected
// and skipped.
type CommitEngine struct {
	completed CompletedStore
	library   LibraryStore

	mu        sync.Mutex
	userLocks map[uint]*sync.Mutex
}

// NewCommitEngine creates a commit engine over the two stores.
func NewCommitEngine(completed CompletedStore, library LibraryStore) *CommitEngine {
	return &CommitEngine{
		completed: completed,
		library:   library,
		userLocks: make(map[uint]*sync.Mutex),
	}
}

func (e *CommitEngine) userLock(userID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

// Commit runs every accepted item to completion and returns a result.
// There is no cancellation mid-batch: ctx is passed through to stores but a
// submitted commit always produces a CommitResult.
func (e *CommitEngine) Commit(ctx context.Context, userID uint, set DecisionSet) *CommitResult {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	result := &CommitResult{}

	for _, entry := range set.BooksToImport {
		e.commitCompleted(userID, entry, result)
	}
	for _, update := range set.LibraryUpdates {
		e.commitLibraryUpdate(userID, update, result)
	}

	return result
}

// commitCompleted inserts one completed-book record, skipping and reporting
// when an equivalent record already exists.
func (e *CommitEngine) commitCompleted(userID uint, entry Entry, result *CommitResult) {
	if existing := e.findExistingCompleted(userID, entry); existing != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("%s: already recorded as completed, skipped", describeEntry(entry)))
		return
	}

	record := &entities.CompletedBook{
		UserID:         userID,
		Title:          entry.Title,
		Author:         entry.Author,
		ISBN:           entry.ISBN,
		PageCount:      entry.PageCount,
		Genre:          entry.Genre,
		Synopsis:       entry.Synopsis,
		Tags:           entry.Tags,
		SeriesName:     entry.SeriesName,
		SeriesPosition: entry.SeriesPosition,
		DateFinished:   entry.DateFinished,
	}

	// An owned entry also gets a library row, created or linked before the
	// completed record so the link lands in the same insert.
	if entry.Owned {
		if book := e.ensureLibraryBook(userID, entry, result); book != nil {
			record.LibraryBookID = &book.ID
		}
	}

	if err := e.completed.Create(record); err != nil {
		// Typically a unique-constraint conflict from intra-batch
		// duplicates racing past the pre-check.
		result.Notes = append(result.Notes, fmt.Sprintf("%s: %v", describeEntry(entry), err))
		return
	}

	result.Imported++
	result.CreatedCompleted = append(result.CreatedCompleted, *record)
}

// findExistingCompleted checks for a prior record by ISBN, then by the
// case-insensitive title+author key.
func (e *CommitEngine) findExistingCompleted(userID uint, entry Entry) *entities.CompletedBook {
	if entry.ISBN != "" {
		if existing, err := e.completed.FindByISBN(entry.ISBN, userID); err == nil && existing != nil {
			return existing
		}
	}
	if entry.Title != "" {
		if existing, err := e.completed.FindByTitleAuthor(entry.Title, entry.Author, userID); err == nil && existing != nil {
			return existing
		}
	}
	return nil
}

// ensureLibraryBook finds the user's library row for an owned entry, creating
// one (already marked read) when none exists. Returns nil when creation fails.
func (e *CommitEngine) ensureLibraryBook(userID uint, entry Entry, result *CommitResult) *entities.LibraryBook {
	if entry.ISBN != "" {
		if book, err := e.library.FindByISBN(entry.ISBN, userID); err == nil && book != nil {
			return book
		}
	}

	book := &entities.LibraryBook{
		UserID:         userID,
		Title:          entry.Title,
		Author:         entry.Author,
		ISBN:           entry.ISBN,
		PageCount:      entry.PageCount,
		Genre:          entry.Genre,
		Synopsis:       entry.Synopsis,
		Tags:           entry.Tags,
		SeriesName:     entry.SeriesName,
		SeriesPosition: entry.SeriesPosition,
		ReadingStatus:  entities.ReadingStatusRead,
		DateFinished:   entry.DateFinished,
	}
	if err := e.library.Create(book); err != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("%s: could not add to library: %v", describeEntry(entry), err))
		return nil
	}

	result.AddedToLibrary++
	result.CreatedLibrary = append(result.CreatedLibrary, *book)
	return book
}

// commitLibraryUpdate marks one matched library book as read.
func (e *CommitEngine) commitLibraryUpdate(userID uint, update LibraryUpdate, result *CommitResult) {
	if err := e.library.MarkRead(update.BookID, userID, update.NewDateFinished); err != nil {
		result.Notes = append(result.Notes, fmt.Sprintf("library book %d: %v", update.BookID, err))
		return
	}

	result.Updated++
	if book, err := e.library.GetByID(update.BookID, userID); err == nil && book != nil {
		result.UpdatedLibrary = append(result.UpdatedLibrary, *book)
	}
}

func describeEntry(entry Entry) string {
	if entry.ISBN != "" {
		return fmt.Sprintf("%s (%s)", entry.Title, entry.ISBN)
	}
	return entry.Title
}
