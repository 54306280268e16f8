package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/metadata"
)

type fakeHistoryStore struct {
	records []entities.ImportRecord
}

func (s *fakeHistoryStore) Create(record *entities.ImportRecord) error {
	record.ID = uint(len(s.records) + 1)
	s.records = append(s.records, *record)
	return nil
}

func newTestPipeline(provider metadata.Provider, completed *fakeCompletedStore, library *fakeLibraryStore, history *fakeHistoryStore) *Pipeline {
	classifier := NewClassifier(provider, time.Second, 2)
	engine := NewCommitEngine(completed, library)
	return NewPipeline(classifier, engine, completed, library, history)
}

func TestPipeline_ParseGroupsBuckets(t *testing.T) {
	provider := &mockProvider{
		byISBN: map[string]*metadata.BookMetadata{"9780441013593": duneMetadata()},
	}
	completed := &fakeCompletedStore{records: []entities.CompletedBook{
		{ID: 1, UserID: 1, Title: "Neuromancer", Author: "William Gibson", ISBN: "9780441569595"},
	}}
	pipeline := newTestPipeline(provider, completed, &fakeLibraryStore{}, nil)

	csv := []byte("Title,Author,ISBN,Date Read\n" +
		"Dune,Frank Herbert,9780441013593,2023-05-01\n" +
		"Neuromancer,William Gibson,9780441569595,\n" +
		"My Cousin's Memoir,,,\n" +
		",Somebody Forgotten,,\n")

	parsed, err := pipeline.Parse(context.Background(), 1, csv, FormatCSV)
	require.NoError(t, err)

	require.Len(t, parsed.Found, 1)
	require.Len(t, parsed.NotFound, 1)
	require.Len(t, parsed.Duplicates, 1)
	assert.Empty(t, parsed.LibraryUpdates)
	assert.Equal(t, 1, parsed.Invalid)
	require.Len(t, parsed.Rejected, 1)
	assert.Equal(t, RejectMissingTitleAndIsbn, parsed.Rejected[0].Reason)

	assert.Equal(t, "Dune", parsed.Found[0].Lookup.Title)
	assert.Equal(t, "My Cousin's Memoir", parsed.NotFound[0].Fallback.Title)
}

func TestPipeline_ParseItemsKeepSourceOrder(t *testing.T) {
	provider := &mockProvider{
		byISBN: map[string]*metadata.BookMetadata{"9780441013593": duneMetadata()},
	}
	pipeline := newTestPipeline(provider, &fakeCompletedStore{}, &fakeLibraryStore{}, nil)

	csv := []byte("title,isbn\nUnknown A,\nDune,9780441013593\nUnknown B,\n")
	parsed, err := pipeline.Parse(context.Background(), 1, csv, FormatCSV)
	require.NoError(t, err)

	items := parsed.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Unknown A", items[0].Original.Title)
	assert.Equal(t, "Dune", items[1].Original.Title)
	assert.Equal(t, "Unknown B", items[2].Original.Title)
}

func TestPipeline_ParseUnsupportedFormat(t *testing.T) {
	pipeline := newTestPipeline(&mockProvider{}, &fakeCompletedStore{}, &fakeLibraryStore{}, nil)

	_, err := pipeline.Parse(context.Background(), 1, []byte("data"), Format("pdf"))
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

// Owned import end to end: parse an owned read book, accept the defaults,
// confirm, and verify both records plus the history entry.
func TestPipeline_ConfirmOwnedImport(t *testing.T) {
	provider := &mockProvider{
		byISBN: map[string]*metadata.BookMetadata{"9780441013593": duneMetadata()},
	}
	completed := &fakeCompletedStore{}
	library := &fakeLibraryStore{}
	history := &fakeHistoryStore{}
	pipeline := newTestPipeline(provider, completed, library, history)

	csv := []byte("title,isbn,owned,date read\nDune,9780441013593,yes,2023-05-01\n")
	parsed, err := pipeline.Parse(context.Background(), 1, csv, FormatCSV)
	require.NoError(t, err)
	require.Len(t, parsed.Found, 1)

	session := NewReviewSession(parsed.Items())
	result, err := pipeline.Confirm(context.Background(), 1, parsed, session.DecisionSet())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.AddedToLibrary)
	assert.Empty(t, result.Notes)

	require.Len(t, completed.records, 1)
	record := completed.records[0]
	assert.Equal(t, "Dune", record.Title)
	assert.Equal(t, "Frank Herbert", record.Author)
	require.NotNil(t, record.DateFinished)
	require.NotNil(t, record.LibraryBookID)

	require.Len(t, library.books, 1)
	assert.Equal(t, entities.ReadingStatusRead, library.books[0].ReadingStatus)

	require.Len(t, history.records, 1)
	assert.Equal(t, "csv", history.records[0].Format)
	assert.Equal(t, 1, history.records[0].Found)
	assert.Equal(t, 1, history.records[0].Imported)
	assert.Equal(t, 1, history.records[0].AddedToLibrary)
}

// Parse must never write: running parse twice in a row changes nothing.
func TestPipeline_ParseIsReadOnly(t *testing.T) {
	provider := &mockProvider{
		byISBN: map[string]*metadata.BookMetadata{"9780441013593": duneMetadata()},
	}
	completed := &fakeCompletedStore{}
	library := &fakeLibraryStore{}
	pipeline := newTestPipeline(provider, completed, library, nil)

	csv := []byte("title,isbn\nDune,9780441013593\n")
	_, err := pipeline.Parse(context.Background(), 1, csv, FormatCSV)
	require.NoError(t, err)
	_, err = pipeline.Parse(context.Background(), 1, csv, FormatCSV)
	require.NoError(t, err)

	assert.Empty(t, completed.records)
	assert.Empty(t, library.books)
}
