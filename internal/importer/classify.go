package importer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shelftrack/shelftrack/internal/entities"
	"github.com/shelftrack/shelftrack/internal/metadata"
)

// Bucket is one of the four mutually exclusive classification outcomes.
type Bucket string

const (
	BucketFound         Bucket = "found"
	BucketNotFound      Bucket = "not_found"
	BucketDuplicate     Bucket = "duplicate"
	BucketLibraryUpdate Bucket = "library_update"
)

// ClassifiedItem wraps one normalized entry with its classification outcome.
// For BucketFound, Lookup carries the resolved metadata; for BucketNotFound,
// Fallback retains the row's own fields; for BucketLibraryUpdate,
// LibraryBookID references the matched book.
type ClassifiedItem struct {
	Original        Entry                  `json:"original"`
	Bucket          Bucket                 `json:"bucket"`
	Lookup          *metadata.BookMetadata `json:"lookup,omitempty"`
	Fallback        *Entry                 `json:"fallback,omitempty"`
	LibraryBookID   uint                   `json:"library_book_id,omitempty"`
	CurrentStatus   entities.ReadingStatus `json:"current_status,omitempty"`
	NewDateFinished *time.Time             `json:"new_date_finished,omitempty"`
}

// ImportEntry builds the entry that would be persisted if this item is
// accepted. Resolved metadata supersedes user-supplied fields except for
// DateFinished and Owned, which always come from the input row.
func (i ClassifiedItem) ImportEntry() Entry {
	entry := i.Original
	if i.Lookup == nil {
		return entry
	}
	if i.Lookup.Title != "" {
		entry.Title = i.Lookup.Title
	}
	if i.Lookup.Author != "" {
		entry.Author = i.Lookup.Author
	}
	if i.Lookup.ISBN != "" {
		entry.ISBN = i.Lookup.ISBN
	}
	if i.Lookup.PageCount > 0 {
		entry.PageCount = i.Lookup.PageCount
	}
	if i.Lookup.Genre != "" {
		entry.Genre = i.Lookup.Genre
	}
	if i.Lookup.Synopsis != "" {
		entry.Synopsis = i.Lookup.Synopsis
	}
	if len(i.Lookup.Tags) > 0 {
		entry.Tags = i.Lookup.Tags
	}
	if i.Lookup.SeriesName != "" {
		entry.SeriesName = i.Lookup.SeriesName
	}
	return entry
}

// State is a snapshot of the user's persisted records at classification time.
// Classification depends only on it and on input order, never on sibling rows.
type State struct {
	Completed []entities.CompletedBook
	Library   []entities.LibraryBook
}

// matchIndex provides O(1) duplicate and library matching over a State.
type matchIndex struct {
	completedISBN map[string]bool
	completedKey  map[string]bool
	libraryISBN   map[string]*entities.LibraryBook
	libraryKey    map[string]*entities.LibraryBook
}

func newMatchIndex(state State) *matchIndex {
	idx := &matchIndex{
		completedISBN: make(map[string]bool, len(state.Completed)),
		completedKey:  make(map[string]bool, len(state.Completed)),
		libraryISBN:   make(map[string]*entities.LibraryBook, len(state.Library)),
		libraryKey:    make(map[string]*entities.LibraryBook, len(state.Library)),
	}
	for _, rec := range state.Completed {
		if rec.ISBN != "" {
			idx.completedISBN[rec.ISBN] = true
		}
		idx.completedKey[matchKey(rec.Title, rec.Author)] = true
	}
	for i := range state.Library {
		book := &state.Library[i]
		if book.ISBN != "" {
			idx.libraryISBN[book.ISBN] = book
		}
		idx.libraryKey[matchKey(book.Title, book.Author)] = book
	}
	return idx
}

func (idx *matchIndex) isCompleted(entry Entry) bool {
	if entry.ISBN != "" && idx.completedISBN[entry.ISBN] {
		return true
	}
	if entry.Title != "" && idx.completedKey[entry.Key()] {
		return true
	}
	return false
}

// findLibrary matches a library book by resolved ISBN first, then by the
// resolved title+author key.
func (idx *matchIndex) findLibrary(isbn, title, author string) *entities.LibraryBook {
	if isbn != "" {
		if book, ok := idx.libraryISBN[isbn]; ok {
			return book
		}
	}
	if title != "" {
		if book, ok := idx.libraryKey[matchKey(title, author)]; ok {
			return book
		}
	}
	return nil
}

// Classifier assigns each normalized entry to exactly one bucket, enriching
// against the metadata provider with a bounded concurrent fan-out.
type Classifier struct {
	provider    metadata.Provider
	timeout     time.Duration
	concurrency int
}

// NewClassifier creates a classifier. concurrency bounds the parallel
// enrichment lookups per call; timeout applies to each individual lookup.
func NewClassifier(provider metadata.Provider, timeout time.Duration, concurrency int) *Classifier {
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{provider: provider, timeout: timeout, concurrency: concurrency}
}

// Classify produces one ClassifiedItem per entry, in input order.
//
// Precedence per entry: an existing completed-book match wins outright and
// skips enrichment; otherwise enrichment decides between LibraryUpdate,
// Found and NotFound. A timed-out or failed lookup downgrades the entry to
// NotFound rather than failing the batch.
func (c *Classifier) Classify(ctx context.Context, entries []Entry, state State) []ClassifiedItem {
	idx := newMatchIndex(state)
	items := make([]ClassifiedItem, len(entries))

	// Phase 1: duplicate detection against persisted completed books.
	// No lookup is performed for duplicates.
	needLookup := make([]int, 0, len(entries))
	for i, entry := range entries {
		items[i].Original = entry
		if idx.isCompleted(entry) {
			items[i].Bucket = BucketDuplicate
			continue
		}
		needLookup = append(needLookup, i)
	}

	// Phase 2: bounded enrichment fan-out. Results land in a slice keyed by
	// input position, so downstream classification sees input order again.
	lookups := make([]*metadata.BookMetadata, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, i := range needLookup {
		entry := entries[i]
		g.Go(func() error {
			lookups[i] = c.lookup(gctx, entry)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures become nil lookups

	// Phase 3: sequential classification in input order.
	for _, i := range needLookup {
		entry := entries[i]
		meta := lookups[i]
		if meta == nil {
			fallback := entry
			items[i].Bucket = BucketNotFound
			items[i].Fallback = &fallback
			continue
		}

		resolvedTitle := entry.Title
		resolvedAuthor := entry.Author
		if meta.Title != "" {
			resolvedTitle = meta.Title
		}
		if meta.Author != "" {
			resolvedAuthor = meta.Author
		}

		if book := idx.findLibrary(meta.ISBN, resolvedTitle, resolvedAuthor); book != nil && book.ReadingStatus != entities.ReadingStatusRead {
			items[i].Bucket = BucketLibraryUpdate
			items[i].Lookup = meta
			items[i].LibraryBookID = book.ID
			items[i].CurrentStatus = book.ReadingStatus
			items[i].NewDateFinished = entry.DateFinished
			continue
		}

		items[i].Bucket = BucketFound
		items[i].Lookup = meta
	}

	return items
}

// lookup resolves one entry with a per-call timeout. Any failure — not found,
// timeout, transport error — yields nil: the entry is downgraded, never fatal.
func (c *Classifier) lookup(ctx context.Context, entry Entry) *metadata.BookMetadata {
	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		meta *metadata.BookMetadata
		err  error
	)
	if entry.ISBN != "" {
		meta, err = c.provider.LookupByISBN(lctx, entry.ISBN)
	} else {
		meta, err = c.provider.LookupByTitleAuthor(lctx, entry.Title, entry.Author)
	}
	if err != nil || meta == nil {
		return nil
	}
	return meta
}
