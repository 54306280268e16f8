package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/shelftrack/shelftrack/internal/database/library"
	"github.com/shelftrack/shelftrack/internal/metadata"
)

// EnrichLibraryBookTask fills in a library book's missing metadata from the
// external provider.
type EnrichLibraryBookTask struct {
	BookID uint `json:"book_id"`
	UserID uint `json:"user_id"`
}

// Config returns the queue configuration for enrichment tasks.
func (t EnrichLibraryBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_library_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichLibraryBookProcessor creates the processor for enrichment tasks.
// Only fields the book is missing are written; user-entered values are never
// overwritten.
func EnrichLibraryBookProcessor(repo *library.Repository, provider metadata.Provider) backlite.QueueProcessor[EnrichLibraryBookTask] {
	return func(ctx context.Context, task EnrichLibraryBookTask) error {
		book, err := repo.GetByID(task.BookID, task.UserID)
		if err != nil {
			return fmt.Errorf("load book %d: %w", task.BookID, err)
		}

		var meta *metadata.BookMetadata
		if book.ISBN != "" {
			meta, err = provider.LookupByISBN(ctx, book.ISBN)
		} else {
			meta, err = provider.LookupByTitleAuthor(ctx, book.Title, book.Author)
		}
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				log.Printf("[TASK] Book %d (%s): no metadata match", task.BookID, book.Title)
				return nil
			}
			return fmt.Errorf("lookup for book %d: %w", task.BookID, err)
		}

		var fields library.MetadataFields
		var updated []string
		if book.PageCount == 0 && meta.PageCount > 0 {
			fields.PageCount = &meta.PageCount
			updated = append(updated, "page_count")
		}
		if book.Genre == "" && meta.Genre != "" {
			fields.Genre = &meta.Genre
			updated = append(updated, "genre")
		}
		if book.Synopsis == "" && meta.Synopsis != "" {
			fields.Synopsis = &meta.Synopsis
			updated = append(updated, "synopsis")
		}
		if book.ISBN == "" && meta.ISBN != "" {
			fields.ISBN = &meta.ISBN
			updated = append(updated, "isbn")
		}

		if len(updated) == 0 {
			log.Printf("[TASK] Book %d (%s): no metadata updates needed", task.BookID, book.Title)
			return nil
		}

		if err := repo.UpdateMetadata(task.BookID, fields); err != nil {
			return fmt.Errorf("update book %d: %w", task.BookID, err)
		}

		log.Printf("[TASK] Enriched book %d (%s): updated %v", task.BookID, book.Title, updated)
		return nil
	}
}

// NewEnrichLibraryBookQueue creates a backlite queue for enrichment tasks.
func NewEnrichLibraryBookQueue(repo *library.Repository, provider metadata.Provider) backlite.Queue {
	return backlite.NewQueue(EnrichLibraryBookProcessor(repo, provider))
}
