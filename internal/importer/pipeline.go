package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/shelftrack/shelftrack/internal/entities"
)

// HistoryStore records finished imports for the per-user history view.
type HistoryStore interface {
	Create(record *entities.ImportRecord) error
}

// ParseResult is the reviewable outcome of the parse phase. Items are
// grouped by bucket; indices returned to the caller are positions within
// each bucket's slice.
type ParseResult struct {
	Format Format `json:"format"`

	Found          []ClassifiedItem `json:"found"`
	NotFound       []ClassifiedItem `json:"notFound"`
	Duplicates     []ClassifiedItem `json:"duplicates"`
	LibraryUpdates []ClassifiedItem `json:"libraryUpdates"`

	Invalid  int           `json:"invalid"`
	Rejected []RejectedRow `json:"rejected,omitempty"`
}

// Counts returns the per-bucket sizes in bucket order.
func (r *ParseResult) Counts() (found, notFound, duplicates, libraryUpdates int) {
	return len(r.Found), len(r.NotFound), len(r.Duplicates), len(r.LibraryUpdates)
}

// Items flattens the grouped buckets back into classification order,
// which is the order rows appeared in the source file.
func (r *ParseResult) Items() []ClassifiedItem {
	items := make([]ClassifiedItem, 0,
		len(r.Found)+len(r.NotFound)+len(r.Duplicates)+len(r.LibraryUpdates))
	items = append(items, r.Found...)
	items = append(items, r.NotFound...)
	items = append(items, r.Duplicates...)
	items = append(items, r.LibraryUpdates...)
	sortByRow(items)
	return items
}

func sortByRow(items []ClassifiedItem) {
	// Insertion sort keeps this dependency-free and the inputs are small.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Original.Row < items[j-1].Original.Row; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

// Pipeline handles the two-phase import workflow:
// extract → normalize → classify (parse), then review decisions → commit
// (confirm). Parse never writes; confirm is the only phase that touches
// the stores.
type Pipeline struct {
	classifier *Classifier
	engine     *CommitEngine
	completed  CompletedStore
	library    LibraryStore
	history    HistoryStore
}

// NewPipeline creates an import pipeline. history may be nil when import
// records are not kept.
func NewPipeline(classifier *Classifier, engine *CommitEngine, completed CompletedStore, library LibraryStore, history HistoryStore) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		engine:     engine,
		completed:  completed,
		library:    library,
		history:    history,
	}
}

// Parse runs the read-only phase over an uploaded file: rows are extracted,
// normalized, matched against the user's existing records, and enriched via
// the metadata provider. The same file parsed twice yields the same result.
func (p *Pipeline) Parse(ctx context.Context, userID uint, data []byte, format Format) (*ParseResult, error) {
	rows, err := Extract(data, format)
	if err != nil {
		return nil, err
	}

	entries, rejected := NormalizeAll(rows)

	state, err := p.loadState(userID)
	if err != nil {
		return nil, fmt.Errorf("loading user records: %w", err)
	}

	items := p.classifier.Classify(ctx, entries, state)

	result := &ParseResult{
		Format:   format,
		Invalid:  len(rejected),
		Rejected: rejected,
	}
	for _, item := range items {
		switch item.Bucket {
		case BucketFound:
			result.Found = append(result.Found, item)
		case BucketNotFound:
			result.NotFound = append(result.NotFound, item)
		case BucketDuplicate:
			result.Duplicates = append(result.Duplicates, item)
		case BucketLibraryUpdate:
			result.LibraryUpdates = append(result.LibraryUpdates, item)
		}
	}
	return result, nil
}

// Confirm commits a finalized decision set and records the import in the
// user's history.
func (p *Pipeline) Confirm(ctx context.Context, userID uint, parsed *ParseResult, set DecisionSet) (*CommitResult, error) {
	result := p.engine.Commit(ctx, userID, set)

	if p.history != nil {
		record := &entities.ImportRecord{
			UserID:         userID,
			Format:         string(parsed.Format),
			Found:          len(parsed.Found),
			NotFound:       len(parsed.NotFound),
			Duplicates:     len(parsed.Duplicates),
			LibraryUpdates: len(parsed.LibraryUpdates),
			Invalid:        parsed.Invalid,
			Imported:       result.Imported,
			Updated:        result.Updated,
			AddedToLibrary: result.AddedToLibrary,
			Notes:          strings.Join(result.Notes, "\n"),
		}
		if err := p.history.Create(record); err != nil {
			return result, fmt.Errorf("recording import history: %w", err)
		}
	}

	return result, nil
}

// loadState snapshots the user's completed and library books for matching.
func (p *Pipeline) loadState(userID uint) (State, error) {
	completed, err := p.completed.ListForUser(userID)
	if err != nil {
		return State{}, err
	}
	library, err := p.library.ListForUser(userID)
	if err != nil {
		return State{}, err
	}
	return State{Completed: completed, Library: library}, nil
}
