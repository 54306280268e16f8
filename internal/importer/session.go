package importer

import "time"

// DecisionOp is the kind of update applied to a review session.
type DecisionOp string

const (
	// OpSetItem sets one item's include/apply flag.
	OpSetItem DecisionOp = "set_item"
	// OpSelectAll sets the flag for every item in a bucket.
	OpSelectAll DecisionOp = "select_all"
	// OpSkipAll clears the flag for every item in a bucket.
	OpSkipAll DecisionOp = "skip_all"
)

// Decision is one user action over a review session.
type Decision struct {
	Op     DecisionOp
	Bucket Bucket // for OpSelectAll / OpSkipAll
	Index  int    // for OpSetItem: position in Items
	Value  bool   // for OpSetItem
}

// LibraryUpdate is one accepted library-book update in a decision set.
type LibraryUpdate struct {
	BookID          uint       `json:"book_id"`
	NewDateFinished *time.Time `json:"new_date_finished,omitempty"`
}

// DecisionSet is the finalized outcome of a review session: the entries to
// import as completed books and the library updates to apply. It is created
// transiently per session and discarded after commit.
type DecisionSet struct {
	BooksToImport  []Entry         `json:"books_to_import"`
	LibraryUpdates []LibraryUpdate `json:"library_updates"`
}

// ReviewSession holds one classification result plus the user's per-item
// decisions. It is purely in-memory, single-user and single-pass: all
// mutation goes through Apply, and last write per item wins.
//
// Defaults: Found items are always included; NotFound items start excluded
// ("include anyway" is opt-in); LibraryUpdate items start accepted.
type ReviewSession struct {
	Items     []ClassifiedItem
	decisions map[int]bool
}

// NewReviewSession creates a session over a classified set.
func NewReviewSession(items []ClassifiedItem) *ReviewSession {
	s := &ReviewSession{
		Items:     items,
		decisions: make(map[int]bool),
	}
	for i, item := range items {
		switch item.Bucket {
		case BucketNotFound:
			s.decisions[i] = false
		case BucketLibraryUpdate:
			s.decisions[i] = true
		}
	}
	return s
}

// Apply is the single mutation entry point for a session.
func (s *ReviewSession) Apply(d Decision) {
	switch d.Op {
	case OpSetItem:
		if d.Index < 0 || d.Index >= len(s.Items) {
			return
		}
		if s.decidable(d.Index) {
			s.decisions[d.Index] = d.Value
		}
	case OpSelectAll, OpSkipAll:
		value := d.Op == OpSelectAll
		for i, item := range s.Items {
			if item.Bucket == d.Bucket && s.decidable(i) {
				s.decisions[i] = value
			}
		}
	}
}

// decidable reports whether an item carries a user decision at all:
// Found items are always included and Duplicate items never are.
func (s *ReviewSession) decidable(i int) bool {
	bucket := s.Items[i].Bucket
	return bucket == BucketNotFound || bucket == BucketLibraryUpdate
}

// Included reports whether the item at i would be acted on at commit time.
func (s *ReviewSession) Included(i int) bool {
	if i < 0 || i >= len(s.Items) {
		return false
	}
	switch s.Items[i].Bucket {
	case BucketFound:
		return true
	case BucketDuplicate:
		return false
	}
	return s.decisions[i]
}

// Counts returns the number of items per bucket.
func (s *ReviewSession) Counts() map[Bucket]int {
	counts := make(map[Bucket]int, 4)
	for _, item := range s.Items {
		counts[item.Bucket]++
	}
	return counts
}

// DecisionSet finalizes the session into the commit engine's input.
func (s *ReviewSession) DecisionSet() DecisionSet {
	var set DecisionSet
	for i, item := range s.Items {
		if !s.Included(i) {
			continue
		}
		switch item.Bucket {
		case BucketFound, BucketNotFound:
			set.BooksToImport = append(set.BooksToImport, item.ImportEntry())
		case BucketLibraryUpdate:
			set.LibraryUpdates = append(set.LibraryUpdates, LibraryUpdate{
				BookID:          item.LibraryBookID,
				NewDateFinished: item.NewDateFinished,
			})
		}
	}
	return set
}
