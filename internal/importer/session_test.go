package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewItems() []ClassifiedItem {
	finished := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	return []ClassifiedItem{
		{Original: Entry{Row: 0, Title: "Dune"}, Bucket: BucketFound, Lookup: duneMetadata()},
		{Original: Entry{Row: 1, Title: "Obscure Zine"}, Bucket: BucketNotFound, Fallback: &Entry{Row: 1, Title: "Obscure Zine"}},
		{Original: Entry{Row: 2, Title: "Neuromancer"}, Bucket: BucketDuplicate},
		{Original: Entry{Row: 3, Title: "Hyperion", DateFinished: &finished}, Bucket: BucketLibraryUpdate, LibraryBookID: 42, NewDateFinished: &finished},
	}
}

func TestReviewSession_Defaults(t *testing.T) {
	s := NewReviewSession(reviewItems())

	assert.True(t, s.Included(0), "found items are always included")
	assert.False(t, s.Included(1), "not-found items start excluded")
	assert.False(t, s.Included(2), "duplicates are never included")
	assert.True(t, s.Included(3), "library updates start accepted")
}

func TestReviewSession_SetItem(t *testing.T) {
	s := NewReviewSession(reviewItems())

	s.Apply(Decision{Op: OpSetItem, Index: 1, Value: true})
	assert.True(t, s.Included(1))

	// Last write wins.
	s.Apply(Decision{Op: OpSetItem, Index: 1, Value: false})
	s.Apply(Decision{Op: OpSetItem, Index: 1, Value: true})
	assert.True(t, s.Included(1))

	// Found and duplicate items ignore decisions entirely.
	s.Apply(Decision{Op: OpSetItem, Index: 0, Value: false})
	assert.True(t, s.Included(0))
	s.Apply(Decision{Op: OpSetItem, Index: 2, Value: true})
	assert.False(t, s.Included(2))

	// Out-of-range indices are ignored.
	s.Apply(Decision{Op: OpSetItem, Index: 99, Value: true})
	assert.False(t, s.Included(99))
}

func TestReviewSession_BulkOps(t *testing.T) {
	s := NewReviewSession(reviewItems())

	s.Apply(Decision{Op: OpSelectAll, Bucket: BucketNotFound})
	assert.True(t, s.Included(1))

	s.Apply(Decision{Op: OpSkipAll, Bucket: BucketLibraryUpdate})
	assert.False(t, s.Included(3))

	// Bulk selection never resurrects duplicates.
	s.Apply(Decision{Op: OpSelectAll, Bucket: BucketDuplicate})
	assert.False(t, s.Included(2))
}

func TestReviewSession_DecisionSet(t *testing.T) {
	s := NewReviewSession(reviewItems())
	s.Apply(Decision{Op: OpSetItem, Index: 1, Value: true})

	set := s.DecisionSet()

	require.Len(t, set.BooksToImport, 2)
	assert.Equal(t, "Dune", set.BooksToImport[0].Title)
	assert.Equal(t, "Obscure Zine", set.BooksToImport[1].Title)

	require.Len(t, set.LibraryUpdates, 1)
	assert.Equal(t, uint(42), set.LibraryUpdates[0].BookID)
	require.NotNil(t, set.LibraryUpdates[0].NewDateFinished)
}

func TestReviewSession_Counts(t *testing.T) {
	s := NewReviewSession(reviewItems())

	counts := s.Counts()
	assert.Equal(t, 1, counts[BucketFound])
	assert.Equal(t, 1, counts[BucketNotFound])
	assert.Equal(t, 1, counts[BucketDuplicate])
	assert.Equal(t, 1, counts[BucketLibraryUpdate])
}

func TestReviewSession_SkippedItems(t *testing.T) {
	s := NewReviewSession(reviewItems())
	s.Apply(Decision{Op: OpSkipAll, Bucket: BucketLibraryUpdate})

	skipped := s.SkippedItems()

	require.Len(t, skipped, 3)
	assert.Equal(t, SkipReasonNotFound, skipped[0].Reason)
	assert.Equal(t, SkipReasonDuplicate, skipped[1].Reason)
	assert.Equal(t, SkipReasonDeclined, skipped[2].Reason)
}
