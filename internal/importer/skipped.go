package importer

import (
	"encoding/csv"
	"io"
)

// WriteSkippedCSV writes the entries a review left out as a CSV file with
// title, author, isbn, and reason columns, so the user can fix them up and
// re-import.
func WriteSkippedCSV(w io.Writer, items []SkippedItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "author", "isbn", "reason"}); err != nil {
		return err
	}
	for _, item := range items {
		record := []string{item.Entry.Title, item.Entry.Author, item.Entry.ISBN, item.Reason}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SkippedItem is one entry excluded from a commit, with a human-readable
// reason.
type SkippedItem struct {
	Entry  Entry
	Reason string
}

// Skipped reason labels.
const (
	SkipReasonDuplicate = "already recorded as completed"
	SkipReasonNotFound  = "no metadata match"
	SkipReasonDeclined  = "excluded during review"
)

// SkippedItems collects every item the session currently excludes, in row
// order.
func (s *ReviewSession) SkippedItems() []SkippedItem {
	var skipped []SkippedItem
	for i, item := range s.Items {
		if s.Included(i) {
			continue
		}
		reason := SkipReasonDeclined
		switch item.Bucket {
		case BucketDuplicate:
			reason = SkipReasonDuplicate
		case BucketNotFound:
			reason = SkipReasonNotFound
		}
		skipped = append(skipped, SkippedItem{Entry: item.ImportEntry(), Reason: reason})
	}
	return skipped
}
