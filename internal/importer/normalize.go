package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/shelftrack/shelftrack/internal/metadata"
)

// Entry is the canonical normalized shape of one imported book row.
// Invariant: Title is non-empty or ISBN is present; rows failing this are
// rejected before classification.
type Entry struct {
	Row            int        `json:"row"`
	ISBN           string     `json:"isbn,omitempty"`
	Title          string     `json:"title"`
	Author         string     `json:"author,omitempty"`
	PageCount      int        `json:"page_count,omitempty"`
	Genre          string     `json:"genre,omitempty"`
	Synopsis       string     `json:"synopsis,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	SeriesName     string     `json:"series_name,omitempty"`
	SeriesPosition float64    `json:"series_position,omitempty"`
	DateFinished   *time.Time `json:"date_finished,omitempty"`
	Owned          bool       `json:"owned,omitempty"`
}

// matchKey is the case-insensitive title+author key used for duplicate and
// library matching. Exact match only: punctuation and diacritics are kept.
func matchKey(title, author string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(author))
}

// Key returns the entry's title+author match key.
func (e Entry) Key() string {
	return matchKey(e.Title, e.Author)
}

// Normalize maps a raw row's synonym columns onto the canonical entry shape
// and coerces types. A nil RejectedRow means the entry is usable.
func Normalize(row Row) (Entry, *RejectedRow) {
	if row.blank() {
		return Entry{}, &RejectedRow{Row: row.Index, Reason: RejectUnparsableRow}
	}

	entry := Entry{Row: row.Index}

	if title, ok := resolve(row, FieldTitle); ok {
		entry.Title = title
	}
	if isbn, ok := resolve(row, FieldISBN); ok {
		entry.ISBN = metadata.NormalizeISBN(isbn)
	}
	if entry.Title == "" && entry.ISBN == "" {
		return Entry{}, &RejectedRow{Row: row.Index, Reason: RejectMissingTitleAndIsbn}
	}

	if author, ok := resolve(row, FieldAuthor); ok {
		entry.Author = author
	}
	if genre, ok := resolve(row, FieldGenre); ok {
		entry.Genre = genre
	}
	if synopsis, ok := resolve(row, FieldSynopsis); ok {
		entry.Synopsis = synopsis
	}
	if series, ok := resolve(row, FieldSeriesName); ok {
		entry.SeriesName = series
	}
	if raw, ok := resolve(row, FieldPageCount); ok {
		if pages, err := strconv.Atoi(raw); err == nil && pages > 0 {
			entry.PageCount = pages
		}
	}
	if raw, ok := resolve(row, FieldSeriesPosition); ok {
		// Float to support novella numbering (0.5, 1.5); non-numeric → absent.
		if pos, err := strconv.ParseFloat(raw, 64); err == nil {
			entry.SeriesPosition = pos
		}
	}
	if raw, ok := resolve(row, FieldTags); ok {
		entry.Tags = splitTags(raw)
	}
	if raw, ok := resolve(row, FieldDateFinished); ok {
		entry.DateFinished = parseDate(raw)
	}
	if raw, ok := resolve(row, FieldOwned); ok {
		entry.Owned = parseBoolish(raw)
	}

	return entry, nil
}

// NormalizeAll normalizes every row, partitioning into entries and rejections.
func NormalizeAll(rows []Row) ([]Entry, []RejectedRow) {
	entries := make([]Entry, 0, len(rows))
	var rejected []RejectedRow
	for _, row := range rows {
		entry, rej := Normalize(row)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, rejected
}

// parseDate tries the native formats first, then MM/DD/YYYY and YYYY/MM/DD
// with zero-padding. Unparsable dates normalize to absent rather than erroring.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return &t
		}
	}

	// Slash forms, zero-padding each part before parsing.
	if parts := strings.Split(raw, "/"); len(parts) == 3 {
		for i, p := range parts {
			if len(p) == 1 {
				parts[i] = "0" + p
			}
		}
		padded := strings.Join(parts, "/")
		for _, format := range []string{"01/02/2006", "2006/01/02"} {
			if t, err := time.Parse(format, padded); err == nil {
				return &t
			}
		}
	}

	return nil
}

// parseBoolish matches the accepted true spellings case-insensitively;
// anything else is false.
func parseBoolish(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

func splitTags(raw string) []string {
	split := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tags := make([]string, 0, len(split))
	for _, tag := range split {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
