package importer

import "strings"

// Canonical field names for the normalized record shape.
const (
	FieldTitle          = "title"
	FieldAuthor         = "author"
	FieldISBN           = "isbn"
	FieldPageCount      = "page_count"
	FieldGenre          = "genre"
	FieldSynopsis       = "synopsis"
	FieldTags           = "tags"
	FieldSeriesName     = "series_name"
	FieldSeriesPosition = "series_position"
	FieldDateFinished   = "date_finished"
	FieldOwned          = "owned"
)

// columnSynonyms maps each canonical field to the ordered list of header
// spellings it accepts. Matching is case-insensitive and whitespace-trimmed.
// The first synonym present in a row wins, so order matters for files that
// carry more than one candidate column.
var columnSynonyms = map[string][]string{
	FieldTitle:          {"title", "book title", "name"},
	FieldAuthor:         {"author", "authors", "book author", "writer"},
	FieldISBN:           {"isbn", "isbn13", "isbn-13", "isbn10", "isbn-10"},
	FieldPageCount:      {"page_count", "pages", "page count", "num_pages", "number of pages"},
	FieldGenre:          {"genre", "category", "subject"},
	FieldSynopsis:       {"synopsis", "description", "summary"},
	FieldTags:           {"tags", "labels", "shelves"},
	FieldSeriesName:     {"series_name", "series", "series name"},
	FieldSeriesPosition: {"series_position", "series number", "book number", "position in series"},
	FieldDateFinished:   {"date_finished", "date completed", "finished", "read_at", "date read"},
	FieldOwned:          {"owned", "own", "in library"},
}

// Synonyms returns the accepted header spellings for a canonical field.
// Exposed so tests can enumerate every synonym without touching parsing.
func Synonyms(field string) []string {
	return columnSynonyms[field]
}

// CanonicalFields lists every canonical field with a synonym entry.
func CanonicalFields() []string {
	return []string{
		FieldTitle, FieldAuthor, FieldISBN, FieldPageCount, FieldGenre,
		FieldSynopsis, FieldTags, FieldSeriesName, FieldSeriesPosition,
		FieldDateFinished, FieldOwned,
	}
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// resolve returns the row value for a canonical field, trying each accepted
// header spelling in order.
func resolve(row Row, field string) (string, bool) {
	for _, synonym := range columnSynonyms[field] {
		if value, ok := row.Get(synonym); ok && value != "" {
			return value, true
		}
	}
	return "", false
}
