package importer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowOf(pairs ...string) Row {
	row := Row{}
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Fields = append(row.Fields, Field{Name: pairs[i], Value: pairs[i+1]})
	}
	return row
}

func TestNormalize_SynonymColumns(t *testing.T) {
	// Every accepted spelling of a column must land on the same canonical
	// field.
	for _, field := range []string{FieldTitle, FieldISBN, FieldDateFinished} {
		for _, synonym := range Synonyms(field) {
			t.Run(fmt.Sprintf("%s/%s", field, synonym), func(t *testing.T) {
				value := "Dune"
				if field == FieldISBN {
					value = "9780441013593"
				}
				if field == FieldDateFinished {
					value = "2023-05-01"
				}
				row := rowOf("title", "Dune", synonym, value)

				entry, rejected := Normalize(row)
				require.Nil(t, rejected)

				switch field {
				case FieldTitle:
					assert.Equal(t, "Dune", entry.Title)
				case FieldISBN:
					assert.Equal(t, "9780441013593", entry.ISBN)
				case FieldDateFinished:
					require.NotNil(t, entry.DateFinished)
					assert.Equal(t, 2023, entry.DateFinished.Year())
				}
			})
		}
	}
}

func TestNormalize_HeadersCaseInsensitive(t *testing.T) {
	entry, rejected := Normalize(rowOf("Book Title", "Dune", "AUTHOR", "Frank Herbert"))

	require.Nil(t, rejected)
	assert.Equal(t, "Dune", entry.Title)
	assert.Equal(t, "Frank Herbert", entry.Author)
}

func TestNormalize_ISBNCleaning(t *testing.T) {
	entry, rejected := Normalize(rowOf("title", "Dune", "isbn", "978-0-441-01359-3"))
	require.Nil(t, rejected)
	assert.Equal(t, "9780441013593", entry.ISBN)

	// A malformed ISBN normalizes to absent rather than carrying garbage.
	entry, rejected = Normalize(rowOf("title", "Dune", "isbn", "12345"))
	require.Nil(t, rejected)
	assert.Equal(t, "", entry.ISBN)
}

func TestNormalize_RejectsMissingTitleAndISBN(t *testing.T) {
	row := rowOf("author", "Frank Herbert", "pages", "412")
	row.Index = 7

	_, rejected := Normalize(row)
	require.NotNil(t, rejected)
	assert.Equal(t, 7, rejected.Row)
	assert.Equal(t, RejectMissingTitleAndIsbn, rejected.Reason)
}

func TestNormalize_RejectsBlankRow(t *testing.T) {
	_, rejected := Normalize(rowOf("title", "", "author", ""))
	require.NotNil(t, rejected)
	assert.Equal(t, RejectUnparsableRow, rejected.Reason)
}

func TestNormalize_ISBNOnlyRowIsValid(t *testing.T) {
	entry, rejected := Normalize(rowOf("isbn", "9780441013593"))
	require.Nil(t, rejected)
	assert.Equal(t, "", entry.Title)
	assert.Equal(t, "9780441013593", entry.ISBN)
}

func TestNormalize_Dates(t *testing.T) {
	tests := []struct {
		raw  string
		want *time.Time
	}{
		{"2023-05-01", timePtr(2023, time.May, 1)},
		{"05/01/2023", timePtr(2023, time.May, 1)},
		{"5/1/2023", timePtr(2023, time.May, 1)},
		{"2023/05/01", timePtr(2023, time.May, 1)},
		{"2023-05-01T10:30:00Z", timePtr(2023, time.May, 1)},
		{"last tuesday", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			entry, rejected := Normalize(rowOf("title", "Dune", "date_finished", tt.raw))
			require.Nil(t, rejected)
			if tt.want == nil {
				assert.Nil(t, entry.DateFinished)
				return
			}
			require.NotNil(t, entry.DateFinished)
			assert.Equal(t, tt.want.Year(), entry.DateFinished.Year())
			assert.Equal(t, tt.want.Month(), entry.DateFinished.Month())
			assert.Equal(t, tt.want.Day(), entry.DateFinished.Day())
		})
	}
}

func timePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestNormalize_OwnedAndTags(t *testing.T) {
	entry, rejected := Normalize(rowOf(
		"title", "Dune",
		"owned", "Yes",
		"tags", "scifi, classic; desert",
		"series", "Dune Chronicles",
		"series_position", "1.5",
	))

	require.Nil(t, rejected)
	assert.True(t, entry.Owned)
	assert.Equal(t, []string{"scifi", "classic", "desert"}, entry.Tags)
	assert.Equal(t, "Dune Chronicles", entry.SeriesName)
	assert.Equal(t, 1.5, entry.SeriesPosition)
}

func TestNormalize_NumericCoercion(t *testing.T) {
	entry, rejected := Normalize(rowOf("title", "Dune", "pages", "412"))
	require.Nil(t, rejected)
	assert.Equal(t, 412, entry.PageCount)

	// Non-numeric page counts normalize to absent.
	entry, rejected = Normalize(rowOf("title", "Dune", "pages", "a lot"))
	require.Nil(t, rejected)
	assert.Equal(t, 0, entry.PageCount)
}

func TestNormalizeAll_PartitionsRejections(t *testing.T) {
	rows := []Row{
		rowOf("title", "Dune"),
		rowOf("author", "nobody"),
		rowOf("title", "Hyperion"),
	}
	for i := range rows {
		rows[i].Index = i
	}

	entries, rejected := NormalizeAll(rows)

	require.Len(t, entries, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Row)
	assert.Equal(t, 0, entries[0].Row)
	assert.Equal(t, 2, entries[1].Row)
}

func TestMatchKey_CaseInsensitive(t *testing.T) {
	a := Entry{Title: "Dune", Author: "Frank Herbert"}
	b := Entry{Title: "  DUNE ", Author: "frank herbert"}
	assert.Equal(t, a.Key(), b.Key())

	// Exact-match semantics: punctuation differences are distinct keys.
	c := Entry{Title: "Dune!", Author: "Frank Herbert"}
	assert.NotEqual(t, a.Key(), c.Key())
}
