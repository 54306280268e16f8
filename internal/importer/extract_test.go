package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "csv", "xlsx", "xls"} {
		format, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), format)
	}

	_, err := ParseFormat("pdf")
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "pdf", unsupported.Format)
}

func TestExtract_JSONBareArray(t *testing.T) {
	data := []byte(`[
		{"title": "Dune", "author": "Frank Herbert", "page_count": 412},
		{"title": "Hyperion", "author": "Dan Simmons", "owned": true}
	]`)

	rows, err := Extract(data, FormatJSON)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	title, ok := rows[0].Get("title")
	require.True(t, ok)
	assert.Equal(t, "Dune", title)

	// Numbers and booleans coerce to their string forms.
	pages, _ := rows[0].Get("page_count")
	assert.Equal(t, "412", pages)
	owned, _ := rows[1].Get("owned")
	assert.Equal(t, "true", owned)

	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, 1, rows[1].Index)
}

func TestExtract_JSONWrappedBooks(t *testing.T) {
	data := []byte(`{"books": [{"title": "Dune"}]}`)

	rows, err := Extract(data, FormatJSON)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	title, _ := rows[0].Get("title")
	assert.Equal(t, "Dune", title)
}

func TestExtract_JSONMalformed(t *testing.T) {
	_, err := Extract([]byte(`{"title": "not a list"}`), FormatJSON)
	var malformed *MalformedFileError
	require.ErrorAs(t, err, &malformed)
}

func TestExtract_CSV(t *testing.T) {
	data := []byte("\ufefftitle,author,isbn\nDune,Frank Herbert,9780441013593\n\nHyperion,Dan Simmons,\n")

	rows, err := Extract(data, FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// The BOM must not leak into the first header name.
	title, ok := rows[0].Get("title")
	require.True(t, ok)
	assert.Equal(t, "Dune", title)

	isbn, _ := rows[1].Get("isbn")
	assert.Equal(t, "", isbn)
}

func TestExtract_CSVHeaderOnly(t *testing.T) {
	_, err := Extract([]byte("title,author\n"), FormatCSV)
	var malformed *MalformedFileError
	require.ErrorAs(t, err, &malformed)
}

func TestExtract_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Title", "Author"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Dune", "Frank Herbert"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, extractErr := Extract(buf.Bytes(), FormatXLSX)
	require.NoError(t, extractErr)
	require.Len(t, rows, 1)

	title, ok := rows[0].Get("Title")
	require.True(t, ok)
	assert.Equal(t, "Dune", title)
}

func TestExtract_Idempotent(t *testing.T) {
	data := []byte(`[{"title": "Dune", "tags": ["scifi", "classic"]}]`)

	first, err := Extract(data, FormatJSON)
	require.NoError(t, err)
	second, err := Extract(data, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRowGet_CaseInsensitive(t *testing.T) {
	row := Row{Fields: []Field{{Name: "Book Title", Value: "Dune"}}}

	value, ok := row.Get("book title")
	require.True(t, ok)
	assert.Equal(t, "Dune", value)

	_, ok = row.Get("missing")
	assert.False(t, ok)
}
