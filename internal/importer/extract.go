package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format is the declared type of an uploaded import file.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatXLS:
		return FormatXLS, nil
	}
	return "", &UnsupportedFormatError{Format: s}
}

// Field is a single column-name/value pair of a raw import row.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Row is one loosely-typed record extracted from the input file. Fields keep
// their input order; values are always strings at this stage.
type Row struct {
	Index  int     `json:"index"` // zero-based position in the file
	Fields []Field `json:"fields"`
}

// Get returns the value for a column, matched case-insensitively.
func (r Row) Get(name string) (string, bool) {
	name = normalizeHeader(name)
	for _, f := range r.Fields {
		if normalizeHeader(f.Name) == name {
			return strings.TrimSpace(f.Value), true
		}
	}
	return "", false
}

// blank reports whether every field value is empty.
func (r Row) blank() bool {
	for _, f := range r.Fields {
		if strings.TrimSpace(f.Value) != "" {
			return false
		}
	}
	return true
}

// Extract turns a raw file buffer into an ordered sequence of rows.
// It fails with MalformedFileError when structural parsing fails or the file
// contains zero data rows.
func Extract(data []byte, format Format) ([]Row, error) {
	var (
		rows []Row
		err  error
	)
	switch format {
	case FormatJSON:
		rows, err = extractJSON(data)
	case FormatCSV:
		rows, err = extractCSV(data)
	case FormatXLSX:
		rows, err = extractXLSX(data)
	case FormatXLS:
		rows, err = extractXLS(data)
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &MalformedFileError{Format: format, Reason: "no data rows"}
	}
	for i := range rows {
		rows[i].Index = i
	}
	return rows, nil
}

// extractJSON accepts either a bare array of objects or an object containing
// a "books" array. Object keys become columns, sorted for determinism.
func extractJSON(data []byte) ([]Row, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, &MalformedFileError{Format: FormatJSON, Reason: "invalid JSON", Err: err}
	}

	var elements []any
	switch v := root.(type) {
	case []any:
		elements = v
	case map[string]any:
		books, ok := v["books"].([]any)
		if !ok {
			return nil, &MalformedFileError{Format: FormatJSON, Reason: `expected an array or an object with a "books" array`}
		}
		elements = books
	default:
		return nil, &MalformedFileError{Format: FormatJSON, Reason: "expected an array of objects"}
	}

	rows := make([]Row, 0, len(elements))
	for _, element := range elements {
		obj, ok := element.(map[string]any)
		if !ok {
			return nil, &MalformedFileError{Format: FormatJSON, Reason: "array element is not an object"}
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		row := Row{Fields: make([]Field, 0, len(keys))}
		for _, k := range keys {
			row.Fields = append(row.Fields, Field{Name: k, Value: jsonValueString(obj[k])})
		}
		if !row.blank() {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// jsonValueString coerces a decoded JSON value to its string form. String
// arrays (tags) join with commas; nested objects are dropped.
func jsonValueString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	}
	return ""
}

func extractCSV(data []byte) ([]Row, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &MalformedFileError{Format: FormatCSV, Reason: "failed to read header", Err: err}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedFileError{Format: FormatCSV, Reason: "failed to read row", Err: err}
		}
		row := recordToRow(header, record)
		if !row.blank() {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func extractXLSX(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedFileError{Format: FormatXLSX, Reason: "failed to open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &MalformedFileError{Format: FormatXLSX, Reason: "workbook has no sheets"}
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &MalformedFileError{Format: FormatXLSX, Reason: "failed to read sheet", Err: err}
	}
	if len(cells) == 0 {
		return nil, &MalformedFileError{Format: FormatXLSX, Reason: "sheet is empty"}
	}

	header := cells[0]
	var rows []Row
	for _, record := range cells[1:] {
		row := recordToRow(header, record)
		if !row.blank() {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func extractXLS(data []byte) ([]Row, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &MalformedFileError{Format: FormatXLS, Reason: "failed to open workbook", Err: err}
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &MalformedFileError{Format: FormatXLS, Reason: "workbook has no sheets"}
	}

	readRow := func(i int) []string {
		row := sheet.Row(i)
		if row == nil {
			return nil
		}
		cells := make([]string, 0, row.LastCol()+1)
		for j := 0; j <= row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		return cells
	}

	header := readRow(0)
	if len(header) == 0 {
		return nil, &MalformedFileError{Format: FormatXLS, Reason: "sheet is empty"}
	}

	var rows []Row
	for i := 1; i <= int(sheet.MaxRow); i++ {
		record := readRow(i)
		if record == nil {
			continue
		}
		row := recordToRow(header, record)
		if !row.blank() {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// recordToRow pairs a record's cells with the header, ignoring trailing cells
// beyond the header width.
func recordToRow(header, record []string) Row {
	row := Row{Fields: make([]Field, 0, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row.Fields = append(row.Fields, Field{Name: name, Value: value})
	}
	return row
}
