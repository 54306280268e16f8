package importer

import "fmt"

// UnsupportedFormatError is returned when the declared file format is not
// one of json, csv, xlsx or xls. It aborts the parse before any rows are read.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported import format: %q", e.Format)
}

// MalformedFileError is returned when structural parsing of the file fails:
// unparsable JSON, a spreadsheet without sheets, or zero data rows.
type MalformedFileError struct {
	Format Format
	Reason string
	Err    error
}

func (e *MalformedFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s file: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s file: %s", e.Format, e.Reason)
}

func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

// RejectReason identifies why the normalizer refused a row.
type RejectReason string

const (
	RejectMissingTitleAndIsbn RejectReason = "MissingTitleAndIsbn"
	RejectUnparsableRow       RejectReason = "UnparsableRow"
)

// RejectedRow records a per-row normalization failure. Rejections are
// collected and reported, never silently dropped, and never abort the batch.
type RejectedRow struct {
	Row    int          `json:"row"` // zero-based input position
	Reason RejectReason `json:"reason"`
}
