package models

import (
	"strings"
)

// Dataset is an in-memory tabular dataset with a header row. All cells are
// strings; no type coercion happens on read, matching the upload contract.
type Dataset struct {
	Headers []string
	Rows    [][]string

	index map[string]int
}

// NewDataset creates a dataset from a header row and data rows
func NewDataset(headers []string, rows [][]string) *Dataset {
	ds := &Dataset{
		Headers: headers,
		Rows:    rows,
	}
	ds.rebuildIndex()
	return ds
}

func (ds *Dataset) rebuildIndex() {
	ds.index = make(map[string]int, len(ds.Headers))
	for i, h := range ds.Headers {
		ds.index[strings.TrimSpace(h)] = i
	}
}

// ColumnIndex returns the index of a column by name, or -1 if not found.
// Lookup falls back to case-insensitive comparison.
func (ds *Dataset) ColumnIndex(name string) int {
	if i, ok := ds.index[name]; ok {
		return i
	}

	lower := strings.ToLower(name)
	for header, i := range ds.index {
		if strings.ToLower(header) == lower {
			return i
		}
	}

	return -1
}

// HasColumn reports whether the dataset contains the named column
func (ds *Dataset) HasColumn(name string) bool {
	return ds.ColumnIndex(name) >= 0
}

// MissingColumns returns the subset of required column names not present
func (ds *Dataset) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if !ds.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Get returns the cell value at the given row for the named column. Rows
// shorter than the header are treated as padded with empty strings.
func (ds *Dataset) Get(row int, column string) string {
	i := ds.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(ds.Rows) || i >= len(ds.Rows[row]) {
		return ""
	}
	return ds.Rows[row][i]
}

// Set writes the cell value at the given row for the named column. The row is
// extended to header width when needed.
func (ds *Dataset) Set(row int, column, value string) {
	i := ds.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(ds.Rows) {
		return
	}
	for len(ds.Rows[row]) <= i {
		ds.Rows[row] = append(ds.Rows[row], "")
	}
	ds.Rows[row][i] = value
}

// RenameColumn renames a header in place; unknown names are ignored
func (ds *Dataset) RenameColumn(from, to string) {
	i := ds.ColumnIndex(from)
	if i < 0 {
		return
	}
	ds.Headers[i] = to
	ds.rebuildIndex()
}

// Len returns the number of data rows
func (ds *Dataset) Len() int {
	return len(ds.Rows)
}

// Records returns the dataset as raw CSV records, header first
func (ds *Dataset) Records() [][]string {
	records := make([][]string, 0, len(ds.Rows)+1)
	records = append(records, ds.Headers)
	records = append(records, ds.Rows...)
	return records
}
