package excel

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mindbridge/counsel-api/utils/timefmt"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

// MaxReportedErrors caps the row errors returned by an import
const MaxReportedErrors = 10

var ErrEmptySheet = errors.New("no data in sheet")

// RowError describes why one spreadsheet row was skipped. Row is the
// 1-based row number as shown in Excel.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportReport summarizes an import
type ImportReport struct {
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors"`
}

// AddError records a row error, keeping at most MaxReportedErrors details
func (r *ImportReport) AddError(row int, format string, args ...interface{}) {
	r.ErrorCount++
	if len(r.Errors) < MaxReportedErrors {
		r.Errors = append(r.Errors, RowError{Row: row, Error: fmt.Sprintf(format, args...)})
	}
}

// Table is the first sheet of a workbook with canonical column names
type Table struct {
	columns map[string]int
	rows    [][]string
}

// Row is one data row of a Table
type Row struct {
	Number int
	table  *Table
	cells  []string
}

// ReadTable reads the first sheet of an xlsx file. Header cells are mapped
// through aliases (case-insensitive); unknown headers keep their own name.
func ReadTable(r io.Reader, aliases map[string]string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	return &Table{columns: detectColumns(rows[0], aliases), rows: rows[1:]}, nil
}

// detectColumns finds column indices by matching header names
func detectColumns(headers []string, aliases map[string]string) map[string]int {
	lookup := make(map[string]string, len(aliases))
	for alias, canonical := range aliases {
		lookup[strings.ToLower(alias)] = canonical
	}

	indices := make(map[string]int, len(headers))
	for i, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		if key == "" {
			continue
		}
		name := key
		if canonical, ok := lookup[key]; ok {
			name = canonical
		}
		if _, seen := indices[name]; !seen {
			indices[name] = i
		}
	}
	return indices
}

// Has reports whether the sheet has a column
func (t *Table) Has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// Rows returns the non-empty data rows
func (t *Table) Rows() []Row {
	out := make([]Row, 0, len(t.rows))
	for i, cells := range t.rows {
		if isBlank(cells) {
			continue
		}
		// header is row 1
		out = append(out, Row{Number: i + 2, table: t, cells: cells})
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Get returns the trimmed value of a column, or ""
func (r Row) Get(column string) string {
	idx, ok := r.table.columns[column]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// Int parses a column as an integer; "3.0" style values are accepted
func (r Row) Int(column string) (*int, error) {
	v := r.Get(column)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid number %q", column, v)
	}
	n := int(f)
	return &n, nil
}

// Date parses a column as a date. Text dates and Excel serial numbers are
// both accepted.
func (r Row) Date(column string) (datatypes.Date, bool, error) {
	v := r.Get(column)
	if v == "" {
		return datatypes.Date{}, false, nil
	}
	d, err := ParseCellDate(v)
	if err != nil {
		return datatypes.Date{}, true, fmt.Errorf("%s: %w", column, err)
	}
	return d, true, nil
}

// ParseCellDate accepts YYYY-MM-DD, YYYY/MM/DD, YYYY-MM-DD HH:MM[:SS] and
// Excel serial day numbers
func ParseCellDate(v string) (datatypes.Date, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{timefmt.DateLayout, "2006/01/02", "2006/1/2", "2006-1-2", timefmt.SecondLayout, timefmt.MinuteLayout} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)), nil
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)), nil
		}
	}
	return datatypes.Date{}, fmt.Errorf("invalid date %q", v)
}

// SplitList splits a cell holding "a,b" / "a，b" / "a;b" / JSON-ish
// ["a","b"] into trimmed items
func SplitList(v string) []string {
	v = strings.Trim(strings.TrimSpace(v), "[]")
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == '，' || r == ';' || r == '；' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
