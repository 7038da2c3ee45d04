package record

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	zipMagic    = "PK\x03\x04"
	noValidRows = "No valid rows found in file"
)

// Row is one data row of an import file keyed by header cell.
type Row struct {
	// Line is the 1-based line (CSV) or sheet row (XLSX) the row started
	// on. The header is line 1.
	Line   int
	Fields map[string]string
}

// Parse reads an import file, choosing XLSX when filename ends in .xlsx or
// the content is a ZIP archive and CSV otherwise. A file without data rows
// is a *ParseError.
func Parse(filename string, r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zipMagic))
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") || bytes.Equal(magic, []byte(zipMagic)) {
		return ParseXLSX(br)
	}
	return ParseCSV(br)
}

// ParseCSV reads comma separated text with a header row. Input is UTF-8
// unless a UTF-16 BOM says otherwise; any leading BOM is dropped before the
// first cell. Rows may be shorter or longer than the header, blank rows are
// skipped and every cell is trimmed.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Reason: "empty file"}
	}
	if err != nil {
		return nil, &ParseError{Reason: "invalid CSV", Err: err}
	}

	var rows []Row
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: "invalid CSV", Err: err}
		}
		line, _ := cr.FieldPos(0)
		if row, ok := buildRow(header, cells, line); ok {
			rows = append(rows, row)
		}
	}
	return requireRows(rows)
}

// ParseXLSX reads the first sheet of a workbook; its first row is the header.
func ParseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Reason: "invalid XLSX", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Reason: "workbook has no sheets"}
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Reason: "invalid XLSX", Err: err}
	}
	if len(grid) == 0 {
		return nil, &ParseError{Reason: "empty file"}
	}

	header := grid[0]
	var rows []Row
	for i, cells := range grid[1:] {
		if row, ok := buildRow(header, cells, i+2); ok {
			rows = append(rows, row)
		}
	}
	return requireRows(rows)
}

// buildRow maps cells onto trimmed header names. Rows whose cells are all
// empty report ok=false. The first of repeated header names wins.
func buildRow(header, cells []string, line int) (Row, bool) {
	fields := make(map[string]string, len(header))
	blank := true
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := fields[name]; dup {
			continue
		}
		var v string
		if i < len(cells) {
			v = strings.TrimSpace(cells[i])
		}
		if v != "" {
			blank = false
		}
		fields[name] = v
	}
	return Row{Line: line, Fields: fields}, !blank
}

func requireRows(rows []Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, &ParseError{Reason: noValidRows}
	}
	return rows, nil
}
