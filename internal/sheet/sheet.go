// Package sheet reads translation spreadsheets into addressable cell grids.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Grid is a rectangular cell source addressed by column letter ("A") and
// 1-based row number.
type Grid interface {
	// Columns is the width of the used range.
	Columns() int
	// Rows is the height of the used range.
	Rows() int
	// Cell returns the value at col/row and whether the cell exists.
	Cell(col string, row int) (string, bool)
}

// ColumnName converts a 1-based column number to its letter form.
func ColumnName(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return ""
	}
	return name
}

// Memory is an in-memory grid. Rows may be ragged.
type Memory struct {
	rows    [][]string
	columns int
}

// NewMemory creates a grid from row-major values.
func NewMemory(rows [][]string) *Memory {
	m := &Memory{rows: rows}
	for _, r := range rows {
		if len(r) > m.columns {
			m.columns = len(r)
		}
	}
	return m
}

func (m *Memory) Columns() int { return m.columns }

func (m *Memory) Rows() int { return len(m.rows) }

func (m *Memory) Cell(col string, row int) (string, bool) {
	c, err := excelize.ColumnNameToNumber(col)
	if err != nil || row < 1 || row > len(m.rows) {
		return "", false
	}
	r := m.rows[row-1]
	if c > len(r) {
		return "", false
	}
	return r[c-1], true
}

// Open reads the grid at path, choosing the reader by file extension.
func Open(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	case ".csv":
		return ReadCSV(f, ',')
	case ".tsv":
		return ReadCSV(f, '\t')
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", ext)
	}
}

// ReadXLSX loads the first worksheet of a workbook.
func ReadXLSX(r io.Reader) (*Memory, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	log.Debug().Str("sheet", sheets[0]).Int("rows", len(rows)).Msg("Loaded workbook")
	return NewMemory(rows), nil
}

// ReadCSV loads a delimited text grid.
func ReadCSV(r io.Reader, comma rune) (*Memory, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return NewMemory(rows), nil
}
