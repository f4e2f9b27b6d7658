// Package source reads fund holdings and price tables from disk or the
// network and hands them over as text rows.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"ConcentrationPanel/internal/model"
)

// DefaultEncodings is the order in which CSV encodings are attempted.
var DefaultEncodings = []string{"utf-8-sig", "utf-8", "big5", "cp950"}

// Options controls how a tabular source is read.
type Options struct {
	SkipRows  int      // rows before the header row
	Encodings []string // tried in order for CSV input
	Sheet     string   // xlsx sheet; first sheet when empty
	HasAmount bool     // holdings carry a fourth, amount column
}

// table is the data section of a source: rows after the header, with the
// 1-based line (or sheet row) each came from.
type table struct {
	rows  [][]string
	lines []int
}

func (t *table) cell(i, col int) string {
	if col < len(t.rows[i]) {
		return t.rows[i][col]
	}
	return ""
}

// ReadHoldings reads a holdings table whose first columns are period,
// instrument code, weight percent and (optionally) amount.
func ReadHoldings(path string, opts Options) ([]model.RawHoldingRow, error) {
	minCols := 3
	if opts.HasAmount {
		minCols = 4
	}
	tbl, err := readTable(path, opts, minCols)
	if err != nil {
		return nil, err
	}
	rows := make([]model.RawHoldingRow, len(tbl.rows))
	for i := range tbl.rows {
		rows[i] = model.RawHoldingRow{
			Line:   tbl.lines[i],
			Period: tbl.cell(i, 0),
			Code:   tbl.cell(i, 1),
			Weight: tbl.cell(i, 2),
		}
		if opts.HasAmount {
			rows[i].Amount = tbl.cell(i, 3)
		}
	}
	return rows, nil
}

// ReadPrices reads a price table whose first columns are period and close.
func ReadPrices(path string, opts Options) ([]model.RawPriceRow, error) {
	tbl, err := readTable(path, opts, 2)
	if err != nil {
		return nil, err
	}
	rows := make([]model.RawPriceRow, len(tbl.rows))
	for i := range tbl.rows {
		rows[i] = model.RawPriceRow{
			Line:   tbl.lines[i],
			Period: tbl.cell(i, 0),
			Price:  tbl.cell(i, 1),
		}
	}
	return rows, nil
}

func readTable(path string, opts Options, minCols int) (*table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path, opts, minCols)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}

	var lastErr error
	for _, enc := range encodings {
		text, err := decode(data, enc)
		if err != nil {
			lastErr = err
			continue
		}
		records, lines, err := parseCSV(text)
		if err != nil {
			lastErr = err
			continue
		}
		tbl, err := dataSection(records, lines, opts.SkipRows, minCols)
		if err != nil {
			lastErr = err
			continue
		}
		log.Printf("[INFO] read %s as %s: %s data rows", path, enc, humanize.Comma(int64(len(tbl.rows))))
		return tbl, nil
	}
	return nil, &model.EncodingOrSchemaError{Path: path, Attempted: encodings, Err: lastErr}
}

func parseCSV(text string) ([][]string, []int, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return records, lines, nil
}

func readXLSX(path string, opts Options, minCols int) (*table, error) {
	attempted := []string{"xlsx"}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &model.EncodingOrSchemaError{Path: path, Attempted: attempted, Err: err}
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &model.EncodingOrSchemaError{Path: path, Attempted: attempted, Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &model.EncodingOrSchemaError{Path: path, Attempted: attempted, Err: err}
	}

	var records [][]string
	var lines []int
	for i, row := range rows {
		if blank(row) {
			continue
		}
		records = append(records, row)
		lines = append(lines, i+1)
	}
	tbl, err := dataSection(records, lines, opts.SkipRows, minCols)
	if err != nil {
		return nil, &model.EncodingOrSchemaError{Path: path, Attempted: attempted, Err: err}
	}
	log.Printf("[INFO] read %s sheet %q: %s data rows", path, sheet, humanize.Comma(int64(len(tbl.rows))))
	return tbl, nil
}

// dataSection drops skip leading records, checks the header record has at
// least minCols columns and returns the records after it.
func dataSection(records [][]string, lines []int, skip, minCols int) (*table, error) {
	if len(records) <= skip {
		return nil, errors.New("no header row")
	}
	header := records[skip]
	if len(header) < minCols {
		return nil, fmt.Errorf("header has %d columns, need %d", len(header), minCols)
	}
	return &table{rows: records[skip+1:], lines: lines[skip+1:]}, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
