package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// Load reads both source files and returns a fully built store. The load is
// all-or-nothing: any failure leaves no partially usable store behind.
func Load(holdingsPath, tradesPath string) (*Store, error) {
	holdingsTable, err := readTable(holdingsPath)
	if err != nil {
		return nil, fmt.Errorf("read holdings source: %w", err)
	}
	tradesTable, err := readTable(tradesPath)
	if err != nil {
		return nil, fmt.Errorf("read trades source: %w", err)
	}

	holdings, err := buildHoldings(holdingsTable)
	if err != nil {
		return nil, err
	}
	trades, err := buildTrades(tradesTable)
	if err != nil {
		return nil, err
	}

	return NewStore(holdings, trades), nil
}

func readTable(path string) (table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	return readCSV(path)
}

func readCSV(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, domain.WrapError(domain.ErrMalformedInput, "open source file", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) (table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return table{}, domain.WrapError(domain.ErrMalformedInput, "read csv header", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, domain.WrapError(domain.ErrMalformedInput, "read csv row", err)
		}
		rows = append(rows, row)
	}
	return newTable(header, rows), nil
}

func readXLSX(path string) (table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table{}, domain.WrapError(domain.ErrMalformedInput, "open xlsx file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table{}, domain.WrapError(domain.ErrMalformedInput, "read xlsx",
			errors.New("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return table{}, domain.WrapError(domain.ErrMalformedInput, "read xlsx rows", err)
	}
	if len(rows) == 0 {
		return table{}, domain.WrapError(domain.ErrMalformedInput, "read xlsx",
			errors.New("sheet has no header row"))
	}
	return newTable(rows[0], rows[1:]), nil
}
