package dataset

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// table is the loader-independent intermediate form: a header index plus
// raw string rows. CSV and XLSX sources both reduce to it before typing.
type table struct {
	columns map[string]int
	rows    [][]string
}

func newTable(header []string, rows [][]string) table {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	return table{columns: columns, rows: rows}
}

func (t table) hasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

func (t table) cell(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[idx])
	// Source files use NULL markers interchangeably with empty cells.
	if v == "NULL" || v == "null" {
		return ""
	}
	return v
}

// numeric parses a cell into a float, defaulting to zero for missing or
// unparsable values. Optional numeric fields are never a load failure.
func (t table) numeric(row []string, column string) float64 {
	v := t.cell(row, column)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

const sourceDateLayout = "02/01/06"

func (t table) date(row []string, column string) time.Time {
	v := t.cell(row, column)
	if v == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(sourceDateLayout, v)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func (t table) text(row []string, column, fallback string) string {
	v := t.cell(row, column)
	if v == "" {
		return fallback
	}
	return v
}

const fundColumn = "PortfolioName"

func buildHoldings(t table) ([]domain.HoldingRecord, error) {
	if !t.hasColumn(fundColumn) {
		return nil, domain.WrapError(domain.ErrMalformedInput, "load holdings",
			errors.New("required column PortfolioName is absent"))
	}

	out := make([]domain.HoldingRecord, 0, len(t.rows))
	for _, row := range t.rows {
		fund := t.cell(row, fundColumn)
		if fund == "" {
			return nil, domain.WrapError(domain.ErrMalformedInput, "load holdings",
				errors.New("row with empty PortfolioName"))
		}
		out = append(out, domain.HoldingRecord{
			PortfolioName: fund,
			SecName:       t.text(row, "SecName", "Unknown"),
			SecurityType:  t.text(row, "SecurityTypeName", "Unknown"),
			Qty:           t.numeric(row, "Qty"),
			Price:         t.numeric(row, "Price"),
			MVLocal:       t.numeric(row, "MV_Local"),
			MVBase:        t.numeric(row, "MV_Base"),
			PLYTD:         t.numeric(row, "PL_YTD"),
			PLQTD:         t.numeric(row, "PL_QTD"),
			PLMTD:         t.numeric(row, "PL_MTD"),
			PLDTD:         t.numeric(row, "PL_DTD"),
			Strategy:      t.cell(row, "Strategy1RefShortName"),
			Custodian:     t.cell(row, "CustodianName"),
			Direction:     t.text(row, "DirectionName", "Unknown"),
			AsOfDate:      t.date(row, "AsOfDate"),
			OpenDate:      t.date(row, "OpenDate"),
			CloseDate:     t.text(row, "CloseDate", "Open"),
		})
	}
	return out, nil
}

func buildTrades(t table) ([]domain.TradeRecord, error) {
	if !t.hasColumn(fundColumn) {
		return nil, domain.WrapError(domain.ErrMalformedInput, "load trades",
			errors.New("required column PortfolioName is absent"))
	}

	out := make([]domain.TradeRecord, 0, len(t.rows))
	for _, row := range t.rows {
		fund := t.cell(row, fundColumn)
		if fund == "" {
			return nil, domain.WrapError(domain.ErrMalformedInput, "load trades",
				errors.New("row with empty PortfolioName"))
		}
		out = append(out, domain.TradeRecord{
			PortfolioName:  fund,
			SecurityName:   t.text(row, "Name", "Unknown"),
			SecurityType:   t.text(row, "SecurityType", "Unknown"),
			TradeType:      t.text(row, "TradeTypeName", "Unknown"),
			Quantity:       t.numeric(row, "Quantity"),
			Price:          t.numeric(row, "Price"),
			Principal:      t.numeric(row, "Principal"),
			TotalCash:      t.numeric(row, "TotalCash"),
			AllocationCash: t.numeric(row, "AllocationCash"),
			TradeDate:      t.cell(row, "TradeDate"),
			SettleDate:     t.cell(row, "SettleDate"),
			Strategy:       t.cell(row, "Strategy1Name"),
			Custodian:      t.cell(row, "CustodianName"),
			Counterparty:   t.cell(row, "Counterparty"),
		})
	}
	return out, nil
}
