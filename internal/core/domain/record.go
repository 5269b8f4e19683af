package domain

import "time"

// EntityKind distinguishes the two record sets and doubles as the
// vector index namespace name.
type EntityKind string

const (
	KindHoldings EntityKind = "holdings"
	KindTrades   EntityKind = "trades"
)

func (k EntityKind) Valid() bool {
	return k == KindHoldings || k == KindTrades
}

// HoldingRecord is one row of the holdings set. Numeric fields missing in
// the source normalize to zero; records are immutable after load.
type HoldingRecord struct {
	PortfolioName string
	SecName       string
	SecurityType  string
	Qty           float64
	Price         float64
	MVLocal       float64
	MVBase        float64
	PLYTD         float64
	PLQTD         float64
	PLMTD         float64
	PLDTD         float64
	Strategy      string
	Custodian     string
	Direction     string
	AsOfDate      time.Time
	OpenDate      time.Time
	CloseDate     string
}

// TradeRecord is one row of the trades set.
type TradeRecord struct {
	PortfolioName  string
	SecurityName   string
	SecurityType   string
	TradeType      string
	Quantity       float64
	Price          float64
	Principal      float64
	TotalCash      float64
	AllocationCash float64
	TradeDate      string
	SettleDate     string
	Strategy       string
	Custodian      string
	Counterparty   string
}

// DatasetSummary carries startup-time statistics about the loaded store.
type DatasetSummary struct {
	HoldingsRows int
	TradesRows   int
	FundCount    int
	BuyTrades    int
	SellTrades   int
	TotalPLYTD   float64
}
