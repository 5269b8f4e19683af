package dataset

import (
	"sort"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// Store is the in-memory representation of both record sets. It is built
// once at startup and never mutated afterwards, so it can be shared across
// concurrent request handlers without locking.
type Store struct {
	holdings []domain.HoldingRecord
	trades   []domain.TradeRecord

	funds          []string
	holdingsByFund map[string][]domain.HoldingRecord
	tradesByFund   map[string][]domain.TradeRecord
	summary        domain.DatasetSummary
}

func NewStore(holdings []domain.HoldingRecord, trades []domain.TradeRecord) *Store {
	s := &Store{
		holdings:       holdings,
		trades:         trades,
		holdingsByFund: make(map[string][]domain.HoldingRecord),
		tradesByFund:   make(map[string][]domain.TradeRecord),
	}

	fundSet := make(map[string]struct{})
	for _, h := range holdings {
		fundSet[h.PortfolioName] = struct{}{}
		s.holdingsByFund[h.PortfolioName] = append(s.holdingsByFund[h.PortfolioName], h)
		s.summary.TotalPLYTD += h.PLYTD
	}
	for _, t := range trades {
		fundSet[t.PortfolioName] = struct{}{}
		s.tradesByFund[t.PortfolioName] = append(s.tradesByFund[t.PortfolioName], t)
		switch t.TradeType {
		case "Buy":
			s.summary.BuyTrades++
		case "Sell":
			s.summary.SellTrades++
		}
	}

	s.funds = make([]string, 0, len(fundSet))
	for fund := range fundSet {
		s.funds = append(s.funds, fund)
	}
	sort.Strings(s.funds)

	s.summary.HoldingsRows = len(holdings)
	s.summary.TradesRows = len(trades)
	s.summary.FundCount = len(s.funds)
	return s
}

// DistinctFunds returns the full sorted union of funds observed across both
// record sets. Aggregation relies on this being complete: the set of funds
// is never narrowed by what a query happens to mention.
func (s *Store) DistinctFunds() []string {
	out := make([]string, len(s.funds))
	copy(out, s.funds)
	return out
}

func (s *Store) Holdings() []domain.HoldingRecord { return s.holdings }

func (s *Store) Trades() []domain.TradeRecord { return s.trades }

func (s *Store) HoldingsFor(fund string) []domain.HoldingRecord {
	return s.holdingsByFund[fund]
}

func (s *Store) TradesFor(fund string) []domain.TradeRecord {
	return s.tradesByFund[fund]
}

func (s *Store) Summary() domain.DatasetSummary { return s.summary }
