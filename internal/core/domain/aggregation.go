package domain

// Metric identifies the dataset column a fund-level aggregation reduces.
type Metric string

const (
	MetricPLYTD         Metric = "pl_ytd"
	MetricPLQTD         Metric = "pl_qtd"
	MetricPLMTD         Metric = "pl_mtd"
	MetricPLDTD         Metric = "pl_dtd"
	MetricHoldingsCount Metric = "holdings_count"
	MetricTradeCount    Metric = "trade_count"
	MetricTotalCash     Metric = "total_cash"
)

// DefaultMetric is what aggregation falls back to when the query names no
// recognizable metric, or names one the dataset does not carry.
const DefaultMetric = MetricPLYTD

// Statistic is the reduction applied per fund group.
type Statistic string

const (
	StatSum   Statistic = "sum"
	StatMean  Statistic = "mean"
	StatCount Statistic = "count"
)

// Currency reports whether values of the metric render as dollar amounts.
func (m Metric) Currency() bool {
	switch m {
	case MetricHoldingsCount, MetricTradeCount:
		return false
	default:
		return true
	}
}

// Kind returns the entity kind the metric is computed over.
func (m Metric) Kind() EntityKind {
	switch m {
	case MetricTradeCount, MetricTotalCash:
		return KindTrades
	default:
		return KindHoldings
	}
}

// AggregationRow is one (fund, value) pair of a ranking.
type AggregationRow struct {
	Fund  string
	Value float64
}

// AggregationResult is a complete fund ranking for one metric. The row
// count always equals the distinct-fund count of the dataset: funds with
// no matching records appear with a zero value rather than being dropped.
type AggregationResult struct {
	Metric    Metric
	Statistic Statistic
	Rows      []AggregationRow
}
