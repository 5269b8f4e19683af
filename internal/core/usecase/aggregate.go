package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
)

// AggregationEngine computes complete fund rankings straight from the
// dataset store. Every distinct fund appears in every result: that
// completeness is the reason aggregation queries bypass retrieval.
type AggregationEngine struct {
	store ports.DatasetStore
}

func NewAggregationEngine(store ports.DatasetStore) *AggregationEngine {
	return &AggregationEngine{store: store}
}

type metricRule struct {
	pattern   *regexp.Regexp
	metric    domain.Metric
	statistic domain.Statistic
}

// metricRules infer metric and statistic from the query, first match wins.
// A query naming none of them falls through to the PL YTD sum default.
var metricRules = []metricRule{
	{regexp.MustCompile(`average.*p[&/]l|avg.*p[&/]l|mean.*p[&/]l`), domain.MetricPLYTD, domain.StatMean},
	{regexp.MustCompile(`p[&/]l.*qtd|quarter`), domain.MetricPLQTD, domain.StatSum},
	{regexp.MustCompile(`p[&/]l.*mtd|month`), domain.MetricPLMTD, domain.StatSum},
	{regexp.MustCompile(`p[&/]l.*dtd|daily|day`), domain.MetricPLDTD, domain.StatSum},
	{regexp.MustCompile(`how many holdings|holdings count|number of holdings`), domain.MetricHoldingsCount, domain.StatCount},
	{regexp.MustCompile(`how many trades|trade count|number of trades`), domain.MetricTradeCount, domain.StatCount},
	{regexp.MustCompile(`total.*cash|cash.*total`), domain.MetricTotalCash, domain.StatSum},
	{regexp.MustCompile(`p[&/]l|profit|performed|performance|best|worst`), domain.MetricPLYTD, domain.StatSum},
}

// InferMetric resolves the metric and statistic a query asks for.
func InferMetric(question string) (domain.Metric, domain.Statistic) {
	q := strings.ToLower(question)
	for _, rule := range metricRules {
		if rule.pattern.MatchString(q) {
			return rule.metric, rule.statistic
		}
	}
	return domain.DefaultMetric, domain.StatSum
}

// Aggregate groups all records of the metric's entity kind by fund and
// reduces each group. Rows come back sorted by value descending with ties
// broken by fund name ascending, one row per distinct fund.
func (e *AggregationEngine) Aggregate(metric domain.Metric, statistic domain.Statistic) (*domain.AggregationResult, error) {
	values, err := e.groupValues(metric)
	if err != nil {
		return nil, err
	}

	funds := e.store.DistinctFunds()
	rows := make([]domain.AggregationRow, 0, len(funds))
	for _, fund := range funds {
		rows = append(rows, domain.AggregationRow{
			Fund:  fund,
			Value: reduce(statistic, values[fund]),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Fund < rows[j].Fund
	})

	return &domain.AggregationResult{
		Metric:    metric,
		Statistic: statistic,
		Rows:      rows,
	}, nil
}

func (e *AggregationEngine) groupValues(metric domain.Metric) (map[string][]float64, error) {
	values := make(map[string][]float64)

	switch metric.Kind() {
	case domain.KindHoldings:
		field, err := holdingField(metric)
		if err != nil {
			return nil, err
		}
		for _, r := range e.store.Holdings() {
			values[r.PortfolioName] = append(values[r.PortfolioName], field(r))
		}
	case domain.KindTrades:
		field, err := tradeField(metric)
		if err != nil {
			return nil, err
		}
		for _, r := range e.store.Trades() {
			values[r.PortfolioName] = append(values[r.PortfolioName], field(r))
		}
	}
	return values, nil
}

func holdingField(metric domain.Metric) (func(domain.HoldingRecord) float64, error) {
	switch metric {
	case domain.MetricPLYTD:
		return func(r domain.HoldingRecord) float64 { return r.PLYTD }, nil
	case domain.MetricPLQTD:
		return func(r domain.HoldingRecord) float64 { return r.PLQTD }, nil
	case domain.MetricPLMTD:
		return func(r domain.HoldingRecord) float64 { return r.PLMTD }, nil
	case domain.MetricPLDTD:
		return func(r domain.HoldingRecord) float64 { return r.PLDTD }, nil
	case domain.MetricHoldingsCount:
		return func(domain.HoldingRecord) float64 { return 1 }, nil
	default:
		return nil, domain.WrapError(domain.ErrUnknownMetric, "aggregate",
			fmt.Errorf("no holdings field for metric %q", metric))
	}
}

func tradeField(metric domain.Metric) (func(domain.TradeRecord) float64, error) {
	switch metric {
	case domain.MetricTradeCount:
		return func(domain.TradeRecord) float64 { return 1 }, nil
	case domain.MetricTotalCash:
		return func(r domain.TradeRecord) float64 { return r.TotalCash }, nil
	default:
		return nil, domain.WrapError(domain.ErrUnknownMetric, "aggregate",
			fmt.Errorf("no trades field for metric %q", metric))
	}
}

func reduce(statistic domain.Statistic, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch statistic {
	case domain.StatMean:
		return stat.Mean(values, nil)
	case domain.StatCount:
		return float64(len(values))
	default:
		return floats.Sum(values)
	}
}
