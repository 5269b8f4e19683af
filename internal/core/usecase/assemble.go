package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// maxContextChars bounds the text handed to the generator regardless of
// dataset size. Truncation drops the lowest-ranked entries whole.
const maxContextChars = 12000

var metricHeadings = map[domain.Metric]string{
	domain.MetricPLYTD:         "Fund Performance Rankings (Yearly P&L)",
	domain.MetricPLQTD:         "Fund Performance Rankings (Quarterly P&L)",
	domain.MetricPLMTD:         "Fund Performance Rankings (Monthly P&L)",
	domain.MetricPLDTD:         "Fund Performance Rankings (Daily P&L)",
	domain.MetricHoldingsCount: "Holdings Count by Fund",
	domain.MetricTradeCount:    "Trade Count by Fund",
	domain.MetricTotalCash:     "Total Cash by Fund",
}

// AssembleAggregationContext renders a complete ranked table. Every fund
// in the result gets a row; the total line lets the model state coverage.
func AssembleAggregationContext(result *domain.AggregationResult) domain.ContextPayload {
	heading, ok := metricHeadings[result.Metric]
	if !ok {
		heading = "Fund Rankings"
	}

	var lines []string
	lines = append(lines,
		fmt.Sprintf("=== COMPLETE %s ===", heading),
		"This includes ALL funds in the dataset:",
		"",
	)
	for i, row := range result.Rows {
		lines = append(lines, formatRankingRow(i+1, row, result.Metric))
	}
	lines = append(lines, "", fmt.Sprintf("Total Funds: %d", len(result.Rows)))

	return domain.ContextPayload{
		Template: domain.TemplateAggregation,
		Text:     truncateLines(lines, maxContextChars),
	}
}

func formatRankingRow(rank int, row domain.AggregationRow, metric domain.Metric) string {
	if metric.Currency() {
		return fmt.Sprintf("%d. %s: $%s", rank, row.Fund, formatAmount(row.Value))
	}
	return fmt.Sprintf("%d. %s: %.0f", rank, row.Fund, row.Value)
}

// AssembleRetrievalContext renders validated matches as labelled chunk
// blocks, best match first.
func AssembleRetrievalContext(matches []domain.Match) domain.ContextPayload {
	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		header := fmt.Sprintf("=== Chunk %d (Fund: %s, Source: %s, Relevance: %.2f) ===",
			i+1, orDefault(m.Fund, "Unknown"), orDefault(string(m.Kind), "Unknown"), m.Score)
		blocks = append(blocks, header+"\n"+m.Text+"\n")
	}
	return domain.ContextPayload{
		Template: domain.TemplateRetrieval,
		Text:     truncateBlocks(blocks, maxContextChars),
	}
}

// AssembleNoEvidenceContext is the fail-closed payload: no context text,
// and the orchestrator answers with the fixed string instead of invoking
// the generator.
func AssembleNoEvidenceContext() domain.ContextPayload {
	return domain.ContextPayload{Template: domain.TemplateInsufficientEvidence}
}

// truncateLines joins ranked lines, dropping from the bottom when the
// ceiling is hit. Headings survive because they come first.
func truncateLines(lines []string, limit int) string {
	text := strings.Join(lines, "\n")
	if len(text) <= limit {
		return text
	}
	for len(lines) > 1 {
		lines = lines[:len(lines)-1]
		text = strings.Join(lines, "\n")
		if len(text) <= limit {
			return text
		}
	}
	return cutAtRuneBoundary(text, limit)
}

// truncateBlocks keeps whole chunk blocks, lowest-ranked dropped first. A
// single oversized block is cut mid-text as a last resort.
func truncateBlocks(blocks []string, limit int) string {
	text := strings.Join(blocks, "\n")
	for len(text) > limit && len(blocks) > 1 {
		blocks = blocks[:len(blocks)-1]
		text = strings.Join(blocks, "\n")
	}
	if len(text) > limit {
		text = cutAtRuneBoundary(text, limit)
	}
	return text
}

// cutAtRuneBoundary cuts text to at most limit bytes without splitting a
// multi-byte rune; fund and security names are not guaranteed ASCII.
func cutAtRuneBoundary(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
