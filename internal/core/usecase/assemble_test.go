package usecase

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

func TestAssembleAggregationContext(t *testing.T) {
	result := &domain.AggregationResult{
		Metric:    domain.MetricPLYTD,
		Statistic: domain.StatSum,
		Rows: []domain.AggregationRow{
			{Fund: "Ytum", Value: 46789200.50},
			{Fund: "MNC", Value: 35421100.75},
			{Fund: "Garfield", Value: 28567800.25},
			{Fund: "Heather", Value: 22451300.00},
		},
	}

	payload := AssembleAggregationContext(result)
	if payload.Template != domain.TemplateAggregation {
		t.Fatalf("template = %s", payload.Template)
	}
	if !strings.Contains(payload.Text, "=== COMPLETE Fund Performance Rankings (Yearly P&L) ===") {
		t.Errorf("missing heading:\n%s", payload.Text)
	}
	if !strings.Contains(payload.Text, "1. Ytum: $46,789,200.50") {
		t.Errorf("missing top row:\n%s", payload.Text)
	}
	if !strings.Contains(payload.Text, "4. Heather: $22,451,300.00") {
		t.Errorf("missing last row:\n%s", payload.Text)
	}
	if !strings.Contains(payload.Text, "Total Funds: 4") {
		t.Errorf("missing fund count:\n%s", payload.Text)
	}
}

func TestAssembleAggregationCountsWithoutCurrency(t *testing.T) {
	result := &domain.AggregationResult{
		Metric:    domain.MetricHoldingsCount,
		Statistic: domain.StatCount,
		Rows:      []domain.AggregationRow{{Fund: "Garfield", Value: 250}},
	}
	payload := AssembleAggregationContext(result)
	if !strings.Contains(payload.Text, "1. Garfield: 250") {
		t.Errorf("count row must not carry a dollar sign:\n%s", payload.Text)
	}
	if strings.Contains(payload.Text, "$250") {
		t.Errorf("count rendered as currency:\n%s", payload.Text)
	}
}

func TestAssembleAggregationTruncatesLowestRanked(t *testing.T) {
	rows := make([]domain.AggregationRow, 2000)
	for i := range rows {
		rows[i] = domain.AggregationRow{Fund: fmt.Sprintf("Fund-%04d", i), Value: float64(2000 - i)}
	}
	payload := AssembleAggregationContext(&domain.AggregationResult{
		Metric: domain.MetricPLYTD, Statistic: domain.StatSum, Rows: rows,
	})
	if len(payload.Text) > maxContextChars {
		t.Fatalf("context exceeds ceiling: %d", len(payload.Text))
	}
	if !strings.Contains(payload.Text, "1. Fund-0000") {
		t.Errorf("top-ranked row must survive truncation")
	}
	if strings.Contains(payload.Text, "Fund-1999") {
		t.Errorf("lowest-ranked row should be dropped first")
	}
}

func TestAssembleRetrievalContext(t *testing.T) {
	matches := []domain.Match{
		{ChunkID: "holdings_7", Fund: "Garfield Fund", Kind: domain.KindHoldings, Score: 0.91, Text: "Security: AAPL (Equity)"},
		{ChunkID: "holdings_2", Fund: "Heather Fund", Kind: domain.KindHoldings, Score: 0.55, Text: "Security: MSFT (Equity)"},
	}
	payload := AssembleRetrievalContext(matches)
	if payload.Template != domain.TemplateRetrieval {
		t.Fatalf("template = %s", payload.Template)
	}
	if !strings.Contains(payload.Text, "=== Chunk 1 (Fund: Garfield Fund, Source: holdings, Relevance: 0.91) ===") {
		t.Errorf("missing first chunk header:\n%s", payload.Text)
	}
	if !strings.Contains(payload.Text, "Security: MSFT (Equity)") {
		t.Errorf("missing second chunk body:\n%s", payload.Text)
	}
	if strings.Index(payload.Text, "Chunk 1") > strings.Index(payload.Text, "Chunk 2") {
		t.Errorf("chunks out of order")
	}
}

func TestAssembleRetrievalTruncatesWholeBlocks(t *testing.T) {
	matches := make([]domain.Match, 10)
	for i := range matches {
		matches[i] = domain.Match{
			ChunkID: fmt.Sprintf("holdings_%d", i),
			Fund:    "F",
			Kind:    domain.KindHoldings,
			Score:   1 - float64(i)/100,
			Text:    strings.Repeat("x", 2000),
		}
	}
	payload := AssembleRetrievalContext(matches)
	if len(payload.Text) > maxContextChars {
		t.Fatalf("context exceeds ceiling: %d", len(payload.Text))
	}
	if !strings.Contains(payload.Text, "Chunk 1 ") {
		t.Errorf("best chunk must survive truncation")
	}
	if strings.Contains(payload.Text, "Chunk 10 ") {
		t.Errorf("lowest-ranked chunk should be dropped first")
	}
}

func TestAssembleNoEvidenceContext(t *testing.T) {
	payload := AssembleNoEvidenceContext()
	if payload.Template != domain.TemplateInsufficientEvidence {
		t.Fatalf("template = %s", payload.Template)
	}
	if payload.Text != "" {
		t.Fatalf("no-evidence payload must carry no context text")
	}
}

func TestCutAtRuneBoundaryKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("a", 10) + "日本語ファンド"

	for limit := 10; limit < len(text); limit++ {
		out := cutAtRuneBoundary(text, limit)
		if len(out) > limit {
			t.Fatalf("limit %d: cut produced %d bytes", limit, len(out))
		}
		if !utf8.ValidString(out) {
			t.Fatalf("limit %d: cut split a rune: %q", limit, out)
		}
	}
}

func TestTruncateBlocksMidCutPreservesRunes(t *testing.T) {
	// A single oversized block forces the mid-text cut; a fund name in
	// multi-byte script must not be left with a broken trailing rune.
	block := strings.Repeat("グローバル株式ファンド ", 2000)

	out := truncateBlocks([]string{block}, maxContextChars)
	if len(out) > maxContextChars {
		t.Fatalf("truncated block exceeds ceiling: %d", len(out))
	}
	if !utf8.ValidString(out) {
		t.Fatalf("mid-cut split a rune")
	}
}
