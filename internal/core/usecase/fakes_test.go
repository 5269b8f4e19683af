package usecase

import (
	"context"
	"sort"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
)

type fakeStore struct {
	holdings []domain.HoldingRecord
	trades   []domain.TradeRecord
}

func (s *fakeStore) DistinctFunds() []string {
	seen := map[string]bool{}
	var funds []string
	for _, r := range s.holdings {
		if !seen[r.PortfolioName] {
			seen[r.PortfolioName] = true
			funds = append(funds, r.PortfolioName)
		}
	}
	for _, r := range s.trades {
		if !seen[r.PortfolioName] {
			seen[r.PortfolioName] = true
			funds = append(funds, r.PortfolioName)
		}
	}
	sort.Strings(funds)
	return funds
}

func (s *fakeStore) Holdings() []domain.HoldingRecord { return s.holdings }
func (s *fakeStore) Trades() []domain.TradeRecord     { return s.trades }

func (s *fakeStore) HoldingsFor(fund string) []domain.HoldingRecord {
	var out []domain.HoldingRecord
	for _, r := range s.holdings {
		if r.PortfolioName == fund {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeStore) TradesFor(fund string) []domain.TradeRecord {
	var out []domain.TradeRecord
	for _, r := range s.trades {
		if r.PortfolioName == fund {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeStore) Summary() domain.DatasetSummary {
	return domain.DatasetSummary{
		HoldingsRows: len(s.holdings),
		TradesRows:   len(s.trades),
		FundCount:    len(s.DistinctFunds()),
	}
}

type fakeEmbedder struct {
	batches [][]string
	queries []string
	err     error
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.batches = append(e.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.queries = append(e.queries, text)
	return []float32{0.1, 0.2}, nil
}

type fakeIndex struct {
	matches   []domain.Match
	queryErr  error
	upserts   map[domain.EntityKind][]ports.VectorPoint
	deleted   []domain.EntityKind
	namespace domain.EntityKind
	requirePL bool
	topK      int
}

func (f *fakeIndex) Upsert(_ context.Context, namespace domain.EntityKind, points []ports.VectorPoint) error {
	if f.upserts == nil {
		f.upserts = make(map[domain.EntityKind][]ports.VectorPoint)
	}
	f.upserts[namespace] = append(f.upserts[namespace], points...)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, namespace domain.EntityKind, _ []float32, topK int, requirePL bool) ([]domain.Match, error) {
	f.namespace = namespace
	f.requirePL = requirePL
	f.topK = topK
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeIndex) DeleteNamespace(_ context.Context, namespace domain.EntityKind) error {
	f.deleted = append(f.deleted, namespace)
	return nil
}

type fakeGenerator struct {
	calls    int
	template domain.TemplateID
	context  string
	question string
	history  []domain.ChatMessage
	answer   string
	err      error
}

func (g *fakeGenerator) Generate(_ context.Context, template domain.TemplateID, contextText, question string, history []domain.ChatMessage) (string, error) {
	g.calls++
	g.template = template
	g.context = contextText
	g.question = question
	g.history = history
	if g.err != nil {
		return "", g.err
	}
	if g.answer == "" {
		return "generated answer", nil
	}
	return g.answer, nil
}

type fakeQueryLog struct {
	entries []ports.QueryLogEntry
	err     error
}

func (l *fakeQueryLog) Insert(_ context.Context, entry ports.QueryLogEntry) error {
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, entry)
	return nil
}

func (l *fakeQueryLog) ListRecent(context.Context, int) ([]ports.QueryLogEntry, error) {
	return l.entries, nil
}
