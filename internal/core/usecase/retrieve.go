package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
)

const (
	defaultTopK        = 10
	minRelevanceScore  = 0.3
	minAcceptedMatches = 3
	dedupeScoreDelta   = 0.05
)

// Retriever runs the semantic path: embed the query, search one
// namespace, and gate the matches on relevance. A query that cannot
// produce enough evidence fails closed with ErrInsufficientEvidence
// instead of returning a thin partial list.
type Retriever struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	topK     int
}

type RetrieverOption func(*Retriever)

func WithTopK(topK int) RetrieverOption {
	return func(r *Retriever) {
		if topK > 0 {
			r.topK = topK
		}
	}
}

func NewRetriever(embedder ports.Embedder, index ports.VectorIndex, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder: embedder,
		index:    index,
		topK:     defaultTopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	plKeywords       = []string{"performance", "p&l", "profit", "loss", "pl_ytd", "yearly", "return"}
	tradeKeywords    = []string{"trade", "buy", "sell", "transaction", "purchase"}
	holdingsKeywords = []string{"holding", "position", "quantity held", "owns"}
)

// InferNamespace picks the index partition for a specific query. Keyword
// groups are checked in order and a later hit overrides an earlier one;
// a query matching nothing searches holdings, the larger set.
func InferNamespace(question string) (domain.EntityKind, bool) {
	q := strings.ToLower(question)

	namespace := domain.KindHoldings
	requirePL := false

	if containsAny(q, plKeywords) {
		namespace = domain.KindHoldings
		requirePL = true
	}
	if containsAny(q, tradeKeywords) {
		namespace = domain.KindTrades
	}
	if containsAny(q, holdingsKeywords) {
		namespace = domain.KindHoldings
	}
	return namespace, requirePL
}

// Retrieve returns the validated matches for a question, best first.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.Match, error) {
	namespace, requirePL := InferNamespace(question)

	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.index.Query(ctx, namespace, vector, r.topK, requirePL)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", namespace, err)
	}

	kept := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if m.Score >= minRelevanceScore {
			kept = append(kept, m)
		}
	}
	if len(kept) < minAcceptedMatches {
		return nil, domain.WrapError(domain.ErrInsufficientEvidence, "retrieve",
			fmt.Errorf("%d of %d matches cleared score %.2f in %s", len(kept), len(matches), minRelevanceScore, namespace))
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].ChunkID < kept[j].ChunkID
	})

	return dedupeMatches(kept), nil
}

// dedupeMatches drops a match whose fund already appears with a nearly
// identical score; such chunks add no new evidence. The best match is
// always kept.
func dedupeMatches(matches []domain.Match) []domain.Match {
	if len(matches) == 0 {
		return matches
	}
	out := make([]domain.Match, 1, len(matches))
	out[0] = matches[0]
	for _, m := range matches[1:] {
		duplicate := false
		for _, selected := range out {
			if m.Fund == selected.Fund && math.Abs(m.Score-selected.Score) < dedupeScoreDelta {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, m)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
