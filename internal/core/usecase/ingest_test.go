package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// fakeChunker emits one chunk per record so ID assignment is easy to
// predict in tests.
type fakeChunker struct{}

func (fakeChunker) HoldingsChunks(fund string, records []domain.HoldingRecord) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(records))
	for _, r := range records {
		chunks = append(chunks, domain.Chunk{Fund: fund, Kind: domain.KindHoldings, Text: r.SecName})
	}
	return chunks
}

func (fakeChunker) TradesChunks(fund string, records []domain.TradeRecord) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(records))
	for _, r := range records {
		chunks = append(chunks, domain.Chunk{Fund: fund, Kind: domain.KindTrades, Text: r.SecurityName})
	}
	return chunks
}

func ingestStore() *fakeStore {
	return &fakeStore{
		holdings: []domain.HoldingRecord{
			{PortfolioName: "Garfield", SecName: "AAPL"},
			{PortfolioName: "Heather", SecName: "MSFT"},
			{PortfolioName: "Garfield", SecName: "GOOG"},
		},
		trades: []domain.TradeRecord{
			{PortfolioName: "Heather", SecurityName: "TSLA"},
		},
	}
}

func TestReindexAssignsDeterministicIDs(t *testing.T) {
	index := &fakeIndex{}
	uc := NewReindexUseCase(ingestStore(), fakeChunker{}, &fakeEmbedder{}, index, nil)

	if err := uc.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}

	holdings := index.upserts[domain.KindHoldings]
	if len(holdings) != 3 {
		t.Fatalf("holdings points = %d", len(holdings))
	}
	// Funds walk in sorted order: Garfield's two records then Heather's.
	wantIDs := []string{"holdings_0", "holdings_1", "holdings_2"}
	wantText := []string{"AAPL", "GOOG", "MSFT"}
	for i := range holdings {
		if holdings[i].Chunk.ID != wantIDs[i] || holdings[i].Chunk.Text != wantText[i] {
			t.Errorf("point %d = %s/%s, want %s/%s",
				i, holdings[i].Chunk.ID, holdings[i].Chunk.Text, wantIDs[i], wantText[i])
		}
	}

	trades := index.upserts[domain.KindTrades]
	if len(trades) != 1 || trades[0].Chunk.ID != "trades_0" {
		t.Fatalf("trades points = %+v", trades)
	}
}

func TestReindexIdempotentAcrossRuns(t *testing.T) {
	store := ingestStore()

	first := &fakeIndex{}
	if err := NewReindexUseCase(store, fakeChunker{}, &fakeEmbedder{}, first, nil).Reindex(context.Background()); err != nil {
		t.Fatalf("first Reindex() error = %v", err)
	}
	second := &fakeIndex{}
	if err := NewReindexUseCase(store, fakeChunker{}, &fakeEmbedder{}, second, nil).Reindex(context.Background()); err != nil {
		t.Fatalf("second Reindex() error = %v", err)
	}

	a, b := first.upserts[domain.KindHoldings], second.upserts[domain.KindHoldings]
	if len(a) != len(b) {
		t.Fatalf("run sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Chunk.ID != b[i].Chunk.ID || a[i].Chunk.Text != b[i].Chunk.Text {
			t.Errorf("run mismatch at %d: %+v vs %+v", i, a[i].Chunk, b[i].Chunk)
		}
	}
}

func TestReindexClearsNamespacesFirst(t *testing.T) {
	index := &fakeIndex{}
	uc := NewReindexUseCase(ingestStore(), fakeChunker{}, &fakeEmbedder{}, index, nil)

	if err := uc.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if len(index.deleted) != 2 {
		t.Fatalf("deleted namespaces = %v", index.deleted)
	}
}

func TestReindexBatchesEmbeddings(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 70; i++ {
		store.holdings = append(store.holdings, domain.HoldingRecord{
			PortfolioName: "Garfield",
			SecName:       fmt.Sprintf("SEC-%d", i),
		})
	}
	embedder := &fakeEmbedder{}
	uc := NewReindexUseCase(store, fakeChunker{}, embedder, &fakeIndex{}, nil)

	if err := uc.Reindex(context.Background()); err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	// 70 holdings chunks at batch size 32 -> 32 + 32 + 6.
	if len(embedder.batches) != 3 {
		t.Fatalf("batches = %d", len(embedder.batches))
	}
	if len(embedder.batches[2]) != 6 {
		t.Fatalf("final batch = %d", len(embedder.batches[2]))
	}
}
