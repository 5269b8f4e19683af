package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
)

const embedBatchSize = 32

// ReindexUseCase rebuilds the vector index from the dataset store. It runs
// offline, never concurrently with serving: chunk both kinds per fund,
// embed in batches, and upsert with deterministic IDs so a rerun over
// identical input replaces vectors in place.
type ReindexUseCase struct {
	store    ports.DatasetStore
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.VectorIndex
	logger   *slog.Logger
}

func NewReindexUseCase(
	store ports.DatasetStore,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	logger *slog.Logger,
) *ReindexUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReindexUseCase{
		store:    store,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

func (uc *ReindexUseCase) Reindex(ctx context.Context) error {
	for _, kind := range []domain.EntityKind{domain.KindHoldings, domain.KindTrades} {
		if err := uc.reindexKind(ctx, kind); err != nil {
			return fmt.Errorf("reindex %s: %w", kind, err)
		}
	}
	return nil
}

func (uc *ReindexUseCase) reindexKind(ctx context.Context, kind domain.EntityKind) error {
	chunks := uc.buildChunks(kind)
	uc.logger.Info("chunks_built", "namespace", kind, "count", len(chunks))

	if err := uc.index.DeleteNamespace(ctx, kind); err != nil {
		return fmt.Errorf("clear namespace: %w", err)
	}

	upserted := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, 0, len(batch))
		for _, c := range batch {
			texts = append(texts, c.Text)
		}
		vectors, err := uc.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch at %d: got %d vectors for %d chunks", start, len(vectors), len(batch))
		}

		points := make([]ports.VectorPoint, 0, len(batch))
		for i, c := range batch {
			points = append(points, ports.VectorPoint{Chunk: c, Vector: vectors[i]})
		}
		if err := uc.index.Upsert(ctx, kind, points); err != nil {
			return fmt.Errorf("upsert batch at %d: %w", start, err)
		}
		upserted += len(points)
	}

	uc.logger.Info("namespace_indexed", "namespace", kind, "vectors", upserted)
	return nil
}

// buildChunks walks funds in sorted order and numbers chunks sequentially
// per namespace, which keeps IDs stable across identical runs.
func (uc *ReindexUseCase) buildChunks(kind domain.EntityKind) []domain.Chunk {
	var chunks []domain.Chunk
	for _, fund := range uc.store.DistinctFunds() {
		switch kind {
		case domain.KindHoldings:
			chunks = append(chunks, uc.chunker.HoldingsChunks(fund, uc.store.HoldingsFor(fund))...)
		case domain.KindTrades:
			chunks = append(chunks, uc.chunker.TradesChunks(fund, uc.store.TradesFor(fund))...)
		}
	}
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s_%d", kind, i)
	}
	return chunks
}
