package ports

import (
	"context"
	"time"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// DatasetStore is the immutable in-memory table shared by the aggregation
// engine and the chunker. Loaded once before serving; read-only afterwards,
// so concurrent queries need no locking.
type DatasetStore interface {
	DistinctFunds() []string
	Holdings() []domain.HoldingRecord
	Trades() []domain.TradeRecord
	HoldingsFor(fund string) []domain.HoldingRecord
	TradesFor(fund string) []domain.TradeRecord
	Summary() domain.DatasetSummary
}

// Chunker turns one fund's record run into overlapping text windows.
// Output order is deterministic for identical input.
type Chunker interface {
	HoldingsChunks(fund string, records []domain.HoldingRecord) []domain.Chunk
	TradesChunks(fund string, records []domain.TradeRecord) []domain.Chunk
}

// Embedder builds fixed-dimension vectors for chunk and query text.
// Deterministic for identical text; calls are blocking and may fail.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorPoint is one upsert unit: a chunk plus its embedding.
type VectorPoint struct {
	Chunk  domain.Chunk
	Vector []float32
}

// VectorIndex is the narrow contract over the external nearest-neighbor
// service. Namespaces partition the index per entity kind.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace domain.EntityKind, points []VectorPoint) error
	Query(ctx context.Context, namespace domain.EntityKind, vector []float32, topK int, requirePL bool) ([]domain.Match, error)
	DeleteNamespace(ctx context.Context, namespace domain.EntityKind) error
}

// AnswerGenerator is the text-generation collaborator: a stateless function
// from (template, context, question, history) to answer text. The core
// passes the returned text through unmodified.
type AnswerGenerator interface {
	Generate(ctx context.Context, template domain.TemplateID, contextText, question string, history []domain.ChatMessage) (string, error)
}

// QueryLogEntry records one answered query for the optional audit log.
type QueryLogEntry struct {
	ID        string
	Question  string
	Route     domain.Route
	Template  domain.TemplateID
	ChunkHits int
	AnswerLen int
	Duration  time.Duration
	CreatedAt time.Time
}

// QueryLogStore persists answered queries. Failures here must never affect
// the answer path: callers log and continue.
type QueryLogStore interface {
	Insert(ctx context.Context, entry QueryLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]QueryLogEntry, error)
}

// ReindexQueue decouples the reindex trigger from the indexer process.
type ReindexQueue interface {
	PublishReindexRequested(ctx context.Context, reason string) error
	SubscribeReindexRequested(ctx context.Context, handler func(context.Context, string) error) error
}
