package ports

import (
	"context"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// QueryAnswerer is the single operation the UI/CLI collaborator calls:
// one question in, one answer text out, chat history as read-only context.
type QueryAnswerer interface {
	Answer(ctx context.Context, question string, history []domain.ChatMessage) (*domain.Answer, error)
}

// Reindexer rebuilds the vector index from the current source files.
// Ingestion is an offline, exclusive operation; it must not run while the
// same process is serving queries.
type Reindexer interface {
	Reindex(ctx context.Context) error
}
