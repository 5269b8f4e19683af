package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
	"github.com/ekomarov/fundchat/internal/infrastructure/resilience"
)

const (
	upsertBatchSize = 100
	metadataTextMax = 1000
)

// Client talks to one Pinecone index over its data-plane REST API.
// Namespaces partition the index by entity kind; the API key travels in
// the Api-Key header on every call.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	exec       *resilience.Executor
}

type Option func(*Client)

func WithExecutor(exec *resilience.Executor) Option {
	return func(c *Client) { c.exec = exec }
}

func New(indexHost, apiKey string, opts ...Option) *Client {
	if !strings.HasPrefix(indexHost, "http") {
		indexHost = "https://" + indexHost
	}
	c := &Client{
		baseURL:    strings.TrimRight(indexHost, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type upsertVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

// Upsert writes points in batches of 100. Point IDs come from the chunk,
// so re-running ingestion overwrites in place instead of duplicating.
func (c *Client) Upsert(ctx context.Context, namespace domain.EntityKind, points []ports.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	vectors := make([]upsertVector, 0, len(points))
	for _, p := range points {
		text := truncateMetadataText(p.Chunk.Text)
		vectors = append(vectors, upsertVector{
			ID:     p.Chunk.ID,
			Values: p.Vector,
			Metadata: map[string]any{
				"fund":           p.Chunk.Fund,
				"type":           string(p.Chunk.Kind),
				"has_pl":         p.Chunk.HasPL,
				"row_count":      p.Chunk.RowCount,
				"security_types": p.Chunk.SecurityTypes,
				"year":           p.Chunk.Year,
				"text":           text,
			},
		})
	}

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		body := map[string]any{
			"vectors":   vectors[start:end],
			"namespace": string(namespace),
		}
		err := c.execute(ctx, "pinecone.upsert", func(callCtx context.Context) error {
			return c.post(callCtx, "/vectors/upsert", body, nil, "upsert")
		})
		if err != nil {
			return wrapTemporaryIfNeeded("pinecone.upsert",
				fmt.Errorf("pinecone upsert batch %d: %w", start/upsertBatchSize, err))
		}
	}
	return nil
}

// Query runs nearest-neighbor search in one namespace. With requirePL the
// server filters to chunks that carry nonzero P&L rows.
func (c *Client) Query(
	ctx context.Context,
	namespace domain.EntityKind,
	vector []float32,
	topK int,
	requirePL bool,
) ([]domain.Match, error) {
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"namespace":       string(namespace),
		"includeMetadata": true,
	}
	if requirePL {
		body["filter"] = map[string]any{
			"has_pl": map[string]any{"$eq": true},
		}
	}

	var queryResp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	err := c.execute(ctx, "pinecone.query", func(callCtx context.Context) error {
		return c.post(callCtx, "/query", body, &queryResp, "query")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("pinecone.query", fmt.Errorf("pinecone query: %w", err))
	}

	out := make([]domain.Match, 0, len(queryResp.Matches))
	for _, m := range queryResp.Matches {
		out = append(out, domain.Match{
			ChunkID: m.ID,
			Score:   m.Score,
			Fund:    metaString(m.Metadata, "fund"),
			Kind:    domain.EntityKind(metaString(m.Metadata, "type")),
			Text:    metaString(m.Metadata, "text"),
		})
	}
	return out, nil
}

// DeleteNamespace drops every vector in the namespace so a reindex starts
// from a clean slate.
func (c *Client) DeleteNamespace(ctx context.Context, namespace domain.EntityKind) error {
	body := map[string]any{
		"deleteAll": true,
		"namespace": string(namespace),
	}
	err := c.execute(ctx, "pinecone.delete", func(callCtx context.Context) error {
		return c.post(callCtx, "/vectors/delete", body, nil, "delete")
	})
	if err != nil {
		return wrapTemporaryIfNeeded("pinecone.delete",
			fmt.Errorf("pinecone delete namespace %s: %w", namespace, err))
	}
	return nil
}

// Stats reports per-namespace vector counts, used by the indexer to verify
// an ingestion run.
func (c *Client) Stats(ctx context.Context) (map[string]int, error) {
	var statsResp struct {
		Namespaces map[string]struct {
			VectorCount int `json:"vectorCount"`
		} `json:"namespaces"`
	}
	err := c.execute(ctx, "pinecone.stats", func(callCtx context.Context) error {
		return c.post(callCtx, "/describe_index_stats", map[string]any{}, &statsResp, "stats")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("pinecone.stats", fmt.Errorf("pinecone stats: %w", err))
	}
	out := make(map[string]int, len(statsResp.Namespaces))
	for ns, s := range statsResp.Namespaces {
		out[ns] = s.VectorCount
	}
	return out, nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.exec == nil {
		return fn(ctx)
	}
	return c.exec.Execute(ctx, operation, fn, classifyPineconeError)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncateMetadataText cuts chunk text to the metadata cap without
// splitting a multi-byte rune.
func truncateMetadataText(text string) string {
	if len(text) <= metadataTextMax {
		return text
	}
	cut := metadataTextMax
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func metaString(metadata map[string]any, key string) string {
	v, ok := metadata[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
