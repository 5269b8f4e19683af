package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/infrastructure/resilience"
)

// Client talks to the Generative Language REST API. One client serves both
// generation and embeddings; the models differ per call.
type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	exec       *resilience.Executor

	temperature float64
	maxTokens   int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithExecutor(exec *resilience.Executor) Option {
	return func(c *Client) { c.exec = exec }
}

func New(apiKey, genModel, embedModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:     "https://generativelanguage.googleapis.com/v1beta",
		apiKey:      apiKey,
		genModel:    genModel,
		embedModel:  embedModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		temperature: 0.1,
		maxTokens:   1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

// Generate fills the template for the route and runs one generateContent
// call, with prior turns passed as alternating user/model contents.
func (c *Client) Generate(
	ctx context.Context,
	template domain.TemplateID,
	contextText, question string,
	history []domain.ChatMessage,
) (string, error) {
	prompt, err := buildPrompt(template, contextText, question)
	if err != nil {
		return "", domain.WrapError(domain.ErrMalformedInput, "gemini.generate", err)
	}

	contents := make([]content, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []contentPart{{Text: msg.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []contentPart{{Text: prompt}}})

	reqBody := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxTokens,
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []contentPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/models/%s:generateContent", c.genModel)
	if err := c.execute(ctx, "gemini.generate", func(ctx context.Context) error {
		return c.postJSON(ctx, path, reqBody, &response, "generate")
	}); err != nil {
		return "", wrapTemporaryIfNeeded("gemini.generate", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini generate: empty candidates")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// EmbedBatch embeds chunk texts with one batchEmbedContents call.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type embedRequest struct {
		Model   string  `json:"model"`
		Content content `json:"content"`
	}
	requests := make([]embedRequest, 0, len(texts))
	for _, text := range texts {
		requests = append(requests, embedRequest{
			Model:   "models/" + c.embedModel,
			Content: content{Parts: []contentPart{{Text: text}}},
		})
	}

	var response struct {
		Embeddings []struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	}

	path := fmt.Sprintf("/models/%s:batchEmbedContents", c.embedModel)
	if err := c.execute(ctx, "gemini.embed", func(ctx context.Context) error {
		return c.postJSON(ctx, path, map[string]any{"requests": requests}, &response, "embed")
	}); err != nil {
		return nil, wrapTemporaryIfNeeded("gemini.embed", err)
	}

	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: %d vectors for %d texts", len(response.Embeddings), len(texts))
	}
	out := make([][]float32, 0, len(response.Embeddings))
	for _, e := range response.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.exec == nil {
		return fn(ctx)
	}
	return c.exec.Execute(ctx, operation, fn, classifyGeminiError)
}
