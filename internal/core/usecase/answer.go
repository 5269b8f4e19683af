package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
)

const defaultAnswerTimeout = 60 * time.Second

// AnswerUseCase is the single entry point for a question: classify the
// route, build the context on that route, and hand it to the generator.
// Every per-query failure is converted to a typed error here; nothing
// reaches the transport layer unclassified.
type AnswerUseCase struct {
	engine    *AggregationEngine
	retriever *Retriever
	generator ports.AnswerGenerator
	queryLog  ports.QueryLogStore
	logger    *slog.Logger
	timeout   time.Duration
}

func NewAnswerUseCase(
	engine *AggregationEngine,
	retriever *Retriever,
	generator ports.AnswerGenerator,
	queryLog ports.QueryLogStore,
	logger *slog.Logger,
	timeout time.Duration,
) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultAnswerTimeout
	}
	return &AnswerUseCase{
		engine:    engine,
		retriever: retriever,
		generator: generator,
		queryLog:  queryLog,
		logger:    logger,
		timeout:   timeout,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, question string, history []domain.ChatMessage) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrMalformedInput, "answer", fmt.Errorf("empty question"))
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	started := time.Now()
	route := Classify(question)

	var (
		answer *domain.Answer
		err    error
	)
	switch route {
	case domain.RouteAggregation:
		answer, err = uc.answerAggregation(ctx, question, history)
	default:
		answer, err = uc.answerSpecific(ctx, question, history)
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Info("query_answered",
		"route", answer.Route,
		"template", answer.Template,
		"chunk_hits", answer.ChunkHits,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	uc.recordQuery(ctx, question, answer, time.Since(started))
	return answer, nil
}

func (uc *AnswerUseCase) answerAggregation(ctx context.Context, question string, history []domain.ChatMessage) (*domain.Answer, error) {
	metric, statistic := InferMetric(question)

	result, err := uc.engine.Aggregate(metric, statistic)
	if domain.IsKind(err, domain.ErrUnknownMetric) {
		uc.logger.Warn("metric_fallback", "requested", metric, "fallback", domain.DefaultMetric, "error", err)
		result, err = uc.engine.Aggregate(domain.DefaultMetric, domain.StatSum)
	}
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	payload := AssembleAggregationContext(result)
	if strings.Contains(strings.ToLower(question), "total") && strings.Contains(strings.ToLower(question), "cash") && result.Metric != domain.MetricTotalCash {
		payload = uc.appendTotalCash(payload, result)
	}

	text, err := uc.generator.Generate(ctx, payload.Template, payload.Text, question, history)
	if err != nil {
		return nil, fmt.Errorf("generate aggregation answer: %w", err)
	}

	return &domain.Answer{
		Text:     text,
		Route:    domain.RouteAggregation,
		Template: payload.Template,
	}, nil
}

// appendTotalCash adds the cash ranking beneath the primary table when the
// question asks for it alongside performance.
func (uc *AnswerUseCase) appendTotalCash(payload domain.ContextPayload, primary *domain.AggregationResult) domain.ContextPayload {
	cash, err := uc.engine.Aggregate(domain.MetricTotalCash, domain.StatSum)
	if err != nil {
		uc.logger.Warn("total_cash_section_skipped", "error", err)
		return payload
	}
	section := AssembleAggregationContext(cash)
	payload.Text = payload.Text + "\n\n" + section.Text
	if len(payload.Text) > maxContextChars {
		payload.Text = cutAtRuneBoundary(payload.Text, maxContextChars)
	}
	return payload
}

func (uc *AnswerUseCase) answerSpecific(ctx context.Context, question string, history []domain.ChatMessage) (*domain.Answer, error) {
	matches, err := uc.retriever.Retrieve(ctx, question)
	if domain.IsKind(err, domain.ErrInsufficientEvidence) {
		// Fail closed: the fixed sentence, never a guess from thin
		// evidence, and no generator call at all.
		uc.logger.Info("insufficient_evidence", "question_len", len(question))
		return &domain.Answer{
			Text:     domain.NoEvidenceAnswer,
			Route:    domain.RouteSpecific,
			Template: domain.TemplateInsufficientEvidence,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	payload := AssembleRetrievalContext(matches)
	text, err := uc.generator.Generate(ctx, payload.Template, payload.Text, question, history)
	if err != nil {
		return nil, fmt.Errorf("generate retrieval answer: %w", err)
	}

	return &domain.Answer{
		Text:      text,
		Route:     domain.RouteSpecific,
		Template:  payload.Template,
		ChunkHits: len(matches),
	}, nil
}

// recordQuery writes the audit entry when a log store is wired. Failures
// are logged and swallowed: auditing must never affect the answer path.
func (uc *AnswerUseCase) recordQuery(ctx context.Context, question string, answer *domain.Answer, duration time.Duration) {
	if uc.queryLog == nil {
		return
	}
	entry := ports.QueryLogEntry{
		ID:        uuid.NewString(),
		Question:  question,
		Route:     answer.Route,
		Template:  answer.Template,
		ChunkHits: answer.ChunkHits,
		AnswerLen: len(answer.Text),
		Duration:  duration,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.queryLog.Insert(context.WithoutCancel(ctx), entry); err != nil {
		uc.logger.Warn("query_log_insert_failed", "error", err)
	}
}
