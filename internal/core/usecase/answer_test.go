package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

func newAnswerFixture(index *fakeIndex) (*AnswerUseCase, *fakeGenerator, *fakeQueryLog) {
	generator := &fakeGenerator{}
	queryLog := &fakeQueryLog{}
	uc := NewAnswerUseCase(
		NewAggregationEngine(rankingStore()),
		NewRetriever(&fakeEmbedder{}, index),
		generator,
		queryLog,
		nil,
		0,
	)
	return uc, generator, queryLog
}

func TestAnswerAggregationRoute(t *testing.T) {
	uc, generator, queryLog := newAnswerFixture(&fakeIndex{})

	answer, err := uc.Answer(context.Background(), "Which fund performed best by yearly P&L?", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Route != domain.RouteAggregation || answer.Template != domain.TemplateAggregation {
		t.Fatalf("answer = %+v", answer)
	}
	if generator.calls != 1 {
		t.Fatalf("generator calls = %d", generator.calls)
	}

	// The generator context must rank every fund, best first.
	for _, want := range []string{"1. Ytum", "2. MNC", "3. Garfield", "4. Heather", "5. HoldCo 1"} {
		if !strings.Contains(generator.context, want) {
			t.Errorf("context missing %q:\n%s", want, generator.context)
		}
	}
	if len(queryLog.entries) != 1 || queryLog.entries[0].Route != domain.RouteAggregation {
		t.Fatalf("query log = %+v", queryLog.entries)
	}
}

func TestAnswerSpecificRoute(t *testing.T) {
	index := &fakeIndex{matches: []domain.Match{
		match("holdings_0", "Garfield Fund", 0.9),
		match("holdings_1", "Heather Fund", 0.7),
		match("holdings_2", "MNC Fund", 0.5),
	}}
	uc, generator, _ := newAnswerFixture(index)

	history := []domain.ChatMessage{{Role: "user", Content: "earlier question"}}
	answer, err := uc.Answer(context.Background(), "Which funds hold MSFT equity?", history)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Route != domain.RouteSpecific || answer.Template != domain.TemplateRetrieval {
		t.Fatalf("answer = %+v", answer)
	}
	if answer.ChunkHits != 3 {
		t.Fatalf("chunk hits = %d", answer.ChunkHits)
	}
	if generator.template != domain.TemplateRetrieval {
		t.Fatalf("generator template = %s", generator.template)
	}
	if len(generator.history) != 1 {
		t.Fatalf("history not forwarded")
	}
}

func TestAnswerInsufficientEvidenceSkipsGenerator(t *testing.T) {
	index := &fakeIndex{matches: []domain.Match{
		match("holdings_0", "Garfield Fund", 0.21),
	}}
	uc, generator, queryLog := newAnswerFixture(index)

	answer, err := uc.Answer(context.Background(), "What is Apple's market capitalization?", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Text != domain.NoEvidenceAnswer {
		t.Fatalf("answer = %q, want the fixed no-evidence sentence", answer.Text)
	}
	if answer.Template != domain.TemplateInsufficientEvidence {
		t.Fatalf("template = %s", answer.Template)
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not be called on insufficient evidence, calls = %d", generator.calls)
	}
	if len(queryLog.entries) != 1 {
		t.Fatalf("fail-closed answers still get logged")
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	uc, _, _ := newAnswerFixture(&fakeIndex{})
	_, err := uc.Answer(context.Background(), "   ", nil)
	if !domain.IsKind(err, domain.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}

func TestAnswerPropagatesGeneratorFailure(t *testing.T) {
	uc, generator, queryLog := newAnswerFixture(&fakeIndex{})
	generator.err = domain.WrapError(domain.ErrTemporary, "gemini.generate", errors.New("503"))

	_, err := uc.Answer(context.Background(), "Which fund performed best by yearly P&L?", nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if len(queryLog.entries) != 0 {
		t.Fatalf("failed queries must not be logged as answered")
	}
}

func TestAnswerQueryLogFailureDoesNotAffectAnswer(t *testing.T) {
	uc, _, queryLog := newAnswerFixture(&fakeIndex{})
	queryLog.err = errors.New("postgres down")

	answer, err := uc.Answer(context.Background(), "Which fund performed best by yearly P&L?", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Text == "" {
		t.Fatalf("empty answer")
	}
}

func TestAnswerWithoutQueryLog(t *testing.T) {
	generator := &fakeGenerator{}
	uc := NewAnswerUseCase(
		NewAggregationEngine(rankingStore()),
		NewRetriever(&fakeEmbedder{}, &fakeIndex{}),
		generator,
		nil,
		nil,
		0,
	)
	if _, err := uc.Answer(context.Background(), "Compare all funds", nil); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
}

func TestAnswerAggregationFallsBackToDefaultMetric(t *testing.T) {
	// Simulate a routing rule naming a metric the dataset does not carry:
	// the orchestrator must recover with the default ranking instead of
	// failing the query.
	orig := metricRules
	metricRules = append([]metricRule{
		{regexp.MustCompile(`market value`), domain.Metric("mv_base"), domain.StatSum},
	}, orig...)
	defer func() { metricRules = orig }()

	uc, generator, _ := newAnswerFixture(&fakeIndex{})

	answer, err := uc.Answer(context.Background(), "Rank all funds by market value", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer.Route != domain.RouteAggregation {
		t.Fatalf("route = %v", answer.Route)
	}
	if !strings.Contains(generator.context, "Yearly P&L") {
		t.Fatalf("expected fallback to the yearly ranking, context:\n%s", generator.context)
	}
	for _, want := range []string{"1. Ytum", "5. HoldCo 1"} {
		if !strings.Contains(generator.context, want) {
			t.Errorf("fallback context missing %q", want)
		}
	}
}
