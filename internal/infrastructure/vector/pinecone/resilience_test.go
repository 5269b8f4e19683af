package pinecone

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/infrastructure/resilience"
)

func TestQueryWrapsServerErrorAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "k")
	_, err := client.Query(context.Background(), domain.KindHoldings, []float32{0.1}, 10, false)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("transient index outage must be tagged temporary, got %v", err)
	}
}

func TestQueryClientErrorIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "malformed filter", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "k")
	_, err := client.Query(context.Background(), domain.KindHoldings, []float32{0.1}, 10, false)
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("client error must not be tagged temporary, got %v", err)
	}
}

func TestUpsertWrapsServerErrorAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "k")
	err := client.Upsert(context.Background(), domain.KindHoldings, testPoints(1))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("transient upsert failure must be tagged temporary, got %v", err)
	}
}

func TestQueryDeadlineIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := New(server.URL, "k")
	_, err := client.Query(ctx, domain.KindHoldings, []float32{0.1}, 10, false)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("deadline-exceeded search must be tagged temporary, got %v", err)
	}
}

func TestQueryRetriesThroughExecutor(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "hiccup", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1.0,
	}, nil)

	client := New(server.URL, "k", WithExecutor(exec))
	matches, err := client.Query(context.Background(), domain.KindHoldings, []float32{0.1}, 10, false)
	if err != nil {
		t.Fatalf("expected retried query to succeed, got %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty match set, got %d", len(matches))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls through the executor, got %d", calls.Load())
	}
}

func TestTruncateMetadataTextKeepsRunesWhole(t *testing.T) {
	var b []byte
	for len(b) < metadataTextMax-1 {
		b = append(b, 'a')
	}
	text := string(b) + "日本語"

	out := truncateMetadataText(text)
	if len(out) > metadataTextMax {
		t.Fatalf("truncated text length = %d, want <= %d", len(out), metadataTextMax)
	}
	for _, r := range out {
		if r == '�' {
			t.Fatalf("truncation split a multi-byte rune")
		}
	}
}
