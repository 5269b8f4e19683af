package usecase

import (
	"testing"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

func TestClassifyAggregationQueries(t *testing.T) {
	queries := []string{
		"Which fund performed best based on yearly P&L?",
		"Which fund is doing better this year?",
		"Compare all funds",
		"Compare P&L of all funds",
		"Top 3 funds by performance",
		"Rank the funds by yearly P&L",
		"Show fund performance overview",
		"Which fund has the highest P/L?",
		"Which fund has the lowest P&L this year?",
		"Total across all funds",
		"Aggregate the funds by cash",
	}
	for _, q := range queries {
		if got := Classify(q); got != domain.RouteAggregation {
			t.Errorf("Classify(%q) = %v, want aggregation", q, got)
		}
	}
}

func TestClassifySpecificQueries(t *testing.T) {
	queries := []string{
		"How many holdings does MNC Investment Fund have?",
		"What is the total P&L for Garfield fund?",
		"Which funds hold MSFT equity?",
		"Total number of trades for HoldCo 1",
		"What is Apple's market capitalization?",
		"",
	}
	for _, q := range queries {
		if got := Classify(q); got != domain.RouteSpecific {
			t.Errorf("Classify(%q) = %v, want specific", q, got)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	q := "Compare P&L of Garfield vs Heather funds"
	first := Classify(q)
	for i := 0; i < 10; i++ {
		if got := Classify(q); got != first {
			t.Fatalf("Classify changed verdict on identical input")
		}
	}
}
