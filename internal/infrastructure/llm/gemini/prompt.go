package gemini

import (
	"fmt"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// aggregationPrompt frames full-dataset statistics: the model must treat
// the context as complete and cite rankings from it.
const aggregationPrompt = `You are a financial data analyst. Answer the question using ONLY the aggregated statistics below computed from ALL funds in the dataset.

CRITICAL RULES:
1. Use ONLY the statistics in the CONTEXT below
2. The data already includes ALL funds - no missing funds
3. Cite specific numbers and rankings from context
4. Format currency values clearly with $ and commas
5. When comparing funds, show multiple funds, not just the top one

CONTEXT (Complete Fund Statistics):
%s

QUESTION: %s

ANSWER (with specific numbers from context):`

// retrievalPrompt frames semantic-search chunks and pins the exact
// fallback sentence for insufficient context.
const retrievalPrompt = `You are a financial data analyst. Answer the question using ONLY the provided context chunks from holdings and trades data.

CRITICAL RULES:
1. Use ONLY the data in the CONTEXT below
2. For counts: COUNT non-zero Qty rows per fund
3. If insufficient data: respond exactly "` + domain.NoEvidenceAnswer + `"
4. Cite specific numbers and fund names from context
5. Be precise with values from the data

CONTEXT (Retrieved Chunks):
%s

QUESTION: %s

ANSWER (with specific numbers from context):`

func buildPrompt(template domain.TemplateID, contextText, question string) (string, error) {
	switch template {
	case domain.TemplateAggregation:
		return fmt.Sprintf(aggregationPrompt, contextText, question), nil
	case domain.TemplateRetrieval:
		return fmt.Sprintf(retrievalPrompt, contextText, question), nil
	default:
		return "", fmt.Errorf("no prompt for template %q", template)
	}
}
