package domain

// Route is the classifier's verdict for a query.
type Route string

const (
	RouteAggregation Route = "aggregation"
	RouteSpecific    Route = "specific"
)

// TemplateID selects the instruction template handed to the generator.
type TemplateID string

const (
	TemplateAggregation          TemplateID = "aggregation"
	TemplateRetrieval            TemplateID = "retrieval"
	TemplateInsufficientEvidence TemplateID = "insufficient_evidence"
)

// NoEvidenceAnswer is the fixed response returned whenever retrieval fails
// the relevance gate. It is the anti-hallucination guarantee: the system
// answers this, verbatim, instead of guessing from thin evidence.
const NoEvidenceAnswer = "Sorry, I cannot find the answer in the provided data"

// ContextPayload is the bounded text block plus template selection handed
// to the text-generation collaborator.
type ContextPayload struct {
	Template TemplateID
	Text     string
}

// ChatMessage is one turn of read-only conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the orchestrator's result for a single query.
type Answer struct {
	Text      string     `json:"answer"`
	Route     Route      `json:"query_type"`
	Template  TemplateID `json:"template"`
	ChunkHits int        `json:"chunk_hits,omitempty"`
}
