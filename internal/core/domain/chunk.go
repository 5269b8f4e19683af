package domain

// Chunk is a bounded text window over a contiguous run of records belonging
// to a single fund and entity kind. Chunks are produced once at ingestion
// time and never mutated afterwards; the ID is deterministic per namespace
// so that re-ingesting identical input replaces vectors in place.
type Chunk struct {
	ID            string
	Fund          string
	Kind          EntityKind
	HasPL         bool
	RowCount      int
	SecurityTypes []string
	Year          int
	Text          string
}

// Match is a query-time search hit: the chunk identity plus the similarity
// score reported by the vector index and a copy of the indexed metadata.
type Match struct {
	ChunkID string
	Score   float64
	Fund    string
	Kind    EntityKind
	Text    string
}
