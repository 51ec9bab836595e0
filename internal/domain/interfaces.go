package domain

import "context"

// Document represents a single input file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a passage cut from a plain-text document.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// Record is one corpus entry: the text shown to the user and its embedding.
// ID is the dense, zero-based item id assigned in ingestion order.
type Record struct {
	ID     int
	Text   string
	Vector []float32
}

// SearchResult represents a matching record with its distance to the query.
// Lower distances are better.
type SearchResult struct {
	ID       int
	Text     string
	Distance float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Ingestor produces the corpus texts, in a stable order, from input paths.
type Ingestor interface {
	Ingest(paths []string) ([]string, error)
}

// SnapshotStore persists records so the corpus can be reloaded without
// recomputing embeddings.
type SnapshotStore interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
	Close() error
}

// SearchService defines the operations exposed by the application core.
type SearchService interface {
	Open(ctx context.Context, inputs []string, rebuild bool) (summary string, err error)
	Query(ctx context.Context, query string, topK int) ([]SearchResult, error)
}
