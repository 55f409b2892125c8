package store

// Metadata describes where an indexed chunk came from.
type Metadata struct {
	Source     string `json:"source"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	ChunkIndex int    `json:"chunk_index"`
}

// Record is one embedded chunk. Records are immutable once inserted.
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata Metadata
}

// Hit is a record returned by a similarity search.
type Hit struct {
	ID         string
	Text       string
	Metadata   Metadata
	Similarity float64
}
