package model

import "time"

// Chunk is one "##"-delimited section of one markdown file (or the whole
// file, if it has no level-2 headings). Its id is "<file_path>#<header>".
type Chunk struct {
	ID         string    `json:"id"`
	FilePath   string    `json:"file_path"`
	Header     string    `json:"header"`
	Content    string    `json:"content"`
	FolderPath string    `json:"folder_path"`
	Frontmatter Metadata `json:"frontmatter,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	ChunkOrder int       `json:"chunk_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Populated by search operations only; never persisted.
	BM25Score  *float64 `json:"bm25_score,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`

	// Links/tags/etc extracted alongside the chunk, used by upsert and by
	// callers inspecting a freshly parsed chunk before it hits the store.
	Links          []string           `json:"links,omitempty"`
	Tags           []string           `json:"tags,omitempty"`
	Transclusions  []Transclusion     `json:"transclusions,omitempty"`
	Attributes     []Attribute        `json:"attributes,omitempty"`
	DataBlocks     []DataBlock        `json:"data_blocks,omitempty"`
}

// Transclusion is one "![[target]]" or "![[target#header]]" reference
// extracted from a chunk's raw content, prior to expansion.
type Transclusion struct {
	Target string `json:"target"`
	Header string `json:"header"`
}

// WithoutEmbedding returns a shallow copy of c with Embedding stripped, used
// before chunks are serialized back over any RPC/tool surface (§4.4 step 7).
func (c Chunk) WithoutEmbedding() Chunk {
	c.Embedding = nil
	return c
}
