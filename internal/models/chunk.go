package models

// ContentType classifies what a chunk's text mostly is. The boolean
// Has* flags on Chunk are independent signals; ContentType is assigned
// by priority: definition > citation > mixed > table > list > text.
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentTable      ContentType = "table"
	ContentList       ContentType = "list"
	ContentDefinition ContentType = "definition"
	ContentCitation   ContentType = "citation"
	ContentMixed      ContentType = "mixed"
)

// Chunk is the unit of retrieval: one bounded span of a source document
// with its extracted metadata and embedding vector.
type Chunk struct {
	ChunkNumber int    `json:"chunk_number"`
	ContentHash string `json:"content_hash"`

	SourceDocumentID string  `json:"source_document_id"`
	Jurisdiction     string  `json:"jurisdiction"`
	Region           string  `json:"region"`
	DocumentPosition float64 `json:"document_position"`

	SectionID       string `json:"section_id"`
	SectionTitle    string `json:"section_title"`
	ParentSection   string `json:"parent_section"`
	SubsectionLevel int    `json:"subsection_level"`

	ContentType   ContentType `json:"content_type"`
	HasTable      bool        `json:"has_table"`
	HasList       bool        `json:"has_list"`
	HasDefinition bool        `json:"has_definition"`
	HasCitation   bool        `json:"has_citation"`

	Definitions     []string `json:"definitions"`
	Citations       []string `json:"citations"`
	CrossReferences []string `json:"cross_references"`
	LegalEntities   []string `json:"legal_entities"`
	KeyPhrases      []string `json:"key_phrases"`

	SemanticDensity float64 `json:"semantic_density"`
	CoherenceScore  float64 `json:"coherence_score"`

	// Overlap context for downstream consumers only. Not part of the
	// chunk's authoritative text; excluded when reconstructing a document.
	PrevOverlapText string `json:"prev_overlap_text"`
	NextPreviewText string `json:"next_preview_text"`

	Content       string `json:"content"`
	WordCount     int    `json:"word_count"`
	CharCount     int    `json:"char_count"`
	SentenceCount int    `json:"sentence_count"`

	Embedding []float32 `json:"-"`
}

// SearchRequest is one retrieval query against the persisted index.
// Region is required; Jurisdiction narrows further when non-empty.
type SearchRequest struct {
	Query        string  `json:"query"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	Region       string  `json:"region"`
	TopK         int     `json:"top_k"`
	MinRelevance float64 `json:"min_relevance"`
}

// SearchResult is one ranked hit. RelevanceScore is 1 minus cosine
// distance between the query vector and the chunk vector.
type SearchResult struct {
	Content          string  `json:"content"`
	Jurisdiction     string  `json:"jurisdiction"`
	SourceDocumentID string  `json:"source_document_id"`
	ChunkNumber      int     `json:"chunk_number"`
	RelevanceScore   float64 `json:"relevance_score"`
}

// JurisdictionCount is one row of the jurisdiction aggregate view.
type JurisdictionCount struct {
	Jurisdiction string `json:"jurisdiction"`
	ChunkCount   int    `json:"chunk_count"`
}
