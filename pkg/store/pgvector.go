package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"reglex/internal/models"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	CacheTable string
	VectorDim  int
}

// VectorStore is the pgvector-backed chunk index. One row per chunk,
// nearest-neighbor over the embedding column, equality filters on
// region and jurisdiction.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.CacheTable == "" {
		config.CacheTable = "embedding_cache"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{config: config, pool: pool}
	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	return vs, nil
}

func (vs *VectorStore) initialize() error {
	ctx := context.Background()

	if _, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			source_document_id TEXT NOT NULL,
			chunk_number INTEGER NOT NULL,
			content_hash TEXT NOT NULL,
			jurisdiction TEXT NOT NULL,
			region TEXT NOT NULL,
			document_position DOUBLE PRECISION,
			section_id TEXT,
			section_title TEXT,
			parent_section TEXT,
			subsection_level INTEGER,
			content_type TEXT,
			has_table BOOLEAN,
			has_list BOOLEAN,
			has_definition BOOLEAN,
			has_citation BOOLEAN,
			definitions TEXT[],
			citations TEXT[],
			cross_references TEXT[],
			legal_entities TEXT[],
			key_phrases TEXT[],
			semantic_density DOUBLE PRECISION,
			coherence_score DOUBLE PRECISION,
			prev_overlap_text TEXT,
			next_preview_text TEXT,
			content TEXT NOT NULL,
			word_count INTEGER,
			char_count INTEGER,
			sentence_count INTEGER,
			embedding vector(%d),
			PRIMARY KEY (source_document_id, chunk_number)
		)`, vs.config.TableName, vs.config.VectorDim)
	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create chunk table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	createFilterIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_region_idx
		ON %s (region, jurisdiction)`,
		vs.config.TableName, vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, createFilterIndex); err != nil {
		return fmt.Errorf("failed to create filter index: %w", err)
	}

	createCache := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			content_hash TEXT NOT NULL,
			model_version TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			PRIMARY KEY (content_hash, model_version)
		)`, vs.config.CacheTable, vs.config.VectorDim)
	if _, err := vs.pool.Exec(ctx, createCache); err != nil {
		return fmt.Errorf("failed to create embedding cache table: %w", err)
	}

	return nil
}

// ReplaceDocument swaps a document's chunks in one transaction: prior
// rows are deleted, the new set inserted. Re-ingestion is full document
// reprocessing, never a partial patch.
func (vs *VectorStore) ReplaceDocument(ctx context.Context, documentID string, chunks []models.Chunk) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	del := fmt.Sprintf("DELETE FROM %s WHERE source_document_id = $1", vs.config.TableName)
	if _, err := tx.Exec(ctx, del, documentID); err != nil {
		return fmt.Errorf("failed to delete prior chunks for %s: %w", documentID, err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (
			source_document_id, chunk_number, content_hash, jurisdiction, region,
			document_position, section_id, section_title, parent_section, subsection_level,
			content_type, has_table, has_list, has_definition, has_citation,
			definitions, citations, cross_references, legal_entities, key_phrases,
			semantic_density, coherence_score, prev_overlap_text, next_preview_text,
			content, word_count, char_count, sentence_count, embedding
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		)`, vs.config.TableName)

	for _, c := range chunks {
		_, err := tx.Exec(ctx, stmt,
			documentID,
			c.ChunkNumber,
			c.ContentHash,
			c.Jurisdiction,
			c.Region,
			c.DocumentPosition,
			c.SectionID,
			c.SectionTitle,
			c.ParentSection,
			c.SubsectionLevel,
			string(c.ContentType),
			c.HasTable,
			c.HasList,
			c.HasDefinition,
			c.HasCitation,
			c.Definitions,
			c.Citations,
			c.CrossReferences,
			c.LegalEntities,
			c.KeyPhrases,
			c.SemanticDensity,
			c.CoherenceScore,
			c.PrevOverlapText,
			c.NextPreviewText,
			sanitizeUTF8(c.Content),
			c.WordCount,
			c.CharCount,
			c.SentenceCount,
			pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d of %s: %w", c.ChunkNumber, documentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunk replacement for %s: %w", documentID, err)
	}
	return nil
}

func (vs *VectorStore) Search(ctx context.Context, vector []float32, region, jurisdiction string, topK int, minRelevance float64) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	query := fmt.Sprintf(`
		SELECT content, jurisdiction, source_document_id, chunk_number,
		       1 - (embedding <=> $1) AS relevance_score
		FROM %s
		WHERE region = $2
		  AND ($3 = '' OR jurisdiction = $3)
		  AND 1 - (embedding <=> $1) >= $4
		ORDER BY relevance_score DESC, chunk_number ASC
		LIMIT $5`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(vector), region, jurisdiction, minRelevance, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.Content, &r.Jurisdiction, &r.SourceDocumentID, &r.ChunkNumber, &r.RelevanceScore); err != nil {
			return nil, fmt.Errorf("failed to scan search row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (vs *VectorStore) ListJurisdictions(ctx context.Context, region string) ([]models.JurisdictionCount, error) {
	query := fmt.Sprintf(`
		SELECT jurisdiction, COUNT(*) AS chunk_count
		FROM %s
		WHERE region = $1
		GROUP BY jurisdiction
		ORDER BY chunk_count DESC, jurisdiction ASC`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, region)
	if err != nil {
		return nil, fmt.Errorf("failed to list jurisdictions: %w", err)
	}
	defer rows.Close()

	var counts []models.JurisdictionCount
	for rows.Next() {
		var jc models.JurisdictionCount
		if err := rows.Scan(&jc.Jurisdiction, &jc.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan jurisdiction row: %w", err)
		}
		counts = append(counts, jc)
	}
	return counts, rows.Err()
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
