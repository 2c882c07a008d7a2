package retrieval

import (
	"context"
	"errors"
	"fmt"

	"reglex/internal/models"
	"reglex/internal/types"
)

// ErrRegionRequired is returned when a search request omits the region
// filter. Region is mandatory; jurisdiction is optional.
var ErrRegionRequired = errors.New("search requires a region")

const defaultTopK = 5

// Service answers similarity queries over the persisted chunk index.
// Queries are read-only and safe under unbounded concurrency.
type Service struct {
	encoder types.Embedder
	index   types.VectorIndex
}

func New(encoder types.Embedder, index types.VectorIndex) *Service {
	return &Service{encoder: encoder, index: index}
}

// Search embeds the query with query framing and returns up to TopK
// chunks ranked strictly by descending relevance, chunk number breaking
// ties. An empty result set is a valid answer, not an error.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) ([]models.SearchResult, error) {
	if req.Region == "" {
		return nil, ErrRegionRequired
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}

	vector, err := s.encoder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("search: query embedding: %w", err)
	}

	results, err := s.index.Search(ctx, vector, req.Region, req.Jurisdiction, req.TopK, req.MinRelevance)
	if err != nil {
		return nil, fmt.Errorf("search: index query: %w", err)
	}
	return results, nil
}

// ListJurisdictions reports chunk counts per jurisdiction in a region,
// most populated first.
func (s *Service) ListJurisdictions(ctx context.Context, region string) ([]models.JurisdictionCount, error) {
	if region == "" {
		return nil, ErrRegionRequired
	}
	counts, err := s.index.ListJurisdictions(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("list jurisdictions: %w", err)
	}
	return counts, nil
}
