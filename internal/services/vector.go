package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gorm.io/datatypes"

	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/repos"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

const defaultTopK = 10

type VectorItem struct {
	ItemID    string         `json:"item_id"`
	Text      string         `json:"text"`
	Embedding []float64      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type SearchResult struct {
	ItemID     string         `json:"item_id"`
	Text       string         `json:"text"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// VectorService maintains named collections of embeddings and serves cosine
// top-k retrieval over them. Similarity is computed in-process against every
// record in the collection; collections here are moderate, not web-scale.
type VectorService struct {
	embeddings repos.EmbeddingRepo
	log        *logger.Logger
}

func NewVectorService(embeddings repos.EmbeddingRepo, baseLog *logger.Logger) *VectorService {
	return &VectorService{embeddings: embeddings, log: baseLog.With("service", "VectorService")}
}

// InsertMany writes a batch into a collection. Duplicate
// (collection_name, item_id) pairs upsert; see EmbeddingRepo.UpsertMany.
func (s *VectorService) InsertMany(ctx context.Context, collectionName string, items []VectorItem) (int, error) {
	const op = "add_embeddings"
	if strings.TrimSpace(collectionName) == "" {
		return 0, storeerr.Validation(op, "collection_name is required")
	}
	if len(items) == 0 {
		return 0, storeerr.Validation(op, "items must not be empty")
	}

	recs := make([]*types.EmbeddingRecord, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.ItemID) == "" {
			return 0, storeerr.Validation(op, fmt.Sprintf("item %d is missing item_id", i))
		}
		if len(item.Embedding) == 0 {
			return 0, storeerr.Validation(op, fmt.Sprintf("item %q has an empty embedding", item.ItemID))
		}
		embeddingJSON, err := json.Marshal(item.Embedding)
		if err != nil {
			return 0, storeerr.Validation(op, fmt.Sprintf("item %q embedding not serializable: %v", item.ItemID, err))
		}
		rec := &types.EmbeddingRecord{
			CollectionName: collectionName,
			ItemID:         item.ItemID,
			Text:           item.Text,
			Embedding:      datatypes.JSON(embeddingJSON),
			Position:       i,
		}
		if len(item.Metadata) > 0 {
			metaJSON, err := json.Marshal(item.Metadata)
			if err != nil {
				return 0, storeerr.Validation(op, fmt.Sprintf("item %q metadata not serializable: %v", item.ItemID, err))
			}
			rec.Metadata = datatypes.JSON(metaJSON)
		}
		recs = append(recs, rec)
	}

	count, err := s.embeddings.UpsertMany(ctx, nil, recs)
	if err != nil {
		return 0, err
	}
	s.log.Info("Embeddings inserted", "collection", collectionName, "count", count)
	return count, nil
}

// SearchSimilar ranks the whole collection by cosine similarity to the query,
// descending, and truncates to topK. Equal scores keep insertion order so
// results are deterministic.
func (s *VectorService) SearchSimilar(ctx context.Context, collectionName string, query []float64, topK int) ([]SearchResult, error) {
	const op = "search_similar"
	if strings.TrimSpace(collectionName) == "" {
		return nil, storeerr.Validation(op, "collection_name is required")
	}
	if len(query) == 0 {
		return nil, storeerr.Validation(op, "query embedding is required")
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	recs, err := s.embeddings.ListCollection(ctx, nil, collectionName)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(recs))
	for _, rec := range recs {
		var embedding []float64
		if err := json.Unmarshal(rec.Embedding, &embedding); err != nil {
			s.log.Warn("stored embedding not parseable",
				"collection", collectionName, "item_id", rec.ItemID, "error", err)
			continue
		}
		result := SearchResult{
			ItemID:     rec.ItemID,
			Text:       rec.Text,
			Similarity: cosineSimilarity(query, embedding),
		}
		if len(rec.Metadata) > 0 {
			if err := json.Unmarshal(rec.Metadata, &result.Metadata); err != nil {
				s.log.Warn("stored metadata not parseable",
					"collection", collectionName, "item_id", rec.ItemID, "error", err)
			}
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// cosineSimilarity is dot(a,b)/(||a||*||b||). A zero vector on either side
// makes the quotient undefined; that case is defined as 0 to keep the
// operation total.
func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	dot, normA, normB := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
