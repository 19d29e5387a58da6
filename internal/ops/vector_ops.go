package ops

import (
	"context"
	"encoding/json"

	"github.com/modelvault/modelvault/internal/services"
)

type addEmbeddingsArgs struct {
	CollectionName string                `json:"collection_name"`
	Items          []services.VectorItem `json:"items"`
}

type addEmbeddingsResult struct {
	CollectionName string `json:"collection_name"`
	InsertedCount  int    `json:"inserted_count"`
}

func (d *Dispatcher) addEmbeddings(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "add_embeddings"
	var args addEmbeddingsArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	count, err := d.vectors.InsertMany(ctx, args.CollectionName, args.Items)
	if err != nil {
		return nil, err
	}
	return addEmbeddingsResult{CollectionName: args.CollectionName, InsertedCount: count}, nil
}

type searchSimilarArgs struct {
	CollectionName string    `json:"collection_name"`
	QueryEmbedding []float64 `json:"query_embedding"`
	TopK           int       `json:"top_k"`
}

type searchSimilarResult struct {
	CollectionName string                  `json:"collection_name"`
	Results        []services.SearchResult `json:"results"`
}

func (d *Dispatcher) searchSimilar(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "search_similar"
	var args searchSimilarArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	results, err := d.vectors.SearchSimilar(ctx, args.CollectionName, args.QueryEmbedding, args.TopK)
	if err != nil {
		return nil, err
	}
	return searchSimilarResult{CollectionName: args.CollectionName, Results: results}, nil
}
