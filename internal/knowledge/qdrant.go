package knowledge

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// QdrantStore talks to a Qdrant instance over its HTTP API. Collections are
// created lazily on first upsert with cosine distance, matching the vector
// configuration the legal knowledge base expects.
type QdrantStore struct {
	client *resty.Client

	mu      sync.Mutex
	created map[string]bool
}

func NewQdrantStore(url, apiKey string) *QdrantStore {
	client := resty.New().SetBaseURL(url)
	if apiKey != "" {
		client.SetHeader("api-key", apiKey)
	}
	return &QdrantStore{client: client, created: make(map[string]bool)}
}

type qdrantStatus struct {
	Status any `json:"status"`
}

func (s *QdrantStore) ensureCollection(ctx context.Context, collection string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[collection] {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Put(fmt.Sprintf("/collections/%s", collection))
	if err != nil {
		return fmt.Errorf("could not create collection %s: %w", collection, err)
	}
	// 409 means the collection already exists, which is fine.
	if res.IsError() && res.StatusCode() != 409 {
		return fmt.Errorf("could not create collection %s: %s", collection, res.Status())
	}

	s.created[collection] = true
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx, collection, len(points[0].Vector)); err != nil {
		return err
	}

	qPoints := make([]map[string]any, len(points))
	for i, p := range points {
		qPoints[i] = map[string]any{
			"id":     uuid.New().String(),
			"vector": p.Vector,
			"payload": map[string]any{
				"document_id": p.DocumentId.String(),
				"ordinal":     p.Ordinal,
				"text":        p.Text,
			},
		}
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"points": qPoints}).
		Put(fmt.Sprintf("/collections/%s/points", collection))
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("qdrant upsert failed: %s", res.Status())
	}
	return nil
}

type qdrantSearchResponse struct {
	Result []struct {
		Score   float64 `json:"score"`
		Payload struct {
			Text string `json:"text"`
		} `json:"payload"`
	} `json:"result"`
}

func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float64, limit int) ([]Result, error) {
	var out qdrantSearchResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"vector":       vector,
			"limit":        limit,
			"with_payload": true,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("/collections/%s/points/search", collection))
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("qdrant search failed: %s", res.Status())
	}

	results := make([]Result, len(out.Result))
	for i, hit := range out.Result {
		results[i] = Result{Text: hit.Payload.Text, Score: hit.Score}
	}
	return results, nil
}

func (s *QdrantStore) DeleteDocument(ctx context.Context, collection string, documentID uuid.UUID) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"filter": map[string]any{
				"must": []map[string]any{
					{"key": "document_id", "match": map[string]any{"value": documentID.String()}},
				},
			},
		}).
		Post(fmt.Sprintf("/collections/%s/points/delete", collection))
	if err != nil {
		return fmt.Errorf("qdrant document delete failed: %w", err)
	}
	if res.IsError() && res.StatusCode() != 404 {
		return fmt.Errorf("qdrant document delete failed: %s", res.Status())
	}
	return nil
}

func (s *QdrantStore) Drop(ctx context.Context, collection string) error {
	res, err := s.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/collections/%s", collection))
	if err != nil {
		return fmt.Errorf("qdrant drop failed: %w", err)
	}
	if res.IsError() && res.StatusCode() != 404 {
		return fmt.Errorf("qdrant drop failed: %s", res.Status())
	}

	s.mu.Lock()
	delete(s.created, collection)
	s.mu.Unlock()
	return nil
}
