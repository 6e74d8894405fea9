package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"analysis-backend/internal/database"
)

// GormStore keeps embeddings in the relational database and ranks by cosine
// similarity in process. Suited to single-node deployments; larger corpora
// should use the Qdrant store where ranking is delegated to the service.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Upsert(ctx context.Context, collection string, points []Point) error {
	rows := make([]database.DocumentChunk, 0, len(points))
	for _, p := range points {
		vector, err := json.Marshal(p.Vector)
		if err != nil {
			return fmt.Errorf("could not marshal embedding: %w", err)
		}
		rows = append(rows, database.DocumentChunk{
			Collection: collection,
			DocumentId: p.DocumentId,
			Ordinal:    p.Ordinal,
			Text:       p.Text,
			Embedding:  datatypes.JSON(vector),
		})
	}

	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

func (s *GormStore) Search(ctx context.Context, collection string, vector []float64, limit int) ([]Result, error) {
	var rows []database.DocumentChunk
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("could not load collection %s: %w", collection, err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var embedding []float64
		if err := json.Unmarshal(row.Embedding, &embedding); err != nil {
			return nil, fmt.Errorf("invalid embedding JSON: %w", err)
		}
		results = append(results, Result{Text: row.Text, Score: cosine(vector, embedding)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *GormStore) DeleteDocument(ctx context.Context, collection string, documentID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND document_id = ?", collection, documentID).
		Delete(&database.DocumentChunk{}).Error
}

func (s *GormStore) Drop(ctx context.Context, collection string) error {
	return s.db.WithContext(ctx).Where("collection = ?", collection).Delete(&database.DocumentChunk{}).Error
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
