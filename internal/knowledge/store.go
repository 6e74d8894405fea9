package knowledge

import (
	"context"

	"github.com/google/uuid"
)

// Point is one embedded chunk stored in a collection.
type Point struct {
	DocumentId uuid.UUID
	Ordinal    int
	Text       string
	Vector     []float64
}

// Result is a retrieved chunk with its similarity score.
type Result struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Store is the vector database boundary. Collections group the chunks of a
// session; dropping a collection removes everything the session ingested,
// DeleteDocument removes a single document's points.
type Store interface {
	Upsert(ctx context.Context, collection string, points []Point) error

	Search(ctx context.Context, collection string, vector []float64, limit int) ([]Result, error)

	DeleteDocument(ctx context.Context, collection string, documentID uuid.UUID) error

	Drop(ctx context.Context, collection string) error
}
