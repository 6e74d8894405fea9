package knowledge

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"analysis-backend/internal/documents"
	"analysis-backend/internal/llm"
)

const embedBatchSize = 16

// Base ingests documents into a vector collection and retrieves context for
// the analysis agents. One collection per session; ending the session drops
// the collection.
type Base struct {
	parser   documents.Parser
	embedder llm.Embedder
	store    Store
}

func NewBase(parser documents.Parser, embedder llm.Embedder, store Store) *Base {
	return &Base{parser: parser, embedder: embedder, store: store}
}

func collectionName(sessionID uuid.UUID) string {
	return "session_" + sessionID.String()
}

// Ingest parses, embeds, and stores one document under the session's
// collection. Returns the number of chunks stored.
func (b *Base) Ingest(ctx context.Context, sessionID, documentID uuid.UUID, name string, data io.Reader) (int, error) {
	collection := collectionName(sessionID)

	chunks := b.parser.Parse(name, data)
	// The parser goroutine blocks on the channel until it is consumed;
	// drain it so an early error return does not strand the producer.
	defer func() {
		for range chunks {
		}
	}()

	var batch []documents.Chunk
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := b.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}

		points := make([]Point, len(batch))
		for i, chunk := range batch {
			points[i] = Point{
				DocumentId: documentID,
				Ordinal:    chunk.Ordinal,
				Text:       chunk.Text,
				Vector:     vectors[i],
			}
		}
		if err := b.store.Upsert(ctx, collection, points); err != nil {
			return err
		}

		total += len(batch)
		batch = batch[:0]
		return nil
	}

	// On failure, remove whatever this document already stored so no
	// orphaned chunks stay searchable.
	fail := func(err error) (int, error) {
		if total > 0 {
			if cleanupErr := b.store.DeleteDocument(ctx, collection, documentID); cleanupErr != nil {
				slog.Error("error removing partially ingested document", "document_id", documentID, "error", cleanupErr)
			}
		}
		return 0, err
	}

	for chunk := range chunks {
		if chunk.Error != nil {
			return fail(fmt.Errorf("error parsing document %s: %w", name, chunk.Error))
		}
		batch = append(batch, chunk)
		if len(batch) >= embedBatchSize {
			if err := flush(); err != nil {
				return fail(err)
			}
		}
	}
	if err := flush(); err != nil {
		return fail(err)
	}

	slog.Info("document ingested", "document_id", documentID, "name", name, "chunks", total)
	return total, nil
}

// Search embeds the query and returns the top-k matching chunk texts from
// the session's collection.
func (b *Base) Search(ctx context.Context, sessionID uuid.UUID, query string, limit int) ([]Result, error) {
	vectors, err := b.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return b.store.Search(ctx, collectionName(sessionID), vectors[0], limit)
}

// Forget drops the session's collection.
func (b *Base) Forget(ctx context.Context, sessionID uuid.UUID) error {
	return b.store.Drop(ctx, collectionName(sessionID))
}
