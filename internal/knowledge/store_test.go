package knowledge

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"analysis-backend/internal/database"
	"analysis-backend/internal/documents"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

// fakeEmbedder maps each text to a fixed-dimension vector derived from its
// first byte, so similarity ordering is deterministic.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v := float64(1)
		if len(text) > 0 {
			v = float64(text[0])
		}
		vectors[i] = []float64{v, 1}
	}
	return vectors, nil
}

func TestGormStoreSearchRanksByCosine(t *testing.T) {
	store := NewGormStore(createDB(t))
	ctx := context.Background()
	docID := uuid.New()

	require.NoError(t, store.Upsert(ctx, "c1", []Point{
		{DocumentId: docID, Ordinal: 0, Text: "alpha", Vector: []float64{1, 0}},
		{DocumentId: docID, Ordinal: 1, Text: "beta", Vector: []float64{0, 1}},
		{DocumentId: docID, Ordinal: 2, Text: "gamma", Vector: []float64{1, 1}},
	}))

	results, err := store.Search(ctx, "c1", []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "gamma", results[1].Text)
}

func TestGormStoreCollectionIsolation(t *testing.T) {
	store := NewGormStore(createDB(t))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "c1", []Point{{Text: "one", Vector: []float64{1}}}))
	require.NoError(t, store.Upsert(ctx, "c2", []Point{{Text: "two", Vector: []float64{1}}}))

	results, err := store.Search(ctx, "c1", []float64{1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "one", results[0].Text)
}

func TestGormStoreDrop(t *testing.T) {
	store := NewGormStore(createDB(t))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "c1", []Point{{Text: "one", Vector: []float64{1}}}))
	require.NoError(t, store.Drop(ctx, "c1"))

	results, err := store.Search(ctx, "c1", []float64{1}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBaseIngestAndSearch(t *testing.T) {
	store := NewGormStore(createDB(t))
	base := NewBase(documents.NewDefaultParser(), fakeEmbedder{}, store)
	ctx := context.Background()
	sessionID := uuid.New()

	chunks, err := base.Ingest(ctx, sessionID, uuid.New(), "notes.txt", strings.NewReader("all terms are governed by clause 4"))
	require.NoError(t, err)
	assert.Equal(t, 1, chunks)

	results, err := base.Search(ctx, sessionID, "a question", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Text, "clause 4")

	require.NoError(t, base.Forget(ctx, sessionID))
	results, err = base.Search(ctx, sessionID, "a question", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// failAfterEmbedder succeeds for the first batch and errors afterwards, so
// an ingest can fail with chunks already stored.
type failAfterEmbedder struct {
	calls int
}

func (e *failAfterEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	e.calls++
	if e.calls > 1 {
		return nil, errors.New("embedding backend unavailable")
	}
	return fakeEmbedder{}.Embed(ctx, texts)
}

// Enough plaintext to span several embed batches.
func largeDocument() string {
	return strings.Repeat("all terms are governed by clause 4. ", 10*1024)
}

func TestBaseIngestErrorReleasesParser(t *testing.T) {
	store := NewGormStore(createDB(t))
	base := NewBase(documents.NewDefaultParser(), &failAfterEmbedder{calls: 1}, store)

	_, err := base.Ingest(context.Background(), uuid.New(), uuid.New(), "big.txt", strings.NewReader(largeDocument()))
	require.Error(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for {
		buf := make([]byte, 1<<20)
		stacks := string(buf[:runtime.Stack(buf, true)])
		if !strings.Contains(stacks, "parsePlaintext") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("parser goroutine still blocked after failed ingest")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBaseIngestFailureRemovesPartialChunks(t *testing.T) {
	store := NewGormStore(createDB(t))
	base := NewBase(documents.NewDefaultParser(), &failAfterEmbedder{}, store)
	sessionID := uuid.New()

	// The first batch embeds and is stored before the second batch fails.
	_, err := base.Ingest(context.Background(), sessionID, uuid.New(), "big.txt", strings.NewReader(largeDocument()))
	require.Error(t, err)

	results, err := store.Search(context.Background(), collectionName(sessionID), []float64{1, 1}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreDeleteDocument(t *testing.T) {
	store := NewGormStore(createDB(t))
	ctx := context.Background()
	keep := uuid.New()
	remove := uuid.New()

	require.NoError(t, store.Upsert(ctx, "c1", []Point{
		{DocumentId: keep, Text: "keep me", Vector: []float64{1, 0}},
		{DocumentId: remove, Text: "remove me", Vector: []float64{0, 1}},
	}))

	require.NoError(t, store.DeleteDocument(ctx, "c1", remove))

	results, err := store.Search(ctx, "c1", []float64{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "keep me", results[0].Text)
}

func TestBaseIngestBadDocument(t *testing.T) {
	store := NewGormStore(createDB(t))
	base := NewBase(documents.NewDefaultParser(), fakeEmbedder{}, store)

	_, err := base.Ingest(context.Background(), uuid.New(), uuid.New(), "image.png", strings.NewReader("x"))
	assert.Error(t, err)
}
