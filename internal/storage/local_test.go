package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := NewLocalProvider(dir)
	require.NoError(t, err)
	return provider, dir
}

func TestLocalProvider_PutAndGetObject(t *testing.T) {
	provider, dir := setupTestProvider(t)

	content := []byte("region,units\nnorth,10\n")
	err := provider.PutObject(context.Background(), "uploads", "s1/sales.csv", bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "uploads", "s1", "sales.csv"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	fetched, err := provider.GetObject(context.Background(), "uploads", "s1/sales.csv")
	require.NoError(t, err)
	assert.Equal(t, content, fetched)
}

func TestLocalProvider_ListObjectsByPrefix(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.PutObject(ctx, "uploads", "s1/a.csv", bytes.NewReader([]byte("a"))))
	require.NoError(t, provider.PutObject(ctx, "uploads", "s1/b.pdf", bytes.NewReader([]byte("bb"))))
	require.NoError(t, provider.PutObject(ctx, "uploads", "s2/c.csv", bytes.NewReader([]byte("c"))))

	objects, err := provider.ListObjects(ctx, "uploads", "s1/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "s1/a.csv", objects[0].Name)
	assert.Equal(t, int64(1), objects[0].Size)
}

func TestLocalProvider_ListObjectsMissingBucket(t *testing.T) {
	provider, _ := setupTestProvider(t)

	objects, err := provider.ListObjects(context.Background(), "missing", "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalProvider_DeleteObjects(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.PutObject(ctx, "uploads", "s1/a.csv", bytes.NewReader([]byte("a"))))
	require.NoError(t, provider.PutObject(ctx, "uploads", "s1/b.pdf", bytes.NewReader([]byte("b"))))
	require.NoError(t, provider.PutObject(ctx, "uploads", "s2/c.csv", bytes.NewReader([]byte("c"))))

	require.NoError(t, provider.DeleteObjects(ctx, "uploads", "s1/"))

	remaining, err := provider.ListObjects(ctx, "uploads", "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "s2/c.csv", remaining[0].Name)
}

func TestLocalProvider_CreateBucket(t *testing.T) {
	provider, dir := setupTestProvider(t)

	require.NoError(t, provider.CreateBucket(context.Background(), "uploads"))
	info, err := os.Stat(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
