package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorage_UploadLifecycle(t *testing.T) {
	store := NewInMemoryStorage()
	ctx := context.Background()

	exists, err := store.ObjectExists(ctx, "org1/doc1/proposal.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	store.PutObject("org1/doc1/proposal.pdf", "application/pdf", []byte("%PDF-1.7"))

	exists, err = store.ObjectExists(ctx, "org1/doc1/proposal.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	data, ok := store.GetObject("org1/doc1/proposal.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.7"), data)

	require.NoError(t, store.DeleteObject(ctx, "org1/doc1/proposal.pdf"))

	exists, err = store.ObjectExists(ctx, "org1/doc1/proposal.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryStorage_PresignedURLs(t *testing.T) {
	store := NewInMemoryStorage()
	ctx := context.Background()

	uploadURL, expiresAt, err := store.GenerateUploadURL(ctx, "org1/doc1/a.txt", "text/plain", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.invalid/upload/org1/doc1/a.txt", uploadURL)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, 2*time.Second)

	downloadURL, _, err := store.GenerateDownloadURL(ctx, "org1/doc1/a.txt", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.invalid/download/org1/doc1/a.txt", downloadURL)
}

func TestInMemoryStorage_RequiresKey(t *testing.T) {
	store := NewInMemoryStorage()
	ctx := context.Background()

	_, _, err := store.GenerateUploadURL(ctx, "", "text/plain", time.Minute)
	assert.Error(t, err)

	_, err = store.ObjectExists(ctx, "")
	assert.Error(t, err)

	assert.Error(t, store.DeleteObject(ctx, ""))
}
