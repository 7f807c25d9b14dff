package document

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()

	t.Run("creates active document with storage key", func(t *testing.T) {
		d, err := NewDocument(orgID, userID, "Q1 Report", "report.pdf", "application/pdf", 1024)

		require.NoError(t, err)
		assert.Equal(t, DocumentStatusActive, d.Status)
		assert.Equal(t, 1, d.Revision)
		assert.Contains(t, d.StorageKey, orgID.String())
		assert.Contains(t, d.StorageKey, "/v1/")
		assert.Contains(t, d.StorageKey, "report.pdf")
		assert.Len(t, d.GetDomainEvents(), 1)
	})

	t.Run("title defaults to file name", func(t *testing.T) {
		d, err := NewDocument(orgID, userID, "", "report.pdf", "application/pdf", 1024)

		require.NoError(t, err)
		assert.Equal(t, "report.pdf", d.Title)
	})

	t.Run("storage key strips path components from the file name", func(t *testing.T) {
		d, err := NewDocument(orgID, userID, "t", "../../etc/passwd", "", 10)

		require.NoError(t, err)
		assert.NotContains(t, d.StorageKey, "..")
		assert.Contains(t, d.StorageKey, "passwd")
	})

	t.Run("rejects empty files", func(t *testing.T) {
		_, err := NewDocument(orgID, userID, "t", "empty.txt", "", 0)
		assert.Error(t, err)
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		_, err := NewDocument(orgID, userID, "t", "big.bin", "", maxFileSize+1)
		assert.Error(t, err)
	})
}

func TestDocumentLifecycle(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()

	newDoc := func(t *testing.T) *Document {
		d, err := NewDocument(orgID, userID, "Q1 Report", "report.pdf", "application/pdf", 1024)
		require.NoError(t, err)
		d.ClearDomainEvents()
		return d
	}

	t.Run("new revision advances the storage key", func(t *testing.T) {
		d := newDoc(t)
		oldKey := d.StorageKey

		require.NoError(t, d.NewRevision("report-v2.pdf", "application/pdf", 2048, userID))

		assert.Equal(t, 2, d.Revision)
		assert.NotEqual(t, oldKey, d.StorageKey)
		assert.Contains(t, d.StorageKey, "/v2/")
		assert.Equal(t, int64(2048), d.Size)
	})

	t.Run("archived document rejects new revisions", func(t *testing.T) {
		d := newDoc(t)
		require.NoError(t, d.Archive())
		assert.Error(t, d.NewRevision("report.pdf", "application/pdf", 10, userID))
	})

	t.Run("archive and restore", func(t *testing.T) {
		d := newDoc(t)

		require.NoError(t, d.Archive())
		assert.Equal(t, DocumentStatusArchived, d.Status)
		assert.True(t, d.IsDownloadable())

		require.NoError(t, d.Restore())
		assert.Equal(t, DocumentStatusActive, d.Status)
	})

	t.Run("delete is a tombstone", func(t *testing.T) {
		d := newDoc(t)

		require.NoError(t, d.Delete())

		assert.Equal(t, DocumentStatusDeleted, d.Status)
		assert.False(t, d.IsDownloadable())
		assert.Error(t, d.UpdateMetadata("new title"))
		assert.Error(t, d.Restore())
		// idempotent
		require.NoError(t, d.Delete())
	})
}
