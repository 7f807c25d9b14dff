package document_test

import (
	"context"
	"strings"
	"testing"

	documentapp "github.com/astralisone/platform/internal/application/document"
	"github.com/astralisone/platform/internal/domain/document"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDocumentRepository is a mock implementation of document.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*document.Document, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]document.Document, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, d *document.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) SumSize(ctx context.Context, orgID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(int64), args.Error(1)
}

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

func newTestService(repo *MockDocumentRepository, store documentapp.ObjectStorage) *documentapp.DocumentService {
	return documentapp.NewDocumentService(repo, store, stubPublisher{}, zap.NewNop())
}

func TestDocumentService_UploadAndConfirm(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	repo := new(MockDocumentRepository)
	store := storage.NewInMemoryStorage()
	service := newTestService(repo, store)

	var saved *document.Document
	repo.On("Save", mock.Anything, mock.AnythingOfType("*document.Document")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*document.Document)
	}).Return(nil)

	resp, err := service.Upload(context.Background(), orgID, userID, documentapp.UploadDocumentRequest{
		FileName:    "proposal.pdf",
		ContentType: "application/pdf",
		Size:        2048,
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 1, resp.Document.Revision)
	assert.Equal(t, "proposal.pdf", resp.Document.Title)
	assert.True(t, strings.Contains(resp.UploadURL, saved.StorageKey))

	repo.On("FindByID", mock.Anything, orgID, saved.GetID()).Return(saved, nil)

	// Confirming before the bytes arrive fails.
	_, err = service.ConfirmUpload(context.Background(), orgID, saved.GetID())
	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "UPLOAD_INCOMPLETE", domainErr.Code)

	store.PutObject(saved.StorageKey, "application/pdf", []byte("%PDF-1.7"))

	confirmed, err := service.ConfirmUpload(context.Background(), orgID, saved.GetID())
	require.NoError(t, err)
	assert.Equal(t, string(document.DocumentStatusActive), confirmed.Status)
}

func TestDocumentService_Download(t *testing.T) {
	orgID := uuid.New()
	repo := new(MockDocumentRepository)
	store := storage.NewInMemoryStorage()
	service := newTestService(repo, store)

	d, err := document.NewDocument(orgID, uuid.New(), "Contract", "contract.pdf", "application/pdf", 1024)
	require.NoError(t, err)
	d.ClearDomainEvents()
	repo.On("FindByID", mock.Anything, orgID, d.GetID()).Return(d, nil)

	resp, err := service.Download(context.Background(), orgID, d.GetID())

	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", resp.FileName)
	assert.True(t, strings.Contains(resp.DownloadURL, d.StorageKey))
}

func TestDocumentService_Download_DeletedRefused(t *testing.T) {
	orgID := uuid.New()
	repo := new(MockDocumentRepository)
	service := newTestService(repo, storage.NewInMemoryStorage())

	d, err := document.NewDocument(orgID, uuid.New(), "Old", "old.txt", "text/plain", 10)
	require.NoError(t, err)
	require.NoError(t, d.Delete())
	d.ClearDomainEvents()
	repo.On("FindByID", mock.Anything, orgID, d.GetID()).Return(d, nil)

	_, err = service.Download(context.Background(), orgID, d.GetID())

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestDocumentService_NewVersionRotatesStorageKey(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	repo := new(MockDocumentRepository)
	service := newTestService(repo, storage.NewInMemoryStorage())

	d, err := document.NewDocument(orgID, userID, "Deck", "deck.pptx", "", 4096)
	require.NoError(t, err)
	d.ClearDomainEvents()
	firstKey := d.StorageKey

	repo.On("FindByID", mock.Anything, orgID, d.GetID()).Return(d, nil)
	repo.On("Save", mock.Anything, d).Return(nil)

	resp, err := service.NewVersion(context.Background(), orgID, userID, d.GetID(), documentapp.NewVersionRequest{
		FileName: "deck-v2.pptx",
		Size:     8192,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Document.Revision)
	assert.NotEqual(t, firstKey, d.StorageKey)
	assert.True(t, strings.Contains(resp.UploadURL, d.StorageKey))
}

func TestDocumentService_DeletePurgesContent(t *testing.T) {
	orgID := uuid.New()
	repo := new(MockDocumentRepository)
	store := storage.NewInMemoryStorage()
	service := newTestService(repo, store)

	d, err := document.NewDocument(orgID, uuid.New(), "Scratch", "scratch.txt", "text/plain", 12)
	require.NoError(t, err)
	d.ClearDomainEvents()
	store.PutObject(d.StorageKey, "text/plain", []byte("throwaway"))

	repo.On("FindByID", mock.Anything, orgID, d.GetID()).Return(d, nil)
	repo.On("Save", mock.Anything, d).Return(nil)

	resp, err := service.Delete(context.Background(), orgID, d.GetID(), true)

	require.NoError(t, err)
	assert.Equal(t, string(document.DocumentStatusDeleted), resp.Status)
	exists, err := store.ObjectExists(context.Background(), d.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDocumentService_Usage(t *testing.T) {
	orgID := uuid.New()
	repo := new(MockDocumentRepository)
	service := newTestService(repo, storage.NewInMemoryStorage())

	repo.On("SumSize", mock.Anything, orgID).Return(int64(12_582_912), nil)
	repo.On("Count", mock.Anything, orgID, mock.Anything).Return(int64(7), nil)

	resp, err := service.Usage(context.Background(), orgID)

	require.NoError(t, err)
	assert.Equal(t, int64(12_582_912), resp.TotalBytes)
	assert.Equal(t, int64(7), resp.DocumentCount)
}
