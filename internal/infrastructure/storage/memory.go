package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	documentapp "github.com/astralisone/platform/internal/application/document"
)

var _ documentapp.ObjectStorage = (*InMemoryStorage)(nil)

type memoryObject struct {
	contentType string
	data        []byte
}

// InMemoryStorage keeps objects in a map. Presigned URLs are synthetic but
// stable, so handler and service tests can assert on them. Used for local
// development and tests; an object is "uploaded" via PutObject.
type InMemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// BaseURL prefixes generated URLs. Defaults to a placeholder host.
	BaseURL string
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		objects: make(map[string]memoryObject),
		BaseURL: "https://storage.invalid",
	}
}

func (s *InMemoryStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/upload/" + storageKey, expiresAt, nil
}

func (s *InMemoryStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/download/" + storageKey, expiresAt, nil
}

func (s *InMemoryStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

func (s *InMemoryStorage) DeleteObject(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// PutObject simulates a completed upload. Tests call this in place of the
// presigned PUT a real client would perform.
func (s *InMemoryStorage) PutObject(storageKey, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[storageKey] = memoryObject{contentType: contentType, data: buf}
}

// GetObject returns the stored content, or false when the key is absent.
func (s *InMemoryStorage) GetObject(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, false
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, true
}
