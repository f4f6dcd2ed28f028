package admin

import (
	"context"
	"strings"
	"sync"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(
	ctx context.Context, images []domain.StagedImage,
) (domain.UploadResult, error) {
	args := m.Called(ctx, images)
	return args.Get(0).(domain.UploadResult), args.Error(1)
}

func (m *MockUploader) Discard(ctx context.Context, res domain.UploadResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockStore) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockStore) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockStore) DeleteProduct(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// memBlobStore keeps objects in memory and serves them under baseURL.
type memBlobStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

func newMemBlobStore(baseURL string) *memBlobStore {
	return &memBlobStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *memBlobStore) Put(
	_ context.Context, key string, data []byte, _ string,
) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return s.baseURL + "/" + key, nil
}

func (s *memBlobStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memBlobStore) KeyForURL(url string) (string, bool) {
	return strings.CutPrefix(url, s.baseURL+"/")
}

// URLOf returns the URL of the object holding payload.
func (s *memBlobStore) URLOf(payload string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, data := range s.objects {
		if string(data) == payload {
			return s.baseURL + "/" + key
		}
	}
	return ""
}

func (s *memBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
