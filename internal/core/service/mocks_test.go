package service

import (
	"context"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(
	ctx context.Context, key string, data []byte, contentType string,
) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	if fn, ok := args.Get(0).(func(context.Context, string, []byte, string) string); ok {
		return fn(ctx, key, data, contentType), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBlobStore) KeyForURL(url string) (string, bool) {
	args := m.Called(url)
	return args.String(0), args.Bool(1)
}

type MockProductsStorage struct {
	mock.Mock
}

func (m *MockProductsStorage) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProductsStorage) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductsStorage) DeleteProduct(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventsPublisher struct {
	mock.Mock
}

func (m *MockEventsPublisher) PublishProductEvent(
	ctx context.Context, evt domain.ProductEvent,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
