package httphandler

import (
	"context"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

type MockProducts struct {
	mock.Mock
}

func (m *MockProducts) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

func (m *MockProducts) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProducts) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProducts) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProducts) DeleteProduct(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

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
