package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFormsMux(uploader *MockUploader, products *MockProducts) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterForms(mux, uploader, products)
	return mux
}

func TestFormCategory(t *testing.T) {
	body := `{"draft":{"name":"Aria","price":"$1"},"category":"Professional Package"}`
	rec := serve(
		newFormsMux(&MockUploader{}, &MockProducts{}),
		http.MethodPost, "/v1/forms/category", body,
	)
	require.Equal(t, http.StatusOK, rec.Code)

	var got FormResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Aria", got.Product.Name)
	assert.Equal(t, domain.CategoryProfessional, got.Product.Category)
	assert.Equal(t, "$997", got.Product.Price)
	assert.NotEmpty(t, got.Product.Description)
}

func TestFormSubmit(t *testing.T) {
	const staged = "data:image/jpeg;base64,AAAA"
	const submitJSON = `{
		"name": "Aria",
		"description": "Persona",
		"price": "$497",
		"category": "Starter Package",
		"paymentLink": "https://pay.example.com/aria",
		"images": ["https://cdn.example.com/p/old.jpg"],
		"stagedImages": ["` + staged + `"]
	}`

	uploaded := domain.UploadResult{Items: []domain.UploadItem{
		{Index: 0, Key: "p/new.jpg", URL: "https://cdn.example.com/p/new.jpg"},
	}}

	t.Run("CreatesWithMergedImages", func(t *testing.T) {
		uploader := &MockUploader{}
		products := &MockProducts{}
		uploader.On("Upload", mock.Anything, []domain.StagedImage{staged}).
			Return(uploaded, nil)
		products.On("CreateProduct", mock.Anything, mock.MatchedBy(
			func(p domain.Product) bool {
				urls := p.Images.URLs()
				return len(urls) == 2 &&
					urls[0] == "https://cdn.example.com/p/old.jpg" &&
					urls[1] == "https://cdn.example.com/p/new.jpg"
			},
		)).Return(domain.Product{ID: "new-id", Name: "Aria"}, nil)

		rec := serve(newFormsMux(uploader, products), http.MethodPost, "/v1/forms/submit", submitJSON)
		require.Equal(t, http.StatusCreated, rec.Code)

		var got FormResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "new-id", got.Product.ID)
		uploader.AssertExpectations(t)
		products.AssertExpectations(t)
	})

	t.Run("UpdatesExisting", func(t *testing.T) {
		uploader := &MockUploader{}
		products := &MockProducts{}
		products.On("UpdateProduct", mock.Anything, mock.MatchedBy(
			func(p domain.Product) bool { return p.ID == "id-1" && p.Images.Len() == 1 },
		)).Return(domain.Product{ID: "id-1"}, nil)

		body := `{"id":"id-1","name":"Aria","description":"d","price":"$1",` +
			`"paymentLink":"https://pay.example.com","images":["https://cdn.example.com/1.jpg"]}`
		rec := serve(newFormsMux(uploader, products), http.MethodPost, "/v1/forms/submit", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("ValidationReportsAllFields", func(t *testing.T) {
		uploader := &MockUploader{}
		rec := serve(
			newFormsMux(uploader, &MockProducts{}),
			http.MethodPost, "/v1/forms/submit", `{"paymentLink":"ftp://x"}`,
		)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var got ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got.Fields, 5)
		assert.NotEmpty(t, got.Message)
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("SaveFailureDiscardsBatch", func(t *testing.T) {
		uploader := &MockUploader{}
		products := &MockProducts{}
		uploader.On("Upload", mock.Anything, mock.Anything).Return(uploaded, nil)
		uploader.On("Discard", mock.Anything, uploaded).Return(nil)
		products.On("CreateProduct", mock.Anything, mock.Anything).
			Return(domain.Product{}, errors.New("db down"))

		rec := serve(newFormsMux(uploader, products), http.MethodPost, "/v1/forms/submit", submitJSON)
		require.Equal(t, http.StatusBadGateway, rec.Code)

		var got ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.Message)
		uploader.AssertExpectations(t)
	})

	t.Run("TooManyStaged", func(t *testing.T) {
		body := `{"name":"a","images":["1","2","3"],"stagedImages":["x","y","z"]}`
		rec := serve(
			newFormsMux(&MockUploader{}, &MockProducts{}),
			http.MethodPost, "/v1/forms/submit", body,
		)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
