package httphandler

import (
	"time"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
)

type (
	Product struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Price       string    `json:"price"`
		Category    string    `json:"category"`
		PaymentLink string    `json:"paymentLink"`
		Images      []string  `json:"images"`
		CreatedAt   time.Time `json:"createdAt,omitzero"`
		UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	}

	CategoryTemplate struct {
		Category    string `json:"category"`
		Price       string `json:"price"`
		Description string `json:"description"`
	}

	CategoryRequest struct {
		Draft    Product `json:"draft"`
		Category string  `json:"category"`
	}

	SubmitRequest struct {
		Product
		StagedImages []string `json:"stagedImages"`
	}

	FormResponse struct {
		Product Product `json:"product"`
		Editing bool    `json:"editing"`
	}

	UploadRequest struct {
		Images []string `json:"images"`
	}

	UploadResponse struct {
		URLs    []string      `json:"urls"`
		Skipped []SkippedItem `json:"skipped"`
	}

	SkippedItem struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	}

	StagedImage struct {
		Name   string `json:"name"`
		Image  string `json:"image,omitempty"`
		Width  int    `json:"width,omitempty"`
		Height int    `json:"height,omitempty"`
		Error  string `json:"error,omitempty"`
	}

	StagedImagesResponse struct {
		Images []StagedImage `json:"images"`
	}

	ErrorResponse struct {
		Error   string            `json:"error"`
		Message string            `json:"message,omitempty"`
		Details any               `json:"details,omitempty"`
		Fields  map[string]string `json:"fields,omitempty"`
	}
)

func productFromDomain(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		PaymentLink: p.PaymentLink,
		Images:      p.Images.URLs(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (p Product) toDomain() (domain.Product, error) {
	images, err := domain.NewImageList(p.Images...)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		PaymentLink: p.PaymentLink,
		Images:      images,
	}, nil
}

func skippedFromDomain(items []domain.UploadItem) []SkippedItem {
	out := make([]SkippedItem, 0, len(items))
	for _, item := range items {
		out = append(out, SkippedItem{Index: item.Index, Error: item.Err.Error()})
	}
	return out
}

func stagedFromStrings(ss []string) []domain.StagedImage {
	out := make([]domain.StagedImage, len(ss))
	for i, s := range ss {
		out[i] = domain.StagedImage(s)
	}
	return out
}
