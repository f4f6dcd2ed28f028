package port

import (
	"context"
	"sync"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

type ProductsLister interface {
	ListProducts(context.Context) ([]domain.Product, error)
}

type ProductsSaver interface {
	CreateProduct(context.Context, domain.Product) (domain.Product, error)
	UpdateProduct(context.Context, domain.Product) (domain.Product, error)
}

type ProductsManager interface {
	ProductsLister
	ProductsSaver
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type ImageUploader interface {
	Upload(context.Context, []domain.StagedImage) (domain.UploadResult, error)
	Discard(context.Context, domain.UploadResult) error
}

type ImageRemover interface {
	RemoveImages(ctx context.Context, urls []string) error
}

// ImageRefChecker reports whether any stored product still uses an image.
type ImageRefChecker interface {
	ImageReferenced(ctx context.Context, url string) (bool, error)
}

type ProductsStorage interface {
	ProductsManager
}

type BlobStore interface {
	// Put stores a publicly readable object and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	// KeyForURL reports the object key behind a public URL of this store.
	KeyForURL(url string) (string, bool)
}

type ProductEventsPublisher interface {
	PublishProductEvent(context.Context, domain.ProductEvent) error
}

type ImageJanitorProcessor interface {
	runnerContextWg
	closer
}
