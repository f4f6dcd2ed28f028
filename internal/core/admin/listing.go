package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

// ProductsDeleter is the store side of the listing.
type ProductsDeleter interface {
	port.ProductsLister
	DeleteProduct(ctx context.Context, id string) error
}

// A Listing keeps the last fetched products, newest first.
type Listing struct {
	store    ProductsDeleter
	products []domain.Product
	errMsg   string
}

func NewListing(store ProductsDeleter) *Listing {
	return &Listing{store: store}
}

func (l *Listing) Refresh(ctx context.Context) error {
	const op = "Listing.Refresh"

	products, err := l.store.ListProducts(ctx)
	if err != nil {
		l.errMsg = "Failed to load products."
		return fmt.Errorf("%s: %w", op, err)
	}
	l.products = products
	l.errMsg = ""
	return nil
}

func (l *Listing) Products() []domain.Product {
	out := make([]domain.Product, len(l.products))
	copy(out, l.products)
	return out
}

func (l *Listing) Error() string {
	return l.errMsg
}

// Delete removes the product permanently and reloads the list.
func (l *Listing) Delete(ctx context.Context, id string) error {
	const op = "Listing.Delete"

	if err := l.store.DeleteProduct(ctx, id); err != nil {
		l.errMsg = "Failed to delete product."
		return fmt.Errorf("%s: %w", op, err)
	}
	slog.Info("product deleted", "op", op, "productID", id)
	return l.Refresh(ctx)
}

// Saved is called after a successful form submission.
func (l *Listing) Saved(ctx context.Context, p domain.Product) error {
	slog.Debug("product saved, reloading", "op", "Listing.Saved", "productID", p.ID)
	return l.Refresh(ctx)
}
