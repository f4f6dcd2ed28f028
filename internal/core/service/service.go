package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

var _ port.ProductsManager = (*Service)(nil)

type Service struct {
	productsStorage port.ProductsStorage
	eventsPublisher port.ProductEventsPublisher
	janitorProc     port.ImageJanitorProcessor
}

// New returns the catalog service.
//
// eventsPublisher and janitorProc are optional.
func New(
	productsStorage port.ProductsStorage,
	eventsPublisher port.ProductEventsPublisher,
	janitorProc port.ImageJanitorProcessor,
) Service {
	return Service{
		productsStorage,
		eventsPublisher,
		janitorProc,
	}
}

// Run runs the background components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.janitorProc == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.janitorProc.Run(ctx, stopFn, &wg)
	wg.Wait()
}

func (s Service) Close() {
	if s.janitorProc != nil {
		s.janitorProc.Close()
	}
}

func (s Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.productsStorage.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	const op = "Service.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.productsStorage.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s Service) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.ID = ""
	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.productsStorage.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, domain.NewProductEvent(domain.ProductCreated, created))
	return created, nil
}

func (s Service) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "Service.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if p.IsNew() {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.productsStorage.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, domain.NewProductEvent(domain.ProductUpdated, updated))
	return updated, nil
}

func (s Service) DeleteProduct(ctx context.Context, id string) error {
	const op = "Service.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productsStorage.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, domain.NewProductEvent(
		domain.ProductDeleted, domain.Product{ID: id},
	))
	return nil
}

// publish is best effort: the store is the source of truth.
func (s Service) publish(ctx context.Context, evt domain.ProductEvent) {
	const op = "Service.publish"

	if s.eventsPublisher == nil {
		return
	}

	err := s.eventsPublisher.PublishProductEvent(ctx, evt)
	if err != nil {
		slog.Error(
			"failed to publish product event",
			"op", op,
			"productID", evt.ProductID,
			"type", evt.Type,
			"err", err,
		)
	}
}
