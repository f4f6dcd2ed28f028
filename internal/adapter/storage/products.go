package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

var (
	_ port.ProductsStorage = (*ProductsRepository)(nil)
	_ port.ImageRefChecker = (*ProductsRepository)(nil)
)

const selectProducts = `
	SELECT
		p.id, p.name, p.description, p.price, p.category, p.payment_link,
		p.created_at, p.updated_at,
		COALESCE(
			(SELECT json_agg(i.image_url ORDER BY i.image_order)
			FROM product_images i WHERE i.product_id = p.id),
			'[]'
		)
	FROM products p`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) ListProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ListProducts"

	rows, err := r.sqldb.QueryContext(
		ctx, selectProducts+` ORDER BY p.created_at DESC, p.id;`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ps []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (r ProductsRepository) GetProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.GetProduct"

	if uuid.Validate(id) != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	row := r.sqldb.QueryRowContext(ctx, selectProducts+` WHERE p.id = $1;`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CreateProduct inserts the product with its images in one transaction.
// The returned product carries the generated id and timestamps.
func (r ProductsRepository) CreateProduct(
	ctx context.Context, p domain.Product,
) (out domain.Product, storeErr error) {
	const op = "ProductsRepository.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer func() { storeErr = finishTx(op, tx, storeErr) }()

	query := `
		INSERT INTO products (
			name, description, price, category, payment_link
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at;`

	err = tx.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price, p.Category, p.PaymentLink,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to insert: %w", op, err)
	}

	if err := insertImages(ctx, tx, p.ID, p.Images.URLs()); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// UpdateProduct replaces every field and the whole image list.
func (r ProductsRepository) UpdateProduct(
	ctx context.Context, p domain.Product,
) (out domain.Product, storeErr error) {
	const op = "ProductsRepository.UpdateProduct"

	if uuid.Validate(p.ID) != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer func() { storeErr = finishTx(op, tx, storeErr) }()

	query := `
		UPDATE products SET
			name = $2,
			description = $3,
			price = $4,
			category = $5,
			payment_link = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at;`

	err = tx.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.PaymentLink,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: failed to update: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM product_images WHERE product_id = $1;`, p.ID,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: failed to clear images: %w", op, err)
	}

	if err := insertImages(ctx, tx, p.ID, p.Images.URLs()); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (r ProductsRepository) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductsRepository.DeleteProduct"

	if uuid.Validate(id) != nil {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// ImageReferenced reports whether any product still lists url.
func (r ProductsRepository) ImageReferenced(ctx context.Context, url string) (bool, error) {
	const op = "ProductsRepository.ImageReferenced"

	var one int
	err := r.sqldb.QueryRowContext(
		ctx, `SELECT 1 FROM product_images WHERE image_url = $1 LIMIT 1;`, url,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func insertImages(ctx context.Context, tx *sql.Tx, productID string, urls []string) error {
	const op = "insertImages"
	if len(urls) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product_images (product_id, image_url, image_order)
		VALUES ($1, $2, $3);`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare stmt: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("failed to close prepared stmt", "op", op, "err", err)
		}
	}()

	for i, url := range urls {
		if _, err := stmt.ExecContext(ctx, productID, url, i); err != nil {
			return fmt.Errorf("failed to insert image %d: %w", i, err)
		}
	}
	return nil
}

func finishTx(op string, tx *sql.Tx, err error) error {
	if err == nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%s: failed to commit: %w", op, err)
		}
		return nil
	}

	if rbErr := tx.Rollback(); rbErr != nil {
		slog.Error("failed to rollback tx", "op", op, "err", rbErr)
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p          domain.Product
		imagesJSON []byte
	)
	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.PaymentLink,
		&p.CreatedAt, &p.UpdatedAt, &imagesJSON,
	)
	if err != nil {
		return domain.Product{}, err
	}

	var urls []string
	if err := json.Unmarshal(imagesJSON, &urls); err != nil {
		return domain.Product{}, fmt.Errorf("decode images of %s: %w", p.ID, err)
	}

	images, err := domain.NewImageList(urls...)
	if err != nil {
		return domain.Product{}, fmt.Errorf("images of %s: %w", p.ID, err)
	}
	p.Images = images
	return p, nil
}
