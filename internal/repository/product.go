package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/storage/db"
)

// ProductRepository is the inventory store. The product id is only meaningful
// together with its tenant id, so every read is tenant-scoped.
type ProductRepository interface {
	WithDB(db db.DB) ProductRepository
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (model.Product, error)
	// GetProductForUpdate locks the product row for the remainder of the
	// enclosing transaction. Callers must be inside WithTx.
	GetProductForUpdate(ctx context.Context, tenantID, productID uuid.UUID) (model.Product, error)
	// DecrementStock subtracts quantity from the product's stock and returns
	// the new level. The check and the write are one guarded statement, so a
	// decrement that would go negative fails with InsufficientStockErr.
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error)
	// AdjustStock adds delta (which may be negative) under the same guard.
	AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, delta int) (int, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r productRepository) WithDB(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, tenant_id, name, description, price::text, stock, created_at, updated_at`

func (r productRepository) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND tenant_id = $2
	`, productID, tenantID)

	return scanProduct(row)
}

func (r productRepository) GetProductForUpdate(ctx context.Context, tenantID, productID uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, productID, tenantID)

	return scanProduct(row)
}

func (r productRepository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	var newStock int
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`, productID, quantity).Scan(&newStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.InsufficientStockErr
	}
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	return newStock, nil
}

func (r productRepository) AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, delta int) (int, error) {
	var newStock int
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET stock = stock + $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND stock + $3 >= 0
		RETURNING stock
	`, productID, tenantID, delta).Scan(&newStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.InsufficientStockErr
	}
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	return newStock, nil
}

func (r productRepository) ListProducts(ctx context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		product  model.Product
		priceStr string
	)
	err := row.Scan(
		&product.ID,
		&product.TenantID,
		&product.Name,
		&product.Description,
		&priceStr,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("scan product: %w", err)
	}

	product.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return model.Product{}, fmt.Errorf("parse price: %w", err)
	}

	return product, nil
}
