package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/storage/db"
)

// TenantRevenue is one row of the cross-tenant revenue report.
type TenantRevenue struct {
	TenantID uuid.UUID
	Name     string
	Revenue  decimal.Decimal
}

// SaleRepository is the sale ledger: append-only writes, read-side listing and
// decimal revenue aggregation.
type SaleRepository interface {
	WithDB(db db.DB) SaleRepository
	// CreateSale inserts the sale header and all line items as one unit.
	// Callers run it inside WithTx alongside the stock decrements.
	CreateSale(ctx context.Context, sale model.Sale) error
	ListSales(ctx context.Context, tenantID uuid.UUID) ([]model.Sale, error)
	// SumTotals sums Sale.total for the tenant, bounded inclusively by from
	// and to when non-nil. No matching sales yields decimal zero.
	SumTotals(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error)
	SumTotalsByTenant(ctx context.Context) ([]TenantRevenue, error)
}

type saleRepository struct {
	db db.DB
}

func NewSaleRepository(db db.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r saleRepository) WithDB(db db.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r saleRepository) CreateSale(ctx context.Context, sale model.Sale) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO sales (id, tenant_id, user_id, total, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5)
	`, sale.ID, sale.TenantID, sale.UserID, sale.Total.String(), sale.CreatedAt); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range sale.Items {
		batch.Queue(`
			INSERT INTO sale_items (id, sale_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5::numeric)
		`, item.ID, item.SaleID, item.ProductID, item.Quantity, item.Price.String())
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range sale.Items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}

	return nil
}

func (r saleRepository) ListSales(ctx context.Context, tenantID uuid.UUID) ([]model.Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, user_id, total::text, created_at
		FROM sales
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]model.Sale, 0)
	saleIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var (
			sale     model.Sale
			totalStr string
		)
		if err := rows.Scan(&sale.ID, &sale.TenantID, &sale.UserID, &totalStr, &sale.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		if sale.Total, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("parse total: %w", err)
		}
		sale.Items = make([]model.SaleItem, 0)
		sales = append(sales, sale)
		saleIDs = append(saleIDs, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(sales) == 0 {
		return sales, nil
	}

	items, err := r.listItems(ctx, saleIDs)
	if err != nil {
		return nil, err
	}

	bySale := make(map[uuid.UUID][]model.SaleItem, len(sales))
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], item)
	}
	for i := range sales {
		if saleItems, ok := bySale[sales[i].ID]; ok {
			sales[i].Items = saleItems
		}
	}

	return sales, nil
}

func (r saleRepository) listItems(ctx context.Context, saleIDs []uuid.UUID) ([]model.SaleItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, price::text
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id
	`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	items := make([]model.SaleItem, 0)
	for rows.Next() {
		var (
			item     model.SaleItem
			priceStr string
		)
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &priceStr); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("parse item price: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r saleRepository) SumTotals(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	var totalStr string
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)::text
		FROM sales
		WHERE tenant_id = @tenant_id
		  AND (@from::timestamptz IS NULL OR created_at >= @from::timestamptz)
		  AND (@to::timestamptz IS NULL OR created_at <= @to::timestamptz)
	`, pgx.NamedArgs{
		"tenant_id": tenantID,
		"from":      from,
		"to":        to,
	}).Scan(&totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum totals: %w", err)
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse sum: %w", err)
	}

	return total, nil
}

func (r saleRepository) SumTotalsByTenant(ctx context.Context) ([]TenantRevenue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name, COALESCE(SUM(s.total), 0)::text
		FROM tenants t
		LEFT JOIN sales s ON s.tenant_id = t.id
		GROUP BY t.id, t.name
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("sum totals by tenant: %w", err)
	}
	defer rows.Close()

	revenues := make([]TenantRevenue, 0)
	for rows.Next() {
		var (
			rev        TenantRevenue
			revenueStr string
		)
		if err := rows.Scan(&rev.TenantID, &rev.Name, &revenueStr); err != nil {
			return nil, fmt.Errorf("scan tenant revenue: %w", err)
		}
		if rev.Revenue, err = decimal.NewFromString(revenueStr); err != nil {
			return nil, fmt.Errorf("parse revenue: %w", err)
		}
		revenues = append(revenues, rev)
	}

	return revenues, rows.Err()
}
