package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/realtime"
	"github.com/atandjijero/Saas/internal/repository"
	"github.com/atandjijero/Saas/internal/storage/db"
)

// ProductService covers the inventory reads and the restock path. Restocking
// runs under the same row-lock discipline as the sale path, so the two can
// never race a product's stock counter.
type ProductService interface {
	Restock(ctx context.Context, actor auth.Identity, tenantID, productID uuid.UUID, quantity int) (model.Product, error)
	ListProducts(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Product, error)
}

type productService struct {
	db     db.DB
	logger *slog.Logger

	productRepo repository.ProductRepository
	outboxRepo  repository.OutboxMsgRepository
	notifier    realtime.Notifier
}

func NewProductService(
	database db.DB,
	logger *slog.Logger,
	productRepo repository.ProductRepository,
	outboxRepo repository.OutboxMsgRepository,
	notifier realtime.Notifier,
) ProductService {
	return &productService{
		db:          database,
		logger:      logger.With(slog.String("service", "product")),
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		notifier:    notifier,
	}
}

func (s *productService) Restock(ctx context.Context, actor auth.Identity, tenantID, productID uuid.UUID, quantity int) (model.Product, error) {
	if !auth.Can(actor, auth.ActionRestock, tenantID) {
		return model.Product{}, apperr.TenantAccessDeniedErr
	}
	if quantity <= 0 {
		return model.Product{}, apperr.InvalidQuantityErr
	}

	var product model.Product
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		productRepo := s.productRepo.WithDB(tx)

		locked, err := productRepo.GetProductForUpdate(ctx, tenantID, productID)
		if err != nil {
			return err
		}

		newStock, err := productRepo.AdjustStock(ctx, tenantID, productID, quantity)
		if err != nil {
			return err
		}

		product = locked
		product.Stock = newStock

		return createStockUpdatedOutboxMsg(ctx, s.outboxRepo.WithDB(tx), tenantID, productID, newStock)
	}); err != nil {
		return model.Product{}, err
	}

	s.notifier.Publish(tenantID, realtime.StockUpdate(productID, product.Stock))

	s.logger.InfoContext(ctx, "product restocked",
		slog.String("product_id", productID.String()),
		slog.String("tenant_id", tenantID.String()),
		slog.Int("new_stock", product.Stock),
	)

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Product, error) {
	if !auth.Can(actor, auth.ActionReadProducts, tenantID) {
		return nil, apperr.TenantAccessDeniedErr
	}

	products, err := s.productRepo.ListProducts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}

	return products, nil
}
