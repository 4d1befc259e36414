package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/event"
	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/realtime"
	"github.com/atandjijero/Saas/internal/repository"
	"github.com/atandjijero/Saas/internal/storage/db"
	"github.com/atandjijero/Saas/pkg/ptr"
)

type CreateSaleItemParams struct {
	ProductID uuid.UUID
	Quantity  int
}

// SaleService is the transaction coordinator: it turns a list of
// (product, quantity) requests into exactly one committed sale, or fails
// with no partial effect.
type SaleService interface {
	CreateSale(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, items []CreateSaleItemParams) (model.Sale, error)
	ListSales(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Sale, error)
}

type saleService struct {
	db     db.DB
	logger *slog.Logger

	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	outboxRepo  repository.OutboxMsgRepository
	notifier    realtime.Notifier
}

func NewSaleService(
	database db.DB,
	logger *slog.Logger,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	outboxRepo repository.OutboxMsgRepository,
	notifier realtime.Notifier,
) SaleService {
	return &saleService{
		db:          database,
		logger:      logger.With(slog.String("service", "sale")),
		productRepo: productRepo,
		saleRepo:    saleRepo,
		outboxRepo:  outboxRepo,
		notifier:    notifier,
	}
}

type stockChange struct {
	productID uuid.UUID
	newStock  int
}

func (s *saleService) CreateSale(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, items []CreateSaleItemParams) (model.Sale, error) {
	if !auth.Can(actor, auth.ActionCreateSale, tenantID) {
		if actor.TenantID != tenantID {
			return model.Sale{}, apperr.TenantAccessDeniedErr
		}
		return model.Sale{}, apperr.SaleRoleForbiddenErr
	}

	if len(items) == 0 {
		return model.Sale{}, apperr.EmptySaleErr
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return model.Sale{}, apperr.InvalidQuantityErr
		}
	}

	saleID, err := uuid.NewV7()
	if err != nil {
		return model.Sale{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	// Lock rows in one global order so two sales naming the same products in
	// opposite order cannot deadlock each other.
	items = slices.Clone(items)
	slices.SortFunc(items, func(a, b CreateSaleItemParams) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})

	sale := model.Sale{
		ID:        saleID,
		TenantID:  tenantID,
		UserID:    actor.UserID,
		Total:     decimal.Zero,
		CreatedAt: time.Now(),
	}
	changes := make([]stockChange, 0, len(items))

	// Every row lock, stock check, decrement and insert happens inside one
	// transaction: either the whole sale commits or nothing does.
	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		productRepo := s.productRepo.WithDB(tx)
		outboxRepo := s.outboxRepo.WithDB(tx)

		for _, item := range items {
			product, err := productRepo.GetProductForUpdate(ctx, tenantID, item.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return apperr.InsufficientStockErr
			}

			itemID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate uuid v7: %w", err)
			}

			// Price is frozen here; later catalog changes never touch it.
			sale.Items = append(sale.Items, model.SaleItem{
				ID:        itemID,
				SaleID:    sale.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     product.Price,
			})
			sale.Total = sale.Total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))

			newStock, err := productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			changes = append(changes, stockChange{productID: item.ProductID, newStock: newStock})

			if err := createStockUpdatedOutboxMsg(ctx, outboxRepo, tenantID, item.ProductID, newStock); err != nil {
				return err
			}
		}

		if err := s.saleRepo.WithDB(tx).CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("sale repository create sale: %w", err)
		}

		if err := createSaleCompletedOutboxMsg(ctx, outboxRepo, sale); err != nil {
			return err
		}

		return nil
	}); err != nil {
		return model.Sale{}, err
	}

	// Fire-and-forget: a missed notification never unwinds a committed sale.
	for _, change := range changes {
		s.notifier.Publish(tenantID, realtime.StockUpdate(change.productID, change.newStock))
	}

	s.logger.InfoContext(ctx, "sale created",
		slog.String("sale_id", sale.ID.String()),
		slog.String("tenant_id", tenantID.String()),
		slog.String("total", sale.Total.String()),
		slog.Int("items", len(sale.Items)),
	)

	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Sale, error) {
	if !auth.Can(actor, auth.ActionReadSales, tenantID) {
		return nil, apperr.TenantAccessDeniedErr
	}

	sales, err := s.saleRepo.ListSales(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("sale repository list sales: %w", err)
	}

	return sales, nil
}

func createStockUpdatedOutboxMsg(ctx context.Context, outboxRepo repository.OutboxMsgRepository, tenantID, productID uuid.UUID, newStock int) error {
	payload, err := json.Marshal(event.StockUpdatedEvent{
		TenantID:  tenantID.String(),
		ProductID: productID.String(),
		NewStock:  newStock,
	})
	if err != nil {
		return fmt.Errorf("marshal stock updated event: %w", err)
	}

	if err := outboxRepo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        event.TopicStockUpdated,
		Payload:      payload,
		PartitionKey: ptr.New(tenantID.String()),
	}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

func createSaleCompletedOutboxMsg(ctx context.Context, outboxRepo repository.OutboxMsgRepository, sale model.Sale) error {
	ev := event.SaleCompletedEvent{
		SaleID:   sale.ID.String(),
		TenantID: sale.TenantID.String(),
		UserID:   sale.UserID.String(),
		Total:    sale.Total.String(),
	}
	for _, item := range sale.Items {
		ev.Items = append(ev.Items, event.SaleCompletedItem{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price.String(),
		})
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal sale completed event: %w", err)
	}

	if err := outboxRepo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        event.TopicSaleCompleted,
		Payload:      payload,
		PartitionKey: ptr.New(sale.TenantID.String()),
	}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}
