package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/repository"
)

// StatsService is the read-side revenue aggregator over the sale ledger. It
// never writes, and stays out of the sale write path entirely.
type StatsService interface {
	// GetRevenue sums sale totals for one tenant, bounded inclusively by
	// from/to when given. No sales is decimal zero, not an error.
	GetRevenue(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error)
	GetAllTenantsRevenue(ctx context.Context, actor auth.Identity) ([]repository.TenantRevenue, error)
}

type statsService struct {
	saleRepo   repository.SaleRepository
	tenantRepo repository.TenantRepository
}

func NewStatsService(saleRepo repository.SaleRepository, tenantRepo repository.TenantRepository) StatsService {
	return &statsService{
		saleRepo:   saleRepo,
		tenantRepo: tenantRepo,
	}
}

func (s *statsService) GetRevenue(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	if !auth.Can(actor, auth.ActionReadRevenue, tenantID) {
		return decimal.Zero, apperr.TenantAccessDeniedErr
	}

	if _, err := s.tenantRepo.GetTenant(ctx, tenantID); err != nil {
		return decimal.Zero, err
	}

	total, err := s.saleRepo.SumTotals(ctx, tenantID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sale repository sum totals: %w", err)
	}

	return total, nil
}

func (s *statsService) GetAllTenantsRevenue(ctx context.Context, actor auth.Identity) ([]repository.TenantRevenue, error) {
	if !auth.Can(actor, auth.ActionReadAllRevenue, uuid.Nil) {
		return nil, apperr.TenantAccessDeniedErr
	}

	revenues, err := s.saleRepo.SumTotalsByTenant(ctx)
	if err != nil {
		return nil, fmt.Errorf("sale repository sum totals by tenant: %w", err)
	}

	return revenues, nil
}
