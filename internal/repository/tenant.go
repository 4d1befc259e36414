package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/storage/db"
)

type TenantRepository interface {
	WithDB(db db.DB) TenantRepository
	GetTenant(ctx context.Context, tenantID uuid.UUID) (model.Tenant, error)
}

type tenantRepository struct {
	db db.DB
}

func NewTenantRepository(db db.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r tenantRepository) WithDB(db db.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r tenantRepository) GetTenant(ctx context.Context, tenantID uuid.UUID) (model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.QueryRow(ctx, `
		SELECT id, domain, name, created_at
		FROM tenants
		WHERE id = $1
	`, tenantID).Scan(&tenant.ID, &tenant.Domain, &tenant.Name, &tenant.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tenant{}, apperr.TenantNotFoundErr
	}
	if err != nil {
		return model.Tenant{}, fmt.Errorf("get tenant: %w", err)
	}

	return tenant, nil
}
