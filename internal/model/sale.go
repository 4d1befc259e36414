package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is one completed point-of-sale transaction. Sales are append-only
// history: created once by the transaction coordinator, never updated or
// deleted. Total is stored at creation, not recomputed on read.
type Sale struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []SaleItem      `json:"items"`
}

// SaleItem is one line within a sale. Price is a frozen copy of the product
// price at the moment of sale; later price changes never alter it.
type SaleItem struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
