package realtime

import (
	"github.com/google/uuid"
)

const (
	// EventStockUpdate is pushed to a tenant's group whenever a committed
	// sale or restock changes a product's stock.
	EventStockUpdate = "stock-update"

	// EventJoinTenant is sent by clients to join their tenant's group.
	EventJoinTenant = "join-tenant"
)

// Event is one message on the realtime channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// StockUpdateData is the payload of an EventStockUpdate.
type StockUpdateData struct {
	ProductID string `json:"productId"`
	NewStock  int    `json:"newStock"`
}

// StockUpdate builds a stock-update event for one product.
func StockUpdate(productID uuid.UUID, newStock int) Event {
	return Event{
		Name: EventStockUpdate,
		Data: StockUpdateData{
			ProductID: productID.String(),
			NewStock:  newStock,
		},
	}
}

// Notifier fans events out to a tenant's connected clients. Delivery is
// best-effort and at-most-once per connection; publishers never block on it
// and never learn about delivery failures.
type Notifier interface {
	Publish(tenantID uuid.UUID, ev Event)
}
