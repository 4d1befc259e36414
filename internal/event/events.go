package event

const (
	// TopicStockUpdated carries one message per sale line item (and per
	// restock) with the stock level after the change.
	TopicStockUpdated = "stock.updated"

	// TopicSaleCompleted carries one message per committed sale.
	TopicSaleCompleted = "sale.completed"
)

type StockUpdatedEvent struct {
	TenantID  string `json:"tenant_id"`
	ProductID string `json:"product_id"`
	NewStock  int    `json:"new_stock"`
}

type SaleCompletedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type SaleCompletedEvent struct {
	SaleID   string              `json:"sale_id"`
	TenantID string              `json:"tenant_id"`
	UserID   string              `json:"user_id"`
	Total    string              `json:"total"`
	Items    []SaleCompletedItem `json:"items"`
}
