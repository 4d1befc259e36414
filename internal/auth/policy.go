package auth

import "github.com/google/uuid"

// Action names an operation gated by the authorization policy.
type Action string

const (
	ActionCreateSale     Action = "sale.create"
	ActionReadSales      Action = "sale.read"
	ActionRestock        Action = "product.restock"
	ActionReadProducts   Action = "product.read"
	ActionReadRevenue    Action = "stats.revenue.read"
	ActionReadAllRevenue Action = "stats.all_revenue.read"
	ActionSubscribeStock Action = "stock.subscribe"
)

// Can decides whether the actor may perform the action against the tenant.
// All role rules live here; callers never compare role strings themselves.
func Can(actor Identity, action Action, tenantID uuid.UUID) bool {
	sameTenant := actor.TenantID == tenantID

	switch action {
	case ActionCreateSale:
		// Selling is always tenant-local, superadmin included.
		return sameTenant && (actor.Role == RoleVendeur || actor.Role == RoleDirecteur)
	case ActionRestock:
		return sameTenant && (actor.Role == RoleGerant || actor.Role == RoleDirecteur)
	case ActionReadSales, ActionReadProducts, ActionReadRevenue, ActionSubscribeStock:
		return sameTenant || actor.Role == RoleSuperadmin
	case ActionReadAllRevenue:
		return actor.Role == RoleSuperadmin
	default:
		return false
	}
}
