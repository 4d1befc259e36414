package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var _ Notifier = (*Hub)(nil)

// Hub keeps the per-tenant registry of live connections. Connect and
// disconnect mutate it concurrently with broadcasts, so access is
// mutex-guarded; there are no transactional semantics here, a missed
// notification is tolerable.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	groups map[uuid.UUID]map[*Client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With(slog.String("service", "realtime")),
		groups: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Subscribe adds the client to the tenant's broadcast group.
func (h *Hub) Subscribe(tenantID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[tenantID]
	if !ok {
		group = make(map[*Client]struct{})
		h.groups[tenantID] = group
	}
	group[c] = struct{}{}
}

// Unsubscribe removes the client from the tenant's broadcast group.
func (h *Hub) Unsubscribe(tenantID uuid.UUID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.groups[tenantID]
	if !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.groups, tenantID)
	}
}

// Publish sends the event to every client currently in the tenant's group.
// Clients whose send buffer is full miss the event; they reconcile by
// re-fetching authoritative state.
func (h *Hub) Publish(tenantID uuid.UUID, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal realtime event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[tenantID] {
		select {
		case c.send <- payload:
		default:
			h.logger.Debug("dropping realtime event, client send buffer full",
				slog.String("tenant_id", tenantID.String()))
		}
	}
}

// SubscriberCount reports the size of a tenant's group.
func (h *Hub) SubscriberCount(tenantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[tenantID])
}
