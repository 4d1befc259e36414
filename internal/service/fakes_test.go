package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/realtime"
	"github.com/atandjijero/Saas/internal/repository"
	"github.com/atandjijero/Saas/internal/storage/db"
)

// fakeStore is a shared in-memory database used by the fake repositories.
// fakeDB.WithTx snapshots it before running the transaction function and
// restores the snapshot when the function fails, so service-level atomicity
// is observable in tests.
type fakeStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
	sales    []model.Sale
	outbox   []repository.CreateOutboxMsgParams
	tenants  map[uuid.UUID]model.Tenant
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[uuid.UUID]model.Product),
		tenants:  make(map[uuid.UUID]model.Tenant),
	}
}

func (s *fakeStore) addProduct(tenantID uuid.UUID, price string, stock int) model.Product {
	p := model.Product{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "product-" + uuid.NewString()[:8],
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
	s.products[p.ID] = p
	return p
}

func (s *fakeStore) snapshot() *fakeStore {
	products := make(map[uuid.UUID]model.Product, len(s.products))
	for id, p := range s.products {
		products[id] = p
	}
	return &fakeStore{
		products: products,
		sales:    append([]model.Sale(nil), s.sales...),
		outbox:   append([]repository.CreateOutboxMsgParams(nil), s.outbox...),
		tenants:  s.tenants,
	}
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.products = snap.products
	s.sales = snap.sales
	s.outbox = snap.outbox
}

type fakeDB struct {
	store *fakeStore
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (f *fakeDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

// WithTx serializes transactions with the store mutex, matching the
// serialization row locks give the real implementation.
func (f *fakeDB) WithTx(ctx context.Context, txFunc func(db.DB) error) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	snap := f.store.snapshot()
	if err := txFunc(f); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type fakeProductRepo struct {
	store *fakeStore

	// lockOrder records the sequence of row locks taken.
	lockOrder []uuid.UUID
}

func (r *fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r *fakeProductRepo) GetProduct(_ context.Context, tenantID, productID uuid.UUID) (model.Product, error) {
	p, ok := r.store.products[productID]
	if !ok || p.TenantID != tenantID {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	return p, nil
}

func (r *fakeProductRepo) GetProductForUpdate(ctx context.Context, tenantID, productID uuid.UUID) (model.Product, error) {
	r.lockOrder = append(r.lockOrder, productID)
	return r.GetProduct(ctx, tenantID, productID)
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) (int, error) {
	p, ok := r.store.products[productID]
	if !ok || p.Stock < quantity {
		return 0, apperr.InsufficientStockErr
	}
	p.Stock -= quantity
	r.store.products[productID] = p
	return p.Stock, nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, tenantID, productID uuid.UUID, delta int) (int, error) {
	p, ok := r.store.products[productID]
	if !ok || p.TenantID != tenantID || p.Stock+delta < 0 {
		return 0, apperr.InsufficientStockErr
	}
	p.Stock += delta
	r.store.products[productID] = p
	return p.Stock, nil
}

func (r *fakeProductRepo) ListProducts(_ context.Context, tenantID uuid.UUID) ([]model.Product, error) {
	products := make([]model.Product, 0)
	for _, p := range r.store.products {
		if p.TenantID == tenantID {
			products = append(products, p)
		}
	}
	return products, nil
}

type fakeSaleRepo struct {
	store *fakeStore

	sumTotalsFn func(tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error)
}

func (r *fakeSaleRepo) WithDB(db.DB) repository.SaleRepository { return r }

func (r *fakeSaleRepo) CreateSale(_ context.Context, sale model.Sale) error {
	r.store.sales = append(r.store.sales, sale)
	return nil
}

func (r *fakeSaleRepo) ListSales(_ context.Context, tenantID uuid.UUID) ([]model.Sale, error) {
	sales := make([]model.Sale, 0)
	for _, s := range r.store.sales {
		if s.TenantID == tenantID {
			sales = append(sales, s)
		}
	}
	return sales, nil
}

func (r *fakeSaleRepo) SumTotals(_ context.Context, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	if r.sumTotalsFn != nil {
		return r.sumTotalsFn(tenantID, from, to)
	}
	total := decimal.Zero
	for _, s := range r.store.sales {
		if s.TenantID == tenantID {
			total = total.Add(s.Total)
		}
	}
	return total, nil
}

func (r *fakeSaleRepo) SumTotalsByTenant(context.Context) ([]repository.TenantRevenue, error) {
	byTenant := make(map[uuid.UUID]decimal.Decimal)
	for _, s := range r.store.sales {
		byTenant[s.TenantID] = byTenant[s.TenantID].Add(s.Total)
	}
	revenues := make([]repository.TenantRevenue, 0, len(r.store.tenants))
	for id, t := range r.store.tenants {
		revenues = append(revenues, repository.TenantRevenue{
			TenantID: id,
			Name:     t.Name,
			Revenue:  byTenant[id],
		})
	}
	return revenues, nil
}

type fakeTenantRepo struct {
	store *fakeStore
}

func (r *fakeTenantRepo) WithDB(db.DB) repository.TenantRepository { return r }

func (r *fakeTenantRepo) GetTenant(_ context.Context, tenantID uuid.UUID) (model.Tenant, error) {
	t, ok := r.store.tenants[tenantID]
	if !ok {
		return model.Tenant{}, apperr.TenantNotFoundErr
	}
	return t, nil
}

type fakeOutboxRepo struct {
	store *fakeStore
}

func (r *fakeOutboxRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.store.outbox = append(r.store.outbox, params)
	return nil
}

func (r *fakeOutboxRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

type publishedEvent struct {
	tenantID uuid.UUID
	event    realtime.Event
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *fakeNotifier) Publish(tenantID uuid.UUID, ev realtime.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{tenantID: tenantID, event: ev})
}

func (n *fakeNotifier) published() []publishedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]publishedEvent(nil), n.events...)
}
