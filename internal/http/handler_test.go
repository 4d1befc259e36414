package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/config"
	saashttp "github.com/atandjijero/Saas/internal/http"
	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/realtime"
	"github.com/atandjijero/Saas/internal/repository"
	"github.com/atandjijero/Saas/internal/service"
)

type fakeSaleService struct {
	createFn func(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, items []service.CreateSaleItemParams) (model.Sale, error)
	listFn   func(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Sale, error)
}

func (f *fakeSaleService) CreateSale(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, items []service.CreateSaleItemParams) (model.Sale, error) {
	return f.createFn(ctx, actor, tenantID, items)
}

func (f *fakeSaleService) ListSales(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Sale, error) {
	return f.listFn(ctx, actor, tenantID)
}

type fakeStatsService struct {
	revenueFn func(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error)
	allFn     func(ctx context.Context, actor auth.Identity) ([]repository.TenantRevenue, error)
}

func (f *fakeStatsService) GetRevenue(ctx context.Context, actor auth.Identity, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	return f.revenueFn(ctx, actor, tenantID, from, to)
}

func (f *fakeStatsService) GetAllTenantsRevenue(ctx context.Context, actor auth.Identity) ([]repository.TenantRevenue, error) {
	return f.allFn(ctx, actor)
}

type fakeProductService struct {
	restockFn func(ctx context.Context, actor auth.Identity, tenantID, productID uuid.UUID, quantity int) (model.Product, error)
	listFn    func(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Product, error)
}

func (f *fakeProductService) Restock(ctx context.Context, actor auth.Identity, tenantID, productID uuid.UUID, quantity int) (model.Product, error) {
	return f.restockFn(ctx, actor, tenantID, productID, quantity)
}

func (f *fakeProductService) ListProducts(ctx context.Context, actor auth.Identity, tenantID uuid.UUID) ([]model.Product, error) {
	return f.listFn(ctx, actor, tenantID)
}

type stubHealth struct {
	healthy bool
}

func (h stubHealth) IsHealthy(context.Context) (bool, error) {
	if !h.healthy {
		return false, errors.New("database unreachable")
	}
	return true, nil
}

type fixture struct {
	router   chi.Router
	verifier *auth.JWTVerifier
	hub      *realtime.Hub

	saleSvc    *fakeSaleService
	statsSvc   *fakeStatsService
	productSvc *fakeProductService
}

func newFixture() *fixture {
	logger := slog.New(slog.DiscardHandler)
	verifier := auth.NewJWTVerifier(config.Auth{JWTSecret: "test-secret"})
	hub := realtime.NewHub(logger)

	saleSvc := &fakeSaleService{}
	statsSvc := &fakeStatsService{}
	productSvc := &fakeProductService{}

	svc := saashttp.New(config.HTTP{Port: 0}, logger, verifier, stubHealth{healthy: true}, saleSvc, statsSvc, productSvc, hub)
	r := chi.NewRouter()
	svc.RegisterHandlers(r)

	return &fixture{
		router:     r,
		verifier:   verifier,
		hub:        hub,
		saleSvc:    saleSvc,
		statsSvc:   statsSvc,
		productSvc: productSvc,
	}
}

func (f *fixture) token(t *testing.T, identity auth.Identity) string {
	t.Helper()
	token, err := f.verifier.Sign(identity, time.Minute)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestCreateSaleHandler(t *testing.T) {
	tenantID := uuid.New()
	seller := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: auth.RoleVendeur}

	t.Run("Should create a sale and render camelCase money as text", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		f.saleSvc.createFn = func(_ context.Context, actor auth.Identity, tid uuid.UUID, items []service.CreateSaleItemParams) (model.Sale, error) {
			assert.Equal(t, seller.UserID, actor.UserID)
			assert.Equal(t, tenantID, tid)
			require.Len(t, items, 1)
			assert.Equal(t, productID, items[0].ProductID)
			assert.Equal(t, 2, items[0].Quantity)
			return model.Sale{
				ID:       uuid.New(),
				TenantID: tid,
				UserID:   actor.UserID,
				Total:    decimal.RequireFromString("7.00"),
				Items: []model.SaleItem{{
					ID:        uuid.New(),
					ProductID: productID,
					Quantity:  2,
					Price:     decimal.RequireFromString("3.50"),
				}},
			}, nil
		}

		body := `{"items":[{"productId":"` + productID.String() + `","quantity":2}]}`
		req := httptest.NewRequest(http.MethodPost, "/sales/"+tenantID.String(), strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+f.token(t, seller))

		resp := f.do(req)
		require.Equal(t, http.StatusCreated, resp.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, "7.00", got["total"])
		items, ok := got["items"].([]any)
		require.True(t, ok)
		require.Len(t, items, 1)
		assert.Equal(t, "3.50", items[0].(map[string]any)["price"])
	})

	t.Run("Should reject a request without a token", func(t *testing.T) {
		f := newFixture()
		req := httptest.NewRequest(http.MethodPost, "/sales/"+tenantID.String(), strings.NewReader(`{}`))

		resp := f.do(req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("Should reject an empty items array with field details", func(t *testing.T) {
		f := newFixture()
		req := httptest.NewRequest(http.MethodPost, "/sales/"+tenantID.String(), strings.NewReader(`{"items":[]}`))
		req.Header.Set("Authorization", "Bearer "+f.token(t, seller))

		resp := f.do(req)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should reject a malformed tenant id", func(t *testing.T) {
		f := newFixture()
		req := httptest.NewRequest(http.MethodPost, "/sales/not-a-uuid", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+f.token(t, seller))

		resp := f.do(req)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should map insufficient stock to 409", func(t *testing.T) {
		f := newFixture()
		f.saleSvc.createFn = func(context.Context, auth.Identity, uuid.UUID, []service.CreateSaleItemParams) (model.Sale, error) {
			return model.Sale{}, apperr.InsufficientStockErr
		}

		body := `{"items":[{"productId":"` + uuid.NewString() + `","quantity":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/sales/"+tenantID.String(), strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+f.token(t, seller))

		resp := f.do(req)
		require.Equal(t, http.StatusConflict, resp.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, "INSUFFICIENT_STOCK", got["code"])
	})
}

func TestRevenueHandlers(t *testing.T) {
	tenantID := uuid.New()
	director := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: auth.RoleDirecteur}

	t.Run("Should report the tenant's revenue", func(t *testing.T) {
		f := newFixture()
		f.statsSvc.revenueFn = func(_ context.Context, _ auth.Identity, _ uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
			require.NotNil(t, from)
			require.NotNil(t, to)
			assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from.UTC())
			// A bare end date widens to the last instant of that day.
			assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), to.UTC())
			return decimal.RequireFromString("150.25"), nil
		}

		req := httptest.NewRequest(http.MethodGet,
			"/stats/revenue/"+tenantID.String()+"?startDate=2026-01-01&endDate=2026-01-31", nil)
		req.Header.Set("Authorization", "Bearer "+f.token(t, director))

		resp := f.do(req)
		require.Equal(t, http.StatusOK, resp.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, "150.25", got["totalRevenue"])
	})

	t.Run("Should reject an unparseable date", func(t *testing.T) {
		f := newFixture()
		req := httptest.NewRequest(http.MethodGet,
			"/stats/revenue/"+tenantID.String()+"?startDate=january", nil)
		req.Header.Set("Authorization", "Bearer "+f.token(t, director))

		resp := f.do(req)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should report all tenants for superadmin", func(t *testing.T) {
		f := newFixture()
		admin := auth.Identity{UserID: uuid.New(), Role: auth.RoleSuperadmin}
		f.statsSvc.allFn = func(context.Context, auth.Identity) ([]repository.TenantRevenue, error) {
			return []repository.TenantRevenue{
				{TenantID: tenantID, Name: "acme", Revenue: decimal.RequireFromString("99.90")},
			}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/stats/all-revenue", nil)
		req.Header.Set("Authorization", "Bearer "+f.token(t, admin))

		resp := f.do(req)
		require.Equal(t, http.StatusOK, resp.Code)

		var got []map[string]string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "acme", got[0]["name"])
		assert.Equal(t, "99.90", got[0]["revenue"])
	})

	t.Run("Should map a policy denial to 403", func(t *testing.T) {
		f := newFixture()
		f.statsSvc.allFn = func(context.Context, auth.Identity) ([]repository.TenantRevenue, error) {
			return nil, apperr.TenantAccessDeniedErr
		}

		req := httptest.NewRequest(http.MethodGet, "/stats/all-revenue", nil)
		req.Header.Set("Authorization", "Bearer "+f.token(t, director))

		resp := f.do(req)
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestRestockHandler(t *testing.T) {
	tenantID := uuid.New()
	manager := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: auth.RoleGerant}

	t.Run("Should restock and return the product", func(t *testing.T) {
		f := newFixture()
		productID := uuid.New()
		f.productSvc.restockFn = func(_ context.Context, _ auth.Identity, _, pid uuid.UUID, quantity int) (model.Product, error) {
			assert.Equal(t, productID, pid)
			assert.Equal(t, 5, quantity)
			return model.Product{ID: pid, TenantID: tenantID, Stock: 12, Price: decimal.RequireFromString("3.50")}, nil
		}

		req := httptest.NewRequest(http.MethodPost,
			"/products/"+tenantID.String()+"/"+productID.String()+"/restock",
			strings.NewReader(`{"quantity":5}`))
		req.Header.Set("Authorization", "Bearer "+f.token(t, manager))

		resp := f.do(req)
		require.Equal(t, http.StatusOK, resp.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, float64(12), got["stock"])
	})

	t.Run("Should reject a zero quantity", func(t *testing.T) {
		f := newFixture()
		req := httptest.NewRequest(http.MethodPost,
			"/products/"+tenantID.String()+"/"+uuid.NewString()+"/restock",
			strings.NewReader(`{"quantity":0}`))
		req.Header.Set("Authorization", "Bearer "+f.token(t, manager))

		resp := f.do(req)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestHealthz(t *testing.T) {
	t.Run("Should report ok without authentication", func(t *testing.T) {
		f := newFixture()
		resp := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestWebsocket(t *testing.T) {
	tenantID := uuid.New()
	seller := auth.Identity{UserID: uuid.New(), TenantID: tenantID, Role: auth.RoleVendeur}

	dial := func(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	t.Run("Should push stock updates to a joined tenant", func(t *testing.T) {
		f := newFixture()
		srv := httptest.NewServer(f.router)
		defer srv.Close()

		conn := dial(t, srv, f.token(t, seller))
		err := conn.WriteJSON(map[string]string{"event": "join-tenant", "tenantId": tenantID.String()})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return f.hub.SubscriberCount(tenantID) == 1
		}, time.Second, 10*time.Millisecond)

		productID := uuid.New()
		f.hub.Publish(tenantID, realtime.StockUpdate(productID, 4))

		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var got struct {
			Event string `json:"event"`
			Data  struct {
				ProductID string `json:"productId"`
				NewStock  int    `json:"newStock"`
			} `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "stock-update", got.Event)
		assert.Equal(t, productID.String(), got.Data.ProductID)
		assert.Equal(t, 4, got.Data.NewStock)
	})

	t.Run("Should refuse the handshake without a token", func(t *testing.T) {
		f := newFixture()
		srv := httptest.NewServer(f.router)
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Should deny joining another tenant's group", func(t *testing.T) {
		f := newFixture()
		srv := httptest.NewServer(f.router)
		defer srv.Close()

		otherTenant := uuid.New()
		conn := dial(t, srv, f.token(t, seller))
		err := conn.WriteJSON(map[string]string{"event": "join-tenant", "tenantId": otherTenant.String()})
		require.NoError(t, err)

		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var got struct {
			Event string `json:"event"`
			Data  struct {
				Message string `json:"message"`
			} `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "error", got.Event)
		assert.Equal(t, "access denied", got.Data.Message)
		assert.Zero(t, f.hub.SubscriberCount(otherTenant))
	})
}
