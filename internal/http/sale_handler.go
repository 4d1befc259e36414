package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/model"
	"github.com/atandjijero/Saas/internal/service"
)

type createSaleItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type createSaleRequest struct {
	Items []createSaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type saleItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
}

type saleResponse struct {
	ID        uuid.UUID          `json:"id"`
	TenantID  uuid.UUID          `json:"tenantId"`
	UserID    uuid.UUID          `json:"userId"`
	Total     string             `json:"total"`
	CreatedAt time.Time          `json:"createdAt"`
	Items     []saleItemResponse `json:"items"`
}

func newSaleResponse(sale model.Sale) saleResponse {
	items := make([]saleItemResponse, len(sale.Items))
	for i, it := range sale.Items {
		items[i] = saleItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.String(),
		}
	}
	return saleResponse{
		ID:        sale.ID,
		TenantID:  sale.TenantID,
		UserID:    sale.UserID,
		Total:     sale.Total.String(),
		CreatedAt: sale.CreatedAt,
		Items:     items,
	}
}

func (s *Service) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		s.respondError(w, r, apperr.MissingTokenErr)
		return
	}

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantId"))
	if err != nil {
		s.respondError(w, r, apperr.ValidationErr.WithMsg("tenantId must be a valid UUID"))
		return
	}

	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, apperr.ValidationErr.WithMsg("invalid request body"))
		return
	}
	if err := s.validate.Validate(req); err != nil {
		s.respondError(w, r, err)
		return
	}

	items := make([]service.CreateSaleItemParams, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CreateSaleItemParams{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		}
	}

	sale, err := s.saleSvc.CreateSale(r.Context(), actor, tenantID, items)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusCreated, newSaleResponse(sale))
}

func (s *Service) handleListSales(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		s.respondError(w, r, apperr.MissingTokenErr)
		return
	}

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantId"))
	if err != nil {
		s.respondError(w, r, apperr.ValidationErr.WithMsg("tenantId must be a valid UUID"))
		return
	}

	sales, err := s.saleSvc.ListSales(r.Context(), actor, tenantID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res := make([]saleResponse, len(sales))
	for i, sale := range sales {
		res[i] = newSaleResponse(sale)
	}
	s.respondJSON(w, r, http.StatusOK, res)
}
