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
)

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type productResponse struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newProductResponse(p model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (s *Service) handleRestock(w http.ResponseWriter, r *http.Request) {
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
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		s.respondError(w, r, apperr.ValidationErr.WithMsg("productId must be a valid UUID"))
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, apperr.ValidationErr.WithMsg("invalid request body"))
		return
	}
	if err := s.validate.Validate(req); err != nil {
		s.respondError(w, r, err)
		return
	}

	product, err := s.productSvc.Restock(r.Context(), actor, tenantID, productID, req.Quantity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, newProductResponse(product))
}

func (s *Service) handleListProducts(w http.ResponseWriter, r *http.Request) {
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

	products, err := s.productSvc.ListProducts(r.Context(), actor, tenantID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res := make([]productResponse, len(products))
	for i, p := range products {
		res[i] = newProductResponse(p)
	}
	s.respondJSON(w, r, http.StatusOK, res)
}
