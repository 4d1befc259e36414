package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
)

type revenueResponse struct {
	TotalRevenue string `json:"totalRevenue"`
}

type tenantRevenueResponse struct {
	TenantID uuid.UUID `json:"tenantId"`
	Name     string    `json:"name"`
	Revenue  string    `json:"revenue"`
}

func (s *Service) handleGetRevenue(w http.ResponseWriter, r *http.Request) {
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

	from, err := parseDateParam(r.URL.Query().Get("startDate"), false)
	if err != nil {
		s.respondError(w, r, apperr.ValidationErr.WithMsg("startDate must be an RFC 3339 timestamp or a YYYY-MM-DD date"))
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("endDate"), true)
	if err != nil {
		s.respondError(w, r, apperr.ValidationErr.WithMsg("endDate must be an RFC 3339 timestamp or a YYYY-MM-DD date"))
		return
	}

	total, err := s.statsSvc.GetRevenue(r.Context(), actor, tenantID, from, to)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, http.StatusOK, revenueResponse{TotalRevenue: total.String()})
}

func (s *Service) handleGetAllTenantsRevenue(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		s.respondError(w, r, apperr.MissingTokenErr)
		return
	}

	rows, err := s.statsSvc.GetAllTenantsRevenue(r.Context(), actor)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res := make([]tenantRevenueResponse, len(rows))
	for i, row := range rows {
		res[i] = tenantRevenueResponse{
			TenantID: row.TenantID,
			Name:     row.Name,
			Revenue:  row.Revenue.String(),
		}
	}
	s.respondJSON(w, r, http.StatusOK, res)
}

// parseDateParam accepts RFC 3339 timestamps or bare dates. A bare end date
// widens to the last instant of that day so the range is inclusive.
func parseDateParam(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
