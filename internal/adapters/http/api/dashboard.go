package api

import (
	"net/http"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/internal/domain/visibility"
)

// handleKPIs handles GET /api/dashboard/kpis for the requester's region.
func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request, id model.Identity) {
	kpi, err := s.deps.GetKPIs(r.Context(), visibility.EffectiveRegion(id, r.URL.Query().Get("region")))
	if err != nil {
		s.writeError(w, r, "api.get_kpis", err)
		return
	}
	writeJSON(w, http.StatusOK, kpi)
}

// handleSalesTrend handles GET /api/dashboard/sales-trend.
func (s *Server) handleSalesTrend(w http.ResponseWriter, r *http.Request, id model.Identity) {
	trend, err := s.deps.GetSalesTrend(r.Context(), visibility.EffectiveRegion(id, r.URL.Query().Get("region")))
	if err != nil {
		s.writeError(w, r, "api.get_sales_trend", err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

// handleRegionComparison handles GET /api/dashboard/region-comparison.
// It is restricted to national users.
func (s *Server) handleRegionComparison(w http.ResponseWriter, r *http.Request, id model.Identity) {
	const op = "api.get_region_comparison"
	if !id.IsNational() {
		s.writeError(w, r, op, ErrNational)
		return
	}
	out, err := s.deps.GetRegionComparison(r.Context())
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
