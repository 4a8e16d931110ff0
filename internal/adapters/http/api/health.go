package api

import (
	"net/http"

	"github.com/okian/salesboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Cache    cacheHealth       `json:"cache"`
}

type cacheHealth struct {
	Stale        bool `json:"stale"`
	TotalRecords int  `json:"total_records"`
	Warm         bool `json:"warm"`
}

// handleHealth handles GET /health. A stale or cold cache degrades the
// status but still answers 200 since reads fall back to the warehouse.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	info := s.deps.GetCacheInfo()
	resp := healthResponse{
		Status:   "healthy",
		Services: map[string]string{"api": "operational", "cache": "operational"},
		Cache: cacheHealth{
			Stale:        info.Stale,
			TotalRecords: info.TotalRecords,
			Warm:         info.LastRefresh != nil,
		},
	}
	if info.Stale || info.LastRefresh == nil {
		resp.Status = "degraded"
		resp.Services["cache"] = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMetrics handles GET /healthz and GET /metrics with the Prometheus exposition of our registry.
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
