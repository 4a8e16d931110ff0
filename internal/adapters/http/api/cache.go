package api

import (
	"net/http"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
)

type refreshResponse struct {
	Status string          `json:"status"`
	Info   model.CacheInfo `json:"info"`
}

func (s *Server) handleCacheInfo(w http.ResponseWriter, _ *http.Request, _ model.Identity) {
	writeJSON(w, http.StatusOK, s.deps.GetCacheInfo())
}

// handleCacheRefresh rebuilds the cache synchronously. Administrators only.
func (s *Server) handleCacheRefresh(w http.ResponseWriter, r *http.Request, id model.Identity) {
	const op = "api.force_refresh"
	if !id.IsAdmin() {
		s.writeError(w, r, op, ErrAdminOnly)
		return
	}
	if err := s.deps.ForceRefresh(r.Context()); err != nil {
		s.writeError(w, r, op, err)
		return
	}
	s.logger.Info(r.Context(), "cache refreshed on demand",
		logger.String("email", id.Email),
		logger.String("request_id", RequestID(r.Context())))
	writeJSON(w, http.StatusOK, refreshResponse{Status: "refreshed", Info: s.deps.GetCacheInfo()})
}
