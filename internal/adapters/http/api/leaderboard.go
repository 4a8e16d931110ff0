package api

import (
	"net/http"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/internal/domain/visibility"
)

const defaultTopPerformers = 10

// regionOption is one entry of the region picker.
type regionOption struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	SalesmanCount int    `json:"salesman_count"`
}

// handleLeaderboard handles GET /api/leaderboard?limit=&division=&region=.
// Only national users may choose the region; everyone else is pinned.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, id model.Identity) {
	const op = "api.get_leaderboard"
	limit, err := queryLimit(r, 0)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	q := model.LeaderboardQuery{
		Region:   visibility.EffectiveRegion(id, r.URL.Query().Get("region")),
		Division: r.URL.Query().Get("division"),
		Limit:    limit,
	}
	rows, err := s.deps.GetLeaderboard(r.Context(), q)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleTopSummary handles GET /api/leaderboard/top-summary.
func (s *Server) handleTopSummary(w http.ResponseWriter, r *http.Request, id model.Identity) {
	out, err := s.deps.GetTopSummary(r.Context(), visibility.EffectiveRegion(id, ""))
	if err != nil {
		s.writeError(w, r, "api.get_top_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTopPerformers handles GET /api/leaderboard/top-performers?limit=.
func (s *Server) handleTopPerformers(w http.ResponseWriter, r *http.Request, id model.Identity) {
	const op = "api.get_top_performers"
	limit, err := queryLimit(r, defaultTopPerformers)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	out, err := s.deps.GetTopPerformers(r.Context(), visibility.EffectiveRegion(id, ""), limit)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDivisions(w http.ResponseWriter, r *http.Request, id model.Identity) {
	divisions, err := s.deps.GetDivisions(r.Context(), visibility.EffectiveRegion(id, ""))
	if err != nil {
		s.writeError(w, r, "api.get_divisions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"divisions": divisions})
}

// handleRegions lists every region for national users, prefixed by the
// national option, and only the requester's region otherwise.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request, id model.Identity) {
	if !id.IsNational() {
		region := visibility.EffectiveRegion(id, "")
		writeJSON(w, http.StatusOK, map[string][]regionOption{
			"regions": {{Code: region, Name: region}},
		})
		return
	}
	regions, err := s.deps.GetRegions(r.Context())
	if err != nil {
		s.writeError(w, r, "api.get_regions", err)
		return
	}
	out := make([]regionOption, 0, len(regions)+1)
	out = append(out, regionOption{Code: model.AllRegions, Name: "NATIONAL (ALL)"})
	for _, reg := range regions {
		out = append(out, regionOption{Code: reg, Name: reg})
	}
	writeJSON(w, http.StatusOK, map[string][]regionOption{"regions": out})
}

// handleCutoffDate handles GET /api/leaderboard/cutoff-date. It needs no identity.
func (s *Server) handleCutoffDate(w http.ResponseWriter, r *http.Request) {
	meta, err := s.deps.GetCutoff(r.Context())
	if err != nil {
		s.writeError(w, r, "api.get_cutoff_date", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*string{"cutoff_date": meta.TglUpdate})
}
