package api

import (
	"net/http"

	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/internal/domain/visibility"
)

type competitionRanksResponse struct {
	Data     []model.Row          `json:"data"`
	Metadata model.CutoffMetadata `json:"metadata"`
}

func (s *Server) handleCompetitionList(w http.ResponseWriter, _ *http.Request, _ model.Identity) {
	writeJSON(w, http.StatusOK, map[string][]model.Competition{"data": s.deps.Competitions()})
}

// handleCompetitionRanks handles
// GET /api/dashboard/competition/{competition_id}/{level}?region=&zone= and
// the legacy form without a competition id. Administrators may narrow with
// region and zone, and other national users with region. Everyone else is
// restricted by their identity.
func (s *Server) handleCompetitionRanks(w http.ResponseWriter, r *http.Request, id model.Identity) {
	const op = "api.get_competition_ranks"
	level, err := model.ParseLevel(r.PathValue("level"))
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	competitionID := r.PathValue("competition_id")
	if competitionID == "" {
		competitionID = s.defaultCompetition
	}

	override := model.Override{}
	switch {
	case id.IsAdmin():
		override.Region = r.URL.Query().Get("region")
		override.Zone = r.URL.Query().Get("zone")
	case id.IsNational():
		id.Region = visibility.EffectiveRegion(id, r.URL.Query().Get("region"))
	}

	key := model.CompetitionKey{CompetitionID: competitionID, Level: level}
	rows, err := s.deps.GetCompetitionRanks(r.Context(), key, id, override)
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	meta, err := s.deps.GetCutoff(r.Context())
	if err != nil {
		s.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, competitionRanksResponse{Data: rows, Metadata: meta})
}
