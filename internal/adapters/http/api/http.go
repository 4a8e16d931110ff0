// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/salesboard/internal/domain/aggregate"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
)

// DefaultCompetitionID is served by the legacy competition route.
const DefaultCompetitionID = "amo_jan_2026"

// Dependencies are the analytical cache operations the handlers call.
type Dependencies interface {
	GetLeaderboard(ctx context.Context, q model.LeaderboardQuery) ([]model.Row, error)
	GetTopSummary(ctx context.Context, region string) ([]aggregate.Champion, error)
	GetTopPerformers(ctx context.Context, region string, limit int) ([]aggregate.Performer, error)
	GetDivisions(ctx context.Context, region string) ([]string, error)
	GetRegions(ctx context.Context) ([]string, error)
	GetCutoff(ctx context.Context) (model.CutoffMetadata, error)

	GetKPIs(ctx context.Context, region string) (aggregate.KPI, error)
	GetSalesTrend(ctx context.Context, region string) ([]aggregate.Period, error)
	GetRegionComparison(ctx context.Context) ([]aggregate.RegionSummary, error)

	Competitions() []model.Competition
	GetCompetitionRanks(ctx context.Context, key model.CompetitionKey, id model.Identity, override model.Override) ([]model.Row, error)

	GetCacheInfo() model.CacheInfo
	ForceRefresh(ctx context.Context) error
}

// Authenticator resolves the Authorization header into the requester.
type Authenticator interface {
	Resolve(ctx context.Context, authorization string) (model.Identity, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps   Dependencies
	auth   Authenticator
	logger logger.Logger

	defaultCompetition string
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultCompetition sets the competition served by the legacy route.
func WithDefaultCompetition(id string) Option {
	return func(s *Server) {
		if id != "" {
			s.defaultCompetition = id
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, auth Authenticator, opts ...Option) *Server {
	s := &Server{
		deps:               deps,
		auth:               auth,
		logger:             logger.Get().Named("api"),
		defaultCompetition: DefaultCompetitionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}

	route("GET /health", "health", s.handleHealth)
	route("GET /healthz", "healthz", handleMetrics)
	route("GET /metrics", "metrics", handleMetrics)

	route("GET /api/leaderboard", "leaderboard", s.authed(s.handleLeaderboard))
	route("GET /api/leaderboard/top-summary", "top_summary", s.authed(s.handleTopSummary))
	route("GET /api/leaderboard/top-performers", "top_performers", s.authed(s.handleTopPerformers))
	route("GET /api/leaderboard/divisions", "divisions", s.authed(s.handleDivisions))
	route("GET /api/leaderboard/regions", "regions", s.authed(s.handleRegions))
	route("GET /api/leaderboard/cutoff-date", "cutoff_date", s.handleCutoffDate)

	route("GET /api/dashboard/kpis", "kpis", s.authed(s.handleKPIs))
	route("GET /api/dashboard/sales-trend", "sales_trend", s.authed(s.handleSalesTrend))
	route("GET /api/dashboard/region-comparison", "region_comparison", s.authed(s.handleRegionComparison))

	route("GET /api/competitions/list", "competitions", s.authed(s.handleCompetitionList))
	route("GET /api/dashboard/competition/{competition_id}/{level}", "competition_ranks", s.authed(s.handleCompetitionRanks))
	route("GET /api/dashboard/competition/{level}", "competition_ranks_legacy", s.authed(s.handleCompetitionRanks))

	route("GET /api/cache/info", "cache_info", s.authed(s.handleCacheInfo))
	route("POST /api/cache/refresh", "cache_refresh", s.authed(s.handleCacheRefresh))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status through its sentinel kind. Server side
// failures are logged and answered with the status text only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("request_id", RequestID(r.Context())),
			logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// queryLimit parses an optional positive limit. Absent yields fallback.
func queryLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q: %w", raw, ErrBadRequest)
	}
	return n, nil
}
