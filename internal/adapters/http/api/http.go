// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/model"
	"github.com/jeffweisbein/roon-wrapped-sub000/internal/domain/query"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service wiring.
type Dependencies interface {
	// Enqueue pushes an event for async processing. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, e model.PlayEvent) bool

	// Read operations over the progress store.
	Compare(ctx context.Context, names []string) *query.Comparison
	AlbumsFor(ctx context.Context, name string) *query.AlbumComparison
	Trajectory(ctx context.Context, name string) []query.TrajectoryPoint
	Leaderboard(ctx context.Context, metric string, limit, offset int) (*query.Page, error)
	Awards(ctx context.Context) []query.Award
}

// StatsProvider exposes service counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the milestone API.
type Server struct {
	eventsHandler      *EventsHandler
	compareHandler     *CompareHandler
	artistsHandler     *ArtistsHandler
	leaderboardHandler *LeaderboardHandler
	awardsHandler      *AwardsHandler
	statsHandler       *StatsHandler
	healthHandler      *HealthHandler
}

// NewServer creates an API server with all handlers. maxLimit bounds
// leaderboard page sizes.
func NewServer(deps Dependencies, stats StatsProvider, deduper Deduper, maxLimit int) *Server {
	return &Server{
		eventsHandler:      NewEventsHandler(deps, deduper),
		compareHandler:     NewCompareHandler(deps),
		artistsHandler:     NewArtistsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		awardsHandler:      NewAwardsHandler(deps),
		statsHandler:       NewStatsHandler(stats),
		healthHandler:      NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/compare", MetricsMiddleware(s.compareHandler.HandleCompare, "compare"))
	mux.HandleFunc("/artists/", MetricsMiddleware(s.artistsHandler.HandleArtist, "artists"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/awards", MetricsMiddleware(s.awardsHandler.HandleGetAwards, "awards"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
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

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
