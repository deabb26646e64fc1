package httpserver

import (
	"context"
	"net/http"

	"github.com/radiusdt/dsp-console/internal/models"
)

// dashboardHandler adapts one dashboard reducer to an HTTP handler.
func dashboardHandler[T any](s *Server, fetch func(context.Context, models.Actor) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorOf(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out, err := fetch(r.Context(), actor)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ok(w, "", out)
	}
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	dashboardHandler(s, s.dashboard.Performance)(w, r)
}

func (s *Server) handleStatusDistribution(w http.ResponseWriter, r *http.Request) {
	dashboardHandler(s, s.dashboard.StatusDistribution)(w, r)
}

func (s *Server) handleTypeDistribution(w http.ResponseWriter, r *http.Request) {
	dashboardHandler(s, s.dashboard.ObjectiveDistribution)(w, r)
}

func (s *Server) handleRateMetrics(w http.ResponseWriter, r *http.Request) {
	dashboardHandler(s, s.dashboard.RateMetrics)(w, r)
}

func (s *Server) handleBuyTypeSpend(w http.ResponseWriter, r *http.Request) {
	dashboardHandler(s, s.dashboard.BuyTypeSpend)(w, r)
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	dashboardHandler(s, s.dashboard.Headline)(w, r)
}
