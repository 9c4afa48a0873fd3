package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/types"
)

func (s *Server) handleCarbonCurrent(w http.ResponseWriter, r *http.Request) {
	intensity, err := s.carbon.Current(r.Context())
	if err != nil {
		s.carbonError(r.Context(), w, err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, intensity)
}

type carbonForecastResponse struct {
	Hours   int                     `json:"hours"`
	Periods []types.CarbonIntensity `json:"periods"`
}

func (s *Server) handleCarbonForecast(w http.ResponseWriter, r *http.Request) {
	hours, err := intParam(r, "hours", 48)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if hours < 1 || hours > 96 {
		writeJSONError(w, "invalid hours: expected 1-96", http.StatusBadRequest)
		return
	}
	periods, err := s.carbon.Forecast(r.Context(), hours)
	if err != nil {
		s.carbonError(r.Context(), w, err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, carbonForecastResponse{Hours: hours, Periods: periods})
}

func (s *Server) handleCarbonRegional(w http.ResponseWriter, r *http.Request) {
	postcode := r.URL.Query().Get("postcode")
	if postcode == "" {
		writeJSONError(w, "postcode is required", http.StatusBadRequest)
		return
	}
	intensity, err := s.carbon.Regional(r.Context(), postcode)
	if err != nil {
		s.carbonError(r.Context(), w, err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, intensity)
}

func (s *Server) carbonError(ctx context.Context, w http.ResponseWriter, err error) {
	log.Ctx(ctx).WarnContext(ctx, "carbon intensity lookup failed", slog.Any("error", err))
	writeJSONError(w, "failed to fetch carbon intensity", http.StatusBadGateway)
}
