package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/scheduler"
)

// handleRefresh forces a fetch from the tariff API regardless of the
// fetch window.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := s.refresher.Refresh(ctx, true)
	if err != nil {
		if errors.Is(err, scheduler.ErrRefreshInFlight) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		log.Ctx(ctx).WarnContext(ctx, "forced refresh failed", slog.Any("error", err))
		writeJSONError(w, "failed to refresh rates", http.StatusBadGateway)
		return
	}
	writeJSON(w, res)
}
