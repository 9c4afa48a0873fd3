package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agilewatch/agilewatch/pkg/analysis"
	"github.com/agilewatch/agilewatch/pkg/types"
)

// daySlots resolves the date, from and to query parameters to the slots
// a window query should scan. It writes the error response itself when
// the parameters are invalid or no rates exist.
func (s *Server) daySlots(w http.ResponseWriter, r *http.Request, now time.Time) (string, []types.Rate, bool) {
	date, err := dateParam(r, now)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	q := r.URL.Query()
	var from, to *types.Clock
	if raw := q.Get("from"); raw != "" {
		c, err := types.ParseClock(raw)
		if err != nil {
			writeJSONError(w, fmt.Sprintf("invalid from (%s): expected HH:MM", raw), http.StatusBadRequest)
			return "", nil, false
		}
		from = &c
	}
	if raw := q.Get("to"); raw != "" {
		c, err := types.ParseClock(raw)
		if err != nil {
			writeJSONError(w, fmt.Sprintf("invalid to (%s): expected HH:MM", raw), http.StatusBadRequest)
			return "", nil, false
		}
		to = &c
	}
	snap := s.repo.Snapshot()
	var slots []types.Rate
	if from != nil || to != nil {
		slots = snap.InRange(date, from, to)
	} else {
		slots, _ = snap.Day(date)
	}
	if len(slots) == 0 {
		writeJSONError(w, "no rates for date: "+date, http.StatusNotFound)
		return "", nil, false
	}
	return date, slots, true
}

type windowResponse struct {
	Date   string       `json:"date"`
	Window types.Window `json:"window"`
}

func (s *Server) handleCheapestWindow(w http.ResponseWriter, r *http.Request) {
	s.handleWindow(w, r, analysis.CheapestWindow)
}

func (s *Server) handleMostExpensiveWindow(w http.ResponseWriter, r *http.Request) {
	s.handleWindow(w, r, analysis.MostExpensiveWindow)
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request, pick func([]types.Rate, time.Duration) (types.Window, bool)) {
	now := time.Now()
	minutes, err := intParam(r, "minutes", 60)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if minutes <= 0 {
		writeJSONError(w, "invalid minutes: must be positive", http.StatusBadRequest)
		return
	}
	date, slots, ok := s.daySlots(w, r, now)
	if !ok {
		return
	}
	win, ok := pick(slots, time.Duration(minutes)*time.Minute)
	if !ok {
		writeJSONError(w, fmt.Sprintf("no %d minute window available", minutes), http.StatusNotFound)
		return
	}
	cacheDayResponse(w, date, now)
	writeJSON(w, windowResponse{Date: date, Window: win})
}

type chargePlanResponse struct {
	Date string           `json:"date"`
	Plan types.ChargePlan `json:"plan"`
}

func (s *Server) handleChargeWindow(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if r.URL.Query().Get("kwh") == "" {
		writeJSONError(w, "kwh is required", http.StatusBadRequest)
		return
	}
	kwh, err := floatParam(r, "kwh", 0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	chargeRate, err := floatParam(r, "rate", 3.0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if kwh <= 0 || chargeRate <= 0 {
		writeJSONError(w, "kwh and rate must be positive", http.StatusBadRequest)
		return
	}
	date, slots, ok := s.daySlots(w, r, now)
	if !ok {
		return
	}
	plan, ok := analysis.BestChargeWindow(slots, kwh, chargeRate)
	if !ok {
		writeJSONError(w, "no charge window available", http.StatusNotFound)
		return
	}
	cacheDayResponse(w, date, now)
	writeJSON(w, chargePlanResponse{Date: date, Plan: plan})
}

type slotsResponse struct {
	Date  string       `json:"date"`
	Count int          `json:"count"`
	Slots []types.Rate `json:"slots"`
}

func (s *Server) handleCheapestSlots(w http.ResponseWriter, r *http.Request) {
	s.handleSlots(w, r, analysis.CheapestSlots, analysis.CheapestRun)
}

func (s *Server) handleMostExpensiveSlots(w http.ResponseWriter, r *http.Request) {
	s.handleSlots(w, r, analysis.MostExpensiveSlots, analysis.MostExpensiveRun)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request, pick func([]types.Rate, int) []types.Rate, run func([]types.Rate, int) (types.Window, bool)) {
	now := time.Now()
	count, err := intParam(r, "count", 6)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if count <= 0 {
		writeJSONError(w, "invalid count: must be positive", http.StatusBadRequest)
		return
	}
	consecutive := false
	if raw := r.URL.Query().Get("consecutive"); raw != "" {
		consecutive, err = strconv.ParseBool(raw)
		if err != nil {
			writeJSONError(w, fmt.Sprintf("invalid consecutive (%s): expected a boolean", raw), http.StatusBadRequest)
			return
		}
	}
	date, slots, ok := s.daySlots(w, r, now)
	if !ok {
		return
	}
	if consecutive {
		win, ok := run(slots, count)
		if !ok {
			writeJSONError(w, fmt.Sprintf("no run of %d consecutive slots available", count), http.StatusNotFound)
			return
		}
		cacheDayResponse(w, date, now)
		writeJSON(w, windowResponse{Date: date, Window: win})
		return
	}
	picked := pick(slots, count)
	cacheDayResponse(w, date, now)
	writeJSON(w, slotsResponse{Date: date, Count: len(picked), Slots: picked})
}
