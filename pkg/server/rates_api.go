package server

import (
	"net/http"
	"time"

	"github.com/agilewatch/agilewatch/pkg/types"
)

type currentRateResponse struct {
	Slot             types.Rate       `json:"slot"`
	Status           types.RateStatus `json:"status"`
	MinutesRemaining int              `json:"minutesRemaining"`
}

func (s *Server) handleCurrentRate(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	snap := s.repo.Snapshot()
	slot, ok := snap.Current(now)
	if !ok {
		writeJSONError(w, "no rate for the current time", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, currentRateResponse{
		Slot:             slot,
		Status:           types.RateStatusFor(slot.PencePerKWH),
		MinutesRemaining: int(slot.ValidTo.Sub(now).Minutes()),
	})
}

type nextRateResponse struct {
	Slot         types.Rate       `json:"slot"`
	Status       types.RateStatus `json:"status"`
	MinutesUntil int              `json:"minutesUntil"`
}

func (s *Server) handleNextRate(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	snap := s.repo.Snapshot()
	slot, ok := snap.Next(now)
	if !ok {
		writeJSONError(w, "no upcoming rate", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, nextRateResponse{
		Slot:         slot,
		Status:       types.RateStatusFor(slot.PencePerKWH),
		MinutesUntil: int(slot.ValidFrom.Sub(now).Minutes()),
	})
}

type dayRatesResponse struct {
	Date  string           `json:"date"`
	Slots []types.Rate     `json:"slots"`
	Stats types.DailyStats `json:"stats"`
}

func (s *Server) handleDayRates(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	date, err := dateParam(r, now)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap := s.repo.Snapshot()
	slots, ok := snap.Day(date)
	if !ok {
		writeJSONError(w, "no rates for date: "+date, http.StatusNotFound)
		return
	}
	stats, _ := snap.Stats(date)
	cacheDayResponse(w, date, now)
	writeJSON(w, dayRatesResponse{
		Date:  date,
		Slots: slots,
		Stats: stats,
	})
}

type daysResponse struct {
	Dates       []string `json:"dates"`
	SlotCount   int      `json:"slotCount"`
	Fingerprint string   `json:"fingerprint"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

func (s *Server) handleListDays(w http.ResponseWriter, r *http.Request) {
	snap := s.repo.Snapshot()
	res := daysResponse{
		Dates:       snap.Days(),
		SlotCount:   snap.SlotCount(),
		Fingerprint: snap.Fingerprint(),
	}
	if updated := snap.UpdatedAt(); !updated.IsZero() {
		res.UpdatedAt = updated.Format(time.RFC3339)
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, res)
}
