package server

import (
	"net/http"
	"time"

	"github.com/agilewatch/agilewatch/pkg/rates"
	"github.com/agilewatch/agilewatch/pkg/types"
)

type statusResponse struct {
	Now                   time.Time        `json:"now"`
	Current               *types.Rate      `json:"current,omitempty"`
	Status                types.RateStatus `json:"status,omitempty"`
	Next                  *types.Rate      `json:"next,omitempty"`
	IsCheap               bool             `json:"isCheap"`
	IsExpensive           bool             `json:"isExpensive"`
	IsNegative            bool             `json:"isNegative"`
	MinutesUntilCheap     *int             `json:"minutesUntilCheap,omitempty"`
	MinutesUntilExpensive *int             `json:"minutesUntilExpensive,omitempty"`
	NegativeSlotsToday    []types.Rate     `json:"negativeSlotsToday,omitempty"`
	CheapThreshold        float64          `json:"cheapThreshold"`
	ExpensiveThreshold    float64          `json:"expensiveThreshold"`
}

// handleStatus is the combined instant view used by dashboards: the
// current and next slots, how they compare to the cheap and expensive
// thresholds, and when the price next crosses them.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	cheap, err := floatParam(r, "cheap", s.cheapThreshold)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	expensive, err := floatParam(r, "expensive", s.expensiveThreshold)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := s.repo.Snapshot()
	if !snap.HasData() {
		writeJSONError(w, "no rates loaded", http.StatusNotFound)
		return
	}

	res := statusResponse{
		Now:                now,
		CheapThreshold:     cheap,
		ExpensiveThreshold: expensive,
	}
	if current, ok := snap.Current(now); ok {
		res.Current = &current
		res.Status = types.RateStatusFor(current.PencePerKWH)
		res.IsCheap = current.PencePerKWH < cheap
		res.IsExpensive = current.PencePerKWH > expensive
		res.IsNegative = current.PencePerKWH < 0
	}
	if next, ok := snap.Next(now); ok {
		res.Next = &next
	}
	if d, ok := snap.TimeUntilBelow(now, cheap); ok {
		m := int(d.Minutes())
		res.MinutesUntilCheap = &m
	}
	if d, ok := snap.TimeUntilAbove(now, expensive); ok {
		m := int(d.Minutes())
		res.MinutesUntilExpensive = &m
	}
	if slots, ok := snap.Day(rates.DateOf(now)); ok {
		for _, slot := range slots {
			if slot.PencePerKWH < 0 {
				res.NegativeSlotsToday = append(res.NegativeSlotsToday, slot)
			}
		}
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, res)
}
