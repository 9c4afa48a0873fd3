package server

import (
	"net/http"
	"time"

	"github.com/agilewatch/agilewatch/pkg/analysis"
	"github.com/agilewatch/agilewatch/pkg/types"
)

// flatRateParam resolves the optional flatRate query parameter, which
// accepts either a named comparison tariff or a price in p/kWh.
func (s *Server) flatRateParam(r *http.Request) (float64, bool) {
	raw := r.URL.Query().Get("flatRate")
	if raw == "" {
		return s.defaultFlatRate, true
	}
	if v, ok := analysis.FlatRate(raw); ok {
		return v, true
	}
	v, err := floatParam(r, "flatRate", 0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s *Server) handleCostEstimate(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	date, err := dateParam(r, now)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	kwh, err := floatParam(r, "kwh", s.defaultDailyKWH)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if kwh <= 0 {
		writeJSONError(w, "invalid kwh: must be positive", http.StatusBadRequest)
		return
	}
	flatRate, ok := s.flatRateParam(r)
	if !ok {
		writeJSONError(w, "invalid flatRate: expected a comparison name or p/kWh price", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("profile")
	if name == "" {
		name = s.defaultProfile
	}
	profile := s.profiles.Get(r.Context(), name)

	snap := s.repo.Snapshot()
	slots, found := snap.Day(date)
	if !found {
		writeJSONError(w, "no rates for date: "+date, http.StatusNotFound)
		return
	}
	est, ok := analysis.EstimateDailyCost(slots, profile, kwh, flatRate)
	if !ok {
		writeJSONError(w, "insufficient data for a cost estimate", http.StatusNotFound)
		return
	}
	est.Date = date
	cacheDayResponse(w, date, now)
	writeJSON(w, est)
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	date, err := dateParam(r, now)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	kwh, err := floatParam(r, "kwh", s.defaultDailyKWH)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if kwh <= 0 {
		writeJSONError(w, "invalid kwh: must be positive", http.StatusBadRequest)
		return
	}
	flatRate, ok := s.flatRateParam(r)
	if !ok {
		writeJSONError(w, "invalid flatRate: expected a comparison name or p/kWh price", http.StatusBadRequest)
		return
	}

	snap := s.repo.Snapshot()
	slots, found := snap.Day(date)
	if !found {
		writeJSONError(w, "no rates for date: "+date, http.StatusNotFound)
		return
	}

	// spread the day's usage evenly over the slots we have
	records := make([]analysis.UsageRecord, 0, len(slots))
	perSlot := kwh / float64(len(slots))
	for _, slot := range slots {
		records = append(records, analysis.UsageRecord{
			KWH:       perSlot,
			RatePence: slot.PencePerKWH,
		})
	}
	cacheDayResponse(w, date, now)
	writeJSON(w, analysis.DailySavings(records, flatRate))
}

type exportResponse struct {
	Date     string               `json:"date"`
	Analysis types.ExportAnalysis `json:"analysis"`
}

func (s *Server) handleExportAnalysis(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	date, err := dateParam(r, now)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap := s.repo.Snapshot()
	slots, found := snap.Day(date)
	if !found {
		writeJSONError(w, "no rates for date: "+date, http.StatusNotFound)
		return
	}
	cacheDayResponse(w, date, now)
	writeJSON(w, exportResponse{
		Date:     date,
		Analysis: analysis.AnalyzeExportWindows(slots, s.exportConfig),
	})
}

type assessmentResponse struct {
	Date       string                  `json:"date"`
	Assessment types.ProfileAssessment `json:"assessment"`
}

func (s *Server) handleProfileAssessment(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	date, err := dateParam(r, now)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	kwh, err := floatParam(r, "kwh", s.defaultDailyKWH)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if kwh <= 0 {
		writeJSONError(w, "invalid kwh: must be positive", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("profile")
	if name == "" {
		name = s.defaultProfile
	}
	profile := s.profiles.Get(r.Context(), name)

	snap := s.repo.Snapshot()
	slots, found := snap.Day(date)
	if !found {
		writeJSONError(w, "no rates for date: "+date, http.StatusNotFound)
		return
	}
	assessment, ok := analysis.AssessProfile(slots, profile, kwh)
	if !ok {
		writeJSONError(w, "insufficient data for a profile assessment", http.StatusNotFound)
		return
	}
	cacheDayResponse(w, date, now)
	writeJSON(w, assessmentResponse{Date: date, Assessment: assessment})
}

func (s *Server) handleLoadShift(w http.ResponseWriter, r *http.Request) {
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
	hours, err := floatParam(r, "hours", 1.0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if kwh <= 0 || hours <= 0 {
		writeJSONError(w, "kwh and hours must be positive", http.StatusBadRequest)
		return
	}
	var earliest, latest *int
	if raw := r.URL.Query().Get("earliest"); raw != "" {
		v, err := intParam(r, "earliest", 0)
		if err != nil || v < 0 || v > 23 {
			writeJSONError(w, "invalid earliest: expected an hour 0-23", http.StatusBadRequest)
			return
		}
		earliest = &v
	}
	if raw := r.URL.Query().Get("latest"); raw != "" {
		v, err := intParam(r, "latest", 0)
		if err != nil || v < 0 || v > 24 {
			writeJSONError(w, "invalid latest: expected an hour 0-24", http.StatusBadRequest)
			return
		}
		latest = &v
	}
	date, err := dateParam(r, now)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := s.repo.Snapshot()
	slots, found := snap.Day(date)
	if !found {
		writeJSONError(w, "no rates for date: "+date, http.StatusNotFound)
		return
	}
	suggestion, ok := analysis.SuggestLoadShift(slots, kwh, hours, earliest, latest, now)
	if !ok {
		writeJSONError(w, "no load shift window available", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, suggestion)
}

type profilesResponse struct {
	Profiles []analysis.Profile `json:"profiles"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names := s.profiles.Names()
	res := profilesResponse{Profiles: make([]analysis.Profile, 0, len(names))}
	for _, name := range names {
		res.Profiles = append(res.Profiles, s.profiles.Get(r.Context(), name))
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, res)
}
