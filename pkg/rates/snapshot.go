package rates

import (
	"time"

	"github.com/agilewatch/agilewatch/pkg/types"
)

// Snapshot is an immutable view of the published rates. All queries take
// the moment of interest explicitly so callers control what "now" means.
type Snapshot struct {
	days        map[string][]types.Rate
	dates       []string
	slotCount   int
	fingerprint string
	updatedAt   time.Time
}

// HasData returns true if the snapshot holds at least one slot.
func (s *Snapshot) HasData() bool {
	return len(s.dates) > 0
}

// Days returns the date keys present, ascending. The returned slice must
// not be modified.
func (s *Snapshot) Days() []string {
	return s.dates
}

// Day returns the slots for a local date, sorted by start time. The
// returned slice must not be modified.
func (s *Snapshot) Day(date string) ([]types.Rate, bool) {
	slots, ok := s.days[date]
	return slots, ok
}

// SlotCount returns the total number of slots across all days.
func (s *Snapshot) SlotCount() int {
	return s.slotCount
}

// Fingerprint identifies the snapshot's contents. Two snapshots with the
// same slots have the same fingerprint regardless of fetch order.
func (s *Snapshot) Fingerprint() string {
	return s.fingerprint
}

// UpdatedAt returns when this snapshot was published.
func (s *Snapshot) UpdatedAt() time.Time {
	return s.updatedAt
}

// Current returns the slot covering t, if any. Slot starts are inclusive
// and ends exclusive, so exactly one slot matches within a covered day.
func (s *Snapshot) Current(t time.Time) (types.Rate, bool) {
	for _, r := range s.days[DateOf(t)] {
		if r.Contains(t) {
			return r, true
		}
	}
	return types.Rate{}, false
}

// Next returns the first slot starting strictly after t, looking at t's
// local day and the one after.
func (s *Snapshot) Next(t time.Time) (types.Rate, bool) {
	for _, date := range s.lookaheadDates(t) {
		for _, r := range s.days[date] {
			if r.ValidFrom.After(t) {
				return r, true
			}
		}
	}
	return types.Rate{}, false
}

// Stats summarizes a day's prices.
func (s *Snapshot) Stats(date string) (types.DailyStats, bool) {
	slots, ok := s.days[date]
	if !ok || len(slots) == 0 {
		return types.DailyStats{}, false
	}

	stats := types.DailyStats{
		Date:      date,
		MinPence:  slots[0].PencePerKWH,
		MaxPence:  slots[0].PencePerKWH,
		SlotCount: len(slots),
	}
	var total float64
	for _, r := range slots {
		total += r.PencePerKWH
		if r.PencePerKWH < stats.MinPence {
			stats.MinPence = r.PencePerKWH
		}
		if r.PencePerKWH > stats.MaxPence {
			stats.MaxPence = r.PencePerKWH
		}
	}
	stats.AveragePence = total / float64(len(slots))
	return stats, true
}

// InRange returns the slots on date whose local start time falls within
// [start, end). A nil bound leaves that side open.
func (s *Snapshot) InRange(date string, start, end *types.Clock) []types.Rate {
	var out []types.Rate
	for _, r := range s.days[date] {
		local := r.ValidFrom.In(types.London)
		m := local.Hour()*60 + local.Minute()
		if start != nil && m < start.Minutes() {
			continue
		}
		if end != nil && m >= end.Minutes() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TimeUntilBelow returns how long until the first future slot priced
// strictly below thresholdPence, looking at t's local day and the next.
func (s *Snapshot) TimeUntilBelow(t time.Time, thresholdPence float64) (time.Duration, bool) {
	return s.timeUntil(t, func(p float64) bool { return p < thresholdPence })
}

// TimeUntilAbove returns how long until the first future slot priced
// strictly above thresholdPence, looking at t's local day and the next.
func (s *Snapshot) TimeUntilAbove(t time.Time, thresholdPence float64) (time.Duration, bool) {
	return s.timeUntil(t, func(p float64) bool { return p > thresholdPence })
}

func (s *Snapshot) timeUntil(t time.Time, match func(float64) bool) (time.Duration, bool) {
	for _, date := range s.lookaheadDates(t) {
		for _, r := range s.days[date] {
			if !r.ValidFrom.After(t) {
				continue
			}
			if match(r.PencePerKWH) {
				return r.ValidFrom.Sub(t), true
			}
		}
	}
	return 0, false
}

// lookaheadDates returns t's local date and the following one. AddDate on
// the localized time keeps the wall clock correct across DST changes.
func (s *Snapshot) lookaheadDates(t time.Time) [2]string {
	local := t.In(types.London)
	return [2]string{DateOf(local), DateOf(local.AddDate(0, 0, 1))}
}
