package analysis

import (
	"time"

	"github.com/agilewatch/agilewatch/pkg/types"
)

// SuggestLoadShift recommends the cheapest continuous run to schedule a
// deferrable load of the given size and duration. The hour preferences
// filter slots by local start hour, earliest inclusive and latest
// exclusive; nil leaves that side open. The comparison against running
// right now is included only when a slot covering now exists, otherwise
// those fields stay unset rather than guessing a rate.
func SuggestLoadShift(slots []types.Rate, loadKWH, durationHours float64, earliestHour, latestHour *int, now time.Time) (types.LoadShiftSuggestion, bool) {
	if len(slots) == 0 || loadKWH <= 0 || durationHours <= 0 {
		return types.LoadShiftSuggestion{}, false
	}
	slotLen := slots[0].Duration()
	if slotLen <= 0 {
		return types.LoadShiftSuggestion{}, false
	}
	required := int(time.Duration(durationHours*float64(time.Hour)) / slotLen)
	if required < 1 {
		required = 1
	}

	filtered := slots
	if earliestHour != nil || latestHour != nil {
		filtered = nil
		for _, slot := range slots {
			h := slot.LocalHour()
			if earliestHour != nil && h < *earliestHour {
				continue
			}
			if latestHour != nil && h >= *latestHour {
				continue
			}
			filtered = append(filtered, slot)
		}
	}
	if len(filtered) < required {
		return types.LoadShiftSuggestion{}, false
	}

	w, ok := CheapestRun(filtered, required)
	if !ok {
		return types.LoadShiftSuggestion{}, false
	}

	out := types.LoadShiftSuggestion{
		Start:            w.Start,
		End:              w.End,
		LoadKWH:          loadKWH,
		DurationHours:    durationHours,
		OptimalRatePence: w.AveragePence,
		OptimalCostPence: loadKWH * w.AveragePence,
	}

	for _, slot := range slots {
		if slot.Contains(now) {
			rate := slot.PencePerKWH
			cost := loadKWH * rate
			savings := cost - out.OptimalCostPence
			out.CurrentRatePence = &rate
			out.CurrentCostPence = &cost
			out.SavingsVsNowPence = &savings
			break
		}
	}

	var total float64
	for _, slot := range slots {
		total += slot.PencePerKWH
	}
	avgRate := total / float64(len(slots))
	out.AverageRatePence = avgRate
	out.AverageCostPence = loadKWH * avgRate
	out.SavingsVsAveragePence = out.AverageCostPence - out.OptimalCostPence

	return out, true
}
