// Package analysis implements the pure price analysis behind the API:
// cheapest and most expensive windows, profiled cost estimates, export
// and load-shift recommendations. Functions take the slots to analyze
// and any moment of interest explicitly; nothing here reads the wall
// clock.
package analysis

import (
	"sort"
	"time"

	"github.com/agilewatch/agilewatch/pkg/types"
)

// CheapestWindow finds the contiguous run of slots of the given length
// with the lowest total price. Slots must be sorted by start time. It
// returns false when there is no answer: no slots, a duration that isn't
// a whole number of slots, or more slots needed than exist.
func CheapestWindow(slots []types.Rate, duration time.Duration) (types.Window, bool) {
	required, ok := requiredSlots(slots, duration)
	if !ok {
		return types.Window{}, false
	}
	return CheapestRun(slots, required)
}

// MostExpensiveWindow is the counterpart of CheapestWindow for the most
// expensive contiguous run.
func MostExpensiveWindow(slots []types.Rate, duration time.Duration) (types.Window, bool) {
	required, ok := requiredSlots(slots, duration)
	if !ok {
		return types.Window{}, false
	}
	return scanRuns(slots, required, func(total, best float64) bool { return total > best })
}

// CheapestRun finds the cheapest contiguous run of exactly n slots.
func CheapestRun(slots []types.Rate, n int) (types.Window, bool) {
	return scanRuns(slots, n, func(total, best float64) bool { return total < best })
}

// MostExpensiveRun finds the most expensive contiguous run of exactly n
// slots.
func MostExpensiveRun(slots []types.Rate, n int) (types.Window, bool) {
	return scanRuns(slots, n, func(total, best float64) bool { return total > best })
}

// requiredSlots converts a duration into a slot count using the length
// of the first slot. The slot length is never assumed, so a tariff
// moving away from half-hour slots keeps working. Durations that don't
// divide into whole slots have no answer.
func requiredSlots(slots []types.Rate, duration time.Duration) (int, bool) {
	if len(slots) == 0 || duration <= 0 {
		return 0, false
	}
	slotLen := slots[0].Duration()
	if slotLen <= 0 || duration%slotLen != 0 {
		return 0, false
	}
	n := int(duration / slotLen)
	if n > len(slots) {
		return 0, false
	}
	return n, true
}

// scanRuns slides a run of n slots over the list, skipping candidates
// with gaps, and keeps the earliest best-scoring one. The strict
// comparison is what makes ties resolve to the earliest run.
func scanRuns(slots []types.Rate, n int, better func(total, best float64) bool) (types.Window, bool) {
	if n <= 0 || n > len(slots) {
		return types.Window{}, false
	}

	bestIdx := -1
	var bestTotal float64
	for i := 0; i+n <= len(slots); i++ {
		total, ok := runTotal(slots[i : i+n])
		if !ok {
			continue
		}
		if bestIdx < 0 || better(total, bestTotal) {
			bestIdx = i
			bestTotal = total
		}
	}
	if bestIdx < 0 {
		return types.Window{}, false
	}

	run := slots[bestIdx : bestIdx+n]
	return types.Window{
		Start:        run[0].ValidFrom,
		End:          run[n-1].ValidTo,
		TotalPence:   bestTotal,
		AveragePence: bestTotal / float64(n),
		SlotCount:    n,
		Slots:        run,
	}, true
}

// runTotal sums a candidate run, rejecting it if consecutive slots don't
// line up exactly.
func runTotal(run []types.Rate) (float64, bool) {
	total := run[0].PencePerKWH
	for j := 1; j < len(run); j++ {
		if !run[j].ValidFrom.Equal(run[j-1].ValidTo) {
			return 0, false
		}
		total += run[j].PencePerKWH
	}
	return total, true
}

// CheapestSlots returns the n cheapest individual slots, not necessarily
// consecutive, in time order. Ties keep the earlier slot.
func CheapestSlots(slots []types.Rate, n int) []types.Rate {
	return pickSlots(slots, n, func(a, b types.Rate) bool { return a.PencePerKWH < b.PencePerKWH })
}

// MostExpensiveSlots returns the n most expensive individual slots in
// time order. Ties keep the earlier slot.
func MostExpensiveSlots(slots []types.Rate, n int) []types.Rate {
	return pickSlots(slots, n, func(a, b types.Rate) bool { return a.PencePerKWH > b.PencePerKWH })
}

func pickSlots(slots []types.Rate, n int, better func(a, b types.Rate) bool) []types.Rate {
	if n <= 0 || len(slots) == 0 {
		return nil
	}
	if n > len(slots) {
		n = len(slots)
	}

	byPrice := make([]types.Rate, len(slots))
	copy(byPrice, slots)
	// stable keeps equal-priced slots in their original time order
	sort.SliceStable(byPrice, func(i, j int) bool { return better(byPrice[i], byPrice[j]) })

	picked := byPrice[:n]
	sort.Slice(picked, func(i, j int) bool { return picked[i].ValidFrom.Before(picked[j].ValidFrom) })
	return picked
}
