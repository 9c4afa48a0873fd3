package analysis

import (
	"github.com/agilewatch/agilewatch/pkg/types"
)

// BestChargeWindow finds the cheapest contiguous window that stores
// requiredKWH at chargeRateKW. Energy per slot follows from the slot
// length, and the slot count is rounded to the nearest whole slot then
// clamped to what's available.
func BestChargeWindow(slots []types.Rate, requiredKWH, chargeRateKW float64) (types.ChargePlan, bool) {
	if len(slots) == 0 || requiredKWH <= 0 || chargeRateKW <= 0 {
		return types.ChargePlan{}, false
	}
	slotLen := slots[0].Duration()
	if slotLen <= 0 {
		return types.ChargePlan{}, false
	}

	kwhPerSlot := chargeRateKW * slotLen.Hours()
	required := int(requiredKWH/kwhPerSlot + 0.5)
	if required < 1 {
		required = 1
	}
	if required > len(slots) {
		required = len(slots)
	}

	w, ok := CheapestRun(slots, required)
	if !ok {
		return types.ChargePlan{}, false
	}
	return types.ChargePlan{
		Window:           w,
		RequiredSlots:    required,
		TotalKWH:         kwhPerSlot * float64(required),
		AverageRatePence: w.AveragePence,
		TotalCostPence:   w.TotalPence * kwhPerSlot,
	}, true
}
