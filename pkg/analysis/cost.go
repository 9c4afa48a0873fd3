package analysis

import (
	"github.com/agilewatch/agilewatch/pkg/types"
)

// FlatRateComparisons are common UK flat tariffs (p/kWh inc VAT) used as
// comparison baselines.
var FlatRateComparisons = map[string]float64{
	// Ofgem price cap, updated periodically
	"price_cap": 24.50,
	// typical fixed tariff
	"fixed_average": 22.00,
	// Economy 7 day rate
	"economy_7_day": 28.00,
	// Economy 7 night rate (00:00-07:00)
	"economy_7_night": 12.00,
}

// FlatRate resolves a named comparison tariff.
func FlatRate(name string) (float64, bool) {
	v, ok := FlatRateComparisons[name]
	return v, ok
}

// EstimateDailyCost estimates what a day costs for a usage profile and
// compares it against a flat tariff. Each hour gets its normalized share
// of dailyKWH, and each slot gets the duration-proportional part of its
// hour's share.
func EstimateDailyCost(slots []types.Rate, profile Profile, dailyKWH, flatRate float64) (types.CostEstimate, bool) {
	if len(slots) == 0 {
		return types.CostEstimate{}, false
	}
	var totalWeight float64
	for _, w := range profile.Weights {
		totalWeight += w
	}
	if totalWeight <= 0 {
		return types.CostEstimate{}, false
	}

	var estimated float64
	for _, slot := range slots {
		hourKWH := dailyKWH * profile.Weights[slot.LocalHour()] / totalWeight
		slotsPerHour := 2.0
		if hours := slot.Duration().Hours(); hours > 0 {
			slotsPerHour = 1.0 / hours
		}
		estimated += hourKWH / slotsPerHour * slot.PencePerKWH
	}

	flatCost := dailyKWH * flatRate
	return types.CostEstimate{
		Profile:               profile.Name,
		DailyKWH:              dailyKWH,
		EstimatedPence:        estimated,
		FlatRatePence:         flatCost,
		FlatRate:              flatRate,
		PotentialSavingsPence: flatCost - estimated,
	}, true
}

// UsageRecord is one measured consumption entry and the rate it was
// charged at.
type UsageRecord struct {
	KWH       float64 `json:"kwh"`
	RatePence float64 `json:"ratePence"`
}

// DailySavings compares the cost of recorded usage against a flat
// tariff.
func DailySavings(records []UsageRecord, flatRate float64) types.SavingsComparison {
	var totalKWH, actual float64
	for _, r := range records {
		totalKWH += r.KWH
		actual += r.KWH * r.RatePence
	}
	flatCost := totalKWH * flatRate

	out := types.SavingsComparison{
		TotalKWH:          totalKWH,
		ActualCostPence:   actual,
		FlatRateCostPence: flatCost,
		SavingsPence:      flatCost - actual,
		FlatRate:          flatRate,
	}
	if flatCost > 0 {
		out.SavingsPercent = out.SavingsPence / flatCost * 100
	}
	if totalKWH > 0 {
		out.EffectiveRatePence = actual / totalKWH
	}
	return out
}
