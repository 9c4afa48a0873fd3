package analysis

import (
	"fmt"

	"github.com/agilewatch/agilewatch/pkg/types"
)

// ExportConfig holds the export-vs-store tunables.
type ExportConfig struct {
	// ExportRatePence is the SEG rate paid for exported energy.
	ExportRatePence float64
	// BatteryEfficiency is the round-trip efficiency, 0-1.
	BatteryEfficiency float64
	// BatteryCapacityKWH sizes the arbitrage estimate.
	BatteryCapacityKWH float64
}

// DefaultExportConfig mirrors a typical SEG rate and home battery.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		ExportRatePence:    15.0,
		BatteryEfficiency:  0.9,
		BatteryCapacityKWH: 10.0,
	}
}

// AnalyzeExportWindows classifies each slot into an export/store action
// and estimates the daily arbitrage a battery could capture between the
// average store price and the export rate.
//
// Negative prices always mean consume from the grid. Below 0.8x the
// export rate it's worth charging the battery; above 1.5x it's worth
// draining it instead of importing; anywhere above the export rate
// excess generation is better sold than stored.
func AnalyzeExportWindows(slots []types.Rate, cfg ExportConfig) types.ExportAnalysis {
	out := types.ExportAnalysis{
		ExportRatePence: cfg.ExportRatePence,
		Slots:           make([]types.SlotAdvice, 0, len(slots)),
	}

	var storeTotal float64
	for _, slot := range slots {
		advice := types.SlotAdvice{
			Start: slot.ValidFrom,
			End:   slot.ValidTo,
			Pence: slot.PencePerKWH,
		}

		rate := slot.PencePerKWH
		switch {
		case rate < 0:
			advice.Action = types.ActionUseGrid
			advice.Reason = "Negative pricing - maximize consumption"
			advice.Priority = types.PriorityCritical
			storeTotal += rate
			out.StoreSlotCount++
		case rate < cfg.ExportRatePence*0.8:
			advice.Action = types.ActionChargeBattery
			advice.Reason = fmt.Sprintf("Import rate (%.1fp) < export rate (%.1fp)", rate, cfg.ExportRatePence)
			advice.Priority = types.PriorityHigh
			storeTotal += rate
			out.StoreSlotCount++
		case rate > cfg.ExportRatePence*1.5:
			advice.Action = types.ActionUseBattery
			advice.Reason = fmt.Sprintf("High import rate (%.1fp) - avoid grid", rate)
			advice.Priority = types.PriorityHigh
		case rate > cfg.ExportRatePence:
			advice.Action = types.ActionExportExcess
			advice.Reason = fmt.Sprintf("Import rate (%.1fp) > export rate (%.1fp)", rate, cfg.ExportRatePence)
			advice.Priority = types.PriorityMedium
			out.ExportSlotCount++
		default:
			advice.Action = types.ActionNormal
			advice.Reason = "Standard operation"
			advice.Priority = types.PriorityLow
		}

		out.Slots = append(out.Slots, advice)
	}

	// arbitrage only exists when there is both a time to store and a
	// time to export
	if out.StoreSlotCount > 0 && out.ExportSlotCount > 0 {
		avgStore := storeTotal / float64(out.StoreSlotCount)
		margin := (cfg.ExportRatePence - avgStore) * cfg.BatteryEfficiency
		out.ArbitragePence = margin * cfg.BatteryCapacityKWH
	}
	return out
}
