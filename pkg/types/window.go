package types

import "time"

// Window is a contiguous run of slots with its cost summary.
type Window struct {
	// Start is the inclusive start of the first slot.
	Start time.Time `json:"start"`
	// End is the exclusive end of the last slot.
	End          time.Time `json:"end"`
	AveragePence float64   `json:"averagePence"`
	TotalPence   float64   `json:"totalPence"`
	SlotCount    int       `json:"slotCount"`
	Slots        []Rate    `json:"slots,omitempty"`
}

// DailyStats summarizes a single local day of rates.
type DailyStats struct {
	Date         string  `json:"date"`
	MinPence     float64 `json:"minPence"`
	MaxPence     float64 `json:"maxPence"`
	AveragePence float64 `json:"averagePence"`
	SlotCount    int     `json:"slotCount"`
}

// ChargePlan describes the cheapest contiguous window that delivers the
// requested energy at a given charge rate.
type ChargePlan struct {
	Window           Window  `json:"window"`
	RequiredSlots    int     `json:"requiredSlots"`
	TotalKWH         float64 `json:"totalKWH"`
	AverageRatePence float64 `json:"averageRatePence"`
	TotalCostPence   float64 `json:"totalCostPence"`
}
