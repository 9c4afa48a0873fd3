package types

import "time"

// CostEstimate compares a day's profiled usage cost against a flat tariff.
type CostEstimate struct {
	Date                  string  `json:"date"`
	Profile               string  `json:"profile"`
	DailyKWH              float64 `json:"dailyKWH"`
	EstimatedPence        float64 `json:"estimatedPence"`
	FlatRatePence         float64 `json:"flatRatePence"`
	FlatRate              float64 `json:"flatRate"`
	PotentialSavingsPence float64 `json:"potentialSavingsPence"`
}

// SavingsComparison reports the cost of recorded usage against what the
// same usage would have cost on a flat tariff.
type SavingsComparison struct {
	TotalKWH           float64 `json:"totalKWH"`
	ActualCostPence    float64 `json:"actualCostPence"`
	FlatRateCostPence  float64 `json:"flatRateCostPence"`
	SavingsPence       float64 `json:"savingsPence"`
	SavingsPercent     float64 `json:"savingsPercent"`
	EffectiveRatePence float64 `json:"effectiveRatePence"`
	FlatRate           float64 `json:"flatRate"`
}

// ExportAction tells a battery or export system what to do with a slot.
type ExportAction string

const (
	ActionUseGrid       ExportAction = "use_grid"
	ActionChargeBattery ExportAction = "charge_battery"
	ActionUseBattery    ExportAction = "use_battery"
	ActionExportExcess  ExportAction = "export_excess"
	ActionNormal        ExportAction = "normal"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// SlotAdvice is the per-slot recommendation from export analysis.
type SlotAdvice struct {
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Pence    float64      `json:"pence"`
	Action   ExportAction `json:"action"`
	Reason   string       `json:"reason"`
	Priority string       `json:"priority"`
}

// ExportAnalysis recommends when to store energy and when to export it,
// with a rough arbitrage estimate for a battery of the configured size.
type ExportAnalysis struct {
	ExportRatePence float64      `json:"exportRatePence"`
	Slots           []SlotAdvice `json:"slots"`
	StoreSlotCount  int          `json:"storeSlotCount"`
	ExportSlotCount int          `json:"exportSlotCount"`
	ArbitragePence  float64      `json:"arbitragePence"`
}

// ProfileAssessment scores how well a usage profile lines up with the
// day's cheap and expensive hours.
type ProfileAssessment struct {
	Profile                   string   `json:"profile"`
	DailyKWH                  float64  `json:"dailyKWH"`
	EstimatedCostPence        float64  `json:"estimatedCostPence"`
	CheapestHours             []int    `json:"cheapestHours"`
	MostExpensiveHours        []int    `json:"mostExpensiveHours"`
	CheapAlignmentPercent     float64  `json:"cheapAlignmentPercent"`
	ExpensiveAlignmentPercent float64  `json:"expensiveAlignmentPercent"`
	Score                     float64  `json:"score"`
	Recommendations           []string `json:"recommendations"`
}

// LoadShiftSuggestion recommends when to run a deferrable load. The
// current-rate fields are only set when a slot covering the current local
// hour exists in the data.
type LoadShiftSuggestion struct {
	Start                 time.Time `json:"start"`
	End                   time.Time `json:"end"`
	LoadKWH               float64   `json:"loadKWH"`
	DurationHours         float64   `json:"durationHours"`
	OptimalRatePence      float64   `json:"optimalRatePence"`
	OptimalCostPence      float64   `json:"optimalCostPence"`
	CurrentRatePence      *float64  `json:"currentRatePence,omitempty"`
	CurrentCostPence      *float64  `json:"currentCostPence,omitempty"`
	SavingsVsNowPence     *float64  `json:"savingsVsNowPence,omitempty"`
	AverageRatePence      float64   `json:"averageRatePence"`
	AverageCostPence      float64   `json:"averageCostPence"`
	SavingsVsAveragePence float64   `json:"savingsVsAveragePence"`
}
