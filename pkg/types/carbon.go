package types

import "time"

// CarbonIntensity is a grid carbon intensity reading in gCO2/kWh for a
// half-hour settlement period.
type CarbonIntensity struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Intensity int       `json:"intensity"`
	Index     string    `json:"index,omitempty"`
}
