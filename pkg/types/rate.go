package types

import (
	"fmt"
	"time"
)

// London is the reference timezone for the tariff. Slots are grouped into
// days, fetch windows are evaluated and hour-of-day analysis is done in
// local London time so that BST/GMT transition days behave correctly.
var London = func() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(fmt.Errorf("failed to load london location: %w", err))
	}
	return loc
}()

// Rate is a single half-hourly import price from the tariff.
type Rate struct {
	// ValidFrom is the inclusive start of the slot.
	ValidFrom time.Time `json:"validFrom"`
	// ValidTo is the exclusive end of the slot.
	ValidTo time.Time `json:"validTo"`
	// PencePerKWH is the unit price including VAT.
	PencePerKWH float64 `json:"pencePerKWH"`
}

// Contains returns true if t falls within the slot. The start is inclusive
// and the end is exclusive so adjacent slots never overlap.
func (r Rate) Contains(t time.Time) bool {
	return !t.Before(r.ValidFrom) && t.Before(r.ValidTo)
}

// Duration returns the length of the slot.
func (r Rate) Duration() time.Duration {
	return r.ValidTo.Sub(r.ValidFrom)
}

// LocalHour returns the hour (0-23) of the slot's start in London time.
func (r Rate) LocalHour() int {
	return r.ValidFrom.In(London).Hour()
}

// RateStatus buckets a price into a coarse label for display and automation.
type RateStatus string

const (
	StatusNegative      RateStatus = "negative"
	StatusVeryCheap     RateStatus = "very_cheap"
	StatusCheap         RateStatus = "cheap"
	StatusNormal        RateStatus = "normal"
	StatusExpensive     RateStatus = "expensive"
	StatusVeryExpensive RateStatus = "very_expensive"
)

// RateStatusFor returns the bucket for a price in pence/kWh.
func RateStatusFor(pence float64) RateStatus {
	switch {
	case pence < 0:
		return StatusNegative
	case pence < 10:
		return StatusVeryCheap
	case pence < 20:
		return StatusCheap
	case pence < 30:
		return StatusNormal
	case pence < 40:
		return StatusExpensive
	default:
		return StatusVeryExpensive
	}
}
