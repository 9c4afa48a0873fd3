package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a local time of day without a date. It is used for the daily
// fetch window and for time-of-day rate filters.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string into a Clock.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return Clock{}, fmt.Errorf("invalid time of day (%s): expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid hour in time of day (%s): %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid minute in time of day (%s): %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("time of day out of range (%s)", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// Minutes returns the minutes since local midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
