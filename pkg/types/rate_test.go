package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateContains(t *testing.T) {
	start := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	r := Rate{ValidFrom: start, ValidTo: start.Add(30 * time.Minute), PencePerKWH: 15.0}

	assert.True(t, r.Contains(start), "start should be inclusive")
	assert.True(t, r.Contains(start.Add(15*time.Minute)))
	assert.False(t, r.Contains(start.Add(30*time.Minute)), "end should be exclusive")
	assert.False(t, r.Contains(start.Add(-time.Second)))
}

func TestRateDuration(t *testing.T) {
	start := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	r := Rate{ValidFrom: start, ValidTo: start.Add(30 * time.Minute)}
	assert.Equal(t, 30*time.Minute, r.Duration())
}

func TestRateLocalHour(t *testing.T) {
	// 23:30 UTC in summer is 00:30 BST the next day
	r := Rate{
		ValidFrom: time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC),
		ValidTo:   time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 0, r.LocalHour())

	// in winter UTC and London agree
	r = Rate{
		ValidFrom: time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC),
		ValidTo:   time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 23, r.LocalHour())
}

func TestRateStatusFor(t *testing.T) {
	tests := []struct {
		pence  float64
		status RateStatus
	}{
		{-2.5, StatusNegative},
		{0, StatusVeryCheap},
		{9.99, StatusVeryCheap},
		{10, StatusCheap},
		{19.99, StatusCheap},
		{20, StatusNormal},
		{29.99, StatusNormal},
		{30, StatusExpensive},
		{39.99, StatusExpensive},
		{40, StatusVeryExpensive},
		{95, StatusVeryExpensive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, RateStatusFor(tt.pence), "price %v", tt.pence)
	}
}
