package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agilewatch/agilewatch/pkg/types"
)

// AssessProfile scores how well a usage profile lines up with a day's
// cheap and expensive hours and produces plain-language recommendations.
// The score runs 0-100 where 50 means usage is indifferent to price.
func AssessProfile(slots []types.Rate, profile Profile, dailyKWH float64) (types.ProfileAssessment, bool) {
	if len(slots) == 0 {
		return types.ProfileAssessment{}, false
	}
	var totalWeight float64
	for _, w := range profile.Weights {
		totalWeight += w
	}
	if totalWeight <= 0 {
		return types.ProfileAssessment{}, false
	}

	var sums [24]float64
	var counts [24]int
	for _, slot := range slots {
		h := slot.LocalHour()
		sums[h] += slot.PencePerKWH
		counts[h]++
	}

	type hourRate struct {
		hour int
		avg  float64
	}
	var hours []hourRate
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		hours = append(hours, hourRate{hour: h, avg: sums[h] / float64(counts[h])})
	}

	var weighted float64
	for _, hr := range hours {
		weighted += dailyKWH * profile.Weights[hr.hour] / totalWeight * hr.avg
	}

	// stable keeps equal-priced hours in chronological order
	sort.SliceStable(hours, func(i, j int) bool { return hours[i].avg < hours[j].avg })

	n := 6
	if len(hours) < n {
		n = len(hours)
	}
	cheapest := make([]int, 0, n)
	for _, hr := range hours[:n] {
		cheapest = append(cheapest, hr.hour)
	}
	expensive := make([]int, 0, n)
	for _, hr := range hours[len(hours)-n:] {
		expensive = append(expensive, hr.hour)
	}

	var cheapWeight, expensiveWeight float64
	for _, h := range cheapest {
		cheapWeight += profile.Weights[h]
	}
	for _, h := range expensive {
		expensiveWeight += profile.Weights[h]
	}
	cheapAlignment := cheapWeight / totalWeight
	expensiveAlignment := expensiveWeight / totalWeight

	return types.ProfileAssessment{
		Profile:                   profile.Name,
		DailyKWH:                  dailyKWH,
		EstimatedCostPence:        weighted,
		CheapestHours:             cheapest,
		MostExpensiveHours:        expensive,
		CheapAlignmentPercent:     cheapAlignment * 100,
		ExpensiveAlignmentPercent: expensiveAlignment * 100,
		Score:                     (cheapAlignment - expensiveAlignment + 1) / 2 * 100,
		Recommendations:           recommendations(cheapAlignment, expensiveAlignment, cheapest, expensive),
	}, true
}

func recommendations(cheapAlignment, expensiveAlignment float64, cheapest, expensive []int) []string {
	var recs []string

	if expensiveAlignment > 0.35 {
		recs = append(recs, fmt.Sprintf(
			"High usage during expensive hours (%s). Consider shifting flexible loads to cheaper periods.",
			formatHours(expensive)))
	}

	if cheapAlignment < 0.2 && len(cheapest) > 0 {
		lo, hi := cheapest[0], cheapest[0]
		for _, h := range cheapest {
			if h < lo {
				lo = h
			}
			if h > hi {
				hi = h
			}
		}
		recs = append(recs, fmt.Sprintf(
			"Low usage during cheapest hours (%02d:00-%02d:00). Schedule dishwasher, washing machine, or EV charging here.",
			lo, hi+1))
	}

	for _, h := range cheapest {
		if h <= 5 {
			recs = append(recs, "Overnight rates are cheap. Consider timer-controlled heating, EV charging, or battery storage.")
			break
		}
	}

	for _, h := range expensive {
		if h >= 17 && h <= 20 {
			recs = append(recs, "Evening peak pricing detected (17:00-21:00). Pre-heat home, pre-cook meals, or use battery storage during this period.")
			break
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "Your usage profile is well-aligned with cheap rate periods.")
	}
	return recs
}

func formatHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = fmt.Sprintf("%02d:00", h)
	}
	return strings.Join(parts, ", ")
}
