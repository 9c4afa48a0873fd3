// agilescan fetches the current Agile rates once and prints a summary of
// today's prices, the cheapest windows, and the export outlook.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/agilewatch/agilewatch/pkg/analysis"
	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/rates"
	"github.com/agilewatch/agilewatch/pkg/tariff"
	"github.com/agilewatch/agilewatch/pkg/types"

	"github.com/levenlabs/go-lflag"
)

// windowMinutes are the durations summarized for a quick look.
var windowMinutes = []int{30, 60, 120, 180}

func main() {
	provider := tariff.Configured()
	lflag.Configure()

	ctx := context.Background()
	if err := provider.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid tariff configuration", "error", err)
		os.Exit(1)
	}

	fetched, err := provider.Rates(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch rates", "error", err)
		os.Exit(1)
	}

	repo := rates.NewRepository()
	now := time.Now()
	if _, err := repo.Replace(ctx, fetched, now); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load rates", "error", err)
		os.Exit(1)
	}

	snap := repo.Snapshot()
	fmt.Printf("loaded %d slots across %d days (fingerprint %.12s)\n", snap.SlotCount(), len(snap.Days()), snap.Fingerprint())

	today := rates.DateOf(now)
	if stats, ok := snap.Stats(today); ok {
		fmt.Printf("\n%s: %d slots, min %.2fp, max %.2fp, avg %.2fp\n",
			stats.Date, stats.SlotCount, stats.MinPence, stats.MaxPence, stats.AveragePence)
	} else {
		fmt.Printf("\nno rates for today (%s)\n", today)
	}

	if current, ok := snap.Current(now); ok {
		fmt.Printf("current rate: %.2fp/kWh (%s) until %s\n",
			current.PencePerKWH,
			types.RateStatusFor(current.PencePerKWH),
			current.ValidTo.In(types.London).Format("15:04"))
	}

	slots, ok := snap.Day(today)
	if !ok {
		return
	}

	fmt.Println("\ncheapest windows:")
	for _, minutes := range windowMinutes {
		w, ok := analysis.CheapestWindow(slots, time.Duration(minutes)*time.Minute)
		if !ok {
			fmt.Printf("  %4dm: no window available\n", minutes)
			continue
		}
		fmt.Printf("  %4dm: %s-%s avg %.2fp\n",
			minutes,
			w.Start.In(types.London).Format("15:04"),
			w.End.In(types.London).Format("15:04"),
			w.AveragePence)
	}

	export := analysis.AnalyzeExportWindows(slots, analysis.DefaultExportConfig())
	fmt.Printf("\nexport outlook: %d store slots, %d export slots", export.StoreSlotCount, export.ExportSlotCount)
	if export.ArbitragePence > 0 {
		fmt.Printf(", est. arbitrage %.1fp", export.ArbitragePence)
	}
	fmt.Println()
}
