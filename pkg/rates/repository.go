// Package rates stores the published tariff rates keyed by local London
// date and answers point-in-time queries against them. The repository
// holds one immutable snapshot at a time; refreshes build a complete
// replacement and swap it in, so readers never see partial data.
package rates

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/types"
)

// expectedSlotsPerDay is the usual number of half-hourly slots in a local
// day. DST transition days legitimately have 46 or 50.
const expectedSlotsPerDay = 48

// ErrNoRates is returned when a refresh produces no rates and there is no
// previously published data to fall back on.
var ErrNoRates = errors.New("no rates returned and no existing data")

const dateLayout = "2006-01-02"

// DateOf returns the local London date key for an instant.
func DateOf(t time.Time) string {
	return t.In(types.London).Format(dateLayout)
}

// ParseDate validates a YYYY-MM-DD date key and returns local midnight.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, date, types.London)
}

// Repository holds the current rates snapshot.
type Repository struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewRepository returns an empty repository. Queries against it succeed
// but find nothing until the first Replace.
func NewRepository() *Repository {
	return &Repository{snap: &Snapshot{days: map[string][]types.Rate{}}}
}

// Snapshot returns the currently published snapshot. Snapshots are
// immutable, so callers can keep querying one while a concurrent refresh
// publishes the next. Never returns nil.
func (r *Repository) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// HasData returns true once a non-empty snapshot has been published.
func (r *Repository) HasData() bool {
	return r.Snapshot().HasData()
}

// Replace ingests a freshly fetched set of rates and publishes a new
// snapshot if the data actually changed. It returns true when a new
// snapshot was published.
//
// An empty fetch never clears existing data: with prior data it logs a
// warning and keeps the old snapshot, without prior data it returns
// ErrNoRates.
func (r *Repository) Replace(ctx context.Context, fetched []types.Rate, now time.Time) (bool, error) {
	if len(fetched) == 0 {
		if !r.HasData() {
			return false, ErrNoRates
		}
		log.Ctx(ctx).WarnContext(ctx, "fetch returned no rates, keeping existing data")
		return false, nil
	}

	days := make(map[string][]types.Rate)
	for _, rate := range fetched {
		key := DateOf(rate.ValidFrom)
		days[key] = append(days[key], rate)
	}

	dates := make([]string, 0, len(days))
	slotCount := 0
	for key, slots := range days {
		sort.Slice(slots, func(i, j int) bool {
			return slots[i].ValidFrom.Before(slots[j].ValidFrom)
		})
		dates = append(dates, key)
		slotCount += len(slots)
		if len(slots) < expectedSlotsPerDay {
			log.Ctx(ctx).WarnContext(
				ctx,
				"day has fewer slots than expected",
				slog.String("date", key),
				slog.Int("slots", len(slots)),
				slog.Int("expected", expectedSlotsPerDay),
			)
		}
	}
	sort.Strings(dates)

	next := &Snapshot{
		days:        days,
		dates:       dates,
		slotCount:   slotCount,
		fingerprint: fingerprint(days, dates),
		updatedAt:   now,
	}

	r.mu.Lock()
	prev := r.snap
	if prev.fingerprint == next.fingerprint {
		r.mu.Unlock()
		log.Ctx(ctx).DebugContext(ctx, "rates unchanged", slog.String("fingerprint", next.fingerprint))
		return false, nil
	}
	r.snap = next
	r.mu.Unlock()

	log.Ctx(ctx).InfoContext(
		ctx,
		"published new rates snapshot",
		slog.Int("days", len(dates)),
		slog.Int("slots", slotCount),
		slog.String("fingerprint", next.fingerprint),
	)
	return true, nil
}

// fingerprint hashes every slot's start and price with days in ascending
// order, so a refresh returning identical data in a different order still
// matches the published snapshot.
func fingerprint(days map[string][]types.Rate, dates []string) string {
	h := sha256.New()
	for _, date := range dates {
		for _, r := range days[date] {
			h.Write([]byte(r.ValidFrom.UTC().Format(time.RFC3339)))
			h.Write([]byte{':'})
			h.Write([]byte(strconv.FormatFloat(r.PencePerKWH, 'f', -1, 64)))
			h.Write([]byte{'\n'})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
