// Package scheduler keeps the rate repository fresh. Octopus publishes
// the next day's Agile prices in the late afternoon, so scheduled runs
// only hit the API inside that daily window once data is loaded.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/metrics"
	"github.com/agilewatch/agilewatch/pkg/rates"
	"github.com/agilewatch/agilewatch/pkg/tariff"
	"github.com/agilewatch/agilewatch/pkg/types"
	"github.com/agilewatch/agilewatch/pkg/ws"
	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
	"github.com/robfig/cron/v3"
)

// ErrRefreshInFlight is returned when a refresh is requested while
// another one is still running.
var ErrRefreshInFlight = errors.New("a refresh is already in progress")

// fetchTimeout bounds a single provider fetch.
const fetchTimeout = 30 * time.Second

// Broadcaster pushes a message to all connected WebSocket clients.
type Broadcaster interface {
	Broadcast(msg []byte)
}

// RefreshResult describes the published state after a refresh.
type RefreshResult struct {
	Changed     bool     `json:"changed"`
	Dates       []string `json:"dates"`
	Fingerprint string   `json:"fingerprint"`
}

// Scheduler periodically pulls rates from the tariff provider,
// publishes them to the repository, and announces changes over the hub.
type Scheduler struct {
	provider tariff.Provider
	repo     *rates.Repository
	hub      Broadcaster

	intervalSetting string
	windowStart     types.Clock
	windowEnd       types.Clock

	mu sync.Mutex
}

// Configured sets up flags for the scheduler and returns the instance.
// It uses lflag to register command-line flags for configuration.
func Configured(provider tariff.Provider, repo *rates.Repository, hub Broadcaster) *Scheduler {
	s := &Scheduler{
		provider: provider,
		repo:     repo,
		hub:      hub,
	}
	interval := lflag.String("refresh-interval", "1800", "Seconds between refresh attempts, or a cron expression")
	windowStart := lflag.String("fetch-window-start", "16:00", "Start of the daily London-time window when new rates are published")
	windowEnd := lflag.String("fetch-window-end", "20:00", "End of the daily London-time window when new rates are published")

	lflag.Do(func() {
		s.intervalSetting = *interval

		var err error
		if s.windowStart, err = types.ParseClock(*windowStart); err != nil {
			log.Ctx(context.Background()).Error("invalid fetch-window-start", slog.String("value", *windowStart), slog.Any("error", err))
			os.Exit(1)
		}
		if s.windowEnd, err = types.ParseClock(*windowEnd); err != nil {
			log.Ctx(context.Background()).Error("invalid fetch-window-end", slog.String("value", *windowEnd), slog.Any("error", err))
			os.Exit(1)
		}
	})

	return s
}

// Refresh fetches rates and publishes them. With force unset the fetch
// is skipped outside the publication window once data is loaded, and
// the result describes the untouched published state. Only one refresh
// runs at a time; concurrent calls get ErrRefreshInFlight.
func (s *Scheduler) Refresh(ctx context.Context, force bool) (RefreshResult, error) {
	if !s.mu.TryLock() {
		return RefreshResult{}, ErrRefreshInFlight
	}
	defer s.mu.Unlock()

	now := time.Now()
	if !force && !s.shouldFetch(now) {
		log.Ctx(ctx).DebugContext(ctx, "skipping refresh outside fetch window")
		snap := s.repo.Snapshot()
		return RefreshResult{
			Dates:       snap.Days(),
			Fingerprint: snap.Fingerprint(),
		}, nil
	}

	started := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	fetched, err := s.provider.Rates(fetchCtx)
	if err != nil {
		metrics.ObserveRefresh(started, err)
		return RefreshResult{}, fmt.Errorf("failed to fetch rates: %w", err)
	}

	changed, err := s.repo.Replace(ctx, fetched, now)
	metrics.ObserveRefresh(started, err)
	if err != nil {
		return RefreshResult{}, err
	}

	snap := s.repo.Snapshot()
	metrics.DaysLoaded.Set(float64(len(snap.Days())))
	metrics.SlotsLoaded.Set(float64(snap.SlotCount()))

	res := RefreshResult{
		Changed:     changed,
		Dates:       snap.Days(),
		Fingerprint: snap.Fingerprint(),
	}
	if changed {
		metrics.RatesChangedTotal.Inc()
		s.announce(ctx, res)
	}
	return res, nil
}

// announce broadcasts a rates:updated event for a changed snapshot.
func (s *Scheduler) announce(ctx context.Context, res RefreshResult) {
	if s.hub == nil {
		return
	}
	msg, err := ws.NewEnvelope(ws.TypeRatesUpdated, ws.RatesUpdatedPayload{
		EventID:     uuid.NewString(),
		Dates:       res.Dates,
		Fingerprint: res.Fingerprint,
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to build rates:updated message", slog.Any("error", err))
		return
	}
	s.hub.Broadcast(msg)
}

// shouldFetch reports whether a scheduled run should hit the API. An
// empty repository always fetches; otherwise only inside the daily
// publication window, both ends inclusive.
func (s *Scheduler) shouldFetch(now time.Time) bool {
	if !s.repo.HasData() {
		return true
	}
	local := now.In(types.London)
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= s.windowStart.Minutes() && minutes <= s.windowEnd.Minutes()
}

// Run fetches immediately and then keeps refreshing on the configured
// interval until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.Refresh(ctx, true); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "initial rate fetch failed", slog.Any("error", err))
	}

	// control tick; the real cadence comes from nextRunAfter
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	nextRun := s.nextRunAfter(time.Now())
	log.Ctx(ctx).InfoContext(
		ctx,
		"scheduler running",
		slog.String("interval", s.intervalSetting),
		slog.Time("nextRun", nextRun),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().Before(nextRun) {
				continue
			}
			if _, err := s.Refresh(ctx, false); err != nil && !errors.Is(err, ErrRefreshInFlight) {
				log.Ctx(ctx).ErrorContext(ctx, "scheduled rate refresh failed", slog.Any("error", err))
			}
			nextRun = s.nextRunAfter(time.Now())
		}
	}
}

// nextRunAfter parses the interval setting as integer seconds or a
// standard cron expression.
func (s *Scheduler) nextRunAfter(lastRun time.Time) time.Time {
	if v, err := strconv.Atoi(s.intervalSetting); err == nil && v > 0 {
		return lastRun.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(s.intervalSetting); err == nil {
		return sched.Next(lastRun)
	}
	log.Ctx(context.Background()).Warn("invalid refresh-interval, falling back to 30m", slog.String("setting", s.intervalSetting))
	return lastRun.Add(30 * time.Minute)
}
