// Package server exposes the HTTP API over the rate repository, the
// analysis helpers, and the refresh scheduler.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/agilewatch/agilewatch/pkg/analysis"
	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/rates"
	"github.com/agilewatch/agilewatch/pkg/scheduler"
	"github.com/agilewatch/agilewatch/pkg/types"
	"github.com/agilewatch/agilewatch/pkg/ws"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Refresher forces a rate refresh, usually the scheduler.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (scheduler.RefreshResult, error)
}

// CarbonSource reports grid carbon intensity, usually the carbon client.
type CarbonSource interface {
	Current(ctx context.Context) (types.CarbonIntensity, error)
	Forecast(ctx context.Context, hours int) ([]types.CarbonIntensity, error)
	Regional(ctx context.Context, postcode string) (types.CarbonIntensity, error)
}

// Server handles the HTTP API for the AgileWatch system. It reads from
// the rate repository and delegates mutations to the scheduler.
type Server struct {
	repo      *rates.Repository
	refresher Refresher
	profiles  *analysis.Profiles
	carbon    CarbonSource
	hub       *ws.Hub

	listenAddr         string
	corsOrigins        []string
	cheapThreshold     float64
	expensiveThreshold float64
	defaultDailyKWH    float64
	defaultProfile     string
	defaultFlatRate    float64
	exportConfig       analysis.ExportConfig
	serverName         string
	httpServer         *http.Server
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(repo *rates.Repository, refresher Refresher, profiles *analysis.Profiles, carbon CarbonSource, hub *ws.Hub) *Server {
	srv := &Server{
		repo:      repo,
		refresher: refresher,
		profiles:  profiles,
		carbon:    carbon,
		hub:       hub,

		serverName: "agilewatch",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	corsOrigins := lflag.String("cors-allowed-origins", "", "Comma-delimited list of allowed CORS origins (empty allows all)")
	cheap := lflag.String("cheap-threshold", "10.0", "Price (p/kWh) below which a slot counts as cheap")
	expensive := lflag.String("expensive-threshold", "25.0", "Price (p/kWh) above which a slot counts as expensive")
	dailyKWH := lflag.String("daily-kwh", "10.0", "Default daily consumption (kWh) for cost analysis")
	profile := lflag.String("usage-profile", analysis.DefaultProfile, "Default usage profile for cost analysis")
	flatRate := lflag.String("flat-rate", "price_cap", "Flat tariff to compare against, a named comparison or a price in p/kWh")
	exportRate := lflag.String("export-rate", "15.0", "SEG export rate (p/kWh)")
	batteryEfficiency := lflag.String("battery-efficiency", "0.9", "Round-trip battery efficiency (0-1)")
	batteryCapacity := lflag.String("battery-capacity-kwh", "10.0", "Battery capacity (kWh) for arbitrage estimates")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *corsOrigins != "" {
			srv.corsOrigins = strings.Split(*corsOrigins, ",")
			for i, origin := range srv.corsOrigins {
				srv.corsOrigins[i] = strings.TrimSpace(origin)
			}
		}
		srv.defaultProfile = *profile
		srv.cheapThreshold = mustFloat("cheap-threshold", *cheap)
		srv.expensiveThreshold = mustFloat("expensive-threshold", *expensive)
		srv.defaultDailyKWH = mustFloat("daily-kwh", *dailyKWH)
		srv.defaultFlatRate = resolveFlatRate(*flatRate)
		srv.exportConfig = analysis.ExportConfig{
			ExportRatePence:    mustFloat("export-rate", *exportRate),
			BatteryEfficiency:  mustFloat("battery-efficiency", *batteryEfficiency),
			BatteryCapacityKWH: mustFloat("battery-capacity-kwh", *batteryCapacity),
		}
	})

	return srv
}

func mustFloat(flag, value string) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Ctx(context.Background()).Error("invalid flag value", slog.String("flag", flag), slog.String("value", value))
		os.Exit(1)
	}
	return v
}

// resolveFlatRate accepts either a named comparison tariff or a literal
// price in p/kWh.
func resolveFlatRate(value string) float64 {
	if v, ok := analysis.FlatRate(value); ok {
		return v
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Ctx(context.Background()).Error("invalid flat-rate, expected a comparison name or p/kWh price", slog.String("value", value))
		os.Exit(1)
	}
	return v
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/rates/current", s.handleCurrentRate)
	apiMux.HandleFunc("GET /api/rates/next", s.handleNextRate)
	apiMux.HandleFunc("GET /api/rates/day", s.handleDayRates)
	apiMux.HandleFunc("GET /api/rates/days", s.handleListDays)
	apiMux.HandleFunc("GET /api/windows/cheapest", s.handleCheapestWindow)
	apiMux.HandleFunc("GET /api/windows/expensive", s.handleMostExpensiveWindow)
	apiMux.HandleFunc("GET /api/windows/charge", s.handleChargeWindow)
	apiMux.HandleFunc("GET /api/slots/cheapest", s.handleCheapestSlots)
	apiMux.HandleFunc("GET /api/slots/expensive", s.handleMostExpensiveSlots)
	apiMux.HandleFunc("GET /api/analysis/cost", s.handleCostEstimate)
	apiMux.HandleFunc("GET /api/analysis/savings", s.handleSavings)
	apiMux.HandleFunc("GET /api/analysis/export", s.handleExportAnalysis)
	apiMux.HandleFunc("GET /api/analysis/profile", s.handleProfileAssessment)
	apiMux.HandleFunc("GET /api/analysis/loadshift", s.handleLoadShift)
	apiMux.HandleFunc("GET /api/status", s.handleStatus)
	apiMux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	apiMux.HandleFunc("GET /api/carbon/current", s.handleCarbonCurrent)
	apiMux.HandleFunc("GET /api/carbon/forecast", s.handleCarbonForecast)
	apiMux.HandleFunc("GET /api/carbon/regional", s.handleCarbonRegional)
	apiMux.HandleFunc("POST /api/refresh", s.handleRefresh)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.metricsMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	chain := s.revisionMiddleware(corsHandler.Handler(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux))))

	// the websocket upgrade hijacks the connection, which the gzip
	// writer cannot do, so it hangs off the root directly
	root := http.NewServeMux()
	root.Handle("GET /api/ws", s.revisionMiddleware(ws.NewHandler(s.hub, s.repo)))
	root.Handle("/", chain)
	return root
}

// Run starts the HTTP server and blocks until the context is canceled or
// an error occurs. It also handles graceful shutdown when the context is
// done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capture server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// cacheDayResponse marks a day-scoped response cacheable, longer once
// the whole day is in the past.
func cacheDayResponse(w http.ResponseWriter, date string, now time.Time) {
	if date < rates.DateOf(now) {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=60")
	}
}

// dateParam resolves the optional date query parameter, defaulting to
// now's local date.
func dateParam(r *http.Request, now time.Time) (string, error) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return rates.DateOf(now), nil
	}
	if _, err := rates.ParseDate(date); err != nil {
		return "", fmt.Errorf("invalid date (%s): expected YYYY-MM-DD", date)
	}
	return date, nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (%s): expected a number", name, raw)
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (%s): expected an integer", name, raw)
	}
	return v, nil
}
