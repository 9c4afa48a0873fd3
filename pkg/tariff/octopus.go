package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/agilewatch/agilewatch/pkg/common"
	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// maxRatePages bounds pagination so a misbehaving upstream can't make us
// walk next links forever. Two days of half-hourly rates fit in one page.
const maxRatePages = 3

// APIError is returned when the upstream responds with a non-2xx status.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("octopus api returned status: %d", e.StatusCode)
}

// Octopus implements the Provider interface for the Octopus Energy Agile
// tariff API.
type Octopus struct {
	apiURL      string
	productCode string
	tariffCode  string
	apiKey      string
	client      *http.Client
}

// Configured sets up flags for the Octopus client and returns the instance.
// It uses lflag to register command-line flags for configuration.
func Configured() *Octopus {
	o := &Octopus{
		client: common.HTTPClient(30 * time.Second),
	}
	apiURL := lflag.String("octopus-api-url", "https://api.octopus.energy/v1", "Base URL for the Octopus Energy API")
	product := lflag.String("octopus-product-code", "AGILE-18-02-21", "Octopus Agile product code")
	tariffCode := lflag.String("octopus-tariff-code", "E-1R-AGILE-18-02-21-J", "Octopus Agile tariff code (includes the region letter)")
	apiKey := lflag.String("octopus-api-key", "", "API key for the Octopus API (optional, rates are public)")

	lflag.Do(func() {
		o.apiURL = *apiURL
		o.productCode = *product
		o.tariffCode = *tariffCode
		o.apiKey = *apiKey
	})

	return o
}

// Validate ensures the configuration is valid.
func (o *Octopus) Validate() error {
	if o.apiURL == "" {
		return fmt.Errorf("octopus-api-url is required")
	}
	if _, err := url.Parse(o.apiURL); err != nil {
		return fmt.Errorf("failed to parse octopus url (%s): %w", o.apiURL, err)
	}
	if o.productCode == "" {
		return fmt.Errorf("octopus-product-code is required")
	}
	if o.tariffCode == "" {
		return fmt.Errorf("octopus-tariff-code is required")
	}
	return nil
}

// octopusRateEntry represents a single rate in the JSON returned by Octopus.
type octopusRateEntry struct {
	ValidFrom   string  `json:"valid_from"`
	ValidTo     string  `json:"valid_to"`
	ValueIncVAT float64 `json:"value_inc_vat"`
}

// octopusRatesResponse is a page of the standard-unit-rates listing.
type octopusRatesResponse struct {
	Count   int                `json:"count"`
	Next    string             `json:"next"`
	Results []octopusRateEntry `json:"results"`
}

// Rates retrieves all currently published rates for the configured tariff.
// Results are returned as-is from the API, newest first.
func (o *Octopus) Rates(ctx context.Context) ([]types.Rate, error) {
	pageURL := fmt.Sprintf("%s/products/%s/electricity-tariffs/%s/standard-unit-rates/",
		o.apiURL, o.productCode, o.tariffCode)

	var rates []types.Rate
	var earliest time.Time
	var latest time.Time
	for page := 0; pageURL != "" && page < maxRatePages; page++ {
		res, err := o.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		for _, item := range res.Results {
			from, err := time.Parse(time.RFC3339, item.ValidFrom)
			if err != nil {
				return nil, fmt.Errorf("failed to parse valid_from (%s): %w", item.ValidFrom, err)
			}
			to, err := time.Parse(time.RFC3339, item.ValidTo)
			if err != nil {
				return nil, fmt.Errorf("failed to parse valid_to (%s): %w", item.ValidTo, err)
			}
			rates = append(rates, types.Rate{
				ValidFrom:   from,
				ValidTo:     to,
				PencePerKWH: item.ValueIncVAT,
			})
			if earliest.IsZero() || from.Before(earliest) {
				earliest = from
			}
			if to.After(latest) {
				latest = to
			}
		}

		pageURL = res.Next
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched octopus rates",
		slog.Int("count", len(rates)),
		slog.Time("earliest", earliest),
		slog.Time("latest", latest),
	)
	return rates, nil
}

func (o *Octopus) fetchPage(ctx context.Context, pageURL string) (octopusRatesResponse, error) {
	var res octopusRatesResponse

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return res, fmt.Errorf("failed to create request: %w", err)
	}
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetching rates from octopus", slog.String("url", pageURL))

	resp, err := o.client.Do(req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch rates", slog.Any("error", err))
		return res, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return res, &APIError{StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode octopus response", slog.Any("error", err))
		return res, fmt.Errorf("failed to decode response: %w", err)
	}
	return res, nil
}
