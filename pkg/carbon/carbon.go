// Package carbon queries the National Grid carbon intensity API for
// Great Britain.
package carbon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agilewatch/agilewatch/pkg/common"
	"github.com/agilewatch/agilewatch/pkg/log"
	"github.com/agilewatch/agilewatch/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// intensityTimeLayout matches the API's minute-resolution timestamps,
// e.g. "2024-06-15T12:30Z".
const intensityTimeLayout = "2006-01-02T15:04Z07:00"

// Client talks to the carbon intensity API. National and regional
// figures are in gCO2/kWh.
type Client struct {
	apiURL string
	client *http.Client
}

// Configured sets up flags for the carbon intensity client and returns
// the instance. It uses lflag to register command-line flags for
// configuration.
func Configured() *Client {
	c := &Client{
		client: common.HTTPClient(10 * time.Second),
	}
	apiURL := lflag.String("carbon-api-url", "https://api.carbonintensity.org.uk", "URL for the National Grid carbon intensity API")

	lflag.Do(func() {
		c.apiURL = *apiURL
	})

	return c
}

// Validate ensures the configuration is valid.
func (c *Client) Validate() error {
	if c.apiURL == "" {
		return fmt.Errorf("carbon-api-url is required")
	}
	if _, err := url.Parse(c.apiURL); err != nil {
		return fmt.Errorf("failed to parse carbon url (%s): %w", c.apiURL, err)
	}
	return nil
}

type intensityEntry struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Intensity struct {
		Forecast *int   `json:"forecast"`
		Actual   *int   `json:"actual"`
		Index    string `json:"index"`
	} `json:"intensity"`
}

type intensityResponse struct {
	Data []intensityEntry `json:"data"`
}

type regionalResponse struct {
	Data []struct {
		ShortName string           `json:"shortname"`
		Postcode  string           `json:"postcode"`
		Data      []intensityEntry `json:"data"`
	} `json:"data"`
}

// Current returns the national intensity for the present half hour.
// Actual readings win over the forecast when both are published.
func (c *Client) Current(ctx context.Context) (types.CarbonIntensity, error) {
	var res intensityResponse
	if err := c.fetch(ctx, "/intensity", &res); err != nil {
		return types.CarbonIntensity{}, err
	}
	if len(res.Data) == 0 {
		return types.CarbonIntensity{}, fmt.Errorf("carbon api returned no data")
	}
	return c.entryToIntensity(ctx, res.Data[0]), nil
}

// Forecast returns the national half-hourly forecast covering now
// through now+hours.
func (c *Client) Forecast(ctx context.Context, hours int) ([]types.CarbonIntensity, error) {
	now := time.Now().UTC()
	path := fmt.Sprintf(
		"/intensity/%s/%s",
		now.Format("2006-01-02T15:04Z"),
		now.Add(time.Duration(hours)*time.Hour).Format("2006-01-02T15:04Z"),
	)

	var res intensityResponse
	if err := c.fetch(ctx, path, &res); err != nil {
		return nil, err
	}

	out := make([]types.CarbonIntensity, 0, len(res.Data))
	for _, entry := range res.Data {
		out = append(out, c.entryToIntensity(ctx, entry))
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched carbon forecast",
		slog.Int("count", len(out)),
		slog.Int("hours", hours),
	)
	return out, nil
}

// Regional returns the forecast intensity for a postcode. Only the
// outward code (the part before the space) is sent upstream.
func (c *Client) Regional(ctx context.Context, postcode string) (types.CarbonIntensity, error) {
	outward := postcode
	if before, _, found := strings.Cut(postcode, " "); found {
		outward = before
	} else if len(outward) > 4 {
		outward = outward[:4]
	}

	var res regionalResponse
	if err := c.fetch(ctx, "/regional/postcode/"+url.PathEscape(outward), &res); err != nil {
		return types.CarbonIntensity{}, err
	}
	if len(res.Data) == 0 || len(res.Data[0].Data) == 0 {
		return types.CarbonIntensity{}, fmt.Errorf("carbon api returned no data for postcode: %s", outward)
	}
	return c.entryToIntensity(ctx, res.Data[0].Data[0]), nil
}

func (c *Client) entryToIntensity(ctx context.Context, entry intensityEntry) types.CarbonIntensity {
	out := types.CarbonIntensity{
		Index: entry.Intensity.Index,
	}
	if out.Index == "" {
		out.Index = "unknown"
	}
	switch {
	case entry.Intensity.Actual != nil:
		out.Intensity = *entry.Intensity.Actual
	case entry.Intensity.Forecast != nil:
		out.Intensity = *entry.Intensity.Forecast
	}

	if t, err := time.Parse(intensityTimeLayout, entry.From); err == nil {
		out.From = t
	} else {
		log.Ctx(ctx).WarnContext(ctx, "failed to parse carbon timestamp", slog.String("value", entry.From), slog.Any("error", err))
	}
	if t, err := time.Parse(intensityTimeLayout, entry.To); err == nil {
		out.To = t
	} else {
		log.Ctx(ctx).WarnContext(ctx, "failed to parse carbon timestamp", slog.String("value", entry.To), slog.Any("error", err))
	}
	return out
}

func (c *Client) fetch(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	log.Ctx(ctx).DebugContext(ctx, "fetching carbon intensity", slog.String("url", c.apiURL+path))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch carbon intensity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("carbon api returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
