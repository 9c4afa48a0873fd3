package tariff

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOctopusRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/AGILE-18-02-21/electricity-tariffs/E-1R-AGILE-18-02-21-J/standard-unit-rates/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"count": 2,
			"next": null,
			"previous": null,
			"results": [
				{"value_exc_vat": 21.0, "value_inc_vat": 22.05, "valid_from": "2024-06-15T10:30:00Z", "valid_to": "2024-06-15T11:00:00Z"},
				{"value_exc_vat": 20.0, "value_inc_vat": 21.0, "valid_from": "2024-06-15T10:00:00Z", "valid_to": "2024-06-15T10:30:00Z"}
			]
		}`)
	}))
	defer server.Close()

	o := &Octopus{
		apiURL:      server.URL,
		productCode: "AGILE-18-02-21",
		tariffCode:  "E-1R-AGILE-18-02-21-J",
		client:      server.Client(),
	}

	rates, err := o.Rates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)

	// order is preserved from the API (newest first)
	assert.Equal(t, 22.05, rates[0].PencePerKWH)
	assert.Equal(t, time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC), rates[0].ValidFrom.UTC())
	assert.Equal(t, time.Date(2024, 6, 15, 11, 0, 0, 0, time.UTC), rates[0].ValidTo.UTC())
	assert.Equal(t, 21.0, rates[1].PencePerKWH)
}

func TestOctopusRatesPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/products/P/electricity-tariffs/T/standard-unit-rates/":
			fmt.Fprintf(w, `{
				"count": 2,
				"next": "%s/page2",
				"results": [
					{"value_inc_vat": 10.0, "valid_from": "2024-06-15T10:30:00Z", "valid_to": "2024-06-15T11:00:00Z"}
				]
			}`, server.URL)
		case "/page2":
			fmt.Fprint(w, `{
				"count": 2,
				"next": null,
				"results": [
					{"value_inc_vat": 11.0, "valid_from": "2024-06-15T10:00:00Z", "valid_to": "2024-06-15T10:30:00Z"}
				]
			}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	o := &Octopus{
		apiURL:      server.URL,
		productCode: "P",
		tariffCode:  "T",
		client:      server.Client(),
	}

	rates, err := o.Rates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, 10.0, rates[0].PencePerKWH)
	assert.Equal(t, 11.0, rates[1].PencePerKWH)
}

func TestOctopusRatesPageLimit(t *testing.T) {
	var requests int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		// always point at another page to make sure we stop on our own
		fmt.Fprintf(w, `{
			"count": 100,
			"next": "%s/more",
			"results": [
				{"value_inc_vat": 10.0, "valid_from": "2024-06-15T10:30:00Z", "valid_to": "2024-06-15T11:00:00Z"}
			]
		}`, server.URL)
	}))
	defer server.Close()

	o := &Octopus{
		apiURL:      server.URL,
		productCode: "P",
		tariffCode:  "T",
		client:      server.Client(),
	}

	rates, err := o.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxRatePages, requests)
	assert.Len(t, rates, maxRatePages)
}

func TestOctopusRatesAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count": 0, "next": null, "results": []}`)
	}))
	defer server.Close()

	o := &Octopus{
		apiURL:      server.URL,
		productCode: "P",
		tariffCode:  "T",
		apiKey:      "sk_test_123",
		client:      server.Client(),
	}

	rates, err := o.Rates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestOctopusRatesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	o := &Octopus{
		apiURL:      server.URL,
		productCode: "P",
		tariffCode:  "T",
		client:      server.Client(),
	}

	_, err := o.Rates(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestOctopusRatesBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	o := &Octopus{
		apiURL:      server.URL,
		productCode: "P",
		tariffCode:  "T",
		client:      server.Client(),
	}

	_, err := o.Rates(context.Background())
	assert.Error(t, err)
}

func TestOctopusRatesBadTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"count": 1,
			"next": null,
			"results": [
				{"value_inc_vat": 10.0, "valid_from": "yesterday", "valid_to": "2024-06-15T11:00:00Z"}
			]
		}`)
	}))
	defer server.Close()

	o := &Octopus{
		apiURL:      server.URL,
		productCode: "P",
		tariffCode:  "T",
		client:      server.Client(),
	}

	_, err := o.Rates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid_from")
}

func TestOctopusValidate(t *testing.T) {
	o := &Octopus{apiURL: "https://api.octopus.energy/v1", productCode: "P", tariffCode: "T"}
	assert.NoError(t, o.Validate())

	o = &Octopus{productCode: "P", tariffCode: "T"}
	assert.Error(t, o.Validate())

	o = &Octopus{apiURL: "https://api.octopus.energy/v1", tariffCode: "T"}
	assert.Error(t, o.Validate())

	o = &Octopus{apiURL: "https://api.octopus.energy/v1", productCode: "P"}
	assert.Error(t, o.Validate())
}
