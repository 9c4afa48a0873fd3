// Package tariff fetches half-hourly unit rates from the upstream tariff
// API. The rest of the system only depends on the Provider interface so
// tests can swap in a fake.
package tariff

import (
	"context"

	"github.com/agilewatch/agilewatch/pkg/types"
)

// Provider fetches the unit rates the upstream currently publishes,
// typically covering today and (after the afternoon publish) tomorrow.
type Provider interface {
	Rates(ctx context.Context) ([]types.Rate, error)
}
