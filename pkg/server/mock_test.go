package server

import (
	"context"

	"github.com/agilewatch/agilewatch/pkg/scheduler"
	"github.com/agilewatch/agilewatch/pkg/types"
	"github.com/stretchr/testify/mock"
)

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context, force bool) (scheduler.RefreshResult, error) {
	args := m.Called(ctx, force)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		return args.Get(0).(scheduler.RefreshResult), args.Error(1)
	}
	return scheduler.RefreshResult{}, nil
}

type mockCarbon struct {
	mock.Mock
}

func (m *mockCarbon) Current(ctx context.Context) (types.CarbonIntensity, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.CarbonIntensity), args.Error(1)
	}
	return types.CarbonIntensity{}, nil
}

func (m *mockCarbon) Forecast(ctx context.Context, hours int) ([]types.CarbonIntensity, error) {
	args := m.Called(ctx, hours)
	if len(args) > 0 {
		return args.Get(0).([]types.CarbonIntensity), args.Error(1)
	}
	return nil, nil
}

func (m *mockCarbon) Regional(ctx context.Context, postcode string) (types.CarbonIntensity, error) {
	args := m.Called(ctx, postcode)
	if len(args) > 0 {
		return args.Get(0).(types.CarbonIntensity), args.Error(1)
	}
	return types.CarbonIntensity{}, nil
}
