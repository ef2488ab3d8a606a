package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock weather provider ---

type mockWeather struct {
	forecast    HourlyForecast
	forecastErr error
	daily       []float64
	dailyErr    error

	start, end time.Time
}

func (m *mockWeather) HourlyForecast(_ context.Context, _ Coordinate) (HourlyForecast, error) {
	return m.forecast, m.forecastErr
}

func (m *mockWeather) DailyPrecipitation(_ context.Context, _ Coordinate, start, end time.Time) ([]float64, error) {
	m.start, m.end = start, end
	return m.daily, m.dailyErr
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })
}

// --- tests ---

func TestAggregateWeather_Means(t *testing.T) {
	provider := &mockWeather{
		forecast: HourlyForecast{
			Temperature: []float64{20.0, 22.5, 25.1},
			Humidity:    []float64{70, 80},
		},
		daily: []float64{1.5, 0, 10.2, 3},
	}

	got := AggregateWeather(context.Background(), bangalore, provider, discardLogger())

	assert.InDelta(t, 22.53, got.Temperature, 1e-9)
	assert.InDelta(t, 75.0, got.Humidity, 1e-9)
	assert.InDelta(t, 1.47, got.Rainfall, 1e-9) // 14.7 / 10
	assert.Equal(t, SourceUpstream, got.Source)
}

func TestAggregateWeather_EmptyTemperatureSeries(t *testing.T) {
	provider := &mockWeather{
		forecast: HourlyForecast{Humidity: []float64{50}},
		daily:    []float64{100},
	}

	got := AggregateWeather(context.Background(), bangalore, provider, discardLogger())

	assert.InDelta(t, 25.0, got.Temperature, 1e-9)
	assert.InDelta(t, 50.0, got.Humidity, 1e-9)
	assert.InDelta(t, 10.0, got.Rainfall, 1e-9)
}

func TestAggregateWeather_EmptyHumiditySeries(t *testing.T) {
	provider := &mockWeather{forecast: HourlyForecast{Temperature: []float64{30}}}

	got := AggregateWeather(context.Background(), bangalore, provider, discardLogger())

	assert.InDelta(t, 30.0, got.Temperature, 1e-9)
	assert.InDelta(t, 65.0, got.Humidity, 1e-9)
	assert.InDelta(t, 0.0, got.Rainfall, 1e-9, "no precipitation data yields zero rainfall")
	assert.Equal(t, SourceUpstream, got.Source)
}

func TestAggregateWeather_ForecastError(t *testing.T) {
	provider := &mockWeather{
		forecastErr: errors.New("connection refused"),
		daily:       []float64{100},
	}

	got := AggregateWeather(context.Background(), bangalore, provider, discardLogger())

	assert.Equal(t, WeatherSample{Temperature: 25.0, Humidity: 65.0, Rainfall: 1200.0, Source: SourceFallback}, got)
}

func TestAggregateWeather_HistoryErrorDiscardsForecast(t *testing.T) {
	provider := &mockWeather{
		forecast: HourlyForecast{Temperature: []float64{31}, Humidity: []float64{40}},
		dailyErr: errors.New("status 429"),
	}

	got := AggregateWeather(context.Background(), bangalore, provider, discardLogger())

	assert.Equal(t, FallbackWeather(), got)
}

func TestAggregateWeather_NilProvider(t *testing.T) {
	got := AggregateWeather(context.Background(), bangalore, nil, discardLogger())
	assert.Equal(t, FallbackWeather(), got)
}

func TestAggregateWeather_TrailingYearWindow(t *testing.T) {
	freezeClock(t, time.Date(2024, time.March, 1, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)))
	provider := &mockWeather{}

	AggregateWeather(context.Background(), bangalore, provider, discardLogger())

	// 23:30 IST is 18:00 UTC on the same date.
	require.False(t, provider.end.IsZero())
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), provider.end)
	assert.Equal(t, time.Date(2023, time.March, 2, 0, 0, 0, 0, time.UTC), provider.start) // 365 days, leap year
}

func TestSeriesMean(t *testing.T) {
	assert.InDelta(t, 25.0, seriesMean(nil, 25.0), 1e-9)
	assert.InDelta(t, 0.33, seriesMean([]float64{0, 0, 1}, 25.0), 1e-9)
}

func TestRainfallEstimate(t *testing.T) {
	assert.InDelta(t, 0.0, RainfallEstimate(nil), 1e-9)
	assert.InDelta(t, 123.46, RainfallEstimate([]float64{1234.56}), 1e-9)
}
