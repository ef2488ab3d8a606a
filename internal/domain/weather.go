package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Weather defaults substituted for empty series or failed lookups.
const (
	DefaultTemperature = 25.0
	DefaultHumidity    = 65.0
	FallbackRainfall   = 1200.0
)

// rainfallWindow is the trailing period summed for the rainfall estimate.
const rainfallWindow = 365 * 24 * time.Hour

// HourlyForecast is the provider's hourly series for the forecast range.
type HourlyForecast struct {
	Temperature []float64
	Humidity    []float64
}

// WeatherProvider fetches forecast and historical climate data.
type WeatherProvider interface {
	HourlyForecast(ctx context.Context, c Coordinate) (HourlyForecast, error)
	DailyPrecipitation(ctx context.Context, c Coordinate, start, end time.Time) ([]float64, error)
}

// FallbackWeather is returned whenever any weather lookup fails.
func FallbackWeather() WeatherSample {
	return WeatherSample{
		Temperature: DefaultTemperature,
		Humidity:    DefaultHumidity,
		Rainfall:    FallbackRainfall,
		Source:      SourceFallback,
	}
}

// AggregateWeather derives temperature, humidity, and rainfall for c. An error
// from either lookup discards everything and returns FallbackWeather.
func AggregateWeather(ctx context.Context, c Coordinate, provider WeatherProvider, logger *slog.Logger) WeatherSample {
	sample, err := aggregateWeather(ctx, c, provider)
	if err != nil {
		logger.Warn("weather lookup failed, using fallback",
			"lat", c.Lat,
			"lng", c.Lng,
			"error", err,
		)
		return FallbackWeather()
	}
	return sample
}

func aggregateWeather(ctx context.Context, c Coordinate, provider WeatherProvider) (WeatherSample, error) {
	if provider == nil {
		return WeatherSample{}, errors.New("no weather provider configured")
	}

	forecast, err := provider.HourlyForecast(ctx, c)
	if err != nil {
		return WeatherSample{}, fmt.Errorf("forecast: %w", err)
	}

	end := TodayUTC()
	start := end.Add(-rainfallWindow)
	daily, err := provider.DailyPrecipitation(ctx, c, start, end)
	if err != nil {
		return WeatherSample{}, fmt.Errorf("precipitation history: %w", err)
	}

	return WeatherSample{
		Temperature: seriesMean(forecast.Temperature, DefaultTemperature),
		Humidity:    seriesMean(forecast.Humidity, DefaultHumidity),
		Rainfall:    RainfallEstimate(daily),
		Source:      SourceUpstream,
	}, nil
}

// TodayUTC returns midnight of the current UTC date.
func TodayUTC() time.Time {
	now := clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// seriesMean averages values rounded to 2 decimals; an empty series is
// treated as the single value def.
func seriesMean(values []float64, def float64) float64 {
	if len(values) == 0 {
		values = []float64{def}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return round2(sum / float64(len(values)))
}

// RainfallEstimate scales a year of daily precipitation sums (mm) down by 10.
func RainfallEstimate(daily []float64) float64 {
	if len(daily) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range daily {
		sum += v
	}
	return round2(sum / 10)
}
