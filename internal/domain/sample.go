package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned when a latitude or longitude is not a finite number.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS-84 latitude/longitude pair. Only finiteness is enforced.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate validates and builds a Coordinate.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return Coordinate{}, fmt.Errorf("%w: lat must be a finite number", ErrInvalidCoordinate)
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return Coordinate{}, fmt.Errorf("%w: lng must be a finite number", ErrInvalidCoordinate)
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// Sample provenance values.
const (
	SourceUpstream = "upstream"
	SourceFallback = "fallback"
)

// WeatherSample holds derived climate features for a coordinate.
type WeatherSample struct {
	Temperature float64 // °C, mean of the hourly forecast
	Humidity    float64 // %, mean of the hourly forecast
	Rainfall    float64 // mm, trailing-year precipitation sum / 10
	Source      string  // SourceUpstream or SourceFallback
}

// SoilSample holds soil features for a coordinate. Phosphorus and potassium
// are estimates derived from cation-exchange capacity, not measurements.
type SoilSample struct {
	Nitrogen   float64
	Phosphorus float64
	Potassium  float64
	PH         float64
	Source     string   // SourceUpstream or SourceFallback
	Imputed    []string // feature names replaced with random values after a zero reading
}

// Prediction is the outcome of one predict request.
type Prediction struct {
	Crop         string        `json:"prediction"`
	LocationName string        `json:"location_name"`
	Features     FeatureVector `json:"features"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
