package domain

import (
	"context"
	"log/slog"
	"strings"
)

// UnknownLocation is returned when no place name can be resolved.
const UnknownLocation = "Unknown Location"

// Place is a reverse geocoding result: the provider's full display name and
// its structured address fields (village, town, city, state, ...).
type Place struct {
	DisplayName string
	Address     map[string]string
}

// ReverseGeocoder looks up place details for a coordinate.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinate) (Place, error)
}

// addressPriority lists address fields from most to least specific.
var addressPriority = []string{
	"village",
	"town",
	"city",
	"municipality",
	"suburb",
	"neighbourhood",
	"county",
	"state_district",
	"state",
	"country",
}

// ResolveLocationName reverse geocodes c into a human-readable place name.
// Failures degrade to UnknownLocation and are only logged.
func ResolveLocationName(ctx context.Context, c Coordinate, geocoder ReverseGeocoder, logger *slog.Logger) string {
	if geocoder == nil {
		return UnknownLocation
	}

	place, err := geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", c.Lat,
			"lng", c.Lng,
			"error", err,
		)
		return UnknownLocation
	}
	return PlaceName(place)
}

// PlaceName picks the most specific non-empty address field. When that lands
// on the state or country level, the first segment of the display name is
// usually a better label and is preferred if present.
func PlaceName(place Place) string {
	name := ""
	for _, field := range addressPriority {
		if v := place.Address[field]; v != "" {
			name = v
			break
		}
	}
	if name == "" {
		return UnknownLocation
	}

	if name == place.Address["state"] || name == place.Address["country"] {
		first, _, _ := strings.Cut(place.DisplayName, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return name
}
