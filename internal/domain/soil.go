package domain

import (
	"context"
	"log/slog"
)

// CEC scale factors for the phosphorus and potassium estimates.
const (
	PhosphorusPerCEC = 0.8
	PotassiumPerCEC  = 2.5

	DefaultPH = 7.0
)

// Bounds is a closed numeric range used for randomized substitutes.
type Bounds struct {
	Min, Max float64
}

// Contains reports whether v lies within the bounds.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Ranges for values substituted after a zero reading.
var (
	ZeroNitrogenRange   = Bounds{10, 50}
	ZeroPhosphorusRange = Bounds{20, 80}
	ZeroPotassiumRange  = Bounds{100, 300}
)

// Ranges for the fully randomized sample used when the lookup fails.
var (
	FallbackNitrogenRange   = Bounds{20, 40}
	FallbackPhosphorusRange = Bounds{30, 70}
	FallbackPotassiumRange  = Bounds{150, 250}
	FallbackPHRange         = Bounds{6.5, 7.5}
)

// SoilProperties holds the topsoil layer means returned by a soil provider.
// A nil field means the provider returned no layer for that property.
type SoilProperties struct {
	Nitrogen *float64
	PH       *float64 // pH in water
	CEC      *float64 // cation-exchange capacity
}

// SoilProvider fetches topsoil properties for a coordinate.
type SoilProvider interface {
	SoilProperties(ctx context.Context, c Coordinate) (SoilProperties, error)
}

// AggregateSoil derives N, P, K, and pH for c. A failed lookup yields a
// fully randomized sample; zero readings are replaced individually.
func AggregateSoil(ctx context.Context, c Coordinate, provider SoilProvider, logger *slog.Logger) SoilSample {
	if provider == nil {
		return FallbackSoil()
	}

	props, err := provider.SoilProperties(ctx, c)
	if err != nil {
		logger.Warn("soil lookup failed, using randomized fallback",
			"lat", c.Lat,
			"lng", c.Lng,
			"error", err,
		)
		return FallbackSoil()
	}

	sample := DeriveSoil(props)
	if len(sample.Imputed) > 0 {
		logger.Debug("soil zero readings replaced",
			"lat", c.Lat,
			"lng", c.Lng,
			"fields", sample.Imputed,
		)
	}
	return sample
}

// DeriveSoil converts raw layer means into a SoilSample.
//
// A reading of exactly zero is replaced with a random value, which treats a
// genuinely depleted soil the same as missing data. The behavior is kept for
// compatibility with the trained model's inputs but is suspect.
func DeriveSoil(props SoilProperties) SoilSample {
	s := SoilSample{PH: DefaultPH, Source: SourceUpstream}
	if props.Nitrogen != nil {
		s.Nitrogen = round2(*props.Nitrogen)
	}
	if props.PH != nil {
		s.PH = round2(*props.PH)
	}
	if props.CEC != nil {
		s.Phosphorus = round2(*props.CEC * PhosphorusPerCEC)
		s.Potassium = round2(*props.CEC * PotassiumPerCEC)
	}

	if s.Nitrogen == 0 {
		s.Nitrogen = uniform(ZeroNitrogenRange.Min, ZeroNitrogenRange.Max)
		s.Imputed = append(s.Imputed, "N")
	}
	if s.Phosphorus == 0 {
		s.Phosphorus = uniform(ZeroPhosphorusRange.Min, ZeroPhosphorusRange.Max)
		s.Imputed = append(s.Imputed, "P")
	}
	if s.Potassium == 0 {
		s.Potassium = uniform(ZeroPotassiumRange.Min, ZeroPotassiumRange.Max)
		s.Imputed = append(s.Imputed, "K")
	}
	return s
}

// FallbackSoil returns a randomized sample within typical agricultural ranges.
func FallbackSoil() SoilSample {
	return SoilSample{
		Nitrogen:   uniform(FallbackNitrogenRange.Min, FallbackNitrogenRange.Max),
		Phosphorus: uniform(FallbackPhosphorusRange.Min, FallbackPhosphorusRange.Max),
		Potassium:  uniform(FallbackPotassiumRange.Min, FallbackPotassiumRange.Max),
		PH:         uniform(FallbackPHRange.Min, FallbackPHRange.Max),
		Source:     SourceFallback,
	}
}
