package domain

import (
	"time"

	"github.com/google/uuid"
)

// PredictionEvent records one completed prediction for downstream consumers.
type PredictionEvent struct {
	ID           string        `json:"id"`
	Lat          float64       `json:"lat"`
	Lng          float64       `json:"lng"`
	Prediction   string        `json:"prediction"`
	LocationName string        `json:"location_name"`
	Features     FeatureVector `json:"features"`
	PredictedAt  time.Time     `json:"predicted_at"`
}

// NewPredictionEvent stamps p with a fresh ID and the current UTC time.
func NewPredictionEvent(c Coordinate, p Prediction) PredictionEvent {
	return PredictionEvent{
		ID:           uuid.NewString(),
		Lat:          c.Lat,
		Lng:          c.Lng,
		Prediction:   p.Crop,
		LocationName: p.LocationName,
		Features:     p.Features,
		PredictedAt:  clock.Now().UTC(),
	}
}
