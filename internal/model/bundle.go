package model

import (
	"fmt"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
)

// Bundle is a validated, immutable classifier plus label encoder. It is safe
// for concurrent use.
type Bundle struct {
	artifact Artifact
}

// New validates a and wraps it in a Bundle.
func New(a Artifact) (*Bundle, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &Bundle{artifact: a}, nil
}

// Predict returns the numeric label with the highest linear score for the
// standardized feature vector. Ties go to the lower label.
func (b *Bundle) Predict(v domain.FeatureVector) (int, error) {
	a := b.artifact
	var x domain.FeatureVector
	for i := range v {
		x[i] = (v[i] - a.Scaler.Mean[i]) / a.Scaler.Scale[i]
	}

	best, bestScore := 0, 0.0
	for c, row := range a.Weights {
		score := a.Intercepts[c]
		for i, w := range row {
			score += w * x[i]
		}
		if c == 0 || score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, nil
}

// Decode maps a numeric label back to its crop name.
func (b *Bundle) Decode(label int) (string, error) {
	if label < 0 || label >= len(b.artifact.Classes) {
		return "", fmt.Errorf("label %d out of range [0, %d)", label, len(b.artifact.Classes))
	}
	return b.artifact.Classes[label], nil
}

// Classes returns a copy of the encoder's class names in label order.
func (b *Bundle) Classes() []string {
	return append([]string(nil), b.artifact.Classes...)
}
