// Package model loads the crop classifier and its label encoder from a
// portable artifact file and evaluates it against domain feature vectors.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Version is the artifact schema version this package reads and writes.
const Version = 1

// Artifact is the on-disk form of a trained classifier. Classes doubles as
// the label encoder: a numeric label is an index into it.
type Artifact struct {
	Version    int         `yaml:"version" json:"version"`
	Features   []string    `yaml:"features" json:"features"`
	Scaler     Scaler      `yaml:"scaler" json:"scaler"`
	Classes    []string    `yaml:"classes" json:"classes"`
	Weights    [][]float64 `yaml:"weights" json:"weights"`
	Intercepts []float64   `yaml:"intercepts" json:"intercepts"`
}

// Scaler standardizes raw features as (x - Mean) / Scale.
type Scaler struct {
	Mean  []float64 `yaml:"mean" json:"mean"`
	Scale []float64 `yaml:"scale" json:"scale"`
}

// Load reads and validates an artifact. Files ending in .json are decoded as
// JSON; everything else is treated as YAML.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if isJSON(path) {
		err = json.Unmarshal(data, &a)
	} else {
		err = yaml.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	return New(a)
}

// Write encodes a to path, choosing JSON or YAML by extension.
func Write(path string, a Artifact) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(a, "", "  ")
	} else {
		data, err = yaml.Marshal(a)
	}
	if err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Validate checks that the artifact matches the service's feature layout and
// is internally consistent.
func (a Artifact) Validate() error {
	n := len(domain.FeatureNames)
	var errs []error

	if a.Version != Version {
		errs = append(errs, fmt.Errorf("unsupported version %d", a.Version))
	}
	if !slices.Equal(a.Features, domain.FeatureNames) {
		errs = append(errs, fmt.Errorf("features %v do not match %v", a.Features, domain.FeatureNames))
	}
	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
		errs = append(errs, fmt.Errorf("scaler must have %d means and scales", n))
	}
	for i, s := range a.Scaler.Scale {
		if s == 0 {
			errs = append(errs, fmt.Errorf("scaler scale[%d] is zero", i))
		}
	}
	if len(a.Classes) == 0 {
		errs = append(errs, errors.New("no classes"))
	}
	if len(a.Weights) != len(a.Classes) {
		errs = append(errs, fmt.Errorf("%d weight rows for %d classes", len(a.Weights), len(a.Classes)))
	}
	for i, row := range a.Weights {
		if len(row) != n {
			errs = append(errs, fmt.Errorf("weights[%d] has %d columns, want %d", i, len(row), n))
		}
		if !finite(row) {
			errs = append(errs, fmt.Errorf("weights[%d] is not finite", i))
		}
	}
	if len(a.Intercepts) != len(a.Classes) {
		errs = append(errs, fmt.Errorf("%d intercepts for %d classes", len(a.Intercepts), len(a.Classes)))
	}
	if !finite(a.Scaler.Mean) || !finite(a.Scaler.Scale) || !finite(a.Intercepts) {
		errs = append(errs, errors.New("scaler and intercepts must be finite"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid model artifact: %w", errors.Join(errs...))
	}
	return nil
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
