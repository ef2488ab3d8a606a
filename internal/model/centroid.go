package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
)

// Centroid is the mean feature vector observed for one crop.
type Centroid struct {
	Class string
	Mean  domain.FeatureVector
}

// FromCentroids builds a nearest-centroid classifier as a linear artifact.
// Features are standardized by the spread of the centroids; in that space
// argmin ||x-c||² equals argmax 2c·x - ||c||², giving weights 2c and
// intercept -||c||². Classes keep the order given.
func FromCentroids(centroids []Centroid) (Artifact, error) {
	if len(centroids) == 0 {
		return Artifact{}, errors.New("no centroids")
	}
	n := len(domain.FeatureNames)
	seen := make(map[string]bool, len(centroids))

	mean := make([]float64, n)
	for _, c := range centroids {
		if c.Class == "" || seen[c.Class] {
			return Artifact{}, fmt.Errorf("empty or duplicate class %q", c.Class)
		}
		seen[c.Class] = true
		for i := range n {
			mean[i] += c.Mean[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(centroids))
	}

	scale := make([]float64, n)
	for _, c := range centroids {
		for i := range n {
			d := c.Mean[i] - mean[i]
			scale[i] += d * d
		}
	}
	for i := range scale {
		scale[i] = math.Sqrt(scale[i] / float64(len(centroids)))
		if scale[i] == 0 {
			scale[i] = 1
		}
	}

	a := Artifact{
		Version:    Version,
		Features:   append([]string(nil), domain.FeatureNames...),
		Scaler:     Scaler{Mean: mean, Scale: scale},
		Classes:    make([]string, 0, len(centroids)),
		Weights:    make([][]float64, 0, len(centroids)),
		Intercepts: make([]float64, 0, len(centroids)),
	}
	for _, c := range centroids {
		row := make([]float64, n)
		var norm float64
		for i := range n {
			z := (c.Mean[i] - mean[i]) / scale[i]
			row[i] = 2 * z
			norm += z * z
		}
		a.Classes = append(a.Classes, c.Class)
		a.Weights = append(a.Weights, row)
		a.Intercepts = append(a.Intercepts, -norm)
	}
	return a, a.Validate()
}
