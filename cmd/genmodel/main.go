// Command genmodel writes the nearest-centroid crop classifier artifact the
// server loads from MODEL_PATH, built from per-crop feature means.
//
// Usage:
//
//	go run ./cmd/genmodel -out model/crop_model.yaml
//	go run ./cmd/genmodel -out model/crop_model.json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
	"github.com/couchcryptid/crop-advisor-service/internal/model"
)

// builtinCentroids are per-crop means of the public crop recommendation
// dataset, in label encoder (alphabetical) order.
var builtinCentroids = []model.Centroid{
	{Class: "apple", Mean: domain.FeatureVector{20.8, 134.2, 199.9, 22.6, 92.3, 5.9, 112.7}},
	{Class: "banana", Mean: domain.FeatureVector{100.2, 82, 50, 27.4, 80.4, 6, 104.6}},
	{Class: "blackgram", Mean: domain.FeatureVector{40, 67.5, 19.2, 30, 65, 7.1, 67.9}},
	{Class: "chickpea", Mean: domain.FeatureVector{40, 68, 80, 18.9, 16.9, 7.3, 80}},
	{Class: "coconut", Mean: domain.FeatureVector{22, 16.9, 30.6, 27.4, 94.8, 6, 175.7}},
	{Class: "coffee", Mean: domain.FeatureVector{101.2, 28.7, 29.9, 25.5, 58.9, 6.8, 158.1}},
	{Class: "cotton", Mean: domain.FeatureVector{117.8, 46.2, 19.6, 24, 79.8, 6.9, 80.4}},
	{Class: "grapes", Mean: domain.FeatureVector{23.2, 132.5, 200.1, 23.8, 81.9, 6, 69.6}},
	{Class: "jute", Mean: domain.FeatureVector{78.4, 46.9, 40, 24.9, 79.6, 6.7, 174.8}},
	{Class: "kidneybeans", Mean: domain.FeatureVector{20.8, 67.5, 20, 20, 21.6, 5.7, 105.9}},
	{Class: "lentil", Mean: domain.FeatureVector{18.8, 68.4, 19.4, 24.5, 64.8, 6.9, 45.7}},
	{Class: "maize", Mean: domain.FeatureVector{78, 48, 20, 22, 65, 6.2, 85}},
	{Class: "mango", Mean: domain.FeatureVector{20.1, 27.2, 29.9, 31.2, 50.2, 5.8, 94.7}},
	{Class: "mothbeans", Mean: domain.FeatureVector{21.4, 48, 20.2, 28.2, 53.2, 6.8, 51.2}},
	{Class: "mungbean", Mean: domain.FeatureVector{21, 47.3, 19.9, 28.5, 85.5, 6.7, 48.4}},
	{Class: "muskmelon", Mean: domain.FeatureVector{100.3, 17.7, 50.1, 28.7, 92.3, 6.4, 24.7}},
	{Class: "orange", Mean: domain.FeatureVector{19.6, 16.6, 10, 22.8, 92.2, 7, 110.5}},
	{Class: "papaya", Mean: domain.FeatureVector{49.9, 59, 50, 33.7, 92.4, 6.7, 142.6}},
	{Class: "pigeonpeas", Mean: domain.FeatureVector{20.7, 67.7, 20.3, 27.7, 48, 5.8, 149.5}},
	{Class: "pomegranate", Mean: domain.FeatureVector{18.9, 18.8, 40.2, 21.8, 90.1, 6.4, 107.5}},
	{Class: "rice", Mean: domain.FeatureVector{80, 48, 40, 23.7, 82, 6.4, 236}},
	{Class: "watermelon", Mean: domain.FeatureVector{99.4, 17, 50.2, 25.6, 85.2, 6.5, 50.8}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "model/crop_model.yaml", "output path; a .json extension writes JSON, anything else YAML")
	flag.Parse()

	artifact, err := model.FromCentroids(builtinCentroids)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := model.Write(*out, artifact); err != nil {
		return err
	}
	log.Printf("wrote model artifact: %s (%d classes)", *out, len(artifact.Classes))
	return nil
}
