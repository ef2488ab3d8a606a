// Command validate checks a model artifact before it is deployed: it applies
// the same validation the server runs at startup, verifies the label encoder
// classes, and can classify a sample feature vector.
//
// Usage:
//
//	go run ./cmd/validate -model model/crop_model.yaml
//	go run ./cmd/validate -model model/crop_model.yaml -features 80,48,40,23.7,82,6.4,236
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/crop-advisor-service/internal/domain"
	"github.com/couchcryptid/crop-advisor-service/internal/model"
)

func main() {
	modelPath := flag.String("model", "model/crop_model.yaml", "model artifact to validate")
	features := flag.String("features", "", "optional comma-separated "+strings.Join(domain.FeatureNames, ",")+" values to classify")
	flag.Parse()

	bundle, err := model.Load(*modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
	classes := bundle.Classes()
	fmt.Printf("OK   %s: %d classes\n", *modelPath, len(classes))

	errs := checkClasses(classes)

	if *features != "" {
		if err := classify(bundle, *features); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d validation error(s):\n", len(errs))
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed.")
}

// checkClasses verifies the label encoder: names are non-empty, unique, and
// sorted, which is the order a label encoder assigns numeric labels in.
func checkClasses(classes []string) []string {
	var errs []string
	seen := make(map[string]bool, len(classes))
	for i, c := range classes {
		if strings.TrimSpace(c) == "" {
			errs = append(errs, fmt.Sprintf("class %d is empty", i))
		}
		if seen[c] {
			errs = append(errs, fmt.Sprintf("class %q appears more than once", c))
		}
		seen[c] = true
	}
	if !slices.IsSorted(classes) {
		errs = append(errs, "classes are not in sorted label order")
	}
	if len(errs) == 0 {
		fmt.Printf("OK   classes: %s\n", strings.Join(classes, ", "))
	}
	return errs
}

func classify(bundle *model.Bundle, raw string) error {
	parts := strings.Split(raw, ",")
	var v domain.FeatureVector
	if len(parts) != len(v) {
		return fmt.Errorf("-features: got %d values, want %d", len(parts), len(v))
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("-features: %s: %w", domain.FeatureNames[i], err)
		}
		v[i] = f
	}

	label, err := bundle.Predict(v)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	crop, err := bundle.Decode(label)
	if err != nil {
		return fmt.Errorf("decode label: %w", err)
	}
	fmt.Printf("OK   features %v → label %d (%s)\n", v, label, crop)
	return nil
}
