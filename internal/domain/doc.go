// Package domain turns a coordinate into the seven-feature input of the crop
// classifier and defines the provider interfaces the adapters implement.
//
// # Data Sources
//
// Three independent public APIs are queried per request:
//
//	Nominatim (OpenStreetMap) reverse geocoding  → place name
//	Open-Meteo forecast + historical archive     → temperature, humidity, rainfall
//	ISRIC SoilGrids v2.0 properties query        → nitrogen, pH, CEC
//
// None of them is required. Each aggregation degrades to documented defaults
// so a prediction is always produced from whatever data is available.
//
// # Feature Order
//
// The classifier consumes a positional vector:
//
//	(N, P, K, temperature, humidity, ph, rainfall)
//
// [FeatureNames] is the single source of this order and model artifacts must
// declare the same list.
//
// # Weather
//
// Temperature (°C) and relative humidity (%) are the arithmetic means of the
// hourly forecast series, rounded to 2 decimals. An empty series averages to
// 25.0 °C / 65.0 %. Rainfall is the sum of daily precipitation over the 365
// days ending today (UTC), divided by 10. Any lookup error replaces the whole
// sample with 25.0 / 65.0 / 1200.0; partial results are not kept.
//
// # Soil
//
// SoilGrids layers are read at the 0-5cm depth using the mean statistic and
// SoilGrids' mapped units (no d_factor conversion):
//
//	nitrogen → N
//	phh2o    → pH (7.0 when the layer is absent)
//	cec      → P = cec × 0.8, K = cec × 2.5
//
// Phosphorus and potassium are rough proxies, not measurements. Zero values
// of N, P, or K are replaced with uniform random values (N 10–50, P 20–80,
// K 100–300); pH is never replaced. A failed lookup yields a fully random
// sample (N 20–40, P 30–70, K 150–250, pH 6.5–7.5).
//
// # Place Names
//
// The first non-empty address field wins, in the order village, town, city,
// municipality, suburb, neighbourhood, county, state_district, state,
// country. A state- or country-level match is replaced by the first segment
// of the display name when one exists. Failures yield "Unknown Location".
package domain
