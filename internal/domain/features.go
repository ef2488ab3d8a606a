package domain

import "encoding/json"

// FeatureNames is the column order the classifier was trained on. The model
// is position-sensitive, so this order must never change.
var FeatureNames = []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

// FeatureVector is the ordered classifier input
// (N, P, K, temperature, humidity, ph, rainfall).
type FeatureVector [7]float64

// AssembleFeatures combines soil and weather samples in training order.
func AssembleFeatures(soil SoilSample, weather WeatherSample) FeatureVector {
	return FeatureVector{
		soil.Nitrogen,
		soil.Phosphorus,
		soil.Potassium,
		weather.Temperature,
		weather.Humidity,
		soil.PH,
		weather.Rainfall,
	}
}

// N returns the nitrogen feature.
func (v FeatureVector) N() float64 { return v[0] }

// P returns the phosphorus feature.
func (v FeatureVector) P() float64 { return v[1] }

// K returns the potassium feature.
func (v FeatureVector) K() float64 { return v[2] }

// Temperature returns the mean forecast temperature in °C.
func (v FeatureVector) Temperature() float64 { return v[3] }

// Humidity returns the mean forecast relative humidity in percent.
func (v FeatureVector) Humidity() float64 { return v[4] }

// PH returns the soil pH feature.
func (v FeatureVector) PH() float64 { return v[5] }

// Rainfall returns the rainfall estimate derived from a year of daily sums.
func (v FeatureVector) Rainfall() float64 { return v[6] }

type namedFeatures struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	PH          float64 `json:"ph"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Rainfall    float64 `json:"rainfall"`
}

// MarshalJSON renders the vector as named fields rather than a positional array.
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(namedFeatures{
		N:           v.N(),
		P:           v.P(),
		K:           v.K(),
		PH:          v.PH(),
		Temperature: v.Temperature(),
		Humidity:    v.Humidity(),
		Rainfall:    v.Rainfall(),
	})
}

// UnmarshalJSON accepts the named-field form produced by MarshalJSON.
func (v *FeatureVector) UnmarshalJSON(data []byte) error {
	var nf namedFeatures
	if err := json.Unmarshal(data, &nf); err != nil {
		return err
	}
	*v = FeatureVector{nf.N, nf.P, nf.K, nf.Temperature, nf.Humidity, nf.PH, nf.Rainfall}
	return nil
}
