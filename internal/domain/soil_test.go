package domain

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock soil provider ---

type mockSoil struct {
	props SoilProperties
	err   error
}

func (m *mockSoil) SoilProperties(_ context.Context, _ Coordinate) (SoilProperties, error) {
	return m.props, m.err
}

func ptr(v float64) *float64 { return &v }

func seedRand(t *testing.T, seed uint64) {
	t.Helper()
	SetRandSource(rand.NewPCG(seed, seed+1))
	t.Cleanup(func() { SetRandSource(nil) })
}

// --- tests ---

func TestDeriveSoil_CECScaling(t *testing.T) {
	got := DeriveSoil(SoilProperties{Nitrogen: ptr(112.344), PH: ptr(64.0), CEC: ptr(10)})

	assert.InDelta(t, 112.34, got.Nitrogen, 1e-9)
	assert.InDelta(t, 8.0, got.Phosphorus, 1e-9)
	assert.InDelta(t, 25.0, got.Potassium, 1e-9)
	assert.InDelta(t, 64.0, got.PH, 1e-9)
	assert.Empty(t, got.Imputed)
	assert.Equal(t, SourceUpstream, got.Source)
}

func TestDeriveSoil_DefaultPH(t *testing.T) {
	got := DeriveSoil(SoilProperties{Nitrogen: ptr(50), CEC: ptr(20)})
	assert.InDelta(t, DefaultPH, got.PH, 1e-9)
}

func TestDeriveSoil_ZeroPHIsKept(t *testing.T) {
	got := DeriveSoil(SoilProperties{Nitrogen: ptr(50), PH: ptr(0), CEC: ptr(20)})
	assert.InDelta(t, 0.0, got.PH, 1e-9)
	assert.Empty(t, got.Imputed)
}

func TestDeriveSoil_ZeroNitrogenReplaced(t *testing.T) {
	seen := map[float64]bool{}
	for range 50 {
		got := DeriveSoil(SoilProperties{Nitrogen: ptr(0), CEC: ptr(10)})
		assert.True(t, ZeroNitrogenRange.Contains(got.Nitrogen), "nitrogen %v out of range", got.Nitrogen)
		assert.Equal(t, []string{"N"}, got.Imputed)
		assert.InDelta(t, 8.0, got.Phosphorus, 1e-9)
		seen[got.Nitrogen] = true
	}
	assert.Greater(t, len(seen), 1, "replacement values should vary between calls")
}

func TestDeriveSoil_MissingLayersReplaced(t *testing.T) {
	seedRand(t, 7)

	got := DeriveSoil(SoilProperties{})

	assert.True(t, ZeroNitrogenRange.Contains(got.Nitrogen))
	assert.True(t, ZeroPhosphorusRange.Contains(got.Phosphorus))
	assert.True(t, ZeroPotassiumRange.Contains(got.Potassium))
	assert.InDelta(t, DefaultPH, got.PH, 1e-9)
	assert.Equal(t, []string{"N", "P", "K"}, got.Imputed)
}

func TestDeriveSoil_RoundsToZeroReplaced(t *testing.T) {
	// 0.004 rounds to 0.00 and is therefore treated as a zero reading.
	got := DeriveSoil(SoilProperties{Nitrogen: ptr(0.004), CEC: ptr(0.001)})
	assert.Equal(t, []string{"N", "P", "K"}, got.Imputed)
}

func TestDeriveSoil_SeededIsDeterministic(t *testing.T) {
	seedRand(t, 42)
	first := DeriveSoil(SoilProperties{})
	seedRand(t, 42)
	second := DeriveSoil(SoilProperties{})
	assert.Equal(t, first, second)
}

func TestAggregateSoil_ErrorFallback(t *testing.T) {
	provider := &mockSoil{err: errors.New("status 503")}

	for range 20 {
		got := AggregateSoil(context.Background(), bangalore, provider, discardLogger())
		assert.Equal(t, SourceFallback, got.Source)
		assert.True(t, FallbackNitrogenRange.Contains(got.Nitrogen))
		assert.True(t, FallbackPhosphorusRange.Contains(got.Phosphorus))
		assert.True(t, FallbackPotassiumRange.Contains(got.Potassium))
		assert.True(t, FallbackPHRange.Contains(got.PH))
		assert.Empty(t, got.Imputed)
	}
}

func TestAggregateSoil_Success(t *testing.T) {
	provider := &mockSoil{props: SoilProperties{Nitrogen: ptr(180), PH: ptr(6.8), CEC: ptr(24)}}

	got := AggregateSoil(context.Background(), bangalore, provider, discardLogger())

	assert.InDelta(t, 180.0, got.Nitrogen, 1e-9)
	assert.InDelta(t, 19.2, got.Phosphorus, 1e-9)
	assert.InDelta(t, 60.0, got.Potassium, 1e-9)
	assert.InDelta(t, 6.8, got.PH, 1e-9)
}

func TestAggregateSoil_NilProvider(t *testing.T) {
	got := AggregateSoil(context.Background(), bangalore, nil, discardLogger())
	assert.Equal(t, SourceFallback, got.Source)
}

func TestUniform_Bounds(t *testing.T) {
	seedRand(t, 1)
	for range 1000 {
		v := uniform(6.5, 7.5)
		assert.GreaterOrEqual(t, v, 6.5)
		assert.LessOrEqual(t, v, 7.5)
		assert.InDelta(t, v, round2(v), 1e-12)
	}
}
