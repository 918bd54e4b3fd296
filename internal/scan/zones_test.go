package scan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"StructBreak/internal/domain/models"
)

// basePeaked builds a quiet series with isolated peaks at the given indexes.
func basePeaked(n int, peaks map[int]float64) models.Series {
	s := make(models.Series, 0, n)
	for i := 0; i < n; i++ {
		b := models.Bar{
			Date:   day0.AddDate(0, 0, i),
			Open:   90,
			High:   90.5,
			Low:    89.5,
			Close:  90,
			Volume: 1_000_000,
		}
		if h, ok := peaks[i]; ok {
			b.High = h
			b.Close = h - 1
		}
		s = append(s, b)
	}
	return s
}

func TestDetectZonesFlatCeiling(t *testing.T) {
	zones := DetectZones(flatSeries(60), DefaultParams())

	require.Len(t, zones, 1)
	require.Equal(t, 100.0, zones[0].Level)
	require.Equal(t, 60, zones[0].Touches, "every bar of a flat ceiling ties as a fractal high")
}

func TestDetectZonesIdempotent(t *testing.T) {
	s := basePeaked(120, map[int]float64{20: 100, 50: 100.5, 80: 99.8})
	p := DefaultParams()

	first := DetectZones(s, p)
	second := DetectZones(s, p)
	require.Equal(t, first, second)
}

func TestDetectZonesTouchCountBoundary(t *testing.T) {
	// Two peaks within tolerance merge into one 2-touch zone: below the
	// 3-touch minimum, so it must not appear in the valid output.
	s := basePeaked(120, map[int]float64{20: 100, 50: 100.5})

	for _, z := range DetectZones(s, DefaultParams()) {
		require.Greater(t, math.Abs(z.Level-100.5), 2.0, "2-touch cluster leaked into valid zones")
	}

	// With the minimum lowered the merged cluster is visible, carrying the
	// higher of the two prices.
	p := DefaultParams()
	p.ZoneMinTouches = 1
	zones := DetectZones(s, p)

	var found *models.Zone
	for i := range zones {
		if zones[i].Level == 100.5 {
			found = &zones[i]
		}
	}
	require.NotNil(t, found)
	require.Equal(t, 2, found.Touches)
}

func TestDetectZonesUpwardDriftBias(t *testing.T) {
	// Later slightly-lower peak merges into the earlier zone without
	// dragging its level down.
	s := basePeaked(120, map[int]float64{20: 100, 50: 99.2, 80: 99.5})
	p := DefaultParams()

	zones := DetectZones(s, p)
	var levels []float64
	for _, z := range zones {
		levels = append(levels, z.Level)
	}
	require.Contains(t, levels, 100.0)
	require.NotContains(t, levels, 99.2)
	require.NotContains(t, levels, 99.5)
}

func TestDetectZonesSortedAscending(t *testing.T) {
	s := flatSeries(200)
	// A second, higher shelf far enough away to stay a separate zone.
	for i := 100; i < 160; i++ {
		s[i].Open, s[i].High, s[i].Low, s[i].Close = 119.5, 120, 119, 119.5
	}
	zones := DetectZones(s, DefaultParams())

	require.GreaterOrEqual(t, len(zones), 2)
	for i := 1; i < len(zones); i++ {
		require.Less(t, zones[i-1].Level, zones[i].Level)
	}
}

func TestDetectZonesLookbackWindow(t *testing.T) {
	p := DefaultParams()
	p.ZoneLookback = 25

	zones := DetectZones(flatSeries(60), p)
	require.Len(t, zones, 1)
	require.Equal(t, 25, zones[0].Touches, "touches counted inside the lookback only")
}
