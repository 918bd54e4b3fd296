package scan

import (
	"time"

	"StructBreak/internal/domain/models"
)

// Shared builders for the scan package tests.

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// flatBar is one bar of a quiet consolidation under a 100 ceiling.
func flatBar(i int) models.Bar {
	return models.Bar{
		Date:   day0.AddDate(0, 0, i),
		Open:   99.5,
		High:   100,
		Low:    99,
		Close:  99.5,
		Volume: 1_000_000,
	}
}

// flatSeries builds n bars of that consolidation.
func flatSeries(n int) models.Series {
	s := make(models.Series, 0, n)
	for i := 0; i < n; i++ {
		s = append(s, flatBar(i))
	}
	return s
}

// breakoutBar closes decisively above the 100 ceiling on expanded volume.
func breakoutBar(i int) models.Bar {
	return models.Bar{
		Date:   day0.AddDate(0, 0, i),
		Open:   100,
		High:   105.5,
		Low:    99.5,
		Close:  105,
		Volume: 3_000_000,
	}
}

// closesSeries builds a series from closing prices alone, with a small
// symmetric range around each close.
func closesSeries(closes []float64) models.Series {
	s := make(models.Series, 0, len(closes))
	for i, c := range closes {
		s = append(s, models.Bar{
			Date:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1_000_000,
		})
	}
	return s
}
