package summary

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes one hourly illuminance series.
type Stats struct {
	Hours      int     `json:"hours"`
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	StdDev     float64 `json:"stdDev"`
	LitHours   int     `json:"litHours"`   // hours with illuminance above zero
	HoursAbove int     `json:"hoursAbove"` // hours at or above the threshold
	Threshold  float64 `json:"threshold"`

	// FractionAbove is HoursAbove over LitHours, 0 when nothing is lit.
	FractionAbove float64 `json:"fractionAbove"`
}

// Summarize computes Stats for series against a lux threshold.
func Summarize(series []float64, threshold float64) Stats {
	s := Stats{Hours: len(series), Threshold: threshold}
	if len(series) == 0 {
		return s
	}

	s.Mean = stat.Mean(series, nil)
	s.Min = floats.Min(series)
	s.Max = floats.Max(series)
	if len(series) > 1 {
		s.StdDev = stat.StdDev(series, nil)
	}

	for _, v := range series {
		if v > 0 {
			s.LitHours++
		}
		if v >= threshold {
			s.HoursAbove++
		}
	}
	if s.LitHours > 0 {
		s.FractionAbove = float64(s.HoursAbove) / float64(s.LitHours)
	}
	return s
}

// SummarizeAll computes Stats for every named series.
func SummarizeAll(series map[string][]float64, threshold float64) map[string]Stats {
	out := make(map[string]Stats, len(series))
	for name, values := range series {
		out[name] = Summarize(values, threshold)
	}
	return out
}
