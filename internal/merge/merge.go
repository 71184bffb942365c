package merge

import (
	"errors"
	"fmt"
	"sort"
)

// ErrLengthMismatch is returned when a state or activation series is shorter
// than the baseline.
var ErrLengthMismatch = errors.New("merge: series shorter than baseline")

// ActiveStates returns, in ascending order, the shading states that carry
// data.
func ActiveStates(states map[int][]float64) []int {
	idx := make([]int, 0, len(states))
	for s, series := range states {
		if s <= 0 || len(series) == 0 {
			continue
		}
		idx = append(idx, s)
	}
	sort.Ints(idx)
	return idx
}

// Merge builds the occupant-driven annual profile. For every hour the
// shading states with data are checked in ascending order and the first one
// whose activation flag is 1 supplies the value; when none is active the
// baseline value is used. Later states flagged at the same hour are ignored.
//
// The result has the baseline's length. With no state data the result is a
// copy of the baseline.
func Merge(baseline []float64, states map[int][]float64, activation map[int][]float64) ([]float64, error) {
	order := ActiveStates(states)
	hours := len(baseline)

	for _, s := range order {
		if len(states[s]) < hours {
			return nil, fmt.Errorf("%w: state %d has %d hours, baseline has %d", ErrLengthMismatch, s, len(states[s]), hours)
		}
		if len(activation[s]) < hours {
			return nil, fmt.Errorf("%w: activation for state %d has %d hours, baseline has %d",
				ErrLengthMismatch, s, len(activation[s]), hours)
		}
	}

	merged := make([]float64, hours)
	for h := 0; h < hours; h++ {
		merged[h] = baseline[h]
		for _, s := range order {
			if activation[s][h] == 1 {
				merged[h] = states[s][h]
				break
			}
		}
	}
	return merged, nil
}
