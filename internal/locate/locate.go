package locate

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrPointNotFound is returned when no model point lies within tolerance
	// of the query point.
	ErrPointNotFound = errors.New("locate: the target point is not one of the test points")

	// ErrOutsidePointList is returned when a flat index does not fall inside
	// any result chunk.
	ErrOutsidePointList = errors.New("locate: the target point is not inside the point list")
)

// Locate scans groups in order, and points within each group in order, and
// returns the flat index of the first point closer than tol to q. The flat
// index is the number of points seen before the match across all groups.
func Locate(groups [][]r3.Vec, q r3.Vec, tol float64) (int, bool) {
	flat := 0
	for _, group := range groups {
		for _, p := range group {
			if r3.Norm(r3.Sub(p, q)) < tol {
				return flat, true
			}
			flat++
		}
	}
	return 0, false
}

// GroupSizes returns the number of points in each group.
func GroupSizes(groups [][]r3.Vec) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	return sizes
}

// MapRowCounts maps a flat point index onto the chunk that holds it, given
// the number of rows (points) in each chunk. It returns the chunk index and
// the offset inside that chunk.
//
// When no chunk's cumulative count exceeds flat, the last chunk is selected
// and the offset runs past its end; callers surface that when the column is
// read. A negative offset is ErrOutsidePointList.
func MapRowCounts(counts []int, flat int) (int, int, error) {
	if len(counts) == 0 {
		return 0, 0, fmt.Errorf("%w: no result chunks", ErrOutsidePointList)
	}

	chunk, start := cumulativeSlot(counts, flat)
	offset := flat - start
	if offset < 0 {
		return 0, 0, fmt.Errorf("%w: index %d maps to offset %d in chunk %d", ErrOutsidePointList, flat, offset, chunk)
	}
	return chunk, offset, nil
}

// SpaceIndex returns the point group holding the flat index, falling back to
// the last group when flat is past the end.
func SpaceIndex(sizes []int, flat int) int {
	if len(sizes) == 0 {
		return 0
	}
	space, _ := cumulativeSlot(sizes, flat)
	return space
}

// cumulativeSlot returns the first slot whose cumulative size exceeds flat and
// the number of items before that slot. Past the end it returns the last slot.
func cumulativeSlot(sizes []int, flat int) (slot, start int) {
	total := 0
	for i, n := range sizes {
		if total+n > flat {
			return i, total
		}
		total += n
	}
	last := len(sizes) - 1
	return last, total - sizes[last]
}
