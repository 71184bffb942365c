// Package schedule loads Daysim occupant behavior profiles (*_intgain.csv)
// and extracts the hourly blind activation series for each space.
package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dusk-indust/illumprofile/internal/resultset"
)

const (
	// headerLine is the 1-based line holding the column headings.
	headerLine = 4

	// reservedColumns are the leading time columns of every row.
	reservedColumns = 3

	blindPrefix = "blind"
)

var (
	// ErrProfileCountMismatch is returned when the number of behavior
	// profiles differs from the number of spaces (point groups).
	ErrProfileCountMismatch = errors.New("schedule: number of annual profiles doesn't match the number of point groups")

	// ErrShadingGroupMismatch is returned when a profile carries a different
	// number of blind series than there are shading states.
	ErrShadingGroupMismatch = errors.New("schedule: number of annual profiles doesn't match the number of shading groups")

	// ErrNoHeader is returned when a profile ends before its header line.
	ErrNoHeader = errors.New("schedule: profile has no header line")
)

// Profile is the shading schedule of one space.
type Profile struct {
	Path string

	// Blinds holds one hourly 0/1 series per blind group, in column order.
	// Blinds[i] drives shading state i+1.
	Blinds [][]float64
}

// Activation returns the blind series keyed by the shading state they drive.
func (p Profile) Activation() map[int][]float64 {
	act := make(map[int][]float64, len(p.Blinds))
	for i, series := range p.Blinds {
		act[i+1] = series
	}
	return act
}

// Hours returns the length of the schedule.
func (p Profile) Hours() int {
	if len(p.Blinds) == 0 {
		return 0
	}
	return len(p.Blinds[0])
}

// ReadProfile parses one behavior profile. Line 4 holds the headings; every
// later line is an hourly row. The first three columns are dropped and the
// columns whose heading starts with "blind" are returned in order.
func ReadProfile(r io.Reader) (Profile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		headings []string
		columns  [][]float64
		sawHead  bool
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Profile{}, fmt.Errorf("schedule: %w", err)
		}

		line, _ := reader.FieldPos(0)
		switch {
		case line < headerLine:
			continue
		case line == headerLine:
			headings = dataFields(record)
			columns = make([][]float64, len(headings))
			sawHead = true
			continue
		case !sawHead:
			return Profile{}, ErrNoHeader
		}

		values := dataFields(record)
		if len(values) != len(headings) {
			return Profile{}, fmt.Errorf("schedule: line %d has %d values, header has %d",
				line, len(values), len(headings))
		}
		for i, v := range values {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return Profile{}, fmt.Errorf("schedule: line %d column %q: %w", line, headings[i], err)
			}
			columns[i] = append(columns[i], f)
		}
	}

	if !sawHead {
		return Profile{}, ErrNoHeader
	}

	var p Profile
	for i, h := range headings {
		if strings.HasPrefix(strings.TrimSpace(h), blindPrefix) {
			p.Blinds = append(p.Blinds, columns[i])
		}
	}
	return p, nil
}

// dataFields drops the reserved time columns.
func dataFields(record []string) []string {
	if len(record) <= reservedColumns {
		return nil
	}
	return record[reservedColumns:]
}

// LoadProfile reads the behavior profile at path.
func LoadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("schedule: open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadProfile(f)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	p.Path = path
	return p, nil
}

// Load reads one profile per space. The number of paths must equal
// spaceCount. Paths are ordered by the trailing number in their names; if
// that fails the given order is kept and a warning is returned.
func Load(paths []string, spaceCount int) ([]Profile, []string, error) {
	if len(paths) != spaceCount {
		return nil, nil, fmt.Errorf("%w: %d profiles for %d point groups", ErrProfileCountMismatch, len(paths), spaceCount)
	}

	var warnings []string
	sorted, err := resultset.SortByTrailingNumber(paths)
	if err != nil && len(paths) > 1 {
		warnings = append(warnings, fmt.Sprintf("can't sort the annual profiles by name, keeping the given order: %v", err))
	}

	profiles := make([]Profile, 0, len(sorted))
	for _, path := range sorted {
		p, err := LoadProfile(path)
		if err != nil {
			return nil, warnings, err
		}
		profiles = append(profiles, p)
	}
	return profiles, warnings, nil
}

// CheckStates verifies every profile carries one blind series per shading
// state (baseline excluded).
func CheckStates(profiles []Profile, shadingStates int) error {
	for i, p := range profiles {
		if len(p.Blinds) != shadingStates {
			return fmt.Errorf("%w: space %d has %d blind groups, results have %d shading states",
				ErrShadingGroupMismatch, i, len(p.Blinds), shadingStates)
		}
	}
	return nil
}
