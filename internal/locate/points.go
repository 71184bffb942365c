package locate

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dusk-indust/illumprofile/internal/resultset"
)

// ParsePoint parses a query point written as "x,y,z" (spaces are allowed
// instead of commas).
func ParsePoint(s string) (r3.Vec, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 {
		return r3.Vec{}, fmt.Errorf("locate: point %q: want 3 coordinates, got %d", s, len(fields))
	}
	return parseVec(fields)
}

func parseVec(fields []string) (r3.Vec, error) {
	var c [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("locate: coordinate %q: %w", fields[i], err)
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ReadPoints parses a Daysim point file: one "x y z [nx ny nz]" record per
// line. Blank lines and lines starting with # are skipped; the direction
// vector is ignored.
func ReadPoints(r io.Reader) ([]r3.Vec, error) {
	var pts []r3.Vec
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) < 3 {
			return nil, fmt.Errorf("locate: line %d: want at least 3 coordinates, got %d", lineNo, len(fields))
		}
		p, err := parseVec(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		pts = append(pts, p)
	}
	return pts, scanner.Err()
}

// LoadGroups reads one point group per file. Files are ordered by the
// trailing number in their names; when that fails the given order is kept.
func LoadGroups(paths []string) ([][]r3.Vec, error) {
	sorted, err := resultset.SortByTrailingNumber(paths)
	if err != nil && len(paths) > 1 {
		log.Printf("WARNING: can't sort point files by name, keeping the given order: %v", err)
	}

	groups := make([][]r3.Vec, 0, len(sorted))
	for _, path := range sorted {
		pts, err := loadPointFile(path)
		if err != nil {
			return nil, err
		}
		groups = append(groups, pts)
	}
	return groups, nil
}

func loadPointFile(path string) ([]r3.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("locate: open %s: %w", path, err)
	}
	defer f.Close()

	pts, err := ReadPoints(f)
	if err != nil {
		return nil, fmt.Errorf("locate: %s: %w", path, err)
	}
	return pts, nil
}
