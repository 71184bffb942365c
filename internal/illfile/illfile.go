// Package illfile reads Daysim .ill result chunks. Each data line holds four
// reserved tokens (month, day, hour and a sun flag) followed by one
// illuminance value per simulated point. Lines starting with # are comments.
package illfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReservedTokens is the number of leading tokens on every data line.
const ReservedTokens = 4

// maxLineBytes caps a single line; one chunk can hold thousands of points.
const maxLineBytes = 64 << 20

// ErrColumnOutOfRange is returned when a data line is too short for the
// requested column.
var ErrColumnOutOfRange = errors.New("illfile: column out of range")

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

// isData reports whether a line carries values.
func isData(line string) bool {
	return !strings.HasPrefix(line, "#") && strings.TrimSpace(line) != ""
}

// ReadColumnFrom streams r and returns the value of the given point column
// (0-based, after the reserved tokens) from every data line, in file order.
func ReadColumnFrom(r io.Reader, column int) ([]float64, error) {
	if column < 0 {
		return nil, fmt.Errorf("%w: %d", ErrColumnOutOfRange, column)
	}

	var values []float64
	scanner := newScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !isData(line) {
			continue
		}

		fields := strings.Fields(line)
		idx := ReservedTokens + column
		if idx >= len(fields) {
			return nil, fmt.Errorf("%w: line %d has %d points, want column %d",
				ErrColumnOutOfRange, lineNo, len(fields)-ReservedTokens, column)
		}
		v, err := strconv.ParseFloat(fields[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("illfile: line %d: %w", lineNo, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("illfile: read: %w", err)
	}
	return values, nil
}

// ReadColumn opens the chunk at path and reads one point column from it.
func ReadColumn(path string, column int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("illfile: open %s: %w", path, err)
	}
	defer f.Close()

	values, err := ReadColumnFrom(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// RowCountFrom returns the number of points in a chunk: the token count of
// the first data line minus the reserved tokens. A chunk with no data line
// holds zero points.
func RowCountFrom(r io.Reader) (int, error) {
	scanner := newScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !isData(line) {
			continue
		}
		n := len(strings.Fields(line)) - ReservedTokens
		if n < 0 {
			return 0, fmt.Errorf("illfile: data line has %d tokens, want at least %d",
				n+ReservedTokens, ReservedTokens)
		}
		return n, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("illfile: read: %w", err)
	}
	return 0, nil
}

// RowCount opens the chunk at path and returns its point count.
func RowCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("illfile: open %s: %w", path, err)
	}
	defer f.Close()

	n, err := RowCountFrom(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// RowCounts returns the point count of every chunk in order.
func RowCounts(paths []string) ([]int, error) {
	counts := make([]int, len(paths))
	for i, p := range paths {
		n, err := RowCount(p)
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}
	return counts, nil
}
