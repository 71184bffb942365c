package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dusk-indust/illumprofile/internal/aggregator"
)

// WriteCSV writes one row per hour and one column per category, preceded by
// a header row. Shorter series leave their trailing cells empty.
func WriteCSV(w io.Writer, res *aggregator.Result) error {
	cats := res.Categories()

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"hour"}, cats...)); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	rows := 0
	for _, cat := range cats {
		rows = max(rows, len(res.Series[cat]))
	}

	record := make([]string, len(cats)+1)
	for h := 0; h < rows; h++ {
		record[0] = strconv.Itoa(h + 1)
		for i, cat := range cats {
			values := res.Series[cat]
			if h < len(values) {
				record[i+1] = formatFloat(values[h])
			} else {
				record[i+1] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: write hour %d: %w", h+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes one row per point and category with the category's
// statistics. locations[i] labels results[i].
func WriteSummaryCSV(w io.Writer, results []*aggregator.Result, locations []string) error {
	if len(locations) != len(results) {
		return fmt.Errorf("export: %d locations for %d results", len(locations), len(results))
	}

	cw := csv.NewWriter(w)
	header := []string{"point", "outcome", "category", "hours", "mean", "min", "max", "stdDev", "litHours", "hoursAbove", "fractionAbove"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for i, res := range results {
		for _, cat := range res.Categories() {
			s := res.Summary[cat]
			err := cw.Write([]string{
				locations[i],
				res.Outcome.String(),
				cat,
				strconv.Itoa(s.Hours),
				formatFloat(s.Mean),
				formatFloat(s.Min),
				formatFloat(s.Max),
				formatFloat(s.StdDev),
				strconv.Itoa(s.LitHours),
				strconv.Itoa(s.HoursAbove),
				formatFloat(s.FractionAbove),
			})
			if err != nil {
				return fmt.Errorf("export: write %s: %w", locations[i], err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
