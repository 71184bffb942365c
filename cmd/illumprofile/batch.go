package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/dusk-indust/illumprofile/internal/aggregator"
	"github.com/dusk-indust/illumprofile/internal/export"
	"github.com/dusk-indust/illumprofile/internal/locate"
)

// readQueryPoints reads one "x,y,z" point per line. Blank lines and lines
// starting with # are skipped.
func readQueryPoints(path string) ([]r3.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open points file: %w", err)
	}
	defer f.Close()

	var pts []r3.Vec
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := locate.ParsePoint(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
		pts = append(pts, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%s holds no points", path)
	}
	return pts, nil
}

// runBatch answers every point of the points file one after another. Points
// that fail are logged and left out; the batch fails only when none succeed.
// JSON output is an array of point documents, CSV output a summary table.
func runBatch(ctx context.Context, job queryJob, pointsFile string, w io.Writer) error {
	queries, err := readQueryPoints(pointsFile)
	if err != nil {
		return err
	}
	req, err := job.request()
	if err != nil {
		return err
	}

	agg := aggregator.New(job.cfg, nil)

	bar := pb.New(len(queries))
	bar.Output = os.Stderr
	bar.ShowTimeLeft = false
	bar.Start()

	var (
		results   []*aggregator.Result
		locations []string
	)
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			bar.Finish()
			return err
		}

		req.Query = q
		res, err := agg.Aggregate(ctx, req)
		bar.Increment()
		if err != nil {
			log.Printf("WARNING: point %s: %v", location(q), err)
			continue
		}
		results = append(results, res)
		locations = append(locations, location(q))
	}
	bar.FinishPrint(fmt.Sprintf("%d of %d points aggregated", len(results), len(queries)))

	if len(results) == 0 {
		return fmt.Errorf("no point of %s could be aggregated", pointsFile)
	}

	if job.cfg.Format == "csv" {
		return export.WriteSummaryCSV(w, results, locations)
	}

	docs := make([]*export.PointExport, len(results))
	for i, res := range results {
		docs[i] = export.ExportPoint(res, locations[i])
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
