package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dusk-indust/illumprofile/internal/aggregator"
	"github.com/dusk-indust/illumprofile/internal/config"
	"github.com/dusk-indust/illumprofile/internal/export"
	"github.com/dusk-indust/illumprofile/internal/locate"
	"github.com/dusk-indust/illumprofile/internal/resultset"
)

// queryJob holds the inputs shared by every query of one invocation.
type queryJob struct {
	cfg      config.Config
	illDir   string
	points   []string
	profiles []string
}

// request resolves the result branches and point groups of the job.
func (j queryJob) request() (aggregator.Request, error) {
	branches, err := resultset.Discover(j.illDir)
	if err != nil {
		return aggregator.Request{}, err
	}
	groups, err := locate.LoadGroups(j.points)
	if err != nil {
		return aggregator.Request{}, err
	}
	return aggregator.Request{
		ResultFiles: branches,
		PointGroups: groups,
		Profiles:    j.profiles,
	}, nil
}

func runQuery(ctx context.Context, job queryJob, point string, w io.Writer) error {
	q, err := locate.ParsePoint(point)
	if err != nil {
		return err
	}
	req, err := job.request()
	if err != nil {
		return err
	}
	req.Query = q

	var (
		reporter  *aggregator.ProgressReporter
		onProg    func(aggregator.ProgressEvent)
		drainDone = make(chan struct{})
	)
	if job.cfg.Verbose {
		reporter = aggregator.NewProgressReporter()
		onProg = reporter.Emit
		go func() {
			defer close(drainDone)
			for ev := range reporter.Subscribe() {
				fmt.Fprintln(os.Stderr, aggregator.FormatProgress(ev))
			}
		}()
	} else {
		close(drainDone)
	}

	res, err := aggregator.New(job.cfg, onProg).Aggregate(ctx, req)
	if reporter != nil {
		reporter.Close()
	}
	<-drainDone
	if err != nil {
		return err
	}

	if res.Message != "" {
		fmt.Fprintln(os.Stderr, res.Message)
	}
	return writeResult(w, job.cfg.Format, res, location(q))
}

func writeResult(w io.Writer, format string, res *aggregator.Result, loc string) error {
	if format == "csv" {
		return export.WriteCSV(w, res)
	}
	data, err := export.ToJSON(res, loc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func location(q r3.Vec) string {
	return fmt.Sprintf("%g,%g,%g", q.X, q.Y, q.Z)
}
