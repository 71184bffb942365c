package aggregator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/illumprofile/internal/illfile"
	"github.com/dusk-indust/illumprofile/internal/resultset"
)

// readStates reads the point column from the selected chunk of every state.
// At most cfg.Workers reads run at once; the first failure cancels the
// derived context so pending reads are skipped.
func (a *Aggregator) readStates(ctx context.Context, id uuid.UUID, fs *resultset.FileSet, states []int, chunk, column int) (map[int][]float64, error) {
	values := make([][]float64, len(states))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for i, state := range states {
		path := fs.Chunks(state)[chunk]
		a.emit(ProgressEvent{RequestID: id, State: state, File: filepath.Base(path), Status: ProgressPending})

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a.emit(ProgressEvent{RequestID: id, State: state, File: filepath.Base(path), Status: ProgressWorking})

			col, err := illfile.ReadColumn(path, column)
			if err != nil {
				a.emit(ProgressEvent{
					RequestID: id,
					State:     state,
					File:      filepath.Base(path),
					Status:    ProgressFailed,
					Message:   err.Error(),
				})
				return fmt.Errorf("aggregator: read %s: %w", StateCategory(state), err)
			}

			values[i] = col
			a.emit(ProgressEvent{RequestID: id, State: state, File: filepath.Base(path), Status: ProgressComplete})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int][]float64, len(states))
	for i, state := range states {
		out[state] = values[i]
	}
	return out, nil
}

// checkRowRanges verifies that the selected chunk of every shading state holds
// as many points as the baseline chunk, so the baseline offset addresses the
// same point in each state.
func checkRowRanges(fs *resultset.FileSet, states []int, chunk, want int) error {
	for _, state := range states {
		if state == 0 {
			continue
		}
		path := fs.Chunks(state)[chunk]
		n, err := illfile.RowCount(path)
		if err != nil {
			return err
		}
		if n != want {
			return fmt.Errorf("%w: %s holds %d points, baseline chunk holds %d",
				resultset.ErrRowRangeMismatch, filepath.Base(path), n, want)
		}
	}
	return nil
}

// emit sends a progress event if a callback is registered.
func (a *Aggregator) emit(ev ProgressEvent) {
	if a.onProgress != nil {
		a.onProgress(ev)
	}
}
