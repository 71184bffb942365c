package aggregator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dusk-indust/illumprofile/internal/config"
	"github.com/dusk-indust/illumprofile/internal/locate"
	"github.com/dusk-indust/illumprofile/internal/resultset"
	"github.com/dusk-indust/illumprofile/internal/schedule"
)

// fixture is a two-space, three-hour model. Space 0 holds two points in
// chunk 1, space 1 holds one point in chunk 2.
type fixture struct {
	dir      string
	baseline []string
	down     []string
	profiles []string
	groups   [][]r3.Vec
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const profileHeader = "behavior\nprofile\nunits\nmonth,day,hour,occupancy,blind group 1\n"

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir}

	f.baseline = []string{
		write(t, dir, "room_1.ill", "# baseline chunk 1\n1 1 0.5 0 11 21\n1 1 1.5 1 12 22\n1 1 2.5 1 13 23\n"),
		write(t, dir, "room_2.ill", "# baseline chunk 2\n1 1 0.5 0 100\n1 1 1.5 1 200\n1 1 2.5 1 300\n"),
	}
	f.down = []string{
		write(t, dir, "room_1_down.ill", "1 1 0.5 0 1 2\n1 1 1.5 1 3 4\n1 1 2.5 1 5 6\n"),
		write(t, dir, "room_2_down.ill", "1 1 0.5 0 50\n1 1 1.5 1 60\n1 1 2.5 1 70\n"),
	}
	f.profiles = []string{
		write(t, dir, "room_intgain_1.csv", profileHeader+"1,1,0.5,1,1\n1,1,1.5,1,1\n1,1,2.5,1,1\n"),
		write(t, dir, "room_intgain_2.csv", profileHeader+"1,1,0.5,1,0\n1,1,1.5,1,1\n1,1,2.5,1,0\n"),
	}
	f.groups = [][]r3.Vec{
		{{X: 0, Y: 0, Z: 0.8}, {X: 1, Y: 0, Z: 0.8}},
		{{X: 5, Y: 5, Z: 0.8}},
	}
	return f
}

func (f fixture) request(query r3.Vec, withProfiles bool) Request {
	// Branches are given out of order to exercise chunk and state sorting.
	req := Request{
		ResultFiles: [][]string{
			{f.down[1], f.down[0]},
			{f.baseline[1], f.baseline[0]},
		},
		PointGroups: f.groups,
		Query:       query,
	}
	if withProfiles {
		req.Profiles = []string{f.profiles[1], f.profiles[0]}
	}
	return req
}

func testConfig() config.Config {
	return config.Config{Hours: 3, Tolerance: 0.001}
}

func TestAggregate_FullMerge(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	res, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	require.NoError(t, err)

	assert.Equal(t, OutcomeFullMerge, res.Outcome)
	assert.Empty(t, res.Message)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 2, res.FlatIndex)
	assert.Equal(t, 1, res.Chunk)
	assert.Equal(t, 0, res.Offset)
	assert.Equal(t, 1, res.Space)
	assert.Equal(t, f.baseline[1], res.ChunkFile)

	assert.Equal(t, []float64{100, 200, 300}, res.Series[CategoryBaseline])
	assert.Equal(t, []float64{50, 60, 70}, res.Series["shadingState_1"])
	assert.Equal(t, []float64{100, 60, 300}, res.Series[CategoryMerged])
	assert.Equal(t, []string{"baseline", "shadingState_1", "merged"}, res.Categories())
	assert.Equal(t, 3, res.Summary[CategoryMerged].Hours)
}

func TestAggregate_FullMerge_FirstSpace(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	res, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 1, Y: 0, Z: 0.8}, true))
	require.NoError(t, err)

	assert.Equal(t, 1, res.FlatIndex)
	assert.Equal(t, 0, res.Chunk)
	assert.Equal(t, 1, res.Offset)
	assert.Equal(t, 0, res.Space)
	// Space 0's blind is always closed.
	assert.Equal(t, []float64{2, 4, 6}, res.Series[CategoryMerged])
	assert.Equal(t, []float64{21, 22, 23}, res.Series[CategoryBaseline])
}

func TestAggregate_NoProfiles_BaselineOnly(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	req := Request{
		ResultFiles: [][]string{f.baseline, f.down},
		PointGroups: f.groups,
		Query:       r3.Vec{X: 5, Y: 5, Z: 0.8},
	}
	res, err := agg.Aggregate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, OutcomeBaselineOnly, res.Outcome)
	assert.Empty(t, res.Message)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "Annual profile files are not provided")
	assert.Equal(t, []float64{100, 200, 300}, res.Series[CategoryMerged])
	assert.NotContains(t, res.Series, "shadingState_1")
}

func TestAggregate_NoProfiles_FirstBranchMustBeBaseline(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	// Without profiles only the first branch is read; a shading branch there
	// leaves no baseline.
	_, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, false))
	assert.ErrorIs(t, err, resultset.ErrNoBaseline)
}

func TestAggregate_SingleBranch_NoWarning(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	req := Request{
		ResultFiles: [][]string{f.baseline},
		PointGroups: f.groups,
		Query:       r3.Vec{X: 5, Y: 5, Z: 0.8},
	}
	res, err := agg.Aggregate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, OutcomeBaselineOnly, res.Outcome)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, res.Series[CategoryBaseline], res.Series[CategoryMerged])
	assert.Equal(t, []string{"baseline", "merged"}, res.Categories())
}

func TestAggregate_ProfileCountMismatch(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	req := f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true)
	req.PointGroups = append(req.PointGroups, []r3.Vec{{X: 9, Y: 9, Z: 9}})

	res, err := agg.Aggregate(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, schedule.ErrProfileCountMismatch)
	assert.Contains(t, err.Error(), "2 profiles for 3 point groups")
}

func TestAggregate_ShadingGroupMismatch_Downgrades(t *testing.T) {
	f := newFixture(t)
	twoBlinds := "behavior\nprofile\nunits\nmonth,day,hour,blind a,blind b\n1,1,0.5,1,1\n1,1,1.5,1,1\n1,1,2.5,1,1\n"
	f.profiles = []string{
		write(t, f.dir, "other_intgain_1.csv", twoBlinds),
		write(t, f.dir, "other_intgain_2.csv", twoBlinds),
	}
	agg := New(testConfig(), nil)

	res, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	require.NoError(t, err)

	assert.Equal(t, OutcomeBaselineOnlyWithWarning, res.Outcome)
	assert.Contains(t, res.Message, "no dynamic shadings")
	assert.Equal(t, []float64{100, 200, 300}, res.Series[CategoryMerged])
	assert.NotContains(t, res.Series, "shadingState_1")
}

func TestAggregate_PointNotFound(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	_, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 42}, true))
	require.Error(t, err)
	assert.ErrorIs(t, err, locate.ErrPointNotFound)
}

func TestAggregate_NoResultFiles(t *testing.T) {
	agg := New(testConfig(), nil)
	_, err := agg.Aggregate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoResultFiles)
}

func TestAggregate_ChunkCountMismatch(t *testing.T) {
	f := newFixture(t)
	agg := New(testConfig(), nil)

	req := f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true)
	req.ResultFiles[0] = f.down[:1]

	_, err := agg.Aggregate(context.Background(), req)
	assert.ErrorIs(t, err, resultset.ErrChunkCountMismatch)
}

func TestAggregate_StateCollision(t *testing.T) {
	f := newFixture(t)
	dup := []string{
		write(t, f.dir, "copy_1_up.ill", "1 1 0.5 0 1 1\n1 1 1.5 1 1 1\n1 1 2.5 1 1 1\n"),
		write(t, f.dir, "copy_2_up.ill", "1 1 0.5 0 7\n1 1 1.5 1 8\n1 1 2.5 1 9\n"),
	}
	req := Request{
		ResultFiles: [][]string{f.baseline, dup},
		PointGroups: f.groups,
		Query:       r3.Vec{X: 5, Y: 5, Z: 0.8},
		Profiles:    []string{f.profiles[0], f.profiles[1]},
	}

	strict := testConfig()
	strict.StrictStates = true
	_, err := New(strict, nil).Aggregate(context.Background(), req)
	assert.ErrorIs(t, err, resultset.ErrStateCollision)

	// Lenient mode keeps the later branch and warns. The profiles are
	// checked against the distinct states left, not the branch count: with
	// no shading state left the one-blind profiles no longer match, so the
	// run downgrades.
	res, err := New(testConfig(), nil).Aggregate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8, 9}, res.Series[CategoryBaseline])
	assert.Equal(t, OutcomeBaselineOnlyWithWarning, res.Outcome)
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "same shading state") {
			found = true
		}
	}
	assert.True(t, found, "collision warning missing: %v", res.Warnings)
}

func TestAggregate_RowRangeMismatch(t *testing.T) {
	f := newFixture(t)
	// Three points per line where the baseline chunk holds two.
	write(t, f.dir, "room_1_down.ill", "1 1 0.5 0 1 2 9\n1 1 1.5 1 3 4 9\n1 1 2.5 1 5 6 9\n")

	res, err := New(testConfig(), nil).Aggregate(context.Background(), f.request(r3.Vec{X: 1, Y: 0, Z: 0.8}, true))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, resultset.ErrRowRangeMismatch)
	assert.Contains(t, err.Error(), "room_1_down.ill holds 3 points")
}

func TestAggregate_RowRangeCheckedOnSelectedChunkOnly(t *testing.T) {
	f := newFixture(t)
	write(t, f.dir, "room_1_down.ill", "1 1 0.5 0 1 2 9\n1 1 1.5 1 3 4 9\n1 1 2.5 1 5 6 9\n")

	// The query lives in chunk 2, whose states still line up.
	res, err := New(testConfig(), nil).Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 60, 300}, res.Series[CategoryMerged])
}

func TestAggregate_MalformedValueFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.down[1], []byte("1 1 0.5 0 50\n1 1 1.5 1 sixty\n1 1 2.5 1 70\n"), 0o644))
	agg := New(testConfig(), nil)

	_, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shadingState_1")
	assert.Contains(t, err.Error(), "line 2")
}

func TestAggregate_HoursWarning(t *testing.T) {
	f := newFixture(t)
	agg := New(config.Config{}, nil)

	res, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	require.NoError(t, err)
	assert.Contains(t, res.Warnings, "baseline has 3 hours, expected 8760")
}

func TestAggregate_ParallelWorkersSameResult(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.Workers = 4

	res, err := New(cfg, nil).Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 60, 300}, res.Series[CategoryMerged])
}

func TestAggregate_ProgressEvents(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var events []ProgressEvent
	agg := New(testConfig(), func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	res, err := agg.Aggregate(context.Background(), f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	require.NoError(t, err)

	complete := 0
	for _, ev := range events {
		assert.Equal(t, res.RequestID, ev.RequestID)
		if ev.Status == ProgressComplete {
			complete++
		}
	}
	assert.Equal(t, 2, complete)
}

func TestAggregate_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(), nil).Aggregate(ctx, f.request(r3.Vec{X: 5, Y: 5, Z: 0.8}, true))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "baseline-only", OutcomeBaselineOnly.String())
	assert.Equal(t, "baseline-only-with-warning", OutcomeBaselineOnlyWithWarning.String())
	assert.Equal(t, "full-merge", OutcomeFullMerge.String())
}

func TestStateCategory(t *testing.T) {
	assert.Equal(t, "baseline", StateCategory(0))
	assert.Equal(t, "shadingState_3", StateCategory(3))
}

func TestResult_Categories_NonContiguousStates(t *testing.T) {
	res := &Result{Series: map[string][]float64{
		CategoryBaseline:  {1},
		"shadingState_10": {1},
		"shadingState_2":  {1},
		"shadingState_3":  {1},
		CategoryMerged:    {1},
	}}

	assert.Equal(t,
		[]string{"baseline", "shadingState_2", "shadingState_3", "shadingState_10", "merged"},
		res.Categories())
}
