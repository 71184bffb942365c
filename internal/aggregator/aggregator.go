package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dusk-indust/illumprofile/internal/config"
	"github.com/dusk-indust/illumprofile/internal/illfile"
	"github.com/dusk-indust/illumprofile/internal/locate"
	"github.com/dusk-indust/illumprofile/internal/merge"
	"github.com/dusk-indust/illumprofile/internal/resultset"
	"github.com/dusk-indust/illumprofile/internal/schedule"
	"github.com/dusk-indust/illumprofile/internal/summary"
)

// Result categories.
const (
	CategoryBaseline = "baseline"
	CategoryMerged   = "merged"

	shadingStatePrefix = "shadingState_"
)

// StateCategory returns the result category of a shading state.
func StateCategory(state int) string {
	if state == 0 {
		return CategoryBaseline
	}
	return shadingStatePrefix + strconv.Itoa(state)
}

// Messages reported to the caller alongside a best-effort result.
const (
	msgNoProfiles = "Annual profile files are not provided. " +
		"The result will be only calculated for the original case with no blinds."
	msgShadingMismatch = "Number of annual profiles doesn't match the number of shading groups! " +
		"The result is calculated for the original case with no dynamic shadings."
)

// ErrNoResultFiles is returned when a request carries no result files.
var ErrNoResultFiles = errors.New("aggregator: no result files")

// Outcome is the terminal state of an aggregation request.
type Outcome int

const (
	// OutcomeFailed means a fatal condition stopped the request.
	OutcomeFailed Outcome = iota

	// OutcomeBaselineOnly means no behavior profiles were supplied.
	OutcomeBaselineOnly

	// OutcomeBaselineOnlyWithWarning means profiles were supplied but did not
	// match the shading states, so dynamic shading was abandoned.
	OutcomeBaselineOnlyWithWarning

	// OutcomeFullMerge means the profile drove the merged series.
	OutcomeFullMerge
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeBaselineOnly:
		return "baseline-only"
	case OutcomeBaselineOnlyWithWarning:
		return "baseline-only-with-warning"
	case OutcomeFullMerge:
		return "full-merge"
	default:
		return "unknown"
	}
}

// Request describes one point query.
type Request struct {
	// ResultFiles holds one branch of .ill chunk paths per shading state.
	ResultFiles [][]string

	// PointGroups holds the simulated points, one group per space.
	PointGroups [][]r3.Vec

	// Query is the point whose profile is reconstructed.
	Query r3.Vec

	// Profiles are the occupant behavior profiles, one per space. Empty means
	// a baseline-only run.
	Profiles []string
}

// Result is the reconstructed profile of one point.
type Result struct {
	RequestID uuid.UUID
	Outcome   Outcome

	// Series maps a category (baseline, shadingState_N, merged) to its
	// hourly values.
	Series map[string][]float64

	// Summary maps each category to its statistics.
	Summary map[string]summary.Stats

	// Message is empty on full success and otherwise explains why dynamic
	// shading was not applied.
	Message  string
	Warnings []string

	FlatIndex int
	Chunk     int
	Offset    int
	Space     int
	ChunkFile string
}

// Categories returns the result categories in presentation order: baseline,
// shading states ascending, merged.
func (r *Result) Categories() []string {
	var states []int
	for s := 1; ; s++ {
		if _, ok := r.Series[StateCategory(s)]; !ok {
			break
		}
		states = append(states, s)
	}

	cats := make([]string, 0, len(r.Series))
	if _, ok := r.Series[CategoryBaseline]; ok {
		cats = append(cats, CategoryBaseline)
	}
	for _, s := range states {
		cats = append(cats, StateCategory(s))
	}

	// Non-contiguous states, if any, follow in state order.
	var extra []string
	for name := range r.Series {
		if name == CategoryBaseline || name == CategoryMerged || contains(cats, name) {
			continue
		}
		extra = append(extra, name)
	}
	sort.Slice(extra, func(i, j int) bool {
		si, oki := categoryState(extra[i])
		sj, okj := categoryState(extra[j])
		switch {
		case oki && okj && si != sj:
			return si < sj
		case oki != okj:
			return oki
		}
		return extra[i] < extra[j]
	})
	cats = append(cats, extra...)

	if _, ok := r.Series[CategoryMerged]; ok {
		cats = append(cats, CategoryMerged)
	}
	return cats
}

// categoryState parses the state number out of a shadingState_N category.
func categoryState(name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(name, shadingStatePrefix))
	if err != nil || !strings.HasPrefix(name, shadingStatePrefix) {
		return 0, false
	}
	return n, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (r *Result) warn(msgs ...string) {
	for _, m := range msgs {
		log.Printf("WARNING: [%s] %s", r.RequestID, m)
		r.Warnings = append(r.Warnings, m)
	}
}

// Aggregator reconstructs annual point profiles. It holds no state between
// requests beyond its configuration.
type Aggregator struct {
	cfg        config.Config
	onProgress func(ProgressEvent)
}

// New creates an Aggregator. onProgress is called for every state read and
// may be nil. With cfg.Workers above 1 it is called from several goroutines.
func New(cfg config.Config, onProgress func(ProgressEvent)) *Aggregator {
	return &Aggregator{
		cfg:        cfg.WithDefaults(),
		onProgress: onProgress,
	}
}

// Config returns the configuration in effect.
func (a *Aggregator) Config() config.Config {
	return a.cfg
}

// Aggregate runs one request to completion. Fatal conditions return a nil
// Result and an error wrapping the package sentinel that caused it.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RequestID: uuid.New(),
		Series:    make(map[string][]float64),
	}

	if len(req.ResultFiles) == 0 {
		return nil, ErrNoResultFiles
	}

	spaces := len(req.PointGroups)
	withProfiles := len(req.Profiles) > 0

	var profiles []schedule.Profile
	if withProfiles {
		loaded, warnings, err := schedule.Load(req.Profiles, spaces)
		res.warn(warnings...)
		if err != nil {
			return nil, fmt.Errorf("aggregator: %w", err)
		}
		profiles = loaded
		res.Outcome = OutcomeFullMerge
	} else {
		res.Outcome = OutcomeBaselineOnly
	}

	firstBranchOnly := false
	if !withProfiles && len(req.ResultFiles) > 1 {
		res.warn(msgNoProfiles)
		firstBranchOnly = true
	}

	fs, warnings := resultset.Sort(req.ResultFiles, firstBranchOnly)
	res.warn(warnings...)
	if err := fs.CollisionError(); err != nil {
		if a.cfg.StrictStates {
			return nil, fmt.Errorf("aggregator: %w", err)
		}
		res.warn(err.Error())
	}
	if err := fs.Validate(); err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}

	if withProfiles {
		if err := schedule.CheckStates(profiles, fs.ShadingStateCount()); err != nil {
			if !errors.Is(err, schedule.ErrShadingGroupMismatch) {
				return nil, fmt.Errorf("aggregator: %w", err)
			}
			res.warn(err.Error())
			res.Message = msgShadingMismatch
			res.Outcome = OutcomeBaselineOnlyWithWarning
			profiles = nil
		}
	}

	flat, ok := locate.Locate(req.PointGroups, req.Query, a.cfg.Tolerance)
	if !ok {
		return nil, fmt.Errorf("aggregator: %w: (%g, %g, %g) within %g",
			locate.ErrPointNotFound, req.Query.X, req.Query.Y, req.Query.Z, a.cfg.Tolerance)
	}
	res.FlatIndex = flat

	// Point counts are assumed identical across states, so the baseline
	// chunks decide where the point lives.
	counts, err := illfile.RowCounts(fs.Baseline())
	if err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}
	if rows, pts := sum(counts), sum(locate.GroupSizes(req.PointGroups)); rows != pts {
		res.warn(fmt.Sprintf("result chunks hold %d points but the point groups hold %d", rows, pts))
	}

	chunk, offset, err := locate.MapRowCounts(counts, flat)
	if err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}
	res.Chunk, res.Offset = chunk, offset
	res.Space = locate.SpaceIndex(locate.GroupSizes(req.PointGroups), flat)
	res.ChunkFile = fs.Baseline()[chunk]

	states := fs.StateIndexes()
	if res.Outcome == OutcomeBaselineOnlyWithWarning {
		states = []int{0}
	}
	if err := checkRowRanges(fs, states, chunk, counts[chunk]); err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}

	series, err := a.readStates(ctx, res.RequestID, fs, states, chunk, offset)
	if err != nil {
		return nil, err
	}

	baseline := series[0]
	if len(baseline) != a.cfg.Hours {
		res.warn(fmt.Sprintf("baseline has %d hours, expected %d", len(baseline), a.cfg.Hours))
	}
	res.Series[CategoryBaseline] = baseline

	shaded := make(map[int][]float64, len(series))
	for s, values := range series {
		if s == 0 {
			continue
		}
		shaded[s] = values
		res.Series[StateCategory(s)] = values
	}

	var activation map[int][]float64
	if res.Outcome == OutcomeFullMerge {
		if res.Space >= len(profiles) {
			return nil, fmt.Errorf("aggregator: %w: no profile for space %d", schedule.ErrProfileCountMismatch, res.Space)
		}
		activation = profiles[res.Space].Activation()
	} else {
		shaded = nil
	}

	merged, err := merge.Merge(baseline, shaded, activation)
	if err != nil {
		return nil, fmt.Errorf("aggregator: %w", err)
	}
	res.Series[CategoryMerged] = merged
	res.Summary = summary.SummarizeAll(res.Series, a.cfg.ThresholdLux)

	return res, nil
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
