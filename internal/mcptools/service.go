package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/illumprofile/internal/aggregator"
	"github.com/dusk-indust/illumprofile/internal/config"
	"github.com/dusk-indust/illumprofile/internal/locate"
	"github.com/dusk-indust/illumprofile/internal/resultset"
)

// ResultService handles MCP tool calls against annual simulation results.
// Every call is an independent aggregation request.
type ResultService struct {
	cfg config.Config
}

// NewResultService creates a ResultService with the given config.
func NewResultService(cfg config.Config) *ResultService {
	return &ResultService{cfg: cfg.WithDefaults()}
}

// ReadPointResult reconstructs the annual profile of one point. Aggregation
// failures are reported in the output status rather than as tool errors.
func (s *ResultService) ReadPointResult(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadPointResultInput,
) (*mcp.CallToolResult, ReadPointResultOutput, error) {
	if input.Point == "" {
		return nil, ReadPointResultOutput{}, fmt.Errorf("point is required")
	}
	if len(input.PointFiles) == 0 {
		return nil, ReadPointResultOutput{}, fmt.Errorf("pointFiles is required")
	}

	q, err := locate.ParsePoint(input.Point)
	if err != nil {
		return nil, ReadPointResultOutput{}, err
	}

	branches, err := branchesFrom(input.IllDir, input.ResultFiles)
	if err != nil {
		return nil, ReadPointResultOutput{}, err
	}

	failed := func(err error) (*mcp.CallToolResult, ReadPointResultOutput, error) {
		return nil, ReadPointResultOutput{
			Status:  "failed",
			Outcome: aggregator.OutcomeFailed.String(),
			Message: err.Error(),
		}, nil
	}

	groups, err := locate.LoadGroups(input.PointFiles)
	if err != nil {
		return failed(err)
	}

	res, err := aggregator.New(s.cfg, nil).Aggregate(ctx, aggregator.Request{
		ResultFiles: branches,
		PointGroups: groups,
		Query:       q,
		Profiles:    input.Profiles,
	})
	if err != nil {
		return failed(err)
	}

	out := ReadPointResultOutput{
		RequestID: res.RequestID.String(),
		Status:    "completed",
		Outcome:   res.Outcome.String(),
		Message:   res.Message,
		Warnings:  res.Warnings,
		Space:     res.Space,
		ChunkFile: res.ChunkFile,
		Offset:    res.Offset,
		Summary:   res.Summary,
	}
	if input.IncludeSeries {
		out.Series = res.Series
	}
	return nil, out, nil
}

// SortResultFiles groups and orders result files by shading state without
// reading them.
func (s *ResultService) SortResultFiles(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SortResultFilesInput,
) (*mcp.CallToolResult, SortResultFilesOutput, error) {
	branches, err := branchesFrom(input.IllDir, input.ResultFiles)
	if err != nil {
		return nil, SortResultFilesOutput{}, err
	}

	fs, warnings := resultset.Sort(branches, input.FirstBranchOnly)
	out := SortResultFilesOutput{Warnings: warnings}
	for _, state := range fs.StateIndexes() {
		out.States = append(out.States, StateFiles{
			State:    state,
			Category: aggregator.StateCategory(state),
			Files:    fs.Chunks(state),
		})
	}
	for _, c := range fs.Collisions {
		out.Collisions = append(out.Collisions,
			fmt.Sprintf("state %d: %s replaced by %s", c.State, c.Previous, c.Replaced))
	}
	return nil, out, nil
}

// branchesFrom resolves the result branches from explicit files or, when
// none are given, from a directory.
func branchesFrom(dir string, files []string) ([][]string, error) {
	if len(files) > 0 {
		return resultset.GroupBranches(files), nil
	}
	if dir == "" {
		return nil, fmt.Errorf("illDir or resultFiles is required")
	}
	return resultset.Discover(dir)
}
