package mcptools

import "github.com/dusk-indust/illumprofile/internal/summary"

// --- MCP Tool Types ---
// The MCP Go SDK generates the JSON schema of each tool from these struct tags.

// ReadPointResultInput is the input for the read_point_result MCP tool.
type ReadPointResultInput struct {
	IllDir        string   `json:"illDir,omitempty" jsonschema:"directory holding the .ill result chunks of every shading state"`
	ResultFiles   []string `json:"resultFiles,omitempty" jsonschema:"explicit .ill result files, used instead of illDir"`
	PointFiles    []string `json:"pointFiles" jsonschema:"the .pts point files, one per space"`
	Point         string   `json:"point" jsonschema:"query point as x,y,z"`
	Profiles      []string `json:"profiles,omitempty" jsonschema:"occupant behavior profiles (*_intgain.csv), one per space; omit for a baseline-only result"`
	IncludeSeries bool     `json:"includeSeries,omitempty" jsonschema:"return the hourly values as well as the summary"`
}

// ReadPointResultOutput is the result of the read_point_result MCP tool.
type ReadPointResultOutput struct {
	RequestID string                   `json:"requestId,omitempty"`
	Status    string                   `json:"status"` // "completed" or "failed"
	Outcome   string                   `json:"outcome,omitempty"`
	Message   string                   `json:"message,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
	Space     int                      `json:"space"`
	ChunkFile string                   `json:"chunkFile,omitempty"`
	Offset    int                      `json:"offset"`
	Summary   map[string]summary.Stats `json:"summary,omitempty"`
	Series    map[string][]float64     `json:"series,omitempty"`
}

// SortResultFilesInput is the input for the sort_result_files MCP tool.
type SortResultFilesInput struct {
	IllDir          string   `json:"illDir,omitempty" jsonschema:"directory holding the .ill result chunks"`
	ResultFiles     []string `json:"resultFiles,omitempty" jsonschema:"explicit .ill result files, used instead of illDir"`
	FirstBranchOnly bool     `json:"firstBranchOnly,omitempty" jsonschema:"sort only the first branch, as a baseline-only run does"`
}

// SortResultFilesOutput is the result of the sort_result_files MCP tool.
type SortResultFilesOutput struct {
	States     []StateFiles `json:"states"`
	Collisions []string     `json:"collisions,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// StateFiles lists the ordered chunks of one shading state.
type StateFiles struct {
	State    int      `json:"state"`
	Category string   `json:"category"`
	Files    []string `json:"files"`
}
