package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewResultMCPServer creates an MCP server with the result tools registered:
// read_point_result and sort_result_files.
func NewResultMCPServer(svc *ResultService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "illumprofile",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_point_result",
		Description: "Reconstruct the annual hourly illuminance of one sensor point from Daysim .ill results. Merges shading states per the occupant behavior profile when profiles are given. Returns per-series statistics and optionally the hourly values.",
	}, svc.ReadPointResult)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sort_result_files",
		Description: "Group .ill result files by shading state and order each state's chunks. Reports state collisions and unreadable names.",
	}, svc.SortResultFiles)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
