package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/plans"
)

// RebuildTool handles the plan_rebuild_index MCP tool: reconstruct the
// plan index from the event logs on disk, recovering from a deleted or
// corrupted index file.
type RebuildTool struct {
	store *plans.Store
}

// NewRebuildTool creates a RebuildTool with the given plans store.
func NewRebuildTool(store *plans.Store) *RebuildTool {
	return &RebuildTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *RebuildTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_rebuild_index",
		mcp.WithDescription(
			"Rebuild the plan index by scanning every event log in the plans "+
				"directory. Use after the index file was deleted, corrupted, or "+
				"drifted from the logs. Unreadable logs are skipped.",
		),
	)
}

// Handle processes the plan_rebuild_index tool call.
func (t *RebuildTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, skipped := t.store.RebuildIndex()

	msg := fmt.Sprintf("Rebuilt plan index: %d session(s) indexed", len(idx))
	if skipped > 0 {
		msg += fmt.Sprintf(", %d corrupt log(s) skipped", skipped)
	}
	return mcp.NewToolResultText(msg + "."), nil
}
