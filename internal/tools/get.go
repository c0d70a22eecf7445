package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/plans"
)

// GetTool handles the plan_get MCP tool: retrieve one plan's stored
// content by session id.
type GetTool struct {
	store *plans.Store
}

// NewGetTool creates a GetTool with the given plans store.
func NewGetTool(store *plans.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_get",
		mcp.WithDescription(
			"Retrieve a saved plan by session id. Returns the finalized "+
				"markdown document when available; sessions that were never "+
				"finalized fall back to their raw event log.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id of the plan to retrieve"),
		),
		mcp.WithString("format",
			mcp.Enum("markdown", "jsonl"),
			mcp.Description("markdown for the plan document (default), jsonl for the raw event log"),
		),
	)
}

// Handle processes the plan_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}

	pc := t.store.Get(sessionID, req.GetString("format", "markdown"))
	if !pc.Found {
		return mcp.NewToolResultError(pc.Message), nil
	}
	return mcp.NewToolResultText(pc.Content), nil
}
