package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/planning"
	"github.com/planward/planward/internal/plans"
)

// ListTool handles the plan_list MCP tool: a filtered view over the plan
// index, newest first.
type ListTool struct {
	store *plans.Store
}

// NewListTool creates a ListTool with the given plans store.
func NewListTool(store *plans.Store) *ListTool {
	return &ListTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_list",
		mcp.WithDescription(
			"List saved planning sessions from the plan index, newest first. "+
				"Filter by completion status or by a keyword in the problem statement.",
		),
		mcp.WithString("status",
			mcp.Enum("all", "active", "complete"),
			mcp.Description("Keep only finalized plans (complete) or unfinished ones (active). Default: all"),
		),
		mcp.WithString("keyword",
			mcp.Description("Case-insensitive substring match on the problem statement"),
		),
	)
}

// Handle processes the plan_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listed := t.store.List(plans.ListOptions{
		Status:  req.GetString("status", "all"),
		Keyword: req.GetString("keyword", ""),
	})

	if len(listed) == 0 {
		return mcp.NewToolResultText("No plans found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Saved Plans (%d)\n\n", len(listed))
	for _, p := range listed {
		status := string(p.Phase)
		if p.Phase == planning.PhaseDone {
			status = fmt.Sprintf("complete, branch %s", p.SelectedBranch)
		}
		fmt.Fprintf(&sb, "- **%s** — %s (%s, created %s)\n",
			p.SessionID, p.Problem, status, p.CreatedAt)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
