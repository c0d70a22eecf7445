package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/thinking"
)

// ThinkTool handles the sequential_thinking MCP tool: record numbered
// thoughts while reasoning through a problem, with optional revisions
// and branches, persisted to the thinking database.
type ThinkTool struct {
	store *thinking.Store
}

// NewThinkTool creates a ThinkTool with the given thinking store.
func NewThinkTool(store *thinking.Store) *ThinkTool {
	return &ThinkTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ThinkTool) Definition() mcp.Tool {
	return mcp.NewTool("sequential_thinking",
		mcp.WithDescription(
			"Record one step of a sequential thinking trace. Number your "+
				"thoughts, revise earlier ones with revises_thought, or fork an "+
				"alternative line with branch_id. Thoughts persist across "+
				"restarts so a trace can be resumed or reviewed later.",
		),
		mcp.WithString("thought",
			mcp.Required(),
			mcp.Description("The content of this thinking step"),
		),
		mcp.WithNumber("thought_number",
			mcp.Required(),
			mcp.Description("1-based position of this thought in the trace"),
		),
		mcp.WithNumber("total_thoughts",
			mcp.Description("Current estimate of how many thoughts the trace needs"),
		),
		mcp.WithBoolean("next_thought_needed",
			mcp.Description("Whether another thought should follow this one"),
		),
		mcp.WithString("session_id",
			mcp.Description("Trace to append to (default: adhoc)"),
		),
		mcp.WithString("branch_id",
			mcp.Description("Fork identifier for an alternative line of thought"),
		),
		mcp.WithNumber("branch_from_thought",
			mcp.Description("Thought number this branch forks from"),
		),
		mcp.WithNumber("revises_thought",
			mcp.Description("Thought number this thought revises"),
		),
	)
}

// thinkResponse is the structured sequential_thinking tool response.
type thinkResponse struct {
	ThoughtNumber     int      `json:"thought_number"`
	TotalThoughts     int      `json:"total_thoughts"`
	NextThoughtNeeded bool     `json:"next_thought_needed"`
	Branches          []string `json:"branches"`
	HistoryLength     int      `json:"history_length"`
}

// Handle processes the sequential_thinking tool call.
func (t *ThinkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "adhoc")
	branchID := req.GetString("branch_id", "")
	needsMore := req.GetBool("next_thought_needed", false)

	p := thinking.AddThoughtParams{
		SessionID:     sessionID,
		ThoughtNumber: req.GetInt("thought_number", 0),
		TotalThoughts: req.GetInt("total_thoughts", 0),
		Content:       req.GetString("thought", ""),
		BranchID:      branchID,
		BranchFrom:    req.GetInt("branch_from_thought", 0),
		Revises:       req.GetInt("revises_thought", 0),
		NeedsMore:     needsMore,
	}
	if _, err := t.store.AddThought(p); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record thought: %v", err)), nil
	}

	history, err := t.store.History(sessionID, branchID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read trace history: %v", err)), nil
	}
	branches, err := t.store.Branches(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read trace branches: %v", err)), nil
	}
	if branches == nil {
		branches = []string{}
	}

	total := p.TotalThoughts
	if total < p.ThoughtNumber {
		total = p.ThoughtNumber
	}
	return mcp.NewToolResultText(jsonText(thinkResponse{
		ThoughtNumber:     p.ThoughtNumber,
		TotalThoughts:     total,
		NextThoughtNeeded: needsMore,
		Branches:          branches,
		HistoryLength:     len(history),
	})), nil
}
