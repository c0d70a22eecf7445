package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the plan-status MCP prompt.
// It asks the AI to report where the planning sessions stand.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("plan-status",
		mcp.WithPromptDescription(
			"Show the current state of planning sessions: which plans exist, "+
				"which are finished, and what the next step is for unfinished ones.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Report on one specific session instead of all of them"),
		),
	)
}

// Handle processes the plan-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sessionID := ""
	if args := req.Params.Arguments; args != nil {
		sessionID = args["session_id"]
	}

	text := "Please give me a status report on my planning sessions:\n\n" +
		"1. Call `plan_list` to see every saved session\n" +
		"2. For unfinished sessions, say which phase each one is in and what its valid next phases are\n" +
		"3. For finished sessions, summarize the selected approach in one line\n" +
		"4. Suggest what to do next"
	if sessionID != "" {
		text = "Please report on planning session '" + sessionID + "':\n\n" +
			"1. Call `plan_get` with session_id='" + sessionID + "' to read its current state\n" +
			"2. Summarize the problem, the recorded approaches and evaluations, and the current phase\n" +
			"3. If it is unfinished, suggest the next phase to run"
	}

	return &mcp.GetPromptResult{
		Description: "Planning session status",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
