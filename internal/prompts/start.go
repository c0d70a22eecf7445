// Package prompts implements MCP prompt handlers for planward.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the plan-start MCP prompt.
// It guides the AI through a full planning session for a stated problem.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("plan-start",
		mcp.WithPromptDescription(
			"Start a structured planning session for a problem. "+
				"Walks through clarifying questions, alternative approaches, "+
				"scoring, and a finalized implementation plan.",
		),
		mcp.WithArgument("problem",
			mcp.ArgumentDescription("The problem or feature to plan for"),
		),
	)
}

// Handle processes the plan-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	problem := "my problem"
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["problem"]; ok && v != "" {
			problem = v
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Plan: %s", problem),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to plan this before writing any code: '%s'.\n\n"+
						"Please drive a full planning session:\n"+
						"1. Call `planning` with phase='init' and the problem statement, plus any context and constraints I've mentioned\n"+
						"2. Ask me clarifying questions and record each one with phase='clarify'\n"+
						"3. Propose at least two genuinely different approaches with phase='explore', each under its own branch_id with pros and cons\n"+
						"4. Score every approach with phase='evaluate' (feasibility, completeness, coherence, risk) and an honest recommendation\n"+
						"5. Recommend a branch, confirm it with me, then call phase='finalize' with concrete steps, risks, assumptions, and success criteria\n\n"+
						"Show me the final plan document when you're done.",
					problem,
				)),
			},
		},
	}, nil
}
