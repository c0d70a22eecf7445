package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/planning"
	"github.com/planward/planward/internal/plans"
)

// PlanTool handles the planning MCP tool: a single entry point driving a
// session through init → clarify/explore → evaluate → finalize. The
// phase argument selects the operation; everything else is per-phase.
//
// After every successful call the session snapshot is appended to its
// event log and the plan index is refreshed. Persistence failures are
// logged by the store and never fail the call.
type PlanTool struct {
	machine *planning.Machine
	store   *plans.Store
}

// NewPlanTool creates a PlanTool with the given machine and store.
func NewPlanTool(machine *planning.Machine, store *plans.Store) *PlanTool {
	return &PlanTool{machine: machine, store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("planning",
		mcp.WithDescription(
			"Structured planning workflow for complex problems. "+
				"Drive a session phase by phase: 'init' states the problem, "+
				"'clarify' records open questions, 'explore' captures candidate "+
				"approaches under branch ids, 'evaluate' scores them, and "+
				"'finalize' selects one and emits the implementation plan. "+
				"Pass session_id to resume an earlier session from disk.",
		),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Enum("init", "clarify", "explore", "evaluate", "finalize"),
			mcp.Description("Workflow phase to execute"),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to operate on (default: the active session)"),
		),
		// init
		mcp.WithString("problem",
			mcp.Description("init: the problem to plan for (required)"),
		),
		mcp.WithString("context",
			mcp.Description("init: background and environment details"),
		),
		mcp.WithString("constraints",
			mcp.Description("init: JSON array of constraint strings"),
		),
		// clarify
		mcp.WithString("question",
			mcp.Description("clarify: the ambiguity to resolve (required)"),
		),
		mcp.WithString("answer",
			mcp.Description("clarify: the answer, if already known"),
		),
		// explore
		mcp.WithString("branch_id",
			mcp.Description("explore/evaluate: short unique key for an approach"),
		),
		mcp.WithString("name",
			mcp.Description("explore: human-readable approach name (required)"),
		),
		mcp.WithString("description",
			mcp.Description("explore: how the approach would work"),
		),
		mcp.WithString("pros",
			mcp.Description("explore: JSON array of advantage strings"),
		),
		mcp.WithString("cons",
			mcp.Description("explore: JSON array of drawback strings"),
		),
		// evaluate
		mcp.WithNumber("feasibility",
			mcp.Min(0), mcp.Max(10),
			mcp.Description("evaluate: 0-10, can this be built? (default 5)"),
		),
		mcp.WithNumber("completeness",
			mcp.Min(0), mcp.Max(10),
			mcp.Description("evaluate: 0-10, does it cover the problem? (default 5)"),
		),
		mcp.WithNumber("coherence",
			mcp.Min(0), mcp.Max(10),
			mcp.Description("evaluate: 0-10, does the design hold together? (default 5)"),
		),
		mcp.WithNumber("risk",
			mcp.Min(0), mcp.Max(10),
			mcp.Description("evaluate: 0-10, higher is riskier (default 5)"),
		),
		mcp.WithString("rationale",
			mcp.Description("evaluate: why these scores"),
		),
		mcp.WithString("recommendation",
			mcp.Enum("pursue", "refine", "abandon"),
			mcp.Description("evaluate: verdict for this approach (default refine)"),
		),
		// finalize
		mcp.WithString("selected_branch",
			mcp.Description("finalize: branch id the plan commits to (required)"),
		),
		mcp.WithString("steps",
			mcp.Description("finalize: JSON array of step objects (title, description, files, dependencies, complexity)"),
		),
		mcp.WithString("risks",
			mcp.Description("finalize: JSON array of risk objects (description, mitigation)"),
		),
		mcp.WithString("assumptions",
			mcp.Description("finalize: JSON array of assumption strings"),
		),
		mcp.WithString("success_criteria",
			mcp.Description("finalize: JSON array of acceptance criterion strings"),
		),
		mcp.WithString("format",
			mcp.Enum("markdown", "json"),
			mcp.Description("finalize: plan document format (default markdown)"),
		),
	)
}

// Handle processes the planning tool call.
func (t *PlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phase := planning.Phase(req.GetString("phase", ""))
	sessionID := req.GetString("session_id", "")

	var r *planning.Result
	switch phase {
	case planning.PhaseInit:
		r = t.machine.Init(planning.InitRequest{
			Problem:     req.GetString("problem", ""),
			Context:     req.GetString("context", ""),
			Constraints: req.GetString("constraints", ""),
		})
	case planning.PhaseClarify:
		r = t.machine.Clarify(planning.ClarifyRequest{
			SessionID: sessionID,
			Question:  req.GetString("question", ""),
			Answer:    req.GetString("answer", ""),
		})
	case planning.PhaseExplore:
		r = t.machine.Explore(planning.ExploreRequest{
			SessionID:   sessionID,
			BranchID:    req.GetString("branch_id", ""),
			Name:        req.GetString("name", ""),
			Description: req.GetString("description", ""),
			Pros:        req.GetString("pros", ""),
			Cons:        req.GetString("cons", ""),
		})
	case planning.PhaseEvaluate:
		r = t.machine.Evaluate(planning.EvaluateRequest{
			SessionID: sessionID,
			BranchID:  req.GetString("branch_id", ""),
			Scores: planning.Scores{
				Feasibility:  req.GetFloat("feasibility", 5),
				Completeness: req.GetFloat("completeness", 5),
				Coherence:    req.GetFloat("coherence", 5),
				Risk:         req.GetFloat("risk", 5),
			},
			Rationale:      req.GetString("rationale", ""),
			Recommendation: planning.Recommendation(req.GetString("recommendation", "refine")),
		})
	case planning.PhaseFinalize:
		r = t.machine.Finalize(planning.FinalizeRequest{
			SessionID:       sessionID,
			SelectedBranch:  req.GetString("selected_branch", ""),
			Steps:           req.GetString("steps", ""),
			Risks:           req.GetString("risks", ""),
			Assumptions:     req.GetString("assumptions", ""),
			SuccessCriteria: req.GetString("success_criteria", ""),
			Format:          planning.PlanFormat(req.GetString("format", "")),
		})
	default:
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown phase %q (expected init, clarify, explore, evaluate or finalize)", phase,
		)), nil
	}

	if !r.IsError {
		t.persist()
	}
	return planningResult(r), nil
}

// persist records the successful mutation: append the snapshot to the
// event log, write the plan document once the session is done, and
// refresh the index entry.
func (t *PlanTool) persist() {
	sess := t.machine.Active()
	if sess == nil || t.store == nil {
		return
	}

	t.store.AppendEvent(sess)

	// The markdown document is written on finalize regardless of the
	// requested response format, so the file listing stays complete.
	mdName := ""
	if sess.Phase == planning.PhaseDone {
		mdName = t.store.WriteMarkdown(sess, planning.RenderMarkdown(sess))
	}
	t.store.UpsertIndexEntry(sess, mdName)
}
