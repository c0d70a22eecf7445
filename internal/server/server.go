// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/planward/planward/internal/planning"
	"github.com/planward/planward/internal/plans"
	"github.com/planward/planward/internal/prompts"
	"github.com/planward/planward/internal/resources"
	"github.com/planward/planward/internal/thinking"
	"github.com/planward/planward/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the thinking store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if thinking init failed.
func New() (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	planStore := plans.NewStore("")
	machine := planning.NewMachine(planStore)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"planward",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register planning tools ---

	planTool := tools.NewPlanTool(machine, planStore)
	s.AddTool(planTool.Definition(), planTool.Handle)

	listTool := tools.NewListTool(planStore)
	s.AddTool(listTool.Definition(), listTool.Handle)

	getTool := tools.NewGetTool(planStore)
	s.AddTool(getTool.Definition(), getTool.Handle)

	rebuildTool := tools.NewRebuildTool(planStore)
	s.AddTool(rebuildTool.Definition(), rebuildTool.Handle)

	// --- Register the thinking tool ---
	//
	// Thinking is an independent subsystem: if its database fails to
	// initialize, planning tools keep working. We log a warning and
	// skip registration — the server stays fully functional.

	cleanup := noop
	thinkStore, thinkErr := thinking.New(thinking.DefaultConfig())
	if thinkErr != nil {
		log.Printf("WARNING: thinking subsystem disabled: %v", thinkErr)
	} else {
		cleanup = func() {
			if err := thinkStore.Close(); err != nil {
				log.Printf("WARNING: thinking store close: %v", err)
			}
		}
		thinkTool := tools.NewThinkTool(thinkStore)
		s.AddTool(thinkTool.Definition(), thinkTool.Handle)
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(planStore)
	s.AddResource(resourceHandler.IndexResource(), resourceHandler.HandleIndex)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when thinking
// is disabled or hasn't been initialized.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use planward effectively.
func serverInstructions() string {
	return `You have access to planward, a structured planning MCP server.

## WHEN TO ACTIVATE planward

Proactively suggest a planning session when the user:
- Asks to build a non-trivial feature, system, or migration
- Describes a vague idea and wants to start coding immediately
- Faces a decision with several plausible technical approaches
- Says things like "I want to build...", "how should we...", "let's design..."

You do NOT need planward for bug fixes, one-liner changes, questions,
or work where the approach is already obvious and agreed.

## CRITICAL: How the planning Tool Works

planning is a STORAGE and STATE tool, not an AI tool. It records content
YOU generate and enforces the workflow order. The loop for each phase is:

1. TALK to the user — understand, question, propose
2. GENERATE the content yourself (questions, approaches, scores, steps)
3. CALL the tool with the ACTUAL content as parameters
4. The tool validates the phase transition, records the content, and
   persists the session to disk

NEVER call it with placeholder text. NEVER invent scores without
reasoning you can state in the rationale parameter.

## The Planning Workflow

Every call takes a phase parameter. Phases move through a state machine:

1. init — state the problem, context, and constraints. Starts a fresh
   session and returns its session_id.
2. clarify — record one open question per call, with the answer once the
   user gives it. Repeat as needed. Optional but recommended.
3. explore — record one candidate approach per call under a short unique
   branch_id, with a description, pros, and cons. Record at least two
   genuinely different approaches before evaluating.
4. evaluate — score one approach per call on feasibility, completeness,
   coherence (0-10, higher better) and risk (0-10, higher worse). The
   tool computes a weighted score. Give an honest recommendation:
   pursue, refine, or abandon.
5. finalize — commit to one branch and provide the implementation steps,
   risks, assumptions, and success criteria. The tool renders the full
   plan document and writes it to disk.

Every response includes valid_next_phases — only call phases from that
list. An invalid transition is rejected without changing the session.

## Sessions

- Responses carry the session_id; pass it explicitly to resume a session
  after a restart or to switch between sessions. Omit it to keep working
  on the active one.
- init always starts a NEW session. The previous one stays on disk.
- plan_list shows saved sessions, plan_get retrieves one, and
  plan_rebuild_index repairs the index if it gets corrupted.

## Sequential Thinking

For private reasoning on hard sub-problems, use sequential_thinking to
record numbered thoughts. Revise earlier thoughts with revises_thought,
or fork alternatives with branch_id. Traces persist across sessions —
use a stable session_id to keep a trace resumable.

## Important Rules

- Record REAL approaches the user could actually choose between — two
  variants of the same idea is not exploration
- Score honestly; a 9 needs justification in the rationale
- Confirm the selected branch with the user before finalize
- Show the user the final plan document after finalize`
}
