package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/planning"
	"github.com/planward/planward/internal/plans"
	"github.com/planward/planward/internal/thinking"
)

// --- Test helpers ---

// newPlanSetup wires a PlanTool against a temp plans directory and
// returns the tool plus the store for direct inspection.
func newPlanSetup(t *testing.T) (*PlanTool, *plans.Store) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PLANWARD_PLANS_DIR", dir)

	store := plans.NewStore(dir)
	machine := planning.NewMachine(store)
	return NewPlanTool(machine, store), store
}

// call invokes a tool handler with the given arguments.
func call(t *testing.T, handle func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	return result
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// resultPayload is the decoded planning tool response.
type resultPayload struct {
	SessionID       string   `json:"session_id"`
	Phase           string   `json:"phase"`
	Status          string   `json:"status"`
	ApproachCount   int      `json:"approach_count"`
	EvaluationCount int      `json:"evaluation_count"`
	ValidNextPhases []string `json:"valid_next_phases"`
	Message         string   `json:"message"`
	Plan            string   `json:"plan"`
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) resultPayload {
	t.Helper()
	var p resultPayload
	if err := json.Unmarshal([]byte(getResultText(result)), &p); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, getResultText(result))
	}
	return p
}

// --- PlanTool ---

func TestPlanTool_FullWorkflow(t *testing.T) {
	tool, store := newPlanSetup(t)

	r := call(t, tool.Handle, map[string]interface{}{
		"phase":       "init",
		"problem":     "Build a cache layer",
		"context":     "High read traffic",
		"constraints": `["single node"]`,
	})
	if isErrorResult(r) {
		t.Fatalf("init failed: %s", getResultText(r))
	}
	sessionID := decodeResult(t, r).SessionID
	if len(sessionID) != 8 {
		t.Fatalf("session id = %q, want 8 chars", sessionID)
	}

	r = call(t, tool.Handle, map[string]interface{}{
		"phase": "explore", "branch_id": "redis", "name": "Redis",
		"pros": `["fast"]`, "cons": `["ops overhead"]`,
	})
	if isErrorResult(r) {
		t.Fatalf("explore failed: %s", getResultText(r))
	}
	call(t, tool.Handle, map[string]interface{}{
		"phase": "explore", "branch_id": "mem", "name": "Memcached",
	})

	r = call(t, tool.Handle, map[string]interface{}{
		"phase": "evaluate", "branch_id": "redis",
		"feasibility": 9.0, "completeness": 8.0, "coherence": 8.0, "risk": 3.0,
		"recommendation": "pursue", "rationale": "Mature ecosystem",
	})
	if isErrorResult(r) {
		t.Fatalf("evaluate failed: %s", getResultText(r))
	}
	if p := decodeResult(t, r); p.EvaluationCount != 1 || p.ApproachCount != 2 {
		t.Errorf("counts = %d approaches / %d evaluations", p.ApproachCount, p.EvaluationCount)
	}

	r = call(t, tool.Handle, map[string]interface{}{
		"phase": "finalize", "selected_branch": "redis",
		"steps": `[{"title":"Provision","complexity":"low"}]`,
	})
	if isErrorResult(r) {
		t.Fatalf("finalize failed: %s", getResultText(r))
	}
	p := decodeResult(t, r)
	if p.Status != "complete" || p.Phase != "done" {
		t.Errorf("final status = %s/%s", p.Status, p.Phase)
	}
	if !strings.Contains(p.Plan, "# Plan: Redis") {
		t.Errorf("plan document missing from response:\n%s", p.Plan)
	}

	// Durable artifacts: event log, markdown, index entry.
	if _, err := os.Stat(filepath.Join(store.Dir(), sessionID+".jsonl")); err != nil {
		t.Errorf("event log missing: %v", err)
	}
	entry, ok := store.ReadIndex()[sessionID]
	if !ok {
		t.Fatal("index entry missing after finalize")
	}
	if entry.SelectedBranch != "redis" || entry.FilePaths.Markdown == "" {
		t.Errorf("index entry = %+v", entry)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), entry.FilePaths.Markdown)); err != nil {
		t.Errorf("markdown file missing: %v", err)
	}
}

func TestPlanTool_EvaluateDefaultsToMidScores(t *testing.T) {
	tool, _ := newPlanSetup(t)
	call(t, tool.Handle, map[string]interface{}{"phase": "init", "problem": "p"})
	call(t, tool.Handle, map[string]interface{}{"phase": "explore", "branch_id": "a", "name": "A"})

	// No scores and no recommendation supplied.
	r := call(t, tool.Handle, map[string]interface{}{"phase": "evaluate", "branch_id": "a"})
	if isErrorResult(r) {
		t.Fatalf("evaluate with defaults failed: %s", getResultText(r))
	}
	// 5*0.30 + 5*0.25 + 5*0.25 + (10-5)*0.20 = 5.00
	if !strings.Contains(decodeResult(t, r).Message, "5.00") {
		t.Errorf("default scores should yield 5.00, got: %s", getResultText(r))
	}
}

func TestPlanTool_InvalidTransitionKeepsMetadata(t *testing.T) {
	tool, _ := newPlanSetup(t)
	call(t, tool.Handle, map[string]interface{}{"phase": "init", "problem": "p"})

	r := call(t, tool.Handle, map[string]interface{}{"phase": "finalize", "selected_branch": "a"})
	if !isErrorResult(r) {
		t.Fatal("finalize straight from init should fail")
	}
	p := decodeResult(t, r)
	if !strings.Contains(p.Message, "invalid phase transition") {
		t.Errorf("message = %q", p.Message)
	}
	if p.Phase != "init" || p.SessionID == "" {
		t.Errorf("error result should carry session metadata: %+v", p)
	}
}

func TestPlanTool_FinalizeRequiresEvaluate(t *testing.T) {
	tool, _ := newPlanSetup(t)
	call(t, tool.Handle, map[string]interface{}{"phase": "init", "problem": "p"})
	call(t, tool.Handle, map[string]interface{}{"phase": "explore", "branch_id": "a", "name": "A"})

	// Straight from explore: finalize must be rejected.
	r := call(t, tool.Handle, map[string]interface{}{"phase": "finalize", "selected_branch": "a"})
	if !isErrorResult(r) {
		t.Fatal("finalize from explore should fail")
	}
	p := decodeResult(t, r)
	if !strings.Contains(p.Message, "invalid phase transition") || p.Phase != "explore" {
		t.Errorf("rejection = %+v", p)
	}

	// After an evaluation the same call succeeds.
	call(t, tool.Handle, map[string]interface{}{"phase": "evaluate", "branch_id": "a", "recommendation": "pursue"})
	r = call(t, tool.Handle, map[string]interface{}{"phase": "finalize", "selected_branch": "a"})
	if isErrorResult(r) {
		t.Fatalf("finalize after evaluate failed: %s", getResultText(r))
	}
}

func TestPlanTool_UnknownPhase(t *testing.T) {
	tool, _ := newPlanSetup(t)
	r := call(t, tool.Handle, map[string]interface{}{"phase": "bogus"})
	if !isErrorResult(r) || !strings.Contains(getResultText(r), "unknown phase") {
		t.Errorf("unknown phase should be rejected, got: %s", getResultText(r))
	}
}

func TestPlanTool_FailedCallPersistsNothing(t *testing.T) {
	tool, store := newPlanSetup(t)

	r := call(t, tool.Handle, map[string]interface{}{"phase": "init"}) // no problem
	if !isErrorResult(r) {
		t.Fatal("init without problem should fail")
	}
	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 0 {
		t.Errorf("failed call should not write files, found %d entries", len(entries))
	}
}

func TestPlanTool_ResumeSessionFromDisk(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PLANWARD_PLANS_DIR", dir)
	store := plans.NewStore(dir)

	first := NewPlanTool(planning.NewMachine(store), store)
	r := call(t, first.Handle, map[string]interface{}{"phase": "init", "problem": "Build cache"})
	sessionID := decodeResult(t, r).SessionID
	call(t, first.Handle, map[string]interface{}{"phase": "explore", "branch_id": "a", "name": "A"})

	// A fresh machine, as after a server restart.
	second := NewPlanTool(planning.NewMachine(store), store)
	r = call(t, second.Handle, map[string]interface{}{
		"phase": "clarify", "session_id": sessionID, "question": "Eviction policy?",
	})
	if isErrorResult(r) {
		t.Fatalf("resumed clarify failed: %s", getResultText(r))
	}
	p := decodeResult(t, r)
	if p.SessionID != sessionID || p.ApproachCount != 1 {
		t.Errorf("resumed session metadata = %+v", p)
	}

	r = call(t, second.Handle, map[string]interface{}{
		"phase": "clarify", "session_id": "missing1", "question": "q",
	})
	if !isErrorResult(r) || !strings.Contains(getResultText(r), "missing1") {
		t.Errorf("unknown session should fail with its id, got: %s", getResultText(r))
	}
}

// --- ListTool / GetTool / RebuildTool ---

// seedFinalizedPlan runs a full workflow and returns the session id.
func seedFinalizedPlan(t *testing.T, tool *PlanTool, problem string) string {
	t.Helper()
	r := call(t, tool.Handle, map[string]interface{}{"phase": "init", "problem": problem})
	id := decodeResult(t, r).SessionID
	call(t, tool.Handle, map[string]interface{}{"phase": "explore", "branch_id": "a", "name": "A"})
	r = call(t, tool.Handle, map[string]interface{}{"phase": "evaluate", "branch_id": "a", "recommendation": "pursue"})
	if isErrorResult(r) {
		t.Fatalf("seed evaluate failed: %s", getResultText(r))
	}
	r = call(t, tool.Handle, map[string]interface{}{"phase": "finalize", "selected_branch": "a"})
	if isErrorResult(r) {
		t.Fatalf("seed finalize failed: %s", getResultText(r))
	}
	return id
}

func TestListTool_FiltersByStatus(t *testing.T) {
	planTool, store := newPlanSetup(t)
	doneID := seedFinalizedPlan(t, planTool, "Build cache")
	call(t, planTool.Handle, map[string]interface{}{"phase": "init", "problem": "Design auth"})

	listTool := NewListTool(store)
	text := getResultText(call(t, listTool.Handle, map[string]interface{}{"status": "complete"}))
	if !strings.Contains(text, doneID) || strings.Contains(text, "Design auth") {
		t.Errorf("complete filter output:\n%s", text)
	}

	text = getResultText(call(t, listTool.Handle, map[string]interface{}{"keyword": "auth"}))
	if !strings.Contains(text, "Design auth") || strings.Contains(text, "Build cache") {
		t.Errorf("keyword filter output:\n%s", text)
	}
}

func TestListTool_Empty(t *testing.T) {
	_, store := newPlanSetup(t)
	text := getResultText(call(t, NewListTool(store).Handle, map[string]interface{}{}))
	if text != "No plans found." {
		t.Errorf("empty list output = %q", text)
	}
}

func TestGetTool_MarkdownAndMissing(t *testing.T) {
	planTool, store := newPlanSetup(t)
	id := seedFinalizedPlan(t, planTool, "Build cache")

	getTool := NewGetTool(store)
	r := call(t, getTool.Handle, map[string]interface{}{"session_id": id})
	if isErrorResult(r) || !strings.Contains(getResultText(r), "# Plan: A") {
		t.Errorf("get output:\n%s", getResultText(r))
	}

	r = call(t, getTool.Handle, map[string]interface{}{"session_id": "missing1"})
	if !isErrorResult(r) {
		t.Error("missing session should be an error result")
	}

	r = call(t, getTool.Handle, map[string]interface{}{})
	if !isErrorResult(r) || !strings.Contains(getResultText(r), "session_id") {
		t.Errorf("absent session_id should be rejected, got: %s", getResultText(r))
	}
}

func TestRebuildTool_RecoversDeletedIndex(t *testing.T) {
	planTool, store := newPlanSetup(t)
	id := seedFinalizedPlan(t, planTool, "Build cache")

	if err := os.Remove(filepath.Join(store.Dir(), plans.IndexFilename)); err != nil {
		t.Fatalf("remove index: %v", err)
	}

	r := call(t, NewRebuildTool(store).Handle, map[string]interface{}{})
	if isErrorResult(r) || !strings.Contains(getResultText(r), "1 session(s) indexed") {
		t.Errorf("rebuild output: %s", getResultText(r))
	}
	if _, ok := store.ReadIndex()[id]; !ok {
		t.Error("index entry missing after rebuild")
	}
}

// --- ThinkTool ---

func TestThinkTool_RecordsTrace(t *testing.T) {
	store, err := thinking.New(thinking.Config{DataDir: t.TempDir(), MaxThoughtLength: 4000})
	if err != nil {
		t.Fatalf("thinking.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	tool := NewThinkTool(store)

	r := call(t, tool.Handle, map[string]interface{}{
		"thought": "First, understand the problem", "thought_number": 1,
		"total_thoughts": 3, "next_thought_needed": true, "session_id": "trace001",
	})
	if isErrorResult(r) {
		t.Fatalf("first thought failed: %s", getResultText(r))
	}

	r = call(t, tool.Handle, map[string]interface{}{
		"thought": "Alternative line", "thought_number": 2, "session_id": "trace001",
		"branch_id": "alt", "branch_from_thought": 1,
	})
	var resp thinkResponse
	if err := json.Unmarshal([]byte(getResultText(r)), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if len(resp.Branches) != 1 || resp.Branches[0] != "alt" {
		t.Errorf("branches = %v, want [alt]", resp.Branches)
	}
	if resp.HistoryLength != 1 {
		t.Errorf("branch history length = %d, want 1", resp.HistoryLength)
	}

	r = call(t, tool.Handle, map[string]interface{}{"thought": "no number"})
	if !isErrorResult(r) {
		t.Error("missing thought_number should be rejected")
	}
}
