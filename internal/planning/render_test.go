package planning

import (
	"encoding/json"
	"strings"
	"testing"
)

// finalizedSession builds a done session with two approaches, one selected.
func finalizedSession() *Session {
	return &Session{
		ID:          "abc12345",
		Problem:     "Build cache",
		Context:     "High read traffic",
		Constraints: []string{"must run on a single node"},
		Phase:       PhaseDone,
		Clarifications: []Clarification{
			{Question: "Eviction policy?", Answer: "LRU"},
			{Question: "Max memory?"},
		},
		Approaches: []Approach{
			{BranchID: "r", Name: "Redis", Description: "In-memory store", Pros: []string{"fast"}, Cons: []string{"ops overhead"}},
			{BranchID: "m", Name: "Memcached"},
		},
		Evaluations: []Evaluation{
			{BranchID: "r", Scores: Scores{9, 8, 8, 3}, WeightedScore: 8.35, Rationale: "Mature", Recommendation: RecommendPursue},
			{BranchID: "m", Scores: Scores{5, 5, 5, 5}, WeightedScore: 5.00, Recommendation: RecommendAbandon},
		},
		SelectedApproach: "r",
		Steps: []PlanStep{
			{Title: "Provision", Description: "Stand up the server", Complexity: "low"},
			{Title: "Integrate", Dependencies: []int{1}, Files: []string{"cache.go"}},
		},
		Risks:           []Risk{{Description: "Cold start", Mitigation: "Warmup job"}},
		Assumptions:     []string{"single region"},
		SuccessCriteria: []string{"p99 < 5ms"},
		CreatedAt:       "2026-03-01T10:00:00Z",
		UpdatedAt:       "2026-03-01T11:00:00Z",
	}
}

// --- Markdown ---

func TestRenderMarkdown_TitleUsesSelectedApproach(t *testing.T) {
	md := RenderMarkdown(finalizedSession())
	if !strings.Contains(md, "# Plan: Redis") {
		t.Errorf("markdown should start with '# Plan: Redis', got:\n%s", md)
	}
}

func TestRenderMarkdown_SectionOrderAndContent(t *testing.T) {
	md := RenderMarkdown(finalizedSession())
	sections := []string{
		"## Problem",
		"## Context",
		"## Constraints",
		"## Clarifications",
		"## Selected Approach",
		"## Rejected Approaches",
		"## Implementation Steps",
		"## Risks",
		"## Assumptions",
		"## Success Criteria",
	}
	last := -1
	for _, sec := range sections {
		idx := strings.Index(md, sec)
		if idx < 0 {
			t.Fatalf("missing section %q in:\n%s", sec, md)
		}
		if idx < last {
			t.Errorf("section %q out of order", sec)
		}
		last = idx
	}
}

func TestRenderMarkdown_PendingAnswer(t *testing.T) {
	md := RenderMarkdown(finalizedSession())
	if !strings.Contains(md, "| Max memory? | Pending |") {
		t.Errorf("unanswered clarification should render as Pending, got:\n%s", md)
	}
}

func TestRenderMarkdown_RejectedIncludesEvaluation(t *testing.T) {
	md := RenderMarkdown(finalizedSession())
	if !strings.Contains(md, "### Memcached (`m`)") {
		t.Errorf("rejected approach subsection missing, got:\n%s", md)
	}
	if !strings.Contains(md, "**Recommendation:** abandon") {
		t.Errorf("rejected approach recommendation missing, got:\n%s", md)
	}
}

func TestRenderMarkdown_StepDependenciesRenderAsStepN(t *testing.T) {
	md := RenderMarkdown(finalizedSession())
	if !strings.Contains(md, "**Depends on:** Step 1") {
		t.Errorf("step dependency should render as 'Step 1', got:\n%s", md)
	}
}

func TestRenderMarkdown_EmptySectionsOmitted(t *testing.T) {
	s := &Session{
		ID:               "abc12345",
		Problem:          "Build cache",
		Phase:            PhaseDone,
		Approaches:       []Approach{{BranchID: "r", Name: "Redis"}},
		SelectedApproach: "r",
	}
	md := RenderMarkdown(s)
	for _, sec := range []string{"## Context", "## Constraints", "## Clarifications",
		"## Rejected Approaches", "## Implementation Steps", "## Risks",
		"## Assumptions", "## Success Criteria"} {
		if strings.Contains(md, sec) {
			t.Errorf("empty section %q should be omitted, got:\n%s", sec, md)
		}
	}
}

func TestRenderMarkdown_UnevaluatedSelectedBranch(t *testing.T) {
	s := &Session{
		Problem:          "Build cache",
		Phase:            PhaseDone,
		Approaches:       []Approach{{BranchID: "r", Name: "Redis"}},
		SelectedApproach: "r",
	}
	md := RenderMarkdown(s)
	if !strings.Contains(md, "## Selected Approach") {
		t.Errorf("selected approach section should render without an evaluation, got:\n%s", md)
	}
	if strings.Contains(md, "Weighted Score") {
		t.Errorf("score table should be absent without an evaluation, got:\n%s", md)
	}
}

// --- JSON ---

func TestRenderJSON_Shape(t *testing.T) {
	out := RenderJSON(finalizedSession())

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("RenderJSON produced invalid JSON: %v", err)
	}

	if doc["title"] != "Redis" {
		t.Errorf("title = %v, want Redis", doc["title"])
	}

	sel, ok := doc["selectedApproach"].(map[string]any)
	if !ok {
		t.Fatalf("selectedApproach missing or wrong type: %v", doc["selectedApproach"])
	}
	if sel["branchId"] != "r" {
		t.Errorf("selectedApproach.branchId = %v, want r", sel["branchId"])
	}
	if sel["score"] != 8.35 {
		t.Errorf("selectedApproach.score = %v, want 8.35", sel["score"])
	}

	rejected, ok := doc["rejectedApproaches"].([]any)
	if !ok || len(rejected) != 1 {
		t.Fatalf("rejectedApproaches = %v, want one entry", doc["rejectedApproaches"])
	}
	rj := rejected[0].(map[string]any)
	if rj["name"] != "Memcached" || rj["recommendation"] != "abandon" {
		t.Errorf("rejected entry = %v", rj)
	}
}

func TestRenderJSON_UnevaluatedSelectedBranchOmitsScore(t *testing.T) {
	s := &Session{
		Problem:          "Build cache",
		Phase:            PhaseDone,
		Approaches:       []Approach{{BranchID: "r", Name: "Redis"}},
		SelectedApproach: "r",
	}
	out := RenderJSON(s)

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	sel := doc["selectedApproach"].(map[string]any)
	if _, present := sel["score"]; present {
		t.Errorf("score should be absent for an unevaluated selected branch, got: %v", sel)
	}
}

func TestRenderPlan_DefaultsToMarkdown(t *testing.T) {
	s := finalizedSession()
	if got := RenderPlan(s, ""); !strings.HasPrefix(got, "# Plan:") {
		t.Errorf("RenderPlan with empty format should render markdown, got:\n%s", got)
	}
	if got := RenderPlan(s, FormatJSON); !strings.HasPrefix(got, "{") {
		t.Errorf("RenderPlan(json) should render JSON, got:\n%s", got)
	}
}
