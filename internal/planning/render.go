package planning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Plan document rendering. Both renderers are pure: they read a completed
// session and produce a document, with no side effects. Sections with no
// data are omitted entirely — no empty headers.

// PlanFormat selects the output mode of a rendered plan.
type PlanFormat string

const (
	FormatMarkdown PlanFormat = "markdown"
	FormatJSON     PlanFormat = "json"
)

// RenderPlan renders the session in the requested format, defaulting to
// markdown for unknown values.
func RenderPlan(s *Session, format PlanFormat) string {
	if format == FormatJSON {
		return RenderJSON(s)
	}
	return RenderMarkdown(s)
}

// ─── Markdown ────────────────────────────────────────────────────────────────

// RenderMarkdown renders the finalized plan as a markdown document.
// A selected approach without a recorded evaluation is tolerated: the
// score and rationale lines are simply absent.
func RenderMarkdown(s *Session) string {
	selected := s.ApproachByBranch(s.SelectedApproach)

	var sb strings.Builder
	title := "Plan"
	if selected != nil {
		title = selected.Name
	}
	fmt.Fprintf(&sb, "# Plan: %s\n\n", title)

	sb.WriteString("## Problem\n\n")
	sb.WriteString(s.Problem + "\n\n")

	if s.Context != "" {
		sb.WriteString("## Context\n\n")
		sb.WriteString(s.Context + "\n\n")
	}

	if len(s.Constraints) > 0 {
		sb.WriteString("## Constraints\n\n")
		for _, c := range s.Constraints {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		sb.WriteString("\n")
	}

	if len(s.Clarifications) > 0 {
		sb.WriteString("## Clarifications\n\n")
		sb.WriteString("| Question | Answer |\n|---|---|\n")
		for _, c := range s.Clarifications {
			answer := c.Answer
			if answer == "" {
				answer = "Pending"
			}
			fmt.Fprintf(&sb, "| %s | %s |\n", c.Question, answer)
		}
		sb.WriteString("\n")
	}

	if selected != nil {
		sb.WriteString("## Selected Approach\n\n")
		fmt.Fprintf(&sb, "**%s** (`%s`)\n\n", selected.Name, selected.BranchID)
		if selected.Description != "" {
			sb.WriteString(selected.Description + "\n\n")
		}
		if eval := s.EvaluationByBranch(selected.BranchID); eval != nil {
			sb.WriteString("| Weighted Score | Recommendation |\n|---|---|\n")
			fmt.Fprintf(&sb, "| %.2f | %s |\n\n", eval.WeightedScore, eval.Recommendation)
			if eval.Rationale != "" {
				fmt.Fprintf(&sb, "**Rationale:** %s\n\n", eval.Rationale)
			}
		}
		if len(selected.Pros) > 0 {
			sb.WriteString("### Pros\n\n")
			for _, p := range selected.Pros {
				fmt.Fprintf(&sb, "- %s\n", p)
			}
			sb.WriteString("\n")
		}
		if len(selected.Cons) > 0 {
			sb.WriteString("### Cons\n\n")
			for _, c := range selected.Cons {
				fmt.Fprintf(&sb, "- %s\n", c)
			}
			sb.WriteString("\n")
		}
	}

	rejected := rejectedApproaches(s)
	if len(rejected) > 0 {
		sb.WriteString("## Rejected Approaches\n\n")
		for _, a := range rejected {
			fmt.Fprintf(&sb, "### %s (`%s`)\n\n", a.Name, a.BranchID)
			if a.Description != "" {
				sb.WriteString(a.Description + "\n\n")
			}
			if eval := s.EvaluationByBranch(a.BranchID); eval != nil {
				fmt.Fprintf(&sb, "- **Score:** %.2f\n", eval.WeightedScore)
				fmt.Fprintf(&sb, "- **Recommendation:** %s\n", eval.Recommendation)
				if eval.Rationale != "" {
					fmt.Fprintf(&sb, "- **Rationale:** %s\n", eval.Rationale)
				}
				sb.WriteString("\n")
			}
		}
	}

	if len(s.Steps) > 0 {
		sb.WriteString("## Implementation Steps\n\n")
		for i, step := range s.Steps {
			fmt.Fprintf(&sb, "### %d. %s\n\n", i+1, step.Title)
			if step.Description != "" {
				sb.WriteString(step.Description + "\n\n")
			}
			if len(step.Files) > 0 {
				fmt.Fprintf(&sb, "- **Files:** %s\n", strings.Join(step.Files, ", "))
			}
			if len(step.Dependencies) > 0 {
				refs := make([]string, len(step.Dependencies))
				for j, d := range step.Dependencies {
					refs[j] = fmt.Sprintf("Step %d", d)
				}
				fmt.Fprintf(&sb, "- **Depends on:** %s\n", strings.Join(refs, ", "))
			}
			if step.Complexity != "" {
				fmt.Fprintf(&sb, "- **Complexity:** %s\n", step.Complexity)
			}
			if len(step.Files) > 0 || len(step.Dependencies) > 0 || step.Complexity != "" {
				sb.WriteString("\n")
			}
		}
	}

	if len(s.Risks) > 0 {
		sb.WriteString("## Risks\n\n")
		sb.WriteString("| Risk | Mitigation |\n|---|---|\n")
		for _, r := range s.Risks {
			fmt.Fprintf(&sb, "| %s | %s |\n", r.Description, r.Mitigation)
		}
		sb.WriteString("\n")
	}

	if len(s.Assumptions) > 0 {
		sb.WriteString("## Assumptions\n\n")
		for _, a := range s.Assumptions {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
		sb.WriteString("\n")
	}

	if len(s.SuccessCriteria) > 0 {
		sb.WriteString("## Success Criteria\n\n")
		for _, c := range s.SuccessCriteria {
			fmt.Fprintf(&sb, "- [ ] %s\n", c)
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// ─── JSON ────────────────────────────────────────────────────────────────────

// planDocument is the JSON plan shape. Field names are part of the output
// contract consumed by external tooling, hence camelCase.
type planDocument struct {
	Title            string              `json:"title"`
	Problem          string              `json:"problem"`
	Context          string              `json:"context,omitempty"`
	Constraints      []string            `json:"constraints,omitempty"`
	Clarifications   []Clarification     `json:"clarifications,omitempty"`
	SelectedApproach *selectedApproach   `json:"selectedApproach,omitempty"`
	Rejected         []rejectedApproach  `json:"rejectedApproaches"`
	Steps            []PlanStep          `json:"steps,omitempty"`
	Risks            []Risk              `json:"risks,omitempty"`
	Assumptions      []string            `json:"assumptions,omitempty"`
	SuccessCriteria  []string            `json:"successCriteria,omitempty"`
}

type selectedApproach struct {
	Name      string   `json:"name"`
	BranchID  string   `json:"branchId"`
	Score     *float64 `json:"score,omitempty"`
	Rationale string   `json:"rationale,omitempty"`
}

type rejectedApproach struct {
	Name           string   `json:"name"`
	BranchID       string   `json:"branchId"`
	Score          *float64 `json:"score,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
	Rationale      string   `json:"rationale,omitempty"`
}

// RenderJSON renders the finalized plan as a pretty-printed JSON document.
func RenderJSON(s *Session) string {
	selected := s.ApproachByBranch(s.SelectedApproach)

	doc := planDocument{
		Problem:         s.Problem,
		Context:         s.Context,
		Constraints:     s.Constraints,
		Clarifications:  s.Clarifications,
		Rejected:        []rejectedApproach{},
		Steps:           s.Steps,
		Risks:           s.Risks,
		Assumptions:     s.Assumptions,
		SuccessCriteria: s.SuccessCriteria,
	}

	doc.Title = "Plan"
	if selected != nil {
		doc.Title = selected.Name
		sa := &selectedApproach{Name: selected.Name, BranchID: selected.BranchID}
		if eval := s.EvaluationByBranch(selected.BranchID); eval != nil {
			score := eval.WeightedScore
			sa.Score = &score
			sa.Rationale = eval.Rationale
		}
		doc.SelectedApproach = sa
	}

	for _, a := range rejectedApproaches(s) {
		ra := rejectedApproach{Name: a.Name, BranchID: a.BranchID}
		if eval := s.EvaluationByBranch(a.BranchID); eval != nil {
			score := eval.WeightedScore
			ra.Score = &score
			ra.Recommendation = string(eval.Recommendation)
			ra.Rationale = eval.Rationale
		}
		doc.Rejected = append(doc.Rejected, ra)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// The document is built from plain structs; marshal cannot fail.
		return "{}"
	}
	return string(data)
}

// rejectedApproaches returns all approaches except the selected one, in
// insertion order.
func rejectedApproaches(s *Session) []Approach {
	var out []Approach
	for _, a := range s.Approaches {
		if a.BranchID != s.SelectedApproach {
			out = append(out, a)
		}
	}
	return out
}
