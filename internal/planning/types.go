// Package planning implements the interactive planning workflow: a
// phase-based state machine that walks a problem from clarification
// through approach exploration and weighted evaluation to a finalized,
// renderable plan.
//
// The package is split by responsibility:
// - types: the session aggregate and the phase transition table
// - score: the weighted fitness score
// - steps: payload parsing and step normalization
// - render: markdown/JSON plan documents
// - machine: the state machine that owns the active session
package planning

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// ─── Phase enum ──────────────────────────────────────────────────────────────

// Phase is a discrete state in the planning workflow.
type Phase string

const (
	// PhaseNone means no session exists yet — only init is legal.
	PhaseNone     Phase = ""
	PhaseInit     Phase = "init"
	PhaseClarify  Phase = "clarify"
	PhaseExplore  Phase = "explore"
	PhaseEvaluate Phase = "evaluate"
	PhaseFinalize Phase = "finalize"
	PhaseDone     Phase = "done"
)

// nextPhases is the transition table: for each current phase, the set of
// phases a caller may legally request next. A request for PhaseInit is
// always legal regardless of this table — it starts a fresh session.
var nextPhases = map[Phase][]Phase{
	PhaseNone:     {PhaseInit},
	PhaseInit:     {PhaseClarify, PhaseExplore},
	PhaseClarify:  {PhaseClarify, PhaseExplore},
	PhaseExplore:  {PhaseExplore, PhaseEvaluate, PhaseClarify},
	PhaseEvaluate: {PhaseEvaluate, PhaseExplore, PhaseFinalize},
	PhaseFinalize: {PhaseInit},
	PhaseDone:     {PhaseInit},
}

// ValidNextPhases returns the legal next phases for the given current phase.
// The returned slice is a copy — callers may not mutate the table.
func ValidNextPhases(current Phase) []Phase {
	entry, ok := nextPhases[current]
	if !ok {
		return []Phase{PhaseInit}
	}
	out := make([]Phase, len(entry))
	copy(out, entry)
	return out
}

// ValidateTransition checks whether requesting phase `requested` is legal
// from phase `current`. Requests for init always pass.
func ValidateTransition(current, requested Phase) error {
	if requested == PhaseInit {
		return nil
	}
	for _, p := range ValidNextPhases(current) {
		if p == requested {
			return nil
		}
	}
	return fmt.Errorf("invalid phase transition: cannot move from %q to %q (valid next phases: %s)",
		phaseLabel(current), requested, joinPhases(ValidNextPhases(current)))
}

// phaseLabel renders PhaseNone readably in error messages.
func phaseLabel(p Phase) string {
	if p == PhaseNone {
		return "none"
	}
	return string(p)
}

// joinPhases formats a phase list for error messages.
func joinPhases(phases []Phase) string {
	parts := make([]string, len(phases))
	for i, p := range phases {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

// ─── Recommendation enum ─────────────────────────────────────────────────────

// Recommendation is the verdict attached to an approach evaluation.
type Recommendation string

const (
	RecommendPursue  Recommendation = "pursue"
	RecommendRefine  Recommendation = "refine"
	RecommendAbandon Recommendation = "abandon"
)

// validRecommendations is the set of allowed evaluation verdicts.
var validRecommendations = map[Recommendation]bool{
	RecommendPursue:  true,
	RecommendRefine:  true,
	RecommendAbandon: true,
}

// ValidateRecommendation returns an error if the verdict is not recognized.
func ValidateRecommendation(r Recommendation) error {
	if !validRecommendations[r] {
		return fmt.Errorf("invalid recommendation %q: must be one of: pursue, refine, abandon", r)
	}
	return nil
}

// ─── Core data structures ────────────────────────────────────────────────────

// Clarification is one question raised during the clarify phase, with an
// optional answer.
type Clarification struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// Approach is one candidate solution path, keyed by a branch ID that is
// unique within its session.
type Approach struct {
	BranchID    string   `json:"branch_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Pros        []string `json:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty"`
}

// Scores holds the four evaluation dimensions, each 0–10 by convention.
// Range enforcement happens at the tool schema, not here.
type Scores struct {
	Feasibility  float64 `json:"feasibility"`
	Completeness float64 `json:"completeness"`
	Coherence    float64 `json:"coherence"`
	Risk         float64 `json:"risk"`
}

// Evaluation is the scored assessment of one approach. At most one
// evaluation exists per branch.
type Evaluation struct {
	BranchID       string         `json:"branch_id"`
	Scores         Scores         `json:"scores"`
	WeightedScore  float64        `json:"weighted_score"`
	Rationale      string         `json:"rationale,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
}

// PlanStep is one normalized implementation step in the finalized plan.
type PlanStep struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Files        []string `json:"files,omitempty"`
	Dependencies []int    `json:"dependencies,omitempty"` // 1-based step numbers
	Complexity   string   `json:"complexity,omitempty"`   // low | medium | high
}

// Risk is a known risk with its mitigation, captured at finalize.
type Risk struct {
	Description string `json:"description"`
	Mitigation  string `json:"mitigation,omitempty"`
}

// Session is the root planning aggregate. Exactly one session is active
// in memory at a time; durable copies live in the per-session event log.
type Session struct {
	ID               string          `json:"session_id"`
	Problem          string          `json:"problem"`
	Context          string          `json:"context,omitempty"`
	Constraints      []string        `json:"constraints,omitempty"`
	Phase            Phase           `json:"phase"`
	Clarifications   []Clarification `json:"clarifications"`
	Approaches       []Approach      `json:"approaches"`
	Evaluations      []Evaluation    `json:"evaluations"`
	SelectedApproach string          `json:"selected_approach,omitempty"`
	Steps            []PlanStep      `json:"steps,omitempty"`
	Risks            []Risk          `json:"risks,omitempty"`
	Assumptions      []string        `json:"assumptions,omitempty"`
	SuccessCriteria  []string        `json:"success_criteria,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

// ApproachByBranch returns the approach with the given branch ID, or nil.
func (s *Session) ApproachByBranch(branchID string) *Approach {
	for i := range s.Approaches {
		if s.Approaches[i].BranchID == branchID {
			return &s.Approaches[i]
		}
	}
	return nil
}

// EvaluationByBranch returns the evaluation for the given branch ID, or nil.
func (s *Session) EvaluationByBranch(branchID string) *Evaluation {
	for i := range s.Evaluations {
		if s.Evaluations[i].BranchID == branchID {
			return &s.Evaluations[i]
		}
	}
	return nil
}

// BranchIDs returns all approach branch IDs in insertion order.
func (s *Session) BranchIDs() []string {
	ids := make([]string, len(s.Approaches))
	for i, a := range s.Approaches {
		ids[i] = a.BranchID
	}
	return ids
}

// ─── Session ID generation ───────────────────────────────────────────────────

const (
	sessionIDLen      = 8
	sessionIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewSessionID generates an 8-character random alphanumeric identifier.
func NewSessionID() string {
	buf := make([]byte, sessionIDLen)
	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = sessionIDAlphabet[int(b)%len(sessionIDAlphabet)]
	}
	return string(buf)
}
