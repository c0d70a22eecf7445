package planning

import (
	"fmt"
	"strings"
	"time"
)

// SessionLoader reconstructs a session from durable storage, keyed by its
// identifier. Abstracted so the state machine stays free of I/O (DIP) —
// the plans store implements it by replaying the session's event log.
type SessionLoader interface {
	LoadSession(sessionID string) (*Session, error)
}

// Machine owns the single active in-memory planning session and validates
// every phase transition against the workflow grammar. All mutation goes
// through the per-phase methods; a failed call never changes state.
//
// Persistence is not the machine's job: callers observe results and the
// active session, and trigger durable writes as side effects.
type Machine struct {
	active *Session
	loader SessionLoader
}

// NewMachine creates a Machine with no active session. loader may be nil,
// in which case session resumption by ID is unavailable.
func NewMachine(loader SessionLoader) *Machine {
	return &Machine{loader: loader}
}

// Active returns the current in-memory session, or nil.
func (m *Machine) Active() *Session {
	return m.active
}

// ─── Result contract ─────────────────────────────────────────────────────────

// Status classifies the outcome of a planning call.
type Status string

const (
	StatusOK       Status = "ok"
	StatusError    Status = "error"
	StatusComplete Status = "complete" // successful finalize only
)

// Result is the structured outcome of every planning call. The metadata
// counters always reflect whatever session is currently in memory — on a
// failed call that is the unchanged (possibly previous) session.
type Result struct {
	SessionID       string  `json:"session_id"`
	Phase           Phase   `json:"phase"`
	Status          Status  `json:"status"`
	ApproachCount   int     `json:"approach_count"`
	EvaluationCount int     `json:"evaluation_count"`
	ValidNextPhases []Phase `json:"valid_next_phases"`
	Message         string  `json:"message"`
	Plan            string  `json:"plan,omitempty"`

	// IsError is the out-of-band error indicator for the tool layer.
	IsError bool `json:"-"`
}

// result builds a Result snapshot from the current in-memory session.
func (m *Machine) result(status Status, message string) *Result {
	r := &Result{
		Status:          status,
		Message:         message,
		IsError:         status == StatusError,
		ValidNextPhases: ValidNextPhases(PhaseNone),
	}
	if m.active != nil {
		r.SessionID = m.active.ID
		r.Phase = m.active.Phase
		r.ApproachCount = len(m.active.Approaches)
		r.EvaluationCount = len(m.active.Evaluations)
		r.ValidNextPhases = ValidNextPhases(m.active.Phase)
	}
	return r
}

func (m *Machine) okResult(message string) *Result {
	return m.result(StatusOK, message)
}

func (m *Machine) errorResult(message string) *Result {
	return m.result(StatusError, message)
}

// ─── Resumption & transition checks ──────────────────────────────────────────

// resolveSession implements the resumption protocol: an absent ID targets
// the in-memory session, a matching ID is a no-op, and a different ID
// replaces the active session with one replayed from durable storage.
// Returns a non-nil error result when the session cannot be found.
func (m *Machine) resolveSession(sessionID string) *Result {
	if sessionID == "" {
		return nil
	}
	if m.active != nil && m.active.ID == sessionID {
		return nil
	}
	if m.loader == nil {
		return m.errorResult(fmt.Sprintf("session %q not found: no session storage available", sessionID))
	}
	loaded, err := m.loader.LoadSession(sessionID)
	if err != nil {
		return m.errorResult(err.Error())
	}
	m.active = loaded
	return nil
}

// checkTransition validates the requested phase against the current one.
// Returns a non-nil error result on an illegal transition.
func (m *Machine) checkTransition(requested Phase) *Result {
	current := PhaseNone
	if m.active != nil {
		current = m.active.Phase
	}
	if err := ValidateTransition(current, requested); err != nil {
		return m.errorResult(err.Error())
	}
	return nil
}

// ─── init ────────────────────────────────────────────────────────────────────

// InitRequest starts a brand-new session. Constraints is an optional
// JSON-encoded array of strings.
type InitRequest struct {
	Problem     string
	Context     string
	Constraints string
}

// Init creates a fresh session and makes it the active one, discarding the
// in-memory reference to any prior session (its durable trace remains).
// A supplied session ID is ignored by design: init always creates.
//
// On validation failure the previous session stays active, so the error
// result reports its metadata — preserved observed behavior, see DESIGN.md.
func (m *Machine) Init(req InitRequest) *Result {
	if strings.TrimSpace(req.Problem) == "" {
		return m.errorResult("'problem' is required — describe what needs to be planned")
	}

	constraints, err := ParseStringArray(req.Constraints, "constraints")
	if err != nil {
		return m.errorResult(err.Error())
	}

	now := timeNow().UTC().Format(time.RFC3339)
	m.active = &Session{
		ID:             NewSessionID(),
		Problem:        req.Problem,
		Context:        req.Context,
		Constraints:    constraints,
		Phase:          PhaseInit,
		Clarifications: []Clarification{},
		Approaches:     []Approach{},
		Evaluations:    []Evaluation{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return m.okResult(fmt.Sprintf(
		"Planning session %s started. Clarify open questions with phase \"clarify\" or record candidate approaches with phase \"explore\".",
		m.active.ID,
	))
}

// ─── clarify ─────────────────────────────────────────────────────────────────

// ClarifyRequest appends a clarification question, optionally answered.
type ClarifyRequest struct {
	SessionID string
	Question  string
	Answer    string
}

// Clarify records a clarification and moves the session to the clarify
// phase. Repeatable.
func (m *Machine) Clarify(req ClarifyRequest) *Result {
	if r := m.resolveSession(req.SessionID); r != nil {
		return r
	}
	if r := m.checkTransition(PhaseClarify); r != nil {
		return r
	}
	if strings.TrimSpace(req.Question) == "" {
		return m.errorResult("'question' is required — state the ambiguity to resolve")
	}

	m.active.Clarifications = append(m.active.Clarifications, Clarification{
		Question: req.Question,
		Answer:   req.Answer,
	})
	m.active.Phase = PhaseClarify
	m.touch()

	return m.okResult(fmt.Sprintf("Clarification recorded (%d total).", len(m.active.Clarifications)))
}

// ─── explore ─────────────────────────────────────────────────────────────────

// ExploreRequest records a candidate approach. Pros and Cons are optional
// JSON-encoded arrays of strings.
type ExploreRequest struct {
	SessionID   string
	BranchID    string
	Name        string
	Description string
	Pros        string
	Cons        string
}

// Explore appends a new approach under a unique branch ID and moves the
// session to the explore phase. Repeatable.
func (m *Machine) Explore(req ExploreRequest) *Result {
	if r := m.resolveSession(req.SessionID); r != nil {
		return r
	}
	if r := m.checkTransition(PhaseExplore); r != nil {
		return r
	}
	if strings.TrimSpace(req.BranchID) == "" {
		return m.errorResult("'branch_id' is required — a short unique key for this approach")
	}
	if strings.TrimSpace(req.Name) == "" {
		return m.errorResult("'name' is required — a human-readable approach name")
	}
	if m.active.ApproachByBranch(req.BranchID) != nil {
		return m.errorResult(fmt.Sprintf("approach with branch id %q already exists", req.BranchID))
	}

	pros, err := ParseStringArray(req.Pros, "pros")
	if err != nil {
		return m.errorResult(err.Error())
	}
	cons, err := ParseStringArray(req.Cons, "cons")
	if err != nil {
		return m.errorResult(err.Error())
	}

	m.active.Approaches = append(m.active.Approaches, Approach{
		BranchID:    req.BranchID,
		Name:        req.Name,
		Description: req.Description,
		Pros:        pros,
		Cons:        cons,
	})
	m.active.Phase = PhaseExplore
	m.touch()

	return m.okResult(fmt.Sprintf("Approach %q recorded (%d total).", req.Name, len(m.active.Approaches)))
}

// ─── evaluate ────────────────────────────────────────────────────────────────

// EvaluateRequest scores an existing approach. Scores arrive already
// defaulted by the caller (omitted dimensions default to 5 at the tool
// schema); the machine does not re-validate the 0–10 range.
type EvaluateRequest struct {
	SessionID      string
	BranchID       string
	Scores         Scores
	Rationale      string
	Recommendation Recommendation
}

// Evaluate attaches a weighted evaluation to an approach and moves the
// session to the evaluate phase. One evaluation per branch.
func (m *Machine) Evaluate(req EvaluateRequest) *Result {
	if r := m.resolveSession(req.SessionID); r != nil {
		return r
	}
	if r := m.checkTransition(PhaseEvaluate); r != nil {
		return r
	}
	if strings.TrimSpace(req.BranchID) == "" {
		return m.errorResult("'branch_id' is required — which approach to evaluate")
	}
	if m.active.ApproachByBranch(req.BranchID) == nil {
		return m.errorResult(fmt.Sprintf("unknown branch id %q (available: %s)",
			req.BranchID, strings.Join(m.active.BranchIDs(), ", ")))
	}
	if m.active.EvaluationByBranch(req.BranchID) != nil {
		return m.errorResult(fmt.Sprintf("an evaluation for branch %q already exists", req.BranchID))
	}
	if err := ValidateRecommendation(req.Recommendation); err != nil {
		return m.errorResult(err.Error())
	}

	weighted := CalculateWeightedScore(req.Scores)
	m.active.Evaluations = append(m.active.Evaluations, Evaluation{
		BranchID:       req.BranchID,
		Scores:         req.Scores,
		WeightedScore:  weighted,
		Rationale:      req.Rationale,
		Recommendation: req.Recommendation,
	})
	m.active.Phase = PhaseEvaluate
	m.touch()

	return m.okResult(fmt.Sprintf("Branch %q evaluated: weighted score %.2f (%s).",
		req.BranchID, weighted, req.Recommendation))
}

// ─── finalize ────────────────────────────────────────────────────────────────

// FinalizeRequest seals the session around a selected approach. Steps,
// Risks, Assumptions and SuccessCriteria are optional JSON-encoded arrays.
type FinalizeRequest struct {
	SessionID       string
	SelectedBranch  string
	Steps           string
	Risks           string
	Assumptions     string
	SuccessCriteria string
	Format          PlanFormat
}

// Finalize selects an approach, records the implementation plan, moves the
// session to done, and renders the plan document in the requested format.
// The selected branch does not need a recorded evaluation.
func (m *Machine) Finalize(req FinalizeRequest) *Result {
	if r := m.resolveSession(req.SessionID); r != nil {
		return r
	}
	if r := m.checkTransition(PhaseFinalize); r != nil {
		return r
	}
	if strings.TrimSpace(req.SelectedBranch) == "" {
		return m.errorResult("'selected_branch' is required — which approach the plan commits to")
	}
	if m.active.ApproachByBranch(req.SelectedBranch) == nil {
		return m.errorResult(fmt.Sprintf("unknown branch id %q (available: %s)",
			req.SelectedBranch, strings.Join(m.active.BranchIDs(), ", ")))
	}

	steps, err := ParseSteps(req.Steps)
	if err != nil {
		return m.errorResult(err.Error())
	}
	risks, err := ParseRisks(req.Risks)
	if err != nil {
		return m.errorResult(err.Error())
	}
	assumptions, err := ParseStringArray(req.Assumptions, "assumptions")
	if err != nil {
		return m.errorResult(err.Error())
	}
	criteria, err := ParseStringArray(req.SuccessCriteria, "success_criteria")
	if err != nil {
		return m.errorResult(err.Error())
	}

	m.active.SelectedApproach = req.SelectedBranch
	m.active.Steps = steps
	m.active.Risks = risks
	m.active.Assumptions = assumptions
	m.active.SuccessCriteria = criteria
	m.active.Phase = PhaseDone
	m.touch()

	r := m.result(StatusComplete, fmt.Sprintf("Plan finalized around branch %q.", req.SelectedBranch))
	r.Plan = RenderPlan(m.active, req.Format)
	return r
}

// touch refreshes the session's updated-at timestamp.
func (m *Machine) touch() {
	m.active.UpdatedAt = timeNow().UTC().Format(time.RFC3339)
}
