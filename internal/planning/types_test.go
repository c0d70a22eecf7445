package planning

import (
	"strings"
	"testing"
)

// --- Transition table ---

func TestValidNextPhases_NoSession(t *testing.T) {
	got := ValidNextPhases(PhaseNone)
	if len(got) != 1 || got[0] != PhaseInit {
		t.Errorf("ValidNextPhases(none) = %v, want [init]", got)
	}
}

func TestValidNextPhases_Explore(t *testing.T) {
	got := ValidNextPhases(PhaseExplore)
	want := []Phase{PhaseExplore, PhaseEvaluate, PhaseClarify}
	if len(got) != len(want) {
		t.Fatalf("ValidNextPhases(explore) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ValidNextPhases(explore)[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestValidNextPhases_DoneOnlyAllowsInit(t *testing.T) {
	got := ValidNextPhases(PhaseDone)
	if len(got) != 1 || got[0] != PhaseInit {
		t.Errorf("ValidNextPhases(done) = %v, want [init]", got)
	}
}

func TestValidNextPhases_ReturnsCopy(t *testing.T) {
	got := ValidNextPhases(PhaseInit)
	got[0] = PhaseDone
	again := ValidNextPhases(PhaseInit)
	if again[0] == PhaseDone {
		t.Error("mutating the returned slice should not affect the table")
	}
}

func TestValidateTransition_InitAlwaysLegal(t *testing.T) {
	for _, from := range []Phase{PhaseNone, PhaseInit, PhaseClarify, PhaseExplore, PhaseEvaluate, PhaseFinalize, PhaseDone} {
		if err := ValidateTransition(from, PhaseInit); err != nil {
			t.Errorf("ValidateTransition(%q, init) should succeed, got: %v", from, err)
		}
	}
}

func TestValidateTransition_InitToFinalizeFails(t *testing.T) {
	err := ValidateTransition(PhaseInit, PhaseFinalize)
	if err == nil {
		t.Fatal("ValidateTransition(init, finalize) should fail")
	}
	msg := err.Error()
	if !strings.Contains(msg, "init") || !strings.Contains(msg, "finalize") {
		t.Errorf("error should name both phases, got: %s", msg)
	}
	if !strings.Contains(msg, "clarify") || !strings.Contains(msg, "explore") {
		t.Errorf("error should list the valid alternatives, got: %s", msg)
	}
}

func TestValidateTransition_NoneToClarifyFails(t *testing.T) {
	if err := ValidateTransition(PhaseNone, PhaseClarify); err == nil {
		t.Fatal("ValidateTransition(none, clarify) should fail")
	}
}

func TestValidateTransition_EvaluateToFinalize(t *testing.T) {
	if err := ValidateTransition(PhaseEvaluate, PhaseFinalize); err != nil {
		t.Errorf("ValidateTransition(evaluate, finalize) should succeed, got: %v", err)
	}
}

func TestValidateTransition_ExploreBackToClarify(t *testing.T) {
	if err := ValidateTransition(PhaseExplore, PhaseClarify); err != nil {
		t.Errorf("ValidateTransition(explore, clarify) should succeed, got: %v", err)
	}
}

// --- Recommendation ---

func TestValidateRecommendation_Valid(t *testing.T) {
	for _, r := range []Recommendation{RecommendPursue, RecommendRefine, RecommendAbandon} {
		if err := ValidateRecommendation(r); err != nil {
			t.Errorf("ValidateRecommendation(%q) should succeed, got: %v", r, err)
		}
	}
}

func TestValidateRecommendation_Invalid(t *testing.T) {
	err := ValidateRecommendation("maybe")
	if err == nil {
		t.Fatal("ValidateRecommendation(maybe) should fail")
	}
	if !strings.Contains(err.Error(), "pursue, refine, abandon") {
		t.Errorf("error should list valid values, got: %s", err.Error())
	}
}

// --- Session helpers ---

func TestSession_ApproachByBranch(t *testing.T) {
	s := &Session{Approaches: []Approach{
		{BranchID: "r", Name: "Redis"},
		{BranchID: "m", Name: "Memcached"},
	}}
	if a := s.ApproachByBranch("m"); a == nil || a.Name != "Memcached" {
		t.Errorf("ApproachByBranch(m) = %v, want Memcached", a)
	}
	if a := s.ApproachByBranch("x"); a != nil {
		t.Errorf("ApproachByBranch(x) = %v, want nil", a)
	}
}

func TestSession_BranchIDs(t *testing.T) {
	s := &Session{Approaches: []Approach{{BranchID: "a"}, {BranchID: "b"}}}
	ids := s.BranchIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("BranchIDs = %v, want [a b]", ids)
	}
}

// --- Session ID ---

func TestNewSessionID_Format(t *testing.T) {
	id := NewSessionID()
	if len(id) != 8 {
		t.Fatalf("session id %q has length %d, want 8", id, len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune(sessionIDAlphabet, r) {
			t.Errorf("session id %q contains non-alphanumeric rune %q", id, r)
		}
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate session id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}
