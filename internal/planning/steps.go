package planning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Complex tool parameters arrive as JSON-encoded strings, not native
// structures. Each parser here treats malformed JSON and a wrong top-level
// shape as the same validation error class: the call fails without
// mutating session state.

// ParseStringArray parses a JSON array of strings. An empty input is not
// an error — it means the optional field was omitted.
func ParseStringArray(raw, field string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("'%s' must be a JSON array of strings: %w", field, err)
	}
	return out, nil
}

// ParseRisks parses a JSON array of {description, mitigation} objects.
func ParseRisks(raw string) ([]Risk, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []Risk
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("'risks' must be a JSON array of {description, mitigation} objects: %w", err)
	}
	return out, nil
}

// ParseSteps parses a JSON array of loosely-shaped step objects and
// normalizes each one via NormalizeStep.
func ParseSteps(raw string) ([]PlanStep, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var objs []map[string]any
	if err := json.Unmarshal([]byte(raw), &objs); err != nil {
		return nil, fmt.Errorf("'steps' must be a JSON array of step objects: %w", err)
	}
	steps := make([]PlanStep, len(objs))
	for i, obj := range objs {
		steps[i] = NormalizeStep(obj, i)
	}
	return steps, nil
}

// Field-name aliases accepted for the two canonical step fields.
// First string match wins.
var (
	stepTitleAliases = []string{"title", "action", "name", "step"}
	stepDescAliases  = []string{"description", "detail", "details", "info"}
)

// NormalizeStep converts a loosely-keyed step object into a PlanStep.
// index is the 0-based position of the step, used for the fallback title
// ("Step {index+1}").
func NormalizeStep(obj map[string]any, index int) PlanStep {
	step := PlanStep{
		Title:       firstString(obj, stepTitleAliases),
		Description: firstString(obj, stepDescAliases),
	}
	if step.Title == "" {
		step.Title = fmt.Sprintf("Step %d", index+1)
	}

	// Optional pass-through fields, copied when present.
	if files := stringSlice(obj["files"]); files != nil {
		step.Files = files
	}
	if deps := intSlice(obj["dependencies"]); deps != nil {
		step.Dependencies = deps
	}
	if c, ok := obj["complexity"].(string); ok && c != "" {
		step.Complexity = c
	}
	return step
}

// firstString returns the first alias whose value is a string.
func firstString(obj map[string]any, aliases []string) string {
	for _, key := range aliases {
		if v, ok := obj[key].(string); ok {
			return v
		}
	}
	return ""
}

// stringSlice coerces a decoded JSON value into []string, keeping only
// string elements. Returns nil if the value is not an array.
func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// intSlice coerces a decoded JSON value into []int (JSON numbers decode
// as float64). Returns nil if the value is not an array.
func intSlice(v any) []int {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []int
	for _, e := range arr {
		if n, ok := e.(float64); ok {
			out = append(out, int(n))
		}
	}
	return out
}
