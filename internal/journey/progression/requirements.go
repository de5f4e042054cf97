package progression

import "encoding/json"

// MetricRule is one metric comparison inside a stage's requirements.
type MetricRule struct {
	Metric     string   `json:"metric" yaml:"metric"`
	GTE        *float64 `json:"gte,omitempty" yaml:"gte,omitempty"`
	LTE        *float64 `json:"lte,omitempty" yaml:"lte,omitempty"`
	WindowDays int      `json:"window_days,omitempty" yaml:"window_days,omitempty"`
}

// Requirements gates a stage: Rules combined by Logic, plus an optional
// bonus OR-set that unlocks the stage when any single rule of it holds.
type Requirements struct {
	Logic       string       `json:"logic" yaml:"logic"`
	Rules       []MetricRule `json:"rules" yaml:"rules"`
	UnlockAnyOf []MetricRule `json:"unlock_any_of,omitempty" yaml:"unlock_any_of,omitempty"`
}

const (
	LogicAND = "AND"
	LogicOR  = "OR"
)

// ParseRequirements decodes a persisted requirements payload. Empty or
// malformed payloads decode to the zero value, which evaluates as not met.
func ParseRequirements(raw []byte) (Requirements, error) {
	var r Requirements
	if len(raw) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return Requirements{}, err
	}
	return r, nil
}

// RuleReader reads the current value for one rule's metric. Implementations
// decide the read window from the rule's WindowDays.
type RuleReader func(rule MetricRule) (float64, error)

// Outcome is the result of evaluating a stage's requirements.
type Outcome struct {
	Met        bool
	MetRules   []MetricRule
	UnmetRules []MetricRule
	// Partial is metRules/len(rules) regardless of Logic. Under OR this
	// mixes AND-style partial credit with an OR gate; the source system
	// does the same and product has not clarified the intent, so the
	// behavior is preserved as observed.
	Partial float64
}

// EvaluateRequirements scores every rule via read. A rule whose read fails
// counts as unmet; the failure never aborts the evaluation.
func EvaluateRequirements(req Requirements, read RuleReader) Outcome {
	var out Outcome
	if len(req.Rules) == 0 {
		return out
	}

	for _, rule := range req.Rules {
		if ruleSatisfied(rule, read) {
			out.MetRules = append(out.MetRules, rule)
		} else {
			out.UnmetRules = append(out.UnmetRules, rule)
		}
	}

	switch req.Logic {
	case LogicOR:
		out.Met = len(out.MetRules) > 0
	default:
		out.Met = len(out.UnmetRules) == 0
	}

	if !out.Met {
		for _, rule := range req.UnlockAnyOf {
			if ruleSatisfied(rule, read) {
				out.Met = true
				break
			}
		}
	}

	out.Partial = float64(len(out.MetRules)) / float64(len(req.Rules))
	return out
}

func ruleSatisfied(rule MetricRule, read RuleReader) bool {
	value, err := read(rule)
	if err != nil {
		return false
	}
	if rule.GTE == nil && rule.LTE == nil {
		return false
	}
	if rule.GTE != nil && value < *rule.GTE {
		return false
	}
	if rule.LTE != nil && value > *rule.LTE {
		return false
	}
	return true
}
