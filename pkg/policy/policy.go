// Package policy provides reference decision authorities for the broker:
// a rule-based engine loaded from yaml plus permit-all/deny-all handlers.
// Embedders with richer policy needs register their own handlers instead.
package policy

import (
	"fmt"
	"path"

	"github.com/permbroker-org/permbroker/pkg/types"
)

// Decision is the action a rule prescribes for a matching request.
type Decision string

const (
	DecisionAllow  Decision = "allow"
	DecisionDeny   Decision = "deny"
	DecisionPrompt Decision = "prompt" // delegate to an interactive approver
)

func (d Decision) valid() bool {
	switch d {
	case DecisionAllow, DecisionDeny, DecisionPrompt:
		return true
	}
	return false
}

// Rule matches one permission kind against an origin pattern. An empty
// permission or origin matches everything; origin patterns support glob
// syntax ("https://*.example.com").
type Rule struct {
	Permission types.PermissionKind `yaml:"permission"`
	Origin     string               `yaml:"origin"`
	Action     Decision             `yaml:"action"`
}

func (r Rule) matches(kind types.PermissionKind, origin string) bool {
	if r.Permission != "" && r.Permission != kind {
		return false
	}
	if r.Origin == "" || r.Origin == "*" {
		return true
	}
	ok, err := path.Match(r.Origin, origin)
	return err == nil && ok
}

// RuleSet is an ordered rule list with a fallback decision. First match wins.
type RuleSet struct {
	Default Decision `yaml:"default"`
	Rules   []Rule   `yaml:"rules"`
}

// Validate checks every action and the default for known decision values.
func (rs *RuleSet) Validate() error {
	if rs.Default == "" {
		rs.Default = DecisionPrompt
	}
	if !rs.Default.valid() {
		return fmt.Errorf("invalid default decision %q", rs.Default)
	}
	for i, r := range rs.Rules {
		if !r.Action.valid() {
			return fmt.Errorf("rule %d: invalid action %q", i, r.Action)
		}
	}
	return nil
}

// Evaluate returns the decision for (kind, origin).
func (rs *RuleSet) Evaluate(kind types.PermissionKind, origin string) Decision {
	for _, r := range rs.Rules {
		if r.matches(kind, origin) {
			return r.Action
		}
	}
	return rs.Default
}
