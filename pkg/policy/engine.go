package policy

import (
	"log/slog"

	"github.com/permbroker-org/permbroker/pkg/broker"
	"github.com/permbroker-org/permbroker/pkg/frame"
	"github.com/permbroker-org/permbroker/pkg/types"
)

// Prompter receives requests whose rule decision is "prompt" and answers
// them asynchronously through the respond function.
type Prompter interface {
	Prompt(f *frame.Frame, kind types.PermissionKind, details types.Details, respond broker.ResponseFunc)
}

// Engine turns a RuleSet into broker handlers.
type Engine struct {
	rules    *RuleSet
	prompter Prompter
	log      *slog.Logger
}

// NewEngine constructs an engine. prompter may be nil, in which case prompt
// decisions deny.
func NewEngine(rules *RuleSet, prompter Prompter, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{rules: rules, prompter: prompter, log: log}
}

// RequestHandler returns a broker request handler that answers allow/deny
// rules immediately and forwards prompt decisions to the prompter.
func (e *Engine) RequestHandler() broker.RequestHandler {
	return func(f *frame.Frame, kind types.PermissionKind, respond broker.ResponseFunc, details types.Details) {
		origin := ""
		if f != nil {
			origin = f.Origin()
		}
		decision := e.rules.Evaluate(kind, origin)
		e.log.Debug("permission request evaluated",
			"kind", kind, "origin", origin, "decision", decision)

		switch decision {
		case DecisionAllow:
			respond(types.StatusGranted)
		case DecisionDeny:
			respond(types.StatusDenied)
		case DecisionPrompt:
			if e.prompter == nil {
				e.log.Warn("prompt decision without a prompter, denying",
					"kind", kind, "origin", origin)
				respond(types.StatusDenied)
				return
			}
			e.prompter.Prompt(f, kind, details, respond)
		}
	}
}

// CheckHandler returns a broker check handler: only an allow rule passes.
// Prompt decisions deny because checks are synchronous.
func (e *Engine) CheckHandler() broker.CheckHandler {
	return func(f *frame.Frame, kind types.PermissionKind, requestingOrigin string, details types.Details) bool {
		origin := requestingOrigin
		if origin == "" && f != nil {
			origin = f.Origin()
		}
		return e.rules.Evaluate(kind, origin) == DecisionAllow
	}
}

// PermitAll returns a request handler that grants everything.
func PermitAll() broker.RequestHandler {
	return func(f *frame.Frame, kind types.PermissionKind, respond broker.ResponseFunc, details types.Details) {
		respond(types.StatusGranted)
	}
}

// DenyAll returns a request handler that denies everything.
func DenyAll() broker.RequestHandler {
	return func(f *frame.Frame, kind types.PermissionKind, respond broker.ResponseFunc, details types.Details) {
		respond(types.StatusDenied)
	}
}
