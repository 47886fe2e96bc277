package dsl

import (
	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/logging"
	"github.com/MirrexOne/sqlctx/internal/sqlcontext"
	"github.com/MirrexOne/sqlctx/pkg/config"
)

// Evaluator applies compiled rules to completion candidates. It implements
// completion.Filter and is safe for concurrent use.
type Evaluator struct {
	rules []*CompiledRule
	log   *zap.SugaredLogger
}

var _ completion.Filter = (*Evaluator)(nil)

// NewEvaluator compiles the given rules, prefixed by the built-in
// hide-system-tables rule when hideSystemTables is set.
func NewEvaluator(rules []Rule, hideSystemTables bool, log *zap.SugaredLogger) (*Evaluator, error) {
	if hideSystemTables {
		rules = append([]Rule{SystemTablesRule()}, rules...)
	}

	compiled, err := NewCompiler().CompileRules(rules)
	if err != nil {
		return nil, err
	}

	return &Evaluator{rules: compiled, log: logging.OrNop(log)}, nil
}

// FromSettings builds an evaluator from the rules in a config file.
func FromSettings(s config.Settings, log *zap.SugaredLogger) (*Evaluator, error) {
	rules := make([]Rule, 0, len(s.Rules))
	for _, spec := range s.Rules {
		r, err := RuleFromSpec(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return NewEvaluator(rules, s.HideSystemTables, log)
}

// Len returns the number of active rules.
func (e *Evaluator) Len() int {
	return len(e.rules)
}

// Apply returns the candidates left after the rules ran. Hidden candidates
// are dropped and boosted ones are re-sorted. The input is not modified.
func (e *Evaluator) Apply(ctx sqlcontext.Context, candidates []completion.Candidate) []completion.Candidate {
	if len(e.rules) == 0 {
		return candidates
	}

	base := EvalContext{
		Context:      ctx.Kind.String(),
		IsAfterDot:   ctx.IsAfterDot,
		CurrentTable: ctx.CurrentTable,
		Qualifier:    ctx.Qualifier,
		Tables:       ctx.Tables,
		Aliases:      ctx.Aliases,
	}

	out := make([]completion.Candidate, 0, len(candidates))
	boosted := false
	for _, c := range candidates {
		hidden := false
		for _, rule := range e.rules {
			ec := base
			ec.Label = c.Label
			ec.Kind = c.Kind.String()
			ec.Detail = c.Detail
			ec.Boost = c.Boost

			ok, err := e.matches(rule, c, &ec)
			if err != nil {
				e.log.Warnw("rule failed", "rule", rule.Rule.ID, "label", c.Label, "error", err)
				continue
			}
			if !ok {
				continue
			}
			if rule.Rule.GetAction() == ActionHide {
				hidden = true
				break
			}
			c.Boost += rule.Rule.Boost
			boosted = true
		}
		if !hidden {
			out = append(out, c)
		}
	}

	if boosted {
		completion.Sort(out)
	}
	return out
}

// matches reports whether rule applies to candidate c.
func (e *Evaluator) matches(rule *CompiledRule, c completion.Candidate, ctx *EvalContext) (bool, error) {
	if !rule.Rule.appliesTo(c.Kind) {
		return false, nil
	}

	var matched bool
	for _, pattern := range rule.Patterns {
		if metavars, ok := pattern.Match(c.Label); ok {
			matched = true
			ctx.Metavars = metavars
			break
		}
	}
	if !matched {
		return false, nil
	}

	if rule.ConditionProgram == nil {
		return true, nil
	}
	return evaluateCondition(rule.ConditionProgram, ctx)
}

// evaluateCondition evaluates a compiled condition expression.
func evaluateCondition(program *vm.Program, ctx *EvalContext) (bool, error) {
	result, err := expr.Run(program, conditionEnv(ctx))
	if err != nil {
		return false, err
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, errors.Newf("condition must return bool, got %T", result)
	}

	return boolResult, nil
}
