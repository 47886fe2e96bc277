package dsl

import (
	"maps"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Compiler compiles DSL rules for efficient evaluation.
type Compiler struct {
	patternCompiler *PatternCompiler
	programCache    sync.Map // map[string]*vm.Program
}

// CompiledRule is a rule ready for evaluation.
type CompiledRule struct {
	Rule             *Rule
	Patterns         []*CompiledPattern
	ConditionProgram *vm.Program
}

// NewCompiler creates a new rule compiler.
func NewCompiler() *Compiler {
	return &Compiler{
		patternCompiler: NewPatternCompiler(),
	}
}

// Compile compiles a single rule.
func (c *Compiler) Compile(rule *Rule) (*CompiledRule, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	patterns, err := c.patternCompiler.CompilePatterns(rule.GetPatterns())
	if err != nil {
		return nil, errors.Wrapf(err, "rule %q", rule.ID)
	}

	var condProgram *vm.Program
	if rule.When != "" {
		condProgram, err = c.compileCondition(rule.When)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q condition", rule.ID)
		}
	}

	return &CompiledRule{
		Rule:             rule,
		Patterns:         patterns,
		ConditionProgram: condProgram,
	}, nil
}

// CompileRules compiles rules in order. The first failure aborts.
func (c *Compiler) CompileRules(rules []Rule) ([]*CompiledRule, error) {
	compiled := make([]*CompiledRule, 0, len(rules))
	for i := range rules {
		cr, err := c.Compile(&rules[i])
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cr)
	}
	return compiled, nil
}

// compileCondition compiles a condition expression.
func (c *Compiler) compileCondition(condition string) (*vm.Program, error) {
	if cached, ok := c.programCache.Load(condition); ok {
		return cached.(*vm.Program), nil
	}

	program, err := expr.Compile(condition,
		expr.Env(conditionEnv(&EvalContext{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	c.programCache.Store(condition, program)
	return program, nil
}

// ClearCache clears the compiled program cache.
func (c *Compiler) ClearCache() {
	c.programCache.Clear()
}

// conditionEnv builds the variables and functions visible to a condition.
func conditionEnv(ctx *EvalContext) map[string]any {
	tables := ctx.Tables
	if tables == nil {
		tables = []string{}
	}
	aliases := ctx.Aliases
	if aliases == nil {
		aliases = map[string]string{}
	}
	metavars := ctx.Metavars
	if metavars == nil {
		metavars = map[string]string{}
	}

	env := map[string]any{
		"label":  ctx.Label,
		"kind":   ctx.Kind,
		"detail": ctx.Detail,
		"boost":  ctx.Boost,

		"context":       ctx.Context,
		"is_after_dot":  ctx.IsAfterDot,
		"current_table": ctx.CurrentTable,
		"qualifier":     ctx.Qualifier,
		"tables":        tables,
		"aliases":       aliases,

		"metavars": metavars,
	}
	maps.Copy(env, BuiltinFunctions)
	return env
}
