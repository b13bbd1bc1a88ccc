// Package eval implements the constraint evaluator and minimizer (spec.md
// §4.4): Eval, EvalToBool, the minimal-subexpression explanation search,
// and the ReasonEntryViolatesConstraint entry point that ties the schema
// registry, binder, and evaluator together.
package eval

import (
	"github.com/jafingerhut/p4-constraints/pkg/ast"
	"github.com/jafingerhut/p4-constraints/pkg/binder"
	"github.com/jafingerhut/p4-constraints/pkg/schema"
)

// EvaluationContext is a binding plus a borrowed reference to the
// constraint's source text, used only for diagnostics (§3). Read-only
// throughout a single evaluation. Exactly one of Table/Action is non-nil.
type EvaluationContext struct {
	Table  *binder.TableBinding
	Action *binder.ActionBinding
	Source *schema.ConstraintSource
}

// NewTableContext constructs an evaluation context for a table binding.
func NewTableContext(binding *binder.TableBinding, source *schema.ConstraintSource) *EvaluationContext {
	return &EvaluationContext{Table: binding, Source: source}
}

// NewActionContext constructs an evaluation context for an action binding.
func NewActionContext(binding *binder.ActionBinding, source *schema.ConstraintSource) *EvaluationContext {
	return &EvaluationContext{Action: binding, Source: source}
}

// ResultCache memoizes the boolean result of every boolean-typed AST node
// visited during an evaluation, keyed on node identity (§3, §4.4.1). Empty
// at the start of each top-level call, discarded afterward. A nil cache
// disables memoization (§8 property 3: behaviour is unaffected either way).
type ResultCache map[ast.Expression]bool

// SizeCache memoizes the node count of each subtree visited by the
// minimizer, keyed on node identity (§3, §4.4.3). Defined as
// 1 + sum(children sizes).
type SizeCache map[ast.Expression]int

// NewResultCache constructs an empty result cache.
func NewResultCache() ResultCache { return make(ResultCache) }

// NewSizeCache constructs an empty size cache.
func NewSizeCache() SizeCache { return make(SizeCache) }
