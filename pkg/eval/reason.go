package eval

import (
	"fmt"

	"github.com/jafingerhut/p4-constraints/pkg/ast"
	"github.com/jafingerhut/p4-constraints/pkg/binder"
	"github.com/jafingerhut/p4-constraints/pkg/errs"
	"github.com/jafingerhut/p4-constraints/pkg/schema"
)

// ReasonEntryViolatesConstraint is the top-level entry point (§4.5): it
// binds entry against info's schema, evaluates the table's constraint, and
// if the constraint is violated, returns a human-readable message quoting
// the minimal subexpression responsible. Returns ("", nil) if the table has
// no constraint or the entry satisfies it.
func ReasonEntryViolatesConstraint(entry binder.WireTableEntry, info *schema.ConstraintInfo) (string, error) {
	table := info.TableByID(entry.TableID)
	if table == nil {
		return "", errs.NewInputError("no table with id %d", entry.TableID)
	}

	if table.Constraint == nil {
		return "", nil
	}

	binding, err := binder.ParseTableEntry(entry, table)
	if err != nil {
		return "", err
	}

	ctx := NewTableContext(binding, &table.ConstraintSource)

	return reasonAgainstConstraint(table.Constraint, ctx)
}

// ReasonActionViolatesConstraint mirrors ReasonEntryViolatesConstraint for
// action invocations (§4.5).
func ReasonActionViolatesConstraint(action binder.WireAction, info *schema.ConstraintInfo) (string, error) {
	actionInfo := info.ActionByID(action.ActionID)
	if actionInfo == nil {
		return "", errs.NewInputError("no action with id %d", action.ActionID)
	}

	if actionInfo.Constraint == nil {
		return "", nil
	}

	binding, err := binder.ParseAction(action, actionInfo)
	if err != nil {
		return "", err
	}

	ctx := NewActionContext(binding, &actionInfo.ConstraintSource)

	return reasonAgainstConstraint(actionInfo.Constraint, ctx)
}

// reasonAgainstConstraint evaluates constraint under ctx and, on violation,
// locates and quotes the minimal deciding subexpression (§4.4.3).
func reasonAgainstConstraint(constraint ast.Expression, ctx *EvaluationContext) (string, error) {
	results := NewResultCache()

	satisfied, err := EvalToBool(constraint, ctx, results)
	if err != nil {
		return "", err
	}

	if satisfied {
		return "", nil
	}

	sizes := NewSizeCache()
	culprit := MinimalSubexpressionLeadingToEvalResult(constraint, false, results, sizes)

	return formatViolation(culprit, ctx), nil
}

// formatViolation renders the diagnostic message for culprit, quoting its
// source span against ctx's constraint text when available (§4.5 step 5:
// wording is the caller's; the core's contract is to locate and quote the
// deciding subexpression).
func formatViolation(culprit ast.Expression, ctx *EvaluationContext) string {
	if ctx.Source == nil || ctx.Source.Text == nil {
		return fmt.Sprintf("constraint violated by %s", ast.String(culprit))
	}

	line := ctx.Source.Text.FindFirstEnclosingLine(culprit.Span())
	col := ctx.Source.Text.Column(culprit.Span().Start())
	quote := ctx.Source.Text.Quote(culprit.Span())

	return fmt.Sprintf("constraint violated by %q at %d:%d", quote, line.Number(), col)
}
