package eval

import (
	"math/big"

	"github.com/jafingerhut/p4-constraints/pkg/ast"
	"github.com/jafingerhut/p4-constraints/pkg/errs"
	"github.com/jafingerhut/p4-constraints/pkg/schema"
	"github.com/jafingerhut/p4-constraints/pkg/value"
)

// Eval recursively evaluates expr over ctx (§4.4.1). If cache is non-nil,
// every boolean-typed node's result is memoized on first visit and reused
// on subsequent visits without re-descending — this is what lets the
// minimizer run in linear time (§4.4.3, §8 property 6). A nil cache simply
// disables memoization; the returned value is identical either way (§8
// property 3).
func Eval(expr ast.Expression, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	isBool := expr.Type().Kind == ast.KindBool

	if isBool && cache != nil {
		if cached, ok := cache[expr]; ok {
			return value.Bool(cached), nil
		}
	}

	result, err := evalNode(expr, ctx, cache)
	if err != nil {
		return nil, err
	}

	if isBool {
		b, ok := result.(value.Bool)
		if !ok {
			return nil, internalErrorAt(ctx, expr, "node typed bool evaluated to %s", result.Kind())
		}

		if cache != nil {
			cache[expr] = bool(b)
		}
	}

	return result, nil
}

// EvalToBool evaluates expr and asserts that it produced a boolean result;
// any other outcome is an internal error (§4.4.2).
func EvalToBool(expr ast.Expression, ctx *EvaluationContext, cache ResultCache) (bool, error) {
	result, err := Eval(expr, ctx, cache)
	if err != nil {
		return false, err
	}

	b, ok := result.(value.Bool)
	if !ok {
		return false, internalErrorAt(ctx, expr, "expected bool result, got %s", result.Kind())
	}

	return bool(b), nil
}

// evalNode dispatches on expr's concrete node kind. It never itself reads
// or writes the cache — that is Eval's job — so that every recursive call
// into a child goes back through Eval and gets cache treatment uniformly.
func evalNode(expr ast.Expression, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.BoolLiteral:
		return value.Bool(e.Value), nil

	case *ast.IntLiteral:
		return value.NewInteger(e.Value), nil

	case *ast.Key:
		return evalKey(e, ctx)

	case *ast.ActionParameter:
		return evalActionParameter(e, ctx)

	case *ast.Attribute:
		return evalAttribute(e, ctx)

	case *ast.FieldAccess:
		return evalFieldAccess(e, ctx, cache)

	case *ast.Cast:
		// Bitwidth is not tracked at runtime (§3); evaluating a cast is an
		// identity operation over its argument (DESIGN.md Open Question 3).
		return Eval(e.Arg, ctx, cache)

	case *ast.Not:
		return evalNot(e, ctx, cache)

	case *ast.BinaryOp:
		return evalBinaryOp(e, ctx, cache)

	case *ast.Conditional:
		return evalConditional(e, ctx, cache)

	default:
		return nil, internalErrorAt(ctx, expr, "unknown AST node %T", expr)
	}
}

func evalKey(e *ast.Key, ctx *EvaluationContext) (value.Value, error) {
	if ctx.Table == nil {
		return nil, internalErrorAt(ctx, e, "key reference %q evaluated against an action binding", e.Name)
	}

	v, ok := ctx.Table.Keys[e.Name]
	if !ok {
		return nil, internalErrorAt(ctx, e, "unresolved key %q", e.Name)
	}

	return v, nil
}

func evalActionParameter(e *ast.ActionParameter, ctx *EvaluationContext) (value.Value, error) {
	if ctx.Action == nil {
		return nil, internalErrorAt(ctx, e, "parameter reference %q evaluated against a table binding", e.Name)
	}

	v, ok := ctx.Action.Params[e.Name]
	if !ok {
		return nil, internalErrorAt(ctx, e, "unresolved parameter %q", e.Name)
	}

	return v, nil
}

func evalAttribute(e *ast.Attribute, ctx *EvaluationContext) (value.Value, error) {
	if ctx.Table == nil {
		return nil, internalErrorAt(ctx, e, "attribute ::%s evaluated against an action binding", e.Name)
	}

	if _, ok := schema.AttributeInfoByName(e.Name); !ok {
		return nil, internalErrorAt(ctx, e, "unknown attribute ::%s", e.Name)
	}

	switch e.Name {
	case "priority":
		return value.NewInteger(ctx.Table.Priority), nil
	default:
		return nil, internalErrorAt(ctx, e, "unknown attribute ::%s", e.Name)
	}
}

func evalFieldAccess(e *ast.FieldAccess, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	argVal, err := Eval(e.Arg, ctx, cache)
	if err != nil {
		return nil, err
	}

	switch e.Field {
	case ast.FieldValue:
		switch v := argVal.(type) {
		case value.Exact:
			return value.NewInteger(v.Value), nil
		case value.Ternary:
			return value.NewInteger(v.Value), nil
		case value.Lpm:
			return value.NewInteger(v.Value), nil
		}
	case ast.FieldMask:
		if v, ok := argVal.(value.Ternary); ok {
			return value.NewInteger(v.Mask), nil
		}
	case ast.FieldPrefixLength:
		if v, ok := argVal.(value.Lpm); ok {
			return value.NewInteger(v.PrefixLength), nil
		}
	case ast.FieldLow:
		if v, ok := argVal.(value.Range); ok {
			return value.NewInteger(v.Low), nil
		}
	case ast.FieldHigh:
		if v, ok := argVal.(value.Range); ok {
			return value.NewInteger(v.High), nil
		}
	}

	return nil, internalErrorAt(ctx, e, "field access on %s value of kind %s", fieldName(e.Field), argVal.Kind())
}

func fieldName(f ast.Field) string {
	switch f {
	case ast.FieldValue:
		return "value"
	case ast.FieldMask:
		return "mask"
	case ast.FieldPrefixLength:
		return "prefix_length"
	case ast.FieldLow:
		return "low"
	case ast.FieldHigh:
		return "high"
	default:
		return "?"
	}
}

func evalNot(e *ast.Not, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	v, err := EvalToBool(e.Arg, ctx, cache)
	if err != nil {
		return nil, err
	}

	return value.Bool(!v), nil
}

func evalBinaryOp(e *ast.BinaryOp, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	switch e.Op {
	case ast.OpAnd:
		return evalAnd(e, ctx, cache)
	case ast.OpOr:
		return evalOr(e, ctx, cache)
	case ast.OpImplies:
		return evalImplies(e, ctx, cache)
	case ast.OpEq, ast.OpNe:
		return evalEquality(e, ctx, cache)
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return evalOrdering(e, ctx, cache)
	case ast.OpAdd, ast.OpSub:
		return evalArithmetic(e, ctx, cache)
	default:
		return nil, internalErrorAt(ctx, e, "unknown binary operator")
	}
}

// evalAnd evaluates a&&b left-to-right with short-circuiting: if the left
// operand is false, the right operand is never evaluated (§4.4.1, §5, §8
// property 2).
func evalAnd(e *ast.BinaryOp, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	left, err := EvalToBool(e.Lhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	if !left {
		return value.Bool(false), nil
	}

	right, err := EvalToBool(e.Rhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	return value.Bool(right), nil
}

// evalOr evaluates a||b left-to-right with short-circuiting: if the left
// operand is true, the right operand is never evaluated.
func evalOr(e *ast.BinaryOp, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	left, err := EvalToBool(e.Lhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	if left {
		return value.Bool(true), nil
	}

	right, err := EvalToBool(e.Rhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	return value.Bool(right), nil
}

// evalImplies evaluates a->b as !a||b with the same short-circuit
// discipline: if a is false, b is never evaluated.
func evalImplies(e *ast.BinaryOp, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	left, err := EvalToBool(e.Lhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	if !left {
		return value.Bool(true), nil
	}

	right, err := EvalToBool(e.Rhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	return value.Bool(right), nil
}

func evalEquality(e *ast.BinaryOp, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	lhs, err := Eval(e.Lhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	rhs, err := Eval(e.Rhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	// An exact key compared with an integer compares by the key's value.
	if l, ok := lhs.(value.Exact); ok && rhs.Kind() == ast.KindInteger {
		lhs = value.NewInteger(l.Value)
	}

	if r, ok := rhs.(value.Exact); ok && lhs.Kind() == ast.KindInteger {
		rhs = value.NewInteger(r.Value)
	}

	if lhs.Kind() != rhs.Kind() {
		return nil, internalErrorAt(ctx, e, "comparison between mismatched value kinds %s and %s", lhs.Kind(), rhs.Kind())
	}

	equal := lhs.Equal(rhs)
	if e.Op == ast.OpNe {
		equal = !equal
	}

	return value.Bool(equal), nil
}

func evalOrdering(e *ast.BinaryOp, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	lhs, err := evalAsInteger(e.Lhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	rhs, err := evalAsInteger(e.Rhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	cmp := lhs.Cmp(rhs)

	var result bool

	switch e.Op {
	case ast.OpLt:
		result = cmp < 0
	case ast.OpLe:
		result = cmp <= 0
	case ast.OpGt:
		result = cmp > 0
	case ast.OpGe:
		result = cmp >= 0
	}

	return value.Bool(result), nil
}

func evalArithmetic(e *ast.BinaryOp, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	lhs, err := evalAsInteger(e.Lhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	rhs, err := evalAsInteger(e.Rhs, ctx, cache)
	if err != nil {
		return nil, err
	}

	result := new(big.Int)

	switch e.Op {
	case ast.OpAdd:
		result.Add(lhs, rhs)
	case ast.OpSub:
		result.Sub(lhs, rhs)
	}

	return value.NewInteger(result), nil
}

// evalAsInteger evaluates expr and asserts the result is an Integer —
// ordering comparisons and arithmetic are defined only on integer operands
// (§4.4.1); anything else indicates a type-checker bug.
func evalAsInteger(expr ast.Expression, ctx *EvaluationContext, cache ResultCache) (*big.Int, error) {
	v, err := Eval(expr, ctx, cache)
	if err != nil {
		return nil, err
	}

	i, ok := v.(value.Integer)
	if !ok {
		return nil, internalErrorAt(ctx, expr, "expected integer operand, got %s", v.Kind())
	}

	return i.Int, nil
}

func evalConditional(e *ast.Conditional, ctx *EvaluationContext, cache ResultCache) (value.Value, error) {
	cond, err := EvalToBool(e.Cond, ctx, cache)
	if err != nil {
		return nil, err
	}

	if cond {
		return Eval(e.Then, ctx, cache)
	}

	return Eval(e.Else, ctx, cache)
}

// internalErrorAt builds an *errs.InternalError located at expr's span,
// quoting it against ctx's constraint source when available (§4.4.1, §7).
func internalErrorAt(ctx *EvaluationContext, expr ast.Expression, format string, args ...any) error {
	if ctx == nil || ctx.Source == nil || ctx.Source.Text == nil {
		return errs.NewInternalError(format, args...)
	}

	return errs.NewInternalErrorAt(ctx.Source.Text, expr.Span(), format, args...)
}
