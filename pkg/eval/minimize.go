package eval

import "github.com/jafingerhut/p4-constraints/pkg/ast"

// Size returns the number of AST nodes in expr's subtree, memoizing through
// cache (§4.4.3). Defined as 1 + sum(children sizes).
func Size(expr ast.Expression, cache SizeCache) int {
	if cache != nil {
		if n, ok := cache[expr]; ok {
			return n
		}
	}

	total := 1
	for _, child := range expr.Children() {
		total += Size(child, cache)
	}

	if cache != nil {
		cache[expr] = total
	}

	return total
}

// MinimalSubexpressionLeadingToEvalResult descends from expr, which must
// evaluate to target under ctx, to the smallest subexpression that by
// itself determines that result (§4.4.3). It relies on result being fully
// populated by a prior top-level Eval/EvalToBool call over the same ctx —
// it never evaluates a node that was not already visited, and never
// evaluates a node the original pass short-circuited past, so cache lookups
// here always hit for boolean nodes actually visited (§8 property 6).
//
// Two equally small candidate subexpressions may exist (e.g. a||b where
// both sides are true); in that case the leftmost one that was visited
// during evaluation is preferred, matching the order evalOr/evalAnd/
// evalImplies visit their operands.
func MinimalSubexpressionLeadingToEvalResult(
	expr ast.Expression,
	target bool,
	results ResultCache,
	sizes SizeCache,
) ast.Expression {
	switch e := expr.(type) {
	case *ast.Not:
		return MinimalSubexpressionLeadingToEvalResult(e.Arg, !target, results, sizes)

	case *ast.BinaryOp:
		if e.Op.IsConnective() {
			if m := minimizeConnective(e, target, results, sizes); m != nil {
				return m
			}
		}

	case *ast.Conditional:
		cond, ok := results[e.Cond]
		if ok {
			branch := e.Else
			if cond {
				branch = e.Then
			}

			return smaller(
				MinimalSubexpressionLeadingToEvalResult(e.Cond, cond, results, sizes),
				MinimalSubexpressionLeadingToEvalResult(branch, target, results, sizes),
				sizes,
			)
		}
	}

	return expr
}

// minimizeConnective implements the descent rules for &&, ||, and -> (§4.4.3
// table). All three are read left-to-right and evaluated short-circuit, so
// whenever the left operand alone determines the result, the right operand
// was never visited and cannot be cited; the rule below always descends
// into the single operand that alone determined target, and only asks
// smaller() to choose between the two operands in the one case each
// connective actually requires both of them to agree (§8 properties 4/5).
func minimizeConnective(e *ast.BinaryOp, target bool, results ResultCache, sizes SizeCache) ast.Expression {
	lhs, lhsKnown := results[e.Lhs]
	_, rhsKnown := results[e.Rhs]

	if !lhsKnown {
		return nil
	}

	switch e.Op {
	case ast.OpAnd:
		// a&&b==target. false results from whichever operand is false
		// (short-circuiting the other); true requires both true.
		if !target {
			if !lhs {
				return MinimalSubexpressionLeadingToEvalResult(e.Lhs, false, results, sizes)
			}

			return MinimalSubexpressionLeadingToEvalResult(e.Rhs, false, results, sizes)
		}

		if rhsKnown {
			return smaller(
				MinimalSubexpressionLeadingToEvalResult(e.Lhs, true, results, sizes),
				MinimalSubexpressionLeadingToEvalResult(e.Rhs, true, results, sizes),
				sizes,
			)
		}

	case ast.OpOr:
		// a||b==target. true results from whichever operand is true
		// (short-circuiting the other); false requires both false.
		if target {
			if lhs {
				return MinimalSubexpressionLeadingToEvalResult(e.Lhs, true, results, sizes)
			}

			return MinimalSubexpressionLeadingToEvalResult(e.Rhs, true, results, sizes)
		}

		if rhsKnown {
			return smaller(
				MinimalSubexpressionLeadingToEvalResult(e.Lhs, false, results, sizes),
				MinimalSubexpressionLeadingToEvalResult(e.Rhs, false, results, sizes),
				sizes,
			)
		}

	case ast.OpImplies:
		// a->b==!a||b==target. true results either vacuously (a false, b
		// never evaluated) or from b being true; false requires a true and
		// b false, both evaluated.
		if target {
			if !lhs {
				return MinimalSubexpressionLeadingToEvalResult(e.Lhs, false, results, sizes)
			}

			return MinimalSubexpressionLeadingToEvalResult(e.Rhs, true, results, sizes)
		}

		if rhsKnown {
			return smaller(
				MinimalSubexpressionLeadingToEvalResult(e.Lhs, true, results, sizes),
				MinimalSubexpressionLeadingToEvalResult(e.Rhs, false, results, sizes),
				sizes,
			)
		}
	}

	return nil
}

// smaller returns whichever of a/b has fewer AST nodes, preferring a on a
// tie (it is always the left-to-right-earlier operand at the call site).
func smaller(a, b ast.Expression, sizes SizeCache) ast.Expression {
	if Size(b, sizes) < Size(a, sizes) {
		return b
	}

	return a
}
