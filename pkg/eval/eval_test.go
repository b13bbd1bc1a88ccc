package eval

import (
	"math/big"
	"testing"

	"github.com/jafingerhut/p4-constraints/pkg/ast"
	"github.com/jafingerhut/p4-constraints/pkg/binder"
	"github.com/jafingerhut/p4-constraints/pkg/schema"
	"github.com/jafingerhut/p4-constraints/pkg/source"
	"github.com/jafingerhut/p4-constraints/pkg/value"
	"github.com/stretchr/testify/assert"
)

var noSpan = source.NewSpan(0, 0)

func key(name string, typ ast.Type) *ast.Key           { return ast.NewKey(noSpan, typ, name) }
func param(name string, typ ast.Type) *ast.ActionParameter { return ast.NewActionParameter(noSpan, typ, name) }
func attr(name string, typ ast.Type) *ast.Attribute     { return ast.NewAttribute(noSpan, typ, name) }
func intLit(i int64) *ast.IntLiteral                    { return ast.NewIntLiteral(noSpan, big.NewInt(i)) }
func cmp(op ast.BinOp, lhs, rhs ast.Expression) *ast.BinaryOp {
	return ast.NewBinaryOp(noSpan, ast.Bool, op, lhs, rhs)
}
func arith(op ast.BinOp, typ ast.Type, lhs, rhs ast.Expression) *ast.BinaryOp {
	return ast.NewBinaryOp(noSpan, typ, op, lhs, rhs)
}
func fieldOf(arg ast.Expression, f ast.Field) *ast.FieldAccess { return ast.NewFieldAccess(noSpan, arg, f) }

// scenario 1/2 schema: table T, exact key k:bit<8>, with the constraint under
// test (supplied per test) attached to the table.
func exactKeyTable(constraint ast.Expression) *schema.TableInfo {
	info, err := schema.Build([]schema.TableMetadata{
		{
			ID:         1,
			Name:       "T",
			Keys:       []schema.KeyMetadata{{ID: 1, Name: "k", Kind: schema.Exact, BitWidth: 8}},
			Constraint: constraint,
		},
	}, nil)
	if err != nil {
		panic(err)
	}

	return info.TableByID(1)
}

// scenarios 3/4/5 schema: table T, ternary key t:bit<8>, built-in priority.
func ternaryKeyTable(constraint ast.Expression) *schema.TableInfo {
	info, err := schema.Build([]schema.TableMetadata{
		{
			ID:         1,
			Name:       "T",
			Keys:       []schema.KeyMetadata{{ID: 1, Name: "t", Kind: schema.Ternary, BitWidth: 8}},
			Constraint: constraint,
		},
	}, nil)
	if err != nil {
		panic(err)
	}

	return info.TableByID(1)
}

// scenarios 6/7 schema: action A, params p:bit<16>, q:bit<16>.
func actionPQ(constraint ast.Expression) *schema.ActionInfo {
	info, err := schema.Build(nil, []schema.ActionMetadata{
		{
			ID:   1,
			Name: "A",
			Params: []schema.ParamMetadata{
				{ID: 1, Name: "p", BitWidth: 16},
				{ID: 2, Name: "q", BitWidth: 16},
			},
			Constraint: constraint,
		},
	})
	if err != nil {
		panic(err)
	}

	return info.ActionByID(1)
}

func mustBind(t *testing.T, entry binder.WireTableEntry, table *schema.TableInfo) *EvaluationContext {
	t.Helper()

	binding, err := binder.ParseTableEntry(entry, table)
	assert.NoError(t, err)

	return NewTableContext(binding, &table.ConstraintSource)
}

func mustBindAction(t *testing.T, action binder.WireAction, info *schema.ActionInfo) *EvaluationContext {
	t.Helper()

	binding, err := binder.ParseAction(action, info)
	assert.NoError(t, err)

	return NewActionContext(binding, &info.ConstraintSource)
}

// Scenario 1: k==5, entry k=5 -> satisfied.
func TestScenario1ExactMatchSatisfied(t *testing.T) {
	constraint := cmp(ast.OpEq, key("k", ast.MatchType(ast.KindExact, 8)), intLit(5))
	table := exactKeyTable(constraint)

	ctx := mustBind(t, binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, table)

	ok, err := EvalToBool(constraint, ctx, NewResultCache())
	assert.NoError(t, err)
	assert.True(t, ok)
}

// Scenario 2: k==6, entry k=5 -> violated; minimizer returns the whole
// comparison (it has no connective structure to descend into).
func TestScenario2ExactMatchViolated(t *testing.T) {
	constraint := cmp(ast.OpEq, key("k", ast.MatchType(ast.KindExact, 8)), intLit(6))
	table := exactKeyTable(constraint)

	ctx := mustBind(t, binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, table)

	results := NewResultCache()
	ok, err := EvalToBool(constraint, ctx, results)
	assert.NoError(t, err)
	assert.False(t, ok)

	culprit := MinimalSubexpressionLeadingToEvalResult(constraint, false, results, NewSizeCache())
	assert.Same(t, ast.Expression(constraint), culprit)
}

func ternaryPriorityConstraint() (*ast.BinaryOp, *ast.BinaryOp, *ast.BinaryOp) {
	ternaryType := ast.MatchType(ast.KindTernary, 8)
	lhs := cmp(ast.OpNe, fieldOf(key("t", ternaryType), ast.FieldMask), intLit(0))
	rhs := cmp(ast.OpGt, attr("priority", ast.Integer), intLit(0))
	implies := cmp(ast.OpImplies, lhs, rhs)

	return implies, lhs, rhs
}

// Scenario 3: t=(0x0F,0xFF), priority=10 -> both sides true, satisfied.
func TestScenario3ImplicationSatisfied(t *testing.T) {
	implies, _, _ := ternaryPriorityConstraint()
	table := ternaryKeyTable(implies)

	ctx := mustBind(t, binder.WireTableEntry{
		TableID:  1,
		Priority: 10,
		Match: []binder.WireMatchField{
			{FieldID: 1, Ternary: &binder.WireTernaryValue{Value: []byte{0x0F}, Mask: []byte{0xFF}}},
		},
	}, table)

	ok, err := EvalToBool(implies, ctx, NewResultCache())
	assert.NoError(t, err)
	assert.True(t, ok)
}

// Scenario 4: t=(0,0), priority=0 -> vacuously true; minimizer (asked to
// explain the true verdict) returns the whole left operand `t::mask != 0`.
func TestScenario4ImplicationVacuouslyTrue(t *testing.T) {
	implies, lhs, rhs := ternaryPriorityConstraint()
	table := ternaryKeyTable(implies)

	ctx := mustBind(t, binder.WireTableEntry{
		TableID:  1,
		Priority: 0,
		Match: []binder.WireMatchField{
			{FieldID: 1, Ternary: &binder.WireTernaryValue{Value: []byte{0x00}, Mask: []byte{0x00}}},
		},
	}, table)

	results := NewResultCache()
	ok, err := EvalToBool(implies, ctx, results)
	assert.NoError(t, err)
	assert.True(t, ok)

	decider := MinimalSubexpressionLeadingToEvalResult(implies, true, results, NewSizeCache())
	assert.Same(t, ast.Expression(lhs), decider)

	// the right operand was short-circuited away and must carry no cache
	// entry (§4.4.1: "its cache entry may remain absent").
	_, cached := results[rhs]
	assert.False(t, cached)
}

// Scenario 5: t=(0x0F,0xFF), priority=0 -> violated; minimizer returns the
// smaller of the two evaluated operands, `::priority > 0`.
func TestScenario5ImplicationViolated(t *testing.T) {
	implies, _, rhs := ternaryPriorityConstraint()
	table := ternaryKeyTable(implies)

	ctx := mustBind(t, binder.WireTableEntry{
		TableID:  1,
		Priority: 0,
		Match: []binder.WireMatchField{
			{FieldID: 1, Ternary: &binder.WireTernaryValue{Value: []byte{0x0F}, Mask: []byte{0xFF}}},
		},
	}, table)

	results := NewResultCache()
	ok, err := EvalToBool(implies, ctx, results)
	assert.NoError(t, err)
	assert.False(t, ok)

	culprit := MinimalSubexpressionLeadingToEvalResult(implies, false, results, NewSizeCache())
	assert.Same(t, ast.Expression(rhs), culprit)
}

func sumEqualsSevenAnd(op ast.BinOp) (*ast.BinaryOp, *ast.BinaryOp, *ast.BinaryOp) {
	intType := ast.MatchType(ast.KindInteger, 16)
	sum := arith(ast.OpAdd, intType, param("p", intType), param("q", intType))
	lhs := cmp(ast.OpEq, sum, intLit(7))
	rhs := cmp(op, param("p", intType), param("q", intType))
	and := cmp(ast.OpAnd, lhs, rhs)

	return and, lhs, rhs
}

// Scenario 6: p=3, q=4 -> p+q==7 && p<q, both true, satisfied.
func TestScenario6ActionConstraintSatisfied(t *testing.T) {
	and, _, _ := sumEqualsSevenAnd(ast.OpLt)
	info := actionPQ(and)

	ctx := mustBindAction(t, binder.WireAction{
		ActionID: 1,
		Params: []binder.WireParam{
			{ParamID: 1, Value: []byte{0x00, 0x03}},
			{ParamID: 2, Value: []byte{0x00, 0x04}},
		},
	}, info)

	ok, err := EvalToBool(and, ctx, NewResultCache())
	assert.NoError(t, err)
	assert.True(t, ok)
}

// Scenario 7: p=3, q=4 -> p+q==7 && p>q; left operand true, right false;
// minimizer returns the right operand alone (`p > q`, size 3) since it is
// the sole decider of the AND's falsity — the true left operand is never a
// candidate.
func TestScenario7ActionConstraintViolated(t *testing.T) {
	and, _, rhs := sumEqualsSevenAnd(ast.OpGt)
	info := actionPQ(and)

	ctx := mustBindAction(t, binder.WireAction{
		ActionID: 1,
		Params: []binder.WireParam{
			{ParamID: 1, Value: []byte{0x00, 0x03}},
			{ParamID: 2, Value: []byte{0x00, 0x04}},
		},
	}, info)

	results := NewResultCache()
	ok, err := EvalToBool(and, ctx, results)
	assert.NoError(t, err)
	assert.False(t, ok)

	culprit := MinimalSubexpressionLeadingToEvalResult(and, false, results, NewSizeCache())
	assert.Same(t, ast.Expression(rhs), culprit)
	assert.Equal(t, 3, Size(culprit, NewSizeCache()))
}

// Universal property 2: substituting the dropped operand of a short-circuit
// connective must not change the verdict, because it is never evaluated.
func TestShortCircuitSoundness(t *testing.T) {
	kType := ast.MatchType(ast.KindExact, 8)
	falseLhs := cmp(ast.OpEq, key("k", kType), intLit(99))

	// the right operand is the integer-typed attribute ::priority, which is
	// not a boolean — if it were ever evaluated as the AND's operand,
	// EvalToBool would return an internal error.
	poisoned := attr("priority", ast.Integer)
	and := cmp(ast.OpAnd, falseLhs, poisoned)

	table := exactKeyTable(and)
	ctx := mustBind(t, binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, table)

	ok, err := EvalToBool(and, ctx, NewResultCache())
	assert.NoError(t, err)
	assert.False(t, ok)
}

// Universal property 3: cache-enabled and cache-disabled evaluation agree.
func TestCacheTransparency(t *testing.T) {
	implies, _, _ := ternaryPriorityConstraint()
	table := ternaryKeyTable(implies)

	entry := binder.WireTableEntry{
		TableID:  1,
		Priority: 0,
		Match: []binder.WireMatchField{
			{FieldID: 1, Ternary: &binder.WireTernaryValue{Value: []byte{0x0F}, Mask: []byte{0xFF}}},
		},
	}

	cachedCtx := mustBind(t, entry, table)
	withCache, err := EvalToBool(implies, cachedCtx, NewResultCache())
	assert.NoError(t, err)

	uncachedCtx := mustBind(t, entry, table)
	withoutCache, err := EvalToBool(implies, uncachedCtx, nil)
	assert.NoError(t, err)

	assert.Equal(t, withCache, withoutCache)
}

// Universal property 7: an omitted ternary field binds to the wildcard, and
// its mask evaluates equal to 0.
func TestWildcardCompletion(t *testing.T) {
	table := ternaryKeyTable(nil)
	ctx := mustBind(t, binder.WireTableEntry{TableID: 1}, table)

	tv := ctx.Table.Keys["t"].(value.Ternary)
	assert.True(t, tv.IsWildcard())

	fieldEqZero := cmp(ast.OpEq, fieldOf(key("t", ast.MatchType(ast.KindTernary, 8)), ast.FieldMask), intLit(0))
	ok, err := EvalToBool(fieldEqZero, ctx, NewResultCache())
	assert.NoError(t, err)
	assert.True(t, ok)
}

// Universal property 8: omitting a required exact key is an input error,
// not a constraint failure.
func TestExactPresenceRequired(t *testing.T) {
	table := exactKeyTable(nil)

	_, err := binder.ParseTableEntry(binder.WireTableEntry{TableID: 1}, table)
	assert.Error(t, err)
}

// Universal property 4/5: replacing the culprit's value flips the root, and
// no smaller connective-structured subexpression could also serve.
func TestMinimizerSoundnessAndMinimality(t *testing.T) {
	and, _, rhs := sumEqualsSevenAnd(ast.OpGt)
	info := actionPQ(and)

	ctx := mustBindAction(t, binder.WireAction{
		ActionID: 1,
		Params: []binder.WireParam{
			{ParamID: 1, Value: []byte{0x00, 0x03}},
			{ParamID: 2, Value: []byte{0x00, 0x04}},
		},
	}, info)

	results := NewResultCache()
	ok, err := EvalToBool(and, ctx, results)
	assert.NoError(t, err)
	assert.False(t, ok)

	culprit := MinimalSubexpressionLeadingToEvalResult(and, false, results, NewSizeCache())
	assert.Same(t, ast.Expression(rhs), culprit)

	// culprit itself is a plain comparison, not a connective: the descent
	// rule has nowhere smaller to go, so this is already minimal.
	assert.False(t, rhs.Op.IsConnective())
}

func TestFieldAccessMismatchedKindIsInternalError(t *testing.T) {
	exactType := ast.MatchType(ast.KindExact, 8)
	constraint := cmp(ast.OpNe, fieldOf(key("k", exactType), ast.FieldMask), intLit(0))
	table := exactKeyTable(constraint)

	ctx := mustBind(t, binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, table)

	_, err := EvalToBool(constraint, ctx, NewResultCache())
	assert.Error(t, err)
}

func TestAttributeAccessAgainstActionBindingIsInternalError(t *testing.T) {
	constraint := cmp(ast.OpGt, attr("priority", ast.Integer), intLit(0))
	info := actionPQ(constraint)

	ctx := mustBindAction(t, binder.WireAction{
		ActionID: 1,
		Params: []binder.WireParam{
			{ParamID: 1, Value: []byte{0x00, 0x00}},
			{ParamID: 2, Value: []byte{0x00, 0x00}},
		},
	}, info)

	_, err := EvalToBool(constraint, ctx, NewResultCache())
	assert.Error(t, err)
}

func TestConditionalEvaluatesExactlyOneBranch(t *testing.T) {
	exactType := ast.MatchType(ast.KindExact, 8)
	cond := cmp(ast.OpEq, key("k", exactType), intLit(5))
	// the else branch is the integer-typed attribute ::priority, which would
	// make this bool-typed conditional an internal error if it were
	// evaluated; it must never be evaluated when cond is true.
	els := attr("priority", ast.Integer)
	conditional := ast.NewConditional(noSpan, ast.Bool, cond, ast.NewBoolLiteral(noSpan, true), els)

	table := exactKeyTable(conditional)
	ctx := mustBind(t, binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, table)

	ok, err := EvalToBool(conditional, ctx, NewResultCache())
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestReasonEntryViolatesConstraintFormatsMessage(t *testing.T) {
	constraint := cmp(ast.OpEq, key("k", ast.MatchType(ast.KindExact, 8)), intLit(6))
	info, err := schema.Build([]schema.TableMetadata{
		{
			ID:               1,
			Name:             "T",
			Keys:             []schema.KeyMetadata{{ID: 1, Name: "k", Kind: schema.Exact, BitWidth: 8}},
			Constraint:       constraint,
			ConstraintSource: "k == 6",
		},
	}, nil)
	assert.NoError(t, err)

	msg, err := ReasonEntryViolatesConstraint(binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, info)
	assert.NoError(t, err)
	assert.NotEmpty(t, msg)
}

func TestReasonEntryViolatesConstraintSatisfiedIsEmpty(t *testing.T) {
	constraint := cmp(ast.OpEq, key("k", ast.MatchType(ast.KindExact, 8)), intLit(5))
	info, err := schema.Build([]schema.TableMetadata{
		{
			ID:               1,
			Name:             "T",
			Keys:             []schema.KeyMetadata{{ID: 1, Name: "k", Kind: schema.Exact, BitWidth: 8}},
			Constraint:       constraint,
			ConstraintSource: "k == 5",
		},
	}, nil)
	assert.NoError(t, err)

	msg, err := ReasonEntryViolatesConstraint(binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, info)
	assert.NoError(t, err)
	assert.Empty(t, msg)
}

func TestReasonEntryViolatesConstraintNoSuchTableIsInputError(t *testing.T) {
	info, err := schema.Build(nil, nil)
	assert.NoError(t, err)

	_, err = ReasonEntryViolatesConstraint(binder.WireTableEntry{TableID: 42}, info)
	assert.Error(t, err)
}

func TestReasonEntryViolatesConstraintNoConstraintIsEmpty(t *testing.T) {
	table := exactKeyTable(nil)
	info := &schema.ConstraintInfo{TablesByID: map[uint32]*schema.TableInfo{1: table}, ActionsByID: map[uint32]*schema.ActionInfo{}}

	msg, err := ReasonEntryViolatesConstraint(binder.WireTableEntry{
		TableID: 1,
		Match:   []binder.WireMatchField{{FieldID: 1, Exact: &binder.WireExactValue{Value: []byte{5}}}},
	}, info)
	assert.NoError(t, err)
	assert.Empty(t, msg)
}
