package ast

import (
	"math/big"

	"github.com/jafingerhut/p4-constraints/pkg/source"
)

// Expression is a node of the constraint AST, as produced by the external
// parser/type-checker (§6). Every node carries its source span (for
// diagnostics) and its statically inferred Type. Children exposes the
// node's immediate subexpressions so pkg/eval can compute subtree sizes and
// the minimizer can walk the tree without a per-kind switch at every call
// site — only the places that actually need kind-specific behaviour (Eval,
// the minimizer's descent rule) switch on concrete type.
type Expression interface {
	Span() source.Span
	Type() Type
	Children() []Expression
}

type base struct {
	span source.Span
	typ  Type
}

// Span implements Expression.
func (b *base) Span() source.Span { return b.span }

// Type implements Expression.
func (b *base) Type() Type { return b.typ }

// ============================================================================
// Literals
// ============================================================================

// BoolLiteral is a boolean constant.
type BoolLiteral struct {
	base
	Value bool
}

// NewBoolLiteral constructs a boolean literal node.
func NewBoolLiteral(span source.Span, value bool) *BoolLiteral {
	return &BoolLiteral{base{span, Bool}, value}
}

// Children implements Expression.
func (e *BoolLiteral) Children() []Expression { return nil }

// IntLiteral is an arbitrary-precision integer constant.
type IntLiteral struct {
	base
	Value *big.Int
}

// NewIntLiteral constructs an integer literal node.
func NewIntLiteral(span source.Span, value *big.Int) *IntLiteral {
	return &IntLiteral{base{span, Integer}, value}
}

// Children implements Expression.
func (e *IntLiteral) Children() []Expression { return nil }

// ============================================================================
// References
// ============================================================================

// Key is a reference to a table match key by name, e.g. `hdr.ipv4.dst`.
// Resolved against a table binding (§4.4.1).
type Key struct {
	base
	Name string
}

// NewKey constructs a key-reference node.
func NewKey(span source.Span, typ Type, name string) *Key {
	return &Key{base{span, typ}, name}
}

// Children implements Expression.
func (e *Key) Children() []Expression { return nil }

// ActionParameter is a reference to an action parameter by name. Resolved
// against an action binding (§4.4.1).
type ActionParameter struct {
	base
	Name string
}

// NewActionParameter constructs an action-parameter-reference node.
func NewActionParameter(span source.Span, typ Type, name string) *ActionParameter {
	return &ActionParameter{base{span, typ}, name}
}

// Children implements Expression.
func (e *ActionParameter) Children() []Expression { return nil }

// Attribute is a reference to a built-in table entry attribute, e.g.
// `::priority`. Only valid against a table binding.
type Attribute struct {
	base
	Name string
}

// NewAttribute constructs an attribute-access node.
func NewAttribute(span source.Span, typ Type, name string) *Attribute {
	return &Attribute{base{span, typ}, name}
}

// Children implements Expression.
func (e *Attribute) Children() []Expression { return nil }

// ============================================================================
// Field access on a match value
// ============================================================================

// Field identifies which component of a match-key value a FieldAccess node
// reads.
type Field uint8

const (
	// FieldValue reads .value (valid on Exact, Ternary, Lpm).
	FieldValue Field = iota
	// FieldMask reads .mask (valid on Ternary only).
	FieldMask
	// FieldPrefixLength reads .prefix_length (valid on Lpm only).
	FieldPrefixLength
	// FieldLow reads .low (valid on Range only).
	FieldLow
	// FieldHigh reads .high (valid on Range only).
	FieldHigh
)

// FieldAccess reads a named integer component out of a match-key-shaped
// value, e.g. `t::mask` or `r::low`.
type FieldAccess struct {
	base
	Arg   Expression
	Field Field
}

// NewFieldAccess constructs a field-access node.
func NewFieldAccess(span source.Span, arg Expression, field Field) *FieldAccess {
	return &FieldAccess{base{span, Integer}, arg, field}
}

// Children implements Expression.
func (e *FieldAccess) Children() []Expression { return []Expression{e.Arg} }

// ============================================================================
// Cast
// ============================================================================

// Cast represents a type-cast node from the external type-checker's AST
// (§6). Bitwidth is not tracked at runtime (§3), so evaluating a Cast is an
// identity operation over its argument; see DESIGN.md Open Question 3.
type Cast struct {
	base
	Arg Expression
}

// NewCast constructs a cast node with the target type.
func NewCast(span source.Span, typ Type, arg Expression) *Cast {
	return &Cast{base{span, typ}, arg}
}

// Children implements Expression.
func (e *Cast) Children() []Expression { return []Expression{e.Arg} }

// ============================================================================
// Unary / binary operators
// ============================================================================

// Not is logical negation.
type Not struct {
	base
	Arg Expression
}

// NewNot constructs a negation node.
func NewNot(span source.Span, arg Expression) *Not {
	return &Not{base{span, Bool}, arg}
}

// Children implements Expression.
func (e *Not) Children() []Expression { return []Expression{e.Arg} }

// BinOp identifies the operator of a BinaryOp node.
type BinOp uint8

const (
	// OpEq is structural equality (=).
	OpEq BinOp = iota
	// OpNe is structural inequality (!=).
	OpNe
	// OpLt is less-than (<), defined on integer operands only.
	OpLt
	// OpLe is less-than-or-equal (<=).
	OpLe
	// OpGt is greater-than (>).
	OpGt
	// OpGe is greater-than-or-equal (>=).
	OpGe
	// OpAdd is integer addition (+).
	OpAdd
	// OpSub is integer subtraction (-).
	OpSub
	// OpAnd is short-circuit conjunction (&&).
	OpAnd
	// OpOr is short-circuit disjunction (||).
	OpOr
	// OpImplies is short-circuit implication (->), i.e. !lhs || rhs.
	OpImplies
)

// IsConnective reports whether op is one of the short-circuiting boolean
// connectives (&&, ||, ->), which the minimizer treats specially (§4.4.3).
func (op BinOp) IsConnective() bool {
	return op == OpAnd || op == OpOr || op == OpImplies
}

// BinaryOp is a binary operator node: a comparison, an arithmetic operator,
// or a short-circuiting boolean connective.
type BinaryOp struct {
	base
	Op  BinOp
	Lhs Expression
	Rhs Expression
}

// NewBinaryOp constructs a binary-operator node with the given result type.
func NewBinaryOp(span source.Span, typ Type, op BinOp, lhs, rhs Expression) *BinaryOp {
	return &BinaryOp{base{span, typ}, op, lhs, rhs}
}

// Children implements Expression.
func (e *BinaryOp) Children() []Expression { return []Expression{e.Lhs, e.Rhs} }

// ============================================================================
// Conditional
// ============================================================================

// Conditional is `if c then t else e`.
type Conditional struct {
	base
	Cond Expression
	Then Expression
	Else Expression
}

// NewConditional constructs a conditional node.
func NewConditional(span source.Span, typ Type, cond, then, els Expression) *Conditional {
	return &Conditional{base{span, typ}, cond, then, els}
}

// Children implements Expression.
func (e *Conditional) Children() []Expression { return []Expression{e.Cond, e.Then, e.Else} }
