// Package value implements the evaluator's runtime value universe
// (EvalResult in spec.md §3/§4.1): booleans, arbitrary-precision integers,
// and the four match-key shapes. Every variant carries its tag explicitly
// (via Kind) so the evaluator can dynamically check it against the AST
// node's static type at each step, catching type-checker/parser bugs early
// rather than producing a silently wrong verdict.
package value

import (
	"fmt"
	"math/big"

	"github.com/jafingerhut/p4-constraints/pkg/ast"
)

// Value is the EvalResult variant: the result of evaluating any AST node,
// boolean-rooted or not.
type Value interface {
	// Kind returns this value's tag, matching one of ast.TypeKind.
	Kind() ast.TypeKind
	// Equal reports structural equality with other. Comparing values of
	// different kinds is always false.
	Equal(other Value) bool
	// String renders the value for diagnostics.
	String() string
}

// Bool is a boolean value.
type Bool bool

// Kind implements Value.
func (v Bool) Kind() ast.TypeKind { return ast.KindBool }

// Equal implements Value.
func (v Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && v == o
}

func (v Bool) String() string { return fmt.Sprintf("%v", bool(v)) }

// Integer is an arbitrary-precision signed integer value.
type Integer struct{ *big.Int }

// NewInteger wraps i as an Integer value.
func NewInteger(i *big.Int) Integer { return Integer{i} }

// IntegerFromInt64 constructs an Integer value from an int64, for literals
// and tests.
func IntegerFromInt64(i int64) Integer { return Integer{big.NewInt(i)} }

// Kind implements Value.
func (v Integer) Kind() ast.TypeKind { return ast.KindInteger }

// Equal implements Value.
func (v Integer) Equal(other Value) bool {
	o, ok := other.(Integer)
	return ok && v.Cmp(o.Int) == 0
}

func (v Integer) String() string { return v.Int.String() }

// Exact is an exact match-key value: a single integer.
type Exact struct{ Value *big.Int }

// Kind implements Value.
func (v Exact) Kind() ast.TypeKind { return ast.KindExact }

// Equal implements Value.
func (v Exact) Equal(other Value) bool {
	o, ok := other.(Exact)
	return ok && v.Value.Cmp(o.Value) == 0
}

func (v Exact) String() string { return fmt.Sprintf("Exact{value=%s}", v.Value) }

// Ternary is a ternary (or normalized optional) match-key value. The
// invariant value & mask == value is enforced at binding time (§4.3), not
// here.
type Ternary struct {
	Value *big.Int
	Mask  *big.Int
}

// Kind implements Value.
func (v Ternary) Kind() ast.TypeKind { return ast.KindTernary }

// Equal implements Value.
func (v Ternary) Equal(other Value) bool {
	o, ok := other.(Ternary)
	return ok && v.Value.Cmp(o.Value) == 0 && v.Mask.Cmp(o.Mask) == 0
}

func (v Ternary) String() string {
	return fmt.Sprintf("Ternary{value=%s, mask=%s}", v.Value, v.Mask)
}

// IsWildcard reports whether this ternary value matches anything, i.e. its
// mask is all zeros.
func (v Ternary) IsWildcard() bool { return v.Mask.Sign() == 0 }

// Lpm is a longest-prefix-match value.
type Lpm struct {
	Value        *big.Int
	PrefixLength *big.Int
}

// Kind implements Value.
func (v Lpm) Kind() ast.TypeKind { return ast.KindLpm }

// Equal implements Value.
func (v Lpm) Equal(other Value) bool {
	o, ok := other.(Lpm)
	return ok && v.Value.Cmp(o.Value) == 0 && v.PrefixLength.Cmp(o.PrefixLength) == 0
}

func (v Lpm) String() string {
	return fmt.Sprintf("Lpm{value=%s, prefix_length=%s}", v.Value, v.PrefixLength)
}

// IsWildcard reports whether this LPM value matches anything, i.e. its
// prefix length is zero.
func (v Lpm) IsWildcard() bool { return v.PrefixLength.Sign() == 0 }

// Range is a range match-key value: low <= high.
type Range struct {
	Low  *big.Int
	High *big.Int
}

// Kind implements Value.
func (v Range) Kind() ast.TypeKind { return ast.KindRange }

// Equal implements Value.
func (v Range) Equal(other Value) bool {
	o, ok := other.(Range)
	return ok && v.Low.Cmp(o.Low) == 0 && v.High.Cmp(o.High) == 0
}

func (v Range) String() string {
	return fmt.Sprintf("Range{low=%s, high=%s}", v.Low, v.High)
}

// IsWildcard reports whether this range value matches anything in
// [0, 2^bitWidth), the wildcard range for a range-typed key of that width.
func (v Range) IsWildcard(bitWidth uint) bool {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitWidth), big.NewInt(1))
	return v.Low.Sign() == 0 && v.High.Cmp(max) == 0
}

// Wildcard constructs the kind-appropriate "match anything" value for an
// omitted optional/ternary/LPM/range field (§4.3, §8 property 7). Exact has
// no wildcard: an omitted exact key is always an input error, enforced by
// pkg/binder rather than here.
func Wildcard(kind ast.TypeKind, bitWidth uint) Value {
	switch kind {
	case ast.KindTernary:
		return Ternary{Value: big.NewInt(0), Mask: big.NewInt(0)}
	case ast.KindLpm:
		return Lpm{Value: big.NewInt(0), PrefixLength: big.NewInt(0)}
	case ast.KindRange:
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bitWidth), big.NewInt(1))
		return Range{Low: big.NewInt(0), High: max}
	default:
		panic(fmt.Sprintf("no wildcard for match kind %s", kind))
	}
}
