package ast

// TypeKind identifies which of the runtime value's variants a node's static
// type denotes: a boolean, an arbitrary-precision integer, or one of the
// four match-key shapes. It doubles as the tag checked by the evaluator's
// dynamic type check (§4.1) against the runtime Value it actually produces.
type TypeKind uint8

const (
	// KindBool denotes the boolean type.
	KindBool TypeKind = iota
	// KindInteger denotes the arbitrary-precision integer type.
	KindInteger
	// KindExact denotes an exact match-key value.
	KindExact
	// KindTernary denotes a ternary match-key value.
	KindTernary
	// KindLpm denotes a longest-prefix-match value.
	KindLpm
	// KindRange denotes a range match-key value.
	KindRange
)

// String renders a type kind for diagnostics.
func (k TypeKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInteger:
		return "int"
	case KindExact:
		return "exact"
	case KindTernary:
		return "ternary"
	case KindLpm:
		return "lpm"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// Type is the static type the external type-checker assigned to an AST
// node. BitWidth is carried for diagnostic purposes only: per §3, the
// evaluator itself does not enforce bitwidth at runtime.
type Type struct {
	Kind     TypeKind
	BitWidth uint
}

// Bool is the canonical boolean type.
var Bool = Type{Kind: KindBool}

// Integer is the canonical arbitrary-precision integer type.
var Integer = Type{Kind: KindInteger}

// MatchType constructs the type of a match-key-shaped value with the given
// kind (Exact/Ternary/Lpm/Range) and declared bitwidth.
func MatchType(kind TypeKind, bitWidth uint) Type {
	return Type{Kind: kind, BitWidth: bitWidth}
}
