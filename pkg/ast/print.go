package ast

import "fmt"

// String renders expr as a fully-parenthesized textual form, mainly for test
// failure messages and debugging — not used for diagnostics, which quote the
// original source text instead (§4.4.3).
func String(expr Expression) string {
	switch e := expr.(type) {
	case *BoolLiteral:
		return fmt.Sprintf("%v", e.Value)
	case *IntLiteral:
		return e.Value.String()
	case *Key:
		return e.Name
	case *ActionParameter:
		return e.Name
	case *Attribute:
		return "::" + e.Name
	case *FieldAccess:
		return fmt.Sprintf("%s::%s", String(e.Arg), fieldName(e.Field))
	case *Cast:
		return fmt.Sprintf("(%s:%s)", String(e.Arg), e.Type().Kind)
	case *Not:
		return fmt.Sprintf("!%s", String(e.Arg))
	case *BinaryOp:
		return fmt.Sprintf("(%s %s %s)", String(e.Lhs), opSymbol(e.Op), String(e.Rhs))
	case *Conditional:
		return fmt.Sprintf("(if %s then %s else %s)", String(e.Cond), String(e.Then), String(e.Else))
	default:
		panic(fmt.Sprintf("unknown ast expression %T", e))
	}
}

func fieldName(f Field) string {
	switch f {
	case FieldValue:
		return "value"
	case FieldMask:
		return "mask"
	case FieldPrefixLength:
		return "prefix_length"
	case FieldLow:
		return "low"
	case FieldHigh:
		return "high"
	default:
		return "?"
	}
}

func opSymbol(op BinOp) string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpImplies:
		return "->"
	default:
		return "?"
	}
}
