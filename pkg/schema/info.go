// Package schema implements the constraint backend's schema registry
// (spec.md §4.2): an immutable, once-built lookup structure mapping table
// and action ids/names to their match-key/parameter metadata and attached
// constraint AST.
package schema

import (
	"github.com/jafingerhut/p4-constraints/pkg/ast"
	"github.com/jafingerhut/p4-constraints/pkg/source"
)

// MatchKind identifies how a table match key is matched. Optional is
// normalized to Ternary at schema build time (§6: "'Optional' match kind is
// normalized to ternary at schema build time").
type MatchKind uint8

const (
	// Exact requires bit-for-bit equality.
	Exact MatchKind = iota
	// Ternary matches value/mask pairs.
	Ternary
	// Lpm matches by longest common prefix.
	Lpm
	// Range matches an inclusive [low, high] interval.
	Range
	// Optional is normalized to Ternary by Build; it never appears in a
	// built KeyInfo.
	Optional
)

// TypeKind translates a MatchKind into the ast.TypeKind used to type a Key
// reference or its wildcard.
func (k MatchKind) TypeKind() ast.TypeKind {
	switch k {
	case Exact:
		return ast.KindExact
	case Ternary, Optional:
		return ast.KindTernary
	case Lpm:
		return ast.KindLpm
	case Range:
		return ast.KindRange
	default:
		panic("unknown match kind")
	}
}

// KeyInfo is the immutable schema record for one table match key.
type KeyInfo struct {
	ID       uint32
	Name     string
	Kind     MatchKind
	BitWidth uint
}

// Type returns the ast.Type a Key reference to this field carries.
func (k *KeyInfo) Type() ast.Type {
	return ast.MatchType(k.Kind.TypeKind(), k.BitWidth)
}

// ParamInfo is the immutable schema record for one action parameter.
type ParamInfo struct {
	ID       uint32
	Name     string
	BitWidth uint
}

// Type returns the ast.Type an ActionParameter reference to this field
// carries: always a plain (bitwidth-annotated) integer, per §3.
func (p *ParamInfo) Type() ast.Type {
	return ast.MatchType(ast.KindInteger, p.BitWidth)
}

// ConstraintSource holds a constraint's source text, for quoting in
// diagnostics (§4.4.3, §7); the parsed AST itself is the Constraint field of
// TableInfo/ActionInfo. constraint_source in spec.md/the original
// implementation.
type ConstraintSource struct {
	Text *source.Text
}

// TableInfo is the immutable schema record for one table: its match keys
// (indexed by both id and name) and its optional entry_restriction
// constraint.
type TableInfo struct {
	ID               uint32
	Name             string
	Constraint       ast.Expression // nil if the table has no constraint.
	ConstraintSource ConstraintSource
	KeysByID         map[uint32]*KeyInfo
	KeysByName       map[string]*KeyInfo
}

// ActionInfo is the immutable schema record for one action: its parameters
// (indexed by both id and name) and its optional action_restriction
// constraint.
type ActionInfo struct {
	ID               uint32
	Name             string
	Constraint       ast.Expression
	ConstraintSource ConstraintSource
	ParamsByID       map[uint32]*ParamInfo
	ParamsByName     map[string]*ParamInfo
}

// ConstraintInfo is the fully built schema registry: immutable, built once
// from program metadata, shared read-only across all evaluations (§5).
type ConstraintInfo struct {
	TablesByID  map[uint32]*TableInfo
	ActionsByID map[uint32]*ActionInfo
}

// TableByID returns the TableInfo for id, or nil if no such table exists.
func (c *ConstraintInfo) TableByID(id uint32) *TableInfo {
	return c.TablesByID[id]
}

// ActionByID returns the ActionInfo for id, or nil if no such action
// exists.
func (c *ConstraintInfo) ActionByID(id uint32) *ActionInfo {
	return c.ActionsByID[id]
}

// AttributeInfo describes a built-in table-entry attribute recognized by
// the constraint language, e.g. ::priority. Unlike spec.md's minimal
// account (which names only "priority"), this is kept table-shaped — see
// SPEC_FULL.md §4.2 — so a second builtin attribute can be registered
// without touching pkg/eval.
type AttributeInfo struct {
	Name string
	Type ast.Type
}

// builtinAttributes is the fixed set of attributes the evaluator
// recognizes. Unknown attribute names are an AST-level error, surfaced as
// internal (§4.2).
var builtinAttributes = map[string]AttributeInfo{
	"priority": {Name: "priority", Type: ast.Integer},
}

// AttributeInfoByName returns the fixed schema for a built-in attribute, or
// false if name does not name one.
func AttributeInfoByName(name string) (AttributeInfo, bool) {
	info, ok := builtinAttributes[name]
	return info, ok
}
