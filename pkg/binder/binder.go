// Package binder implements the entry binder (spec.md §4.3): parsing a
// wire-format table entry or action invocation against the schema into a
// fully-populated Binding, rejecting malformed or schema-inconsistent
// input before any constraint is evaluated.
package binder

import (
	"math/big"

	"github.com/jafingerhut/p4-constraints/pkg/errs"
	"github.com/jafingerhut/p4-constraints/pkg/schema"
	"github.com/jafingerhut/p4-constraints/pkg/value"
	"github.com/jafingerhut/p4-constraints/pkg/wire"
)

// WireExactValue is the wire encoding of an exact match field.
type WireExactValue struct{ Value []byte }

// WireTernaryValue is the wire encoding of a ternary match field.
type WireTernaryValue struct{ Value, Mask []byte }

// WireLpmValue is the wire encoding of a longest-prefix-match field.
type WireLpmValue struct {
	Value        []byte
	PrefixLength uint32
}

// WireRangeValue is the wire encoding of a range match field.
type WireRangeValue struct{ Low, High []byte }

// WireMatchField is one (field_id, decoded_value) pair from §6, tagged by
// match kind. Exactly one of Exact/Ternary/Lpm/Range is non-nil.
type WireMatchField struct {
	FieldID uint32
	Exact   *WireExactValue
	Ternary *WireTernaryValue
	Lpm     *WireLpmValue
	Range   *WireRangeValue
}

// WireTableEntry is the wire-format table entry consumed at evaluation time
// (§6).
type WireTableEntry struct {
	TableID  uint32
	Priority int32
	Match    []WireMatchField
}

// WireParam is one (param_id, bytes) pair of an action invocation.
type WireParam struct {
	ParamID uint32
	Value   []byte
}

// WireAction is the wire-format action invocation consumed at evaluation
// time (§6).
type WireAction struct {
	ActionID uint32
	Params   []WireParam
}

// TableBinding is the fully-populated mapping prepared from a table entry:
// every declared key is present (§3 invariant), plus the entry's priority.
type TableBinding struct {
	TableName string
	Priority  *big.Int
	Keys      map[string]value.Value
}

// ActionBinding is the fully-populated mapping prepared from an action
// invocation: every declared parameter is present.
type ActionBinding struct {
	ActionID   uint32
	ActionName string
	Params     map[string]value.Integer
}

// ParseTableEntry parses a wire-format entry against tableInfo, producing a
// table binding (§4.3). Returns an *errs.InputError naming the offending
// field id and table for an unknown match field id, a malformed wire
// encoding, a violated match-value invariant, or a missing exact key.
func ParseTableEntry(entry WireTableEntry, tableInfo *schema.TableInfo) (*TableBinding, error) {
	keys := make(map[string]value.Value, len(tableInfo.KeysByID))
	seen := make(map[uint32]bool, len(entry.Match))

	for _, m := range entry.Match {
		key, ok := tableInfo.KeysByID[m.FieldID]
		if !ok {
			return nil, errs.NewInputError("table %q: unknown match field id %d", tableInfo.Name, m.FieldID)
		}

		if seen[m.FieldID] {
			return nil, errs.NewInputError("table %q: duplicate match field id %d (%q)", tableInfo.Name, m.FieldID, key.Name)
		}

		seen[m.FieldID] = true

		v, err := decodeMatchValue(m, key)
		if err != nil {
			return nil, err
		}

		keys[key.Name] = v
	}

	for _, key := range tableInfo.KeysByID {
		if _, ok := keys[key.Name]; ok {
			continue
		}

		if key.Kind == schema.Exact {
			return nil, errs.NewInputError("table %q: missing required exact key %q", tableInfo.Name, key.Name)
		}

		keys[key.Name] = value.Wildcard(key.Kind.TypeKind(), key.BitWidth)
	}

	return &TableBinding{
		TableName: tableInfo.Name,
		Priority:  big.NewInt(int64(entry.Priority)),
		Keys:      keys,
	}, nil
}

func decodeMatchValue(m WireMatchField, key *schema.KeyInfo) (value.Value, error) {
	switch key.Kind {
	case schema.Exact:
		if m.Exact == nil {
			return nil, errs.NewInputError("key %q: expected exact encoding", key.Name)
		}

		v, err := wire.DecodeInteger(m.Exact.Value, key.BitWidth)
		if err != nil {
			return nil, err
		}

		return value.Exact{Value: v}, nil

	case schema.Ternary:
		if m.Ternary == nil {
			return nil, errs.NewInputError("key %q: expected ternary encoding", key.Name)
		}

		v, err := wire.DecodeInteger(m.Ternary.Value, key.BitWidth)
		if err != nil {
			return nil, err
		}

		mask, err := wire.DecodeInteger(m.Ternary.Mask, key.BitWidth)
		if err != nil {
			return nil, err
		}

		masked := new(big.Int).AndNot(v, mask)
		if masked.Sign() != 0 {
			return nil, errs.NewInputError("key %q: ternary value %s has bits set outside mask %s", key.Name, v, mask)
		}

		return value.Ternary{Value: v, Mask: mask}, nil

	case schema.Lpm:
		if m.Lpm == nil {
			return nil, errs.NewInputError("key %q: expected lpm encoding", key.Name)
		}

		v, err := wire.DecodeInteger(m.Lpm.Value, key.BitWidth)
		if err != nil {
			return nil, err
		}

		prefixLen := big.NewInt(int64(m.Lpm.PrefixLength))
		if m.Lpm.PrefixLength > uint32(key.BitWidth) {
			return nil, errs.NewInputError("key %q: prefix length %d exceeds bitwidth %d", key.Name, m.Lpm.PrefixLength, key.BitWidth)
		}

		mask := prefixMask(key.BitWidth, uint(m.Lpm.PrefixLength))

		lowerBits := new(big.Int).AndNot(v, mask)
		if lowerBits.Sign() != 0 {
			return nil, errs.NewInputError("key %q: lpm value %s has nonzero bits below prefix length %d", key.Name, v, m.Lpm.PrefixLength)
		}

		return value.Lpm{Value: v, PrefixLength: prefixLen}, nil

	case schema.Range:
		if m.Range == nil {
			return nil, errs.NewInputError("key %q: expected range encoding", key.Name)
		}

		low, err := wire.DecodeInteger(m.Range.Low, key.BitWidth)
		if err != nil {
			return nil, err
		}

		high, err := wire.DecodeInteger(m.Range.High, key.BitWidth)
		if err != nil {
			return nil, err
		}

		if low.Cmp(high) > 0 {
			return nil, errs.NewInputError("key %q: range low %s exceeds high %s", key.Name, low, high)
		}

		return value.Range{Low: low, High: high}, nil

	default:
		return nil, errs.NewInputError("key %q: unsupported match kind", key.Name)
	}
}

// prefixMask returns the mask of the bits below prefixLen within a field of
// bitWidth bits, i.e. the bits that an LPM value must leave zero.
func prefixMask(bitWidth, prefixLen uint) *big.Int {
	belowBits := bitWidth - prefixLen
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), belowBits), big.NewInt(1))
}

// ParseAction parses a wire-format action invocation against actionInfo,
// producing an action binding (§4.3). Returns an *errs.InputError for an
// unknown parameter id, a duplicate parameter id, or a missing parameter.
func ParseAction(action WireAction, actionInfo *schema.ActionInfo) (*ActionBinding, error) {
	params := make(map[string]value.Integer, len(actionInfo.ParamsByID))
	seen := make(map[uint32]bool, len(action.Params))

	for _, p := range action.Params {
		param, ok := actionInfo.ParamsByID[p.ParamID]
		if !ok {
			return nil, errs.NewInputError("action %q: unknown parameter id %d", actionInfo.Name, p.ParamID)
		}

		if seen[p.ParamID] {
			return nil, errs.NewInputError("action %q: duplicate parameter id %d (%q)", actionInfo.Name, p.ParamID, param.Name)
		}

		seen[p.ParamID] = true

		v, err := wire.DecodeInteger(p.Value, param.BitWidth)
		if err != nil {
			return nil, err
		}

		params[param.Name] = value.NewInteger(v)
	}

	for _, param := range actionInfo.ParamsByID {
		if _, ok := params[param.Name]; !ok {
			return nil, errs.NewInputError("action %q: missing required parameter %q", actionInfo.Name, param.Name)
		}
	}

	return &ActionBinding{
		ActionID:   actionInfo.ID,
		ActionName: actionInfo.Name,
		Params:     params,
	}, nil
}
