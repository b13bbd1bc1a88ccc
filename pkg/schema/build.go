package schema

import (
	"github.com/jafingerhut/p4-constraints/pkg/ast"
	"github.com/jafingerhut/p4-constraints/pkg/errs"
	"github.com/jafingerhut/p4-constraints/pkg/source"
)

// KeyMetadata describes one table match field as produced by the external
// schema extractor (§6): its id, name, declared match kind, and bitwidth.
type KeyMetadata struct {
	ID       uint32
	Name     string
	Kind     MatchKind
	BitWidth uint
}

// ParamMetadata describes one action parameter as produced by the external
// schema extractor.
type ParamMetadata struct {
	ID       uint32
	Name     string
	BitWidth uint
}

// TableMetadata describes one table as produced by the external schema
// extractor: its id, name, match fields, and optional already-parsed
// constraint (entry_restriction) with its source text.
type TableMetadata struct {
	ID               uint32
	Name             string
	Keys             []KeyMetadata
	Constraint       ast.Expression // nil if the table has no constraint.
	ConstraintSource string
}

// ActionMetadata describes one action as produced by the external schema
// extractor.
type ActionMetadata struct {
	ID               uint32
	Name             string
	Params           []ParamMetadata
	Constraint       ast.Expression
	ConstraintSource string
}

// Build constructs a ConstraintInfo from program metadata (spec.md §4.2).
// It is called once; the result outlives and is shared read-only by every
// subsequent evaluation (§5). Fails with a *errs.DefinitionError on
// duplicate ids, conflicting name/id bindings, an unsupported match kind,
// or a non-positive bitwidth.
func Build(tables []TableMetadata, actions []ActionMetadata) (*ConstraintInfo, error) {
	info := &ConstraintInfo{
		TablesByID:  make(map[uint32]*TableInfo, len(tables)),
		ActionsByID: make(map[uint32]*ActionInfo, len(actions)),
	}

	for _, t := range tables {
		table, err := buildTable(t)
		if err != nil {
			return nil, err
		}

		if _, dup := info.TablesByID[table.ID]; dup {
			return nil, errs.NewDefinitionError("duplicate table id %d (table %q)", table.ID, table.Name)
		}

		info.TablesByID[table.ID] = table
	}

	for _, a := range actions {
		action, err := buildAction(a)
		if err != nil {
			return nil, err
		}

		if _, dup := info.ActionsByID[action.ID]; dup {
			return nil, errs.NewDefinitionError("duplicate action id %d (action %q)", action.ID, action.Name)
		}

		info.ActionsByID[action.ID] = action
	}

	return info, nil
}

func buildTable(t TableMetadata) (*TableInfo, error) {
	keysByID := make(map[uint32]*KeyInfo, len(t.Keys))
	keysByName := make(map[string]*KeyInfo, len(t.Keys))

	for _, k := range t.Keys {
		if k.BitWidth <= 0 {
			return nil, errs.NewDefinitionError("table %q: key %q has non-positive bitwidth %d", t.Name, k.Name, k.BitWidth)
		}

		kind := k.Kind
		if kind == Optional {
			kind = Ternary
		} else if kind > Range {
			return nil, errs.NewDefinitionError("table %q: key %q has unsupported match kind %d", t.Name, k.Name, k.Kind)
		}

		key := &KeyInfo{ID: k.ID, Name: k.Name, Kind: kind, BitWidth: k.BitWidth}

		if existing, dup := keysByID[key.ID]; dup {
			return nil, errs.NewDefinitionError("table %q: duplicate key id %d (keys %q and %q)", t.Name, key.ID, existing.Name, key.Name)
		}

		if existing, dup := keysByName[key.Name]; dup && existing.ID != key.ID {
			return nil, errs.NewDefinitionError("table %q: key name %q bound to conflicting ids %d and %d", t.Name, key.Name, existing.ID, key.ID)
		}

		keysByID[key.ID] = key
		keysByName[key.Name] = key
	}

	return &TableInfo{
		ID:               t.ID,
		Name:             t.Name,
		Constraint:       t.Constraint,
		ConstraintSource: ConstraintSource{Text: source.NewText(t.ConstraintSource)},
		KeysByID:         keysByID,
		KeysByName:       keysByName,
	}, nil
}

func buildAction(a ActionMetadata) (*ActionInfo, error) {
	paramsByID := make(map[uint32]*ParamInfo, len(a.Params))
	paramsByName := make(map[string]*ParamInfo, len(a.Params))

	for _, p := range a.Params {
		if p.BitWidth <= 0 {
			return nil, errs.NewDefinitionError("action %q: param %q has non-positive bitwidth %d", a.Name, p.Name, p.BitWidth)
		}

		param := &ParamInfo{ID: p.ID, Name: p.Name, BitWidth: p.BitWidth}

		if existing, dup := paramsByID[param.ID]; dup {
			return nil, errs.NewDefinitionError("action %q: duplicate param id %d (params %q and %q)", a.Name, param.ID, existing.Name, param.Name)
		}

		if existing, dup := paramsByName[param.Name]; dup && existing.ID != param.ID {
			return nil, errs.NewDefinitionError("action %q: param name %q bound to conflicting ids %d and %d", a.Name, param.Name, existing.ID, param.ID)
		}

		paramsByID[param.ID] = param
		paramsByName[param.Name] = param
	}

	return &ActionInfo{
		ID:               a.ID,
		Name:             a.Name,
		Constraint:       a.Constraint,
		ConstraintSource: ConstraintSource{Text: source.NewText(a.ConstraintSource)},
		ParamsByID:       paramsByID,
		ParamsByName:     paramsByName,
	}, nil
}
