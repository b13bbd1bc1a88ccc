package schema

import (
	"errors"
	"testing"

	"github.com/jafingerhut/p4-constraints/pkg/errs"
	"github.com/stretchr/testify/assert"
)

func TestBuildSimpleTable(t *testing.T) {
	info, err := Build([]TableMetadata{
		{
			ID:   1,
			Name: "t1",
			Keys: []KeyMetadata{
				{ID: 1, Name: "k", Kind: Exact, BitWidth: 8},
			},
		},
	}, nil)
	assert.NoError(t, err)

	table := info.TableByID(1)
	assert.NotNil(t, table)
	assert.Equal(t, "t1", table.Name)
	assert.Equal(t, Exact, table.KeysByName["k"].Kind)
}

func TestBuildNormalizesOptionalToTernary(t *testing.T) {
	info, err := Build([]TableMetadata{
		{
			ID:   1,
			Name: "t1",
			Keys: []KeyMetadata{
				{ID: 1, Name: "k", Kind: Optional, BitWidth: 8},
			},
		},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, Ternary, info.TableByID(1).KeysByName["k"].Kind)
}

func TestBuildRejectsNonPositiveBitWidth(t *testing.T) {
	_, err := Build([]TableMetadata{
		{ID: 1, Name: "t1", Keys: []KeyMetadata{{ID: 1, Name: "k", Kind: Exact, BitWidth: 0}}},
	}, nil)

	var defErr *errs.DefinitionError
	assert.True(t, errors.As(err, &defErr))
}

func TestBuildRejectsDuplicateTableID(t *testing.T) {
	tables := []TableMetadata{
		{ID: 1, Name: "t1"},
		{ID: 1, Name: "t2"},
	}

	_, err := Build(tables, nil)

	var defErr *errs.DefinitionError
	assert.True(t, errors.As(err, &defErr))
}

func TestBuildRejectsConflictingKeyNameID(t *testing.T) {
	_, err := Build([]TableMetadata{
		{
			ID:   1,
			Name: "t1",
			Keys: []KeyMetadata{
				{ID: 1, Name: "k", Kind: Exact, BitWidth: 8},
				{ID: 2, Name: "k", Kind: Exact, BitWidth: 8},
			},
		},
	}, nil)

	var defErr *errs.DefinitionError
	assert.True(t, errors.As(err, &defErr))
}

func TestAttributeInfoByName(t *testing.T) {
	info, ok := AttributeInfoByName("priority")
	assert.True(t, ok)
	assert.Equal(t, "priority", info.Name)

	_, ok = AttributeInfoByName("nonsense")
	assert.False(t, ok)
}
