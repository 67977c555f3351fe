package phpast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameOfVariable(t *testing.T) {
	assert.Equal(t, "$id", Name(NewVariable(1, "$id")))
}

func TestNameOfArrayOffsetUsesBase(t *testing.T) {
	offset := NewArrayOffset(1, NewVariable(1, "$arr"), NewLiteral(1, "'k'"))
	assert.Equal(t, "$arr", Name(offset))
}

func TestNameOfOtherKindsIsEmpty(t *testing.T) {
	assert.Equal(t, "", Name(NewLiteral(1, "1")))
}

func TestParamNamedMatchesByNameOnly(t *testing.T) {
	params := []*FormalParameter{
		NewFormalParameter(1, "$a"),
		NewFormalParameter(1, "$b"),
	}
	found := ParamNamed(params, "$b")
	if assert.NotNil(t, found) {
		assert.Equal(t, "$b", found.Name)
	}
	assert.Nil(t, ParamNamed(params, "$missing"))
}

func TestFlattenFormalParams(t *testing.T) {
	params := []*FormalParameter{
		NewFormalParameter(1, "$a"),
		NewFormalParameter(1, "$b"),
	}
	assert.Equal(t, []string{"$a", "$b"}, FlattenFormalParams(params))
}

func TestStatementsOfUnwrapsBlock(t *testing.T) {
	stmt := NewReturn(1, nil)
	block := NewBlock(1, []Node{stmt})
	assert.Equal(t, []Node{stmt}, StatementsOf(block))
}

func TestStatementsOfWrapsBareStatement(t *testing.T) {
	stmt := NewReturn(1, nil)
	assert.Equal(t, []Node{stmt}, StatementsOf(stmt))
}

func TestStatementsOfNilIsEmpty(t *testing.T) {
	assert.Nil(t, StatementsOf(nil))
}
