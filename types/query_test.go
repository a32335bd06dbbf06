package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/decl"
	"quill/types"
)

func classDecl(name string, superclass types.Type, params ...*types.Archetype) *decl.TypeDecl {
	return &decl.TypeDecl{
		Base:       decl.Base{Name: name},
		Kind:       decl.ClassDecl,
		Params:     params,
		Superclass: superclass,
	}
}

func TestEqualComparesStructure(t *testing.T) {
	intTy := &types.BuiltinInteger{Bits: 64}

	assert.True(t, types.Equal(
		&types.Function{Input: intTy, Result: intTy},
		&types.Function{Input: &types.BuiltinInteger{Bits: 64}, Result: intTy},
	))

	assert.False(t, types.Equal(intTy, &types.BuiltinInteger{Bits: 32}))

	// Archetypes only equal themselves.
	a := &types.Archetype{Name: "T"}
	b := &types.Archetype{Name: "T"}
	assert.True(t, types.Equal(a, a))
	assert.False(t, types.Equal(a, b))
}

func TestEqualNominalByDeclAndArgs(t *testing.T) {
	param := &types.Archetype{Name: "T"}
	box := classDecl("Box", nil, param)

	intTy := &types.BuiltinInteger{Bits: 64}

	left := &types.Nominal{Decl: box, Args: []types.Type{intTy}}
	right := &types.Nominal{Decl: box, Args: []types.Type{&types.BuiltinInteger{Bits: 64}}}
	assert.True(t, types.Equal(left, right))

	other := &types.Nominal{Decl: box, Args: []types.Type{&types.BuiltinInteger{Bits: 32}}}
	assert.False(t, types.Equal(left, other))
}

func TestRValue(t *testing.T) {
	intTy := &types.BuiltinInteger{Bits: 64}
	assert.Same(t, types.Type(intTy), types.RValue(&types.LValue{Object: intTy}))
	assert.Same(t, types.Type(intTy), types.RValue(intTy))
}

func TestSuperclassSubstitutesArguments(t *testing.T) {
	elem := &types.Archetype{Name: "Element"}
	baseParam := &types.Archetype{Name: "T"}

	base := classDecl("Base", nil, baseParam)
	derived := classDecl("Derived",
		&types.Nominal{Decl: base, Args: []types.Type{elem}}, elem)

	intTy := &types.BuiltinInteger{Bits: 64}
	derivedAtInt := &types.Nominal{Decl: derived, Args: []types.Type{intTy}}

	super := types.Superclass(derivedAtInt)
	nominal, ok := super.(*types.Nominal)
	require.True(t, ok)
	require.Len(t, nominal.Args, 1)
	assert.True(t, types.Equal(intTy, nominal.Args[0]))
}

func TestIsSuperclassOf(t *testing.T) {
	root := classDecl("Root", nil)
	middle := classDecl("Middle", root.DeclaredType())
	leaf := classDecl("Leaf", middle.DeclaredType())

	assert.True(t, types.IsSuperclassOf(root.DeclaredType(), leaf.DeclaredType()))
	assert.True(t, types.IsSuperclassOf(middle.DeclaredType(), leaf.DeclaredType()))
	assert.False(t, types.IsSuperclassOf(leaf.DeclaredType(), root.DeclaredType()))
	assert.False(t, types.IsSuperclassOf(leaf.DeclaredType(), leaf.DeclaredType()))
}

func TestScalarInitField(t *testing.T) {
	intTy := &types.BuiltinInteger{Bits: 64}

	one := &types.Tuple{Elements: []types.TupleElement{
		{Name: "a", Ty: intTy, Default: types.NormalDefault},
		{Name: "b", Ty: intTy},
	}}
	assert.Equal(t, 1, one.ScalarInitField())

	none := &types.Tuple{Elements: []types.TupleElement{
		{Name: "a", Ty: intTy},
		{Name: "b", Ty: intTy},
	}}
	assert.Equal(t, -1, none.ScalarInitField())

	variadicTail := &types.Tuple{Elements: []types.TupleElement{
		{Name: "a", Ty: intTy},
		{Name: "rest", Ty: &types.Slice{Element: intTy}, Variadic: true},
	}}
	assert.Equal(t, 0, variadicTail.ScalarInitField())
}
