package typeexpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/decl"
	"quill/typeexpr"
	"quill/types"
)

func testLookup() typeexpr.Lookup {
	intDecl := &decl.TypeDecl{Base: decl.Base{Name: "Int"}}

	element := &types.Archetype{Name: "Element"}
	arrayDecl := &decl.TypeDecl{
		Base:   decl.Base{Name: "Array"},
		Params: []*types.Archetype{element},
	}

	printable := &decl.ProtocolDecl{
		Base:          decl.Base{Name: "Printable"},
		SelfArchetype: &types.Archetype{Name: "Self"},
	}
	comparable := &decl.ProtocolDecl{
		Base:          decl.Base{Name: "Comparable"},
		SelfArchetype: &types.Archetype{Name: "Self"},
	}

	names := map[string]types.Type{
		"Int":        intDecl.DeclaredType(),
		"Array":      arrayDecl.DeclaredType(),
		"Printable":  &types.Existential{Protocols: []types.Protocol{printable}},
		"Comparable": &types.Existential{Protocols: []types.Protocol{comparable}},
	}

	return func(name string) (types.Type, bool) {
		ty, ok := names[name]
		return ty, ok
	}
}

func parse(t *testing.T, source string) types.Type {
	ty, err := typeexpr.Parse(source, testLookup())
	require.NoError(t, err)
	return ty
}

func TestParseFunction(t *testing.T) {
	fn, ok := parse(t, "Int -> Int -> Int").(*types.Function)
	require.True(t, ok)

	// Arrows associate to the right.
	_, ok = fn.Input.(*types.Nominal)
	assert.True(t, ok)
	_, ok = fn.Result.(*types.Function)
	assert.True(t, ok)
}

func TestParsePostfix(t *testing.T) {
	slice, ok := parse(t, "Int?[]").(*types.Slice)
	require.True(t, ok)
	_, ok = slice.Element.(*types.Optional)
	assert.True(t, ok)

	meta, ok := parse(t, "Int.Type").(*types.Metatype)
	require.True(t, ok)
	_, ok = meta.Instance.(*types.Nominal)
	assert.True(t, ok)
}

func TestParseBuiltin(t *testing.T) {
	bits, ok := parse(t, "Builtin.Int128").(*types.BuiltinInteger)
	require.True(t, ok)
	assert.Equal(t, 128, bits.Bits)

	_, ok = parse(t, "Builtin.RawPointer").(*types.BuiltinRawPointer)
	assert.True(t, ok)

	float, ok := parse(t, "Builtin.Float64").(*types.BuiltinFloat)
	require.True(t, ok)
	assert.Equal(t, 64, float.Bits)
}

func TestParseGenericArguments(t *testing.T) {
	nominal, ok := parse(t, "Array<Int>").(*types.Nominal)
	require.True(t, ok)
	require.Len(t, nominal.Args, 1)
	_, ok = nominal.Args[0].(*types.Nominal)
	assert.True(t, ok)
}

func TestParseTuple(t *testing.T) {
	assert.True(t, types.IsEmptyTuple(parse(t, "()")))

	// A single unadorned element is just grouping.
	_, ok := parse(t, "(Int)").(*types.Nominal)
	assert.True(t, ok)

	tuple, ok := parse(t, "(a: Int, b: Int = default, rest: Int...)").(*types.Tuple)
	require.True(t, ok)
	require.Len(t, tuple.Elements, 3)

	assert.Equal(t, "a", tuple.Elements[0].Name)
	assert.Equal(t, types.NoDefault, tuple.Elements[0].Default)

	assert.Equal(t, types.NormalDefault, tuple.Elements[1].Default)

	assert.True(t, tuple.Elements[2].Variadic)
	_, ok = tuple.Elements[2].Ty.(*types.Slice)
	assert.True(t, ok)
}

func TestParseMagicDefaults(t *testing.T) {
	tuple, ok := parse(t, "(path: Int = file, line: Int = line)").(*types.Tuple)
	require.True(t, ok)
	assert.Equal(t, types.FileDefault, tuple.Elements[0].Default)
	assert.Equal(t, types.LineDefault, tuple.Elements[1].Default)
}

func TestParseComposition(t *testing.T) {
	existential, ok := parse(t, "Printable & Comparable").(*types.Existential)
	require.True(t, ok)
	assert.Len(t, existential.Protocols, 2)
}

func TestParseAttributes(t *testing.T) {
	lvalue, ok := parse(t, "@lvalue Int").(*types.LValue)
	require.True(t, ok)
	assert.Equal(t, types.Qualifiers(0), lvalue.Quals)

	implicit, ok := parse(t, "@implicit_lvalue Int").(*types.LValue)
	require.True(t, ok)
	assert.Equal(t, types.MemberAccessQuals, implicit.Quals)

	fn, ok := parse(t, "@auto_closure () -> Int").(*types.Function)
	require.True(t, ok)
	assert.True(t, fn.AutoClosure)

	foreign, ok := parse(t, "@objc_block Int -> Int").(*types.Function)
	require.True(t, ok)
	assert.True(t, foreign.Foreign)
}

func TestParseErrors(t *testing.T) {
	lookup := testLookup()

	_, err := typeexpr.Parse("Unknown", lookup)
	assert.Error(t, err)

	_, err = typeexpr.Parse("@auto_closure Int", lookup)
	assert.Error(t, err)

	_, err = typeexpr.Parse("Int ->", lookup)
	assert.Error(t, err)

	_, err = typeexpr.Parse("Int Int", lookup)
	assert.Error(t, err)

	_, err = typeexpr.Parse("Int & Int", lookup)
	assert.Error(t, err)
}
