package apply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/apply"
	"quill/ast"
	"quill/types"
)

func tupleOf(elements ...types.TupleElement) *types.Tuple {
	return &types.Tuple{Elements: elements}
}

var intTy = &types.BuiltinInteger{Bits: 64}

func TestShufflePositional(t *testing.T) {
	sources, variadics, ok := apply.ComputeShuffle(
		tupleOf(types.TupleElement{Ty: intTy}, types.TupleElement{Ty: intTy}),
		tupleOf(types.TupleElement{Ty: intTy}, types.TupleElement{Ty: intTy}),
		false,
	)

	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, sources)
	assert.Empty(t, variadics)
}

func TestShuffleByName(t *testing.T) {
	sources, _, ok := apply.ComputeShuffle(
		tupleOf(
			types.TupleElement{Name: "b", Ty: intTy},
			types.TupleElement{Name: "a", Ty: intTy},
		),
		tupleOf(
			types.TupleElement{Name: "a", Ty: intTy},
			types.TupleElement{Name: "b", Ty: intTy},
		),
		false,
	)

	require.True(t, ok)
	assert.Equal(t, []int{1, 0}, sources)
}

func TestShuffleDropsSourceLabel(t *testing.T) {
	sources, _, ok := apply.ComputeShuffle(
		tupleOf(types.TupleElement{Name: "a", Ty: intTy}),
		tupleOf(types.TupleElement{Ty: intTy}),
		false,
	)

	require.True(t, ok)
	assert.Equal(t, []int{0}, sources)
}

func TestShuffleMandatoryLabels(t *testing.T) {
	// A named destination takes a differently-labeled source positionally
	// unless labels are mandatory.
	sources, _, ok := apply.ComputeShuffle(
		tupleOf(types.TupleElement{Name: "b", Ty: intTy}),
		tupleOf(types.TupleElement{Name: "a", Ty: intTy}),
		false,
	)
	require.True(t, ok)
	assert.Equal(t, []int{0}, sources)

	_, _, ok = apply.ComputeShuffle(
		tupleOf(types.TupleElement{Name: "b", Ty: intTy}),
		tupleOf(types.TupleElement{Name: "a", Ty: intTy}),
		true,
	)
	assert.False(t, ok)

	// An unnamed destination still drops the label in mandatory mode.
	sources, _, ok = apply.ComputeShuffle(
		tupleOf(types.TupleElement{Name: "b", Ty: intTy}),
		tupleOf(types.TupleElement{Ty: intTy}),
		true,
	)
	require.True(t, ok)
	assert.Equal(t, []int{0}, sources)
}

func TestShuffleFillsDefault(t *testing.T) {
	sources, _, ok := apply.ComputeShuffle(
		tupleOf(types.TupleElement{Name: "a", Ty: intTy}),
		tupleOf(
			types.TupleElement{Name: "a", Ty: intTy},
			types.TupleElement{Name: "b", Ty: intTy, Default: types.NormalDefault},
		),
		false,
	)

	require.True(t, ok)
	assert.Equal(t, []int{0, ast.DefaultInitialize}, sources)
}

func TestShuffleTrailingVariadic(t *testing.T) {
	sources, variadics, ok := apply.ComputeShuffle(
		tupleOf(
			types.TupleElement{Name: "x", Ty: intTy},
			types.TupleElement{Ty: intTy},
			types.TupleElement{Ty: intTy},
		),
		tupleOf(
			types.TupleElement{Name: "x", Ty: intTy},
			types.TupleElement{Name: "rest", Ty: &types.Slice{Element: intTy}, Variadic: true},
		),
		false,
	)

	require.True(t, ok)
	assert.Equal(t, []int{0, ast.FirstVariadic}, sources)
	assert.Equal(t, []int{1, 2}, variadics)
}

func TestShuffleRejectsDroppedSource(t *testing.T) {
	_, _, ok := apply.ComputeShuffle(
		tupleOf(types.TupleElement{Ty: intTy}, types.TupleElement{Ty: intTy}),
		tupleOf(types.TupleElement{Ty: intTy}),
		false,
	)

	assert.False(t, ok)
}

func TestShuffleRejectsMissingRequiredField(t *testing.T) {
	_, _, ok := apply.ComputeShuffle(
		tupleOf(),
		tupleOf(types.TupleElement{Name: "a", Ty: intTy}),
		false,
	)

	assert.False(t, ok)
}
