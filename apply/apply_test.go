package apply_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/apply"
	"quill/ast"
	"quill/database"
	"quill/decl"
	"quill/types"
)

// fixture is a small program world the tests share: an Int struct that takes
// builtin integer literals directly, and a Point struct with one method.
type fixture struct {
	db    *database.Db
	world *decl.World

	intDecl   *decl.TypeDecl
	pointDecl *decl.TypeDecl
	describe  *decl.FuncDecl
}

func newFixture() *fixture {
	f := &fixture{
		db:    database.NewDb(nil),
		world: decl.NewWorld(),
	}

	f.intDecl = &decl.TypeDecl{Base: decl.Base{Name: "Int", Facts: database.EmptyFacts()}}
	intTy := f.intDecl.DeclaredType()
	f.intDecl.Ty = &types.Metatype{Instance: intTy}

	witness := &decl.FuncDecl{
		Base: decl.Base{
			Name:  "_convertFromBuiltinIntegerLiteral",
			Ty:    &types.Function{Input: f.world.MaxIntegerLiteralType(), Result: intTy},
			Facts: database.EmptyFacts(),
		},
		Container: intTy,
		Static:    true,
	}
	f.intDecl.Members = append(f.intDecl.Members, witness)

	proto := &decl.ProtocolDecl{
		Base:          decl.Base{Name: "BuiltinIntegerLiteralConvertible", Facts: database.EmptyFacts()},
		SelfArchetype: &types.Archetype{Name: "Self"},
	}
	f.world.Protocols[decl.BuiltinIntegerLiteralProtocol] = proto
	f.world.Conformances = append(f.world.Conformances, &decl.Conformance{
		Ty:            intTy,
		Proto:         proto,
		Witnesses:     map[string]decl.Decl{"_convertFromBuiltinIntegerLiteral": witness},
		TypeWitnesses: map[*types.Archetype]types.Type{},
	})

	f.pointDecl = &decl.TypeDecl{Base: decl.Base{Name: "Point", Facts: database.EmptyFacts()}}
	pointTy := f.pointDecl.DeclaredType()
	f.pointDecl.Ty = &types.Metatype{Instance: pointTy}

	f.describe = &decl.FuncDecl{
		Base: decl.Base{
			Name: "describe",
			Ty: &types.Function{
				Input:  &types.LValue{Object: pointTy, Quals: types.MemberAccessQuals},
				Result: &types.Function{Input: types.EmptyTuple(), Result: intTy},
			},
			Facts: database.EmptyFacts(),
		},
		Container: pointTy,
		Instance:  true,
	}
	f.pointDecl.Members = append(f.pointDecl.Members, f.describe)

	return f
}

func (f *fixture) intTy() types.Type {
	return f.intDecl.DeclaredType()
}

func (f *fixture) pointTy() types.Type {
	return f.pointDecl.DeclaredType()
}

func (f *fixture) variable(name string, ty types.Type) *decl.VarDecl {
	return &decl.VarDecl{Base: decl.Base{Name: name, Ty: ty, Facts: database.EmptyFacts()}}
}

func (f *fixture) ref(v *decl.VarDecl) *ast.DeclRef {
	ref := &ast.DeclRef{Base: ast.NewBase(database.NullSpan()), Decl: v}
	ref.SetType(&types.LValue{Object: v.DeclType()})
	f.db.Register(ref)
	return ref
}

func TestIntegerLiteralLowering(t *testing.T) {
	f := newFixture()

	tv := &types.TypeVariable{Id: 0, Anchor: decl.IntegerLiteralProtocol}
	solution := apply.NewSolution(f.db)
	solution.Bind(tv, f.intTy())

	lit := &ast.IntegerLiteral{Base: ast.NewBase(database.NullSpan()), Value: "42"}
	lit.SetType(tv)
	f.db.Register(lit)

	ctx := apply.NewContext(f.db, f.world)
	result := apply.ApplyTo(ctx, solution, lit)

	require.False(t, ctx.Reporter.HasErrors())

	call, ok := result.(*ast.Call)
	require.True(t, ok)
	assert.True(t, types.Equal(f.intTy(), call.Type()))
	assert.True(t, types.Equal(f.world.MaxIntegerLiteralType(), lit.Type()))
}

func TestLiteralWithoutConformanceReports(t *testing.T) {
	f := newFixture()

	tv := &types.TypeVariable{Id: 0}
	solution := apply.NewSolution(f.db)
	solution.Bind(tv, f.pointTy())

	lit := &ast.IntegerLiteral{Base: ast.NewBase(database.NullSpan()), Value: "1"}
	lit.SetType(tv)
	f.db.Register(lit)

	ctx := apply.NewContext(f.db, f.world)
	result := apply.ApplyTo(ctx, solution, lit)

	assert.True(t, ctx.Reporter.HasErrors())
	assert.True(t, types.Equal(f.pointTy(), result.Type()))
}

func TestMethodReferenceBecomesReceiverCall(t *testing.T) {
	f := newFixture()

	p := f.variable("p", f.pointTy())
	base := f.ref(p)

	dot := &ast.UnresolvedDot{
		Base:     ast.NewBase(database.NullSpan()),
		BaseExpr: base,
		Name:     "describe",
	}
	f.db.Register(dot)

	resultTy := &types.Function{Input: types.EmptyTuple(), Result: f.intTy()}

	solution := apply.NewSolution(f.db)
	solution.RecordOverload(apply.NewLocator(dot).With(apply.PathMember), apply.SelectedOverload{
		Choice:   apply.OverloadChoice{Kind: apply.ChoiceDecl, Decl: f.describe},
		OpenedTy: resultTy,
	})

	call := &ast.Call{
		Base: ast.NewBase(database.NullSpan()),
		Fn:   dot,
		Arg:  &ast.Tuple{Base: ast.NewBase(database.NullSpan())},
	}
	call.Arg.SetType(types.EmptyTuple())
	f.db.Register(call)

	ctx := apply.NewContext(f.db, f.world)
	result := apply.ApplyTo(ctx, solution, call)

	require.False(t, ctx.Reporter.HasErrors())
	assert.True(t, types.Equal(f.intTy(), result.Type()))

	fn, _ := result.(*ast.Call)
	require.NotNil(t, fn)
	receiver, ok := fn.Fn.(*ast.ReceiverCall)
	require.True(t, ok)
	assert.True(t, types.Equal(resultTy, receiver.Type()))
}

func TestUncalledValueMethodReports(t *testing.T) {
	f := newFixture()

	p := f.variable("p", f.pointTy())
	base := f.ref(p)

	dot := &ast.UnresolvedDot{
		Base:     ast.NewBase(database.NullSpan()),
		BaseExpr: base,
		Name:     "describe",
	}
	f.db.Register(dot)

	solution := apply.NewSolution(f.db)
	solution.RecordOverload(apply.NewLocator(dot).With(apply.PathMember), apply.SelectedOverload{
		Choice:   apply.OverloadChoice{Kind: apply.ChoiceDecl, Decl: f.describe},
		OpenedTy: &types.Function{Input: types.EmptyTuple(), Result: f.intTy()},
	})

	ctx := apply.NewContext(f.db, f.world)
	apply.ApplyTo(ctx, solution, dot)

	assert.True(t, ctx.Reporter.HasErrors())

	items := ctx.Reporter.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "partial-application", items[0].Id)
}

func TestCoerceLoadsLValue(t *testing.T) {
	f := newFixture()

	x := f.variable("x", f.intTy())
	ref := f.ref(x)

	ctx := apply.NewContext(f.db, f.world)
	result := apply.CoerceToType(ctx, apply.NewSolution(f.db), ref, f.intTy())

	load, ok := result.(*ast.Load)
	require.True(t, ok)
	assert.True(t, types.Equal(f.intTy(), load.Type()))
}

func TestCoerceSuperclass(t *testing.T) {
	f := newFixture()

	animal := &decl.TypeDecl{
		Base: decl.Base{Name: "Animal", Facts: database.EmptyFacts()},
		Kind: decl.ClassDecl,
	}
	animal.Ty = &types.Metatype{Instance: animal.DeclaredType()}

	dog := &decl.TypeDecl{
		Base:       decl.Base{Name: "Dog", Facts: database.EmptyFacts()},
		Kind:       decl.ClassDecl,
		Superclass: animal.DeclaredType(),
	}
	dog.Ty = &types.Metatype{Instance: dog.DeclaredType()}

	d := f.variable("d", dog.DeclaredType())
	ref := f.ref(d)

	ctx := apply.NewContext(f.db, f.world)
	result := apply.CoerceToType(ctx, apply.NewSolution(f.db), ref, animal.DeclaredType())

	upcast, ok := result.(*ast.DerivedToBase)
	require.True(t, ok)
	assert.True(t, types.Equal(animal.DeclaredType(), upcast.Type()))

	_, loaded := upcast.Sub.(*ast.Load)
	assert.True(t, loaded)
}

func TestCoerceRequalifiesLValue(t *testing.T) {
	f := newFixture()

	x := f.variable("x", f.intTy())
	ref := f.ref(x)

	destTy := &types.LValue{Object: f.intTy(), Quals: types.MemberAccessQuals}

	ctx := apply.NewContext(f.db, f.world)
	result := apply.CoerceToType(ctx, apply.NewSolution(f.db), ref, destTy)

	requalify, ok := result.(*ast.Requalify)
	require.True(t, ok)
	assert.True(t, types.Equal(destTy, requalify.Type()))

	// Changing qualifiers never round-trips through a load.
	_, isRef := requalify.Sub.(*ast.DeclRef)
	assert.True(t, isRef)
}

func TestCoerceSuperRefLoads(t *testing.T) {
	f := newFixture()

	animal := &decl.TypeDecl{
		Base: decl.Base{Name: "Animal", Facts: database.EmptyFacts()},
		Kind: decl.ClassDecl,
	}
	animal.Ty = &types.Metatype{Instance: animal.DeclaredType()}

	dog := &decl.TypeDecl{
		Base:       decl.Base{Name: "Dog", Facts: database.EmptyFacts()},
		Kind:       decl.ClassDecl,
		Superclass: animal.DeclaredType(),
	}
	dog.Ty = &types.Metatype{Instance: dog.DeclaredType()}

	super := &ast.SuperRef{Base: ast.NewBase(database.NullSpan())}
	super.SetType(&types.LValue{Object: dog.DeclaredType()})
	f.db.Register(super)

	ctx := apply.NewContext(f.db, f.world)
	result := apply.CoerceToType(ctx, apply.NewSolution(f.db), super, animal.DeclaredType())

	// super's type is refined in place, so a single load suffices and no
	// upcast is inserted.
	load, ok := result.(*ast.Load)
	require.True(t, ok)
	assert.True(t, types.Equal(animal.DeclaredType(), load.Type()))

	sub, isSuper := load.Sub.(*ast.SuperRef)
	require.True(t, isSuper)
	lvalue, isLValue := sub.Type().(*types.LValue)
	require.True(t, isLValue)
	assert.True(t, types.Equal(animal.DeclaredType(), lvalue.Object))
}

func TestErasureRecordsConformancesInTargetOrder(t *testing.T) {
	f := newFixture()

	printable := &decl.ProtocolDecl{
		Base:          decl.Base{Name: "Printable", Facts: database.EmptyFacts()},
		SelfArchetype: &types.Archetype{Name: "Self"},
	}
	comparable := &decl.ProtocolDecl{
		Base:          decl.Base{Name: "Comparable", Facts: database.EmptyFacts()},
		SelfArchetype: &types.Archetype{Name: "Self"},
	}

	confPrintable := &decl.Conformance{
		Ty:            f.pointTy(),
		Proto:         printable,
		Witnesses:     map[string]decl.Decl{},
		TypeWitnesses: map[*types.Archetype]types.Type{},
	}
	confComparable := &decl.Conformance{
		Ty:            f.pointTy(),
		Proto:         comparable,
		Witnesses:     map[string]decl.Decl{},
		TypeWitnesses: map[*types.Archetype]types.Type{},
	}

	// Registration order must not leak into the erasure.
	f.world.Conformances = append(f.world.Conformances, confComparable, confPrintable)

	v := f.variable("p", f.pointTy())
	ref := f.ref(v)

	existential := &types.Existential{Protocols: []types.Protocol{printable, comparable}}

	ctx := apply.NewContext(f.db, f.world)
	result := apply.CoerceToType(ctx, apply.NewSolution(f.db), ref, existential)

	require.False(t, ctx.Reporter.HasErrors())

	erasure, ok := result.(*ast.Erasure)
	require.True(t, ok)
	require.Len(t, erasure.Conformances, 2)
	assert.Same(t, confPrintable, erasure.Conformances[0])
	assert.Same(t, confComparable, erasure.Conformances[1])
}

func TestUserConversionViaConstructor(t *testing.T) {
	f := newFixture()

	ctor := &decl.ConstructorDecl{
		Base: decl.Base{
			Name: "init",
			Ty: &types.Function{
				Input:  &types.Metatype{Instance: f.pointTy()},
				Result: &types.Function{Input: f.intTy(), Result: f.pointTy()},
			},
			Facts: database.EmptyFacts(),
		},
		Container: f.pointTy(),
	}
	f.pointDecl.Members = append(f.pointDecl.Members, ctor)

	lit := &ast.IntegerLiteral{Base: ast.NewBase(database.NullSpan()), Value: "3"}
	lit.SetType(f.intTy())
	f.db.Register(lit)

	solution := apply.NewSolution(f.db)
	solution.RecordOverload(apply.NewLocator(lit).With(apply.PathConstructorMember), apply.SelectedOverload{
		Choice:   apply.OverloadChoice{Kind: apply.ChoiceDecl, Decl: ctor},
		OpenedTy: &types.Function{Input: f.intTy(), Result: f.pointTy()},
	})

	ctx := apply.NewContext(f.db, f.world)
	result := apply.CoerceToType(ctx, solution, lit, f.pointTy())

	require.False(t, ctx.Reporter.HasErrors())
	assert.True(t, types.Equal(f.pointTy(), result.Type()))

	call, ok := result.(*ast.Call)
	require.True(t, ok)
	_, viaCtor := call.Fn.(*ast.ConstructorRefCall)
	assert.True(t, viaCtor)
}

func TestCoerceReplaysOptionalRestriction(t *testing.T) {
	f := newFixture()

	optTy := &types.Optional{Value: f.intTy()}

	solution := apply.NewSolution(f.db)
	solution.RecordRestriction(f.intTy(), optTy, apply.RestrictValueToOptional)

	x := f.variable("x", f.intTy())
	ref := f.ref(x)

	ctx := apply.NewContext(f.db, f.world)
	result := apply.CoerceToType(ctx, solution, ref, optTy)

	inject, ok := result.(*ast.InjectIntoOptional)
	require.True(t, ok)
	assert.True(t, types.Equal(optTy, inject.Type()))
}

func TestFixedScore(t *testing.T) {
	f := newFixture()
	f.world.DefaultTypes[decl.IntegerLiteralProtocol] = f.intTy()

	tv := &types.TypeVariable{Id: 0, Anchor: decl.IntegerLiteralProtocol}
	solution := apply.NewSolution(f.db)
	solution.Bind(tv, f.intTy())

	// A literal at its protocol's default type earns one point.
	assert.Equal(t, 1, solution.FixedScore(f.world))

	conversion := &decl.FuncDecl{
		Base: decl.Base{
			Name:  "__conversion",
			Ty:    &types.Function{Input: f.intTy(), Result: f.pointTy()},
			Facts: database.EmptyFacts(),
		},
		Container:  f.intTy(),
		Instance:   true,
		Conversion: true,
	}

	anchor := &ast.IntegerLiteral{Base: ast.NewBase(database.NullSpan()), Value: "9"}
	f.db.Register(anchor)

	other := apply.NewSolution(f.db)
	other.Bind(tv, f.intTy())
	other.RecordOverload(apply.NewLocator(anchor), apply.SelectedOverload{
		Choice:   apply.OverloadChoice{Kind: apply.ChoiceDecl, Decl: conversion},
		OpenedTy: conversion.DeclType(),
	})

	// Committing to a user conversion costs two.
	assert.Equal(t, -1, other.FixedScore(f.world))
}

func TestApplyIsDeterministic(t *testing.T) {
	build := func() string {
		f := newFixture()

		tv := &types.TypeVariable{Id: 0}
		solution := apply.NewSolution(f.db)
		solution.Bind(tv, f.intTy())

		lit := &ast.IntegerLiteral{Base: ast.NewBase(database.NullSpan()), Value: "7"}
		lit.SetType(tv)
		f.db.Register(lit)

		ctx := apply.NewContext(f.db, f.world)
		return ast.DumpString(apply.ApplyTo(ctx, solution, lit))
	}

	first := build()
	for range 3 {
		assert.Equal(t, first, build())
	}
}
