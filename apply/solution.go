package apply

import (
	"fmt"

	"quill/database"
	"quill/decl"
	"quill/types"
)

// ChoiceKind distinguishes what an overload choice selected.
type ChoiceKind int

const (
	// ChoiceDecl picks a declaration.
	ChoiceDecl ChoiceKind = iota
	// ChoiceDeclViaDynamic picks a declaration found through dynamic lookup.
	ChoiceDeclViaDynamic
	// ChoiceTypeDecl picks a type declaration referenced as a value.
	ChoiceTypeDecl
	// ChoiceBaseType resolves a constructor applied to a non-metatype base.
	ChoiceBaseType
	// ChoiceFunctionReturningBaseType treats the base itself as a nullary
	// function producing its type.
	ChoiceFunctionReturningBaseType
	// ChoiceIdentityFunction treats the base as the identity function.
	ChoiceIdentityFunction
	// ChoiceTupleIndex projects a tuple field.
	ChoiceTupleIndex
)

// OverloadChoice is one resolution of an overloaded reference: the base type
// it was found on and what was selected.
type OverloadChoice struct {
	BaseTy     types.Type
	Kind       ChoiceKind
	Decl       decl.Decl
	TupleIndex int
}

// SelectedOverload pairs a choice with the opened type the solver assigned to
// the reference.
type SelectedOverload struct {
	Choice   OverloadChoice
	OpenedTy types.Type
}

// Restriction names the conversion rule the solver committed to for a pair of
// types, letting application replay the decision instead of re-deriving it.
type Restriction int

const (
	RestrictTupleToTuple Restriction = iota
	RestrictScalarToTuple
	RestrictDeepEquality
	RestrictSuperclass
	RestrictLValueToRValue
	RestrictExistential
	RestrictValueToOptional
	RestrictUser
)

// TypePair keys a restriction by the canonical renderings of its sides, so
// value-equal types committed at different places share one entry.
type TypePair struct {
	From string
	To   string
}

// Solution is the solver's output: type variable bindings, overload choices
// keyed by locator, and conversion restrictions keyed by type pair.
type Solution struct {
	db           *database.Db
	bindings     map[*types.TypeVariable]types.Type
	overloads    map[string]SelectedOverload
	restrictions map[TypePair]Restriction

	score     int
	haveScore bool
}

func NewSolution(db *database.Db) *Solution {
	return &Solution{
		db:           db,
		bindings:     map[*types.TypeVariable]types.Type{},
		overloads:    map[string]SelectedOverload{},
		restrictions: map[TypePair]Restriction{},
	}
}

func (solution *Solution) Bind(tv *types.TypeVariable, ty types.Type) {
	solution.bindings[tv] = ty
	solution.haveScore = false
}

func (solution *Solution) RecordOverload(locator *Locator, overload SelectedOverload) {
	solution.overloads[locator.Key(solution.db)] = overload
	solution.haveScore = false
}

func (solution *Solution) RecordRestriction(from types.Type, to types.Type, restriction Restriction) {
	solution.restrictions[restrictionKey(from, to)] = restriction
}

func restrictionKey(from types.Type, to types.Type) TypePair {
	return TypePair{From: types.Canonical(from), To: types.Canonical(to)}
}

// OverloadFor looks up the choice recorded at a locator, falling back to the
// simplified locator when the exact one has no entry.
func (solution *Solution) OverloadFor(locator *Locator) (SelectedOverload, bool) {
	if overload, ok := solution.overloads[locator.Key(solution.db)]; ok {
		return overload, true
	}

	overload, ok := solution.overloads[locator.Simplify().Key(solution.db)]
	return overload, ok
}

// RestrictionFor looks up the conversion rule committed for a pair of types.
// Both sides are simplified first.
func (solution *Solution) RestrictionFor(from types.Type, to types.Type) (Restriction, bool) {
	restriction, ok := solution.restrictions[restrictionKey(
		solution.SimplifyType(from), solution.SimplifyType(to))]
	return restriction, ok
}

// FixedType resolves a type variable through the bindings until a
// non-variable type is reached. Asking for an unbound variable is a logic
// error; a complete solution binds everything.
func (solution *Solution) FixedType(tv *types.TypeVariable) types.Type {
	binding, ok := solution.bindings[tv]
	if !ok {
		panic(fmt.Sprintf("type variable $T%d has no binding", tv.Id))
	}

	return solution.SimplifyType(binding)
}

// SimplifyType replaces every type variable in ty with its fixed type.
func (solution *Solution) SimplifyType(ty types.Type) types.Type {
	return types.Transform(ty, func(ty types.Type) (types.Type, bool) {
		if tv, ok := ty.(*types.TypeVariable); ok {
			return solution.FixedType(tv), true
		}

		return ty, false
	})
}
