package ast

import (
	"quill/decl"
	"quill/types"
)

// Implicit conversion nodes. Each is synthesized by the rewriter at the span
// of the expression it converts, and each carries the conversion's result
// type.

// Load reads the value out of an lvalue.
type Load struct {
	Base
	Sub Expr
}

// Requalify adjusts the qualifiers of an lvalue without touching storage.
type Requalify struct {
	Base
	Sub Expr
}

// Materialize stores an rvalue into fresh implicit storage and yields an
// lvalue referring to it.
type Materialize struct {
	Base
	Sub Expr
}

// DerivedToBase converts a class value to one of its superclasses.
type DerivedToBase struct {
	Base
	Sub Expr
}

// ArchetypeToSuper converts a class-bounded archetype value to its
// superclass bound.
type ArchetypeToSuper struct {
	Base
	Sub Expr
}

// Erasure converts a concrete value to an existential; Conformances justify
// each protocol in the target, in the target's protocol order.
type Erasure struct {
	Base
	Sub          Expr
	Conformances []*decl.Conformance
}

type FunctionConversion struct {
	Base
	Sub Expr
}

// BridgeToForeign converts a native function value to a foreign-convention
// one.
type BridgeToForeign struct {
	Base
	Sub Expr
}

type MetatypeConversion struct {
	Base
	Sub Expr
}

// InjectIntoOptional wraps a value of T as T?.
type InjectIntoOptional struct {
	Base
	Sub Expr
}

// Destination field codes for TupleShuffle.Mapping. Non-negative entries name
// a source field. At FirstVariadic and below, -(code - FirstVariadic) would
// be ambiguous, so the variadic sources are listed in Variadics instead and a
// single FirstVariadic entry marks the destination.
const (
	DefaultInitialize       = -1
	CallerDefaultInitialize = -2
	FirstVariadic           = -3
)

// TupleShuffle rearranges the fields of a tuple. Mapping has one entry per
// destination field: a source index, DefaultInitialize for a callee-supplied
// default, CallerDefaultInitialize for an entry of CallerDefaults, or
// FirstVariadic for the variadic field collecting the sources in Variadics.
type TupleShuffle struct {
	Base
	Sub            Expr
	Mapping        []int
	Variadics      []int
	CallerDefaults []Expr
	DefaultsOwner  decl.Decl
	Injection      Expr
}

// ScalarToTuple builds a tuple from a single scalar. Field is the scalar's
// destination; CallerDefaults is indexed by destination field and nil where
// the callee initializes the default. Injection wraps the scalar into a
// slice when the destination field is variadic.
type ScalarToTuple struct {
	Base
	Sub            Expr
	Field          int
	CallerDefaults []Expr
	DefaultsOwner  decl.Decl
	Injection      Expr
}

// Substitution fixes one generic parameter of a specialized reference.
// Conformances justify the parameter's protocol requirements in declaration
// order.
type Substitution struct {
	Param        *types.Archetype
	Replacement  types.Type
	Conformances []*decl.Conformance
}

// Specialize applies a polymorphic reference at concrete types.
type Specialize struct {
	Base
	Sub           Expr
	Substitutions []Substitution
}

func (specialize *Specialize) SubstitutionMap() map[*types.Archetype]types.Type {
	substitutions := make(map[*types.Archetype]types.Type, len(specialize.Substitutions))
	for _, substitution := range specialize.Substitutions {
		substitutions[substitution.Param] = substitution.Replacement
	}

	return substitutions
}

func NewLoad(sub Expr, ty types.Type) *Load {
	return &Load{Base: SynthBase(sub, ty), Sub: sub}
}

func NewRequalify(sub Expr, ty types.Type) *Requalify {
	return &Requalify{Base: SynthBase(sub, ty), Sub: sub}
}

func NewMaterialize(sub Expr, ty types.Type) *Materialize {
	return &Materialize{Base: SynthBase(sub, ty), Sub: sub}
}

func NewDerivedToBase(sub Expr, ty types.Type) *DerivedToBase {
	return &DerivedToBase{Base: SynthBase(sub, ty), Sub: sub}
}

func NewArchetypeToSuper(sub Expr, ty types.Type) *ArchetypeToSuper {
	return &ArchetypeToSuper{Base: SynthBase(sub, ty), Sub: sub}
}

func NewErasure(sub Expr, ty types.Type, conformances []*decl.Conformance) *Erasure {
	return &Erasure{Base: SynthBase(sub, ty), Sub: sub, Conformances: conformances}
}

func NewFunctionConversion(sub Expr, ty types.Type) *FunctionConversion {
	return &FunctionConversion{Base: SynthBase(sub, ty), Sub: sub}
}

func NewBridgeToForeign(sub Expr, ty types.Type) *BridgeToForeign {
	return &BridgeToForeign{Base: SynthBase(sub, ty), Sub: sub}
}

func NewMetatypeConversion(sub Expr, ty types.Type) *MetatypeConversion {
	return &MetatypeConversion{Base: SynthBase(sub, ty), Sub: sub}
}

func NewInjectIntoOptional(sub Expr, ty types.Type) *InjectIntoOptional {
	return &InjectIntoOptional{Base: SynthBase(sub, ty), Sub: sub}
}

func NewSpecialize(sub Expr, ty types.Type, substitutions []Substitution) *Specialize {
	return &Specialize{Base: SynthBase(sub, ty), Sub: sub, Substitutions: substitutions}
}
