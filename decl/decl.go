// Package decl models the declarations a solved expression tree can refer to.
// The rewriter never mutates declarations; it only reads their types, flags,
// and protocol relationships.
package decl

import (
	"quill/database"
	"quill/types"
)

type Decl interface {
	database.Node
	DeclName() string
	DeclType() types.Type
}

type Base struct {
	Name  string
	Ty    types.Type
	Facts *database.Facts
}

func (base *Base) DeclName() string {
	return base.Name
}

func (base *Base) DeclType() types.Type {
	return base.Ty
}

func (base *Base) GetFacts() *database.Facts {
	return base.Facts
}

type TypeDeclKind int

const (
	StructDecl TypeDeclKind = iota
	ClassDecl
	EnumDecl
)

// TypeDecl declares a struct, class, or enum. Ty is the metatype of the
// declared type.
type TypeDecl struct {
	Base
	Kind       TypeDeclKind
	Params     []*types.Archetype
	Superclass types.Type
	Conforms   []types.Protocol
	Members    []Decl
}

func (decl *TypeDecl) NominalName() string {
	return decl.Name
}

func (decl *TypeDecl) ReferenceSemantics() bool {
	return decl.Kind == ClassDecl
}

func (decl *TypeDecl) SuperclassType() types.Type {
	return decl.Superclass
}

func (decl *TypeDecl) GenericParams() []*types.Archetype {
	return decl.Params
}

// DeclaredType is the nominal type this declaration introduces, with its own
// generic parameters as arguments when generic.
func (decl *TypeDecl) DeclaredType() types.Type {
	nominal := &types.Nominal{Decl: decl}
	for _, param := range decl.Params {
		nominal.Args = append(nominal.Args, param)
	}

	return nominal
}

func (decl *TypeDecl) Member(name string) Decl {
	for _, member := range decl.Members {
		if member.DeclName() == name {
			return member
		}
	}

	return nil
}

// VarDecl declares a stored or computed variable. Container is the base type
// for member variables, nil otherwise. Stored variables of a value base are
// accessed directly; everything else goes through accessors, which this model
// leaves to later phases.
type VarDecl struct {
	Base
	Container types.Type
	Stored    bool
}

// FuncDecl declares a function or method. Container is the base type for
// instance and static members, nil for free functions. Operator, Conversion,
// and Assignment mirror the attributes the checker consults when building
// references.
type FuncDecl struct {
	Base
	Container  types.Type
	Instance   bool
	Static     bool
	Operator   bool
	Conversion bool
	Assignment bool

	// ArgClauses is the number of curried argument clauses, counting the
	// receiver clause for instance members. Zero means the default of one
	// clause plus the receiver.
	ArgClauses int
}

// NaturalArgumentCount is how many applications fully apply this function.
func (decl *FuncDecl) NaturalArgumentCount() int {
	if decl.ArgClauses > 0 {
		return decl.ArgClauses
	}

	if decl.Instance {
		return 2
	}

	return 1
}

// ConstructorDecl declares an initializer. Ty is the allocating reference
// type (arguments to instance); InitializerTy is the type of the initializing
// entry point applied after allocation.
type ConstructorDecl struct {
	Base
	Container     types.Type
	InitializerTy types.Type
}

type EnumElementDecl struct {
	Base
	Container types.Type
}

// SubscriptDecl declares a subscript; Ty is IndexTy -> ElementTy.
type SubscriptDecl struct {
	Base
	Container types.Type
	IndexTy   types.Type
	ElementTy types.Type
}

type ModuleDecl struct {
	Base
}

// ProtocolDecl declares a protocol. SelfArchetype stands for the conforming
// type inside member signatures.
type ProtocolDecl struct {
	Base
	SelfArchetype *types.Archetype
	Members       []Decl
}

func (decl *ProtocolDecl) ProtocolName() string {
	return decl.Name
}

func (decl *ProtocolDecl) Requirement(name string) Decl {
	for _, member := range decl.Members {
		if member.DeclName() == name {
			return member
		}
	}

	return nil
}

// UnopenedTypeOfReference is the type a bare reference to a declaration has
// before the solver opens it: variables are lvalues, everything else is the
// declared type.
func UnopenedTypeOfReference(decl Decl) types.Type {
	if _, ok := decl.(*VarDecl); ok {
		return &types.LValue{Object: decl.DeclType()}
	}

	return decl.DeclType()
}
