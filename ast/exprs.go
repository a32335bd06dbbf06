package ast

import (
	"quill/decl"
	"quill/types"
)

// Literals. Integer and float literals keep their source text so values wider
// than the host's integers survive until they are emitted into the widest
// builtin literal type.

type IntegerLiteral struct {
	Base
	Value string
}

type FloatLiteral struct {
	Base
	Value string
}

type CharacterLiteral struct {
	Base
	Value rune
}

type StringLiteral struct {
	Base
	Value string
}

// InterpolatedString holds the literal and expression segments of a string
// interpolation in source order. Semantic is the witness call that builds the
// string, filled in during application.
type InterpolatedString struct {
	Base
	Segments []Expr
	Semantic Expr
}

type ArrayLiteral struct {
	Base
	Elements []Expr
	Semantic Expr
}

// DictionaryLiteral elements are (key, value) tuple expressions.
type DictionaryLiteral struct {
	Base
	Elements []Expr
	Semantic Expr
}

// MagicIdentifier is __FILE__, __LINE__, or __COLUMN__; Kind is never
// NoDefault or NormalDefault.
type MagicIdentifier struct {
	Base
	Kind types.DefaultArgKind
}

// References.

type DeclRef struct {
	Base
	Decl decl.Decl
}

// OverloadedDeclRef is a name that resolved to several candidates; the
// recorded overload choice picks one during application.
type OverloadedDeclRef struct {
	Base
	Decls []decl.Decl
}

type OverloadedMemberRef struct {
	Base
	BaseExpr Expr
	Decls    []decl.Decl
}

type MemberRef struct {
	Base
	BaseExpr Expr
	Member   decl.Decl
}

// ExistentialMemberRef accesses a protocol member through an existential
// base; the opened archetype is implicit.
type ExistentialMemberRef struct {
	Base
	BaseExpr Expr
	Member   decl.Decl
}

type ArchetypeMemberRef struct {
	Base
	BaseExpr Expr
	Member   decl.Decl
}

// DynamicMemberRef accesses a member found by dynamic lookup; the result is
// implicitly optional.
type DynamicMemberRef struct {
	Base
	BaseExpr Expr
	Member   decl.Decl
}

type UnresolvedDeclRef struct {
	Base
	Name string
}

type UnresolvedDot struct {
	Base
	BaseExpr Expr
	Name     string
}

// UnresolvedMember is leading-dot syntax (.member) whose base type comes from
// context.
type UnresolvedMember struct {
	Base
	Name string
}

// UnresolvedConstructor is a type value applied as a function, before the
// constructor overload is chosen.
type UnresolvedConstructor struct {
	Base
	BaseExpr Expr
}

// UnresolvedSpecialize is an explicit generic application Name<T1, T2>.
type UnresolvedSpecialize struct {
	Base
	Sub  Expr
	Args []types.Type
}

type SuperRef struct {
	Base
}

type ModuleRef struct {
	Base
	Module *decl.ModuleDecl
}

// MetatypeRef is base.metatype, or a direct reference to a type; Sub is nil
// when the type was named directly. Its type is a metatype.
type MetatypeRef struct {
	Base
	Sub Expr
}

// TupleElementIndex projects a tuple field by position, as in pair.1.
type TupleElementIndex struct {
	Base
	BaseExpr Expr
	Index    int
}

// Subscripts.

type Subscript struct {
	Base
	BaseExpr Expr
	Index    Expr
	Decl     *decl.SubscriptDecl
}

type ExistentialSubscript struct {
	Base
	BaseExpr Expr
	Index    Expr
	Decl     *decl.SubscriptDecl
}

type ArchetypeSubscript struct {
	Base
	BaseExpr Expr
	Index    Expr
	Decl     *decl.SubscriptDecl
}

type DynamicSubscript struct {
	Base
	BaseExpr Expr
	Index    Expr
	Decl     *decl.SubscriptDecl
}

type OverloadedSubscript struct {
	Base
	BaseExpr Expr
	Index    Expr
	Decls    []decl.Decl
}

// Structure.

type Paren struct {
	Base
	Sub Expr
}

type Tuple struct {
	Base
	Elements []Expr
	Names    []string
}

type Call struct {
	Base
	Fn  Expr
	Arg Expr
}

// ReceiverCall applies a member reference to its base: the Fn is the member,
// the Arg is the receiver.
type ReceiverCall struct {
	Base
	Fn  Expr
	Arg Expr
}

// ConstructorRefCall applies a constructor reference to the metatype it
// constructs.
type ConstructorRefCall struct {
	Base
	Fn  Expr
	Arg Expr
}

// BaseIgnored is dot syntax whose base contributes nothing but side effects,
// such as a module qualifier.
type BaseIgnored struct {
	Base
	BaseExpr Expr
	Member   Expr
}

type Closure struct {
	Base
	Params   []*decl.VarDecl
	Body     Expr
	Captures []decl.Decl
}

// AutoClosure wraps an argument expression in an implicit nullary closure.
type AutoClosure struct {
	Base
	Body Expr
}

type Assign struct {
	Base
	Dest Expr
	Src  Expr
}

// Discard is the wildcard pattern `_` in assignment position.
type Discard struct {
	Base
}

// If is the ternary conditional expression.
type If struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

// BindOptional unwraps an optional inside an enclosing OptionalEvaluation,
// short-circuiting to nil when the operand is nil.
type BindOptional struct {
	Base
	Sub Expr
}

type OptionalEvaluation struct {
	Base
	Sub Expr
}

type ForceValue struct {
	Base
	Sub Expr
}

type Is struct {
	Base
	Sub      Expr
	TargetTy types.Type
}

type ConditionalCheckedCast struct {
	Base
	Sub      Expr
	TargetTy types.Type
}

// Coerce is an explicit `as` coercion to a stated type.
type Coerce struct {
	Base
	Sub      Expr
	TargetTy types.Type
}

type AddressOf struct {
	Base
	Sub Expr
}

// DefaultValue marks a position filled by a default argument; Sub is set once
// the owning declaration is known.
type DefaultValue struct {
	Base
	Sub Expr
}

// Error is a placeholder for an expression that failed earlier phases.
type Error struct {
	Base
}
