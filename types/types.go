package types

// Type is the closed set of type kinds the checker manipulates. Every kind is
// a pointer struct; switches over Type panic on anything else so a new kind
// forces every visit site to be updated.
type Type interface {
	isType()
}

// Protocol is implemented by protocol declarations. The type model only needs
// identity and a name; everything else is queried through the declaration
// model.
type Protocol interface {
	ProtocolName() string
}

// NominalRef is implemented by struct/class/enum declarations.
type NominalRef interface {
	NominalName() string
	ReferenceSemantics() bool
	SuperclassType() Type
	GenericParams() []*Archetype
}

type BuiltinInteger struct {
	Bits int
}

type BuiltinFloat struct {
	Bits int
}

type BuiltinRawPointer struct{}

// TypeVariable is a solver variable. Opened is the archetype the variable was
// opened from, if any. Anchor is an opaque tag recorded by the solver for
// scoring, such as the literal protocol the variable was created to satisfy.
type TypeVariable struct {
	Id     int
	Opened *Archetype
	Anchor any
}

// Archetype is an abstracted type parameter (a generic parameter or a
// protocol Self type).
type Archetype struct {
	Name       string
	Superclass Type
	Conforms   []Protocol
}

// Nominal is a struct, class, or enum type. A generic nominal with no Args is
// unspecialized.
type Nominal struct {
	Decl NominalRef
	Args []Type
}

type Slice struct {
	Element Type
}

type Tuple struct {
	Elements []TupleElement
}

type TupleElement struct {
	Name     string
	Ty       Type
	Default  DefaultArgKind
	Variadic bool
}

type Function struct {
	Input       Type
	Result      Type
	AutoClosure bool
	Foreign     bool
}

// Polymorphic is a generic function type; Params are the archetypes the
// function abstracts over.
type Polymorphic struct {
	Params []*Archetype
	Input  Type
	Result Type
}

type Qualifiers uint8

const (
	QualImplicit Qualifiers = 1 << iota
)

type LValue struct {
	Object Type
	Quals  Qualifiers
}

type Optional struct {
	Value Type
}

type Metatype struct {
	Instance Type
}

type Existential struct {
	Protocols []Protocol
}

type Module struct {
	Name string
}

func (*BuiltinInteger) isType()    {}
func (*BuiltinFloat) isType()      {}
func (*BuiltinRawPointer) isType() {}
func (*TypeVariable) isType()      {}
func (*Archetype) isType()         {}
func (*Nominal) isType()           {}
func (*Slice) isType()             {}
func (*Tuple) isType()             {}
func (*Function) isType()          {}
func (*Polymorphic) isType()       {}
func (*LValue) isType()            {}
func (*Optional) isType()          {}
func (*Metatype) isType()          {}
func (*Existential) isType()       {}
func (*Module) isType()            {}

// DefaultArgKind describes how an unmatched defaulted tuple field is filled
// in: by the callee, or by a caller-synthesized magic literal.
type DefaultArgKind int

const (
	NoDefault DefaultArgKind = iota
	NormalDefault
	FileDefault
	LineDefault
	ColumnDefault
)

// MemberAccessQuals is the qualifier set used for lvalues synthesized to
// access a member of a value-semantics base.
const MemberAccessQuals = QualImplicit
