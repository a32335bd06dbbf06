package decl

import (
	"fmt"

	"quill/types"
)

// KnownProtocol identifies the protocols the rewriter has special knowledge
// of: the literal protocols, their builtin-literal refinements, and the
// conversion protocols for conditions and bounds checks.
type KnownProtocol int

const (
	IntegerLiteralProtocol KnownProtocol = iota
	BuiltinIntegerLiteralProtocol
	FloatLiteralProtocol
	BuiltinFloatLiteralProtocol
	CharacterLiteralProtocol
	BuiltinCharacterLiteralProtocol
	StringLiteralProtocol
	BuiltinStringLiteralProtocol
	StringInterpolationProtocol
	ArrayLiteralProtocol
	DictionaryLiteralProtocol
	LogicValueProtocol
	ArrayBoundProtocol
	DynamicLookupProtocol
)

func (kp KnownProtocol) String() string {
	switch kp {
	case IntegerLiteralProtocol:
		return "IntegerLiteralConvertible"
	case BuiltinIntegerLiteralProtocol:
		return "BuiltinIntegerLiteralConvertible"
	case FloatLiteralProtocol:
		return "FloatLiteralConvertible"
	case BuiltinFloatLiteralProtocol:
		return "BuiltinFloatLiteralConvertible"
	case CharacterLiteralProtocol:
		return "CharacterLiteralConvertible"
	case BuiltinCharacterLiteralProtocol:
		return "BuiltinCharacterLiteralConvertible"
	case StringLiteralProtocol:
		return "StringLiteralConvertible"
	case BuiltinStringLiteralProtocol:
		return "BuiltinStringLiteralConvertible"
	case StringInterpolationProtocol:
		return "StringInterpolationConvertible"
	case ArrayLiteralProtocol:
		return "ArrayLiteralConvertible"
	case DictionaryLiteralProtocol:
		return "DictionaryLiteralConvertible"
	case LogicValueProtocol:
		return "LogicValue"
	case ArrayBoundProtocol:
		return "ArrayBound"
	case DynamicLookupProtocol:
		return "DynamicLookup"
	default:
		panic(fmt.Sprintf("invalid known protocol: %d", kp))
	}
}

// Conformance records that Ty satisfies Proto. Witnesses map requirement
// names to the declarations that fulfill them; TypeWitnesses map the
// protocol's associated archetypes (including Self) to concrete types.
type Conformance struct {
	Ty            types.Type
	Proto         *ProtocolDecl
	Witnesses     map[string]Decl
	TypeWitnesses map[*types.Archetype]types.Type
}

// Witness returns the declaration fulfilling a named requirement, or nil if
// the conformance does not record one.
func (conformance *Conformance) Witness(name string) Decl {
	return conformance.Witnesses[name]
}

// TypeWitness returns the concrete type fulfilling a named associated type,
// or nil if the conformance does not record one.
func (conformance *Conformance) TypeWitness(name string) types.Type {
	for archetype, ty := range conformance.TypeWitnesses {
		if archetype.Name == name {
			return ty
		}
	}

	return nil
}

// World is everything the rewriter knows about the surrounding program:
// which declarations play the known-protocol roles, what each literal
// protocol's default type is, and which conformances hold.
type World struct {
	Protocols    map[KnownProtocol]*ProtocolDecl
	DefaultTypes map[KnownProtocol]types.Type
	Conformances []*Conformance

	// MaxIntegerBits and MaxFloatBits bound the builtin types literal values
	// are carried in before conversion to their user type.
	MaxIntegerBits int
	MaxFloatBits   int

	// ArrayInjection converts a builtin buffer into the slice type used for
	// variadic arguments and array literals.
	ArrayInjection *FuncDecl
}

func NewWorld() *World {
	return &World{
		Protocols:      map[KnownProtocol]*ProtocolDecl{},
		DefaultTypes:   map[KnownProtocol]types.Type{},
		MaxIntegerBits: 128,
		MaxFloatBits:   64,
	}
}

// KnownProtocolDecl returns the declaration playing a known-protocol role, or
// nil if the world does not define one.
func (world *World) KnownProtocolDecl(kp KnownProtocol) *ProtocolDecl {
	return world.Protocols[kp]
}

// KnownProtocolKind reports which known-protocol role a protocol declaration
// plays, if any.
func (world *World) KnownProtocolKind(proto *ProtocolDecl) (KnownProtocol, bool) {
	for kp, decl := range world.Protocols {
		if decl == proto {
			return kp, true
		}
	}

	return 0, false
}

// DefaultType returns the type a literal protocol defaults to when the
// context does not constrain it.
func (world *World) DefaultType(kp KnownProtocol) types.Type {
	return world.DefaultTypes[kp]
}

// ConformanceOf looks up the recorded conformance of ty to proto.
func (world *World) ConformanceOf(ty types.Type, proto *ProtocolDecl) (*Conformance, bool) {
	for _, conformance := range world.Conformances {
		if conformance.Proto == proto && types.Equal(conformance.Ty, ty) {
			return conformance, true
		}
	}

	return nil, false
}

// MaxIntegerLiteralType is the widest builtin integer type literal values
// pass through.
func (world *World) MaxIntegerLiteralType() types.Type {
	return &types.BuiltinInteger{Bits: world.MaxIntegerBits}
}

// MaxFloatLiteralType is the widest builtin float type literal values pass
// through.
func (world *World) MaxFloatLiteralType() types.Type {
	return &types.BuiltinFloat{Bits: world.MaxFloatBits}
}
