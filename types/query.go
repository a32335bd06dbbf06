package types

import "slices"

// Equal reports structural equality of two types. Archetypes, type variables,
// and nominal declarations compare by identity; everything else compares by
// shape.
func Equal(left Type, right Type) bool {
	if left == right {
		return true
	}

	switch left := left.(type) {
	case *BuiltinInteger:
		right, ok := right.(*BuiltinInteger)
		return ok && left.Bits == right.Bits

	case *BuiltinFloat:
		right, ok := right.(*BuiltinFloat)
		return ok && left.Bits == right.Bits

	case *BuiltinRawPointer:
		_, ok := right.(*BuiltinRawPointer)
		return ok

	case *TypeVariable:
		return false

	case *Archetype:
		return false

	case *Nominal:
		right, ok := right.(*Nominal)
		if !ok || left.Decl != right.Decl || len(left.Args) != len(right.Args) {
			return false
		}

		for i, arg := range left.Args {
			if !Equal(arg, right.Args[i]) {
				return false
			}
		}

		return true

	case *Slice:
		right, ok := right.(*Slice)
		return ok && Equal(left.Element, right.Element)

	case *Tuple:
		right, ok := right.(*Tuple)
		if !ok || len(left.Elements) != len(right.Elements) {
			return false
		}

		for i, element := range left.Elements {
			other := right.Elements[i]
			if element.Name != other.Name ||
				element.Variadic != other.Variadic ||
				!Equal(element.Ty, other.Ty) {
				return false
			}
		}

		return true

	case *Function:
		right, ok := right.(*Function)
		return ok &&
			left.AutoClosure == right.AutoClosure &&
			left.Foreign == right.Foreign &&
			Equal(left.Input, right.Input) &&
			Equal(left.Result, right.Result)

	case *Polymorphic:
		right, ok := right.(*Polymorphic)
		return ok &&
			slices.Equal(left.Params, right.Params) &&
			Equal(left.Input, right.Input) &&
			Equal(left.Result, right.Result)

	case *LValue:
		right, ok := right.(*LValue)
		return ok && left.Quals == right.Quals && Equal(left.Object, right.Object)

	case *Optional:
		right, ok := right.(*Optional)
		return ok && Equal(left.Value, right.Value)

	case *Metatype:
		right, ok := right.(*Metatype)
		return ok && Equal(left.Instance, right.Instance)

	case *Existential:
		right, ok := right.(*Existential)
		return ok && slices.Equal(left.Protocols, right.Protocols)

	case *Module:
		right, ok := right.(*Module)
		return ok && left.Name == right.Name

	default:
		return false
	}
}

// RValue strips an outer lvalue qualifier, if any.
func RValue(ty Type) Type {
	if lvalue, ok := ty.(*LValue); ok {
		return lvalue.Object
	}

	return ty
}

func IsLValue(ty Type) bool {
	_, ok := ty.(*LValue)
	return ok
}

func IsExistential(ty Type) bool {
	_, ok := ty.(*Existential)
	return ok
}

// ExistentialProtocols returns the protocols a type erases to, treating an
// archetype's conformances the same as an existential's protocol set.
func ExistentialProtocols(ty Type) ([]Protocol, bool) {
	switch ty := ty.(type) {
	case *Existential:
		return ty.Protocols, true
	case *Archetype:
		return ty.Conforms, true
	default:
		return nil, false
	}
}

// ReferenceSemantics reports whether values of this type are shared rather
// than copied when passed as a receiver. Functions and metatypes behave like
// references for receiver purposes.
func ReferenceSemantics(ty Type) bool {
	switch ty := ty.(type) {
	case *Nominal:
		return ty.Decl.ReferenceSemantics()
	case *Function, *Polymorphic, *Metatype, *Module:
		return true
	case *Archetype:
		return ty.Superclass != nil
	default:
		return false
	}
}

// MayHaveSuperclass reports whether a superclass walk could succeed: class
// types and class-bounded archetypes only.
func MayHaveSuperclass(ty Type) bool {
	switch ty := ty.(type) {
	case *Nominal:
		return ty.Decl.ReferenceSemantics()
	case *Archetype:
		return ty.Superclass != nil
	default:
		return false
	}
}

// Superclass returns the immediate superclass of a class type or archetype,
// with the subclass's generic arguments substituted through, or nil at the
// root of a hierarchy.
func Superclass(ty Type) Type {
	switch ty := ty.(type) {
	case *Nominal:
		super := ty.Decl.SuperclassType()
		if super == nil {
			return nil
		}

		params := ty.Decl.GenericParams()
		if len(params) == 0 || len(ty.Args) == 0 {
			return super
		}

		substitutions := make(map[*Archetype]Type, len(params))
		for i, param := range params {
			substitutions[param] = ty.Args[i]
		}

		return Subst(super, substitutions)

	case *Archetype:
		return ty.Superclass

	default:
		return nil
	}
}

// IsSuperclassOf reports whether super appears on ty's superclass chain,
// excluding ty itself.
func IsSuperclassOf(super Type, ty Type) bool {
	for current := Superclass(ty); current != nil; current = Superclass(current) {
		if Equal(current, super) {
			return true
		}
	}

	return false
}
