package types

import "fmt"

// Transform rebuilds a type bottom-up. f is applied to every type before its
// children; returning done stops descent into that type. Kinds without
// children are returned as-is, so identity transforms preserve pointer
// identity for leaf types.
func Transform(ty Type, f func(Type) (Type, bool)) Type {
	ty, done := f(ty)
	if done {
		return ty
	}

	switch ty := ty.(type) {
	case *BuiltinInteger, *BuiltinFloat, *BuiltinRawPointer, *TypeVariable,
		*Archetype, *Existential, *Module:
		return ty

	case *Nominal:
		if len(ty.Args) == 0 {
			return ty
		}

		args := make([]Type, len(ty.Args))
		for i, arg := range ty.Args {
			args[i] = Transform(arg, f)
		}

		return &Nominal{Decl: ty.Decl, Args: args}

	case *Slice:
		return &Slice{Element: Transform(ty.Element, f)}

	case *Tuple:
		elements := make([]TupleElement, len(ty.Elements))
		for i, element := range ty.Elements {
			element.Ty = Transform(element.Ty, f)
			elements[i] = element
		}

		return &Tuple{Elements: elements}

	case *Function:
		return &Function{
			Input:       Transform(ty.Input, f),
			Result:      Transform(ty.Result, f),
			AutoClosure: ty.AutoClosure,
			Foreign:     ty.Foreign,
		}

	case *Polymorphic:
		return &Polymorphic{
			Params: ty.Params,
			Input:  Transform(ty.Input, f),
			Result: Transform(ty.Result, f),
		}

	case *LValue:
		return &LValue{Object: Transform(ty.Object, f), Quals: ty.Quals}

	case *Optional:
		return &Optional{Value: Transform(ty.Value, f)}

	case *Metatype:
		return &Metatype{Instance: Transform(ty.Instance, f)}

	default:
		panic(fmt.Sprintf("invalid type: %T", ty))
	}
}

// Subst replaces archetypes with their substitutions throughout a type.
func Subst(ty Type, substitutions map[*Archetype]Type) Type {
	if len(substitutions) == 0 {
		return ty
	}

	return Transform(ty, func(ty Type) (Type, bool) {
		if archetype, ok := ty.(*Archetype); ok {
			if replacement, ok := substitutions[archetype]; ok {
				return replacement, true
			}
		}

		return ty, false
	})
}

func HasTypeVariable(ty Type) bool {
	found := false
	Transform(ty, func(ty Type) (Type, bool) {
		if _, ok := ty.(*TypeVariable); ok {
			found = true
		}

		return ty, found
	})

	return found
}

func HasArchetype(ty Type) bool {
	found := false
	Transform(ty, func(ty Type) (Type, bool) {
		if _, ok := ty.(*Archetype); ok {
			found = true
		}

		return ty, found
	})

	return found
}
