package types

import (
	"fmt"
	"strings"
)

// Display renders a type for diagnostics.
func Display(ty Type) string {
	switch ty := ty.(type) {
	case *BuiltinInteger:
		return fmt.Sprintf("Builtin.Int%d", ty.Bits)

	case *BuiltinFloat:
		return fmt.Sprintf("Builtin.Float%d", ty.Bits)

	case *BuiltinRawPointer:
		return "Builtin.RawPointer"

	case *TypeVariable:
		return fmt.Sprintf("$T%d", ty.Id)

	case *Archetype:
		return ty.Name

	case *Nominal:
		if len(ty.Args) == 0 {
			return ty.Decl.NominalName()
		}

		args := make([]string, len(ty.Args))
		for i, arg := range ty.Args {
			args[i] = Display(arg)
		}

		return fmt.Sprintf("%s<%s>", ty.Decl.NominalName(), strings.Join(args, ", "))

	case *Slice:
		return fmt.Sprintf("%s[]", Display(ty.Element))

	case *Tuple:
		elements := make([]string, len(ty.Elements))
		for i, element := range ty.Elements {
			rendered := Display(element.Ty)
			if element.Variadic {
				slice := element.Ty.(*Slice)
				rendered = Display(slice.Element) + "..."
			}

			if element.Name != "" {
				rendered = element.Name + ": " + rendered
			}

			if element.HasDefault() {
				rendered += " = default"
			}

			elements[i] = rendered
		}

		return "(" + strings.Join(elements, ", ") + ")"

	case *Function:
		prefix := ""
		if ty.AutoClosure {
			prefix = "@auto_closure "
		}

		if ty.Foreign {
			prefix += "@objc_block "
		}

		return fmt.Sprintf("%s%s -> %s", prefix, displayOperand(ty.Input), Display(ty.Result))

	case *Polymorphic:
		params := make([]string, len(ty.Params))
		for i, param := range ty.Params {
			params[i] = param.Name
		}

		return fmt.Sprintf("<%s> %s -> %s",
			strings.Join(params, ", "), displayOperand(ty.Input), Display(ty.Result))

	case *LValue:
		return fmt.Sprintf("@lvalue %s", Display(ty.Object))

	case *Optional:
		return displayOperand(ty.Value) + "?"

	case *Metatype:
		return displayOperand(ty.Instance) + ".Type"

	case *Existential:
		if len(ty.Protocols) == 0 {
			return "Any"
		}

		names := make([]string, len(ty.Protocols))
		for i, proto := range ty.Protocols {
			names[i] = proto.ProtocolName()
		}

		return strings.Join(names, " & ")

	case *Module:
		return fmt.Sprintf("module<%s>", ty.Name)

	default:
		panic(fmt.Sprintf("invalid type: %T", ty))
	}
}

// displayOperand parenthesizes types whose rendering would be ambiguous as an
// operand of ->, ?, or .Type.
func displayOperand(ty Type) string {
	switch ty.(type) {
	case *Function, *Polymorphic, *LValue, *Existential:
		return "(" + Display(ty) + ")"
	default:
		return Display(ty)
	}
}

// Canonical renders a type to a string under which value-equal types collide.
// Unlike Display, identity-compared leaves (archetypes, type variables,
// nominal declarations) are disambiguated by pointer, so the result is usable
// as a map key standing in for structural equality.
func Canonical(ty Type) string {
	var sb strings.Builder
	canonical(&sb, ty)
	return sb.String()
}

func canonical(sb *strings.Builder, ty Type) {
	switch ty := ty.(type) {
	case *BuiltinInteger:
		fmt.Fprintf(sb, "bi%d", ty.Bits)

	case *BuiltinFloat:
		fmt.Fprintf(sb, "bf%d", ty.Bits)

	case *BuiltinRawPointer:
		sb.WriteString("bp")

	case *TypeVariable:
		fmt.Fprintf(sb, "tv%d", ty.Id)

	case *Archetype:
		fmt.Fprintf(sb, "ar%p", ty)

	case *Nominal:
		fmt.Fprintf(sb, "no%p<", ty.Decl)
		for _, arg := range ty.Args {
			canonical(sb, arg)
			sb.WriteByte(',')
		}
		sb.WriteByte('>')

	case *Slice:
		sb.WriteString("sl[")
		canonical(sb, ty.Element)
		sb.WriteByte(']')

	case *Tuple:
		sb.WriteString("tu(")
		for _, element := range ty.Elements {
			fmt.Fprintf(sb, "%s:", element.Name)
			if element.Variadic {
				sb.WriteString("...")
			}
			canonical(sb, element.Ty)
			sb.WriteByte(',')
		}
		sb.WriteByte(')')

	case *Function:
		sb.WriteString("fn")
		if ty.AutoClosure {
			sb.WriteByte('a')
		}
		if ty.Foreign {
			sb.WriteByte('f')
		}
		sb.WriteByte('(')
		canonical(sb, ty.Input)
		sb.WriteString(")->")
		canonical(sb, ty.Result)

	case *Polymorphic:
		sb.WriteString("po<")
		for _, param := range ty.Params {
			fmt.Fprintf(sb, "%p,", param)
		}
		sb.WriteString(">(")
		canonical(sb, ty.Input)
		sb.WriteString(")->")
		canonical(sb, ty.Result)

	case *LValue:
		fmt.Fprintf(sb, "lv%d[", ty.Quals)
		canonical(sb, ty.Object)
		sb.WriteByte(']')

	case *Optional:
		sb.WriteString("op[")
		canonical(sb, ty.Value)
		sb.WriteByte(']')

	case *Metatype:
		sb.WriteString("mt[")
		canonical(sb, ty.Instance)
		sb.WriteByte(']')

	case *Existential:
		sb.WriteString("ex{")
		for _, proto := range ty.Protocols {
			fmt.Fprintf(sb, "%p,", proto)
		}
		sb.WriteByte('}')

	case *Module:
		fmt.Fprintf(sb, "mo%s", ty.Name)

	default:
		panic(fmt.Sprintf("invalid type: %T", ty))
	}
}
