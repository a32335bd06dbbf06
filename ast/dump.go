package ast

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"quill/decl"
	"quill/types"
)

// Dump writes a stable, indented rendering of an expression tree, one node
// per line with its final type. The output is what snapshot tests compare.
func Dump(w io.Writer, expr Expr) {
	var sb strings.Builder
	dump(&sb, expr, 0)
	sb.WriteByte('\n')

	if _, err := io.WriteString(w, sb.String()); err != nil {
		panic(err)
	}
}

// DumpString renders an expression tree to a string.
func DumpString(expr Expr) string {
	var sb strings.Builder
	Dump(&sb, expr)
	return sb.String()
}

func dump(sb *strings.Builder, expr Expr, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))

	if expr == nil {
		sb.WriteString("(nil)")
		return
	}

	sb.WriteByte('(')
	sb.WriteString(reflect.TypeOf(expr).Elem().Name())

	if ty := expr.Type(); ty != nil {
		fmt.Fprintf(sb, " type='%s'", types.Display(ty))
	}

	if expr.IsImplicit() {
		sb.WriteString(" implicit")
	}

	dumpAttrs(sb, expr)

	for _, child := range children(expr) {
		sb.WriteByte('\n')
		dump(sb, child, depth+1)
	}

	sb.WriteByte(')')
}

func dumpAttrs(sb *strings.Builder, expr Expr) {
	switch expr := expr.(type) {
	case *IntegerLiteral:
		fmt.Fprintf(sb, " value=%s", expr.Value)
	case *FloatLiteral:
		fmt.Fprintf(sb, " value=%s", expr.Value)
	case *CharacterLiteral:
		fmt.Fprintf(sb, " value=%q", expr.Value)
	case *StringLiteral:
		fmt.Fprintf(sb, " value=%q", expr.Value)
	case *MagicIdentifier:
		fmt.Fprintf(sb, " kind=%s", magicName(expr.Kind))
	case *DeclRef:
		fmt.Fprintf(sb, " decl=%s", expr.Decl.DeclName())
	case *OverloadedDeclRef:
		fmt.Fprintf(sb, " decls=%s", declNames(expr.Decls))
	case *OverloadedMemberRef:
		fmt.Fprintf(sb, " decls=%s", declNames(expr.Decls))
	case *MemberRef:
		fmt.Fprintf(sb, " member=%s", expr.Member.DeclName())
	case *ExistentialMemberRef:
		fmt.Fprintf(sb, " member=%s", expr.Member.DeclName())
	case *ArchetypeMemberRef:
		fmt.Fprintf(sb, " member=%s", expr.Member.DeclName())
	case *DynamicMemberRef:
		fmt.Fprintf(sb, " member=%s", expr.Member.DeclName())
	case *UnresolvedDeclRef:
		fmt.Fprintf(sb, " name=%s", expr.Name)
	case *UnresolvedDot:
		fmt.Fprintf(sb, " name=%s", expr.Name)
	case *UnresolvedMember:
		fmt.Fprintf(sb, " name=%s", expr.Name)
	case *ModuleRef:
		fmt.Fprintf(sb, " module=%s", expr.Module.DeclName())
	case *Subscript:
		fmt.Fprintf(sb, " decl=%s", expr.Decl.DeclName())
	case *ExistentialSubscript:
		fmt.Fprintf(sb, " decl=%s", expr.Decl.DeclName())
	case *ArchetypeSubscript:
		fmt.Fprintf(sb, " decl=%s", expr.Decl.DeclName())
	case *DynamicSubscript:
		fmt.Fprintf(sb, " decl=%s", expr.Decl.DeclName())
	case *TupleElementIndex:
		fmt.Fprintf(sb, " index=%d", expr.Index)
	case *Tuple:
		if len(expr.Names) > 0 {
			fmt.Fprintf(sb, " names=%s", strings.Join(expr.Names, ","))
		}
	case *Closure:
		names := make([]string, len(expr.Params))
		for i, param := range expr.Params {
			names[i] = param.DeclName()
		}
		fmt.Fprintf(sb, " params=(%s)", strings.Join(names, ", "))
	case *Is:
		fmt.Fprintf(sb, " target='%s'", types.Display(expr.TargetTy))
	case *ConditionalCheckedCast:
		fmt.Fprintf(sb, " target='%s'", types.Display(expr.TargetTy))
	case *Coerce:
		fmt.Fprintf(sb, " target='%s'", types.Display(expr.TargetTy))
	case *Erasure:
		names := make([]string, len(expr.Conformances))
		for i, conformance := range expr.Conformances {
			names[i] = conformance.Proto.ProtocolName()
		}
		fmt.Fprintf(sb, " conforms=(%s)", strings.Join(names, ", "))
	case *TupleShuffle:
		fmt.Fprintf(sb, " mapping=%v", expr.Mapping)
		if len(expr.Variadics) > 0 {
			fmt.Fprintf(sb, " variadics=%v", expr.Variadics)
		}
		if expr.DefaultsOwner != nil {
			fmt.Fprintf(sb, " defaults_owner=%s", expr.DefaultsOwner.DeclName())
		}
	case *ScalarToTuple:
		fmt.Fprintf(sb, " field=%d", expr.Field)
		if expr.DefaultsOwner != nil {
			fmt.Fprintf(sb, " defaults_owner=%s", expr.DefaultsOwner.DeclName())
		}
	case *Specialize:
		parts := make([]string, len(expr.Substitutions))
		for i, substitution := range expr.Substitutions {
			parts[i] = fmt.Sprintf("%s=%s",
				substitution.Param.Name, types.Display(substitution.Replacement))
		}
		fmt.Fprintf(sb, " subst=(%s)", strings.Join(parts, ", "))
	}
}

func declNames(decls []decl.Decl) string {
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.DeclName()
	}

	return strings.Join(names, ",")
}

func magicName(kind types.DefaultArgKind) string {
	switch kind {
	case types.FileDefault:
		return "__FILE__"
	case types.LineDefault:
		return "__LINE__"
	case types.ColumnDefault:
		return "__COLUMN__"
	default:
		panic(fmt.Sprintf("invalid magic identifier kind: %d", kind))
	}
}

func withSemantic(kids []Expr, semantic Expr) []Expr {
	if semantic == nil {
		return kids
	}

	out := make([]Expr, len(kids), len(kids)+1)
	copy(out, kids)
	return append(out, semantic)
}

// children returns the direct subexpressions of a node in source order.
// Synthesized caller defaults and injection functions count as children so
// dumps show everything application added.
func children(expr Expr) []Expr {
	switch expr := expr.(type) {
	case *InterpolatedString:
		return withSemantic(expr.Segments, expr.Semantic)
	case *ArrayLiteral:
		return withSemantic(expr.Elements, expr.Semantic)
	case *DictionaryLiteral:
		return withSemantic(expr.Elements, expr.Semantic)
	case *OverloadedMemberRef:
		return []Expr{expr.BaseExpr}
	case *MemberRef:
		return []Expr{expr.BaseExpr}
	case *ExistentialMemberRef:
		return []Expr{expr.BaseExpr}
	case *ArchetypeMemberRef:
		return []Expr{expr.BaseExpr}
	case *DynamicMemberRef:
		return []Expr{expr.BaseExpr}
	case *UnresolvedDot:
		return []Expr{expr.BaseExpr}
	case *UnresolvedConstructor:
		return []Expr{expr.BaseExpr}
	case *UnresolvedSpecialize:
		return []Expr{expr.Sub}
	case *MetatypeRef:
		if expr.Sub != nil {
			return []Expr{expr.Sub}
		}
		return nil
	case *TupleElementIndex:
		return []Expr{expr.BaseExpr}
	case *Subscript:
		return []Expr{expr.BaseExpr, expr.Index}
	case *ExistentialSubscript:
		return []Expr{expr.BaseExpr, expr.Index}
	case *ArchetypeSubscript:
		return []Expr{expr.BaseExpr, expr.Index}
	case *DynamicSubscript:
		return []Expr{expr.BaseExpr, expr.Index}
	case *OverloadedSubscript:
		return []Expr{expr.BaseExpr, expr.Index}
	case *Paren:
		return []Expr{expr.Sub}
	case *Tuple:
		return expr.Elements
	case *Call:
		return []Expr{expr.Fn, expr.Arg}
	case *ReceiverCall:
		return []Expr{expr.Fn, expr.Arg}
	case *ConstructorRefCall:
		return []Expr{expr.Fn, expr.Arg}
	case *BaseIgnored:
		return []Expr{expr.BaseExpr, expr.Member}
	case *Closure:
		return []Expr{expr.Body}
	case *AutoClosure:
		return []Expr{expr.Body}
	case *Assign:
		return []Expr{expr.Dest, expr.Src}
	case *If:
		return []Expr{expr.Cond, expr.Then, expr.Else}
	case *BindOptional:
		return []Expr{expr.Sub}
	case *OptionalEvaluation:
		return []Expr{expr.Sub}
	case *ForceValue:
		return []Expr{expr.Sub}
	case *Is:
		return []Expr{expr.Sub}
	case *ConditionalCheckedCast:
		return []Expr{expr.Sub}
	case *Coerce:
		return []Expr{expr.Sub}
	case *AddressOf:
		return []Expr{expr.Sub}
	case *DefaultValue:
		if expr.Sub != nil {
			return []Expr{expr.Sub}
		}
		return nil
	case *Load:
		return []Expr{expr.Sub}
	case *Requalify:
		return []Expr{expr.Sub}
	case *Materialize:
		return []Expr{expr.Sub}
	case *DerivedToBase:
		return []Expr{expr.Sub}
	case *ArchetypeToSuper:
		return []Expr{expr.Sub}
	case *Erasure:
		return []Expr{expr.Sub}
	case *FunctionConversion:
		return []Expr{expr.Sub}
	case *BridgeToForeign:
		return []Expr{expr.Sub}
	case *MetatypeConversion:
		return []Expr{expr.Sub}
	case *InjectIntoOptional:
		return []Expr{expr.Sub}
	case *TupleShuffle:
		kids := []Expr{expr.Sub}
		for _, d := range expr.CallerDefaults {
			if d != nil {
				kids = append(kids, d)
			}
		}
		if expr.Injection != nil {
			kids = append(kids, expr.Injection)
		}
		return kids
	case *ScalarToTuple:
		kids := []Expr{expr.Sub}
		for _, d := range expr.CallerDefaults {
			if d != nil {
				kids = append(kids, d)
			}
		}
		if expr.Injection != nil {
			kids = append(kids, expr.Injection)
		}
		return kids
	case *Specialize:
		return []Expr{expr.Sub}
	default:
		return nil
	}
}
