package apply

import (
	"fmt"
	"strings"

	"quill/ast"
	"quill/database"
)

// PathKind names one step from a locator's anchor expression toward the
// position the locator describes.
type PathKind int

const (
	PathApplyArgument PathKind = iota
	PathApplyFunction
	PathMember
	PathMemberRefBase
	PathSubscriptIndex
	PathSubscriptMember
	PathSubscriptResult
	PathConstructorMember
	PathConversionMember
	PathTupleElement
	PathGenericArgument
	PathInterpolationArgument
	PathFunctionArgument
	PathFunctionResult
	PathArrayElement
	PathScalarToTuple
	PathRvalueAdjustment
	PathLoad
)

func (kind PathKind) String() string {
	switch kind {
	case PathApplyArgument:
		return "apply_arg"
	case PathApplyFunction:
		return "apply_fn"
	case PathMember:
		return "member"
	case PathMemberRefBase:
		return "member_base"
	case PathSubscriptIndex:
		return "subscript_index"
	case PathSubscriptMember:
		return "subscript_member"
	case PathSubscriptResult:
		return "subscript_result"
	case PathConstructorMember:
		return "constructor_member"
	case PathConversionMember:
		return "conversion_member"
	case PathTupleElement:
		return "tuple_element"
	case PathGenericArgument:
		return "generic_arg"
	case PathInterpolationArgument:
		return "interpolation_arg"
	case PathFunctionArgument:
		return "fn_arg"
	case PathFunctionResult:
		return "fn_result"
	case PathArrayElement:
		return "array_element"
	case PathScalarToTuple:
		return "scalar_to_tuple"
	case PathRvalueAdjustment:
		return "rvalue"
	case PathLoad:
		return "load"
	default:
		panic(fmt.Sprintf("invalid path kind: %d", kind))
	}
}

type PathElt struct {
	Kind  PathKind
	Value int
}

// Locator names a position in the expression tree where the solver made a
// decision: an anchor node plus a path of steps into it. Locators are
// compared through their stable string keys.
type Locator struct {
	Anchor database.Node
	Path   []PathElt
}

func NewLocator(anchor database.Node) *Locator {
	return &Locator{Anchor: anchor}
}

// With extends the locator with one step; the receiver is not modified.
func (locator *Locator) With(kind PathKind) *Locator {
	return locator.WithValue(kind, 0)
}

func (locator *Locator) WithValue(kind PathKind, value int) *Locator {
	path := make([]PathElt, len(locator.Path), len(locator.Path)+1)
	copy(path, locator.Path)

	return &Locator{
		Anchor: locator.Anchor,
		Path:   append(path, PathElt{Kind: kind, Value: value}),
	}
}

func (locator *Locator) Key(db *database.Db) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "@%d", db.Register(locator.Anchor))
	for _, elt := range locator.Path {
		fmt.Fprintf(&sb, "/%s", elt.Kind)
		if elt.Kind == PathTupleElement || elt.Kind == PathInterpolationArgument ||
			elt.Kind == PathGenericArgument {
			fmt.Fprintf(&sb, ":%d", elt.Value)
		}
	}

	return sb.String()
}

// Simplify folds leading path steps into the anchor where the tree makes the
// target node explicit, so a locator recorded against an outer expression and
// one built from its subexpression collide.
func (locator *Locator) Simplify() *Locator {
	anchor := locator.Anchor
	path := locator.Path

	for len(path) > 0 {
		expr, ok := anchor.(ast.Expr)
		if !ok {
			break
		}

		// Parens never anchor decisions of their own.
		if paren, ok := expr.(*ast.Paren); ok {
			anchor = paren.Sub
			continue
		}

		switch path[0].Kind {
		case PathApplyFunction:
			switch expr := expr.(type) {
			case *ast.Call:
				anchor = expr.Fn
			case *ast.ReceiverCall:
				anchor = expr.Fn
			case *ast.ConstructorRefCall:
				anchor = expr.Fn
			default:
				return &Locator{Anchor: anchor, Path: path}
			}
			path = path[1:]

		case PathApplyArgument:
			switch expr := expr.(type) {
			case *ast.Call:
				anchor = expr.Arg
			case *ast.ReceiverCall:
				anchor = expr.Arg
			case *ast.ConstructorRefCall:
				anchor = expr.Arg
			default:
				return &Locator{Anchor: anchor, Path: path}
			}
			path = path[1:]

		case PathTupleElement:
			tuple, ok := expr.(*ast.Tuple)
			if !ok || path[0].Value >= len(tuple.Elements) {
				return &Locator{Anchor: anchor, Path: path}
			}
			anchor = tuple.Elements[path[0].Value]
			path = path[1:]

		default:
			return &Locator{Anchor: anchor, Path: path}
		}
	}

	if paren, ok := anchor.(*ast.Paren); ok {
		anchor = paren.Sub
	}

	return &Locator{Anchor: anchor, Path: path}
}
