package apply

import (
	"fmt"

	"quill/ast"
	"quill/decl"
	"quill/types"
)

// literalSpec describes how one literal form reaches its user type: the
// general protocol the type conforms to, the builtin protocol its literal
// type conforms to, and the names the conversion goes through.
type literalSpec struct {
	protocol        decl.KnownProtocol
	builtinProtocol decl.KnownProtocol
	assocType       string
	fnName          string
	builtinFnName   string
	builtinArgTy    types.Type
}

func integerLiteralSpec(world *decl.World) literalSpec {
	return literalSpec{
		protocol:        decl.IntegerLiteralProtocol,
		builtinProtocol: decl.BuiltinIntegerLiteralProtocol,
		assocType:       "IntegerLiteralType",
		fnName:          "convertFromIntegerLiteral",
		builtinFnName:   "_convertFromBuiltinIntegerLiteral",
		builtinArgTy:    world.MaxIntegerLiteralType(),
	}
}

func floatLiteralSpec(world *decl.World) literalSpec {
	return literalSpec{
		protocol:        decl.FloatLiteralProtocol,
		builtinProtocol: decl.BuiltinFloatLiteralProtocol,
		assocType:       "FloatLiteralType",
		fnName:          "convertFromFloatLiteral",
		builtinFnName:   "_convertFromBuiltinFloatLiteral",
		builtinArgTy:    world.MaxFloatLiteralType(),
	}
}

func characterLiteralSpec() literalSpec {
	return literalSpec{
		protocol:        decl.CharacterLiteralProtocol,
		builtinProtocol: decl.BuiltinCharacterLiteralProtocol,
		assocType:       "CharacterLiteralType",
		fnName:          "convertFromCharacterLiteral",
		builtinFnName:   "_convertFromBuiltinCharacterLiteral",
		builtinArgTy:    &types.BuiltinInteger{Bits: 21},
	}
}

// String literals arrive as a pointer to the bytes, their count, and an
// ASCII flag.
func stringLiteralSpec() literalSpec {
	return literalSpec{
		protocol:        decl.StringLiteralProtocol,
		builtinProtocol: decl.BuiltinStringLiteralProtocol,
		assocType:       "StringLiteralType",
		fnName:          "convertFromStringLiteral",
		builtinFnName:   "_convertFromBuiltinStringLiteral",
		builtinArgTy: &types.Tuple{Elements: []types.TupleElement{
			{Ty: &types.BuiltinRawPointer{}},
			{Ty: &types.BuiltinInteger{Bits: 64}},
			{Ty: &types.BuiltinInteger{Bits: 1}},
		}},
	}
}

func (r *Rewriter) metatypeRef(at ast.Expr, ty types.Type) ast.Expr {
	return &ast.MetatypeRef{Base: ast.SynthBase(at, &types.Metatype{Instance: ty})}
}

// convertLiteral rewrites a literal at its user type. A type that conforms to
// the builtin literal protocol takes the value directly; otherwise the value
// is built at the conformance's literal type first and converted through the
// general protocol's witness.
func (r *Rewriter) convertLiteral(literal ast.Expr, ty types.Type, spec literalSpec) ast.Expr {
	ty = types.RValue(r.simplifyType(ty))
	world := r.ctx.World

	if result, ok := r.convertBuiltinLiteral(literal, ty, spec); ok {
		return result
	}

	proto := world.KnownProtocolDecl(spec.protocol)

	var conformance *decl.Conformance
	if proto != nil {
		conformance, _ = world.ConformanceOf(ty, proto)
	}

	if conformance == nil {
		r.ctx.Reporter.CannotConvert(literal, spec.builtinArgTy, ty)
		literal.SetType(ty)
		return literal
	}

	argTy := conformance.TypeWitness(spec.assocType)
	if argTy == nil {
		r.ctx.Reporter.BrokenProtocol(literal, proto.ProtocolName(), spec.assocType)
		literal.SetType(ty)
		return literal
	}

	converted, ok := r.convertBuiltinLiteral(literal, types.RValue(r.simplifyType(argTy)), spec)
	if !ok {
		r.ctx.Reporter.BrokenProtocol(literal, proto.ProtocolName(), spec.builtinFnName)
		literal.SetType(ty)
		return literal
	}

	result := r.callWitness(r.metatypeRef(literal, ty), conformance, spec.fnName, converted)
	result.SetType(ty)
	return result
}

// convertBuiltinLiteral handles the direct tier: the type itself conforms to
// the builtin literal protocol, so the raw value feeds its witness.
func (r *Rewriter) convertBuiltinLiteral(literal ast.Expr, ty types.Type, spec literalSpec) (ast.Expr, bool) {
	proto := r.ctx.World.KnownProtocolDecl(spec.builtinProtocol)
	if proto == nil {
		return nil, false
	}

	conformance, ok := r.ctx.World.ConformanceOf(ty, proto)
	if !ok {
		return nil, false
	}

	literal.SetType(spec.builtinArgTy)
	result := r.callWitness(r.metatypeRef(literal, ty), conformance, spec.builtinFnName, literal)
	result.SetType(ty)
	return result, true
}

// convertMagicIdentifier rewrites __FILE__ like a string literal and
// __LINE__ and __COLUMN__ like integer literals.
func (r *Rewriter) convertMagicIdentifier(expr *ast.MagicIdentifier, ty types.Type) ast.Expr {
	switch expr.Kind {
	case types.FileDefault:
		return r.convertLiteral(expr, ty, stringLiteralSpec())
	case types.LineDefault, types.ColumnDefault:
		return r.convertLiteral(expr, ty, integerLiteralSpec(r.ctx.World))
	default:
		panic(fmt.Sprintf("invalid magic identifier kind: %d", expr.Kind))
	}
}

// collectionConformance resolves a collection literal's conformance to its
// protocol, reporting when the solved type lacks one.
func (r *Rewriter) collectionConformance(expr ast.Expr, ty types.Type, kp decl.KnownProtocol) *decl.Conformance {
	proto := r.ctx.World.KnownProtocolDecl(kp)
	if proto == nil {
		r.ctx.Reporter.BrokenProtocol(expr, kp.String(), "conformance")
		return nil
	}

	conformance, ok := r.ctx.World.ConformanceOf(ty, proto)
	if !ok {
		r.ctx.Reporter.CannotConvert(expr, ty,
			&types.Existential{Protocols: []types.Protocol{proto}})
		return nil
	}

	return conformance
}

func (r *Rewriter) convertInterpolatedString(expr *ast.InterpolatedString) ast.Expr {
	ty := types.RValue(r.simplifyType(expr.Type()))

	conformance := r.collectionConformance(expr, ty, decl.StringInterpolationProtocol)
	if conformance == nil {
		expr.SetType(ty)
		return expr
	}

	locator := NewLocator(expr)
	for i, segment := range expr.Segments {
		expr.Segments[i] = r.coerceToType(segment, ty,
			locator.WithValue(PathInterpolationArgument, i))
	}

	semantic := r.callWitness(r.metatypeRef(expr, ty), conformance,
		"convertFromStringInterpolation", expr.Segments...)
	semantic.SetType(ty)

	expr.Semantic = semantic
	expr.SetType(ty)
	return expr
}

func (r *Rewriter) convertArrayLiteral(expr *ast.ArrayLiteral) ast.Expr {
	ty := types.RValue(r.simplifyType(expr.Type()))

	conformance := r.collectionConformance(expr, ty, decl.ArrayLiteralProtocol)
	if conformance == nil {
		expr.SetType(ty)
		return expr
	}

	semantic := r.callWitness(r.metatypeRef(expr, ty), conformance,
		"convertFromArrayLiteral", expr.Elements...)
	semantic.SetType(ty)

	expr.Semantic = semantic
	expr.SetType(ty)
	return expr
}

func (r *Rewriter) convertDictionaryLiteral(expr *ast.DictionaryLiteral) ast.Expr {
	ty := types.RValue(r.simplifyType(expr.Type()))

	conformance := r.collectionConformance(expr, ty, decl.DictionaryLiteralProtocol)
	if conformance == nil {
		expr.SetType(ty)
		return expr
	}

	semantic := r.callWitness(r.metatypeRef(expr, ty), conformance,
		"convertFromDictionaryLiteral", expr.Elements...)
	semantic.SetType(ty)

	expr.Semantic = semantic
	expr.SetType(ty)
	return expr
}
