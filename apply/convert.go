package apply

import (
	"quill/ast"
	"quill/decl"
	"quill/types"
)

// memberNamed looks up a direct member of a nominal type by name.
func memberNamed(ty types.Type, name string) decl.Decl {
	nominal, ok := ty.(*types.Nominal)
	if !ok {
		return nil
	}

	typeDecl, ok := nominal.Decl.(*decl.TypeDecl)
	if !ok {
		return nil
	}

	return typeDecl.Member(name)
}

// convertViaBuiltinProtocol converts a value by calling the builtin accessor
// of a known protocol with no arguments. A type that lacks the builtin
// accessor goes through the protocol's general witness first; its result
// must then carry the accessor.
func (r *Rewriter) convertViaBuiltinProtocol(expr ast.Expr, kp decl.KnownProtocol, generalName string, builtinName string) ast.Expr {
	ty := types.RValue(r.simplifyType(expr.Type()))

	member := memberNamed(ty, builtinName)
	if member == nil {
		proto := r.ctx.World.KnownProtocolDecl(kp)
		if proto == nil {
			r.ctx.Reporter.BrokenProtocol(expr, kp.String(), builtinName)
			return nil
		}

		conformance, ok := r.ctx.World.ConformanceOf(ty, proto)
		if !ok {
			r.ctx.Reporter.CannotConvert(expr, ty,
				&types.Existential{Protocols: []types.Protocol{proto}})
			return nil
		}

		expr = r.callWitness(expr, conformance, generalName)
		ty = types.RValue(r.simplifyType(expr.Type()))

		member = memberNamed(ty, builtinName)
		if member == nil {
			r.ctx.Reporter.BrokenProtocol(expr, proto.ProtocolName(), builtinName)
			return nil
		}
	}

	ref := r.buildMemberRef(expr, member, memberAccessType(member), NewLocator(expr), true)

	arg := &ast.Tuple{Base: ast.SynthBase(expr, types.EmptyTuple())}
	call := &ast.Call{Base: ast.SynthBase(expr, nil), Fn: ref, Arg: arg}

	var openedResult types.Type
	if fnTy, ok := types.RValue(r.simplifyType(ref.Type())).(*types.Function); ok {
		openedResult = fnTy.Result
	}

	return r.finishApply(call, openedResult, NewLocator(call))
}

// ConvertToLogicValue rewrites a condition into a value of the one-bit
// builtin integer type.
func (r *Rewriter) ConvertToLogicValue(expr ast.Expr) ast.Expr {
	ty := types.RValue(r.simplifyType(expr.Type()))
	if bits, ok := ty.(*types.BuiltinInteger); ok && bits.Bits == 1 {
		return r.rvalue(r.simplifyExprType(expr))
	}

	result := r.convertViaBuiltinProtocol(expr, decl.LogicValueProtocol,
		"getLogicValue", "_getBuiltinLogicValue")
	if result == nil {
		return expr
	}

	resultTy := types.RValue(r.simplifyType(result.Type()))
	if bits, ok := resultTy.(*types.BuiltinInteger); !ok || bits.Bits != 1 {
		r.ctx.Reporter.BrokenProtocol(expr,
			decl.LogicValueProtocol.String(), "_getBuiltinLogicValue")
	}

	return result
}

// ConvertToArrayBound rewrites an array bound into a value of a builtin
// integer type.
func (r *Rewriter) ConvertToArrayBound(expr ast.Expr) ast.Expr {
	result := r.convertViaBuiltinProtocol(expr, decl.ArrayBoundProtocol,
		"getArrayBoundValue", "_getBuiltinArrayBoundValue")
	if result == nil {
		return expr
	}

	resultTy := types.RValue(r.simplifyType(result.Type()))
	if _, ok := resultTy.(*types.BuiltinInteger); !ok {
		r.ctx.Reporter.BrokenProtocol(expr,
			decl.ArrayBoundProtocol.String(), "_getBuiltinArrayBoundValue")
	}

	return result
}
