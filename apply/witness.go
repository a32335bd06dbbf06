package apply

import (
	"quill/ast"
	"quill/database"
	"quill/decl"
	"quill/types"
)

// findNamedWitness resolves the declaration satisfying a named protocol
// requirement for a conforming type. A conformance with no recorded witness
// dispatches to the requirement itself, the way an archetype would.
func (r *Rewriter) findNamedWitness(conformance *decl.Conformance, name string, on database.Node) decl.Decl {
	if witness := conformance.Witness(name); witness != nil {
		return witness
	}

	requirement := conformance.Proto.Requirement(name)
	if requirement == nil {
		r.ctx.Reporter.BrokenProtocol(on, conformance.Proto.ProtocolName(), name)
		return nil
	}

	return requirement
}

// memberAccessType is the type of a member access expression: the member's
// type with the receiver clause already applied.
func memberAccessType(member decl.Decl) types.Type {
	if fn, ok := member.(*decl.FuncDecl); ok && fn.Instance {
		if fnTy, ok := fn.DeclType().(*types.Function); ok {
			return fnTy.Result
		}
	}

	return decl.UnopenedTypeOfReference(member)
}

// callWitness builds and applies a call to a protocol witness on a base
// value. The argument expressions become a single argument or an implicit
// tuple; the caller retypes the result when the witness's result type is not
// the final one.
func (r *Rewriter) callWitness(base ast.Expr, conformance *decl.Conformance, name string, args ...ast.Expr) ast.Expr {
	witness := r.findNamedWitness(conformance, name, base)
	if witness == nil {
		return &ast.Error{Base: ast.SynthBase(base, nil)}
	}

	ref := r.buildMemberRef(base, witness, memberAccessType(witness), NewLocator(base), true)

	var arg ast.Expr
	if len(args) == 1 {
		arg = args[0]
	} else {
		elements := make([]types.TupleElement, len(args))
		for i, a := range args {
			elements[i] = types.TupleElement{Ty: types.RValue(a.Type())}
		}

		arg = &ast.Tuple{
			Base:     ast.SynthBase(base, &types.Tuple{Elements: elements}),
			Elements: args,
		}
	}

	call := &ast.Call{Base: ast.SynthBase(base, nil), Fn: ref, Arg: arg}

	var openedResult types.Type
	if fnTy, ok := types.RValue(r.simplifyType(ref.Type())).(*types.Function); ok {
		openedResult = fnTy.Result
	}

	return r.finishApply(call, openedResult, NewLocator(call))
}
