package apply

import (
	"fmt"
	"slices"

	"quill/ast"
	"quill/database"
	"quill/decl"
	"quill/types"
)

// ApplyTo rewrites a whole expression tree using a solution and returns the
// fully typed tree. Diagnostics accumulate on the context's reporter.
func ApplyTo(ctx *Context, solution *Solution, expr ast.Expr) ast.Expr {
	log.Debugf("applying solution to %s", database.DisplayNode(expr))

	r := NewRewriter(ctx, solution)
	result := r.walk(expr)
	r.finalize()
	return result
}

// ApplyShallow rewrites only the outermost node, for callers that manage the
// traversal themselves.
func ApplyShallow(ctx *Context, solution *Solution, expr ast.Expr) ast.Expr {
	return NewRewriter(ctx, solution).visit(expr)
}

// CoerceToType converts an already-applied expression to a type, as when a
// statement position requires one.
func CoerceToType(ctx *Context, solution *Solution, expr ast.Expr, ty types.Type) ast.Expr {
	r := NewRewriter(ctx, solution)
	return r.coerceToType(expr, ty, NewLocator(expr))
}

// ConvertToLogicValue rewrites an applied condition expression into the
// one-bit builtin integer type.
func ConvertToLogicValue(ctx *Context, solution *Solution, expr ast.Expr) ast.Expr {
	return NewRewriter(ctx, solution).ConvertToLogicValue(expr)
}

// ConvertToArrayBound rewrites an applied array bound expression into a
// builtin integer type.
func ConvertToArrayBound(ctx *Context, solution *Solution, expr ast.Expr) ast.Expr {
	return NewRewriter(ctx, solution).ConvertToArrayBound(expr)
}

func stripParens(expr ast.Expr) ast.Expr {
	for {
		paren, ok := expr.(*ast.Paren)
		if !ok {
			return expr
		}

		expr = paren.Sub
	}
}

func applyParts(apply ast.Expr) (ast.Expr, ast.Expr) {
	switch apply := apply.(type) {
	case *ast.Call:
		return apply.Fn, apply.Arg
	case *ast.ReceiverCall:
		return apply.Fn, apply.Arg
	case *ast.ConstructorRefCall:
		return apply.Fn, apply.Arg
	default:
		panic(fmt.Sprintf("not an application node: %s", database.DisplayNode(apply)))
	}
}

func setApplyParts(apply ast.Expr, fn ast.Expr, arg ast.Expr) {
	switch apply := apply.(type) {
	case *ast.Call:
		apply.Fn, apply.Arg = fn, arg
	case *ast.ReceiverCall:
		apply.Fn, apply.Arg = fn, arg
	case *ast.ConstructorRefCall:
		apply.Fn, apply.Arg = fn, arg
	default:
		panic(fmt.Sprintf("not an application node: %s", database.DisplayNode(apply)))
	}
}

// finishApply coerces an application's argument and types the result. A
// metatype callee is a construction: either a conversion to the instance
// type, or one round of resolution to the constructor the solver chose,
// after which the callee is an ordinary function.
func (r *Rewriter) finishApply(apply ast.Expr, openedTy types.Type, locator *Locator) ast.Expr {
	for round := 0; ; round++ {
		if round > 1 {
			panic("constructor resolution did not produce a function")
		}

		fn, arg := applyParts(apply)
		fn = r.rvalue(fn)
		fnTy := types.RValue(r.simplifyType(fn.Type()))

		if fnFunc, ok := fnTy.(*types.Function); ok {
			switch apply.(type) {
			case *ast.ReceiverCall, *ast.ConstructorRefCall:
				arg = r.coerceObjectArgumentToType(arg, fnFunc.Input, locator)
			default:
				arg = r.coerceToType(arg, fnFunc.Input, locator.With(PathApplyArgument))
			}

			setApplyParts(apply, fn, arg)

			if poly, ok := fnFunc.Result.(*types.Polymorphic); ok && openedTy != nil {
				apply.SetType(fnFunc.Result)
				return r.specialize(apply, poly, openedTy)
			}

			apply.SetType(r.simplifyType(fnFunc.Result))
			return apply
		}

		meta, ok := fnTy.(*types.Metatype)
		if !ok {
			panic(fmt.Sprintf("cannot apply a value of type %s", types.Display(fnTy)))
		}

		instanceTy := r.simplifyType(meta.Instance)

		// T(x...) for a tuple type converts the argument.
		if tupleTy, ok := instanceTy.(*types.Tuple); ok {
			arg = r.coerceToType(arg, tupleTy, locator.With(PathApplyArgument))
			setApplyParts(apply, fn, arg)
			apply.SetType(instanceTy)
			return apply
		}

		selected, found := r.solution.OverloadFor(locator.With(PathConstructorMember))
		if !found || selected.Choice.Kind == ChoiceIdentityFunction {
			arg = r.coerceToType(arg, instanceTy, locator.With(PathApplyArgument))
			setApplyParts(apply, fn, arg)
			apply.SetType(instanceTy)
			return apply
		}

		ctorRef := r.buildMemberRef(fn, selected.Choice.Decl, selected.OpenedTy,
			locator.With(PathConstructorMember), true)
		setApplyParts(apply, ctorRef, arg)
		openedTy = nil
	}
}

// walk rewrites a tree bottom-up. A handful of nodes take over their own
// traversal: closures own their body, assignments track which side they are
// walking, and default-value markers wait for their owner.
func (r *Rewriter) walk(expr ast.Expr) ast.Expr {
	switch expr := expr.(type) {
	case *ast.DefaultValue:
		return expr

	case *ast.Closure:
		return r.walkClosure(expr)

	case *ast.Assign:
		r.assignDepth++
		expr.Dest = r.walk(expr.Dest)
		r.assignDepth--
		expr.Src = r.walk(expr.Src)
		return r.visit(expr)
	}

	r.walkChildren(expr)
	return r.visit(expr)
}

func (r *Rewriter) walkChildren(expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.InterpolatedString:
		for i := range expr.Segments {
			expr.Segments[i] = r.walk(expr.Segments[i])
		}
	case *ast.ArrayLiteral:
		for i := range expr.Elements {
			expr.Elements[i] = r.walk(expr.Elements[i])
		}
	case *ast.DictionaryLiteral:
		for i := range expr.Elements {
			expr.Elements[i] = r.walk(expr.Elements[i])
		}
	case *ast.OverloadedMemberRef:
		expr.BaseExpr = r.walk(expr.BaseExpr)
	case *ast.MemberRef:
		expr.BaseExpr = r.walk(expr.BaseExpr)
	case *ast.UnresolvedDot:
		expr.BaseExpr = r.walk(expr.BaseExpr)
	case *ast.UnresolvedConstructor:
		expr.BaseExpr = r.walk(expr.BaseExpr)
	case *ast.UnresolvedSpecialize:
		expr.Sub = r.walk(expr.Sub)
	case *ast.MetatypeRef:
		if expr.Sub != nil {
			expr.Sub = r.walk(expr.Sub)
		}
	case *ast.TupleElementIndex:
		expr.BaseExpr = r.walk(expr.BaseExpr)
	case *ast.Subscript:
		expr.BaseExpr = r.walk(expr.BaseExpr)
		expr.Index = r.walk(expr.Index)
	case *ast.OverloadedSubscript:
		expr.BaseExpr = r.walk(expr.BaseExpr)
		expr.Index = r.walk(expr.Index)
	case *ast.Paren:
		expr.Sub = r.walk(expr.Sub)
	case *ast.Tuple:
		for i := range expr.Elements {
			expr.Elements[i] = r.walk(expr.Elements[i])
		}
	case *ast.Call:
		expr.Fn = r.walk(expr.Fn)
		expr.Arg = r.walk(expr.Arg)
	case *ast.ReceiverCall:
		expr.Fn = r.walk(expr.Fn)
		expr.Arg = r.walk(expr.Arg)
	case *ast.ConstructorRefCall:
		expr.Fn = r.walk(expr.Fn)
		expr.Arg = r.walk(expr.Arg)
	case *ast.BaseIgnored:
		expr.BaseExpr = r.walk(expr.BaseExpr)
		expr.Member = r.walk(expr.Member)
	case *ast.If:
		expr.Cond = r.walk(expr.Cond)
		expr.Then = r.walk(expr.Then)
		expr.Else = r.walk(expr.Else)
	case *ast.BindOptional:
		expr.Sub = r.walk(expr.Sub)
	case *ast.OptionalEvaluation:
		expr.Sub = r.walk(expr.Sub)
	case *ast.ForceValue:
		expr.Sub = r.walk(expr.Sub)
	case *ast.Is:
		expr.Sub = r.walk(expr.Sub)
	case *ast.ConditionalCheckedCast:
		expr.Sub = r.walk(expr.Sub)
	case *ast.Coerce:
		expr.Sub = r.walk(expr.Sub)
	case *ast.AddressOf:
		expr.Sub = r.walk(expr.Sub)
	}
}

// walkClosure fixes the closure's parameter types from the solved function
// type and coerces a single-expression body to the result type. Multi-
// statement bodies were checked separately and are left alone.
func (r *Rewriter) walkClosure(closure *ast.Closure) ast.Expr {
	fnTy, ok := r.simplifyType(closure.Type()).(*types.Function)
	if !ok {
		return r.simplifyExprType(closure)
	}

	if tuple, ok := fnTy.Input.(*types.Tuple); ok && len(tuple.Elements) == len(closure.Params) {
		for i, param := range closure.Params {
			param.Ty = tuple.Elements[i].Ty
		}
	} else if len(closure.Params) == 1 {
		closure.Params[0].Ty = fnTy.Input
	}

	if closure.Body != nil {
		closure.Body = r.walk(closure.Body)
		closure.Body = r.coerceToType(closure.Body, fnTy.Result,
			NewLocator(closure).With(PathFunctionResult))
	}

	closure.SetType(fnTy)
	return closure
}

func (r *Rewriter) visit(expr ast.Expr) ast.Expr {
	switch expr := expr.(type) {
	case *ast.IntegerLiteral:
		return r.convertLiteral(expr, expr.Type(), integerLiteralSpec(r.ctx.World))

	case *ast.FloatLiteral:
		return r.convertLiteral(expr, expr.Type(), floatLiteralSpec(r.ctx.World))

	case *ast.CharacterLiteral:
		return r.convertLiteral(expr, expr.Type(), characterLiteralSpec())

	case *ast.StringLiteral:
		return r.convertLiteral(expr, expr.Type(), stringLiteralSpec())

	case *ast.InterpolatedString:
		return r.convertInterpolatedString(expr)

	case *ast.ArrayLiteral:
		return r.convertArrayLiteral(expr)

	case *ast.DictionaryLiteral:
		return r.convertDictionaryLiteral(expr)

	case *ast.MagicIdentifier:
		return r.convertMagicIdentifier(expr, types.RValue(r.simplifyType(expr.Type())))

	case *ast.DeclRef:
		openedTy := r.openedTypeOf(expr, decl.UnopenedTypeOfReference(expr.Decl))
		return r.resolveDeclRef(expr, expr.Decl, openedTy)

	case *ast.OverloadedDeclRef:
		selected, ok := r.solution.OverloadFor(NewLocator(expr))
		if !ok {
			panic("overloaded reference has no recorded choice")
		}
		return r.resolveDeclRef(expr, selected.Choice.Decl, selected.OpenedTy)

	case *ast.UnresolvedDeclRef:
		selected, ok := r.solution.OverloadFor(NewLocator(expr))
		if !ok {
			panic(fmt.Sprintf("unresolved reference %q has no recorded choice", expr.Name))
		}
		return r.resolveDeclRef(expr, selected.Choice.Decl, selected.OpenedTy)

	case *ast.OverloadedMemberRef:
		selected, ok := r.solution.OverloadFor(NewLocator(expr).With(PathMember))
		if !ok {
			panic("overloaded member reference has no recorded choice")
		}
		result := r.buildMemberRef(expr.BaseExpr, selected.Choice.Decl,
			selected.OpenedTy, NewLocator(expr), expr.IsImplicit())
		r.noteValueMethodRef(result)
		return result

	case *ast.UnresolvedDot:
		return r.visitUnresolvedDot(expr)

	case *ast.UnresolvedMember:
		return r.visitUnresolvedMember(expr)

	case *ast.UnresolvedConstructor:
		return r.visitUnresolvedConstructor(expr)

	case *ast.UnresolvedSpecialize:
		return r.visitUnresolvedSpecialize(expr)

	case *ast.MemberRef:
		return r.simplifyExprType(expr)

	case *ast.SuperRef, *ast.ModuleRef, *ast.Error, *ast.TupleElementIndex:
		return r.simplifyExprType(expr)

	case *ast.MetatypeRef:
		if expr.Sub != nil {
			expr.SetType(&types.Metatype{
				Instance: types.RValue(r.simplifyType(expr.Sub.Type())),
			})
			return expr
		}
		return r.simplifyExprType(expr)

	case *ast.Subscript:
		return r.buildSubscript(expr.BaseExpr, expr.Index, NewLocator(expr))

	case *ast.OverloadedSubscript:
		return r.buildSubscript(expr.BaseExpr, expr.Index, NewLocator(expr))

	case *ast.Paren:
		expr.SetType(expr.Sub.Type())
		return expr

	case *ast.Tuple:
		return r.simplifyExprType(expr)

	case *ast.Call:
		fnKey := r.ctx.Db.Register(stripParens(expr.Fn))
		result := r.finishApply(expr, expr.Type(), NewLocator(expr))

		// Each application peels one argument clause off a tracked value-type
		// method reference.
		if p, ok := r.partials[fnKey]; ok {
			delete(r.partials, fnKey)
			if p.remaining > 1 {
				r.partials[r.ctx.Db.Register(result)] = partial{
					remaining: p.remaining - 1,
					on:        result,
					name:      p.name,
				}
			}
		}

		return result

	case *ast.ReceiverCall:
		return r.finishApply(expr, expr.Type(), NewLocator(expr))

	case *ast.ConstructorRefCall:
		return r.finishApply(expr, expr.Type(), NewLocator(expr))

	case *ast.BaseIgnored:
		expr.SetType(expr.Member.Type())
		return expr

	case *ast.If:
		ty := types.RValue(r.simplifyType(expr.Type()))
		expr.Cond = r.ConvertToLogicValue(expr.Cond)
		expr.Then = r.coerceToType(expr.Then, ty, NewLocator(expr))
		expr.Else = r.coerceToType(expr.Else, ty, NewLocator(expr))
		expr.SetType(ty)
		return expr

	case *ast.Assign:
		return r.visitAssign(expr)

	case *ast.Discard:
		if r.assignDepth == 0 {
			r.ctx.Reporter.DiscardOutsideAssignment(expr)
		}
		return expr

	case *ast.BindOptional:
		valueTy := types.RValue(r.simplifyType(expr.Type()))
		expr.Sub = r.coerceToType(expr.Sub, &types.Optional{Value: valueTy}, NewLocator(expr))
		if _, injected := expr.Sub.(*ast.InjectIntoOptional); injected {
			r.ctx.Reporter.BindingInjectedOptional(expr, valueTy)
		}
		expr.SetType(valueTy)
		return expr

	case *ast.OptionalEvaluation:
		ty := r.simplifyType(expr.Type())
		expr.Sub = r.coerceToType(expr.Sub, ty, NewLocator(expr))
		expr.SetType(ty)
		return expr

	case *ast.ForceValue:
		return r.visitForceValue(expr)

	case *ast.Is:
		fromTy := types.RValue(r.simplifyType(expr.Sub.Type()))
		targetTy := r.simplifyType(expr.TargetTy)
		expr.TargetTy = targetTy
		if castIsTrivial(fromTy, targetTy) {
			r.ctx.Reporter.AlwaysTrueCheck(expr, fromTy, targetTy)
		}
		expr.Sub = r.rvalue(expr.Sub)
		return r.simplifyExprType(expr)

	case *ast.ConditionalCheckedCast:
		return r.visitConditionalCheckedCast(expr)

	case *ast.Coerce:
		targetTy := r.simplifyType(expr.TargetTy)
		expr.TargetTy = targetTy
		expr.Sub = r.coerceToType(expr.Sub, targetTy, NewLocator(expr))
		expr.SetType(targetTy)
		return expr

	case *ast.AddressOf:
		subTy := r.simplifyType(expr.Sub.Type())
		lvalue, ok := subTy.(*types.LValue)
		if !ok {
			panic(fmt.Sprintf("address of non-lvalue %s", types.Display(subTy)))
		}
		expr.SetType(&types.LValue{
			Object: lvalue.Object,
			Quals:  lvalue.Quals &^ types.QualImplicit,
		})
		return expr

	case *ast.Closure, *ast.AutoClosure, *ast.DefaultValue:
		return expr

	default:
		panic(fmt.Sprintf("cannot apply a solution to %s", database.DisplayNode(expr)))
	}
}

// openedTypeOf returns the opened type the solver recorded for a reference,
// or the fallback when the reference needed no opening.
func (r *Rewriter) openedTypeOf(expr ast.Expr, fallback types.Type) types.Type {
	if selected, ok := r.solution.OverloadFor(NewLocator(expr)); ok {
		return selected.OpenedTy
	}

	return fallback
}

// resolveDeclRef turns a reference to a known declaration into its final
// node. Protocol operators dispatch through the conforming type's metatype.
func (r *Rewriter) resolveDeclRef(expr ast.Expr, member decl.Decl, openedTy types.Type) ast.Expr {
	if fn, ok := member.(*decl.FuncDecl); ok && fn.Operator {
		if proto := r.protocolOf(member); proto != nil {
			return r.buildProtocolOperatorRef(proto, member, expr, openedTy,
				NewLocator(expr), expr.IsImplicit())
		}
	}

	if ref, ok := expr.(*ast.DeclRef); ok {
		return r.buildDeclRef(ref, member, openedTy)
	}

	ref := &ast.DeclRef{
		Base: ast.Base{Implicit: expr.IsImplicit(), Facts: expr.GetFacts()},
		Decl: member,
	}
	return r.buildDeclRef(ref, member, openedTy)
}

// protocolOf finds the protocol a declaration is a requirement of, if any.
func (r *Rewriter) protocolOf(member decl.Decl) *decl.ProtocolDecl {
	has := func(proto *decl.ProtocolDecl) bool {
		return slices.Contains(proto.Members, member)
	}

	for _, proto := range r.ctx.World.Protocols {
		if has(proto) {
			return proto
		}
	}

	for _, conformance := range r.ctx.World.Conformances {
		if has(conformance.Proto) {
			return conformance.Proto
		}
	}

	return nil
}

func (r *Rewriter) visitUnresolvedDot(expr *ast.UnresolvedDot) ast.Expr {
	selected, ok := r.solution.OverloadFor(NewLocator(expr).With(PathMember))
	if !ok {
		panic(fmt.Sprintf("member %q has no recorded choice", expr.Name))
	}

	switch selected.Choice.Kind {
	case ChoiceDecl:
		result := r.buildMemberRef(expr.BaseExpr, selected.Choice.Decl,
			selected.OpenedTy, NewLocator(expr), expr.IsImplicit())
		r.noteValueMethodRef(result)
		return result

	case ChoiceDeclViaDynamic:
		return r.buildDynamicMemberRef(expr.BaseExpr, selected.Choice.Decl, selected.OpenedTy)

	case ChoiceTupleIndex:
		base := expr.BaseExpr
		if !types.IsLValue(r.simplifyType(base.Type())) {
			base = r.rvalue(base)
		}

		return &ast.TupleElementIndex{
			Base: ast.Base{
				Ty:       r.simplifyType(expr.Type()),
				Implicit: expr.IsImplicit(),
				Facts:    expr.GetFacts(),
			},
			BaseExpr: base,
			Index:    selected.Choice.TupleIndex,
		}

	case ChoiceBaseType:
		return expr.BaseExpr

	default:
		panic(fmt.Sprintf("invalid member choice kind: %d", selected.Choice.Kind))
	}
}

// noteValueMethodRef tracks a reference to a value-type method whose receiver
// is an lvalue; every such reference must be fully applied, since a partial
// application would capture the receiver's storage.
func (r *Rewriter) noteValueMethodRef(result ast.Expr) {
	call, ok := result.(*ast.ReceiverCall)
	if !ok || !types.IsLValue(r.simplifyType(call.Arg.Type())) {
		return
	}

	fnRef := call.Fn
	if specialized, ok := fnRef.(*ast.Specialize); ok {
		fnRef = specialized.Sub
	}

	declRef, ok := fnRef.(*ast.DeclRef)
	if !ok {
		return
	}

	fn, ok := declRef.Decl.(*decl.FuncDecl)
	if !ok || !fn.Instance {
		return
	}

	remaining := fn.NaturalArgumentCount() - 1
	if remaining <= 0 {
		return
	}

	r.partials[r.ctx.Db.Register(result)] = partial{
		remaining: remaining,
		on:        result,
		name:      fmt.Sprintf("method '%s'", fn.DeclName()),
	}
}

func (r *Rewriter) visitUnresolvedMember(expr *ast.UnresolvedMember) ast.Expr {
	selected, ok := r.solution.OverloadFor(NewLocator(expr).With(PathMember))
	if !ok {
		panic(fmt.Sprintf("member %q has no recorded choice", expr.Name))
	}

	// The implied base is the metatype of the expression's type; an element
	// with a payload makes the expression a function producing it.
	baseTy := types.RValue(r.simplifyType(expr.Type()))
	if fnTy, ok := baseTy.(*types.Function); ok {
		baseTy = fnTy.Result
	}

	base := r.metatypeRef(expr, baseTy)
	return r.buildMemberRef(base, selected.Choice.Decl, selected.OpenedTy,
		NewLocator(expr), expr.IsImplicit())
}

func (r *Rewriter) visitUnresolvedConstructor(expr *ast.UnresolvedConstructor) ast.Expr {
	selected, ok := r.solution.OverloadFor(NewLocator(expr).With(PathConstructorMember))
	if !ok {
		panic("constructor delegation has no recorded choice")
	}

	ctor, ok := selected.Choice.Decl.(*decl.ConstructorDecl)
	if !ok {
		panic("constructor choice is not a constructor")
	}

	ref := ast.Expr(&ast.DeclRef{
		Base: ast.SynthBase(expr.BaseExpr, ctor.InitializerTy),
		Decl: ctor,
	})
	if poly, ok := ctor.InitializerTy.(*types.Polymorphic); ok {
		ref = r.specialize(ref, poly, selected.OpenedTy)
	}

	call := &ast.ReceiverCall{
		Base: ast.Base{Implicit: expr.IsImplicit(), Facts: expr.GetFacts()},
		Fn:   ref,
		Arg:  expr.BaseExpr,
	}

	return r.finishApply(call, selected.OpenedTy, NewLocator(expr))
}

func (r *Rewriter) visitUnresolvedSpecialize(expr *ast.UnresolvedSpecialize) ast.Expr {
	sub := expr.Sub
	if _, ok := sub.(*ast.Specialize); ok {
		return sub
	}

	poly, ok := types.RValue(r.simplifyType(sub.Type())).(*types.Polymorphic)
	if !ok {
		return r.simplifyExprType(sub)
	}

	replacements := make(map[*types.Archetype]types.Type, len(poly.Params))
	substitutions := make([]ast.Substitution, 0, len(poly.Params))
	for i, param := range poly.Params {
		if i >= len(expr.Args) {
			break
		}

		arg := r.simplifyType(expr.Args[i])
		replacements[param] = arg
		substitutions = append(substitutions, ast.Substitution{
			Param:        param,
			Replacement:  arg,
			Conformances: r.conformancesFor(arg, param.Conforms, expr),
		})
	}

	ty := types.Subst(&types.Function{Input: poly.Input, Result: poly.Result}, replacements)

	return &ast.Specialize{
		Base:          ast.Base{Ty: ty, Implicit: expr.IsImplicit(), Facts: expr.GetFacts()},
		Sub:           sub,
		Substitutions: substitutions,
	}
}

func (r *Rewriter) visitAssign(expr *ast.Assign) ast.Expr {
	if discard, ok := stripParens(expr.Dest).(*ast.Discard); ok {
		expr.Src = r.rvalue(expr.Src)
		discard.SetType(types.RValue(r.simplifyType(expr.Src.Type())))
	} else {
		destTy := r.simplifyType(expr.Dest.Type())
		if lvalue, ok := destTy.(*types.LValue); ok {
			expr.Src = r.coerceToType(expr.Src, lvalue.Object, NewLocator(expr))
		}
	}

	expr.SetType(types.EmptyTuple())
	return expr
}

func (r *Rewriter) visitForceValue(expr *ast.ForceValue) ast.Expr {
	valueTy := types.RValue(r.simplifyType(expr.Type()))
	subTy := types.RValue(r.simplifyType(expr.Sub.Type()))

	if r.isDynamicLookup(subTy) {
		// Forcing a dynamic lookup result is a runtime-checked downcast.
		expr.Sub = &ast.ConditionalCheckedCast{
			Base:     ast.SynthBase(expr.Sub, &types.Optional{Value: valueTy}),
			Sub:      r.rvalue(expr.Sub),
			TargetTy: valueTy,
		}
	} else {
		expr.Sub = r.coerceToType(expr.Sub, &types.Optional{Value: valueTy}, NewLocator(expr))
		if _, injected := expr.Sub.(*ast.InjectIntoOptional); injected {
			r.ctx.Reporter.ForcingInjectedOptional(expr, valueTy)
		}
	}

	expr.SetType(valueTy)
	return expr
}

func (r *Rewriter) visitConditionalCheckedCast(expr *ast.ConditionalCheckedCast) ast.Expr {
	fromTy := types.RValue(r.simplifyType(expr.Sub.Type()))
	targetTy := r.simplifyType(expr.TargetTy)
	expr.TargetTy = targetTy
	expr.Sub = r.rvalue(expr.Sub)

	resultTy := &types.Optional{Value: targetTy}

	if castIsTrivial(fromTy, targetTy) {
		r.ctx.Reporter.DowncastToSupertype(expr, fromTy, targetTy)
		sub := r.coerceToType(expr.Sub, targetTy, NewLocator(expr))
		return ast.NewInjectIntoOptional(sub, resultTy)
	}

	expr.SetType(resultTy)
	return expr
}

func castIsTrivial(from types.Type, to types.Type) bool {
	return types.Equal(from, to) || types.IsSuperclassOf(to, from)
}

func (r *Rewriter) isDynamicLookup(ty types.Type) bool {
	proto := r.ctx.World.KnownProtocolDecl(decl.DynamicLookupProtocol)
	if proto == nil {
		return false
	}

	protocols, ok := types.ExistentialProtocols(ty)
	if !ok {
		return false
	}

	for _, p := range protocols {
		if p == types.Protocol(proto) {
			return true
		}
	}

	return false
}

// finalize reports every tracked value-type method reference that was never
// fully applied, in tree registration order.
func (r *Rewriter) finalize() {
	ids := make([]int, 0, len(r.partials))
	for id := range r.partials {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		p := r.partials[id]
		r.ctx.Reporter.PartialApplication(p.on, p.name)
	}
}
