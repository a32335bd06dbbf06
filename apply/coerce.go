package apply

import (
	"fmt"

	"quill/ast"
	"quill/decl"
	"quill/types"
)

// coerceToType converts an expression to a type the solver proved it converts
// to. The checks run from cheapest to most involved; a conversion the solver
// committed a restriction for replays that restriction directly.
func (r *Rewriter) coerceToType(expr ast.Expr, toType types.Type, locator *Locator) ast.Expr {
	if locator == nil {
		locator = NewLocator(expr)
	}

	fromType := r.simplifyType(expr.Type())
	toType = r.simplifyType(toType)

	if types.Equal(fromType, toType) {
		expr.SetType(toType)
		return expr
	}

	if restriction, ok := r.solution.RestrictionFor(fromType, toType); ok {
		switch restriction {
		case RestrictScalarToTuple:
			return r.coerceScalarToTuple(expr, toType.(*types.Tuple), locator)

		case RestrictSuperclass:
			return r.coerceSuperclass(expr, fromType, toType)

		case RestrictExistential:
			return r.coerceExistential(expr, toType)

		case RestrictValueToOptional:
			opt := toType.(*types.Optional)
			expr = r.coerceToType(expr, opt.Value, locator)
			return ast.NewInjectIntoOptional(expr, toType)

		case RestrictUser:
			return r.coerceViaUserConversion(expr, toType, locator)
		}
	}

	if fromTuple, ok := fromType.(*types.Tuple); ok {
		if toTuple, ok := toType.(*types.Tuple); ok {
			return r.coerceTupleToTuple(expr, fromTuple, toTuple, locator)
		}
	}

	if toTuple, ok := toType.(*types.Tuple); ok && toTuple.ScalarInitField() != -1 {
		return r.coerceScalarToTuple(expr, toTuple, locator)
	}

	if fromLValue, ok := fromType.(*types.LValue); ok {
		// super already refers to the base object; refine its type here so no
		// redundant upcast follows the load.
		if _, isSuper := expr.(*ast.SuperRef); isSuper {
			fromLValue = &types.LValue{Object: types.RValue(toType), Quals: fromLValue.Quals}
			expr.SetType(fromLValue)
		}

		if _, ok := toType.(*types.LValue); ok {
			return ast.NewRequalify(expr, toType)
		}

		expr = ast.NewLoad(expr, fromLValue.Object)
		return r.coerceToType(expr, toType, locator)
	}

	if toLValue, ok := toType.(*types.LValue); ok {
		expr = r.coerceToType(expr, toLValue.Object, locator)
		return ast.NewMaterialize(expr, toType)
	}

	if types.MayHaveSuperclass(fromType) && types.IsSuperclassOf(toType, fromType) {
		return r.coerceSuperclass(expr, fromType, toType)
	}

	if toFunc, ok := toType.(*types.Function); ok {
		if toFunc.AutoClosure {
			expr = r.coerceToType(expr, toFunc.Result, locator)
			return &ast.AutoClosure{Base: ast.SynthBase(expr, toType), Body: expr}
		}

		if fromFunc, ok := fromType.(*types.Function); ok {
			if toFunc.Foreign && !fromFunc.Foreign {
				native := &types.Function{Input: toFunc.Input, Result: toFunc.Result}
				expr = r.coerceToType(expr, native, locator)
				return ast.NewBridgeToForeign(expr, toType)
			}

			return ast.NewFunctionConversion(expr, toType)
		}
	}

	if types.IsExistential(toType) {
		return r.coerceExistential(expr, toType)
	}

	if opt, ok := toType.(*types.Optional); ok {
		expr = r.coerceToType(expr, opt.Value, locator)
		return ast.NewInjectIntoOptional(expr, toType)
	}

	if isUserConvertible(fromType) || isUserConvertible(toType) {
		return r.coerceViaUserConversion(expr, toType, locator)
	}

	if _, ok := fromType.(*types.Metatype); ok {
		if _, ok := toType.(*types.Metatype); ok {
			return ast.NewMetatypeConversion(expr, toType)
		}
	}

	panic(fmt.Sprintf("unhandled coercion from %s to %s",
		types.Display(fromType), types.Display(toType)))
}

// coerceObjectArgumentToType coerces a receiver to its member's container
// type. Value-semantics containers are passed as lvalues so mutating members
// see the original storage; everything else is passed by value.
func (r *Rewriter) coerceObjectArgumentToType(expr ast.Expr, toType types.Type, locator *Locator) ast.Expr {
	if locator == nil {
		locator = NewLocator(expr)
	}

	containerTy := types.RValue(r.simplifyType(toType))

	if types.ReferenceSemantics(containerTy) {
		return r.coerceToType(expr, containerTy, locator)
	}

	destTy := &types.LValue{Object: containerTy, Quals: types.MemberAccessQuals}
	fromType := r.simplifyType(expr.Type())

	if types.Equal(fromType, destTy) {
		return expr
	}

	if fromLValue, ok := fromType.(*types.LValue); ok {
		if types.Equal(fromLValue.Object, containerTy) {
			return ast.NewRequalify(expr, destTy)
		}

		expr = r.coerceToType(expr, containerTy, locator)
		return ast.NewMaterialize(expr, destTy)
	}

	if !types.Equal(fromType, containerTy) {
		expr = r.coerceToType(expr, containerTy, locator)
	}

	return ast.NewMaterialize(expr, destTy)
}

func isUserConvertible(ty types.Type) bool {
	switch ty.(type) {
	case *types.Nominal, *types.Archetype:
		return true
	default:
		return false
	}
}

// coerceSuperclass walks a value up its superclass chain. An archetype is
// first lifted to its superclass bound, then upcast class to class if the
// bound is not yet the target.
func (r *Rewriter) coerceSuperclass(expr ast.Expr, fromType types.Type, toType types.Type) ast.Expr {
	if archetype, ok := fromType.(*types.Archetype); ok {
		expr = ast.NewArchetypeToSuper(expr, archetype.Superclass)
		fromType = archetype.Superclass
	}

	if types.Equal(fromType, toType) {
		return expr
	}

	return ast.NewDerivedToBase(expr, toType)
}

// coerceExistential erases a concrete value to an existential, recording the
// conformances that justify each protocol in the target.
func (r *Rewriter) coerceExistential(expr ast.Expr, toType types.Type) ast.Expr {
	expr = r.rvalue(expr)

	protocols, _ := types.ExistentialProtocols(toType)
	conformances := r.conformancesFor(r.simplifyType(expr.Type()), protocols, expr)

	return ast.NewErasure(expr, toType, conformances)
}

// coerceViaUserConversion applies the conversion function the solver chose
// for this position and coerces its result the rest of the way. With no
// conversion member recorded, the position may instead carry a constructor
// choice (interpolated literals allow construction or conversion).
func (r *Rewriter) coerceViaUserConversion(expr ast.Expr, toType types.Type, locator *Locator) ast.Expr {
	if selected, ok := r.solution.OverloadFor(locator.With(PathConversionMember)); ok {
		ref := r.buildMemberRef(expr, selected.Choice.Decl, selected.OpenedTy,
			locator.With(PathConversionMember), true)

		openedResult := selected.OpenedTy
		if fn, ok := r.simplifyType(ref.Type()).(*types.Function); ok {
			openedResult = fn.Result
		}

		arg := &ast.Tuple{Base: ast.SynthBase(expr, types.EmptyTuple())}
		call := &ast.Call{Base: ast.SynthBase(expr, nil), Fn: ref, Arg: arg}
		result := r.finishApply(call, openedResult, locator)

		return r.coerceToType(result, toType, locator)
	}

	selected, ok := r.solution.OverloadFor(locator.With(PathConstructorMember))
	if !ok {
		r.ctx.Reporter.CannotConvert(expr, r.simplifyType(expr.Type()), toType)
		expr.SetType(toType)
		return expr
	}

	// The identity constructor degenerates to a plain coercion.
	if selected.Choice.Kind == ChoiceIdentityFunction {
		return r.coerceToType(expr, toType, locator.With(PathApplyArgument))
	}

	base := r.metatypeRef(expr, types.RValue(toType))
	ref := r.buildMemberRef(base, selected.Choice.Decl, selected.OpenedTy,
		locator.With(PathConstructorMember), true)

	call := &ast.Call{Base: ast.SynthBase(expr, nil), Fn: ref, Arg: expr}
	result := r.finishApply(call, toType, locator)

	return r.coerceToType(result, toType, locator)
}

// retypeThroughParens sets a type on an expression and every paren it wraps.
func retypeThroughParens(expr ast.Expr, ty types.Type) {
	for {
		expr.SetType(ty)
		paren, ok := expr.(*ast.Paren)
		if !ok {
			return
		}

		expr = paren.Sub
	}
}

// tupleLiteral finds the literal tuple under any parens, if the expression is
// one; only a literal can have its elements coerced in place.
func tupleLiteral(expr ast.Expr) *ast.Tuple {
	for {
		if paren, ok := expr.(*ast.Paren); ok {
			expr = paren.Sub
			continue
		}

		literal, _ := expr.(*ast.Tuple)
		return literal
	}
}

// injectionFnRef references the function that wraps collected variadic values
// into their slice type.
func (r *Rewriter) injectionFnRef(at ast.Expr) ast.Expr {
	injection := r.ctx.World.ArrayInjection
	if injection == nil {
		return nil
	}

	return &ast.DeclRef{Base: ast.SynthBase(at, injection.DeclType()), Decl: injection}
}

func (r *Rewriter) coerceTupleToTuple(expr ast.Expr, from *types.Tuple, to *types.Tuple, locator *Locator) ast.Expr {
	sources, variadics, ok := ComputeShuffle(from, to, hasMandatoryTupleLabels(expr))
	if !ok {
		r.ctx.Reporter.CannotConvert(expr, from, to)
		expr.SetType(to)
		return expr
	}

	literal := tupleLiteral(expr)

	anythingShuffled := false
	hasVariadic := false
	var callerDefaults []ast.Expr
	var defaultsOwner decl.Decl

	for i, source := range sources {
		toElt := to.Elements[i]

		switch {
		case source == ast.DefaultInitialize:
			anythingShuffled = true
			if defaultsOwner == nil {
				defaultsOwner = r.findDefaultArgsOwner(locator)
			}

			if def := r.callerDefaultArg(toElt.Default, expr, toElt.Ty); def != nil {
				sources[i] = ast.CallerDefaultInitialize
				callerDefaults = append(callerDefaults, def)
			}

		case source == ast.FirstVariadic:
			anythingShuffled = true
			hasVariadic = true
			base := toElt.VarargBase()

			for _, j := range variadics {
				if types.Equal(from.Elements[j].Ty, base) {
					continue
				}

				if literal == nil {
					r.ctx.Reporter.TupleConversionNotExpressible(expr, from, to)
					expr.SetType(to)
					return expr
				}

				literal.Elements[j] = r.coerceToType(literal.Elements[j], base,
					locator.WithValue(PathTupleElement, j))
			}

		default:
			if source != i {
				anythingShuffled = true
			}

			if types.Equal(from.Elements[source].Ty, toElt.Ty) {
				continue
			}

			// Coercing an element in place needs the literal tuple; any other
			// expression would have to be evaluated twice.
			if literal == nil {
				r.ctx.Reporter.TupleConversionNotExpressible(expr, from, to)
				expr.SetType(to)
				return expr
			}

			literal.Elements[source] = r.coerceToType(literal.Elements[source], toElt.Ty,
				locator.WithValue(PathTupleElement, source))
		}
	}

	if !anythingShuffled && literal != nil {
		retypeThroughParens(expr, to)
		return expr
	}

	// Element coercions changed the source tuple's type underneath us.
	if literal != nil && len(literal.Elements) == len(from.Elements) {
		elements := make([]types.TupleElement, len(from.Elements))
		copy(elements, from.Elements)
		for j, sub := range literal.Elements {
			elements[j].Ty = types.RValue(r.simplifyType(sub.Type()))
		}

		retypeThroughParens(expr, &types.Tuple{Elements: elements})
	}

	var injection ast.Expr
	if hasVariadic {
		injection = r.injectionFnRef(expr)
	}

	return &ast.TupleShuffle{
		Base:           ast.SynthBase(expr, to),
		Sub:            expr,
		Mapping:        sources,
		Variadics:      variadics,
		CallerDefaults: callerDefaults,
		DefaultsOwner:  defaultsOwner,
		Injection:      injection,
	}
}

// coerceScalarToTuple builds a tuple around a single scalar value, filling
// every other field from its default.
func (r *Rewriter) coerceScalarToTuple(expr ast.Expr, to *types.Tuple, locator *Locator) ast.Expr {
	field := to.ScalarInitField()
	if field == -1 {
		panic(fmt.Sprintf("scalar cannot initialize %s", types.Display(to)))
	}

	toElt := to.Elements[field]
	fieldTy := toElt.Ty

	var injection ast.Expr
	if toElt.Variadic {
		fieldTy = toElt.VarargBase()
		injection = r.injectionFnRef(expr)
	}

	expr = r.coerceToType(expr, fieldTy, locator.With(PathScalarToTuple))

	var callerDefaults []ast.Expr
	var defaultsOwner decl.Decl

	for i, elt := range to.Elements {
		if i == field || !elt.HasDefault() {
			continue
		}

		if defaultsOwner == nil {
			defaultsOwner = r.findDefaultArgsOwner(locator)
		}

		if def := r.callerDefaultArg(elt.Default, expr, elt.Ty); def != nil {
			if callerDefaults == nil {
				callerDefaults = make([]ast.Expr, len(to.Elements))
			}

			callerDefaults[i] = def
		}
	}

	return &ast.ScalarToTuple{
		Base:           ast.SynthBase(expr, to),
		Sub:            expr,
		Field:          field,
		CallerDefaults: callerDefaults,
		DefaultsOwner:  defaultsOwner,
		Injection:      injection,
	}
}

// findDefaultArgsOwner resolves the declaration whose defaults fill the
// unmatched fields at a coercion position: the function being applied when
// the position is a call argument, or the constructor when it is an
// interpolation segment.
func (r *Rewriter) findDefaultArgsOwner(locator *Locator) decl.Decl {
	if locator == nil || len(locator.Path) == 0 {
		return nil
	}

	path := locator.Path
	if path[len(path)-1].Kind == PathApplyArgument {
		prefix := &Locator{Anchor: locator.Anchor, Path: path[:len(path)-1]}

		if selected, ok := r.solution.OverloadFor(prefix.With(PathApplyFunction)); ok {
			return selected.Choice.Decl
		}

		if selected, ok := r.solution.OverloadFor(prefix.With(PathConstructorMember)); ok {
			return selected.Choice.Decl
		}
	}

	if len(path) == 1 && path[0].Kind == PathInterpolationArgument {
		ctor := NewLocator(locator.Anchor).With(PathConstructorMember)
		if selected, ok := r.solution.OverloadFor(ctor); ok {
			return selected.Choice.Decl
		}
	}

	return nil
}

// callerDefaultArg synthesizes the caller-side value of a defaulted field, or
// returns nil when the callee supplies it.
func (r *Rewriter) callerDefaultArg(kind types.DefaultArgKind, at ast.Expr, ty types.Type) ast.Expr {
	switch kind {
	case types.NoDefault, types.NormalDefault:
		return nil
	}

	magic := &ast.MagicIdentifier{Base: ast.SynthBase(at, nil), Kind: kind}
	return r.convertMagicIdentifier(magic, r.simplifyType(ty))
}
