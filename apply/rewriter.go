package apply

import (
	"fmt"

	"quill/ast"
	"quill/database"
	"quill/decl"
	"quill/types"
)

// Rewriter applies one solution to an expression tree. It mutates nodes in
// place where it can, and wraps or replaces them where the solution calls
// for it.
type Rewriter struct {
	ctx      *Context
	solution *Solution

	// partials tracks references to value-type methods by arena id, with the
	// number of argument clauses still to be applied. Anything left at
	// finalize captured a value receiver without fully applying the method.
	partials map[int]partial

	assignDepth int
}

type partial struct {
	remaining int
	on        ast.Expr
	name      string
}

func NewRewriter(ctx *Context, solution *Solution) *Rewriter {
	return &Rewriter{
		ctx:      ctx,
		solution: solution,
		partials: map[int]partial{},
	}
}

func (r *Rewriter) simplifyType(ty types.Type) types.Type {
	return r.solution.SimplifyType(ty)
}

// simplifyExprType replaces the type variables in an expression's type and
// returns the expression. Used for nodes that need nothing further.
func (r *Rewriter) simplifyExprType(expr ast.Expr) ast.Expr {
	expr.SetType(r.simplifyType(expr.Type()))
	return expr
}

// rvalue loads out of an lvalue; everything else passes through.
func (r *Rewriter) rvalue(expr ast.Expr) ast.Expr {
	if lvalue, ok := expr.Type().(*types.LValue); ok {
		return ast.NewLoad(expr, lvalue.Object)
	}

	return expr
}

// declContainer is the declared type a member lives in, or nil for a free
// declaration.
func declContainer(member decl.Decl) types.Type {
	switch member := member.(type) {
	case *decl.VarDecl:
		return member.Container
	case *decl.FuncDecl:
		return member.Container
	case *decl.ConstructorDecl:
		return member.Container
	case *decl.EnumElementDecl:
		return member.Container
	case *decl.SubscriptDecl:
		return member.Container
	default:
		return nil
	}
}

// selfParamType is the type of the receiver clause of a member: reference
// types and metatypes are taken by value, value types by lvalue.
func selfParamType(container types.Type) types.Type {
	if _, ok := container.(*types.Metatype); ok {
		return container
	}

	if types.ReferenceSemantics(container) {
		return container
	}

	return &types.LValue{Object: container, Quals: types.MemberAccessQuals}
}

// conformancesFor collects the recorded conformances justifying each of a
// type's protocol requirements, reporting any that are missing.
func (r *Rewriter) conformancesFor(ty types.Type, protocols []types.Protocol, on database.Node) []*decl.Conformance {
	conformances := make([]*decl.Conformance, 0, len(protocols))
	for _, proto := range protocols {
		protoDecl, ok := proto.(*decl.ProtocolDecl)
		if !ok {
			continue
		}

		conformance, ok := r.ctx.World.ConformanceOf(ty, protoDecl)
		if !ok {
			r.ctx.Reporter.BrokenProtocol(on, protoDecl.ProtocolName(), "conformance")
			continue
		}

		conformances = append(conformances, conformance)
	}

	return conformances
}

// specialize wraps a polymorphic reference in an explicit specialization.
// The substitutions are read off the opened type: every type variable opened
// from one of the function's parameters is mapped to its fixed type.
func (r *Rewriter) specialize(expr ast.Expr, poly *types.Polymorphic, openedTy types.Type) ast.Expr {
	replacements := map[*types.Archetype]types.Type{}
	ty := types.Transform(openedTy, func(ty types.Type) (types.Type, bool) {
		if tv, ok := ty.(*types.TypeVariable); ok {
			fixed := r.solution.FixedType(tv)
			if tv.Opened != nil {
				replacements[tv.Opened] = fixed
			}

			return fixed, true
		}

		return ty, false
	})

	substitutions := make([]ast.Substitution, 0, len(poly.Params))
	for _, param := range poly.Params {
		replacement, ok := replacements[param]
		if !ok {
			continue
		}

		substitutions = append(substitutions, ast.Substitution{
			Param:        param,
			Replacement:  replacement,
			Conformances: r.conformancesFor(replacement, param.Conforms, expr),
		})
	}

	return ast.NewSpecialize(expr, ty, substitutions)
}

// buildDeclRef types a reference to a declaration, specializing it when the
// declaration is polymorphic.
func (r *Rewriter) buildDeclRef(expr ast.Expr, member decl.Decl, openedTy types.Type) ast.Expr {
	if typeDecl, ok := member.(*decl.TypeDecl); ok {
		expr.SetType(&types.Metatype{Instance: typeDecl.DeclaredType()})
		return expr
	}

	expr.SetType(decl.UnopenedTypeOfReference(member))
	if poly, ok := expr.Type().(*types.Polymorphic); ok {
		return r.specialize(expr, poly, openedTy)
	}

	return r.simplifyExprType(expr)
}

// buildMemberRef assembles a reference to a member found on a base
// expression, inserting whatever receiver coercions the member requires.
func (r *Rewriter) buildMemberRef(base ast.Expr, member decl.Decl, openedTy types.Type, locator *Locator, implicit bool) ast.Expr {
	refTy := r.simplifyType(openedTy)

	baseTy := types.RValue(r.simplifyType(base.Type()))
	baseIsInstance := true
	if baseMeta, ok := baseTy.(*types.Metatype); ok {
		baseIsInstance = false
		baseTy = baseMeta.Instance
	}

	containerTy := declContainer(member)

	// Members reached through a protocol: the base stays abstract.
	if _, viaProtocol := types.ExistentialProtocols(baseTy); viaProtocol {
		if baseIsInstance {
			base = r.coerceObjectArgumentToType(base, baseTy, locator.With(PathMemberRefBase))
		} else {
			base = r.rvalue(base)
		}

		var result ast.Expr
		if types.IsExistential(baseTy) {
			ref := &ast.ExistentialMemberRef{
				Base:     ast.SynthBase(base, refTy),
				BaseExpr: base,
				Member:   member,
			}
			ref.Implicit = implicit
			result = ref
		} else {
			ref := &ast.ArchetypeMemberRef{
				Base:     ast.SynthBase(base, refTy),
				BaseExpr: base,
				Member:   member,
			}
			ref.Implicit = implicit
			result = ref
		}

		if poly, ok := member.DeclType().(*types.Polymorphic); ok {
			return r.specialize(result, poly, openedTy)
		}

		return result
	}

	// Members of a generic type: deduce the container's arguments from the
	// base and specialize the reference with them.
	if substitutions, subContainer, generic := r.genericContainer(containerTy, baseTy); generic {
		substTy := demotePolymorphic(types.Subst(member.DeclType(), substitutions))

		if baseIsInstance {
			base = r.coerceObjectArgumentToType(base, subContainer, locator.With(PathMemberRefBase))
		} else {
			base = r.rvalue(r.coerceToType(base, &types.Metatype{Instance: subContainer}, locator.With(PathMemberRefBase)))
		}

		switch member.(type) {
		case *decl.FuncDecl, *decl.ConstructorDecl, *decl.EnumElementDecl:
			ref := &ast.DeclRef{Base: ast.SynthBase(base, substTy), Decl: member}
			specialized := ast.NewSpecialize(ref, substTy, r.encodeSubstitutions(containerTy, substitutions, base))

			if _, ok := member.(*decl.ConstructorDecl); ok {
				apply := &ast.ConstructorRefCall{Base: ast.SynthBase(base, nil), Fn: specialized, Arg: base}
				return r.finishApply(apply, openedTy, locator)
			}

			if fn, ok := member.(*decl.FuncDecl); ok && !baseIsInstance && fn.Instance {
				return &ast.BaseIgnored{Base: ast.SynthBase(base, substTy), BaseExpr: base, Member: specialized}
			}

			apply := &ast.ReceiverCall{Base: ast.SynthBase(base, nil), Fn: specialized, Arg: base}
			return r.finishApply(apply, openedTy, locator)
		}

		result := &ast.MemberRef{Base: ast.SynthBase(base, substTy), BaseExpr: base, Member: member}
		result.Implicit = implicit
		return result
	}

	// Stored and computed variables.
	if _, isVar := member.(*decl.VarDecl); isVar {
		if _, isModule := baseTy.(*types.Module); !isModule {
			base = r.coerceObjectArgumentToType(base, containerTy, nil)

			result := &ast.MemberRef{Base: ast.SynthBase(base, refTy), BaseExpr: base, Member: member}
			result.Implicit = implicit
			return result
		}
	}

	// Everything else references the declaration directly.
	ref := r.buildDeclRef(&ast.DeclRef{Base: ast.SynthBase(base, nil), Decl: member}, member, curriedOpenedType(member, openedTy))

	switch member := member.(type) {
	case *decl.ConstructorDecl:
		apply := &ast.ConstructorRefCall{Base: ast.SynthBase(base, nil), Fn: ref, Arg: base}
		return r.finishApply(apply, openedTy, locator)

	case *decl.EnumElementDecl:
		result := &ast.ReceiverCall{Base: ast.SynthBase(base, refTy), Fn: ref, Arg: r.rvalue(base)}
		return result

	case *decl.FuncDecl:
		if member.Instance && baseIsInstance {
			apply := &ast.ReceiverCall{Base: ast.SynthBase(base, nil), Fn: ref, Arg: base}
			return r.finishApply(apply, openedTy, locator)
		}
	}

	// A reference whose base contributes nothing, such as a static member
	// accessed through an instance-free base or a module member.
	result := &ast.BaseIgnored{Base: ast.SynthBase(base, ref.Type()), BaseExpr: base, Member: ref}
	result.Implicit = implicit
	return result
}

// curriedOpenedType rebuilds the opened type of the bare declaration
// reference from the opened type of the member access, so specialization
// sees the same type variables the solver bound.
func curriedOpenedType(member decl.Decl, openedTy types.Type) types.Type {
	switch member := member.(type) {
	case *decl.FuncDecl:
		if member.Instance {
			return &types.Function{Input: selfParamType(member.Container), Result: openedTy}
		}
	case *decl.ConstructorDecl:
		return &types.Function{Input: &types.Metatype{Instance: member.Container}, Result: openedTy}
	}

	return openedTy
}

// genericContainer reports whether a member's container is a generic type
// being accessed at concrete arguments, and if so returns the substitutions
// deduced from the base along with the substituted container type.
func (r *Rewriter) genericContainer(containerTy types.Type, baseTy types.Type) (map[*types.Archetype]types.Type, types.Type, bool) {
	container, ok := containerTy.(*types.Nominal)
	if !ok || len(container.Decl.GenericParams()) == 0 {
		return nil, nil, false
	}

	substitutions := map[*types.Archetype]types.Type{}

	// Walk up from the base to the container's declaration, collecting the
	// arguments at which it was reached.
	for current := baseTy; current != nil; current = types.Superclass(current) {
		nominal, ok := current.(*types.Nominal)
		if !ok {
			break
		}

		if nominal.Decl == container.Decl && len(nominal.Args) > 0 {
			for i, param := range container.Decl.GenericParams() {
				substitutions[param] = nominal.Args[i]
			}

			break
		}
	}

	if len(substitutions) == 0 {
		return nil, nil, false
	}

	return substitutions, types.Subst(containerTy, substitutions), true
}

// encodeSubstitutions pairs deduced container substitutions with their
// conformances, in the container's parameter order.
func (r *Rewriter) encodeSubstitutions(containerTy types.Type, substitutions map[*types.Archetype]types.Type, on database.Node) []ast.Substitution {
	container := containerTy.(*types.Nominal)

	encoded := make([]ast.Substitution, 0, len(substitutions))
	for _, param := range container.Decl.GenericParams() {
		replacement, ok := substitutions[param]
		if !ok {
			continue
		}

		encoded = append(encoded, ast.Substitution{
			Param:        param,
			Replacement:  replacement,
			Conformances: r.conformancesFor(replacement, param.Conforms, on),
		})
	}

	return encoded
}

// demotePolymorphic turns a polymorphic function type whose parameters have
// all been substituted away into a plain function type.
func demotePolymorphic(ty types.Type) types.Type {
	poly, ok := ty.(*types.Polymorphic)
	if !ok {
		return ty
	}

	if types.HasArchetype(poly.Input) || types.HasArchetype(poly.Result) {
		return ty
	}

	return &types.Function{Input: poly.Input, Result: poly.Result}
}

// buildDynamicMemberRef assembles a member reference found through dynamic
// lookup; the result type is already optional in the opened type.
func (r *Rewriter) buildDynamicMemberRef(base ast.Expr, member decl.Decl, openedTy types.Type) ast.Expr {
	base = r.rvalue(base)

	return &ast.DynamicMemberRef{
		Base:     ast.SynthBase(base, r.simplifyType(openedTy)),
		BaseExpr: base,
		Member:   member,
	}
}

// buildProtocolOperatorRef resolves a reference to a protocol operator by
// digging the Self binding out of the opened type and dispatching through
// the conforming type's metatype.
func (r *Rewriter) buildProtocolOperatorRef(proto *decl.ProtocolDecl, member decl.Decl, at ast.Expr, openedTy types.Type, locator *Locator, implicit bool) ast.Expr {
	fn, ok := member.(*decl.FuncDecl)
	if !ok || !fn.Operator {
		panic(fmt.Sprintf("protocol member %s is not an operator", member.DeclName()))
	}

	var baseTy types.Type
	types.Transform(openedTy, func(ty types.Type) (types.Type, bool) {
		if tv, ok := ty.(*types.TypeVariable); ok && tv.Opened == proto.SelfArchetype {
			baseTy = r.solution.FixedType(tv)
			return ty, true
		}

		return ty, baseTy != nil
	})

	if baseTy == nil {
		panic(fmt.Sprintf("no Self binding for operator %s of %s", member.DeclName(), proto.ProtocolName()))
	}

	base := &ast.MetatypeRef{Base: ast.SynthBase(at, &types.Metatype{Instance: baseTy})}
	return r.buildMemberRef(base, member, openedTy, locator, implicit)
}

// buildSubscript assembles a subscript access from the overload the solver
// chose for it.
func (r *Rewriter) buildSubscript(base ast.Expr, index ast.Expr, locator *Locator) ast.Expr {
	selected, ok := r.solution.OverloadFor(locator.With(PathSubscriptMember))
	if !ok {
		panic("no subscript choice recorded")
	}

	subscript := selected.Choice.Decl.(*decl.SubscriptDecl)
	baseTy := types.RValue(r.simplifyType(base.Type()))

	subscriptTy := r.simplifyType(selected.OpenedTy).(*types.Function)
	indexTy := subscriptTy.Input
	resultTy := types.RValue(subscriptTy.Result)

	index = r.coerceToType(index, indexTy, locator.With(PathSubscriptIndex))

	// Dynamic lookup.
	if selected.Choice.Kind == ChoiceDeclViaDynamic {
		base = r.coerceObjectArgumentToType(base, baseTy, locator)
		return &ast.DynamicSubscript{
			Base:     ast.SynthBase(base, resultTy),
			BaseExpr: base,
			Index:    index,
			Decl:     subscript,
		}
	}

	containerTy := subscript.Container

	// Subscripting an archetype.
	if _, ok := baseTy.(*types.Archetype); ok {
		base = r.coerceObjectArgumentToType(base, baseTy, locator)
		return &ast.ArchetypeSubscript{
			Base:     ast.SynthBase(base, resultTy),
			BaseExpr: base,
			Index:    index,
			Decl:     subscript,
		}
	}

	lvalueTy := &types.LValue{Object: resultTy, Quals: types.MemberAccessQuals}

	// Subscripting an existential.
	if types.IsExistential(baseTy) {
		base = r.coerceObjectArgumentToType(base, baseTy, locator)
		return &ast.ExistentialSubscript{
			Base:     ast.SynthBase(base, lvalueTy),
			BaseExpr: base,
			Index:    index,
			Decl:     subscript,
		}
	}

	base = r.coerceObjectArgumentToType(base, containerTy, locator)
	return &ast.Subscript{
		Base:     ast.SynthBase(base, lvalueTy),
		BaseExpr: base,
		Index:    index,
		Decl:     subscript,
	}
}
