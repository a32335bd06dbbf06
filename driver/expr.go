package driver

import (
	"fmt"
	"strconv"

	"quill/ast"
	"quill/database"
	"quill/decl"
	"quill/types"
)

func (b *builder) buildExpr(spec *ExprSpec) (ast.Expr, error) {
	if spec == nil {
		return nil, fmt.Errorf("missing expression")
	}

	label := spec.Value
	if label == "" {
		label = spec.Name
	}
	if label == "" {
		label = spec.Kind
	}

	base := ast.NewBase(b.span(label))
	base.Implicit = spec.Implicit

	if spec.Type != "" {
		ty, err := b.parseType(spec.Type, nil)
		if err != nil {
			return nil, err
		}
		base.Ty = ty
	}

	node, err := b.buildExprNode(spec, base)
	if err != nil {
		return nil, err
	}

	b.db.Register(node)
	if spec.Id != "" {
		b.nodes[spec.Id] = node
	}

	return node, nil
}

func (b *builder) buildExprNode(spec *ExprSpec, base ast.Base) (ast.Expr, error) {
	switch spec.Kind {
	case "int":
		return &ast.IntegerLiteral{Base: base, Value: spec.Value}, nil

	case "float":
		return &ast.FloatLiteral{Base: base, Value: spec.Value}, nil

	case "char":
		runes := []rune(spec.Value)
		if len(runes) != 1 {
			return nil, fmt.Errorf("character literal %q is not a single character", spec.Value)
		}
		return &ast.CharacterLiteral{Base: base, Value: runes[0]}, nil

	case "string":
		return &ast.StringLiteral{Base: base, Value: spec.Value}, nil

	case "interp":
		segments, err := b.buildExprs(spec.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.InterpolatedString{Base: base, Segments: segments}, nil

	case "array":
		elements, err := b.buildExprs(spec.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLiteral{Base: base, Elements: elements}, nil

	case "dict":
		elements, err := b.buildExprs(spec.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.DictionaryLiteral{Base: base, Elements: elements}, nil

	case "magic":
		kind, err := parseMagicKind(spec.Value)
		if err != nil {
			return nil, err
		}
		return &ast.MagicIdentifier{Base: base, Kind: kind}, nil

	case "ref":
		d, err := b.namedDecl(spec.Decl)
		if err != nil {
			return nil, err
		}
		return &ast.DeclRef{Base: base, Decl: d}, nil

	case "overloaded_ref":
		decls, err := b.namedDecls(spec.Decls)
		if err != nil {
			return nil, err
		}
		return &ast.OverloadedDeclRef{Base: base, Decls: decls}, nil

	case "overloaded_member":
		baseExpr, err := b.buildExpr(spec.Base)
		if err != nil {
			return nil, err
		}
		decls, err := b.namedDecls(spec.Decls)
		if err != nil {
			return nil, err
		}
		return &ast.OverloadedMemberRef{Base: base, BaseExpr: baseExpr, Decls: decls}, nil

	case "member":
		baseExpr, err := b.buildExpr(spec.Base)
		if err != nil {
			return nil, err
		}
		d, err := b.namedDecl(spec.Decl)
		if err != nil {
			return nil, err
		}
		return &ast.MemberRef{Base: base, BaseExpr: baseExpr, Member: d}, nil

	case "unresolved_ref":
		return &ast.UnresolvedDeclRef{Base: base, Name: spec.Name}, nil

	case "dot":
		baseExpr, err := b.buildExpr(spec.Base)
		if err != nil {
			return nil, err
		}
		return &ast.UnresolvedDot{Base: base, BaseExpr: baseExpr, Name: spec.Name}, nil

	case "unresolved_member":
		return &ast.UnresolvedMember{Base: base, Name: spec.Name}, nil

	case "ctor":
		baseExpr, err := b.buildExpr(spec.Base)
		if err != nil {
			return nil, err
		}
		return &ast.UnresolvedConstructor{Base: base, BaseExpr: baseExpr}, nil

	case "specialize":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}

		var args []types.Type
		for _, arg := range spec.Args {
			ty, err := b.parseType(arg, nil)
			if err != nil {
				return nil, err
			}
			args = append(args, ty)
		}

		return &ast.UnresolvedSpecialize{Base: base, Sub: sub, Args: args}, nil

	case "super":
		return &ast.SuperRef{Base: base}, nil

	case "module":
		d, err := b.namedDecl(spec.Module)
		if err != nil {
			return nil, err
		}
		module, ok := d.(*decl.ModuleDecl)
		if !ok {
			return nil, fmt.Errorf("%q is not a module", spec.Module)
		}
		return &ast.ModuleRef{Base: base, Module: module}, nil

	case "metatype":
		var sub ast.Expr
		if spec.Sub != nil {
			var err error
			sub, err = b.buildExpr(spec.Sub)
			if err != nil {
				return nil, err
			}
		}
		return &ast.MetatypeRef{Base: base, Sub: sub}, nil

	case "tuple_index":
		baseExpr, err := b.buildExpr(spec.Base)
		if err != nil {
			return nil, err
		}
		index, err := strconv.Atoi(spec.Value)
		if err != nil {
			return nil, fmt.Errorf("tuple index %q is not a number", spec.Value)
		}
		return &ast.TupleElementIndex{Base: base, BaseExpr: baseExpr, Index: index}, nil

	case "subscript":
		baseExpr, err := b.buildExpr(spec.Base)
		if err != nil {
			return nil, err
		}
		index, err := b.buildExpr(spec.Index)
		if err != nil {
			return nil, err
		}

		if len(spec.Decls) > 0 {
			decls, err := b.namedDecls(spec.Decls)
			if err != nil {
				return nil, err
			}
			return &ast.OverloadedSubscript{Base: base, BaseExpr: baseExpr, Index: index, Decls: decls}, nil
		}

		node := &ast.Subscript{Base: base, BaseExpr: baseExpr, Index: index}
		if spec.Decl != "" {
			d, err := b.namedDecl(spec.Decl)
			if err != nil {
				return nil, err
			}
			subscript, ok := d.(*decl.SubscriptDecl)
			if !ok {
				return nil, fmt.Errorf("%q is not a subscript", spec.Decl)
			}
			node.Decl = subscript
		}
		return node, nil

	case "paren":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		return &ast.Paren{Base: base, Sub: sub}, nil

	case "tuple":
		elements, err := b.buildExprs(spec.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.Tuple{Base: base, Elements: elements, Names: spec.Names}, nil

	case "call":
		fn, err := b.buildExpr(spec.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := b.buildExpr(spec.Arg)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Base: base, Fn: fn, Arg: arg}, nil

	case "closure":
		params, err := b.buildParams(spec.Params)
		if err != nil {
			return nil, err
		}
		body, err := b.buildExpr(spec.Body)
		if err != nil {
			return nil, err
		}
		return &ast.Closure{Base: base, Params: params, Body: body}, nil

	case "autoclosure":
		body, err := b.buildExpr(spec.Body)
		if err != nil {
			return nil, err
		}
		return &ast.AutoClosure{Base: base, Body: body}, nil

	case "assign":
		dest, err := b.buildExpr(spec.Dest)
		if err != nil {
			return nil, err
		}
		src, err := b.buildExpr(spec.Src)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Base: base, Dest: dest, Src: src}, nil

	case "discard":
		return &ast.Discard{Base: base}, nil

	case "if":
		cond, err := b.buildExpr(spec.Cond)
		if err != nil {
			return nil, err
		}
		then, err := b.buildExpr(spec.Then)
		if err != nil {
			return nil, err
		}
		els, err := b.buildExpr(spec.Else)
		if err != nil {
			return nil, err
		}
		return &ast.If{Base: base, Cond: cond, Then: then, Else: els}, nil

	case "bind":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		return &ast.BindOptional{Base: base, Sub: sub}, nil

	case "opt_eval":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		return &ast.OptionalEvaluation{Base: base, Sub: sub}, nil

	case "force":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		return &ast.ForceValue{Base: base, Sub: sub}, nil

	case "is":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		target, err := b.parseType(spec.Target, nil)
		if err != nil {
			return nil, err
		}
		return &ast.Is{Base: base, Sub: sub, TargetTy: target}, nil

	case "as_conditional":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		target, err := b.parseType(spec.Target, nil)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionalCheckedCast{Base: base, Sub: sub, TargetTy: target}, nil

	case "as":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		target, err := b.parseType(spec.Target, nil)
		if err != nil {
			return nil, err
		}
		return &ast.Coerce{Base: base, Sub: sub, TargetTy: target}, nil

	case "addressof":
		sub, err := b.buildExpr(spec.Sub)
		if err != nil {
			return nil, err
		}
		return &ast.AddressOf{Base: base, Sub: sub}, nil

	case "error":
		return &ast.Error{Base: base}, nil

	default:
		return nil, fmt.Errorf("unknown expression kind %q", spec.Kind)
	}
}

func (b *builder) buildExprs(specs []*ExprSpec) ([]ast.Expr, error) {
	var exprs []ast.Expr
	for _, spec := range specs {
		expr, err := b.buildExpr(spec)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	return exprs, nil
}

func (b *builder) buildParams(specs []ParamSpec) ([]*decl.VarDecl, error) {
	var params []*decl.VarDecl
	for _, spec := range specs {
		ty, err := b.parseType(spec.Type, nil)
		if err != nil {
			return nil, err
		}

		param := &decl.VarDecl{Base: decl.Base{
			Name:  spec.Name,
			Ty:    ty,
			Facts: database.NewFacts(b.span(spec.Name)),
		}}
		params = append(params, param)
		b.declNames[spec.Name] = param
	}

	return params, nil
}

func (b *builder) namedDecl(name string) (decl.Decl, error) {
	d, ok := b.declNames[name]
	if !ok {
		return nil, fmt.Errorf("unknown declaration %q", name)
	}

	return d, nil
}

func (b *builder) namedDecls(names []string) ([]decl.Decl, error) {
	var decls []decl.Decl
	for _, name := range names {
		d, err := b.namedDecl(name)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}

	return decls, nil
}

func parseMagicKind(name string) (types.DefaultArgKind, error) {
	switch name {
	case "file":
		return types.FileDefault, nil
	case "line":
		return types.LineDefault, nil
	case "column":
		return types.ColumnDefault, nil
	default:
		return 0, fmt.Errorf("unknown magic identifier %q", name)
	}
}
