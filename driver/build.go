package driver

import (
	"fmt"

	"quill/apply"
	"quill/ast"
	"quill/database"
	"quill/decl"
	"quill/typeexpr"
	"quill/types"
)

type builder struct {
	db    *database.Db
	world *decl.World
	path  string

	typeNames map[string]types.Type
	declNames map[string]decl.Decl
	protocols map[string]*decl.ProtocolDecl
	tvs       map[string]*types.TypeVariable
	nodes     map[string]ast.Expr

	nextIndex int
}

func newBuilder(db *database.Db, path string) *builder {
	return &builder{
		db:        db,
		world:     decl.NewWorld(),
		path:      path,
		typeNames: map[string]types.Type{},
		declNames: map[string]decl.Decl{},
		protocols: map[string]*decl.ProtocolDecl{},
		tvs:       map[string]*types.TypeVariable{},
		nodes:     map[string]ast.Expr{},
	}
}

// span synthesizes a distinct source position for each node, so output is
// ordered the way the scenario is written.
func (b *builder) span(source string) database.Span {
	b.nextIndex++
	return database.Span{
		Path:   b.path,
		Start:  database.Location{Line: b.nextIndex, Column: 1, Index: b.nextIndex},
		End:    database.Location{Line: b.nextIndex, Column: 1 + len(source), Index: b.nextIndex},
		Source: source,
	}
}

func (b *builder) lookupIn(local map[string]types.Type) typeexpr.Lookup {
	return func(name string) (types.Type, bool) {
		if ty, ok := local[name]; ok {
			return ty, true
		}

		if ty, ok := b.typeNames[name]; ok {
			return ty, true
		}

		if tv, ok := b.tvs[name]; ok {
			return tv, true
		}

		return nil, false
	}
}

func (b *builder) parseType(source string, local map[string]types.Type) (types.Type, error) {
	if source == "" {
		return nil, nil
	}

	return typeexpr.Parse(source, b.lookupIn(local))
}

var roles = map[string]decl.KnownProtocol{
	"integer_literal":           decl.IntegerLiteralProtocol,
	"builtin_integer_literal":   decl.BuiltinIntegerLiteralProtocol,
	"float_literal":             decl.FloatLiteralProtocol,
	"builtin_float_literal":     decl.BuiltinFloatLiteralProtocol,
	"character_literal":         decl.CharacterLiteralProtocol,
	"builtin_character_literal": decl.BuiltinCharacterLiteralProtocol,
	"string_literal":            decl.StringLiteralProtocol,
	"builtin_string_literal":    decl.BuiltinStringLiteralProtocol,
	"string_interpolation":      decl.StringInterpolationProtocol,
	"array_literal":             decl.ArrayLiteralProtocol,
	"dictionary_literal":        decl.DictionaryLiteralProtocol,
	"logic_value":               decl.LogicValueProtocol,
	"array_bound":               decl.ArrayBoundProtocol,
	"dynamic_lookup":            decl.DynamicLookupProtocol,
}

func (b *builder) buildWorld(spec WorldSpec, decls []DeclSpec, tvs []TvSpec) error {
	// Names first, bodies after, so declarations can refer to each other.
	archetypes := make(map[string]*types.Archetype, len(spec.Archetypes))
	for _, a := range spec.Archetypes {
		archetype := &types.Archetype{Name: a.Name}
		archetypes[a.Name] = archetype
		b.typeNames[a.Name] = archetype
	}

	typeDecls := make(map[string]*decl.TypeDecl, len(spec.Types))
	typeLocals := make(map[string]map[string]types.Type, len(spec.Types))
	for _, t := range spec.Types {
		kind, err := parseTypeKind(t.Kind)
		if err != nil {
			return err
		}

		typeDecl := &decl.TypeDecl{
			Base: decl.Base{Name: t.Name, Facts: database.NewFacts(b.span(t.Name))},
			Kind: kind,
		}

		local := map[string]types.Type{}
		for _, param := range t.Params {
			archetype := &types.Archetype{Name: param}
			typeDecl.Params = append(typeDecl.Params, archetype)
			local[param] = archetype
		}

		typeDecls[t.Name] = typeDecl
		typeLocals[t.Name] = local
		b.typeNames[t.Name] = typeDecl.DeclaredType()
		b.declNames[t.Name] = typeDecl
		typeDecl.Ty = &types.Metatype{Instance: typeDecl.DeclaredType()}
	}

	for _, p := range spec.Protocols {
		proto := &decl.ProtocolDecl{
			Base:          decl.Base{Name: p.Name, Facts: database.NewFacts(b.span(p.Name))},
			SelfArchetype: &types.Archetype{Name: "Self"},
		}

		b.protocols[p.Name] = proto
		b.typeNames[p.Name] = &types.Existential{Protocols: []types.Protocol{proto}}
		proto.Ty = &types.Metatype{Instance: b.typeNames[p.Name]}
		b.declNames[p.Name] = proto

		if p.Role != "" {
			role, ok := roles[p.Role]
			if !ok {
				return fmt.Errorf("unknown protocol role %q", p.Role)
			}

			b.world.Protocols[role] = proto
		}
	}

	// Protocol requirements, with Self and the associated types in scope.
	for _, p := range spec.Protocols {
		proto := b.protocols[p.Name]

		local := map[string]types.Type{"Self": proto.SelfArchetype}
		proto.SelfArchetype.Conforms = []types.Protocol{proto}
		for _, assoc := range p.Assoc {
			archetype := &types.Archetype{Name: assoc}
			local[assoc] = archetype
			b.typeNames[p.Name+"."+assoc] = archetype
		}

		for _, req := range p.Requirements {
			member, err := b.buildDecl(req, proto.SelfArchetype, p.Name, local)
			if err != nil {
				return err
			}

			proto.Members = append(proto.Members, member)
		}
	}

	for _, a := range spec.Archetypes {
		archetype := archetypes[a.Name]

		if a.Superclass != "" {
			super, err := b.parseType(a.Superclass, nil)
			if err != nil {
				return err
			}
			archetype.Superclass = super
		}

		for _, name := range a.Conforms {
			proto, ok := b.protocols[name]
			if !ok {
				return fmt.Errorf("unknown protocol %q", name)
			}
			archetype.Conforms = append(archetype.Conforms, proto)
		}
	}

	for _, t := range spec.Types {
		typeDecl := typeDecls[t.Name]
		local := typeLocals[t.Name]

		if t.Superclass != "" {
			super, err := b.parseType(t.Superclass, local)
			if err != nil {
				return err
			}
			typeDecl.Superclass = super
		}

		for _, m := range t.Members {
			member, err := b.buildDecl(m, typeDecl.DeclaredType(), t.Name, local)
			if err != nil {
				return err
			}

			typeDecl.Members = append(typeDecl.Members, member)
		}
	}

	for _, name := range spec.Modules {
		module := &decl.ModuleDecl{Base: decl.Base{
			Name:  name,
			Ty:    &types.Module{Name: name},
			Facts: database.NewFacts(b.span(name)),
		}}
		b.declNames[name] = module
	}

	for _, d := range decls {
		if _, err := b.buildDecl(d, nil, "", nil); err != nil {
			return err
		}
	}

	for i, tv := range tvs {
		variable := &types.TypeVariable{Id: i}

		if tv.Opened != "" {
			opened, err := b.parseType(tv.Opened, nil)
			if err != nil {
				return err
			}

			archetype, ok := opened.(*types.Archetype)
			if !ok {
				return fmt.Errorf("tv %q opened from non-archetype %q", tv.Name, tv.Opened)
			}
			variable.Opened = archetype
		}

		if tv.Anchor != "" {
			role, ok := roles[tv.Anchor]
			if !ok {
				return fmt.Errorf("unknown anchor role %q", tv.Anchor)
			}
			variable.Anchor = role
		}

		b.tvs[tv.Name] = variable
	}

	for _, c := range spec.Conformances {
		if err := b.buildConformance(c); err != nil {
			return err
		}
	}

	for role, name := range spec.Defaults {
		kp, ok := roles[role]
		if !ok {
			return fmt.Errorf("unknown default role %q", role)
		}

		ty, err := b.parseType(name, nil)
		if err != nil {
			return err
		}

		b.world.DefaultTypes[kp] = ty
	}

	if spec.ArrayInjection != "" {
		injection, ok := b.declNames[spec.ArrayInjection].(*decl.FuncDecl)
		if !ok {
			return fmt.Errorf("array injection %q is not a function", spec.ArrayInjection)
		}

		b.world.ArrayInjection = injection
	}

	return nil
}

func parseTypeKind(kind string) (decl.TypeDeclKind, error) {
	switch kind {
	case "", "struct":
		return decl.StructDecl, nil
	case "class":
		return decl.ClassDecl, nil
	case "enum":
		return decl.EnumDecl, nil
	default:
		return 0, fmt.Errorf("unknown type kind %q", kind)
	}
}

func (b *builder) buildDecl(spec DeclSpec, container types.Type, prefix string, local map[string]types.Type) (decl.Decl, error) {
	register := func(name string, d decl.Decl) {
		b.declNames[name] = d
		if prefix != "" {
			b.declNames[prefix+"."+name] = d
		}
	}

	switch {
	case spec.Func != "":
		ty, err := b.parseType(spec.Type, local)
		if err != nil {
			return nil, err
		}

		d := &decl.FuncDecl{
			Base:       decl.Base{Name: spec.Func, Ty: ty, Facts: database.NewFacts(b.span(spec.Func))},
			Container:  container,
			Instance:   spec.Instance,
			Static:     spec.Static,
			Operator:   spec.Operator,
			Conversion: spec.Conversion,
			Assignment: spec.Assignment,
			ArgClauses: spec.ArgClauses,
		}
		register(spec.Func, d)
		return d, nil

	case spec.Var != "":
		ty, err := b.parseType(spec.Type, local)
		if err != nil {
			return nil, err
		}

		d := &decl.VarDecl{
			Base:      decl.Base{Name: spec.Var, Ty: ty, Facts: database.NewFacts(b.span(spec.Var))},
			Container: container,
			Stored:    spec.Stored,
		}
		register(spec.Var, d)
		return d, nil

	case spec.Constructor != "":
		ty, err := b.parseType(spec.Type, local)
		if err != nil {
			return nil, err
		}

		initTy, err := b.parseType(spec.InitType, local)
		if err != nil {
			return nil, err
		}

		d := &decl.ConstructorDecl{
			Base:          decl.Base{Name: spec.Constructor, Ty: ty, Facts: database.NewFacts(b.span(spec.Constructor))},
			Container:     container,
			InitializerTy: initTy,
		}
		register(spec.Constructor, d)
		return d, nil

	case spec.Element != "":
		ty, err := b.parseType(spec.Type, local)
		if err != nil {
			return nil, err
		}

		d := &decl.EnumElementDecl{
			Base:      decl.Base{Name: spec.Element, Ty: ty, Facts: database.NewFacts(b.span(spec.Element))},
			Container: container,
		}
		register(spec.Element, d)
		return d, nil

	case spec.Subscript != "":
		indexTy, err := b.parseType(spec.Index, local)
		if err != nil {
			return nil, err
		}

		elemTy, err := b.parseType(spec.ElemType, local)
		if err != nil {
			return nil, err
		}

		d := &decl.SubscriptDecl{
			Base: decl.Base{
				Name:  spec.Subscript,
				Ty:    &types.Function{Input: indexTy, Result: elemTy},
				Facts: database.NewFacts(b.span(spec.Subscript)),
			},
			Container: container,
			IndexTy:   indexTy,
			ElementTy: elemTy,
		}
		register(spec.Subscript, d)
		return d, nil

	default:
		return nil, fmt.Errorf("declaration needs a name")
	}
}

func (b *builder) buildConformance(spec ConformanceSpec) error {
	ty, err := b.parseType(spec.Type, nil)
	if err != nil {
		return err
	}

	proto, ok := b.protocols[spec.Protocol]
	if !ok {
		return fmt.Errorf("unknown protocol %q", spec.Protocol)
	}

	conformance := &decl.Conformance{
		Ty:            ty,
		Proto:         proto,
		Witnesses:     map[string]decl.Decl{},
		TypeWitnesses: map[*types.Archetype]types.Type{},
	}

	for requirement, witness := range spec.Witnesses {
		d, ok := b.declNames[witness]
		if !ok {
			return fmt.Errorf("unknown witness %q", witness)
		}

		conformance.Witnesses[requirement] = d
	}

	for assoc, witness := range spec.TypeWitnesses {
		witnessTy, err := b.parseType(witness, nil)
		if err != nil {
			return err
		}

		archetype, err := b.assocArchetype(spec.Protocol, proto, assoc)
		if err != nil {
			return err
		}

		conformance.TypeWitnesses[archetype] = witnessTy
	}

	b.world.Conformances = append(b.world.Conformances, conformance)
	return nil
}

func (b *builder) assocArchetype(protoName string, proto *decl.ProtocolDecl, assoc string) (*types.Archetype, error) {
	if assoc == "Self" {
		return proto.SelfArchetype, nil
	}

	ty, ok := b.typeNames[protoName+"."+assoc]
	if !ok {
		return nil, fmt.Errorf("protocol %q has no associated type %q", protoName, assoc)
	}

	return ty.(*types.Archetype), nil
}

func (b *builder) buildSolution(scenario *Scenario) (*apply.Solution, error) {
	solution := apply.NewSolution(b.db)

	for name, binding := range scenario.Bindings {
		tv, ok := b.tvs[name]
		if !ok {
			return nil, fmt.Errorf("unknown type variable %q", name)
		}

		ty, err := b.parseType(binding, nil)
		if err != nil {
			return nil, err
		}

		solution.Bind(tv, ty)
	}

	for _, o := range scenario.Overloads {
		anchor, ok := b.nodes[o.At]
		if !ok {
			return nil, fmt.Errorf("unknown overload anchor %q", o.At)
		}

		locator := apply.NewLocator(anchor)
		for _, step := range o.Path {
			kind, err := parsePathKind(step)
			if err != nil {
				return nil, err
			}
			locator = locator.With(kind)
		}

		kind, err := parseChoiceKind(o.Kind)
		if err != nil {
			return nil, err
		}

		choice := apply.OverloadChoice{Kind: kind, TupleIndex: o.Index}

		if o.Decl != "" {
			d, ok := b.declNames[o.Decl]
			if !ok {
				return nil, fmt.Errorf("unknown declaration %q", o.Decl)
			}
			choice.Decl = d
		}

		if o.BaseTy != "" {
			baseTy, err := b.parseType(o.BaseTy, nil)
			if err != nil {
				return nil, err
			}
			choice.BaseTy = baseTy
		}

		opened, err := b.parseType(o.Opened, nil)
		if err != nil {
			return nil, err
		}

		solution.RecordOverload(locator, apply.SelectedOverload{Choice: choice, OpenedTy: opened})
	}

	for _, r := range scenario.Restrictions {
		from, err := b.parseType(r.From, nil)
		if err != nil {
			return nil, err
		}

		to, err := b.parseType(r.To, nil)
		if err != nil {
			return nil, err
		}

		restriction, err := parseRestriction(r.Kind)
		if err != nil {
			return nil, err
		}

		solution.RecordRestriction(from, to, restriction)
	}

	return solution, nil
}

var pathKinds = map[string]apply.PathKind{
	"apply_arg":          apply.PathApplyArgument,
	"apply_fn":           apply.PathApplyFunction,
	"member":             apply.PathMember,
	"member_base":        apply.PathMemberRefBase,
	"subscript_index":    apply.PathSubscriptIndex,
	"subscript_member":   apply.PathSubscriptMember,
	"subscript_result":   apply.PathSubscriptResult,
	"constructor_member": apply.PathConstructorMember,
	"conversion_member":  apply.PathConversionMember,
	"scalar_to_tuple":    apply.PathScalarToTuple,
	"fn_arg":             apply.PathFunctionArgument,
	"fn_result":          apply.PathFunctionResult,
}

func parsePathKind(name string) (apply.PathKind, error) {
	kind, ok := pathKinds[name]
	if !ok {
		return 0, fmt.Errorf("unknown locator path kind %q", name)
	}

	return kind, nil
}

func parseChoiceKind(name string) (apply.ChoiceKind, error) {
	switch name {
	case "", "decl":
		return apply.ChoiceDecl, nil
	case "dynamic":
		return apply.ChoiceDeclViaDynamic, nil
	case "type":
		return apply.ChoiceTypeDecl, nil
	case "base_type":
		return apply.ChoiceBaseType, nil
	case "fn_base":
		return apply.ChoiceFunctionReturningBaseType, nil
	case "identity":
		return apply.ChoiceIdentityFunction, nil
	case "tuple_index":
		return apply.ChoiceTupleIndex, nil
	default:
		return 0, fmt.Errorf("unknown overload choice kind %q", name)
	}
}

func parseRestriction(name string) (apply.Restriction, error) {
	switch name {
	case "tuple_to_tuple":
		return apply.RestrictTupleToTuple, nil
	case "scalar_to_tuple":
		return apply.RestrictScalarToTuple, nil
	case "deep_equality":
		return apply.RestrictDeepEquality, nil
	case "superclass":
		return apply.RestrictSuperclass, nil
	case "lvalue_to_rvalue":
		return apply.RestrictLValueToRValue, nil
	case "existential":
		return apply.RestrictExistential, nil
	case "value_to_optional":
		return apply.RestrictValueToOptional, nil
	case "user":
		return apply.RestrictUser, nil
	default:
		return 0, fmt.Errorf("unknown restriction %q", name)
	}
}
