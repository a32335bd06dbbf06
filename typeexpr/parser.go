package typeexpr

import (
	"fmt"
	"strconv"
	"strings"

	"quill/types"
)

// Lookup resolves a type name to the type it denotes in the surrounding
// scenario.
type Lookup func(name string) (types.Type, bool)

type Error struct {
	Message string
	Source  string
}

func (err *Error) Error() string {
	return fmt.Sprintf("%s in type %q", err.Message, err.Source)
}

// Parse reads a type from its written form.
func Parse(source string, lookup Lookup) (types.Type, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}

	p := &parser{source: source, tokens: tokens, lookup: lookup}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if !p.done() {
		return nil, p.errorf("trailing %q", p.peek().value)
	}

	return ty, nil
}

type parser struct {
	source string
	tokens []Token
	pos    int
	lookup Lookup
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() Token {
	if p.done() {
		return Token{kind: "End"}
	}

	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	token := p.peek()
	p.pos++
	return token
}

func (p *parser) accept(kind string) (Token, bool) {
	if p.peek().kind != kind {
		return Token{}, false
	}

	return p.next(), true
}

func (p *parser) expect(kind string) (Token, error) {
	token, ok := p.accept(kind)
	if !ok {
		return Token{}, p.errorf("expected %s, found %q", kind, p.peek().value)
	}

	return token, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...), Source: p.source}
}

// parseType handles the arrow level; arrows associate to the right.
func (p *parser) parseType() (types.Type, error) {
	var attrs []string
	for {
		attr, ok := p.accept("Attribute")
		if !ok {
			break
		}

		attrs = append(attrs, attr.value)
	}

	left, err := p.parseComposition()
	if err != nil {
		return nil, err
	}

	if _, ok := p.accept("Arrow"); ok {
		result, err := p.parseType()
		if err != nil {
			return nil, err
		}

		left = &types.Function{Input: left, Result: result}
	}

	return p.applyAttrs(left, attrs)
}

func (p *parser) applyAttrs(ty types.Type, attrs []string) (types.Type, error) {
	for i := len(attrs) - 1; i >= 0; i-- {
		switch attrs[i] {
		case "@lvalue":
			ty = &types.LValue{Object: ty}

		case "@implicit_lvalue":
			ty = &types.LValue{Object: types.RValue(ty), Quals: types.MemberAccessQuals}

		case "@auto_closure":
			fn, ok := ty.(*types.Function)
			if !ok {
				return nil, p.errorf("%s requires a function type", attrs[i])
			}
			clone := *fn
			clone.AutoClosure = true
			ty = &clone

		case "@objc_block":
			fn, ok := ty.(*types.Function)
			if !ok {
				return nil, p.errorf("%s requires a function type", attrs[i])
			}
			clone := *fn
			clone.Foreign = true
			ty = &clone

		default:
			return nil, p.errorf("unknown attribute %s", attrs[i])
		}
	}

	return ty, nil
}

// parseComposition handles P & Q existential compositions.
func (p *parser) parseComposition() (types.Type, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	if p.peek().kind != "Ampersand" {
		return first, nil
	}

	protocols, err := p.compositionProtocols(first)
	if err != nil {
		return nil, err
	}

	for {
		if _, ok := p.accept("Ampersand"); !ok {
			break
		}

		next, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}

		more, err := p.compositionProtocols(next)
		if err != nil {
			return nil, err
		}

		protocols = append(protocols, more...)
	}

	return &types.Existential{Protocols: protocols}, nil
}

func (p *parser) compositionProtocols(ty types.Type) ([]types.Protocol, error) {
	existential, ok := ty.(*types.Existential)
	if !ok {
		return nil, p.errorf("composition member %s is not a protocol", types.Display(ty))
	}

	return existential.Protocols, nil
}

// parsePostfix handles the suffixes: T?, T[], T.Type.
func (p *parser) parsePostfix() (types.Type, error) {
	ty, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().kind {
		case "Question":
			p.next()
			ty = &types.Optional{Value: ty}

		case "LeftBracket":
			p.next()
			if _, err := p.expect("RightBracket"); err != nil {
				return nil, err
			}
			ty = &types.Slice{Element: ty}

		case "Dot":
			p.next()
			name, err := p.expect("Name")
			if err != nil {
				return nil, err
			}
			if name.value != "Type" {
				return nil, p.errorf("expected Type after '.', found %q", name.value)
			}
			ty = &types.Metatype{Instance: ty}

		default:
			return ty, nil
		}
	}
}

func (p *parser) parsePrimary() (types.Type, error) {
	switch p.peek().kind {
	case "LeftParen":
		return p.parseTuple()

	case "Name":
		return p.parseNamed()

	default:
		return nil, p.errorf("expected a type, found %q", p.peek().value)
	}
}

func (p *parser) parseNamed() (types.Type, error) {
	name := p.next().value

	if name == "Builtin" {
		return p.parseBuiltin()
	}

	ty, ok := p.lookup(name)
	if !ok {
		return nil, p.errorf("unknown type %q", name)
	}

	if p.peek().kind != "LeftAngle" {
		return ty, nil
	}

	nominal, isNominal := ty.(*types.Nominal)
	if !isNominal {
		return nil, p.errorf("%q does not take type arguments", name)
	}

	p.next()
	var args []types.Type
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if _, ok := p.accept("Comma"); !ok {
			break
		}
	}

	if _, err := p.expect("RightAngle"); err != nil {
		return nil, err
	}

	return &types.Nominal{Decl: nominal.Decl, Args: args}, nil
}

func (p *parser) parseBuiltin() (types.Type, error) {
	if _, err := p.expect("Dot"); err != nil {
		return nil, err
	}

	name, err := p.expect("Name")
	if err != nil {
		return nil, err
	}

	switch {
	case name.value == "RawPointer":
		return &types.BuiltinRawPointer{}, nil

	case strings.HasPrefix(name.value, "Int"):
		bits, err := strconv.Atoi(name.value[len("Int"):])
		if err != nil {
			return nil, p.errorf("invalid builtin %q", name.value)
		}
		return &types.BuiltinInteger{Bits: bits}, nil

	case strings.HasPrefix(name.value, "Float"):
		bits, err := strconv.Atoi(name.value[len("Float"):])
		if err != nil {
			return nil, p.errorf("invalid builtin %q", name.value)
		}
		return &types.BuiltinFloat{Bits: bits}, nil

	default:
		return nil, p.errorf("unknown builtin %q", name.value)
	}
}

// parseTuple reads a parenthesized type: a bare grouping for a single
// unadorned element, a tuple otherwise. Elements are written
// `name: type = default` with an optional trailing `...` on the type.
func (p *parser) parseTuple() (types.Type, error) {
	if _, err := p.expect("LeftParen"); err != nil {
		return nil, err
	}

	if _, ok := p.accept("RightParen"); ok {
		return types.EmptyTuple(), nil
	}

	var elements []types.TupleElement
	adorned := false

	for {
		element, named, err := p.parseTupleElement()
		if err != nil {
			return nil, err
		}

		adorned = adorned || named || element.Variadic || element.HasDefault()
		elements = append(elements, element)

		if _, ok := p.accept("Comma"); !ok {
			break
		}
	}

	if _, err := p.expect("RightParen"); err != nil {
		return nil, err
	}

	if len(elements) == 1 && !adorned {
		return elements[0].Ty, nil
	}

	return &types.Tuple{Elements: elements}, nil
}

func (p *parser) parseTupleElement() (types.TupleElement, bool, error) {
	var element types.TupleElement
	named := false

	// A name is only a field label when a colon follows it.
	if p.peek().kind == "Name" && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].kind == "Colon" {
		element.Name = p.next().value
		p.next()
		named = true
	}

	ty, err := p.parseType()
	if err != nil {
		return element, false, err
	}

	if _, ok := p.accept("Ellipsis"); ok {
		element.Variadic = true
		ty = &types.Slice{Element: ty}
	}

	element.Ty = ty

	if _, ok := p.accept("Equal"); ok {
		kind, err := p.expect("Name")
		if err != nil {
			return element, false, err
		}

		switch kind.value {
		case "default":
			element.Default = types.NormalDefault
		case "file":
			element.Default = types.FileDefault
		case "line":
			element.Default = types.LineDefault
		case "column":
			element.Default = types.ColumnDefault
		default:
			return element, false, p.errorf("unknown default kind %q", kind.value)
		}
	}

	return element, named, nil
}
