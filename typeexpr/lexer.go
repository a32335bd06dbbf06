// Package typeexpr parses the compact written form of types used by scenario
// files and tests: tuples with names, defaults, and variadic fields, function
// arrows, lvalues, optionals, slices, metatypes, and protocol compositions.
package typeexpr

import (
	lex "github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

type Token struct {
	kind  string
	value string
	start int
}

type tokenRule struct {
	kind    string
	pattern string
	skip    bool
}

var rules = []tokenRule{
	{kind: "Space", pattern: `[ \t\n]+`, skip: true},
	{kind: "Arrow", pattern: `->`},
	{kind: "Ellipsis", pattern: `\.\.\.`},
	{kind: "Dot", pattern: `\.`},
	{kind: "Comma", pattern: `,`},
	{kind: "Colon", pattern: `:`},
	{kind: "Equal", pattern: `=`},
	{kind: "Question", pattern: `\?`},
	{kind: "Ampersand", pattern: `&`},
	{kind: "LeftParen", pattern: `\(`},
	{kind: "RightParen", pattern: `\)`},
	{kind: "LeftBracket", pattern: `\[`},
	{kind: "RightBracket", pattern: `\]`},
	{kind: "LeftAngle", pattern: `<`},
	{kind: "RightAngle", pattern: `>`},
	{kind: "Attribute", pattern: `@[a-z_]+`},
	{kind: "Name", pattern: `[A-Za-z_][A-Za-z0-9_]*`},
}

var lexer *lex.Lexer

var tokenIds = make(map[string]int, len(rules))
var tokenKinds = make([]string, 0, len(rules))

func token(kind string) lex.Action {
	return func(s *lex.Scanner, m *machines.Match) (any, error) {
		if _, ok := tokenIds[kind]; !ok {
			tokenIds[kind] = len(tokenIds)
			tokenKinds = append(tokenKinds, kind)
		}

		return s.Token(tokenIds[kind], string(m.Bytes), m), nil
	}
}

func skip(*lex.Scanner, *machines.Match) (any, error) {
	return nil, nil
}

func init() {
	lexer = lex.NewLexer()

	for _, rule := range rules {
		f := skip
		if !rule.skip {
			f = token(rule.kind)
		}

		lexer.Add([]byte(rule.pattern), f)
	}

	if err := lexer.CompileNFA(); err != nil {
		panic(err)
	}
}

func tokenize(source string) ([]Token, error) {
	scanner, err := lexer.Scanner([]byte(source))
	if err != nil {
		panic(err)
	}

	var tokens []Token
	for token, err, eof := scanner.Next(); !eof; token, err, eof = scanner.Next() {
		if err != nil {
			return nil, &Error{Message: "unexpected character", Source: source}
		}

		token := token.(*lex.Token)
		tokens = append(tokens, Token{
			kind:  tokenKinds[token.Type],
			value: token.Value.(string),
			start: token.TC,
		})
	}

	return tokens, nil
}
