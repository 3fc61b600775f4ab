package php

import (
	"strings"

	"github.com/dhamidi/phpintel/php/parser"
)

// member is the scratch state for the declaration currently being read.
// It is reset whenever a member scope closes.
type member struct {
	visibility Visibility
	static     bool
	kind       Kind
	name       string
	args       []Arg
	inArgs     bool
	argDepth   int
	argsDone   bool
	hint       string
	returns    string
	doc        string
	line       int
}

// classScope is the scratch state of the enclosing class, reset when its
// body closes at nesting 0.
type classScope struct {
	name       string
	extends    string
	implements string
	inClass    bool
	line       int
}

type extractor struct {
	tokens []parser.Token
	nest   int

	// Braced namespace blocks do not count as nesting.
	namespacePending bool
	inNamespaceBlock bool

	class  classScope
	member member
	decls  []Declaration
}

// Extract converts the tokens of one file into declarations. It never fails:
// missing structure degrades to default field values.
func Extract(tokens []parser.Token) []Declaration {
	e := &extractor{tokens: tokens}
	for i := range tokens {
		e.step(i)
	}
	// Unterminated file-scope declarations still count.
	e.emitMember()
	if e.class.name != "" {
		e.emitClass()
	}
	return e.decls
}

func (e *extractor) step(i int) {
	tok := e.tokens[i]
	m := &e.member

	switch {
	case tok.Kind == parser.TokenWhitespace, tok.Kind == parser.TokenComment:
		return

	case tok.Is("{"):
		if e.namespacePending && e.nest == 0 {
			e.namespacePending = false
			e.inNamespaceBlock = true
			return
		}
		e.nest++

	case tok.Is("}"):
		if e.nest == 0 {
			e.inNamespaceBlock = false
			return
		}
		e.nest--
		if e.nest == 0 {
			e.emitMember()
			if e.class.name != "" {
				e.emitClass()
			}
			e.class = classScope{}
		}
		if e.class.inClass && e.nest == 1 {
			e.emitMember()
		}

	case tok.Is(";"):
		e.namespacePending = false
		if e.class.inClass && e.nest == 1 || e.nest == 0 && e.class.name == "" {
			e.emitMember()
		}

	case tok.Is("(") && m.inArgs:
		m.argDepth++

	case tok.Is(")") && m.inArgs:
		m.argDepth--
		if m.argDepth == 0 {
			m.inArgs = false
			m.argsDone = true
			if m.returns == "" {
				m.returns = e.nativeReturnType(i)
			}
		}

	case tok.Is("(") && m.kind == KindFunc && !m.argsDone && e.atMemberLevel():
		m.inArgs = true
		m.argDepth = 1

	case tok.Is(",") && m.inArgs && m.argDepth == 1:
		m.hint = ""

	case tok.Kind == parser.TokenVariable && m.inArgs:
		if m.argDepth != 1 {
			return
		}
		typ := ParamType(m.doc, tok.Literal)
		if typ == "" {
			typ = m.hint
		}
		m.args = append(m.args, Arg{Name: tok.Literal, Type: typ})
		m.hint = ""

	case !e.atMemberLevel():
		// Method and function bodies contribute nothing.

	case tok.Kind == parser.TokenPublic:
		m.visibility = VisibilityPublic
	case tok.Kind == parser.TokenProtected:
		m.visibility = VisibilityProtected
	case tok.Kind == parser.TokenPrivate:
		m.visibility = VisibilityPrivate
	case tok.Kind == parser.TokenStatic:
		if e.class.inClass {
			m.static = true
		}
	case tok.Kind == parser.TokenDocComment:
		m.doc = tok.Literal

	case tok.Kind == parser.TokenVariable:
		if m.kind != "" || !e.class.inClass || m.name != "" {
			return
		}
		m.kind = KindVar
		m.name = tok.Literal
		m.line = tok.Line
		m.args = nil
		m.returns = VarType(m.doc)
		if m.returns == "" {
			m.returns = m.hint
		}

	case tok.Kind == parser.TokenString && m.kind == "" && e.class.inClass && e.nest == 1:
		// Property type declaration: public ?Foo $bar;
		if m.hint == "" {
			m.hint = ShortName(tok.Literal)
		}
	case tok.Kind == parser.TokenString && m.inArgs:
		if m.hint == "" {
			m.hint = ShortName(tok.Literal)
		}

	case tok.Kind == parser.TokenConst:
		m.kind = KindVar
		m.name = e.lookahead(i, parser.TokenString)
		m.line = tok.Line
		m.args = nil
		m.static = e.class.inClass
		m.returns = VarType(m.doc)

	case tok.Kind == parser.TokenFunction:
		m.kind = KindFunc
		m.name = e.functionName(i)
		m.line = tok.Line
		m.args = nil
		if m.name == "__construct" && e.class.name != "" {
			m.returns = e.class.name
		}
		if typ := ReturnType(m.doc); typ != "" {
			m.returns = e.selfType(typ)
		}

	case e.nest != 0:

	case tok.Kind == parser.TokenClass, tok.Kind == parser.TokenInterface, tok.Kind == parser.TokenTrait,
		tok.Kind == parser.TokenKeyword && strings.EqualFold(tok.Literal, "enum"):
		prev := e.previous(i)
		if prev.Kind == parser.TokenDoubleColon || prev.Kind == parser.TokenNew {
			return
		}
		e.emitMember()
		e.class.inClass = true
		e.class.name = ShortName(e.lookahead(i, parser.TokenString))
		e.class.line = tok.Line
	case tok.Kind == parser.TokenExtends:
		e.class.extends = ShortName(e.lookahead(i, parser.TokenString))
	case tok.Kind == parser.TokenImplements:
		e.class.implements = ShortName(e.lookahead(i, parser.TokenString))
	case tok.Kind == parser.TokenKeyword && strings.EqualFold(tok.Literal, "namespace"):
		e.namespacePending = true
	}
}

// atMemberLevel reports whether the current nesting is where declarations
// live: file scope, or directly inside a class body.
func (e *extractor) atMemberLevel() bool {
	return e.nest == 0 || e.class.inClass && e.nest == 1
}

func (e *extractor) emitMember() {
	m := e.member
	e.member = member{}
	if m.name == "" {
		return
	}
	owner := e.class.name
	if owner == "" {
		owner = GlobalClass
	}
	visibility := m.visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}
	e.decls = append(e.decls, Declaration{
		Class:      owner,
		Kind:       m.kind,
		Name:       m.name,
		Visibility: visibility,
		Static:     m.static,
		Args:       m.args,
		Returns:    m.returns,
		Doc:        m.doc,
		Line:       m.line,
	})
}

func (e *extractor) emitClass() {
	e.decls = append(e.decls, Declaration{
		Class:      e.class.name,
		Extends:    e.class.extends,
		Implements: e.class.implements,
		Kind:       KindClass,
		Name:       e.class.name,
		Visibility: VisibilityPublic,
		Returns:    e.class.name,
		Line:       e.class.line,
	})
}

// lookahead returns the literal of the next token of kind after position i.
func (e *extractor) lookahead(i int, kind parser.TokenKind) string {
	for j := i + 1; j < len(e.tokens); j++ {
		if e.tokens[j].Kind == kind {
			return e.tokens[j].Literal
		}
	}
	return ""
}

// functionName returns the name following the function keyword at
// position i, or "" for a closure.
func (e *extractor) functionName(i int) string {
	j := e.skipSpace(i + 1)
	if j < len(e.tokens) && e.tokens[j].Is("&") {
		j = e.skipSpace(j + 1)
	}
	if j < len(e.tokens) && e.tokens[j].Is("(") {
		return ""
	}
	return e.lookahead(i, parser.TokenString)
}

// previous returns the closest non-whitespace token before position i.
func (e *extractor) previous(i int) parser.Token {
	for j := i - 1; j >= 0; j-- {
		if !isSpace(e.tokens[j]) {
			return e.tokens[j]
		}
	}
	return parser.Token{}
}

// nativeReturnType reads a ": Type" return declaration following the
// closing parenthesis at position i.
func (e *extractor) nativeReturnType(i int) string {
	j := e.skipSpace(i + 1)
	if j >= len(e.tokens) || !e.tokens[j].Is(":") {
		return ""
	}
	j = e.skipSpace(j + 1)
	if j < len(e.tokens) && e.tokens[j].Is("?") {
		j = e.skipSpace(j + 1)
	}
	if j >= len(e.tokens) {
		return ""
	}
	switch tok := e.tokens[j]; tok.Kind {
	case parser.TokenString:
		return e.selfType(ShortName(tok.Literal))
	case parser.TokenStatic:
		return e.class.name
	}
	return ""
}

// selfType maps self and static to the enclosing class.
func (e *extractor) selfType(typ string) string {
	switch strings.ToLower(typ) {
	case "self", "static":
		if e.class.name != "" {
			return e.class.name
		}
	}
	return typ
}

func (e *extractor) skipSpace(j int) int {
	for j < len(e.tokens) && isSpace(e.tokens[j]) {
		j++
	}
	return j
}

func isSpace(tok parser.Token) bool {
	switch tok.Kind {
	case parser.TokenWhitespace, parser.TokenComment, parser.TokenDocComment:
		return true
	}
	return false
}
