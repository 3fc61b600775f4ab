package parser

import (
	"strings"
)

// Lexer turns PHP source into tokens. Text outside <?php ... ?> is inline
// HTML; the lexer starts in that mode like the PHP engine does.
type Lexer struct {
	input  []byte
	pos    int
	line   int
	inCode bool

	// last significant token kind, for names that follow -> or function.
	prev TokenKind
}

func NewLexer(input []byte) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
	}
}

// NewCodeLexer returns a lexer that starts inside a PHP code block, for
// snippets that carry no open tag.
func NewCodeLexer(input []byte) *Lexer {
	l := NewLexer(input)
	l.inCode = true
	return l
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(string(l.input[l.pos:min(len(l.input), l.pos+len(s))]), s)
}

func (l *Lexer) hasPrefixFold(s string) bool {
	end := l.pos + len(s)
	if end > len(l.input) {
		return false
	}
	return strings.EqualFold(string(l.input[l.pos:end]), s)
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

// Next returns the next token and false once the input is exhausted.
func (l *Lexer) Next() (Token, bool) {
	if l.pos >= len(l.input) {
		return Token{}, false
	}
	if !l.inCode {
		return l.scanInlineHTML(), true
	}
	tok := l.scanCode()
	switch tok.Kind {
	case TokenWhitespace, TokenComment, TokenDocComment:
	default:
		l.prev = tok.Kind
	}
	return tok, true
}

// All drains the lexer.
func (l *Lexer) All() []Token {
	var tokens []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) scanInlineHTML() Token {
	start, line := l.pos, l.line
	for l.pos < len(l.input) {
		if l.peek() == '<' && l.peekN(1) == '?' {
			if l.pos > start {
				break
			}
			return l.scanOpenTag()
		}
		l.advance()
	}
	return l.token(TokenInlineHTML, start, line)
}

func (l *Lexer) scanOpenTag() Token {
	start, line := l.pos, l.line
	kind := TokenOpenTag
	switch {
	case l.hasPrefixFold("<?php") && (isSpace(l.peekN(5)) || l.pos+5 == len(l.input)):
		l.advanceN(5)
		// The open tag swallows one trailing newline or space.
		if l.peek() == '\r' && l.peekN(1) == '\n' {
			l.advanceN(2)
		} else if isSpace(l.peek()) {
			l.advance()
		}
	case l.hasPrefix("<?="):
		l.advanceN(3)
		kind = TokenOpenTagWithEcho
	default:
		l.advanceN(2)
	}
	l.inCode = true
	return l.token(kind, start, line)
}

func (l *Lexer) scanCode() Token {
	start, line := l.pos, l.line
	ch := l.peek()

	switch {
	case isSpace(ch):
		for isSpace(l.peek()) {
			l.advance()
		}
		return l.token(TokenWhitespace, start, line)
	case ch == '?' && l.peekN(1) == '>':
		l.advanceN(2)
		if l.peek() == '\n' {
			l.advance()
		}
		l.inCode = false
		return l.token(TokenCloseTag, start, line)
	case ch == '/' && l.peekN(1) == '*':
		return l.scanBlockComment(start, line)
	case ch == '/' && l.peekN(1) == '/', ch == '#' && l.peekN(1) != '[':
		return l.scanLineComment(start, line)
	case ch == '$' && isNameStart(l.peekN(1)):
		l.advance()
		for isNameChar(l.peek()) {
			l.advance()
		}
		return l.token(TokenVariable, start, line)
	case isNameStart(ch) || ch == '\\' && isNameStart(l.peekN(1)):
		return l.scanName(start, line)
	case isDigit(ch) || ch == '.' && isDigit(l.peekN(1)):
		return l.scanNumber(start, line)
	case ch == '\'' || ch == '"' || ch == '`':
		return l.scanQuoted(ch, start, line)
	case ch == '<' && l.hasPrefix("<<<"):
		if tok, ok := l.scanHeredoc(start, line); ok {
			return tok
		}
	}
	return l.scanOperator(start, line)
}

func (l *Lexer) scanLineComment(start, line int) Token {
	for l.pos < len(l.input) && l.peek() != '\n' {
		if l.peek() == '?' && l.peekN(1) == '>' {
			break
		}
		l.advance()
	}
	return l.token(TokenComment, start, line)
}

func (l *Lexer) scanBlockComment(start, line int) Token {
	kind := TokenComment
	if l.peekN(2) == '*' && isSpace(l.peekN(3)) {
		kind = TokenDocComment
	}
	l.advanceN(2)
	for l.pos < len(l.input) {
		if l.peek() == '*' && l.peekN(1) == '/' {
			l.advanceN(2)
			break
		}
		l.advance()
	}
	return l.token(kind, start, line)
}

// scanName reads an identifier or a namespace-qualified name such as
// \Foo\Bar. Qualified names are a single T_STRING.
func (l *Lexer) scanName(start, line int) Token {
	for {
		if l.peek() == '\\' && isNameStart(l.peekN(1)) {
			l.advance()
			continue
		}
		if !isNameChar(l.peek()) {
			break
		}
		l.advance()
	}
	literal := string(l.input[start:l.pos])
	kind := TokenString
	switch {
	case strings.Contains(literal, "\\"):
	case l.prev.IsMemberAccess(), l.prev == TokenFunction:
		// Reserved words are plain names in member position.
	case l.prev == TokenDoubleColon && !strings.EqualFold(literal, "class"):
	default:
		kind = LookupKeyword(literal)
	}
	return Token{Kind: kind, Literal: literal, Line: line, Offset: start}
}

func (l *Lexer) scanNumber(start, line int) Token {
	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'X' || l.peekN(1) == 'b' || l.peekN(1) == 'B') {
		l.advanceN(2)
		for isHexDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
		return l.token(TokenNumber, start, line)
	}
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		l.advance()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	if (l.peek() == 'e' || l.peek() == 'E') && (isDigit(l.peekN(1)) || (l.peekN(1) == '-' || l.peekN(1) == '+') && isDigit(l.peekN(2))) {
		l.advanceN(2)
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.token(TokenNumber, start, line)
}

func (l *Lexer) scanQuoted(quote byte, start, line int) Token {
	l.advance()
	for l.pos < len(l.input) && l.peek() != quote {
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	if l.peek() == quote {
		l.advance()
	}
	return l.token(TokenConstantString, start, line)
}

// scanHeredoc reads <<<ID ... ID and nowdoc <<<'ID' ... ID bodies.
func (l *Lexer) scanHeredoc(start, line int) (Token, bool) {
	i := l.pos + 3
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	quoted := byte(0)
	if i < len(l.input) && (l.input[i] == '\'' || l.input[i] == '"') {
		quoted = l.input[i]
		i++
	}
	idStart := i
	for i < len(l.input) && isNameChar(l.input[i]) {
		i++
	}
	if i == idStart {
		return Token{}, false
	}
	id := string(l.input[idStart:i])
	if quoted != 0 {
		if i >= len(l.input) || l.input[i] != quoted {
			return Token{}, false
		}
		i++
	}
	if i >= len(l.input) || l.input[i] != '\n' && l.input[i] != '\r' {
		return Token{}, false
	}

	l.advanceN(i - l.pos)
	for l.pos < len(l.input) {
		if l.peek() == '\n' {
			l.advance()
			j := l.pos
			for j < len(l.input) && (l.input[j] == ' ' || l.input[j] == '\t') {
				j++
			}
			end := j + len(id)
			if end <= len(l.input) && string(l.input[j:end]) == id && (end == len(l.input) || !isNameChar(l.input[end])) {
				l.advanceN(end - l.pos)
				break
			}
			continue
		}
		l.advance()
	}
	return l.token(TokenConstantString, start, line), true
}

var operators = []string{
	"?->", "**=", "??=", "<<=", ">>=", "===", "!==", "<=>", "...",
	"->", "::", "=>", ".=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"==", "!=", "<>", "<=", ">=", "&&", "||", "??", "++", "--", "<<", ">>", "**",
}

func (l *Lexer) scanOperator(start, line int) Token {
	for _, op := range operators {
		if !l.hasPrefix(op) {
			continue
		}
		l.advanceN(len(op))
		switch op {
		case "->":
			return l.token(TokenObjectOperator, start, line)
		case "?->":
			return l.token(TokenNullsafeObjectOperator, start, line)
		case "::":
			return l.token(TokenDoubleColon, start, line)
		case "=>":
			return l.token(TokenDoubleArrow, start, line)
		case "...":
			return l.token(TokenEllipsis, start, line)
		}
		if kind, ok := assignOperators[op]; ok {
			return l.token(kind, start, line)
		}
		return l.token(TokenOperator, start, line)
	}

	// Single bytes, including multi-byte UTF-8 lead bytes, are raw punctuation.
	l.advance()
	return l.token(TokenNone, start, line)
}

func (l *Lexer) token(kind TokenKind, start, line int) Token {
	return Token{
		Kind:    kind,
		Literal: string(l.input[start:l.pos]),
		Line:    line,
		Offset:  start,
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// PHP names allow any byte >= 0x80, so UTF-8 identifiers need no decoding.
func isNameStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}
