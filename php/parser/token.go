package parser

import "strings"

type TokenKind int

const (
	// TokenNone is raw single-character punctuation such as ( ) { } ; = . ,
	TokenNone TokenKind = iota
	TokenWhitespace
	TokenInlineHTML
	TokenOpenTag
	TokenOpenTagWithEcho
	TokenCloseTag
	TokenComment
	TokenDocComment

	// Names and literals
	TokenString
	TokenVariable
	TokenConstantString
	TokenNumber

	// Member access
	TokenObjectOperator
	TokenNullsafeObjectOperator
	TokenDoubleColon

	// Assignment operators
	TokenConcatEqual
	TokenPlusEqual
	TokenMinusEqual
	TokenMulEqual
	TokenDivEqual
	TokenModEqual
	TokenPowEqual
	TokenCoalesceEqual
	TokenAndEqual
	TokenOrEqual
	TokenXorEqual
	TokenShlEqual
	TokenShrEqual

	// Other multi-character operators
	TokenDoubleArrow
	TokenOperator
	TokenEllipsis

	// Keywords the extractor and resolver care about
	TokenClass
	TokenInterface
	TokenTrait
	TokenExtends
	TokenImplements
	TokenFunction
	TokenConst
	TokenStatic
	TokenPublic
	TokenProtected
	TokenPrivate
	TokenNew
	TokenAbstract
	TokenFinal
	TokenVar

	// TokenKeyword covers every other reserved word (return, if, echo, ...).
	TokenKeyword
)

var tokenKindNames = map[TokenKind]string{
	TokenNone:                   "none",
	TokenWhitespace:             "T_WHITESPACE",
	TokenInlineHTML:             "T_INLINE_HTML",
	TokenOpenTag:                "T_OPEN_TAG",
	TokenOpenTagWithEcho:        "T_OPEN_TAG_WITH_ECHO",
	TokenCloseTag:               "T_CLOSE_TAG",
	TokenComment:                "T_COMMENT",
	TokenDocComment:             "T_DOC_COMMENT",
	TokenString:                 "T_STRING",
	TokenVariable:               "T_VARIABLE",
	TokenConstantString:         "T_CONSTANT_ENCAPSED_STRING",
	TokenNumber:                 "T_LNUMBER",
	TokenObjectOperator:         "T_OBJECT_OPERATOR",
	TokenNullsafeObjectOperator: "T_NULLSAFE_OBJECT_OPERATOR",
	TokenDoubleColon:            "T_DOUBLE_COLON",
	TokenConcatEqual:            "T_CONCAT_EQUAL",
	TokenPlusEqual:              "T_PLUS_EQUAL",
	TokenMinusEqual:             "T_MINUS_EQUAL",
	TokenMulEqual:               "T_MUL_EQUAL",
	TokenDivEqual:               "T_DIV_EQUAL",
	TokenModEqual:               "T_MOD_EQUAL",
	TokenPowEqual:               "T_POW_EQUAL",
	TokenCoalesceEqual:          "T_COALESCE_EQUAL",
	TokenAndEqual:               "T_AND_EQUAL",
	TokenOrEqual:                "T_OR_EQUAL",
	TokenXorEqual:               "T_XOR_EQUAL",
	TokenShlEqual:               "T_SL_EQUAL",
	TokenShrEqual:               "T_SR_EQUAL",
	TokenDoubleArrow:            "T_DOUBLE_ARROW",
	TokenOperator:               "T_OPERATOR",
	TokenEllipsis:               "T_ELLIPSIS",
	TokenClass:                  "T_CLASS",
	TokenInterface:              "T_INTERFACE",
	TokenTrait:                  "T_TRAIT",
	TokenExtends:                "T_EXTENDS",
	TokenImplements:             "T_IMPLEMENTS",
	TokenFunction:               "T_FUNCTION",
	TokenConst:                  "T_CONST",
	TokenStatic:                 "T_STATIC",
	TokenPublic:                 "T_PUBLIC",
	TokenProtected:              "T_PROTECTED",
	TokenPrivate:                "T_PRIVATE",
	TokenNew:                    "T_NEW",
	TokenAbstract:               "T_ABSTRACT",
	TokenFinal:                  "T_FINAL",
	TokenVar:                    "T_VAR",
	TokenKeyword:                "T_KEYWORD",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "none"
}

// LookupKind maps a symbolic token name back to its kind. Unknown names map
// to TokenNone, which downstream code treats as untyped punctuation.
func LookupKind(name string) (TokenKind, bool) {
	for k, n := range tokenKindNames {
		if n == name {
			return k, true
		}
	}
	return TokenNone, false
}

type Token struct {
	Kind    TokenKind
	Literal string
	Line    int
	Offset  int
}

// Is reports whether t is raw punctuation with the given text.
func (t Token) Is(punct string) bool {
	return t.Kind == TokenNone && t.Literal == punct
}

var keywords = map[string]TokenKind{
	"class":      TokenClass,
	"interface":  TokenInterface,
	"trait":      TokenTrait,
	"extends":    TokenExtends,
	"implements": TokenImplements,
	"function":   TokenFunction,
	"const":      TokenConst,
	"static":     TokenStatic,
	"public":     TokenPublic,
	"protected":  TokenProtected,
	"private":    TokenPrivate,
	"new":        TokenNew,
	"abstract":   TokenAbstract,
	"final":      TokenFinal,
	"var":        TokenVar,

	"and":          TokenKeyword,
	"array":        TokenKeyword,
	"as":           TokenKeyword,
	"break":        TokenKeyword,
	"callable":     TokenKeyword,
	"case":         TokenKeyword,
	"catch":        TokenKeyword,
	"clone":        TokenKeyword,
	"continue":     TokenKeyword,
	"declare":      TokenKeyword,
	"default":      TokenKeyword,
	"do":           TokenKeyword,
	"echo":         TokenKeyword,
	"else":         TokenKeyword,
	"elseif":       TokenKeyword,
	"empty":        TokenKeyword,
	"enddeclare":   TokenKeyword,
	"endfor":       TokenKeyword,
	"endforeach":   TokenKeyword,
	"endif":        TokenKeyword,
	"endswitch":    TokenKeyword,
	"endwhile":     TokenKeyword,
	"enum":         TokenKeyword,
	"eval":         TokenKeyword,
	"exit":         TokenKeyword,
	"die":          TokenKeyword,
	"fn":           TokenKeyword,
	"for":          TokenKeyword,
	"foreach":      TokenKeyword,
	"global":       TokenKeyword,
	"goto":         TokenKeyword,
	"if":           TokenKeyword,
	"include":      TokenKeyword,
	"include_once": TokenKeyword,
	"instanceof":   TokenKeyword,
	"insteadof":    TokenKeyword,
	"isset":        TokenKeyword,
	"list":         TokenKeyword,
	"match":        TokenKeyword,
	"namespace":    TokenKeyword,
	"or":           TokenKeyword,
	"print":        TokenKeyword,
	"readonly":     TokenKeyword,
	"require":      TokenKeyword,
	"require_once": TokenKeyword,
	"return":       TokenKeyword,
	"switch":       TokenKeyword,
	"throw":        TokenKeyword,
	"try":          TokenKeyword,
	"unset":        TokenKeyword,
	"use":          TokenKeyword,
	"while":        TokenKeyword,
	"xor":          TokenKeyword,
	"yield":        TokenKeyword,
}

// LookupKeyword returns the keyword kind for ident, or TokenString for plain
// names. Keywords are case-insensitive.
func LookupKeyword(ident string) TokenKind {
	if kind, ok := keywords[strings.ToLower(ident)]; ok {
		return kind
	}
	return TokenString
}

var assignOperators = map[string]TokenKind{
	".=":  TokenConcatEqual,
	"+=":  TokenPlusEqual,
	"-=":  TokenMinusEqual,
	"*=":  TokenMulEqual,
	"/=":  TokenDivEqual,
	"%=":  TokenModEqual,
	"**=": TokenPowEqual,
	"??=": TokenCoalesceEqual,
	"&=":  TokenAndEqual,
	"|=":  TokenOrEqual,
	"^=":  TokenXorEqual,
	"<<=": TokenShlEqual,
	">>=": TokenShrEqual,
}

// IsAssignment reports whether k is one of the compound assignment operators.
func (k TokenKind) IsAssignment() bool {
	return k >= TokenConcatEqual && k <= TokenShrEqual
}

// IsMemberAccess reports whether k is -> or ?->.
func (k TokenKind) IsMemberAccess() bool {
	return k == TokenObjectOperator || k == TokenNullsafeObjectOperator
}
