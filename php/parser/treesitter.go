package parser

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// TreeSitter tokenizes by parsing with the tree-sitter PHP grammar and
// flattening the syntax tree back into leaves. Strings and comments come out
// as single tokens; gaps between leaves become whitespace tokens.
type TreeSitter struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

func NewTreeSitter() *TreeSitter {
	p := sitter.NewParser()
	p.SetLanguage(php.GetLanguage())
	return &TreeSitter{parser: p}
}

func (*TreeSitter) Name() string { return "treesitter" }

// opaqueNodes are emitted whole instead of descending into their children.
var opaqueNodes = map[string]TokenKind{
	"variable_name":            TokenVariable,
	"string":                   TokenConstantString,
	"encapsed_string":          TokenConstantString,
	"heredoc":                  TokenConstantString,
	"nowdoc":                   TokenConstantString,
	"shell_command_expression": TokenConstantString,
	"integer":                  TokenNumber,
	"float":                    TokenNumber,
	"qualified_name":           TokenString,
	"namespace_name":           TokenString,
	"text":                     TokenInlineHTML,
	"php_tag":                  TokenOpenTag,
}

func (ts *TreeSitter) Tokenize(source []byte) []Token {
	if len(source) == 0 {
		return nil
	}

	ts.mu.Lock()
	tree, err := ts.parser.ParseCtx(context.Background(), nil, source)
	ts.mu.Unlock()
	if err != nil {
		log.Warningf("tree-sitter parse: %v", err)
		return nil
	}
	defer tree.Close()

	w := &leafWalker{source: source, line: 1}
	w.walk(tree.RootNode())
	w.gap(len(source))
	return w.tokens
}

type leafWalker struct {
	source []byte
	tokens []Token
	pos    int
	line   int
}

func (w *leafWalker) walk(n *sitter.Node) {
	if n == nil || n.IsMissing() {
		return
	}
	start, end := int(n.StartByte()), int(n.EndByte())
	if end <= start {
		return
	}

	typ := n.Type()
	if kind, ok := opaqueNodes[typ]; ok {
		w.emit(kind, start, end)
		return
	}
	if typ == "comment" {
		kind := TokenComment
		if strings.HasPrefix(string(w.source[start:end]), "/**") {
			kind = TokenDocComment
		}
		w.emit(kind, start, end)
		return
	}

	count := int(n.ChildCount())
	if count == 0 {
		w.leaf(n, start, end)
		return
	}
	for i := 0; i < count; i++ {
		w.walk(n.Child(i))
	}
}

func (w *leafWalker) leaf(n *sitter.Node, start, end int) {
	if start < w.pos {
		return
	}
	if n.IsNamed() && n.Type() == "name" {
		w.emit(TokenString, start, end)
		return
	}
	if n.Type() == "?>" {
		w.emit(TokenCloseTag, start, end)
		return
	}
	// Anonymous leaves (keywords, operators, punctuation) are classified by
	// the native lexer so both backends agree on kinds.
	w.gap(start)
	for _, tok := range NewCodeLexer(w.source[start:end]).All() {
		tok.Offset += start
		tok.Line += w.line - 1
		w.tokens = append(w.tokens, tok)
	}
	w.advanceTo(end)
}

func (w *leafWalker) emit(kind TokenKind, start, end int) {
	if start < w.pos {
		return
	}
	w.gap(start)
	w.tokens = append(w.tokens, Token{
		Kind:    kind,
		Literal: string(w.source[start:end]),
		Line:    w.line,
		Offset:  start,
	})
	w.advanceTo(end)
}

// gap emits the untokenized bytes before offset as whitespace.
func (w *leafWalker) gap(offset int) {
	if offset <= w.pos {
		return
	}
	w.tokens = append(w.tokens, Token{
		Kind:    TokenWhitespace,
		Literal: string(w.source[w.pos:offset]),
		Line:    w.line,
		Offset:  w.pos,
	})
	w.advanceTo(offset)
}

func (w *leafWalker) advanceTo(offset int) {
	if offset <= w.pos {
		return
	}
	w.line += strings.Count(string(w.source[w.pos:offset]), "\n")
	w.pos = offset
}
