package php

import (
	"strings"

	"github.com/dhamidi/phpintel/php/parser"
)

// Operator is the access operator immediately preceding the completion
// partial.
type Operator string

const (
	OperatorNone   Operator = ""
	OperatorMember Operator = "->"
	OperatorStatic Operator = "::"
)

// Context is the access chain ending at a cursor. The last element is the
// partial name being typed, possibly empty.
type Context struct {
	Chain      []string
	Operator   Operator
	Visibility Visibility
}

func (c Context) Empty() bool { return len(c.Chain) == 0 }

// Resolver computes the Context at a cursor position.
type Resolver struct {
	Tokenizer parser.Tokenizer
	Rewriter  Rewriter
}

func NewResolver(tokenizer parser.Tokenizer, rewriter Rewriter) *Resolver {
	if tokenizer == nil {
		tokenizer = parser.Native{}
	}
	return &Resolver{Tokenizer: tokenizer, Rewriter: rewriter}
}

// ContextAt resolves the chain before cursor, a byte offset into source,
// using the native tokenizer and no rewrite rules.
func ContextAt(source string, cursor int) Context {
	return NewResolver(nil, nil).ContextAt(source, cursor)
}

func (r *Resolver) ContextAt(source string, cursor int) Context {
	cursor = max(0, min(cursor, len(source)))
	before := source[:cursor]
	if before == "" {
		return Context{}
	}
	if r.Rewriter != nil {
		before = r.Rewriter.Rewrite(before)
	}

	chain, op := scanChain(r.Tokenizer.Tokenize([]byte(before)))
	if len(chain) == 0 {
		return Context{Operator: op}
	}

	ctx := Context{Chain: chain, Operator: op, Visibility: VisibilityPublic}
	if isSelfReference(chain[0]) && !strings.EqualFold(chain[0], "parent") && len(chain) == 2 {
		ctx.Visibility = VisibilityAll
	}
	ctx.Chain[0] = r.resolveRoot(source, chain[0])
	return ctx
}

// resolveRoot replaces a receiver with the class it refers to, when that
// can be determined from the whole file.
func (r *Resolver) resolveRoot(source, root string) string {
	switch {
	case isSelfReference(root):
		class, extends := r.enclosingClass(source)
		if strings.EqualFold(root, "parent") {
			class = extends
		}
		if class != "" {
			return class
		}
	case strings.HasPrefix(root, "$"):
		if typ := VariableType(source, root); typ != "" {
			return typ
		}
	}
	return root
}

// enclosingClass approximates the class surrounding the cursor by the owner
// of the first declaration in the file.
func (r *Resolver) enclosingClass(source string) (class, extends string) {
	decls := Extract(r.Tokenizer.Tokenize([]byte(source)))
	if len(decls) == 0 {
		return "", ""
	}
	class = decls[0].Class
	for _, d := range decls {
		if d.Kind == KindClass && d.Class == class {
			extends = d.Extends
			break
		}
	}
	return class, extends
}

func isSelfReference(name string) bool {
	if name == "$this" {
		return true
	}
	switch strings.ToLower(name) {
	case "self", "static", "parent":
		return true
	}
	return false
}

// scanChain walks tokens backwards from the cursor and returns the access
// chain in source order along with the nearest access operator.
func scanChain(tokens []parser.Token) ([]string, Operator) {
	var reversed []string
	op := OperatorNone
	depth := 0

scan:
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		if isSpace(tok) {
			continue
		}

		switch {
		case tok.Is(")"), tok.Is("]"):
			depth++
			continue
		case tok.Is("("), tok.Is("["):
			depth--
			if depth < 0 {
				break scan
			}
			continue
		case depth > 0:
			continue
		}

		switch {
		case tok.Kind == parser.TokenDoubleColon, tok.Kind.IsMemberAccess():
			if op == OperatorNone {
				op = OperatorMember
				if tok.Kind == parser.TokenDoubleColon {
					op = OperatorStatic
				}
			}
			if len(reversed) == 0 {
				reversed = append(reversed, "")
			}
		case tok.Kind == parser.TokenVariable, tok.Kind == parser.TokenString:
			reversed = append(reversed, tok.Literal)
		case tok.Kind == parser.TokenStatic:
			reversed = append(reversed, "static")
		default:
			// Assignments, separators, braces, open tags, new and any other
			// operator or keyword end the chain.
			break scan
		}
	}

	chain := make([]string, len(reversed))
	for i, name := range reversed {
		chain[len(reversed)-1-i] = name
	}
	return chain, op
}
