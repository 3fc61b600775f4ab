// Package format renders declarations and tokens for the command line.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/parser"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(decls []php.Declaration) error
}

type TokenEncoder interface {
	EncodeTokens(tokens []parser.Token) error
}

// Names lists the supported output formats.
var Names = []string{"line", "json", "yaml"}

func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "line", "":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s (expected line, json, or yaml)", name)
}

func NewTokenEncoder(name string, w io.Writer) (TokenEncoder, error) {
	switch name {
	case "line", "":
		return NewLineEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s (expected line, json, or yaml)", name)
}

// token is the serialized form of a parser.Token, with the kind spelled
// out by name.
type token struct {
	Kind    string `json:"kind" yaml:"kind"`
	Literal string `json:"literal" yaml:"literal"`
	Line    int    `json:"line" yaml:"line"`
	Offset  int    `json:"offset" yaml:"offset"`
}

func buildTokens(tokens []parser.Token) []token {
	out := make([]token, len(tokens))
	for i, t := range tokens {
		out[i] = token{Kind: t.Kind.String(), Literal: t.Literal, Line: t.Line, Offset: t.Offset}
	}
	return out
}
