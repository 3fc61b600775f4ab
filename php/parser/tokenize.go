// Package parser turns PHP source into the flat token stream consumed by the
// declaration extractor and the context resolver.
package parser

import (
	"fmt"
	"os"
	"sort"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("phpintel.parser")

// Tokenizer is a tokenizer backend. Implementations never fail: input they
// cannot make sense of yields an empty token sequence.
type Tokenizer interface {
	Name() string
	Tokenize(source []byte) []Token
}

// Native is the built-in hand-written lexer.
type Native struct{}

func (Native) Name() string { return "native" }

func (Native) Tokenize(source []byte) []Token {
	return NewLexer(source).All()
}

var backends = map[string]func() Tokenizer{
	"native":     func() Tokenizer { return Native{} },
	"treesitter": func() Tokenizer { return NewTreeSitter() },
}

// Backend returns the tokenizer registered under name.
func Backend(name string) (Tokenizer, error) {
	if name == "" {
		return Native{}, nil
	}
	newBackend, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown tokenizer %q (available: %v)", name, BackendNames())
	}
	return newBackend(), nil
}

func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TokenizeFile reads path and tokenizes it. Unreadable files produce no
// tokens.
func TokenizeFile(t Tokenizer, path string) []Token {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warningf("read %s: %v", path, err)
		return nil
	}
	return t.Tokenize(data)
}
