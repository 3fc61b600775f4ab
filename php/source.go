package php

import (
	"path/filepath"

	"github.com/dhamidi/phpintel/php/parser"
)

// DeclarationsFromSource extracts the declarations of one file's contents
// and stamps them with path.
func DeclarationsFromSource(t parser.Tokenizer, source []byte, path string) []Declaration {
	if t == nil {
		t = parser.Native{}
	}
	return withPath(Extract(t.Tokenize(source)), path)
}

// DeclarationsFromFile reads and extracts path. Unreadable files yield no
// declarations.
func DeclarationsFromFile(t parser.Tokenizer, path string) []Declaration {
	if t == nil {
		t = parser.Native{}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return withPath(Extract(parser.TokenizeFile(t, path)), path)
}

func withPath(decls []Declaration, path string) []Declaration {
	for i := range decls {
		decls[i].Path = path
	}
	return decls
}
