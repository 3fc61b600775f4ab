// Package php recovers a lightweight symbol table from PHP tokens and
// resolves member-access chains at a cursor position.
package php

import "strings"

// GlobalClass is the owner of file-scope declarations and the root bucket
// for class-name completion.
const GlobalClass = "__global__"

type Kind string

const (
	KindClass Kind = "class"
	KindVar   Kind = "var"
	KindFunc  Kind = "func"
)

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	// VisibilityAll is a query scope, never a declared visibility.
	VisibilityAll Visibility = "all"
)

// Arg is one declared function argument. Type is empty when unknown.
type Arg struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Declaration is one recovered symbol fact.
type Declaration struct {
	Class      string     `json:"class" yaml:"class"`
	Extends    string     `json:"extends,omitempty" yaml:"extends,omitempty"`
	Implements string     `json:"implements,omitempty" yaml:"implements,omitempty"`
	Kind       Kind       `json:"kind" yaml:"kind"`
	Name       string     `json:"name" yaml:"name"`
	Visibility Visibility `json:"visibility" yaml:"visibility"`
	Static     bool       `json:"static,omitempty" yaml:"static,omitempty"`
	Args       []Arg      `json:"args,omitempty" yaml:"args,omitempty"`
	Returns    string     `json:"returns,omitempty" yaml:"returns,omitempty"`
	Doc        string     `json:"doc,omitempty" yaml:"doc,omitempty"`
	Path       string     `json:"path,omitempty" yaml:"path,omitempty"`
	Line       int        `json:"line,omitempty" yaml:"line,omitempty"`
}

// MatchesName reports whether d is named name, ignoring a leading $ on
// either side.
func (d Declaration) MatchesName(name string) bool {
	return strings.TrimPrefix(d.Name, "$") == strings.TrimPrefix(name, "$")
}

// Classes returns the distinct owning classes of decls in first-seen order.
func Classes(decls []Declaration) []string {
	seen := make(map[string]bool)
	var classes []string
	for _, d := range decls {
		if !seen[d.Class] {
			seen[d.Class] = true
			classes = append(classes, d.Class)
		}
	}
	return classes
}

// ShortName strips a namespace qualifier: \Foo\Bar becomes Bar.
func ShortName(name string) string {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}
	return name
}
