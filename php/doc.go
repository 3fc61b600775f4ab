package php

import (
	"regexp"
	"strings"
)

const typeChars = `[\w\\|$\[\]?]+`

var (
	varTagRe    = regexp.MustCompile(`@var\s+(` + typeChars + `)(?:[ \t]+(` + typeChars + `))?`)
	returnTagRe = regexp.MustCompile(`@return\s+(` + typeChars + `)`)
)

// NormalizeType reduces an annotated type to the single class-like name the
// index can use. Only the first alternative of a union is kept.
func NormalizeType(t string) string {
	if i := strings.IndexByte(t, '|'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimPrefix(t, "?")
	if t == "$this" {
		return "static"
	}
	if strings.HasPrefix(t, "$") {
		return ""
	}
	return ShortName(t)
}

// VarType returns the type named by the first @var tag in doc. Both
// "@var Type" and "@var $name Type" orders are accepted.
func VarType(doc string) string {
	m := varTagRe.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	if strings.HasPrefix(m[1], "$") {
		return NormalizeType(m[2])
	}
	return NormalizeType(m[1])
}

// ReturnType returns the type named by the first @return tag in doc.
func ReturnType(doc string) string {
	m := returnTagRe.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	return NormalizeType(m[1])
}

// ParamType returns the type of the @param tag naming variable (with its $).
func ParamType(doc, variable string) string {
	if doc == "" {
		return ""
	}
	re, err := regexp.Compile(`@param\s+(` + typeChars + `)\s+(?:&\s*)?(?:\.\.\.)?` + regexp.QuoteMeta(variable) + `(?:[^\w]|$)`)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	return NormalizeType(m[1])
}

// VariableType searches source for an inline @var annotation that names
// variable and returns its type. The earliest annotation wins.
func VariableType(source, variable string) string {
	name := regexp.QuoteMeta(variable)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`@var\s+` + name + `\s+(` + typeChars + `)`),
		// Also matches a one-line docblock right before the variable.
		regexp.MustCompile(`@var\s+(` + typeChars + `)(?:\s+|\s*\*/\s*)` + name + `(?:[^\w]|$)`),
	}

	best, bestAt := "", -1
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(source)
		if loc == nil {
			continue
		}
		if bestAt < 0 || loc[0] < bestAt {
			best, bestAt = source[loc[2]:loc[3]], loc[0]
		}
	}
	return NormalizeType(best)
}
