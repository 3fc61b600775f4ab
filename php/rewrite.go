package php

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("phpintel.php")

// Rule rewrites the first match of Pattern into Class, a template in which
// %1 through %9 stand for the pattern's capture groups.
//
//	{pattern: 'Factory::create\(.(\w+).\)', class: 'new %1', capitalize: true}
type Rule struct {
	Pattern    string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`
	Class      string `json:"class" yaml:"class" mapstructure:"class"`
	Capitalize bool   `json:"capitalize,omitempty" yaml:"capitalize,omitempty" mapstructure:"capitalize"`
}

// Rewriter transforms source text before it is tokenized for context
// resolution.
type Rewriter interface {
	Rewrite(source string) string
}

// Rules applies each rule in order. A rule whose pattern does not compile is
// logged and skipped.
type Rules []Rule

func (rules Rules) Rewrite(source string) string {
	for _, rule := range rules {
		if rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			log.Errorf("invalid pattern %q: %v", rule.Pattern, err)
			continue
		}
		m := re.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		source = strings.Replace(source, m[0], rule.expand(m), 1)
	}
	return source
}

func (rule Rule) expand(groups []string) string {
	out := rule.Class
	for i := 1; i <= 9 && i < len(groups); i++ {
		placeholder := "%" + strconv.Itoa(i)
		if !strings.Contains(out, placeholder) {
			continue
		}
		value := groups[i]
		if rule.Capitalize {
			value = capitalize(value)
		}
		out = strings.ReplaceAll(out, placeholder, value)
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Chain applies rewriters in sequence.
type Chain []Rewriter

func (c Chain) Rewrite(source string) string {
	for _, r := range c {
		if r != nil {
			source = r.Rewrite(source)
		}
	}
	return source
}
