package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/parser"
)

// LineEncoder writes one tab-separated record per declaration or token.
type LineEncoder struct {
	w     io.Writer
	decls []php.Declaration
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(decls []php.Declaration) error {
	e.decls = decls
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

// MarshalText renders classes as
//
//	class	Name	extends	implements	path:line
//
// and members as
//
//	func	Class::name	visibility	modifiers	($a, $b)	returns	path:line
func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, d := range e.decls {
		switch d.Kind {
		case php.KindClass:
			fmt.Fprintf(&sb, "class\t%s\t%s\t%s\t%s\n",
				d.Name, dash(d.Extends), dash(d.Implements), location(d))
		default:
			fmt.Fprintf(&sb, "%s\t%s::%s\t%s\t%s\t%s\t%s\t%s\n",
				d.Kind,
				d.Class,
				d.Name,
				d.Visibility,
				modifiers(d),
				parameters(d),
				dash(d.Returns),
				location(d),
			)
		}
	}
	return []byte(sb.String()), nil
}

func (e *LineEncoder) EncodeTokens(tokens []parser.Token) error {
	var sb strings.Builder
	for _, t := range tokens {
		fmt.Fprintf(&sb, "%d\t%d\t%s\t%s\n", t.Line, t.Offset, t.Kind, strconv.Quote(t.Literal))
	}
	_, err := io.WriteString(e.w, sb.String())
	return err
}

func modifiers(d php.Declaration) string {
	if d.Static {
		return "static"
	}
	return "-"
}

func parameters(d php.Declaration) string {
	if d.Kind != php.KindFunc {
		return "-"
	}
	args := make([]string, len(d.Args))
	for i, a := range d.Args {
		if a.Type != "" {
			args[i] = a.Type + " " + a.Name
		} else {
			args[i] = a.Name
		}
	}
	return "(" + strings.Join(args, ", ") + ")"
}

func location(d php.Declaration) string {
	if d.Path == "" {
		return "-"
	}
	if d.Line > 0 {
		return d.Path + ":" + strconv.Itoa(d.Line)
	}
	return d.Path
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
