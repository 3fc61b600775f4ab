package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/parser"
)

type JSONEncoder struct {
	w     io.Writer
	decls []php.Declaration
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(decls []php.Declaration) error {
	e.decls = decls
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	return e.write(text)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	decls := e.decls
	if decls == nil {
		decls = []php.Declaration{}
	}
	return json.MarshalIndent(decls, "", "  ")
}

func (e *JSONEncoder) EncodeTokens(tokens []parser.Token) error {
	text, err := json.MarshalIndent(buildTokens(tokens), "", "  ")
	if err != nil {
		return err
	}
	return e.write(text)
}

func (e *JSONEncoder) write(text []byte) error {
	if _, err := e.w.Write(text); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, "\n")
	return err
}
