package format

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/parser"
)

type YAMLEncoder struct {
	w     io.Writer
	decls []php.Declaration
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(decls []php.Declaration) error {
	e.decls = decls
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *YAMLEncoder) MarshalText() ([]byte, error) {
	decls := e.decls
	if decls == nil {
		decls = []php.Declaration{}
	}
	return yaml.Marshal(decls)
}

func (e *YAMLEncoder) EncodeTokens(tokens []parser.Token) error {
	enc := yaml.NewEncoder(e.w)
	enc.SetIndent(2)
	if err := enc.Encode(buildTokens(tokens)); err != nil {
		return err
	}
	return enc.Close()
}
