package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/intel"
)

func newGotoCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "goto <symbol|file>",
		Short: "Print where a class or function is declared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, in, err := openProject()
			if err != nil {
				return err
			}
			defer in.Close()

			decl, err := lookup(in, args[0], at)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s:%d\n", decl.Path, decl.Line)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "resolve the identifier at this position of the given file")

	return cmd
}

// lookup resolves arg as a symbol, or as a file when a position is given.
func lookup(in *intel.Intel, arg, at string) (php.Declaration, error) {
	if at == "" {
		return in.Goto(arg)
	}
	source, err := readSource(arg)
	if err != nil {
		return php.Declaration{}, err
	}
	offset, err := parsePosition(source, at)
	if err != nil {
		return php.Declaration{}, err
	}
	return in.Definition(source, offset)
}
