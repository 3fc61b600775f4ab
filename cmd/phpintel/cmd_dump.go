package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpintel/format"
	"github.com/dhamidi/phpintel/php"
	"github.com/dhamidi/phpintel/php/parser"
	"github.com/dhamidi/phpintel/php/scanner"
)

func newDumpCmd() *cobra.Command {
	var dumpFormat string
	var tokenizer string
	var tokens bool

	cmd := &cobra.Command{
		Use:   "dump <file|dir>",
		Short: "Dump the declarations or tokens of PHP source files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parser.Backend(tokenizer)
			if err != nil {
				return err
			}

			files, err := sourceFiles(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tokens {
				enc, err := format.NewTokenEncoder(dumpFormat, out)
				if err != nil {
					return err
				}
				for _, file := range files {
					if len(files) > 1 {
						fmt.Fprintf(out, "# %s\n", file)
					}
					if err := enc.EncodeTokens(parser.TokenizeFile(t, file)); err != nil {
						return fmt.Errorf("encode %s: %w", file, err)
					}
				}
				return nil
			}

			enc, err := format.NewEncoder(dumpFormat, out)
			if err != nil {
				return err
			}
			var decls []php.Declaration
			for _, file := range files {
				decls = append(decls, php.DeclarationsFromFile(t, file)...)
			}
			if err := enc.Encode(decls); err != nil {
				return fmt.Errorf("encode declarations: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format ("+strings.Join(format.Names, ", ")+")")
	cmd.Flags().StringVar(&tokenizer, "tokenizer", "native", "tokenizer backend ("+strings.Join(parser.BackendNames(), ", ")+")")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "dump tokens instead of declarations")

	return cmd
}

// sourceFiles expands a directory into the PHP files a scan would index.
func sourceFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return scanner.Files(path, scanner.DefaultFilter())
}
