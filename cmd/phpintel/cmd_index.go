package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpintel/php"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [class...]",
		Short: "List indexed classes, or the files declaring the given classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, in, err := openProject()
			if err != nil {
				return err
			}
			defer in.Close()

			if !in.HasIntel() {
				return fmt.Errorf("no index found for %s, run phpintel scan first", p.RootDir)
			}
			index := in.Load()

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, class := range args {
					files := index.Files(class)
					if len(files) == 0 {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: not indexed\n", class)
						continue
					}
					for _, file := range files {
						fmt.Fprintf(out, "%s\t%s\n", class, relative(p.RootDir, file))
					}
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, class := range index.Classes() {
				if class == php.GlobalClass {
					continue
				}
				files := index.Files(class)
				fmt.Fprintf(tw, "%s\t%d\t%s\n", class, len(files), relative(p.RootDir, files[0]))
			}
			return tw.Flush()
		},
	}

	return cmd
}

func relative(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
