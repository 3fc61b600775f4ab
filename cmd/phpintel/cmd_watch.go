package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpintel/php/scanner"
)

func newWatchCmd() *cobra.Command {
	var rescan bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the index current while files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, in, err := openScanner()
			if err != nil {
				return err
			}
			defer in.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if rescan || !in.HasIntel() {
				if err := runScan(ctx, s, []string{scanner.All}, true); err != nil {
					return err
				}
			}

			w, err := scanner.NewWatcher(s)
			if err != nil {
				return err
			}
			defer w.Close()

			updates, unsubscribe := s.Subscribe()
			defer unsubscribe()

			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "Watching %d directories\n", w.Dirs())
			for {
				select {
				case <-ctx.Done():
					s.Abort()
					s.Wait()
					return nil
				case p := <-updates:
					switch {
					case p.Path != "" && !p.Done():
						fmt.Fprintln(out, p.Message)
					case p.Status == scanner.StatusFailed:
						fmt.Fprintf(out, "Scan failed: %v\n", p.Err)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&rescan, "rescan", false, "scan all roots before watching")

	return cmd
}
