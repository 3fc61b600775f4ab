package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dhamidi/phpintel/php/scanner"
)

func newScanCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "scan [file...]",
		Short: "Index the project's roots, or only the given files",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, in, err := openScanner()
			if err != nil {
				return err
			}
			defer in.Close()

			paths := args
			if len(paths) == 0 {
				paths = []string{scanner.All}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runScan(ctx, s, paths, plain || !isatty.IsTerminal(os.Stderr.Fd()))
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print one line per progress message")

	return cmd
}

// runScan scans paths while drawing progress on stderr. Interrupting
// aborts the scan.
func runScan(ctx context.Context, s *scanner.Scanner, paths []string, plain bool) error {
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	spinner := scanner.NewSpinner(os.Stderr)
	spinner.Plain = plain
	done := make(chan struct{})
	go func() {
		defer close(done)
		spinner.Run(updates)
	}()

	err := s.Run(ctx, paths...)
	<-done
	if errors.Is(err, scanner.ErrAborted) {
		return errors.New("scan interrupted")
	}
	return err
}
