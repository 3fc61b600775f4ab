package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/phpintel/php/intel"
)

func newCompleteCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "complete <file|-> <offset|line:col>",
		Short: "List completions at a position in a file",
		Long: `List completions at a position in a file.

The position is a byte offset, or a 1-based line and byte column separated
by a colon. A file name of - reads the source from standard input.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			offset, err := parsePosition(source, args[1])
			if err != nil {
				return err
			}

			_, in, err := openProject()
			if err != nil {
				return err
			}
			defer in.Close()

			items := in.Complete(source, offset)
			return writeCompletions(cmd.OutOrStdout(), outputFormat, items)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "line", "output format (line, json)")

	return cmd
}

func readSource(name string) (string, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// parsePosition converts "offset" or "line:col" into a byte offset.
func parsePosition(source, pos string) (int, error) {
	lineStr, colStr, ok := strings.Cut(pos, ":")
	if !ok {
		offset, err := strconv.Atoi(pos)
		if err != nil || offset < 0 || offset > len(source) {
			return 0, fmt.Errorf("invalid offset %q", pos)
		}
		return offset, nil
	}

	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line %q", lineStr)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return 0, fmt.Errorf("invalid column %q", colStr)
	}

	offset := 0
	for i := 1; i < line; i++ {
		next := strings.IndexByte(source[offset:], '\n')
		if next < 0 {
			return 0, fmt.Errorf("line %d is past the end of the file", line)
		}
		offset += next + 1
	}
	end := len(source)
	if next := strings.IndexByte(source[offset:], '\n'); next >= 0 {
		end = offset + next
	}
	return min(offset+col-1, end), nil
}

type completion struct {
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	Detail     string `json:"detail"`
	InsertText string `json:"insertText"`
}

func writeCompletions(w io.Writer, outputFormat string, items []intel.CompletionItem) error {
	switch outputFormat {
	case "line":
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\n", item.Label, item.InsertText)
		}
		return nil
	case "json":
		out := make([]completion, len(items))
		for i, item := range items {
			out[i] = completion{
				Label:      item.Name(),
				Kind:       string(item.Kind),
				Detail:     item.Detail,
				InsertText: item.InsertText,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return fmt.Errorf("unknown format: %s (expected line or json)", outputFormat)
}
