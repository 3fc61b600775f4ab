package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/phpintel/php/intel"
	"github.com/dhamidi/phpintel/php/scanner"
	"github.com/dhamidi/phpintel/project"
)

var version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dir        string
	configPath string
	verbose    int
	logPath    string
}

var flags globalFlags

func main() {
	rootCmd := &cobra.Command{
		Use:          "phpintel",
		Short:        "Code intelligence for PHP projects",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.dir, "dir", "C", ".", "directory inside the project")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "configuration file (default: .phpintel.yaml in the project root)")
	rootCmd.PersistentFlags().CountVarP(&flags.verbose, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&flags.logPath, "log", "", "write logs to this file")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newCompleteCmd())
	rootCmd.AddCommand(newGotoCmd())
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newLSPCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configureLogging applies the command line settings, falling back to the
// project's log configuration.
func configureLogging(cfg project.LogConfig) {
	verbosity := flags.verbose
	if verbosity == 0 {
		verbosity = cfg.Verbosity
	}
	path := flags.logPath
	if path == "" {
		path = cfg.Path
	}
	if path != "" {
		commonlog.Configure(verbosity, &path)
	} else {
		commonlog.Configure(verbosity, nil)
	}
}

// openProject loads the project containing --dir and opens its intel.
func openProject() (*project.Project, *intel.Intel, error) {
	p, err := project.LoadFrom(flags.dir, flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	configureLogging(p.Config.Log)
	in, err := p.Intel()
	if err != nil {
		return nil, nil, err
	}
	return p, in, nil
}

// openScanner is openProject plus a scanner for the project's roots.
func openScanner() (*scanner.Scanner, *intel.Intel, error) {
	p, in, err := openProject()
	if err != nil {
		return nil, nil, err
	}
	return p.Scanner(in), in, nil
}
