package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// NewRootCmd builds the command tree. Each call returns fresh commands with
// default flag values.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "tgen",
		Short:   "A scripted, rate-paced network traffic generator",
		Version: version,
		Long: `tgen sends fixed-size messages to a network target at precise rates,
driven by a small line-oriented script:

  set a 3
  label x
  sendc 100 bytes 10 kpersec 1 kmsgs
  loop x a

Scripts can be given inline, read from a file, or typed at the repl.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newListenCmd())
	return root
}

// Execute runs the root command and prints any error to stderr.
// This is called by main.main().
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// addScriptFlags registers the flags shared by commands that compile a script.
func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Run configuration file (YAML or JSON)")
	cmd.Flags().StringP("script", "s", "", "Inline script; steps separated by ';' or newlines")
	cmd.Flags().Int("capacity", 0, "Initial script capacity in steps (default 64)")
}
