package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/tgen/internal/output"
	"github.com/wesleyorama2/tgen/tgen"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [script-file]",
		Short: "Compile a script and list its steps without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  checkScript,
	}

	addScriptFlags(cmd)
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json, yaml")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	return cmd
}

func checkScript(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	noColor, _ := cmd.Flags().GetBool("no-color")

	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}
	text, err := cfg.ScriptText()
	if err != nil {
		return err
	}

	script := tgen.NewScript(cfg.Capacity)
	if err := script.AddText(text); err != nil {
		return fmt.Errorf("compiling script: %w", err)
	}

	out, err := output.FormatScript(script, format, output.SchemeFor(cmd.OutOrStdout(), noColor))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
