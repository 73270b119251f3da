package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/tgen/internal/output"
	"github.com/wesleyorama2/tgen/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <report-file>",
		Short: "Show a saved JSON run report",
		Long: `Print the summary of a report written by 'tgen run --json', or a single
field selected with a gjson path or simple JSONPath:

  tgen report out.json
  tgen report out.json --field metrics.totalSends
  tgen report out.json --field '$.steps[0]'`,
		Args: cobra.ExactArgs(1),
		RunE: showReport,
	}

	cmd.Flags().String("field", "", "Print only this field")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	return cmd
}

func showReport(cmd *cobra.Command, args []string) error {
	field, _ := cmd.Flags().GetString("field")
	noColor, _ := cmd.Flags().GetBool("no-color")

	rep, data, err := report.Load(args[0])
	if err != nil {
		return err
	}

	if field != "" {
		value, err := report.Field(data, field)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}

	var runErr error
	if rep.Status == report.StatusFailed {
		runErr = errors.New(rep.Error)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run ID:        %s\n", rep.RunID)
	fmt.Fprintf(cmd.OutOrStdout(), "Started:       %s\n", rep.StartTime.Format("2006-01-02 15:04:05 MST"))

	console := output.NewConsoleOutput(output.ConsoleOutputConfig{
		Writer:  cmd.OutOrStdout(),
		NoColor: noColor,
	})
	console.PrintSummary(&output.Summary{
		Name:     rep.Name,
		Target:   rep.Target,
		Duration: rep.Duration,
		Metrics:  rep.Metrics,
		MaxBurst: rep.Pacer.MaxBurst,
		Stopped:  rep.Status == report.StatusStopped,
		Err:      runErr,
	})
	return nil
}
