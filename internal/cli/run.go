package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/tgen/internal/config"
	"github.com/wesleyorama2/tgen/internal/driver"
	"github.com/wesleyorama2/tgen/internal/logs"
	"github.com/wesleyorama2/tgen/internal/metrics"
	"github.com/wesleyorama2/tgen/internal/output"
	"github.com/wesleyorama2/tgen/internal/report"
	"github.com/wesleyorama2/tgen/internal/sink"
	"github.com/wesleyorama2/tgen/tgen"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [script-file]",
		Short: "Run a traffic script against a target",
		Long: `Compile a script and run it, writing each message to the target.

Examples:
  tgen run burst.tg --target udp://127.0.0.1:9000
  tgen run -s "sendt 1 kbytes 500 persec 10 sec" --target tcp://10.0.0.5:7000
  tgen run -c burst.yaml --var a=10 --json burst-report.json
  tgen run --repl --target ws://localhost:8080/ingest`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScript,
	}

	addScriptFlags(cmd)
	cmd.Flags().String("target", "", "Target URL: discard://, udp://host:port, tcp://host:port, ws://... (default discard://)")
	cmd.Flags().String("name", "", "Run name used in output and reports")
	cmd.Flags().Bool("repl", false, "Read and execute steps interactively after the script")
	cmd.Flags().Bool("dry-run", false, "Log send steps instead of sending")
	cmd.Flags().StringArray("var", nil, "Preset a register, e.g. --var a=3 (repeatable)")
	cmd.Flags().String("json", "", "Write a JSON run report to this file")
	cmd.Flags().BoolP("quiet", "q", false, "Disable live progress output, show only final status")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Duration("progress", time.Second, "Progress update interval (0 disables)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error (default info)")
	cmd.Flags().String("log-file", "", "Also write JSON logs to this file")
	return cmd
}

// runScript runs a traffic script with the command's flags and configuration.
func runScript(cmd *cobra.Command, args []string) error {
	quiet, _ := cmd.Flags().GetBool("quiet")
	noColor, _ := cmd.Flags().GetBool("no-color")
	progress, _ := cmd.Flags().GetDuration("progress")

	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	logger, closeLog, err := logs.New(logs.Options{
		Level:  cfg.Log.Level,
		Writer: cmd.ErrOrStderr(),
		File:   cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer closeLog()

	text, err := cfg.ScriptText()
	if err != nil {
		return err
	}
	if text == "" && !cfg.Repl {
		return errors.New("no script: pass a script file, --script, a config file or --repl")
	}

	var s sink.Sink = &sink.Discard{}
	if !cfg.DryRun {
		s, err = sink.Open(cfg.Target, sink.Options{})
		if err != nil {
			return err
		}
	}
	defer s.Close()

	rec := metrics.NewRecorder()
	drv := driver.New(s, rec, logger)

	input := cmd.InOrStdin()
	interactive := cfg.Repl && output.IsInteractive(input)
	var prompt io.Writer
	if interactive {
		prompt = cmd.OutOrStdout()
	}

	gen := tgen.New(tgen.Config{
		Host:     drv,
		Capacity: cfg.Capacity,
		Input:    input,
		Prompt:   prompt,
		DryRun:   cfg.DryRun,
		Logger:   logger,
	})
	defer gen.Close()

	for _, name := range config.SortedVariables(cfg.Variables) {
		if err := gen.SetVariable(name[0], cfg.Variables[name]); err != nil {
			return fmt.Errorf("setting variable %s: %w", name, err)
		}
	}
	if err := gen.AddMultiSteps(text); err != nil {
		return fmt.Errorf("compiling script: %w", err)
	}
	if cfg.Repl {
		if err := gen.AddStep("repl"); err != nil {
			return fmt.Errorf("compiling script: %w", err)
		}
	}

	console := output.NewConsoleOutput(output.ConsoleOutputConfig{
		Writer:  cmd.OutOrStdout(),
		Quiet:   quiet,
		NoColor: noColor,
	})
	// A live progress line would overwrite what the user types.
	if interactive {
		progress = 0
	}

	console.PrintHeader(cfg.Name, s.String(), gen.Script().Len(), cfg.DryRun)
	logger.Debug("run starting", "name", cfg.Name, "target", s.String(), "steps", gen.Script().Len())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	rep := report.New(cfg.Name, s.String(), start)
	rec.Reset()

	runErr := runWithProgress(ctx, gen, drv, console, progress)
	end := time.Now()

	stopped := runErr == nil && gen.PC() < gen.Script().Len()
	snap := rec.Snapshot()

	console.PrintSummary(&output.Summary{
		Name:     cfg.Name,
		Target:   s.String(),
		Duration: end.Sub(start),
		Metrics:  snap,
		MaxBurst: gen.Pacer().Stats().MaxBurst,
		Stopped:  stopped,
		Err:      runErr,
	})

	if cfg.Report.JSON != "" {
		rep.DryRun = cfg.DryRun
		rep.Metrics = snap
		rep.Pacer = gen.Pacer().Stats()
		rep.Steps, rep.Labels = scriptListing(gen.Script())
		rep.Variables = registerValues(gen, cfg.Variables)
		rep.Finish(end, stopped, runErr)
		if err := rep.Write(cfg.Report.JSON); err != nil {
			logger.Error("failed to write report", "path", cfg.Report.JSON, "error", err)
			if runErr == nil {
				return err
			}
		} else if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", cfg.Report.JSON)
		}
	}

	if runErr != nil {
		return fmt.Errorf("running script: %w", runErr)
	}
	return nil
}

// runWithProgress runs the generator on its own goroutine and refreshes
// the progress display until it finishes.
func runWithProgress(ctx context.Context, gen *tgen.Generator, drv *driver.Driver, console *output.ConsoleOutput, interval time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- gen.Run(ctx)
	}()

	if interval <= 0 {
		return <-done
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	steps := gen.Script().Len()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
			console.Update(output.StatsFromMetrics(drv.Recorder().Snapshot(), drv.PC(), steps))
		}
	}
}

// scriptListing returns the script's steps as text and its labels by name.
func scriptListing(s *tgen.Script) ([]string, map[string]int) {
	steps := make([]string, 0, s.Len())
	for _, step := range s.Steps() {
		steps = append(steps, step.String())
	}
	labels := make(map[string]int)
	for id, index := range s.Labels() {
		labels[string(id)] = index
	}
	return steps, labels
}

// registerValues returns the final value of every register that was preset
// or is non-zero.
func registerValues(gen *tgen.Generator, preset map[string]int) map[string]int {
	values := make(map[string]int)
	for i, v := range gen.Variables() {
		name := string(tgen.Letter(i))
		if _, ok := preset[name]; ok || v != 0 {
			values[name] = v
		}
	}
	return values
}
