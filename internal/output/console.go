package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/tgen/internal/metrics"
)

const (
	carriageReturn = "\r"
	clearToEnd     = "\033[K"

	boxHorizontal = "━"
)

// LiveStats contains real-time statistics for display.
type LiveStats struct {
	Elapsed    time.Duration // Time since the run started
	Sends      int64         // Total messages sent
	Bytes      int64         // Total bytes sent
	Rate       float64       // Messages per second
	Errors     int64         // Failed sends
	LatencyP99 time.Duration // P99 Send duration
	PC         int           // Program counter
	Steps      int           // Script length
}

// Summary is the final state of a run.
type Summary struct {
	Name     string
	Target   string
	Duration time.Duration
	Metrics  *metrics.Snapshot
	MaxBurst int64
	Stopped  bool // ended by a stop step
	Err      error
}

// ConsoleOutput manages console output during a run.
type ConsoleOutput struct {
	writer io.Writer
	scheme *ColorScheme
	isTTY  bool
	quiet  bool

	mu       sync.Mutex
	liveLine bool // a progress line is on screen
}

// ConsoleOutputConfig contains configuration for ConsoleOutput.
type ConsoleOutputConfig struct {
	Writer   io.Writer
	Quiet    bool
	NoColor  bool
	ForceTTY bool
}

// NewConsoleOutput creates a new console output handler.
func NewConsoleOutput(config ConsoleOutputConfig) *ConsoleOutput {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	return &ConsoleOutput{
		writer: config.Writer,
		scheme: SchemeFor(config.Writer, config.NoColor),
		isTTY:  config.ForceTTY || IsTerminal(config.Writer),
		quiet:  config.Quiet,
	}
}

// IsTTY returns whether the output is a terminal.
func (c *ConsoleOutput) IsTTY() bool {
	return c.isTTY
}

// Scheme returns the color scheme in use.
func (c *ConsoleOutput) Scheme() *ColorScheme {
	return c.scheme
}

// PrintHeader prints the run header.
func (c *ConsoleOutput) PrintHeader(name, target string, steps int, dryRun bool) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.scheme.Dim.Sprint(strings.Repeat(boxHorizontal, 56))
	mode := ""
	if dryRun {
		mode = c.scheme.Warn.Sprint(" [dry run]")
	}

	c.writeln(line)
	c.writeln(fmt.Sprintf("%s -> %s (%d steps)%s",
		c.scheme.Highlight.Sprint(name), target, steps, mode))
	c.writeln(line)
}

// Update redraws the progress line. On a non-terminal it prints one line
// per call instead.
func (c *ConsoleOutput) Update(stats *LiveStats) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf("[%s] step %d/%d | sent %s (%s) | %s msg/s | errors %d | p99 %s",
		formatDuration(stats.Elapsed),
		stats.PC, stats.Steps,
		formatNumber(stats.Sends),
		formatBytes(stats.Bytes),
		c.scheme.Number.Sprint(fmt.Sprintf("%.1f", stats.Rate)),
		stats.Errors,
		formatDurationShort(stats.LatencyP99))

	if !c.isTTY {
		c.writeln(line)
		return
	}
	c.write(carriageReturn + line + clearToEnd)
	c.liveLine = true
}

// PrintSummary prints the final run summary.
func (c *ConsoleOutput) PrintSummary(s *Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quiet {
		if s.Err != nil {
			c.writeln(c.scheme.Error.Sprint("FAILED"))
		} else {
			c.writeln(c.scheme.Success.Sprint("DONE"))
		}
		return
	}

	if c.liveLine {
		c.write(carriageReturn + clearToEnd)
		c.liveLine = false
	}

	status := c.scheme.Success.Sprint(SuccessIcon(true) + " completed")
	switch {
	case s.Err != nil:
		status = c.scheme.Error.Sprint(ErrorIcon(true) + " failed")
	case s.Stopped:
		status = c.scheme.Success.Sprint(SuccessIcon(true) + " stopped")
	}

	c.writeln("")
	c.writeln(fmt.Sprintf("%s - %s", c.scheme.Highlight.Sprint(s.Name), status))
	c.writeln(fmt.Sprintf("Target:        %s", s.Target))
	c.writeln(fmt.Sprintf("Duration:      %s", formatDuration(s.Duration)))

	if m := s.Metrics; m != nil {
		c.writeln(fmt.Sprintf("Messages:      %s", c.scheme.Number.Sprint(formatNumber(m.TotalSends))))
		c.writeln(fmt.Sprintf("Bytes:         %s", formatBytes(m.TotalBytes)))
		c.writeln(fmt.Sprintf("Rate:          %.1f msg/s", m.Rate))
		if m.FailedSends > 0 {
			c.writeln(fmt.Sprintf("Failed:        %s", c.scheme.Error.Sprint(formatNumber(m.FailedSends))))
		}
		if m.VariableChanges > 0 {
			c.writeln(fmt.Sprintf("Var changes:   %s", formatNumber(m.VariableChanges)))
		}
		c.writeln(fmt.Sprintf("Max burst:     %d", s.MaxBurst))

		if m.SendLatency.Count > 0 {
			c.writeln("")
			c.writeln("Send Duration:")
			c.writeln(fmt.Sprintf("  Min:       %s", formatDurationShort(m.SendLatency.Min)))
			c.writeln(fmt.Sprintf("  P50:       %s", formatDurationShort(m.SendLatency.P50)))
			c.writeln(fmt.Sprintf("  P90:       %s", formatDurationShort(m.SendLatency.P90)))
			c.writeln(fmt.Sprintf("  P99:       %s", formatDurationShort(m.SendLatency.P99)))
			c.writeln(fmt.Sprintf("  Max:       %s", formatDurationShort(m.SendLatency.Max)))
		}
	}

	if s.Err != nil {
		c.writeln("")
		c.writeln(fmt.Sprintf("Error:         %s", c.scheme.Error.Sprint(s.Err.Error())))
	}
}

// StatsFromMetrics creates LiveStats from a metrics snapshot.
func StatsFromMetrics(snap *metrics.Snapshot, pc, steps int) *LiveStats {
	if snap == nil {
		return &LiveStats{PC: pc, Steps: steps}
	}
	return &LiveStats{
		Elapsed:    snap.Elapsed,
		Sends:      snap.TotalSends,
		Bytes:      snap.TotalBytes,
		Rate:       snap.Rate,
		Errors:     snap.FailedSends,
		LatencyP99: snap.SendLatency.P99,
		PC:         pc,
		Steps:      steps,
	}
}

func (c *ConsoleOutput) write(s string) {
	fmt.Fprint(c.writer, s)
}

func (c *ConsoleOutput) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatDurationShort formats a duration in a short format.
func formatDurationShort(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}

// formatBytes formats a byte count with a decimal unit, matching the
// script's kbytes and mbytes.
func formatBytes(n int64) string {
	switch {
	case n >= 1000000000:
		return fmt.Sprintf("%.2f GB", float64(n)/1e9)
	case n >= 1000000:
		return fmt.Sprintf("%.2f MB", float64(n)/1e6)
	case n >= 1000:
		return fmt.Sprintf("%.2f kB", float64(n)/1e3)
	}
	return fmt.Sprintf("%d B", n)
}
