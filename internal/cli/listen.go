package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/tgen/internal/logs"
	"github.com/wesleyorama2/tgen/internal/sink"
)

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen <url>",
		Short: "Receive and count traffic, for checking a target end to end",
		Long: `Listen on a UDP, TCP or WebSocket address and print what arrives.

  tgen listen udp://:9000
  tgen listen ws://127.0.0.1:8080/ingest --duration 30s

Message sequence numbers written by 'tgen run' are checked and gaps reported.`,
		Args: cobra.ExactArgs(1),
		RunE: listen,
	}

	cmd.Flags().Duration("duration", 0, "Stop after this long (default: until interrupted)")
	cmd.Flags().Duration("interval", time.Second, "Statistics print interval")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error (default info)")
	return cmd
}

func listen(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	interval, _ := cmd.Flags().GetDuration("interval")
	logLevel, _ := cmd.Flags().GetString("log-level")

	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	logger, closeLog, err := logs.New(logs.Options{Level: logLevel, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer closeLog()

	r, err := sink.Listen(args[0], logger)
	if err != nil {
		return err
	}
	defer r.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Listening on %s\n", r.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	var last sink.ReceiverStats
	for {
		select {
		case <-ctx.Done():
			total := r.Stats()
			fmt.Fprintf(out, "Total: %d messages, %d bytes, %d gaps in %s\n",
				total.Messages, total.Bytes, total.Gaps, time.Since(start).Round(time.Millisecond))
			return nil
		case <-ticker.C:
			cur := r.Stats()
			secs := interval.Seconds()
			fmt.Fprintf(out, "%.1f msg/s  %.1f B/s  total %d messages, %d bytes, %d gaps\n",
				float64(cur.Messages-last.Messages)/secs,
				float64(cur.Bytes-last.Bytes)/secs,
				cur.Messages, cur.Bytes, cur.Gaps)
			last = cur
		}
	}
}
