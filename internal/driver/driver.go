// Package driver connects a tgen.Generator to a network sink and a metrics
// recorder.
package driver

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/tgen/internal/metrics"
	"github.com/wesleyorama2/tgen/internal/sink"
	"github.com/wesleyorama2/tgen/tgen"
)

// Driver implements tgen.Host. Every send is written to the sink and timed;
// every register write is counted and logged.
type Driver struct {
	sink     sink.Sink
	recorder *metrics.Recorder
	logger   *slog.Logger

	sendErrors atomic.Int64
	lastError  atomic.Value // error

	// pc mirrors the generator's program counter for readers on other
	// goroutines; the Generator itself is not safe to query concurrently.
	pc atomic.Int64
}

// New creates a driver. A nil logger discards output.
func New(s sink.Sink, recorder *metrics.Recorder, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Driver{
		sink:     s,
		recorder: recorder,
		logger:   logger,
	}
}

// Send implements tgen.Host.
func (d *Driver) Send(g *tgen.Generator, length int) {
	d.pc.Store(int64(g.PC()))

	start := time.Now()
	err := d.sink.Write(length)
	d.recorder.RecordSend(time.Since(start), length, err)

	if err == nil {
		return
	}

	d.lastError.Store(err)
	// Only the first failure is worth a warning; a dead target fails every send.
	if d.sendErrors.Add(1) == 1 {
		d.logger.Warn("send failed", "target", d.sink.String(), "len", length, "error", err)
		return
	}
	d.logger.Debug("send failed", "target", d.sink.String(), "len", length, "error", err)
}

// VariableChanged implements tgen.Host.
func (d *Driver) VariableChanged(g *tgen.Generator, id byte, value int) {
	d.pc.Store(int64(g.PC()))
	d.recorder.RecordVariableChange()
	d.logger.Debug("variable changed", "var", string(id), "value", value, "pc", g.PC())
}

// PC returns the program counter seen by the most recent callback.
func (d *Driver) PC() int {
	return int(d.pc.Load())
}

// SendErrors returns the number of failed sends.
func (d *Driver) SendErrors() int64 {
	return d.sendErrors.Load()
}

// LastError returns the most recent send error, or nil.
func (d *Driver) LastError() error {
	if err, ok := d.lastError.Load().(error); ok {
		return err
	}
	return nil
}

// Recorder returns the metrics recorder.
func (d *Driver) Recorder() *metrics.Recorder {
	return d.recorder
}

// Sink returns the sink messages are written to.
func (d *Driver) Sink() sink.Sink {
	return d.sink
}
