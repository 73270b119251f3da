// Package metrics collects send statistics for a traffic generator run.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Recorder counts sends and measures how long each Send call took.
//
// # Thread Safety
//
// Recorder is safe for concurrent use. Counters use atomic operations and
// the histogram is protected by a mutex, so a progress reporter may take
// snapshots while the generator goroutine records sends.
type Recorder struct {
	// Send call duration in nanoseconds
	sendHist   *hdrhistogram.Histogram
	sendHistMu sync.Mutex

	// Atomic counters for lock-free updates
	totalSends      atomic.Int64
	failedSends     atomic.Int64
	totalBytes      atomic.Int64
	variableChanges atomic.Int64

	startTime time.Time
	config    Config
}

// Config contains configuration for the recorder.
type Config struct {
	// HistogramMin is the minimum recordable value in nanoseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in nanoseconds (default: 60s)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		HistogramMin:     1,
		HistogramMax:     int64(time.Minute),
		HistogramSigFigs: 3,
	}
}

// NewRecorder creates a recorder with default configuration.
func NewRecorder() *Recorder {
	return NewRecorderWithConfig(DefaultConfig())
}

// NewRecorderWithConfig creates a recorder with custom configuration.
func NewRecorderWithConfig(config Config) *Recorder {
	return &Recorder{
		sendHist:  hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs),
		startTime: time.Now(),
		config:    config,
	}
}

// RecordSend records one Send call of length bytes that took d.
// A non-nil err counts the send as failed; its bytes are not counted.
func (r *Recorder) RecordSend(d time.Duration, length int, err error) {
	ns := int64(d)
	if ns < r.config.HistogramMin {
		ns = r.config.HistogramMin
	}
	if ns > r.config.HistogramMax {
		ns = r.config.HistogramMax
	}

	r.sendHistMu.Lock()
	_ = r.sendHist.RecordValue(ns)
	r.sendHistMu.Unlock()

	r.totalSends.Add(1)
	if err != nil {
		r.failedSends.Add(1)
		return
	}
	r.totalBytes.Add(int64(length))
}

// RecordVariableChange counts one register write.
func (r *Recorder) RecordVariableChange() {
	r.variableChanges.Add(1)
}

// TotalSends returns the number of recorded sends.
func (r *Recorder) TotalSends() int64 {
	return r.totalSends.Load()
}

// Snapshot returns a point-in-time view of all metrics.
func (r *Recorder) Snapshot() *Snapshot {
	r.sendHistMu.Lock()
	latency := LatencyStats{
		Min:    time.Duration(r.sendHist.Min()),
		Max:    time.Duration(r.sendHist.Max()),
		Mean:   time.Duration(r.sendHist.Mean()),
		StdDev: time.Duration(r.sendHist.StdDev()),
		P50:    time.Duration(r.sendHist.ValueAtQuantile(50)),
		P90:    time.Duration(r.sendHist.ValueAtQuantile(90)),
		P99:    time.Duration(r.sendHist.ValueAtQuantile(99)),
		Count:  r.sendHist.TotalCount(),
	}
	r.sendHistMu.Unlock()

	elapsed := time.Since(r.startTime)
	sends := r.totalSends.Load()
	bytes := r.totalBytes.Load()

	rate := 0.0
	throughput := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(sends) / elapsed.Seconds()
		throughput = float64(bytes) / elapsed.Seconds()
	}

	return &Snapshot{
		TotalSends:      sends,
		FailedSends:     r.failedSends.Load(),
		TotalBytes:      bytes,
		VariableChanges: r.variableChanges.Load(),
		SendLatency:     latency,
		Rate:            rate,
		Throughput:      throughput,
		Elapsed:         elapsed,
		StartTime:       r.startTime,
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics and restarts the clock.
func (r *Recorder) Reset() {
	r.sendHistMu.Lock()
	r.sendHist.Reset()
	r.sendHistMu.Unlock()

	r.totalSends.Store(0)
	r.failedSends.Store(0)
	r.totalBytes.Store(0)
	r.variableChanges.Store(0)
	r.startTime = time.Now()
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	TotalSends      int64         `json:"totalSends"`
	FailedSends     int64         `json:"failedSends"`
	TotalBytes      int64         `json:"totalBytes"`
	VariableChanges int64         `json:"variableChanges"`
	SendLatency     LatencyStats  `json:"sendLatency"`
	Rate            float64       `json:"rate"`       // sends per second
	Throughput      float64       `json:"throughput"` // bytes per second
	Elapsed         time.Duration `json:"elapsed"`
	StartTime       time.Time     `json:"startTime"`
	Timestamp       time.Time     `json:"timestamp"`
}

// LatencyStats contains Send call duration statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}
