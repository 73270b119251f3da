package rate

import (
	"context"
	"math"
	"math/bits"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/tgen/tgen/clock"
)

const nsPerSec = uint64(time.Second)

// Pacer runs catch-up send loops against a clock.
//
// A Pacer is driven by one goroutine at a time. Stats may be read
// concurrently from other goroutines.
type Pacer struct {
	clock clock.Clock

	// Metrics
	totalSent  atomic.Int64 // messages sent across all loops
	totalBusy  atomic.Int64 // nanoseconds spent inside loops
	maxBurst   atomic.Int64 // largest catch-up burst observed
	totalLoops atomic.Int64 // completed Timed/Counted/Delay calls
}

// Result describes one completed (or interrupted) send loop.
type Result struct {
	Sent     int64         `json:"sent"`     // Messages sent
	Elapsed  time.Duration `json:"elapsed"`  // Time from start to last clock read
	MaxBurst int64         `json:"maxBurst"` // Largest number of sends issued in one catch-up
}

// Stats contains cumulative statistics for a Pacer.
type Stats struct {
	TotalSent  int64         `json:"totalSent"`
	TotalBusy  time.Duration `json:"totalBusy"`
	MaxBurst   int64         `json:"maxBurst"`
	TotalLoops int64         `json:"totalLoops"`
}

// NewPacer creates a pacer reading the given clock.
// A nil clock selects a monotonic clock.
func NewPacer(clk clock.Clock) *Pacer {
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	return &Pacer{clock: clk}
}

// Clock returns the clock the pacer reads.
func (p *Pacer) Clock() clock.Clock {
	return p.clock
}

// Timed calls send at ratePerSec messages per second until duration has
// elapsed.
//
// The number of sends is floor(d*rate/1e9)+1 where d is the first clock
// reading at or past duration, so it lands within one of rate*duration.
func (p *Pacer) Timed(ctx context.Context, ratePerSec int64, duration time.Duration, send func()) (Result, error) {
	return p.run(ctx, ratePerSec, int64(duration), -1, send)
}

// Counted calls send exactly count times at ratePerSec messages per second.
//
// The call returns early only if ctx is cancelled. A zero rate never
// advances past the t=0 message, so it sends at most one.
func (p *Pacer) Counted(ctx context.Context, ratePerSec int64, count int64, send func()) (Result, error) {
	if ratePerSec <= 0 && count > 1 {
		count = 1
	}
	if count <= 0 {
		p.totalLoops.Add(1)
		return Result{}, nil
	}
	return p.run(ctx, ratePerSec, 0, count, send)
}

// Delay busy-waits for duration using the same clock discipline as the
// send loops.
func (p *Pacer) Delay(ctx context.Context, duration time.Duration) error {
	done := ctx.Done()
	start := p.clock.Nanotime()
	cur := start
	var elapsed int64
	for {
		elapsed = cur - start
		select {
		case <-done:
			p.totalBusy.Add(elapsed)
			return ctx.Err()
		default:
		}
		cur = p.clock.Nanotime()
		if elapsed >= int64(duration) {
			break
		}
	}
	p.totalBusy.Add(elapsed)
	p.totalLoops.Add(1)
	return nil
}

// run is the shared catch-up loop. A negative count selects timed mode,
// bounded by limit nanoseconds.
func (p *Pacer) run(ctx context.Context, ratePerSec, limit, count int64, send func()) (Result, error) {
	var res Result
	done := ctx.Done()

	start := p.clock.Nanotime()
	cur := start
	for {
		elapsed := cur - start
		res.Elapsed = time.Duration(elapsed)

		select {
		case <-done:
			p.record(res)
			return res, ctx.Err()
		default:
		}

		should := Target(elapsed, ratePerSec)
		if count >= 0 && should > count {
			should = count
		}

		// Behind schedule: catch up.
		if burst := should - res.Sent; burst > 0 {
			for res.Sent < should {
				send()
				res.Sent++
			}
			if burst > res.MaxBurst {
				res.MaxBurst = burst
			}
		}
		cur = p.clock.Nanotime()

		if count >= 0 {
			if res.Sent >= count {
				break
			}
		} else if elapsed >= limit {
			break
		}
	}

	p.record(res)
	p.totalLoops.Add(1)
	return res, nil
}

func (p *Pacer) record(res Result) {
	p.totalSent.Add(res.Sent)
	p.totalBusy.Add(int64(res.Elapsed))
	for {
		cur := p.maxBurst.Load()
		if res.MaxBurst <= cur || p.maxBurst.CompareAndSwap(cur, res.MaxBurst) {
			return
		}
	}
}

// Target returns how many messages should have been sent after elapsed
// nanoseconds at ratePerSec, including the message sent at t=0.
//
// The product is computed in 128 bits and the result saturates at
// math.MaxInt64. A zero rate always yields 1.
func Target(elapsed, ratePerSec int64) int64 {
	if elapsed <= 0 || ratePerSec <= 0 {
		return 1
	}
	hi, lo := bits.Mul64(uint64(elapsed), uint64(ratePerSec))
	if hi >= nsPerSec {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, nsPerSec)
	if q >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q) + 1
}

// Stats returns cumulative statistics.
func (p *Pacer) Stats() Stats {
	return Stats{
		TotalSent:  p.totalSent.Load(),
		TotalBusy:  time.Duration(p.totalBusy.Load()),
		MaxBurst:   p.maxBurst.Load(),
		TotalLoops: p.totalLoops.Load(),
	}
}

// Reset clears the cumulative statistics.
func (p *Pacer) Reset() {
	p.totalSent.Store(0)
	p.totalBusy.Store(0)
	p.maxBurst.Store(0)
	p.totalLoops.Store(0)
}
