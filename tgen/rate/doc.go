// Package rate implements the catch-up pacing used to drive sends.
//
// # Catch-up Algorithm
//
// Instead of sleeping between sends, the pacer repeatedly reads a monotonic
// clock and computes how many messages should have been sent by now:
//
//	target = floor(elapsed * rate / 1e9) + 1
//
// and then sends until it has caught up with that target. The +1 makes the
// first message go out at t=0 rather than one interval later. A stall (GC
// pause, descheduling) results in a burst instead of dropped sends, so the
// long-run average rate converges on the requested rate.
//
// The loops busy-poll the clock and never yield. This trades a CPU core for
// timing precision below the scheduler tick.
//
// # Basic Usage
//
//	p := rate.NewPacer(clock.NewMonotonic())
//
//	// 10,000 messages per second for two seconds
//	res, err := p.Timed(ctx, 10000, 2*time.Second, func() {
//	    conn.Write(buf)
//	})
//
//	// exactly 500 messages at 1,000 per second
//	res, err = p.Counted(ctx, 1000, 500, func() {
//	    conn.Write(buf)
//	})
//
// # Zero Rate
//
// A rate of zero sends the single t=0 message and then idles: Timed idles
// for the remaining duration, Counted stops after one message.
package rate
