package tgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/tgen/tgen/clock"
)

type change struct {
	id    byte
	value int
}

// recorder is a Host that remembers every callback.
type recorder struct {
	sends   []int
	changes []change
}

func (r *recorder) Send(_ *Generator, length int) {
	r.sends = append(r.sends, length)
}

func (r *recorder) VariableChanged(_ *Generator, id byte, value int) {
	r.changes = append(r.changes, change{id, value})
}

func newTestGenerator(t *testing.T, script string) (*Generator, *recorder) {
	t.Helper()
	rec := &recorder{}
	g := New(Config{
		Host:  rec,
		Clock: clock.NewFake(100 * time.Microsecond),
	})
	t.Cleanup(func() { _ = g.Close() })
	require.NoError(t, g.AddMultiSteps(script))
	return g, rec
}

func TestGenerator_LoopScenario(t *testing.T) {
	g, rec := newTestGenerator(t, "set a 3;label x;sendc 1 bytes 1000000 mpersec 1 msgs;loop x a")

	require.NoError(t, g.Run(context.Background()))

	// The body runs once per unit of the register: set, then three passes
	// through sendc with the loop jumping back twice.
	assert.Len(t, rec.sends, 3)
	assert.Equal(t, []change{{'a', 3}, {'a', 2}, {'a', 1}, {'a', 0}}, rec.changes)

	a, err := g.Variable('a')
	require.NoError(t, err)
	assert.Equal(t, 0, a)
	assert.Equal(t, StateStopped, g.State())
	assert.Equal(t, g.Script().Len(), g.PC())
}

func TestGenerator_LoopRunsBodyValueTimes(t *testing.T) {
	for v := 1; v <= 7; v++ {
		t.Run(fmt.Sprintf("v=%d", v), func(t *testing.T) {
			script := fmt.Sprintf("set k %d\nlabel t\nsendc 8 bytes 1 kpersec 1 msgs\nloop t k", v)
			g, rec := newTestGenerator(t, script)

			require.NoError(t, g.Run(context.Background()))

			assert.Len(t, rec.sends, v)
			k, _ := g.Variable('k')
			assert.Equal(t, 0, k)
		})
	}
}

func TestGenerator_LoopWithZeroRegisterFallsThrough(t *testing.T) {
	g, rec := newTestGenerator(t, "label x; sendc 1 bytes 1 kpersec 1 msgs; loop x a")

	require.NoError(t, g.Run(context.Background()))

	assert.Len(t, rec.sends, 1)
	assert.Empty(t, rec.changes, "loop must not touch a zero register")
}

func TestGenerator_LoopToLaterLabel(t *testing.T) {
	g, rec := newTestGenerator(t, "set a 2; loop y a; sendc 1 bytes 1 kpersec 1 msgs; label y")

	require.NoError(t, g.Run(context.Background()))

	assert.Empty(t, rec.sends, "jump skips over the send")
	a, _ := g.Variable('a')
	assert.Equal(t, 1, a)
}

func TestGenerator_StopBeforeSend(t *testing.T) {
	g, rec := newTestGenerator(t, "stop;sendc 1 bytes 1 persec 5 msgs")

	require.NoError(t, g.Run(context.Background()))

	assert.Empty(t, rec.sends)
	assert.Equal(t, 1, g.PC())
	assert.Equal(t, StateStopped, g.State())
}

func TestGenerator_UnknownLabelAtExecution(t *testing.T) {
	g, rec := newTestGenerator(t, "sendc 4 bytes 1 kpersec 2 msgs; loop z a; sendc 1 bytes 1 kpersec 1 msgs")

	err := g.Run(context.Background())
	require.Error(t, err)

	var ule *UnknownLabelError
	require.True(t, errors.As(err, &ule), "error %v should be *UnknownLabelError", err)
	assert.Equal(t, byte('z'), ule.Label)
	assert.Equal(t, 1, ule.PC)

	assert.Equal(t, []int{4, 4}, rec.sends, "sends before the failure are kept")
	assert.Equal(t, StateStopped, g.State())
}

func TestGenerator_SendCountExact(t *testing.T) {
	g, rec := newTestGenerator(t, "sendc 10 bytes 1 kpersec 25 msgs; sendc 3 kbytes 7 mpersec 1 kmsgs")

	require.NoError(t, g.Run(context.Background()))

	require.Len(t, rec.sends, 1025)
	assert.Equal(t, 10, rec.sends[0])
	assert.Equal(t, 10, rec.sends[24])
	assert.Equal(t, 3000, rec.sends[25])
}

func TestGenerator_SendTimedWithinBound(t *testing.T) {
	rec := &recorder{}
	g := New(Config{Host: rec, Clock: clock.NewFake(time.Millisecond)})
	require.NoError(t, g.AddStep("sendt 100 bytes 1 kpersec 1 sec"))

	require.NoError(t, g.Run(context.Background()))

	assert.InDelta(t, 1000, len(rec.sends), 1)
}

func TestGenerator_Delay(t *testing.T) {
	clk := clock.NewFake(time.Millisecond)
	g := New(Config{Clock: clk})
	require.NoError(t, g.AddStep("delay 20 msec"))

	require.NoError(t, g.Run(context.Background()))

	assert.GreaterOrEqual(t, clk.Now(), int64(20*time.Millisecond))
}

func TestGenerator_DryRunLogsInsteadOfSending(t *testing.T) {
	var logBuf bytes.Buffer
	rec := &recorder{}
	g := New(Config{
		Host:   rec,
		DryRun: true,
		Logger: slog.New(slog.NewTextHandler(&logBuf, nil)),
		Clock:  clock.NewFake(time.Millisecond),
	})
	require.NoError(t, g.AddMultiSteps("sendt 1 bytes 1 persec 1 sec; sendc 2 bytes 3 persec 4 msgs; set a 1"))

	require.NoError(t, g.Run(context.Background()))

	assert.Empty(t, rec.sends)
	assert.Contains(t, logBuf.String(), "msg=sendt len=1 rate=1 duration_usec=1000000")
	assert.Contains(t, logBuf.String(), "msg=sendc len=2 rate=3 num_msgs=4")
	assert.Equal(t, []change{{'a', 1}}, rec.changes)
}

func TestGenerator_Repl(t *testing.T) {
	var prompt bytes.Buffer
	rec := &recorder{}
	g := New(Config{
		Host:   rec,
		Clock:  clock.NewFake(100 * time.Microsecond),
		Input:  strings.NewReader("set b 7\nbogus\n# comment\nsendc 2 bytes 1 kpersec 3 msgs\n"),
		Prompt: &prompt,
	})
	require.NoError(t, g.AddMultiSteps("repl; sendc 1 bytes 1 kpersec 1 msgs"))

	require.NoError(t, g.Run(context.Background()))

	assert.Equal(t, []int{2, 2, 2, 1}, rec.sends)
	b, _ := g.Variable('b')
	assert.Equal(t, 7, b)
	assert.Equal(t, 2, g.Script().Len(), "repl steps are not appended")

	out := prompt.String()
	assert.Equal(t, 5, strings.Count(out, ReplPrompt))
	assert.Contains(t, out, "error: ")
}

func TestGenerator_ReplStop(t *testing.T) {
	rec := &recorder{}
	g := New(Config{
		Host:  rec,
		Input: strings.NewReader("stop\nsendc 1 bytes 1 kpersec 1 msgs\n"),
	})
	require.NoError(t, g.AddMultiSteps("repl; sendc 1 bytes 1 kpersec 1 msgs"))

	require.NoError(t, g.Run(context.Background()))

	assert.Empty(t, rec.sends)
	assert.Equal(t, StateStopped, g.State())
}

func TestGenerator_ReplUnknownLabelFails(t *testing.T) {
	g := New(Config{Input: strings.NewReader("set a 2\nloop q a\n")})
	require.NoError(t, g.AddStep("repl"))

	var ule *UnknownLabelError
	assert.True(t, errors.As(g.Run(context.Background()), &ule))
}

func TestGenerator_Variables(t *testing.T) {
	rec := &recorder{}
	g := New(Config{Host: rec, UserData: "ctx-42"})

	assert.Equal(t, "ctx-42", g.UserData())

	require.NoError(t, g.SetVariable('c', 11))
	c, err := g.Variable('c')
	require.NoError(t, err)
	assert.Equal(t, 11, c)
	assert.Equal(t, []change{{'c', 11}}, rec.changes)
	assert.Equal(t, 11, g.Variables()[2])

	_, err = g.Variable('C')
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.ErrorIs(t, g.SetVariable('1', 0), ErrInvalidIdentifier)
}

func TestGenerator_AddStepParseError(t *testing.T) {
	g := New(Config{})

	err := g.AddStep("sendt 1 bytes 1 parsec 1 sec")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, ErrInvalidUnit)
	assert.Equal(t, 0, g.Script().Len())
}

func TestGenerator_ContextCancelled(t *testing.T) {
	g, rec := newTestGenerator(t, "set a 1; sendc 1 bytes 1 persec 100 msgs; set b 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.sends)
	assert.Equal(t, []change{{'a', 1}}, rec.changes)
}

func TestGenerator_MutationWhileRunning(t *testing.T) {
	var addErr, runErr error
	var g *Generator
	g = New(Config{Host: HostFuncs{
		SendFunc: func(*Generator, int) {
			addErr = g.AddStep("stop")
			runErr = g.Run(context.Background())
		},
	}})
	require.NoError(t, g.AddStep("sendc 1 bytes 1 kpersec 1 msgs"))

	require.NoError(t, g.Run(context.Background()))

	assert.ErrorIs(t, addErr, ErrRunning)
	assert.ErrorIs(t, runErr, ErrRunning)
	assert.NoError(t, g.Close())
}

func TestGenerator_Rewind(t *testing.T) {
	g, rec := newTestGenerator(t, "sendc 1 bytes 1 kpersec 2 msgs")

	require.NoError(t, g.Run(context.Background()))
	require.NoError(t, g.Run(context.Background()))
	assert.Len(t, rec.sends, 2, "second run starts at the end")

	require.NoError(t, g.Rewind())
	require.NoError(t, g.Run(context.Background()))
	assert.Len(t, rec.sends, 4)
}

func TestGenerator_Closed(t *testing.T) {
	g := New(Config{})
	require.NoError(t, g.Close())

	assert.ErrorIs(t, g.AddStep("stop"), ErrClosed)
	assert.ErrorIs(t, g.AddMultiSteps("stop"), ErrClosed)
	assert.ErrorIs(t, g.Run(context.Background()), ErrClosed)
	assert.ErrorIs(t, g.RunStep(context.Background(), Step{Op: OpStop}), ErrClosed)
}

func TestGenerator_RunStepUnknownOpPanics(t *testing.T) {
	g := New(Config{})
	assert.Panics(t, func() {
		_ = g.RunStep(context.Background(), Step{Op: Op(99)})
	})
}

func TestGenerator_TraceLogging(t *testing.T) {
	var logBuf bytes.Buffer
	g := New(Config{
		Logger: slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: LevelTrace})),
	})
	require.NoError(t, g.AddStep("set q 5"))

	require.NoError(t, g.Run(context.Background()))

	assert.Contains(t, logBuf.String(), `msg=exec pc=0 op=set step="set q 5"`)
}
