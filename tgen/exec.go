package tgen

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wesleyorama2/tgen/tgen/rate"
)

// ReplPrompt is written to Config.Prompt before each repl line is read.
const ReplPrompt = "repl? "

// exec dispatches one executable step. The program counter has already been
// advanced past it.
func (g *Generator) exec(ctx context.Context, step Step) error {
	if g.logger.Enabled(ctx, LevelTrace) {
		g.logger.Log(ctx, LevelTrace, "exec", "pc", g.pc-1, "op", step.Op.String(), "step", step.String())
	}

	switch step.Op {
	case OpSendTimed:
		return g.sendTimed(ctx, step)
	case OpSendCount:
		return g.sendCount(ctx, step)
	case OpStop:
		g.state = StateStopped
		return nil
	case OpSet:
		g.setRegister(step.Var, step.Value)
		return nil
	case OpLoop:
		return g.loop(step)
	case OpDelay:
		return g.pacer.Delay(ctx, step.Interval())
	case OpRepl:
		return g.repl(ctx)
	default:
		panic(fmt.Sprintf("tgen: no handler for op %s at step %d", step.Op, g.pc-1))
	}
}

func (g *Generator) sender(length int) func() {
	return func() {
		g.host.Send(g, length)
	}
}

func (g *Generator) sendTimed(ctx context.Context, step Step) error {
	if g.dryRun {
		g.logger.InfoContext(ctx, "sendt", "len", step.Length, "rate", step.Rate, "duration_usec", step.Duration)
		return nil
	}
	res, err := g.pacer.Timed(ctx, step.Rate, step.Interval(), g.sender(step.Length))
	g.logResult(ctx, step, res)
	return err
}

func (g *Generator) sendCount(ctx context.Context, step Step) error {
	if g.dryRun {
		g.logger.InfoContext(ctx, "sendc", "len", step.Length, "rate", step.Rate, "num_msgs", step.Count)
		return nil
	}
	res, err := g.pacer.Counted(ctx, step.Rate, step.Count, g.sender(step.Length))
	g.logResult(ctx, step, res)
	return err
}

func (g *Generator) logResult(ctx context.Context, step Step, res rate.Result) {
	g.logger.DebugContext(ctx, "send loop done",
		"op", step.Op.String(),
		"sent", res.Sent,
		"elapsed", res.Elapsed,
		"max_burst", res.MaxBurst,
	)
}

// loop decrements the register if positive and jumps back to the label
// while it stays positive.
func (g *Generator) loop(step Step) error {
	target := g.script.labels[step.Label]
	if target == noLabel {
		return &UnknownLabelError{Label: Letter(step.Label), PC: g.pc - 1}
	}
	if g.vars[step.Var] > 0 {
		g.setRegister(step.Var, g.vars[step.Var]-1)
	}
	if g.vars[step.Var] > 0 {
		g.pc = target
	}
	return nil
}

// repl reads steps from the input and executes each one immediately until
// the input is exhausted or a stop step runs. Lines that fail to parse are
// reported and skipped.
func (g *Generator) repl(ctx context.Context) error {
	if g.reader == nil {
		g.reader = bufio.NewReader(g.input)
	}

	for {
		g.writePrompt(ReplPrompt)
		line, err := g.reader.ReadString('\n')
		if line != "" {
			stop, execErr := g.replLine(ctx, strings.TrimRight(line, "\r\n"))
			if execErr != nil {
				return execErr
			}
			if stop {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("repl: read input: %w", err)
		}
	}
}

// replLine runs one interactive line and reports whether it was a stop.
func (g *Generator) replLine(ctx context.Context, line string) (bool, error) {
	step, err := ParseStep(line)
	if err == nil {
		err = g.RunStep(ctx, step)
	}

	var perr *ParseError
	if errors.As(err, &perr) {
		g.logger.WarnContext(ctx, "repl: bad line", "error", err)
		g.writePrompt(fmt.Sprintf("error: %v\n", err))
		return false, nil
	}
	return step.Op == OpStop, err
}

func (g *Generator) writePrompt(s string) {
	if g.prompt != nil {
		_, _ = io.WriteString(g.prompt, s)
	}
}
