package tgen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/wesleyorama2/tgen/tgen/clock"
	"github.com/wesleyorama2/tgen/tgen/rate"
)

// State is the run state of a Generator.
type State int

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config contains configuration for a Generator.
type Config struct {
	// Host receives sends and variable changes. Nil discards both.
	Host Host

	// UserData is an opaque value returned by UserData.
	UserData any

	// Clock is the pacing time source (default: monotonic clock).
	Clock clock.Clock

	// Capacity is the initial script capacity (default: DefaultCapacity).
	Capacity int

	// Input is read by repl steps (default: os.Stdin).
	Input io.Reader

	// Prompt receives the repl prompt and repl parse errors. Nil prints
	// nothing.
	Prompt io.Writer

	// DryRun logs send steps instead of pacing and sending them.
	DryRun bool

	// Logger receives step tracing (default: discard).
	Logger *slog.Logger
}

// Generator compiles and runs a traffic script.
//
// A Generator is single-threaded: AddStep, SetVariable and friends must not
// be called while Run is in progress. Run executes on the caller's
// goroutine and busy-waits for the script's full duration.
type Generator struct {
	host     Host
	userData any
	input    io.Reader
	prompt   io.Writer
	dryRun   bool
	logger   *slog.Logger

	script *Script
	pacer  *rate.Pacer
	reader *bufio.Reader

	vars   [NumRegisters]int
	pc     int
	state  State
	closed bool
}

// New creates a Generator with an empty script.
func New(cfg Config) *Generator {
	if cfg.Host == nil {
		cfg.Host = HostFuncs{}
	}
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		host:     cfg.Host,
		userData: cfg.UserData,
		input:    cfg.Input,
		prompt:   cfg.Prompt,
		dryRun:   cfg.DryRun,
		logger:   cfg.Logger,
		script:   NewScript(cfg.Capacity),
		pacer:    rate.NewPacer(cfg.Clock),
	}
}

// Close releases the script. Further calls return ErrClosed.
func (g *Generator) Close() error {
	if g.state == StateRunning {
		return ErrRunning
	}
	g.closed = true
	g.script = NewScript(1)
	g.reader = nil
	return nil
}

// UserData returns the value supplied in Config.UserData.
func (g *Generator) UserData() any {
	return g.userData
}

// Script returns the compiled script.
func (g *Generator) Script() *Script {
	return g.script
}

// Pacer returns the pacer used for send and delay steps.
func (g *Generator) Pacer() *rate.Pacer {
	return g.pacer
}

// PC returns the index of the next step to execute.
func (g *Generator) PC() int {
	return g.pc
}

// State returns the current run state.
func (g *Generator) State() State {
	return g.state
}

// Variable returns the value of register id ('a'-'z').
func (g *Generator) Variable(id byte) (int, error) {
	i, err := Index(id)
	if err != nil {
		return 0, err
	}
	return g.vars[i], nil
}

// Variables returns a copy of all registers.
func (g *Generator) Variables() [NumRegisters]int {
	return g.vars
}

// SetVariable assigns register id and notifies the host.
func (g *Generator) SetVariable(id byte, value int) error {
	i, err := Index(id)
	if err != nil {
		return err
	}
	g.setRegister(i, value)
	return nil
}

func (g *Generator) setRegister(i, value int) {
	g.vars[i] = value
	g.host.VariableChanged(g, Letter(i), value)
}

// AddStep compiles one script line and appends it.
func (g *Generator) AddStep(line string) error {
	if err := g.mutable(); err != nil {
		return err
	}
	return g.script.AddLine(line)
}

// AddMultiSteps compiles a ';' or newline separated script, stopping at the
// first line that fails to parse.
func (g *Generator) AddMultiSteps(text string) error {
	if err := g.mutable(); err != nil {
		return err
	}
	return g.script.AddText(text)
}

func (g *Generator) mutable() error {
	if g.closed {
		return ErrClosed
	}
	if g.state == StateRunning {
		return ErrRunning
	}
	return nil
}

// Run executes the script from the current program counter until it runs
// off the end, a stop step executes, ctx is cancelled or a step fails.
//
// Sends issued before a failure are not undone.
func (g *Generator) Run(ctx context.Context) error {
	if err := g.mutable(); err != nil {
		return err
	}

	g.state = StateRunning
	defer func() { g.state = StateStopped }()

	for g.state == StateRunning {
		if g.pc >= g.script.Len() {
			break
		}
		step := g.script.At(g.pc)
		g.pc++

		if err := g.exec(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// Rewind resets the program counter so the script can be run again.
// Registers keep their values.
func (g *Generator) Rewind() error {
	if err := g.mutable(); err != nil {
		return err
	}
	g.pc = 0
	return nil
}

// RunStep executes a single step outside the script. Label steps define a
// label at the current end of the script; OpNone does nothing.
func (g *Generator) RunStep(ctx context.Context, step Step) error {
	if g.closed {
		return ErrClosed
	}
	switch step.Op {
	case OpNone:
		return nil
	case OpLabel:
		return g.script.defineLabel(step.Label)
	}
	return g.exec(ctx, step)
}
