package tgen

import (
	"fmt"
	"strings"
)

// DefaultCapacity is the initial step capacity of a script.
const DefaultCapacity = 64

const noLabel = -1

// Script is an ordered sequence of executable steps plus a label table
// mapping each letter to the index of the step that follows its
// declaration.
//
// Storage doubles when full. Existing steps keep their indices, so label
// targets recorded before growth stay valid.
type Script struct {
	steps  []Step
	labels [NumRegisters]int
}

// NewScript creates an empty script. A capacity below 1 selects
// DefaultCapacity.
func NewScript(capacity int) *Script {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	s := &Script{steps: make([]Step, 0, capacity)}
	for i := range s.labels {
		s.labels[i] = noLabel
	}
	return s
}

// Len returns the number of executable steps.
func (s *Script) Len() int {
	return len(s.steps)
}

// Cap returns the current step capacity.
func (s *Script) Cap() int {
	return cap(s.steps)
}

// At returns the step at index i.
func (s *Script) At(i int) Step {
	return s.steps[i]
}

// Steps returns a copy of the executable steps.
func (s *Script) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Append adds an executable step and returns its index.
//
// It panics if step.Op is OpNone or OpLabel; those never occupy a slot.
func (s *Script) Append(step Step) int {
	if !step.Op.Executable() {
		panic(fmt.Sprintf("tgen: cannot append %s step", step.Op))
	}
	if len(s.steps) == cap(s.steps) {
		s.grow()
	}
	s.steps = append(s.steps, step)
	return len(s.steps) - 1
}

func (s *Script) grow() {
	grown := make([]Step, len(s.steps), 2*cap(s.steps))
	copy(grown, s.steps)
	s.steps = grown
}

// Label returns the step index bound to a label letter.
func (s *Script) Label(id byte) (int, bool) {
	i, err := Index(id)
	if err != nil || s.labels[i] == noLabel {
		return 0, false
	}
	return s.labels[i], true
}

// Labels returns all defined labels keyed by letter.
func (s *Script) Labels() map[byte]int {
	out := make(map[byte]int)
	for i, target := range s.labels {
		if target != noLabel {
			out[Letter(i)] = target
		}
	}
	return out
}

// defineLabel binds a label to the current end of the script. Labels are
// immutable once set.
func (s *Script) defineLabel(index int) error {
	if s.labels[index] != noLabel {
		return &ParseError{Err: ErrLabelRedefined, Detail: fmt.Sprintf("label '%c' already marks step %d", Letter(index), s.labels[index])}
	}
	s.labels[index] = len(s.steps)
	return nil
}

// add stores a parsed step: executable steps are appended, labels are
// recorded and OpNone is ignored.
func (s *Script) add(step Step) error {
	switch {
	case step.Op == OpNone:
		return nil
	case step.Op == OpLabel:
		return s.defineLabel(step.Label)
	default:
		s.Append(step)
		return nil
	}
}

// AddLine parses one script line and adds it. Nothing is added when the
// line fails to parse.
func (s *Script) AddLine(line string) error {
	step, err := ParseStep(line)
	if err != nil {
		return err
	}
	if err := s.add(step); err != nil {
		return wrapParseError(line, err)
	}
	return nil
}

// AddText splits text on ';' and newlines and adds each segment in order.
// It stops at the first segment that fails; segments before it stay added.
func (s *Script) AddText(text string) error {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == ';' || r == '\n'
	})
	for i, seg := range segments {
		if err := s.AddLine(seg); err != nil {
			return fmt.Errorf("segment %d: %w", i+1, err)
		}
	}
	return nil
}
