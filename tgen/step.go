package tgen

import (
	"fmt"
	"time"
)

// NumRegisters is the number of variable registers and label slots, one per
// lowercase letter.
const NumRegisters = 26

// Op identifies the kind of a Step.
type Op uint8

const (
	// OpNone is returned by the parser for blank and comment lines.
	OpNone Op = iota
	OpSendTimed
	OpSendCount
	OpStop
	OpSet
	OpLoop
	// OpLabel marks a jump target. It is consumed when a script is built
	// and never occupies a program counter slot.
	OpLabel
	OpDelay
	OpRepl
)

var opNames = [...]string{
	OpNone:      "none",
	OpSendTimed: "sendt",
	OpSendCount: "sendc",
	OpStop:      "stop",
	OpSet:       "set",
	OpLoop:      "loop",
	OpLabel:     "label",
	OpDelay:     "delay",
	OpRepl:      "repl",
}

// String returns the script keyword for the op.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Executable reports whether steps of this op are stored in a script.
func (o Op) Executable() bool {
	return o != OpNone && o != OpLabel
}

// Step is one compiled script instruction.
//
// Numeric fields are stored already scaled by their unit: Length in bytes,
// Rate in messages per second, Duration in microseconds, Count in messages.
// Only the fields relevant to Op are meaningful.
type Step struct {
	Op       Op
	Length   int   // SendTimed, SendCount
	Rate     int64 // SendTimed, SendCount
	Duration int64 // SendTimed, Delay
	Count    int64 // SendCount
	Var      int   // Set, Loop: register index 0-25
	Value    int   // Set
	Label    int   // Loop, Label: label index 0-25
}

// Interval returns the step's Duration as a time.Duration.
func (s Step) Interval() time.Duration {
	return time.Duration(s.Duration) * time.Microsecond
}

// String formats the step as a script line that parses back to the same
// step. Each quantity uses the largest unit that represents it exactly.
func (s Step) String() string {
	switch s.Op {
	case OpNone:
		return ""
	case OpSendTimed:
		return fmt.Sprintf("sendt %s %s %s",
			formatUnit(int64(s.Length), byteUnits),
			formatUnit(s.Rate, rateUnits),
			formatUnit(s.Duration, durationUnits))
	case OpSendCount:
		return fmt.Sprintf("sendc %s %s %s",
			formatUnit(int64(s.Length), byteUnits),
			formatUnit(s.Rate, rateUnits),
			formatUnit(s.Count, countUnits))
	case OpStop, OpRepl:
		return s.Op.String()
	case OpSet:
		return fmt.Sprintf("set %c %d", Letter(s.Var), s.Value)
	case OpLoop:
		return fmt.Sprintf("loop %c %c", Letter(s.Label), Letter(s.Var))
	case OpLabel:
		return fmt.Sprintf("label %c", Letter(s.Label))
	case OpDelay:
		return "delay " + formatUnit(s.Duration, durationUnits)
	}
	return s.Op.String()
}

// Letter returns the identifier for a register or label index.
func Letter(index int) byte {
	return byte('a' + index)
}

// Index returns the register or label index for an identifier letter.
func Index(id byte) (int, error) {
	if id < 'a' || id > 'z' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return int(id - 'a'), nil
}

type unit struct {
	name  string
	scale int64
}

// Unit tables are ordered from largest to smallest scale.
var (
	byteUnits     = []unit{{"mbytes", 1000000}, {"kbytes", 1000}, {"bytes", 1}}
	rateUnits     = []unit{{"mpersec", 1000000}, {"kpersec", 1000}, {"persec", 1}}
	durationUnits = []unit{{"sec", 1000000}, {"msec", 1000}, {"usec", 1}}
	countUnits    = []unit{{"mmsgs", 1000000}, {"kmsgs", 1000}, {"msgs", 1}}
)

func lookupUnit(units []unit, name string) (int64, bool) {
	for _, u := range units {
		if u.name == name {
			return u.scale, true
		}
	}
	return 0, false
}

func formatUnit(v int64, units []unit) string {
	for _, u := range units {
		if v != 0 && v%u.scale == 0 {
			return fmt.Sprintf("%d %s", v/u.scale, u.name)
		}
	}
	return fmt.Sprintf("%d %s", v, units[len(units)-1].name)
}
