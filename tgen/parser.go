package tgen

import (
	"fmt"
)

// maxDigits bounds numeric operands so that scaled values always fit in
// 64 bits.
const maxDigits = 9

// grammar parses the operands of one keyword into step.
type grammar struct {
	keyword string
	parse   func(sc *lineScanner, step *Step) error
}

// Grammars are tried in this order.
var grammars = []grammar{
	{"sendt", parseSendTimed},
	{"sendc", parseSendCount},
	{"stop", parseBare(OpStop)},
	{"set", parseSet},
	{"label", parseLabel},
	{"loop", parseLoop},
	{"delay", parseDelay},
	{"repl", parseBare(OpRepl)},
}

// ParseStep compiles one script line.
//
// Blank lines and comments yield a step with Op OpNone. A label line yields
// OpLabel, which the caller records instead of storing. Any other failure is
// returned as a *ParseError.
func ParseStep(line string) (Step, error) {
	sc := &lineScanner{s: line}
	if sc.atEnd() {
		return Step{}, nil
	}

	keyword := sc.word()
	for _, g := range grammars {
		if g.keyword != keyword {
			continue
		}
		var step Step
		if err := g.parse(sc, &step); err != nil {
			return Step{}, wrapParseError(line, err)
		}
		if !sc.atEnd() {
			return Step{}, &ParseError{Input: line, Err: ErrTrailingInput, Detail: fmt.Sprintf("%q", sc.rest())}
		}
		return step, nil
	}

	return Step{}, &ParseError{Input: line, Err: ErrUnrecognized}
}

func wrapParseError(line string, err error) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Input = line
		return pe
	}
	return &ParseError{Input: line, Err: err}
}

func parseBare(op Op) func(*lineScanner, *Step) error {
	return func(_ *lineScanner, step *Step) error {
		step.Op = op
		return nil
	}
}

func parseSendTimed(sc *lineScanner, step *Step) error {
	length, err := sc.quantity(byteUnits, "byte")
	if err != nil {
		return err
	}
	rate, err := sc.quantity(rateUnits, "rate")
	if err != nil {
		return err
	}
	duration, err := sc.quantity(durationUnits, "duration")
	if err != nil {
		return err
	}
	*step = Step{Op: OpSendTimed, Length: int(length), Rate: rate, Duration: duration}
	return nil
}

func parseSendCount(sc *lineScanner, step *Step) error {
	length, err := sc.quantity(byteUnits, "byte")
	if err != nil {
		return err
	}
	rate, err := sc.quantity(rateUnits, "rate")
	if err != nil {
		return err
	}
	count, err := sc.quantity(countUnits, "msgs")
	if err != nil {
		return err
	}
	*step = Step{Op: OpSendCount, Length: int(length), Rate: rate, Count: count}
	return nil
}

func parseSet(sc *lineScanner, step *Step) error {
	v, err := sc.identifier("variable")
	if err != nil {
		return err
	}
	value, err := sc.number()
	if err != nil {
		return err
	}
	*step = Step{Op: OpSet, Var: v, Value: int(value)}
	return nil
}

func parseLabel(sc *lineScanner, step *Step) error {
	l, err := sc.identifier("label")
	if err != nil {
		return err
	}
	*step = Step{Op: OpLabel, Label: l}
	return nil
}

func parseLoop(sc *lineScanner, step *Step) error {
	l, err := sc.identifier("label")
	if err != nil {
		return err
	}
	v, err := sc.identifier("variable")
	if err != nil {
		return err
	}
	*step = Step{Op: OpLoop, Label: l, Var: v}
	return nil
}

func parseDelay(sc *lineScanner, step *Step) error {
	duration, err := sc.quantity(durationUnits, "duration")
	if err != nil {
		return err
	}
	*step = Step{Op: OpDelay, Duration: duration}
	return nil
}

// lineScanner tokenizes a single script line. Numbers and unit words may be
// adjacent ("10kbytes") or separated by blanks ("10 kbytes").
type lineScanner struct {
	s   string
	pos int
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (sc *lineScanner) skipBlanks() {
	for sc.pos < len(sc.s) && isBlank(sc.s[sc.pos]) {
		sc.pos++
	}
}

// atEnd reports whether only blanks and an optional comment remain.
func (sc *lineScanner) atEnd() bool {
	sc.skipBlanks()
	return sc.pos == len(sc.s) || sc.s[sc.pos] == '#'
}

func (sc *lineScanner) rest() string {
	return sc.s[sc.pos:]
}

// word returns the next run of letters, possibly empty.
func (sc *lineScanner) word() string {
	sc.skipBlanks()
	start := sc.pos
	for sc.pos < len(sc.s) && isLetter(sc.s[sc.pos]) {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

// number returns the next unsigned decimal operand.
func (sc *lineScanner) number() (int64, error) {
	sc.skipBlanks()
	start := sc.pos
	for sc.pos < len(sc.s) && isDigit(sc.s[sc.pos]) {
		sc.pos++
	}
	digits := sc.s[start:sc.pos]
	if digits == "" {
		return 0, &ParseError{Err: ErrMalformed, Detail: "expected unsigned number"}
	}
	if len(digits) > maxDigits {
		return 0, &ParseError{Err: ErrOutOfRange, Detail: fmt.Sprintf("%s has more than %d digits", digits, maxDigits)}
	}
	var n int64
	for i := 0; i < len(digits); i++ {
		n = n*10 + int64(digits[i]-'0')
	}
	return n, nil
}

// quantity parses a number followed by one of units and returns the scaled
// value.
func (sc *lineScanner) quantity(units []unit, kind string) (int64, error) {
	n, err := sc.number()
	if err != nil {
		return 0, err
	}
	name := sc.word()
	if name == "" {
		return 0, &ParseError{Err: ErrMalformed, Detail: "expected " + kind + " unit"}
	}
	scale, ok := lookupUnit(units, name)
	if !ok {
		return 0, &ParseError{Err: ErrInvalidUnit, Detail: fmt.Sprintf("invalid %s multiplier '%s'", kind, name)}
	}
	return n * scale, nil
}

// identifier parses a single lowercase letter and returns its index.
func (sc *lineScanner) identifier(kind string) (int, error) {
	name := sc.word()
	if name == "" {
		return 0, &ParseError{Err: ErrMalformed, Detail: "expected " + kind + " name"}
	}
	if len(name) != 1 || name[0] < 'a' || name[0] > 'z' {
		return 0, &ParseError{Err: ErrInvalidIdentifier, Detail: fmt.Sprintf("invalid %s name '%s'", kind, name)}
	}
	return int(name[0] - 'a'), nil
}
