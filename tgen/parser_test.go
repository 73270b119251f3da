package tgen

import (
	"errors"
	"testing"
)

func TestParseStep_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Step
	}{
		{
			name:     "sendt with spaced units",
			input:    "sendt 100 bytes 10 kpersec 2 sec",
			expected: Step{Op: OpSendTimed, Length: 100, Rate: 10000, Duration: 2000000},
		},
		{
			name:     "sendt with adjacent units",
			input:    "sendt 1kbytes 5persec 10msec",
			expected: Step{Op: OpSendTimed, Length: 1000, Rate: 5, Duration: 10000},
		},
		{
			name:     "sendc with comment and padding",
			input:    "  sendc 5 mbytes 1 mpersec 3 kmsgs  # bulk",
			expected: Step{Op: OpSendCount, Length: 5000000, Rate: 1000000, Count: 3000},
		},
		{
			name:     "sendc mmsgs",
			input:    "sendc 64 bytes 999999999 persec 2 mmsgs",
			expected: Step{Op: OpSendCount, Length: 64, Rate: 999999999, Count: 2000000},
		},
		{
			name:     "stop",
			input:    "stop",
			expected: Step{Op: OpStop},
		},
		{
			name:     "repl with tab",
			input:    "\trepl\t",
			expected: Step{Op: OpRepl},
		},
		{
			name:     "set",
			input:    "set z 42",
			expected: Step{Op: OpSet, Var: 25, Value: 42},
		},
		{
			name:     "loop label then variable",
			input:    "loop x a",
			expected: Step{Op: OpLoop, Label: 23, Var: 0},
		},
		{
			name:     "label",
			input:    "label q # top of loop",
			expected: Step{Op: OpLabel, Label: 16},
		},
		{
			name:     "delay",
			input:    "delay 5 msec",
			expected: Step{Op: OpDelay, Duration: 5000},
		},
		{
			name:     "carriage return",
			input:    "delay 1 sec\r",
			expected: Step{Op: OpDelay, Duration: 1000000},
		},
		{name: "empty line", input: "", expected: Step{}},
		{name: "blank line", input: "   \t ", expected: Step{}},
		{name: "comment", input: "# nothing here", expected: Step{}},
		{name: "indented comment", input: "   #sendt 1 bytes", expected: Step{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStep(tt.input)
			if err != nil {
				t.Fatalf("ParseStep(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseStep(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseStep_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		config  bool
	}{
		{"unknown keyword", "bogus_instruction", ErrUnrecognized, false},
		{"keyword is case sensitive", "SENDT 1 bytes 1 persec 1 sec", ErrUnrecognized, false},
		{"keyword must be whole word", "stopx", ErrUnrecognized, false},
		{"number first", "10 bytes", ErrUnrecognized, false},
		{"missing operand", "sendt 100 bytes 10 kpersec", ErrMalformed, false},
		{"missing unit", "delay 10", ErrMalformed, false},
		{"negative value", "set a -1", ErrMalformed, false},
		{"loop missing variable", "loop x", ErrMalformed, false},
		{"trailing word", "stop now", ErrTrailingInput, false},
		{"trailing number", "sendt 1 bytes 1 persec 1 sec 5", ErrTrailingInput, false},
		{"bad byte unit", "sendt 100 byts 10 persec 1 sec", ErrInvalidUnit, true},
		{"duration unit in count slot", "sendc 1 bytes 1 persec 1 sec", ErrInvalidUnit, true},
		{"count unit in duration slot", "sendt 1 bytes 1 persec 1 msgs", ErrInvalidUnit, true},
		{"uppercase variable", "set A 5", ErrInvalidIdentifier, true},
		{"long variable", "set ab 5", ErrInvalidIdentifier, true},
		{"long label", "label top", ErrInvalidIdentifier, true},
		{"too many digits", "delay 1234567890 usec", ErrOutOfRange, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStep(tt.input)
			if err == nil {
				t.Fatalf("ParseStep(%q) expected error", tt.input)
			}

			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("ParseStep(%q) error type = %T, want *ParseError", tt.input, err)
			}
			if perr.Input != tt.input {
				t.Errorf("ParseError.Input = %q, want %q", perr.Input, tt.input)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseStep(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if IsConfigurationError(err) != tt.config {
				t.Errorf("IsConfigurationError(%v) = %v, want %v", err, !tt.config, tt.config)
			}
		})
	}
}

func TestStep_StringRoundTrip(t *testing.T) {
	lines := []string{
		"sendt 1 bytes 1 persec 1 usec",
		"sendt 1500 bytes 20 kpersec 3 sec",
		"sendt 999999999 mbytes 999999999 mpersec 999999999 sec",
		"sendt 0 bytes 0 persec 0 usec",
		"sendt 2000 kbytes 1000 persec 1500 msec",
		"sendc 64 kbytes 3 mpersec 7 kmsgs",
		"set m 12",
		"loop b c",
		"label r",
		"delay 250 msec",
		"stop",
		"repl",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			step, err := ParseStep(line)
			if err != nil {
				t.Fatalf("ParseStep(%q) error = %v", line, err)
			}
			again, err := ParseStep(step.String())
			if err != nil {
				t.Fatalf("ParseStep(%q) error = %v", step.String(), err)
			}
			if again != step {
				t.Errorf("round trip %q -> %q gave %+v, want %+v", line, step.String(), again, step)
			}
		})
	}
}

func TestStep_String(t *testing.T) {
	tests := []struct {
		step     Step
		expected string
	}{
		{Step{Op: OpSendTimed, Length: 1000, Rate: 5000, Duration: 2000000}, "sendt 1 kbytes 5 kpersec 2 sec"},
		{Step{Op: OpSendCount, Length: 1500, Rate: 1, Count: 1000000}, "sendc 1500 bytes 1 persec 1 mmsgs"},
		{Step{Op: OpDelay, Duration: 0}, "delay 0 usec"},
		{Step{Op: OpLoop, Label: 0, Var: 25}, "loop a z"},
		{Step{}, ""},
	}

	for _, tt := range tests {
		if got := tt.step.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestIndexAndLetter(t *testing.T) {
	for i := 0; i < NumRegisters; i++ {
		got, err := Index(Letter(i))
		if err != nil || got != i {
			t.Errorf("Index(Letter(%d)) = %d, %v", i, got, err)
		}
	}
	for _, id := range []byte{'A', '0', '{', '`'} {
		if _, err := Index(id); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("Index(%q) error = %v, want ErrInvalidIdentifier", id, err)
		}
	}
}
