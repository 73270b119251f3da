// Package config loads and validates tgen run configuration files.
package config

// RunConfig is the root configuration for a traffic generator run.
//
// Example YAML:
//
//	name: burst
//	script: |
//	  set a 3
//	  label x
//	  sendc 100 bytes 10 kpersec 1 kmsgs
//	  loop x a
//	target: udp://127.0.0.1:12000
//	variables:
//	  a: 3
//	report:
//	  json: out.json
type RunConfig struct {
	// Name of the run (for reporting)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Script is the inline script text. Lines may also be separated by ';'.
	Script string `json:"script,omitempty" yaml:"script,omitempty"`

	// ScriptFile is a script path, relative to the configuration file.
	// Mutually exclusive with Script.
	ScriptFile string `json:"scriptFile,omitempty" yaml:"scriptFile,omitempty"`

	// Target is the sink URL messages are written to (default: discard://)
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Capacity is the initial script capacity in steps
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`

	// Repl appends a repl step after the script
	Repl bool `json:"repl,omitempty" yaml:"repl,omitempty"`

	// DryRun logs send steps instead of executing them
	DryRun bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`

	// Variables preset registers before the script starts
	Variables map[string]int `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Report controls the run report
	Report ReportConfig `json:"report,omitempty" yaml:"report,omitempty"`

	// Log controls diagnostic logging
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// dir is the directory of the loaded file, used to resolve ScriptFile
	dir string
}

// ReportConfig defines where the run report is written.
type ReportConfig struct {
	// JSON is the path of the JSON report; empty disables it
	JSON string `json:"json,omitempty" yaml:"json,omitempty"`
}

// LogConfig defines diagnostic logging.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// File additionally receives JSON log records
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Dir returns the directory the configuration was loaded from, or "".
func (c *RunConfig) Dir() string {
	return c.dir
}
