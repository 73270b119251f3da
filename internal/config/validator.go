package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wesleyorama2/tgen/internal/logs"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the semantic rules the schema cannot express. It is
// called after command-line overrides have been merged.
//
// Returns nil if valid, or a *ValidationErrors containing all errors.
func (c *RunConfig) Validate() error {
	errs := &ValidationErrors{}

	if c.Script != "" && c.ScriptFile != "" {
		errs.Add("script", "script and scriptFile are mutually exclusive")
	}
	if c.Capacity < 0 {
		errs.Add("capacity", fmt.Sprintf("must be positive, got %d", c.Capacity))
	}

	validateTarget(c.Target, errs)

	for _, name := range SortedVariables(c.Variables) {
		if !isRegisterName(name) {
			errs.Add("variables."+name, "variable names must be a single letter a-z")
		}
	}

	if c.Log.Level != "" {
		if _, err := logs.ParseLevel(c.Log.Level); err != nil {
			errs.Add("log.level", err.Error())
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateTarget(target string, errs *ValidationErrors) {
	if target == "" {
		return
	}
	u, err := url.Parse(target)
	if err != nil {
		errs.Add("target", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	switch strings.ToLower(u.Scheme) {
	case "discard":
	case "udp", "tcp":
		if u.Port() == "" {
			errs.Add("target", fmt.Sprintf("%s target needs host:port", u.Scheme))
		}
	case "ws", "wss":
		if u.Host == "" {
			errs.Add("target", "websocket target needs a host")
		}
	default:
		errs.Add("target", fmt.Sprintf("unsupported scheme %q (want discard, udp, tcp, ws or wss)", u.Scheme))
	}
}
