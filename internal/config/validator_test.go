package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_MinimalValid(t *testing.T) {
	config := &RunConfig{Script: "stop"}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() returned error for valid config: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RunConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:   "udp target",
			config: &RunConfig{Target: "udp://127.0.0.1:9000"},
		},
		{
			name:   "websocket target",
			config: &RunConfig{Target: "wss://example.com/ingest"},
		},
		{
			name:    "udp without port",
			config:  &RunConfig{Target: "udp://127.0.0.1"},
			wantErr: true,
			errMsg:  "host:port",
		},
		{
			name:    "unsupported scheme",
			config:  &RunConfig{Target: "http://example.com"},
			wantErr: true,
			errMsg:  "unsupported scheme",
		},
		{
			name:    "script and file",
			config:  &RunConfig{Script: "stop", ScriptFile: "a.tg"},
			wantErr: true,
			errMsg:  "mutually exclusive",
		},
		{
			name:    "negative capacity",
			config:  &RunConfig{Capacity: -1},
			wantErr: true,
			errMsg:  "capacity",
		},
		{
			name:    "bad variable",
			config:  &RunConfig{Variables: map[string]int{"A": 1}},
			wantErr: true,
			errMsg:  "variables.A",
		},
		{
			name:    "bad log level",
			config:  &RunConfig{Log: LogConfig{Level: "chatty"}},
			wantErr: true,
			errMsg:  "unknown log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Error should contain %q, got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	config := &RunConfig{
		Script:     "stop",
		ScriptFile: "a.tg",
		Target:     "ftp://x",
	}

	err := config.Validate()
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	if len(verrs.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(verrs.Errors), err)
	}
	if !strings.Contains(err.Error(), "2 validation errors") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	if got := (&ValidationError{Field: "target", Message: "bad"}).Error(); got != "validation error on field 'target': bad" {
		t.Errorf("unexpected message: %s", got)
	}
	if got := (&ValidationError{Message: "bad"}).Error(); got != "validation error: bad" {
		t.Errorf("unexpected message: %s", got)
	}
	if got := (&ValidationErrors{}).Error(); got != "no validation errors" {
		t.Errorf("unexpected message: %s", got)
	}
}
