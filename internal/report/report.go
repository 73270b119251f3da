// Package report writes and reads the JSON record of a traffic generator run.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/tgen/internal/metrics"
	"github.com/wesleyorama2/tgen/tgen/rate"
)

// Run status values.
const (
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
	StatusFailed    = "failed"
)

// Report is the saved record of one run.
type Report struct {
	RunID     string            `json:"runId"`
	Name      string            `json:"name"`
	Target    string            `json:"target"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	DryRun    bool              `json:"dryRun,omitempty"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Duration  time.Duration     `json:"duration"`
	Metrics   *metrics.Snapshot `json:"metrics,omitempty"`
	Pacer     rate.Stats        `json:"pacer"`
	Steps     []string          `json:"steps"`
	Labels    map[string]int    `json:"labels,omitempty"`
	Variables map[string]int    `json:"variables,omitempty"`
}

// New creates a report with a fresh run ID.
func New(name, target string, start time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Name:      name,
		Target:    target,
		Status:    StatusCompleted,
		StartTime: start,
	}
}

// Finish records the end of the run and its outcome.
func (r *Report) Finish(end time.Time, stopped bool, err error) {
	r.EndTime = end
	r.Duration = end.Sub(r.StartTime)
	switch {
	case err != nil:
		r.Status = StatusFailed
		r.Error = err.Error()
	case stopped:
		r.Status = StatusStopped
	default:
		r.Status = StatusCompleted
	}
}

// Write saves the report as indented JSON.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// Load reads a saved report.
func Load(path string) (*Report, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if _, err := uuid.Parse(r.RunID); err != nil {
		return nil, nil, fmt.Errorf("invalid report run ID %q: %w", r.RunID, err)
	}
	return &r, data, nil
}

// Field extracts one value from raw report JSON. The path is a gjson path
// ("metrics.totalSends", "steps.#") or a simple JSONPath ("$.steps[0]").
func Field(data []byte, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty field path")
	}

	result := gjson.GetBytes(data, toGjsonPath(path))
	if !result.Exists() {
		return "", fmt.Errorf("field not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// toGjsonPath converts a JSONPath expression to gjson syntax:
// $.steps[0] becomes steps.0. gjson paths pass through unchanged.
func toGjsonPath(path string) string {
	if !strings.HasPrefix(path, "$") {
		return path
	}

	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	path = strings.NewReplacer("['", ".", "']", "", "[\"", ".", "\"]", "").Replace(path)
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	return strings.TrimPrefix(path, ".")
}
