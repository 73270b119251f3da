package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/tgen/internal/metrics"
	"github.com/wesleyorama2/tgen/tgen/rate"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := metrics.NewRecorder()
	rec.RecordSend(time.Microsecond, 100, nil)
	rec.RecordSend(time.Microsecond, 100, nil)

	r := New("burst", "udp://127.0.0.1:9000", start)
	r.Metrics = rec.Snapshot()
	r.Pacer = rate.Stats{TotalSent: 2, MaxBurst: 1}
	r.Steps = []string{"set a 1", "sendc 100 bytes 1 kpersec 2 msgs"}
	r.Labels = map[string]int{"x": 1}
	r.Variables = map[string]int{"a": 0}
	r.Finish(start.Add(1500*time.Millisecond), false, nil)
	return r
}

func TestNew_RunID(t *testing.T) {
	a := New("a", "discard://", time.Now())
	b := New("b", "discard://", time.Now())

	_, err := uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, StatusCompleted, a.Status)
}

func TestFinish(t *testing.T) {
	start := time.Now()
	tests := []struct {
		name    string
		stopped bool
		err     error
		status  string
	}{
		{"completed", false, nil, StatusCompleted},
		{"stopped", true, nil, StatusStopped},
		{"failed", true, errors.New("undefined label"), StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("x", "discard://", start)
			r.Finish(start.Add(time.Second), tt.stopped, tt.err)
			assert.Equal(t, tt.status, r.Status)
			assert.Equal(t, time.Second, r.Duration)
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), r.Error)
			}
		})
	}
}

func TestWriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r := sampleReport(t)
	require.NoError(t, r.Write(path))

	loaded, data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, loaded.RunID)
	assert.Equal(t, r.Steps, loaded.Steps)
	assert.Equal(t, int64(2), loaded.Metrics.TotalSends)
	assert.Equal(t, 1500*time.Millisecond, loaded.Duration)

	assert.Equal(t, "burst", gjson.GetBytes(data, "name").String())
	assert.Equal(t, int64(200), gjson.GetBytes(data, "metrics.totalBytes").Int())
	assert.Equal(t, int64(2), gjson.GetBytes(data, "steps.#").Int())
	assert.Equal(t, "completed", gjson.GetBytes(data, "status").String())
	assert.False(t, gjson.GetBytes(data, "error").Exists(), "error is omitted on success")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read report file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, _, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse report")

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`{"runId": "nope"}`), 0644))
	_, _, err = Load(noID)
	assert.ErrorContains(t, err, "invalid report run ID")
}

func TestField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, sampleReport(t).Write(path))
	_, data, err := Load(path)
	require.NoError(t, err)

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"name", "burst", false},
		{"metrics.totalSends", "2", false},
		{"$.steps[1]", "sendc 100 bytes 1 kpersec 2 msgs", false},
		{"$['labels']['x']", "1", false},
		{"pacer.maxBurst", "1", false},
		{"steps.#", "2", false},
		{"metrics.nope", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Field(data, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToGjsonPath(t *testing.T) {
	tests := map[string]string{
		"$":                  "@this",
		"$.name":             "name",
		"$.steps[0]":         "steps.0",
		"$['labels']['x']":   "labels.x",
		`$["variables"].a`:   "variables.a",
		"metrics.totalSends": "metrics.totalSends",
	}
	for in, want := range tests {
		assert.Equal(t, want, toGjsonPath(in), in)
	}
}
