package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/tgen/tgen"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format: %s (want text, json or yaml)", s)
}

// StepData is one compiled step in a script listing.
type StepData struct {
	Index  int      `json:"index" yaml:"index"`
	Op     string   `json:"op" yaml:"op"`
	Text   string   `json:"text" yaml:"text"`
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ScriptData is the structured form of a compiled script.
type ScriptData struct {
	Steps    []StepData     `json:"steps" yaml:"steps"`
	Labels   map[string]int `json:"labels,omitempty" yaml:"labels,omitempty"`
	Capacity int            `json:"capacity" yaml:"capacity"`
}

// NewScriptData builds the listing of a compiled script.
func NewScriptData(s *tgen.Script) *ScriptData {
	labels := s.Labels()
	byIndex := make(map[int][]string, len(labels))
	names := make(map[string]int, len(labels))
	for id, index := range labels {
		byIndex[index] = append(byIndex[index], string(id))
		names[string(id)] = index
	}
	for _, l := range byIndex {
		sort.Strings(l)
	}

	data := &ScriptData{
		Steps:    make([]StepData, 0, s.Len()),
		Labels:   names,
		Capacity: s.Cap(),
	}
	for i, step := range s.Steps() {
		data.Steps = append(data.Steps, StepData{
			Index:  i,
			Op:     step.Op.String(),
			Text:   step.String(),
			Labels: byIndex[i],
		})
	}
	return data
}

// FormatScript renders a compiled script in the requested format.
func FormatScript(s *tgen.Script, format OutputFormat, scheme *ColorScheme) (string, error) {
	data := NewScriptData(s)

	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode script: %w", err)
		}
		return string(out) + "\n", nil
	case FormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("failed to encode script: %w", err)
		}
		return string(out), nil
	default:
		return formatScriptText(data, s.Len(), scheme), nil
	}
}

func formatScriptText(data *ScriptData, length int, scheme *ColorScheme) string {
	if scheme == nil {
		scheme = NoColorScheme()
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Script: %d steps (capacity %d)\n", len(data.Steps), data.Capacity))

	for _, step := range data.Steps {
		buf.WriteString(fmt.Sprintf("  %4d  %-6s %s\n",
			step.Index,
			labelColumn(step.Labels, scheme),
			colorStep(step.Text, scheme)))
	}

	// Labels bound after the last step jump to the end of the script.
	var trailing []string
	for name, index := range data.Labels {
		if index == length {
			trailing = append(trailing, name)
		}
	}
	if len(trailing) > 0 {
		sort.Strings(trailing)
		buf.WriteString(fmt.Sprintf("  %4d  %-6s %s\n", length, labelColumn(trailing, scheme), scheme.Dim.Sprint("(end)")))
	}

	return buf.String()
}

func labelColumn(labels []string, scheme *ColorScheme) string {
	if len(labels) == 0 {
		return ""
	}
	return scheme.Label.Sprint(strings.Join(labels, ",") + ":")
}

// colorStep highlights the keyword and numbers of a step line.
func colorStep(text string, scheme *ColorScheme) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}
	fields[0] = scheme.Keyword.Sprint(fields[0])
	for i := 1; i < len(fields); i++ {
		if fields[i][0] >= '0' && fields[i][0] <= '9' {
			fields[i] = scheme.Number.Sprint(fields[i])
		}
	}
	return strings.Join(fields, " ")
}
