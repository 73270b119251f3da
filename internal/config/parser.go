package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTarget is used when neither the file nor the command line names one.
const DefaultTarget = "discard://"

// LoadConfig loads a run configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
//
// A relative scriptFile is resolved against the file's directory.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	config.dir = filepath.Dir(path)
	return config, nil
}

// ParseConfig parses and schema-checks configuration data.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension.
func ParseConfig(data []byte, path string) (*RunConfig, error) {
	var (
		config RunConfig
		doc    any
	)

	ext := strings.ToLower(filepath.Ext(path))
	isJSON := ext == ".json"
	if isJSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// An empty document decodes to nil; treat it as an empty object.
	if doc == nil {
		doc = map[string]any{}
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if isJSON {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(config *RunConfig) {
	if config.Target == "" {
		config.Target = DefaultTarget
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Name == "" {
		config.Name = "tgen"
	}
}

// ScriptText returns the script to compile: the inline script, or the
// contents of ScriptFile.
func (c *RunConfig) ScriptText() (string, error) {
	if c.ScriptFile == "" {
		return c.Script, nil
	}

	path := c.ScriptFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script file: %w", err)
	}
	return string(data), nil
}

// ParseVariable parses a register assignment of the form "a=3".
func ParseVariable(s string) (string, int, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, fmt.Errorf("invalid variable %q: want name=value", s)
	}
	name = strings.TrimSpace(name)
	if !isRegisterName(name) {
		return "", 0, fmt.Errorf("invalid variable %q: name must be a single letter a-z", s)
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", 0, fmt.Errorf("invalid variable %q: %w", s, err)
	}
	return name, v, nil
}

// MergeVariables merges multiple variable maps in order.
// Later maps override earlier ones.
func MergeVariables(maps ...map[string]int) map[string]int {
	result := make(map[string]int)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}

// SortedVariables returns the variable names in alphabetical order.
func SortedVariables(vars map[string]int) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isRegisterName(s string) bool {
	return len(s) == 1 && s[0] >= 'a' && s[0] <= 'z'
}
