package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/tgen/internal/config"
)

// loadRunConfig loads the configuration file named by --config, if any, and
// applies command-line overrides on top of it.
func loadRunConfig(cmd *cobra.Command, args []string) (*config.RunConfig, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config")

	cfg := &config.RunConfig{}
	if configFile != "" {
		loaded, err := config.LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		// Command-line paths are relative to the working directory, not
		// to the configuration file.
		path, err := filepath.Abs(args[0])
		if err != nil {
			return nil, fmt.Errorf("resolving script path: %w", err)
		}
		cfg.ScriptFile = path
		cfg.Script = ""
	}
	if flags.Changed("script") {
		cfg.Script, _ = flags.GetString("script")
		cfg.ScriptFile = ""
	}
	if flags.Changed("capacity") {
		cfg.Capacity, _ = flags.GetInt("capacity")
	}

	// The remaining overrides only exist on the run command.
	if f := flags.Lookup("target"); f != nil && f.Changed {
		cfg.Target = f.Value.String()
	}
	if flags.Changed("repl") {
		cfg.Repl, _ = flags.GetBool("repl")
	}
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("json") {
		cfg.Report.JSON, _ = flags.GetString("json")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.Log.File, _ = flags.GetString("log-file")
	}
	if flags.Changed("name") {
		cfg.Name, _ = flags.GetString("name")
	}
	if flags.Lookup("var") != nil {
		assignments, _ := flags.GetStringArray("var")
		overrides := make(map[string]int, len(assignments))
		for _, a := range assignments {
			name, value, err := config.ParseVariable(a)
			if err != nil {
				return nil, err
			}
			overrides[name] = value
		}
		cfg.Variables = config.MergeVariables(cfg.Variables, overrides)
	}

	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
