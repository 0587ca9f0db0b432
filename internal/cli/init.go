package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample hto configuration file",
		Long:  "Scaffold a commented hto.config.yaml that documents every generate option.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force})
		},
	}

	cmd.Flags().String("out", "hto.config.yaml", "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(_ context.Context, cfg *InitConfig) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "hto.config.yaml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return usagef("init: %q already exists (use --force to overwrite)", absPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return usagef("init: cannot create parent directory: %v", err)
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return usagef("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return usagef("init: cannot place file at %s: %v", absPath, err)
	}
	logger.Verbose(fmt.Sprintf("init: %d bytes", len(content)))
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every generate option. Uncommenting title and
// appFile yields a working config.
const sampleConfigYAML = `# hto configuration (YAML)
# Command-line flags override config values. Relative paths resolve against
# the directory of this file.

# Document title (required).
# title: My API

# OpenAPI version to emit: 3.0 or 3.1. Defaults to 3.1.
# openapi: "3.1"

# Document description.
# description: ""

# Document version. Defaults to 1.0.0.
# version: 1.0.0

# Type graph file declaring the route table type (required).
# appFile: ./types.yaml

# Name of the route table type. Defaults to AppType.
# appType: AppType

# Output file, or - for stdout. Defaults to swagger.json.
# output: ./swagger.json

# Output format: json or yaml. Derived from the output extension when omitted.
# format: json

# Validate the generated document (OpenAPI 3.0 only).
# validate: false

# Only emit these HTTP methods (comma-separated or list).
# methods: [get, post]

# Only emit paths matching any of these regular expressions.
# pathPatterns: ["^/api/"]

# Preview the planned output without writing it.
# dryRun: false

# Enable verbose logging.
# verbose: false
`
