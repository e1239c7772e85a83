package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigName = "swagger2ts.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swagger2ts configuration file",
		Long:  "Scaffold a commented swagger2ts configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(_ context.Context, cfg *InitConfig) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil {
		switch {
		case st.IsDir():
			return newUsageError(fmt.Sprintf("init: %q is a directory", absPath))
		case !cfg.Force:
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	tmp, err := os.CreateTemp(dir, ".swagger2ts-*.yaml")
	if err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, werr := tmp.WriteString(strings.TrimSpace(sampleConfigYAML) + "\n")
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v", werr))
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: %v", err))
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every key accepted by generate --config.
const sampleConfigYAML = `# swagger2ts configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: ./openapi.yaml

# Output directory; index.ts is written here.
# output: ./generated

# Per-category directories. Default to <output>/core, models, schemas, services.
# outputCore: ./generated/core
# outputModels: ./generated/models
# outputSchemas: ./generated/schemas
# outputServices: ./generated/services

# HTTP client for core/request.ts (fetch|xhr|node|axios). Defaults to fetch.
# client: fetch

# Replace the generated core/request.ts with this file.
# request: ./src/custom-request.ts

# Pass operation arguments as a single options object.
# useOptions: false

# Emit string unions instead of enums.
# useUnionTypes: false

# Categories to write. Schemas are off by default.
# exportCore: true
# exportServices: true
# exportModels: true
# exportSchemas: false

# Only include operations with these tags (comma-separated or list).
# includeTags: [public,read]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite non-empty output directory.
# force: false

# Enable verbose logging.
# verbose: false
`
