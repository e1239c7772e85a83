package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2ts/internal/telemetry"
)

// Version is reported in traces and by --version.
var Version = "dev"

// Execute runs the swagger2ts CLI.
func Execute() error {
	env, err := LoadEnv()
	if err != nil {
		return err
	}
	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint: env.OtelExporterOtlpEndpoint,
		Insecure: env.OtelExporterOtlpInsecure,
		Version:  Version,
	}, newLogger(os.Stderr, env.ParsedLogLevel()))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "swagger2ts",
		Short:         "Generate TypeScript clients from Swagger/OpenAPI specs",
		Long:          "swagger2ts turns Swagger 2.0 and OpenAPI 3.x documents into a TypeScript client: models, services, validation schemas and a request core for fetch, xhr, node or axios.",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	flagErr := func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	}
	cmd.SetFlagErrorFunc(flagErr)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	g := newGenerateCmd()
	g.SetFlagErrorFunc(flagErr)
	cmd.AddCommand(g)

	i := newInitCmd()
	i.SetFlagErrorFunc(flagErr)
	cmd.AddCommand(i)

	return cmd
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
