package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2ts/pkg/codegen"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input          string
	Output         string
	OutputCore     string
	OutputModels   string
	OutputSchemas  string
	OutputServices string
	Client         string
	Request        string
	UseOptions     bool
	UseUnionTypes  bool
	ExportCore     bool
	ExportServices bool
	ExportModels   bool
	ExportSchemas  bool
	IncludeTags    []string
	ExcludeTags    []string
	ConfigPath     string
	DryRun         bool
	Force          bool
	Verbose        bool
}

func defaultGenerateConfig() GenerateConfig {
	d := codegen.DefaultOptions()
	return GenerateConfig{
		Client:         string(d.HTTPClient),
		ExportCore:     d.ExportCore,
		ExportServices: d.ExportServices,
		ExportModels:   d.ExportModels,
		ExportSchemas:  d.ExportSchemas,
	}
}

// The tables below are keyed by flag name. Config file keys match them after normalizeKey.

func (c *GenerateConfig) stringFields() map[string]*string {
	return map[string]*string{
		"input":           &c.Input,
		"output":          &c.Output,
		"output-core":     &c.OutputCore,
		"output-models":   &c.OutputModels,
		"output-schemas":  &c.OutputSchemas,
		"output-services": &c.OutputServices,
		"client":          &c.Client,
		"request":         &c.Request,
	}
}

func (c *GenerateConfig) boolFields() map[string]*bool {
	return map[string]*bool{
		"use-options":     &c.UseOptions,
		"use-union-types": &c.UseUnionTypes,
		"export-core":     &c.ExportCore,
		"export-services": &c.ExportServices,
		"export-models":   &c.ExportModels,
		"export-schemas":  &c.ExportSchemas,
		"dry-run":         &c.DryRun,
		"force":           &c.Force,
		"verbose":         &c.Verbose,
	}
}

func (c *GenerateConfig) listFields() map[string]*[]string {
	return map[string]*[]string{
		"include-tags": &c.IncludeTags,
		"exclude-tags": &c.ExcludeTags,
	}
}

// configAliases maps alternative config file keys onto flag names.
var configAliases = map[string]string{
	"out":        "output",
	"httpclient": "client",
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a TypeScript client from an OpenAPI/Swagger document",
		Long: "Generate a TypeScript client from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2ts generate --input spec.yaml --output ./generated
  swagger2ts generate -i https://example.com/openapi.json -o ./api --client axios --use-options
  swagger2ts --config swagger2ts.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	clients := make([]string, 0, len(codegen.HTTPClients()))
	for _, c := range codegen.HTTPClients() {
		clients = append(clients, string(c))
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "Path or URL to the Swagger/OpenAPI document")
	flags.StringP("output", "o", "", "Output directory; holds index.ts")
	flags.String("output-core", "", "Directory for core files (default <output>/core)")
	flags.String("output-models", "", "Directory for models (default <output>/models)")
	flags.String("output-schemas", "", "Directory for schemas (default <output>/schemas)")
	flags.String("output-services", "", "Directory for services (default <output>/services)")
	flags.String("client", "", fmt.Sprintf("HTTP client to generate (%s); defaults to fetch", strings.Join(clients, "|")))
	flags.String("request", "", "Path to a custom request.ts replacing the generated one")
	flags.Bool("use-options", false, "Use a single options object instead of positional arguments")
	flags.Bool("use-union-types", false, "Emit string unions instead of enums")
	flags.Bool("export-core", true, "Write core files")
	flags.Bool("export-services", true, "Write services")
	flags.Bool("export-models", true, "Write models")
	flags.Bool("export-schemas", false, "Write validation schemas")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	for name, target := range cfg.stringFields() {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*target = strings.TrimSpace(value)
	}
	for name, target := range cfg.boolFields() {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*target = value
	}
	for name, target := range cfg.listFields() {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*target = sanitizeTags(value)
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	for _, target := range c.stringFields() {
		*target = strings.TrimSpace(*target)
	}
	c.Client = strings.ToLower(c.Client)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.Output == "" {
		return newUsageError("generate: --output is required (set via flag or config file)")
	}

	if c.Client == "" {
		c.Client = string(codegen.Fetch)
	}
	if !codegen.HTTPClient(c.Client).Valid() {
		allowed := make([]string, 0, 4)
		for _, hc := range codegen.HTTPClients() {
			allowed = append(allowed, string(hc))
		}
		return newUsageError(fmt.Sprintf("generate: unsupported --client %q (allowed: %s)", c.Client, strings.Join(allowed, ", ")))
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	return nil
}

// options translates the merged config and environment into a codegen run.
func (c *GenerateConfig) options(env *Env, logger *slog.Logger) codegen.Options {
	opts := codegen.DefaultOptions()
	opts.Input = c.Input
	opts.Output = c.Output
	opts.OutputCore = c.OutputCore
	opts.OutputModels = c.OutputModels
	opts.OutputSchemas = c.OutputSchemas
	opts.OutputServices = c.OutputServices
	opts.HTTPClient = codegen.HTTPClient(c.Client)
	opts.UseOptions = c.UseOptions
	opts.UseUnionTypes = c.UseUnionTypes
	opts.ExportCore = c.ExportCore
	opts.ExportServices = c.ExportServices
	opts.ExportModels = c.ExportModels
	opts.ExportSchemas = c.ExportSchemas
	opts.Request = c.Request
	opts.IncludeTags = c.IncludeTags
	opts.ExcludeTags = c.ExcludeTags
	opts.Write = !c.DryRun
	opts.Force = c.Force
	opts.HTTPTimeout = env.HTTPTimeout
	opts.MaxRetries = env.MaxRetries
	opts.Logger = logger
	return opts
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	env, err := LoadEnv()
	if err != nil {
		return err
	}
	level := env.ParsedLogLevel()
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(os.Stderr, level)

	// Ensure outDir is absolute only for display; the emitter resolves it on its own.
	absOut := cfg.Output
	if ap, err := filepath.Abs(cfg.Output); err == nil {
		absOut = ap
	}

	res, err := codegen.Generate(ctx, cfg.options(env, logger))
	if err != nil {
		return friendlyError(err, absOut)
	}

	if cfg.DryRun {
		paths := make([]string, 0, len(res.Files))
		for _, f := range res.Files {
			paths = append(paths, f.RelPath)
		}
		printPlan(absOut, len(paths), paths)
	}
	return nil
}

// friendlyError maps structured generation errors into usage errors that still match
// the generrors sentinels.
func friendlyError(err error, outDir string) error {
	var ge *generrors.Error
	if !errors.As(err, &ge) {
		return err
	}
	if ge.Code == generrors.WriteFailure {
		return wrapOutputError(err, outDir)
	}
	msg := fmt.Sprintf("%s: %s", ge.Code, ge.Error())
	if ge.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, ge.Location)
	}
	if ge.Pointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, ge.Pointer)
	}
	if ge.Cause != nil && ge.Message != "" {
		msg = fmt.Sprintf("%s\nCause: %v", msg, ge.Cause)
	}
	return wrapUsageError(msg, err)
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	msg := err.Error()
	var ge *generrors.Error
	if errors.As(err, &ge) {
		if ge.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, ge.Location)
		}
		if ge.Cause != nil {
			msg = fmt.Sprintf("%s\nCause: %v", msg, ge.Cause)
		}
	}
	return wrapUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --output or check directory permissions.", outDir, msg), err)
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	byKey := func(fields []string) map[string]string {
		m := make(map[string]string, len(fields))
		for _, f := range fields {
			m[normalizeKey(f)] = f
		}
		return m
	}
	strs, bools, lists := cfg.stringFields(), cfg.boolFields(), cfg.listFields()
	strKeys := byKey(keys(strs))
	boolKeys := byKey(keys(bools))
	listKeys := byKey(keys(lists))

	for key, value := range raw {
		normalized := normalizeKey(key)
		if alias, ok := configAliases[normalized]; ok {
			normalized = normalizeKey(alias)
		}
		if name, ok := strKeys[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*strs[name] = str
			continue
		}
		if name, ok := boolKeys[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*bools[name] = val
			continue
		}
		if name, ok := listKeys[normalized]; ok {
			list, err := valueAsStringSlice(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*lists[name] = sanitizeTags(list)
			continue
		}
		return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
	}

	return nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
