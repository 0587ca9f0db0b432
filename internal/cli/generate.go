package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/untillpro/goutils/logger"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/hto/internal/analyzer"
	"github.com/mark3labs/hto/internal/emitter"
	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typegraph"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Title        string
	OpenAPI      string
	Description  string
	Version      string
	AppFile      string
	AppType      string
	Output       string
	Format       string
	Methods      []string
	PathPatterns []string
	ConfigPath   string
	Validate     bool
	DryRun       bool
	Verbose      bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		OpenAPI: "3.1",
		Version: "1.0.0",
		AppType: "AppType",
		Output:  "swagger.json",
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an OpenAPI document from a route table type",
		Long: "Generate an OpenAPI document from the route table type declared in a type graph file. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  hto generate --title "Users API" --app-file types.yaml --output swagger.json
  hto --config hto.config.yaml generate --openapi 3.0 --validate --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}
	addGenerateFlags(cmd.Flags())
	return cmd
}

func addGenerateFlags(flags *pflag.FlagSet) {
	flags.StringP("title", "t", "", "Document title (info.title)")
	flags.StringP("openapi", "o", "", "OpenAPI version to emit (3.0|3.1); defaults to 3.1")
	flags.StringP("description", "d", "", "Document description (info.description)")
	flags.String("api-version", "", "Document version (info.version); defaults to 1.0.0")
	flags.StringP("app-file", "a", "", "Type graph file declaring the route table type")
	flags.StringP("app-type", "n", "", "Name of the route table type; defaults to AppType")
	flags.StringP("output", "s", "", "Output file, or - for stdout; defaults to swagger.json")
	flags.String("format", "", "Output format (json|yaml); derived from the output extension when omitted")
	flags.Bool("validate", false, "Validate the generated document (OpenAPI 3.0 only)")
	flags.Bool("dry-run", false, "Preview the planned output without writing it")
	flags.StringSlice("method", nil, "Only emit these HTTP methods (repeatable)")
	flags.StringArray("path-pattern", nil, "Only emit paths matching this regular expression (repeatable)")
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("generate: working directory: %w", err)
		}
		if configPath, err = discoverConfig(wd); err != nil {
			return nil, fmt.Errorf("generate: discover config: %w", err)
		}
	}
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
		logger.Verbose("using config file " + configPath)
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Verbose {
		setVerbose(true)
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"title", &cfg.Title},
		{"openapi", &cfg.OpenAPI},
		{"description", &cfg.Description},
		{"api-version", &cfg.Version},
		{"app-file", &cfg.AppFile},
		{"app-type", &cfg.AppType},
		{"output", &cfg.Output},
		{"format", &cfg.Format},
	}
	for _, s := range strs {
		if !flags.Changed(s.name) {
			continue
		}
		value, err := flags.GetString(s.name)
		if err != nil {
			return err
		}
		*s.dst = strings.TrimSpace(value)
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"validate", &cfg.Validate},
		{"dry-run", &cfg.DryRun},
		{"verbose", &cfg.Verbose},
	}
	for _, b := range bools {
		if !flags.Changed(b.name) {
			continue
		}
		value, err := flags.GetBool(b.name)
		if err != nil {
			return err
		}
		*b.dst = value
	}

	if flags.Changed("method") {
		value, err := flags.GetStringSlice("method")
		if err != nil {
			return err
		}
		cfg.Methods = sanitizeList(value)
	}
	if flags.Changed("path-pattern") {
		value, err := flags.GetStringArray("path-pattern")
		if err != nil {
			return err
		}
		cfg.PathPatterns = sanitizeList(value)
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.OpenAPI = strings.TrimSpace(c.OpenAPI)
	c.Description = strings.TrimSpace(c.Description)
	c.Version = strings.TrimSpace(c.Version)
	c.AppFile = strings.TrimSpace(c.AppFile)
	c.AppType = strings.TrimSpace(c.AppType)
	c.Output = strings.TrimSpace(c.Output)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	methods := make([]string, 0, len(c.Methods))
	for _, m := range c.Methods {
		methods = append(methods, strings.ToLower(m))
	}
	c.Methods = sanitizeList(methods)
	c.PathPatterns = sanitizeList(c.PathPatterns)
}

func (c *GenerateConfig) validate() error {
	if c.Title == "" {
		return newUsageError("generate: --title is required (set via flag or config file)")
	}
	if c.AppFile == "" {
		return newUsageError("generate: --app-file is required (set via flag or config file)")
	}
	if c.AppType == "" {
		c.AppType = "AppType"
	}
	if c.Output == "" {
		c.Output = "swagger.json"
	}

	switch c.OpenAPI {
	case "", "3.1":
		c.OpenAPI = "3.1"
	case "3.0":
	default:
		return usagef("generate: unsupported --openapi %q (allowed: 3.0, 3.1)", c.OpenAPI)
	}

	if _, err := emitter.ResolveFormat(c.Output, c.Format); err != nil {
		return usagef("generate: unsupported --format %q (allowed: json, yaml)", c.Format)
	}

	if c.Validate && c.OpenAPI != "3.0" {
		return newUsageError("generate: --validate requires --openapi 3.0")
	}

	if _, err := c.analyzerOptions(); err != nil {
		return newUsageError(err.Error())
	}

	return nil
}

// analyzerOptions converts the config into engine options, compiling the
// method and path filters.
func (c *GenerateConfig) analyzerOptions() (analyzer.Options, error) {
	opts := analyzer.Options{
		Title:       c.Title,
		OpenAPI:     c.OpenAPI,
		Description: c.Description,
		Version:     c.Version,
	}
	for _, raw := range c.Methods {
		m, ok := spec.ParseHttpMethod(raw)
		if !ok {
			allowed := make([]string, 0, len(spec.HttpMethods))
			for _, hm := range spec.HttpMethods {
				allowed = append(allowed, string(hm))
			}
			return opts, fmt.Errorf("generate: unsupported --method %q (allowed: %s)", raw, strings.Join(allowed, ", "))
		}
		opts.Methods = append(opts.Methods, m)
	}
	for _, raw := range c.PathPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return opts, fmt.Errorf("generate: invalid --path-pattern %q: %v", raw, err)
		}
		opts.PathPatterns = append(opts.PathPatterns, re)
	}
	return opts, nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	res, err := generate(ctx, cfg)
	if err != nil {
		return err
	}
	report(cfg, res)
	return nil
}

// generate runs the whole pipeline once: load the type graph, analyze the
// route table, optionally validate, and emit.
func generate(ctx context.Context, cfg *GenerateConfig) (*emitter.Result, error) {
	opts, err := cfg.analyzerOptions()
	if err != nil {
		return nil, newUsageError(err.Error())
	}

	// 1) Load the type graph
	logger.Verbose("loading type graph " + cfg.AppFile)
	program, err := typegraph.Load(cfg.AppFile)
	if err != nil {
		return nil, specUsageError(err)
	}
	route, ok := program.Lookup(cfg.AppType)
	if !ok {
		return nil, usagef("generate: type %q not found in %s", cfg.AppType, program.Source())
	}

	// 2) Analyze the route table
	doc, err := analyzer.Analyze(program, route, opts)
	if err != nil {
		return nil, specUsageError(err)
	}
	logger.Verbose(fmt.Sprintf("analyzed %d paths and %d component schemas", len(doc.Paths), len(doc.Components.Schemas)))

	// 3) Validate when asked
	if cfg.Validate {
		if err := spec.Validate(ctx, doc); err != nil {
			return nil, specUsageError(err)
		}
		logger.Verbose("document is valid")
	}

	// 4) Emit
	format, err := emitter.ResolveFormat(cfg.Output, cfg.Format)
	if err != nil {
		return nil, newUsageError(err.Error())
	}
	res, err := emitter.Emit(ctx, doc, emitter.Options{
		OutPath: cfg.Output,
		Format:  format,
		Compact: cfg.Output == emitter.Stdout && !isTerminal(os.Stdout),
		DryRun:  cfg.DryRun,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, wrapOutputError(err, cfg.Output)
	}
	return res, nil
}

func report(cfg *GenerateConfig, res *emitter.Result) {
	switch {
	case cfg.DryRun:
		printPlan(res.Planned)
	case res.Planned.Path != emitter.Stdout:
		fmt.Fprintf(os.Stdout, "Wrote %s (%d bytes)\n", res.Planned.Path, res.Planned.Size)
	}
}

func printPlan(p emitter.PlannedFile) {
	path := p.Path
	if path != emitter.Stdout {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	fmt.Fprintf(os.Stdout, "Planned writes to %s (1 files):\n", filepath.Dir(path))
	fmt.Fprintf(os.Stdout, "- %s (%d bytes, mode %s)\n", filepath.Base(path), p.Size, p.Mode)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// specUsageError turns structured engine and loader errors into friendly
// messages that keep their location and pointer lines.
func specUsageError(err error) error {
	code := spec.CodeOf(err)
	if code == "" {
		return err
	}
	return usagef("%s: %s", code, spec.Describe(err))
}

func wrapOutputError(err error, out string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "create temp") {
		return usagef("output error for %s: %s\nHint: choose a different --output.", out, msg)
	}
	return err
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
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

// applyGenerateConfigFromFile merges a YAML or JSON config file into cfg.
// Scalars are read from the node tree so that values such as openapi: 3.0
// keep their spelling. Relative appFile and output paths resolve against the
// config file's directory.
func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usagef("read config file %q: %v", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return usagef("parse config file %q: %v", path, err)
	}
	if len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return usagef("parse config file %q: expected a mapping at the top level", path)
	}

	baseDir := filepath.Dir(path)
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	resolve := func(p string) string {
		if p == "" || p == emitter.Stdout || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		value := doc.Content[i+1]
		fieldErr := func(err error) error {
			return usagef("config field %q: %v", key, err)
		}

		var err error
		switch normalizeKey(key) {
		case "title":
			cfg.Title, err = valueAsString(value)
		case "openapi":
			cfg.OpenAPI, err = valueAsString(value)
		case "description":
			cfg.Description, err = valueAsString(value)
		case "version", "apiversion":
			cfg.Version, err = valueAsString(value)
		case "appfile":
			var s string
			s, err = valueAsString(value)
			cfg.AppFile = resolve(s)
		case "apptype":
			cfg.AppType, err = valueAsString(value)
		case "output":
			var s string
			s, err = valueAsString(value)
			cfg.Output = resolve(s)
		case "format":
			cfg.Format, err = valueAsString(value)
		case "methods", "method":
			var list []string
			list, err = valueAsStringSlice(value)
			cfg.Methods = sanitizeList(list)
		case "pathpatterns", "pathpattern":
			// Patterns may contain commas, so a scalar is one pattern.
			var list []string
			if value.Kind == yaml.ScalarNode {
				var s string
				s, err = valueAsString(value)
				list = []string{s}
			} else {
				list, err = valueAsStringSlice(value)
			}
			cfg.PathPatterns = sanitizeList(list)
		case "validate":
			cfg.Validate, err = valueAsBool(value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(value)
		case "verbose":
			cfg.Verbose, err = valueAsBool(value)
		default:
			return usagef("config file %q: unknown field %q", path, key)
		}
		if err != nil {
			return fieldErr(err)
		}
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func valueAsString(n *yaml.Node) (string, error) {
	switch {
	case isNull(n):
		return "", nil
	case n.Kind == yaml.ScalarNode:
		return strings.TrimSpace(n.Value), nil
	default:
		return "", fmt.Errorf("expected string, got %s", nodeKind(n))
	}
}

func valueAsStringSlice(n *yaml.Node) ([]string, error) {
	switch {
	case isNull(n):
		return nil, nil
	case n.Kind == yaml.ScalarNode:
		if strings.TrimSpace(n.Value) == "" {
			return nil, nil
		}
		return splitAndTrim(n.Value), nil
	case n.Kind == yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for idx, elem := range n.Content {
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
		return nil, fmt.Errorf("expected string or list, got %s", nodeKind(n))
	}
}

func valueAsBool(n *yaml.Node) (bool, error) {
	if isNull(n) {
		return false, nil
	}
	if n.Kind != yaml.ScalarNode {
		return false, fmt.Errorf("expected boolean, got %s", nodeKind(n))
	}
	switch strings.ToLower(strings.TrimSpace(n.Value)) {
	case "true", "t", "1", "yes", "y":
		return true, nil
	case "false", "f", "0", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", n.Value)
	}
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.AliasNode:
		return "alias"
	}
	return "scalar"
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
