// Package commands implements CLI command handlers for timelens.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timelens/internal/assemble"
	"github.com/Sumatoshi-tech/timelens/internal/config"
	"github.com/Sumatoshi-tech/timelens/internal/extract"
	"github.com/Sumatoshi-tech/timelens/pkg/model"
	"github.com/Sumatoshi-tech/timelens/pkg/observability"
	"github.com/Sumatoshi-tech/timelens/pkg/version"
)

// serviceName identifies this binary in exported telemetry.
const serviceName = "timelens"

// ExtractCommand holds configuration and dependencies for the extract
// command.
type ExtractCommand struct {
	configPath   string
	output       string
	assetsDir    string
	workers      int
	timeout      time.Duration
	logLevel     string
	logJSON      bool
	otlpEndpoint string
	otlpInsecure bool
	environment  string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	ec := &ExtractCommand{}

	cmd := &cobra.Command{
		Use:   "extract [root]",
		Short: "Extract the temporal document from configured repositories",
		Long: "Extract commit history, blame history, and image asset version\n" +
			"trails from the configured repositories into one temporal document.\n" +
			"When no projects are configured, projects/ and external-projects/\n" +
			"under the run root are scanned for tracked files.",
		Args: cobra.MaximumNArgs(1),
		RunE: ec.run,
	}

	cmd.Flags().StringVarP(&ec.configPath, "config", "c", "", "Config file path (default: .timelens.yaml in . or $HOME)")
	cmd.Flags().StringVarP(&ec.output, "output", "o", "", "Output document path (overrides config)")
	cmd.Flags().StringVar(&ec.assetsDir, "assets-dir", "", "Directory for copied image assets (overrides config)")
	cmd.Flags().IntVar(&ec.workers, "workers", 0, "Parallel project workers (overrides config)")
	cmd.Flags().DurationVar(&ec.timeout, "timeout", 0, "Per-project extraction timeout (overrides config)")
	cmd.Flags().StringVar(&ec.logLevel, "log-level", "", "Minimum log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&ec.logJSON, "log-json", false, "Emit logs as JSON")
	cmd.Flags().StringVar(&ec.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for telemetry export (empty = disabled)")
	cmd.Flags().BoolVar(&ec.otlpInsecure, "otlp-insecure", false, "Use plaintext for OTLP export")
	cmd.Flags().StringVar(&ec.environment, "environment", "production", "Deployment environment reported in telemetry")

	return cmd
}

func (ec *ExtractCommand) run(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg, err := config.LoadConfig(ec.configPath)
	if err != nil {
		return err
	}

	ec.applyOverrides(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return err
	}

	if len(cfg.Projects) == 0 {
		cfg.Projects, err = extract.DiscoverProjects(root)
		if err != nil {
			return fmt.Errorf("discover projects under %s: %w", root, err)
		}
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		Environment:    ec.environment,
		OTLPEndpoint:   cfg.OTLP.Endpoint,
		OTLPInsecure:   cfg.OTLP.Insecure,
		LogLevel:       ec.resolveLogLevel(cmd, cfg),
		LogJSON:        cfg.Log.JSON,
		LogOut:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		shutdownErr := providers.Shutdown(ctx)
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	metrics, err := observability.NewExtractionMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	if len(cfg.Projects) == 0 {
		providers.Logger.Warn("no projects configured or discovered", "root", root)
	}

	asm := &assemble.Assembler{
		Config: cfg,
		Extractor: &extract.Extractor{
			Logger:  providers.Logger,
			Tracer:  providers.Tracer,
			Metrics: metrics,
		},
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	}

	startedAt := time.Now()

	result, err := asm.Run(ctx)
	if err != nil {
		return err
	}

	err = asm.Publish(ctx, result)
	if err != nil {
		return err
	}

	providers.Logger.InfoContext(ctx, "temporal document published",
		"output", cfg.Output,
		"projects", len(result.Document.Projects),
		"warnings", len(result.Document.Metadata.Warnings),
		"elapsed", time.Since(startedAt).Round(time.Millisecond).String())

	if !isQuiet(cmd) {
		printSummary(cmd.OutOrStdout(), cfg, result)
	}

	return nil
}

// applyOverrides lets explicit flags win over the config file and env.
func (ec *ExtractCommand) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("output") {
		cfg.Output = ec.output
	}

	if cmd.Flags().Changed("assets-dir") {
		cfg.AssetsDir = ec.assetsDir
	}

	if cmd.Flags().Changed("workers") {
		cfg.Workers = ec.workers
	}

	if cmd.Flags().Changed("timeout") {
		cfg.ProjectTimeout = ec.timeout
	}

	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = ec.logJSON
	}

	if cmd.Flags().Changed("otlp-endpoint") {
		cfg.OTLP.Endpoint = ec.otlpEndpoint
	}

	if cmd.Flags().Changed("otlp-insecure") {
		cfg.OTLP.Insecure = ec.otlpInsecure
	}
}

func (ec *ExtractCommand) resolveLogLevel(cmd *cobra.Command, cfg *config.Config) slog.Level {
	level := cfg.Log.Level
	if cmd.Flags().Changed("log-level") {
		level = ec.logLevel
	}

	if verbose, flagErr := cmd.Flags().GetBool("verbose"); flagErr == nil && verbose {
		level = "debug"
	}

	return observability.ParseLogLevel(level)
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

// printSummary renders the per-project run summary table.
func printSummary(writer io.Writer, cfg *config.Config, result *assemble.RunResult) {
	tw := table.NewWriter()
	tw.SetOutputMirror(writer)
	tw.AppendHeader(table.Row{"Project", "Commits", "Blame Runs", "Images", "Assets"})

	assetBytes := assetBytesByProject(result)

	total := 0
	for _, project := range result.Document.Projects {
		tw.AppendRow(table.Row{
			project.Name,
			len(project.Commits),
			len(project.ClickFile.BlameHistory),
			len(project.ClickFile.Images),
			humanize.Bytes(assetBytes[project.Name]),
		})

		total += len(project.Commits)
	}

	tw.AppendFooter(table.Row{"Total", total, "", "", humanize.Bytes(totalBytes(assetBytes))})
	tw.SetStyle(table.StyleLight)
	tw.Render()

	if len(result.Document.Metadata.Warnings) > 0 {
		fmt.Fprintf(writer, "Warnings: %d (see metadata.warnings in %s)\n",
			len(result.Document.Metadata.Warnings), cfg.Output)
	}
}

// assetBytesByProject sums copied asset sizes per project. Asset
// destinations are prefixed with the project name, so the document
// projects can be matched back to their blobs.
func assetBytesByProject(result *assemble.RunResult) map[string]uint64 {
	sizes := make(map[string]uint64, len(result.Document.Projects))

	for _, project := range result.Document.Projects {
		sizes[project.Name] = projectAssetBytes(project, result.Assets)
	}

	return sizes
}

func projectAssetBytes(project model.Project, assets []extract.AssetBlob) uint64 {
	var sum uint64

	for _, image := range project.ClickFile.Images {
		for _, blob := range assets {
			if blob.Destination == image.Destination {
				sum += uint64(len(blob.Content))

				break
			}
		}
	}

	return sum
}

func totalBytes(sizes map[string]uint64) uint64 {
	var sum uint64
	for _, size := range sizes {
		sum += size
	}

	return sum
}
