// Package assemble composes per-project extraction results into the
// final temporal document and publishes it atomically together with the
// resolved image assets.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/timelens/internal/config"
	"github.com/Sumatoshi-tech/timelens/internal/extract"
	"github.com/Sumatoshi-tech/timelens/pkg/model"
	"github.com/Sumatoshi-tech/timelens/pkg/observability"
)

// ErrAllProjectsFailed indicates that not a single configured project
// could be extracted. Partial failure is tolerated; total failure is not.
var ErrAllProjectsFailed = errors.New("all projects failed")

// Assembler drives one extraction run across all configured projects.
type Assembler struct {
	Config    *config.Config
	Extractor *extract.Extractor
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Metrics   *observability.ExtractionMetrics
}

// RunResult is the assembled document plus the asset bytes to publish.
type RunResult struct {
	Document *model.Document
	Assets   []extract.AssetBlob
}

type projectOutcome struct {
	result *extract.ProjectResult
	err    error
}

// Run extracts every configured project through a bounded worker pool
// and merges the results in configuration order, so document layout
// never depends on scheduling. Per-project failures become metadata
// warnings; a blame invariant violation aborts the run, and a run where
// every project failed returns ErrAllProjectsFailed.
func (a *Assembler) Run(ctx context.Context) (*RunResult, error) {
	ctx, span := a.Tracer.Start(ctx, "assemble.run")
	defer span.End()

	projects := a.Config.Projects
	outcomes := make([]projectOutcome, len(projects))

	a.runPool(ctx, projects, outcomes)

	document := &model.Document{
		Projects: make([]model.Project, 0, len(projects)),
		Metadata: model.Metadata{
			GeneratedAt: time.Now().UTC(),
			Version:     model.SchemaVersion,
		},
	}

	var assets []extract.AssetBlob

	failed := 0

	for i, outcome := range outcomes {
		name := projects[i].Name

		if outcome.err != nil {
			if errors.Is(outcome.err, extract.ErrBlameInvariant) {
				return nil, outcome.err
			}

			failed++

			warning := fmt.Sprintf("project %s: %v", name, outcome.err)
			document.Metadata.Warnings = append(document.Metadata.Warnings, warning)

			a.Metrics.RecordProject(ctx, name, observability.StatusError)
			a.Logger.WarnContext(ctx, "project extraction failed", "project", name, "error", outcome.err)

			continue
		}

		document.Projects = append(document.Projects, outcome.result.Project)
		assets = append(assets, outcome.result.Assets...)

		for _, warning := range outcome.result.Warnings {
			document.Metadata.Warnings = append(document.Metadata.Warnings,
				fmt.Sprintf("project %s: %s", name, warning))
		}

		a.Metrics.RecordProject(ctx, name, observability.StatusOK)
		a.Metrics.AddWarnings(ctx, name, len(outcome.result.Warnings))
	}

	if len(projects) > 0 && failed == len(projects) {
		return nil, fmt.Errorf("%w: %d of %d", ErrAllProjectsFailed, failed, len(projects))
	}

	return &RunResult{Document: document, Assets: assets}, nil
}

// runPool fans projects out to min(Workers, len(projects)) goroutines.
// Projects share nothing, so the only synchronization is the job channel
// and the per-slot result writes.
func (a *Assembler) runPool(ctx context.Context, projects []config.ProjectConfig, outcomes []projectOutcome) {
	workers := a.Config.Workers
	if workers > len(projects) {
		workers = len(projects)
	}

	jobs := make(chan int)

	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				outcomes[i] = a.runProject(ctx, projects[i])
			}
		}()
	}

	for i := range projects {
		jobs <- i
	}

	close(jobs)
	wg.Wait()
}

func (a *Assembler) runProject(ctx context.Context, spec config.ProjectConfig) projectOutcome {
	projectCtx := ctx

	if a.Config.ProjectTimeout > 0 {
		var cancel context.CancelFunc

		projectCtx, cancel = context.WithTimeout(ctx, a.Config.ProjectTimeout)
		defer cancel()
	}

	result, err := a.Extractor.ExtractProject(projectCtx, spec)

	return projectOutcome{result: result, err: err}
}
