package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricProjectsTotal = "timelens.projects.total"
	metricStageDuration = "timelens.stage.duration.seconds"
	metricWarningsTotal = "timelens.warnings.total"

	attrProject = "project"
	attrStage   = "stage"
	attrStatus  = "status"
)

// Extraction stage labels.
const (
	StageHistory = "history"
	StageBlame   = "blame"
	StageAssets  = "assets"
)

// Extraction status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// durationBucketBoundaries covers 10ms to 600s; a project extraction
// ranges from a sub-second log walk to minutes of blame on deep history.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// ExtractionMetrics holds the OTel instruments for the extraction engine.
type ExtractionMetrics struct {
	projectsTotal metric.Int64Counter
	stageDuration metric.Float64Histogram
	warningsTotal metric.Int64Counter
}

// NewExtractionMetrics creates the extraction instruments from the given meter.
func NewExtractionMetrics(mt metric.Meter) (*ExtractionMetrics, error) {
	projects, err := mt.Int64Counter(metricProjectsTotal,
		metric.WithDescription("Total number of projects processed"),
		metric.WithUnit("{project}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricProjectsTotal, err)
	}

	stages, err := mt.Float64Histogram(metricStageDuration,
		metric.WithDescription("Extraction stage duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricStageDuration, err)
	}

	warnings, err := mt.Int64Counter(metricWarningsTotal,
		metric.WithDescription("Total number of extraction warnings"),
		metric.WithUnit("{warning}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricWarningsTotal, err)
	}

	return &ExtractionMetrics{
		projectsTotal: projects,
		stageDuration: stages,
		warningsTotal: warnings,
	}, nil
}

// RecordProject records one finished project extraction.
func (em *ExtractionMetrics) RecordProject(ctx context.Context, project, status string) {
	em.projectsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrProject, project),
		attribute.String(attrStatus, status),
	))
}

// RecordStage records the duration of one extraction stage.
func (em *ExtractionMetrics) RecordStage(ctx context.Context, project, stage string, duration time.Duration) {
	em.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrProject, project),
		attribute.String(attrStage, stage),
	))
}

// AddWarnings counts warnings attached to a project.
func (em *ExtractionMetrics) AddWarnings(ctx context.Context, project string, count int) {
	if count <= 0 {
		return
	}

	em.warningsTotal.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String(attrProject, project),
	))
}
