package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/timelens/internal/config"
	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
	"github.com/Sumatoshi-tech/timelens/pkg/model"
	"github.com/Sumatoshi-tech/timelens/pkg/observability"
)

// Extractor runs the full temporal extraction for single projects. It
// holds no per-project state, so one Extractor may serve any number of
// projects concurrently.
type Extractor struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.ExtractionMetrics
}

// ProjectResult is everything one project contributes to the run: the
// document record, the asset bytes to copy, and non-fatal warnings.
type ProjectResult struct {
	Project  model.Project
	Assets   []AssetBlob
	Warnings []string
}

// ExtractProject builds the temporal view of one configured project.
// The blame and asset stages run concurrently once the history walk has
// produced the canonical commit records; each stage opens its own
// repository handle because libgit2 handles are not safe for shared use.
//
// A missing tracked file is not an error: the click file record is
// emitted empty, with a warning, since a project may legitimately not
// have started its tracked file yet.
func (e *Extractor) ExtractProject(ctx context.Context, spec config.ProjectConfig) (*ProjectResult, error) {
	ctx, span := e.Tracer.Start(ctx, "extract.project",
		trace.WithAttributes(attribute.String("project", spec.Name)))
	defer span.End()

	repo, err := gitlib.OpenRepository(spec.Repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, spec.Repo, err)
	}
	defer repo.Free()

	tip, err := e.resolveTip(repo, spec)
	if err != nil {
		return nil, err
	}

	builder := NewHistoryBuilder(repo, tip)

	commits, err := e.runHistoryStage(ctx, spec, builder)
	if err != nil {
		return nil, err
	}

	result := &ProjectResult{
		Project: model.Project{
			Name:    spec.Name,
			Path:    spec.Repo,
			Commits: commits,
			ClickFile: model.ClickFile{
				Path:         spec.ClickFile,
				Commits:      []model.Commit{},
				BlameHistory: []model.BlameLine{},
				Images:       []model.ImageAsset{},
			},
		},
	}

	content, contentErr := currentContent(repo, tip, spec.ClickFile)
	if contentErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("tracked file %s missing at current revision", spec.ClickFile))
		e.Logger.WarnContext(ctx, "tracked file missing",
			"project", spec.Name, "path", spec.ClickFile)

		return result, nil
	}

	result.Project.ClickFile.CurrentContent = content

	fileTrail, err := builder.ListPathCommits(ctx, spec.ClickFile)
	if err != nil {
		return nil, err
	}

	result.Project.ClickFile.Commits = Commits(fileTrail)

	index := CommitIndex(commits)

	err = e.runParallelStages(ctx, spec, tip, content, index, result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (e *Extractor) resolveTip(repo *gitlib.Repository, spec config.ProjectConfig) (gitlib.Hash, error) {
	if spec.Branch != "" {
		tip, err := repo.ResolveRevision(spec.Branch)
		if err != nil {
			return gitlib.Hash{}, fmt.Errorf("%w: branch %s: %v", ErrRepositoryUnavailable, spec.Branch, err)
		}

		return tip, nil
	}

	tip, err := repo.Head()
	if err != nil {
		return gitlib.Hash{}, fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, spec.Repo, err)
	}

	return tip, nil
}

func (e *Extractor) runHistoryStage(
	ctx context.Context,
	spec config.ProjectConfig,
	builder *HistoryBuilder,
) ([]model.Commit, error) {
	ctx, span := e.Tracer.Start(ctx, "extract.history")
	defer span.End()

	start := time.Now()

	commits, err := builder.ListCommits(ctx)
	if err != nil {
		return nil, err
	}

	e.Metrics.RecordStage(ctx, spec.Name, observability.StageHistory, time.Since(start))
	e.Logger.DebugContext(ctx, "history walk done",
		"project", spec.Name, "commits", len(commits))

	return commits, nil
}

// runParallelStages executes blame reconstruction and asset extraction
// concurrently and joins both before composing the project record. Each
// stage gets a private repository handle.
func (e *Extractor) runParallelStages(
	ctx context.Context,
	spec config.ProjectConfig,
	tip gitlib.Hash,
	content string,
	index map[string]model.Commit,
	result *ProjectResult,
) error {
	var (
		wg sync.WaitGroup

		blameHistory []model.BlameLine
		blameErr     error

		images        []model.ImageAsset
		assetBlobs    []AssetBlob
		assetWarnings []string
		assetsErr     error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		stageCtx, span := e.Tracer.Start(ctx, "extract.blame")
		defer span.End()

		start := time.Now()

		blameRepo, err := gitlib.OpenRepository(spec.Repo)
		if err != nil {
			blameErr = fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, spec.Repo, err)

			return
		}
		defer blameRepo.Free()

		blameHistory, blameErr = ReconstructBlame(blameRepo, tip, spec.ClickFile, content, index)

		e.Metrics.RecordStage(stageCtx, spec.Name, observability.StageBlame, time.Since(start))
	}()

	go func() {
		defer wg.Done()

		stageCtx, span := e.Tracer.Start(ctx, "extract.assets")
		defer span.End()

		start := time.Now()

		assetRepo, err := gitlib.OpenRepository(spec.Repo)
		if err != nil {
			assetsErr = fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, spec.Repo, err)

			return
		}
		defer assetRepo.Free()

		assetBuilder := NewHistoryBuilder(assetRepo, tip)

		images, assetBlobs, assetWarnings, assetsErr = BuildImageAssets(
			stageCtx, assetRepo, assetBuilder, spec.Name, spec.ClickFile, content)

		e.Metrics.RecordStage(stageCtx, spec.Name, observability.StageAssets, time.Since(start))
	}()

	wg.Wait()

	if blameErr != nil {
		return blameErr
	}

	if assetsErr != nil {
		return assetsErr
	}

	result.Project.ClickFile.BlameHistory = blameHistory
	result.Project.ClickFile.Images = images
	result.Assets = assetBlobs
	result.Warnings = append(result.Warnings, assetWarnings...)

	return nil
}

func currentContent(repo *gitlib.Repository, tip gitlib.Hash, path string) (string, error) {
	commit, err := repo.LookupCommit(tip)
	if err != nil {
		return "", err
	}
	defer commit.Free()

	blob, err := commit.Blob(path)
	if err != nil {
		return "", err
	}
	defer blob.Free()

	return string(blob.Contents()), nil
}
