package build

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/envmanifest/pkg/config"
	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/matrix"
	"github.com/matzehuels/envmanifest/pkg/observability"
	"github.com/matzehuels/envmanifest/pkg/recipe"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// MatrixFunc computes the version matrix of a recipe against an index.
// Implementations report each computation to the pipeline hooks.
type MatrixFunc func(ctx context.Context, r recipe.Recipe, idx index.Index) (matrix.Matrix, error)

// ComputeMatrix is the uncached [MatrixFunc].
func ComputeMatrix(logger *log.Logger) MatrixFunc {
	return func(ctx context.Context, r recipe.Recipe, idx index.Index) (matrix.Matrix, error) {
		start := time.Now()
		m, err := matrix.Compute(r.BuildDeps, idx, nil, matrix.Options{Logger: logger})
		observability.Pipeline().OnMatrixComplete(ctx, r.Dist(), m.Len(), time.Since(start), err)
		return m, err
	}
}

// Orchestrator builds the missing distributions of an environment.
type Orchestrator struct {
	Builder Builder
	Locator index.Locator
	Layout  config.Layout
	// Matrix defaults to [ComputeMatrix].
	Matrix MatrixFunc
	// DryRun reports what would be built without building.
	DryRun bool
	Logger *log.Logger
}

// Report summarizes one orchestration run.
type Report struct {
	RunID   string
	Order   []string // recipe link names in build order
	Built   []string // dists built (or planned, in a dry run)
	Skipped []string // dists already present
	Broken  []string // dependency edges ignored to break cycles, "a -> b"
}

// Run builds every missing case of the environment's recipes.
func (o *Orchestrator) Run(ctx context.Context, env source.Environment) (*Report, error) {
	logger := o.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	matrixFn := o.Matrix
	if matrixFn == nil {
		matrixFn = ComputeMatrix(logger)
	}

	report := &Report{RunID: uuid.NewString()}
	logger = logger.With("run", report.RunID[:8])

	recipes, err := recipe.LoadMaterialized(o.Layout.RecipesDir(env.Name))
	if err != nil {
		return nil, err
	}
	logger.Debug("Found recipes", "env", env.Name, "count", len(recipes))

	ordered, broken, err := Order(recipes)
	if err != nil {
		return nil, err
	}
	for _, e := range broken {
		logger.Warn("Ignoring dependency to break a cycle", "from", e[0], "to", e[1])
		report.Broken = append(report.Broken, e[0]+" -> "+e[1])
	}

	channels := make([]string, 0, len(env.Sources.Flatten()))
	for _, name := range env.Sources.Flatten() {
		dir, err := o.Locator.Dir(name)
		if err != nil {
			return nil, err
		}
		channels = append(channels, dir)
	}

	for _, r := range ordered {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Order = append(report.Order, recipe.LinkName(r))

		// Never patch: every recipe sees the index as it is on disk now.
		perSource, merged, err := o.Locator.Load(env.Sources)
		if err != nil {
			return report, err
		}

		m, err := matrixFn(ctx, r, merged)
		if err != nil {
			return report, err
		}

		for _, c := range m.Cases() {
			if err := o.buildCase(ctx, report, logger, r, c, perSource[r.Source], channels); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func (o *Orchestrator) buildCase(ctx context.Context, report *Report, logger *log.Logger,
	r recipe.Recipe, c matrix.Case, built index.Index, channels []string) error {
	outDir, err := o.Locator.Dir(r.Source)
	if err != nil {
		return err
	}
	env, err := c.BuildEnv()
	if err != nil {
		return err
	}
	job := Job{
		RunID:     report.RunID,
		Recipe:    r,
		Case:      c,
		Env:       env,
		OutputDir: outDir,
		LogPath:   o.Layout.BuildLog(r.Path),
		Channels:  channels,
	}
	dist := job.Dist()

	if built.Has(dist) {
		logger.Info("Not building, already built", "dist", dist, "source", r.Source)
		observability.Build().OnBuildSkipped(ctx, report.RunID, dist)
		report.Skipped = append(report.Skipped, dist)
		return nil
	}
	if o.DryRun {
		logger.Info("Would build", "dist", dist, "source", r.Source, "case", c.String())
		report.Built = append(report.Built, dist)
		return nil
	}

	logger.Info("Building", "dist", dist, "source", r.Source, "case", c.String())
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	start := time.Now()
	observability.Build().OnBuildStart(ctx, report.RunID, dist)
	err = o.Builder.Build(ctx, job)
	if err == nil {
		if _, statErr := os.Stat(job.Artifact()); statErr != nil {
			err = errors.Wrap(errors.ErrCodeBuildFailed, statErr, "build of %s produced no %s", dist, job.Artifact())
		}
	}
	observability.Build().OnBuildComplete(ctx, report.RunID, dist, time.Since(start), err)
	if err != nil {
		return err
	}

	if _, err := index.Add(outDir, r.Entry(c.BuildPrefix(), c.RunPins()...)); err != nil {
		return err
	}
	report.Built = append(report.Built, dist)
	return nil
}
