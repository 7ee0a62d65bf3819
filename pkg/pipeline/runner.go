package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/envmanifest/pkg/build"
	"github.com/matzehuels/envmanifest/pkg/cache"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/manifest"
	"github.com/matzehuels/envmanifest/pkg/matrix"
	"github.com/matzehuels/envmanifest/pkg/observability"
	"github.com/matzehuels/envmanifest/pkg/recipe"
	"github.com/matzehuels/envmanifest/pkg/render"
	"github.com/matzehuels/envmanifest/pkg/resolve"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// Runner encapsulates stage execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store stage results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Resolve loads the recipes of the environment's sources and resolves its
// packages. Nothing is written to disk.
func (r *Runner) Resolve(ctx context.Context, env source.Environment, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)
	observability.Pipeline().OnResolveStart(ctx, env.Name)

	start := time.Now()
	a, err := r.resolve(env, opts)
	elapsed := time.Since(start)
	packages := 0
	if a != nil {
		packages = len(a.Order)
	}
	observability.Pipeline().OnResolveComplete(ctx, env.Name, packages, elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", env.Name, err)
	}

	for _, name := range a.Missing {
		logger.Warn("No source provides package", "env", env.Name, "package", name)
	}
	logger.Info("Resolved environment", "env", env.Name, "packages", packages, "duration", elapsed)

	return &Result{
		Env:        env.Name,
		Assignment: a,
		Stats:      Stats{Packages: packages, Missing: len(a.Missing), ResolveTime: elapsed},
	}, nil
}

func (r *Runner) resolve(env source.Environment, opts Options) (*resolve.Assignment, error) {
	catalog, err := recipe.LoadCatalog(opts.Registry, opts.Layout.SourcesRoot(), env.Sources.Flatten())
	if err != nil {
		return nil, err
	}
	return resolve.Resolve(env.Sources, env.Packages, catalog)
}

// Materialize resolves the environment and recreates its recipe directory
// from the assignment.
func (r *Runner) Materialize(ctx context.Context, env source.Environment, opts Options) (*Result, error) {
	res, err := r.Resolve(ctx, env, opts)
	if err != nil {
		return nil, err
	}
	dir := opts.Layout.RecipesDir(env.Name)
	links, err := recipe.Materialize(res.Assignment.Recipes(), dir)
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", env.Name, err)
	}
	res.Links = links
	r.logger(opts).Info("Materialized recipes", "env", env.Name, "recipes", len(links), "dir", dir)
	return res, nil
}

// Matrix returns the version matrix of one recipe against idx, consulting
// the cache first. The boolean reports a cache hit.
func (r *Runner) Matrix(ctx context.Context, rec recipe.Recipe, idx index.Index, opts Options) (matrix.Matrix, bool, error) {
	logger := r.logger(opts)
	key := r.Keyer.MatrixKey(rec.Dist(), rec.BuildDeps, idx.Hash())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var m matrix.Matrix
			if err := json.Unmarshal(data, &m); err == nil {
				observability.Cache().OnCacheHit(ctx, key)
				return m, true, nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			logger.Debug("Cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	start := time.Now()
	m, err := matrix.Compute(rec.BuildDeps, idx, nil, matrix.Options{Logger: logger})
	observability.Pipeline().OnMatrixComplete(ctx, rec.Dist(), m.Len(), time.Since(start), err)
	if err != nil {
		return nil, false, fmt.Errorf("matrix of %s: %w", rec.Dist(), err)
	}

	r.store(ctx, logger, key, m, cache.TTLMatrix)
	return m, false, nil
}

// MatrixFunc adapts [Runner.Matrix] for the build orchestrator.
func (r *Runner) MatrixFunc(opts Options) build.MatrixFunc {
	return func(ctx context.Context, rec recipe.Recipe, idx index.Index) (matrix.Matrix, error) {
		m, _, err := r.Matrix(ctx, rec, idx, opts)
		return m, err
	}
}

// Matrices computes the version matrix of every recipe against the
// environment's merged index as it is on disk now.
func (r *Runner) Matrices(ctx context.Context, env source.Environment, recipes []recipe.Recipe, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	_, merged, err := opts.Locator().Load(env.Sources)
	if err != nil {
		return nil, err
	}

	res := &Result{Env: env.Name, Index: merged}
	start := time.Now()
	for _, rec := range recipes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, hit, err := r.Matrix(ctx, rec, merged, opts)
		if err != nil {
			return nil, err
		}
		if hit {
			res.CacheInfo.MatrixHits++
		} else {
			res.CacheInfo.MatrixMisses++
		}
		res.Stats.Cases += m.Len()
		res.Matrices = append(res.Matrices, RecipeMatrix{Recipe: rec, Matrix: m})
	}
	res.Stats.MatrixTime = time.Since(start)
	return res, nil
}

// Build runs the build orchestrator over the environment's materialized
// recipes, with version matrices served through the runner's cache.
func (r *Runner) Build(ctx context.Context, env source.Environment, b build.Builder, dryRun bool, opts Options) (*build.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	o := &build.Orchestrator{
		Builder: b,
		Locator: opts.Locator(),
		Layout:  opts.Layout,
		Matrix:  r.MatrixFunc(opts),
		DryRun:  dryRun,
		Logger:  r.logger(opts),
	}
	return o.Run(ctx, env)
}

// Realise solves the environment against its merged index, writes the
// merged index to the environment's index dir, and returns the manifest
// lines. Manifests are cached per index snapshot.
func (r *Runner) Realise(ctx context.Context, env source.Environment, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	start := time.Now()
	_, merged, err := opts.Locator().Load(env.Sources)
	if err != nil {
		return nil, err
	}
	res := &Result{Env: env.Name, Index: merged}

	key := r.Keyer.ManifestKey(env.Name, env.Packages, merged.Hash())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var lines []manifest.Line
			if err := json.Unmarshal(data, &lines); err == nil {
				observability.Cache().OnCacheHit(ctx, key)
				res.Lines = lines
				res.CacheInfo.ManifestHit = true
			}
		}
		if !res.CacheInfo.ManifestHit {
			observability.Cache().OnCacheMiss(ctx, key)
		}
	}

	if !res.CacheInfo.ManifestHit {
		lines, err := manifest.Realise(env, merged, nil)
		if err != nil {
			observability.Pipeline().OnRealiseComplete(ctx, env.Name, 0, time.Since(start), err)
			return nil, err
		}
		res.Lines = lines
		r.store(ctx, logger, key, lines, cache.TTLManifest)
	}

	dir := opts.Layout.IndexDir(env.Name)
	if err := manifest.WriteIndex(dir, merged); err != nil {
		return nil, err
	}

	res.Stats.Lines = len(res.Lines)
	res.Stats.RealiseTime = time.Since(start)
	observability.Pipeline().OnRealiseComplete(ctx, env.Name, len(res.Lines), res.Stats.RealiseTime, nil)
	logger.Info("Realised environment", "env", env.Name, "packages", len(res.Lines),
		"index", dir, "cached", res.CacheInfo.ManifestHit)
	return res, nil
}

// Graph resolves the environment and renders its dependency graph.
func (r *Runner) Graph(ctx context.Context, env source.Environment, format render.Format, ropts render.Options, opts Options) ([]byte, *Result, error) {
	res, err := r.Resolve(ctx, env, opts)
	if err != nil {
		return nil, nil, err
	}
	out, err := render.Render(ctx, res.Assignment.Graph(), format, ropts)
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) store(ctx context.Context, logger *log.Logger, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Debug("Cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
