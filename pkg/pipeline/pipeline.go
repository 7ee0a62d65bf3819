// Package pipeline runs the per-environment stages of envmanifest with
// caching.
//
// The stages follow the data flow of one environment:
//
//  1. Resolve: decide which sources supply each package, optionally
//     materializing the chosen recipes into the environment's recipe dir
//  2. Matrix: expand each recipe's build cases against the merged index
//  3. Build: run the builder for every case not yet built
//  4. Realise: solve the environment into a locked manifest and write the
//     environment's index
//
// The CLI drives each stage through a [Runner], which caches version
// matrices and manifests under content-addressed keys:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{Registry: reg, Layout: cfg.Layout()}
//	res, err := runner.Resolve(ctx, env, opts)
//	...
//	res, err = runner.Realise(ctx, env, opts)
//	manifest.Write(os.Stdout, res.Lines)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/envmanifest/pkg/config"
	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/manifest"
	"github.com/matzehuels/envmanifest/pkg/matrix"
	"github.com/matzehuels/envmanifest/pkg/recipe"
	"github.com/matzehuels/envmanifest/pkg/resolve"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// Options configures a pipeline stage.
type Options struct {
	Registry source.Registry
	Layout   config.Layout

	// Refresh bypasses cached results; fresh results are still stored.
	Refresh bool

	// Logger defaults to the runner's logger.
	Logger *log.Logger
}

// Locator returns the index locator for the options' layout.
func (o Options) Locator() index.Locator {
	return index.Locator{Registry: o.Registry, DistRoot: o.Layout.DistRoot(), Platform: o.Layout.Platform}
}

// Validate checks that the options can drive a stage.
func (o Options) Validate() error {
	if len(o.Registry) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no sources configured")
	}
	if o.Layout.Root == "" || o.Layout.Platform == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "layout needs a root and a platform")
	}
	return nil
}

// RecipeMatrix is the version matrix of one recipe.
type RecipeMatrix struct {
	Recipe recipe.Recipe
	Matrix matrix.Matrix
}

// Result contains the outputs of a pipeline stage. Fields a stage does not
// produce are left zero.
type Result struct {
	Env string

	// Assignment is the resolution of the environment's packages.
	Assignment *resolve.Assignment

	// Links are the materialized recipe directories.
	Links []string

	// Matrices holds one entry per recipe, in recipe order.
	Matrices []RecipeMatrix

	// Index is the environment's merged index.
	Index index.Index

	// Lines is the realised manifest.
	Lines []manifest.Line

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which results came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Packages    int
	Missing     int
	Cases       int
	Lines       int
	ResolveTime time.Duration
	MatrixTime  time.Duration
	RealiseTime time.Duration
}

// CacheInfo tracks cache use per stage.
type CacheInfo struct {
	MatrixHits   int
	MatrixMisses int
	ManifestHit  bool
}
