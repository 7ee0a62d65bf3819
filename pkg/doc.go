// Package pkg provides the core libraries of envmanifest.
//
// # Overview
//
// envmanifest turns declarative environment specs into reproducible,
// fully pinned manifests. An environment layers named sources of build
// recipes into precedence tiers and lists the package specs it wants; the
// libraries resolve those specs to recipes, build every variant the
// environment needs, and solve the resulting index into a manifest.
//
// # Architecture
//
// The data flow through envmanifest:
//
//	sources.yaml + env.specs/*.yaml
//	         ↓
//	    [source] (registry, environments, tiers)
//	         ↓
//	    [resolve] (pick one recipe per package, tier by tier)
//	         ↓
//	    [recipe] (materialize the chosen recipes as links)
//	         ↓
//	    [matrix] (special-case variants per recipe)
//	         ↓
//	    [build] (dependency-ordered builds into per-source indices)
//	         ↓
//	    [manifest] (solve the merged [index] and write the manifest)
//	         ↓
//	    [deploy] (plan linking the manifest into a prefix)
//
// [pipeline] ties the stages together with caching and observability
// hooks, and is what the CLI drives.
//
// # Main Packages
//
// [matchspec] parses conda match specs and compares conda versions.
//
// [solver] picks one distribution per package from an [index] so that
// every dependency is satisfied, preferring newest versions.
//
// [dag] and [dag/transform] order recipes for building and break
// dependency cycles between them.
//
// [render] draws the resolved dependency graph as DOT or SVG.
//
// [cache], [config], [errors] and [observability] carry the ambient
// concerns shared by every stage.
//
// [source]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/source
// [resolve]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/resolve
// [recipe]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/recipe
// [matrix]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/matrix
// [build]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/build
// [manifest]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/manifest
// [index]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/index
// [deploy]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/deploy
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/pipeline
// [matchspec]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/matchspec
// [solver]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/solver
// [dag]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/dag/transform
// [render]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/envmanifest/pkg/observability
package pkg
