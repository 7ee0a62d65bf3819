// Package resolve decides which sources supply each package an environment
// needs.
//
// Resolution walks the transitive build and run dependencies of the
// requested specs. Each package name is resolved by the first precedence
// tier that has any provider for it; every source in that tier that provides
// the name contributes all of its recipes for it. Later tiers never add to an
// already resolved name. Names no tier provides are dropped, so resolution
// always yields as much of the closure as the sources can supply.
//
// Resolution works on names only. Version constraints are left to the
// matrix engine and the solver.
package resolve

import (
	"slices"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
	"github.com/matzehuels/envmanifest/pkg/recipe"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// Contribution is one (source, recipe) pair supplying a package.
type Contribution struct {
	Source string
	Recipe recipe.Recipe
}

// Assignment is the result of [Resolve].
type Assignment struct {
	// Packages maps package name to its contributions, in the order the
	// sources were visited.
	Packages map[string][]Contribution

	// Order lists package names in the order they were resolved.
	Order []string

	// Missing lists names no tier could provide, in the order first seen.
	Missing []string

	// Tier records which tier resolved each name.
	Tier map[string]int
}

// Resolve computes the assignment for the requested specs.
//
// The work queue is processed last-in first-out. A name already resolved is
// never enqueued again, which bounds the traversal even when the dependency
// graph has cycles. A source providing two recipes with the same dist for a
// name is an AMBIGUOUS_AUTHORITY error.
func Resolve(tiers source.Tiers, specs []string, catalog recipe.Catalog) (*Assignment, error) {
	a := &Assignment{
		Packages: make(map[string][]Contribution),
		Tier:     make(map[string]int),
	}
	missing := make(map[string]bool)

	queue := slices.Clone(specs)
	for len(queue) > 0 {
		spec := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		name, err := matchspec.Name(spec)
		if err != nil {
			return nil, err
		}
		if _, done := a.Packages[name]; done {
			continue
		}

		tier, contribs, err := provide(tiers, name, catalog)
		if err != nil {
			return nil, err
		}
		if tier < 0 {
			if !missing[name] {
				missing[name] = true
				a.Missing = append(a.Missing, name)
			}
			continue
		}

		a.Packages[name] = contribs
		a.Tier[name] = tier
		a.Order = append(a.Order, name)

		for _, c := range contribs {
			for _, dep := range c.Recipe.Deps() {
				depName, err := matchspec.Name(dep)
				if err != nil {
					return nil, err
				}
				if _, done := a.Packages[depName]; !done {
					queue = append(queue, dep)
				}
			}
		}
	}
	return a, nil
}

// provide finds the first tier with a provider for name and collects every
// same-tier contribution. It returns tier -1 when nothing provides name.
func provide(tiers source.Tiers, name string, catalog recipe.Catalog) (int, []Contribution, error) {
	for i, tier := range tiers {
		var contribs []Contribution
		for _, src := range tier {
			seen := make(map[string]bool)
			for _, r := range catalog.Provides(src, name) {
				if seen[r.Dist()] {
					return 0, nil, errors.New(errors.ErrCodeAmbiguousAuthority,
						"%s has multiple recipes for %s", src, r.Dist())
				}
				seen[r.Dist()] = true
				contribs = append(contribs, Contribution{Source: src, Recipe: r})
			}
		}
		if len(contribs) > 0 {
			return i, contribs, nil
		}
	}
	return -1, nil, nil
}

// Names returns the resolved package names in resolution order.
func (a *Assignment) Names() []string { return slices.Clone(a.Order) }

// Recipes flattens the assignment into recipes, in resolution order and
// then contribution order. Each recipe carries its source.
func (a *Assignment) Recipes() []recipe.Recipe {
	var out []recipe.Recipe
	for _, name := range a.Order {
		for _, c := range a.Packages[name] {
			r := c.Recipe
			r.Source = c.Source
			out = append(out, r)
		}
	}
	return out
}

// Sources returns the sources contributing to name, without duplicates.
func (a *Assignment) Sources(name string) []string {
	var out []string
	for _, c := range a.Packages[name] {
		if !slices.Contains(out, c.Source) {
			out = append(out, c.Source)
		}
	}
	return out
}
