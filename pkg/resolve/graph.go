package resolve

import (
	"slices"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/dag"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
)

// Graph returns the dependency graph of the resolved packages. Nodes are
// package names carrying "sources", "versions" and "tier" metadata; an edge
// A→B means some contributing recipe of A depends on B. Dependencies on
// missing packages are omitted. The graph may contain cycles.
func (a *Assignment) Graph() *dag.DAG {
	g := dag.New(dag.Metadata{"missing": slices.Clone(a.Missing)})

	for _, name := range a.Order {
		var versions []string
		for _, c := range a.Packages[name] {
			if !slices.Contains(versions, c.Recipe.Version) {
				versions = append(versions, c.Recipe.Version)
			}
		}
		_ = g.AddNode(dag.Node{ID: name, Meta: dag.Metadata{
			"sources":  a.Sources(name),
			"versions": strings.Join(versions, ", "),
			"tier":     a.Tier[name],
		}})
	}

	for _, name := range a.Order {
		seen := make(map[string]bool)
		for _, c := range a.Packages[name] {
			for _, dep := range c.Recipe.Deps() {
				depName, err := matchspec.Name(dep)
				if err != nil || depName == name || seen[depName] {
					continue
				}
				if _, ok := a.Packages[depName]; !ok {
					continue
				}
				seen[depName] = true
				_ = g.AddEdge(dag.Edge{From: name, To: depName})
			}
		}
	}
	return g
}
