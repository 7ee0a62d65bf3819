package build

import (
	"github.com/matzehuels/envmanifest/pkg/dag"
	"github.com/matzehuels/envmanifest/pkg/dag/transform"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
	"github.com/matzehuels/envmanifest/pkg/recipe"
)

// Order sorts recipes so that every recipe follows the recipes providing
// its run and build dependencies. Dependencies on packages no recipe
// provides are ignored. Cycles are broken by dropping back edges, which
// are returned as (from, to) link-name pairs; the order is otherwise
// stable in the input order.
func Order(recipes []recipe.Recipe) ([]recipe.Recipe, [][2]string, error) {
	g := dag.New(nil)
	byLink := make(map[string]recipe.Recipe, len(recipes))
	byName := make(map[string][]string)
	for _, r := range recipes {
		link := recipe.LinkName(r)
		if err := g.AddNode(dag.Node{ID: link, Meta: dag.Metadata{"source": r.Source}}); err != nil {
			return nil, nil, err
		}
		byLink[link] = r
		byName[r.Name] = append(byName[r.Name], link)
	}

	for _, r := range recipes {
		from := recipe.LinkName(r)
		seen := make(map[string]bool)
		for _, dep := range r.Deps() {
			name, err := matchspec.Name(dep)
			if err != nil {
				return nil, nil, err
			}
			for _, to := range byName[name] {
				if seen[to] {
					continue
				}
				seen[to] = true
				if err := g.AddEdge(dag.Edge{From: from, To: to}); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	var broken [][2]string
	for _, e := range transform.BreakCycles(g) {
		broken = append(broken, [2]string{e.From, e.To})
	}

	ids, err := g.TopoSort()
	if err != nil {
		return nil, nil, err
	}
	out := make([]recipe.Recipe, len(ids))
	for i, id := range ids {
		out[i] = byLink[id]
	}
	return out, broken, nil
}
