package resolve

import (
	"reflect"
	"testing"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/recipe"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// Test packages: a runs with b, b builds with c, b_alt is another b that
// builds with c and d.
var (
	pkgA    = recipe.Recipe{Name: "a", Version: "0.1", RunDeps: []string{"b"}}
	pkgB    = recipe.Recipe{Name: "b", Version: "0.1", BuildDeps: []string{"c"}}
	pkgC    = recipe.Recipe{Name: "c", Version: "0.1"}
	pkgD    = recipe.Recipe{Name: "d", Version: "0.1"}
	pkgBAlt = recipe.Recipe{Name: "b", Version: "0.1", BuildDeps: []string{"c", "d"}}
)

func contrib(src string, r recipe.Recipe) Contribution {
	return Contribution{Source: src, Recipe: r}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		tiers   source.Tiers
		catalog recipe.Catalog
		want    map[string][]Contribution
	}{
		{
			name:    "linear sources",
			tiers:   source.Tiers{{"ab"}, {"cd"}},
			catalog: recipe.Catalog{"ab": {pkgA, pkgB}, "cd": {pkgA, pkgC, pkgD}},
			want: map[string][]Contribution{
				"a": {contrib("ab", pkgA)},
				"b": {contrib("ab", pkgB)},
				"c": {contrib("cd", pkgC)},
			},
		},
		{
			name:    "paired sources",
			tiers:   source.Tiers{{"ab", "cd"}},
			catalog: recipe.Catalog{"ab": {pkgA, pkgB}, "cd": {pkgA, pkgC, pkgD}},
			want: map[string][]Contribution{
				"a": {contrib("ab", pkgA), contrib("cd", pkgA)},
				"b": {contrib("ab", pkgB)},
				"c": {contrib("cd", pkgC)},
			},
		},
		{
			name:    "paired sources with alternative recipe",
			tiers:   source.Tiers{{"ab", "b_alt_d"}},
			catalog: recipe.Catalog{"ab": {pkgA, pkgB}, "b_alt_d": {pkgBAlt, pkgC, pkgD}},
			want: map[string][]Contribution{
				"a": {contrib("ab", pkgA)},
				"b": {contrib("ab", pkgB), contrib("b_alt_d", pkgBAlt)},
				"c": {contrib("b_alt_d", pkgC)},
				"d": {contrib("b_alt_d", pkgD)},
			},
		},
		{
			name:    "unresolvable dependency",
			tiers:   source.Tiers{{"ab"}},
			catalog: recipe.Catalog{"ab": {pkgA}},
			want: map[string][]Contribution{
				"a": {contrib("ab", pkgA)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.tiers, []string{"a"}, tt.catalog)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if !reflect.DeepEqual(got.Packages, tt.want) {
				t.Errorf("Resolve() = %+v\nwant %+v", got.Packages, tt.want)
			}
		})
	}
}

func TestResolveMissing(t *testing.T) {
	got, err := Resolve(source.Tiers{{"ab"}}, []string{"a", "ghost >=1.0"}, recipe.Catalog{"ab": {pkgA}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if want := []string{"ghost", "b"}; !reflect.DeepEqual(got.Missing, want) {
		t.Errorf("Missing = %v, want %v", got.Missing, want)
	}
}

func TestResolveCycle(t *testing.T) {
	x := recipe.Recipe{Name: "x", Version: "1", RunDeps: []string{"y"}}
	y := recipe.Recipe{Name: "y", Version: "1", BuildDeps: []string{"x >=1"}, RunDeps: []string{"y"}}

	got, err := Resolve(source.Tiers{{"s"}}, []string{"x"}, recipe.Catalog{"s": {x, y}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(got.Order, want) {
		t.Errorf("Order = %v, want %v", got.Order, want)
	}

	g := got.Graph()
	if g.EdgeCount() != 2 {
		t.Errorf("Graph() edges = %d, want 2 (self loops dropped)", g.EdgeCount())
	}
}

func TestResolveSameSourceDuplicateDist(t *testing.T) {
	dup := pkgB
	dup.Path = "/elsewhere"
	_, err := Resolve(source.Tiers{{"ab"}}, []string{"a"}, recipe.Catalog{"ab": {pkgA, pkgB, dup}})
	if !errors.Is(err, errors.ErrCodeAmbiguousAuthority) {
		t.Fatalf("Resolve() error = %v, want AMBIGUOUS_AUTHORITY", err)
	}
	if want := "ab has multiple recipes for b-0.1-0"; errors.UserMessage(err) != want {
		t.Errorf("message = %q, want %q", errors.UserMessage(err), want)
	}
}

func TestResolveSameSourceDifferentVersions(t *testing.T) {
	b2 := pkgB
	b2.Version = "0.2"
	got, err := Resolve(source.Tiers{{"ab"}}, []string{"b"}, recipe.Catalog{"ab": {pkgB, b2}})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(got.Packages["b"]) != 2 {
		t.Errorf("b contributions = %d, want 2", len(got.Packages["b"]))
	}
}

func TestResolveInvalidSpec(t *testing.T) {
	_, err := Resolve(source.Tiers{{"ab"}}, []string{">=1"}, recipe.Catalog{})
	if !errors.Is(err, errors.ErrCodeInvalidSpec) {
		t.Errorf("Resolve() error = %v, want INVALID_SPEC", err)
	}
}

func TestResolveIdempotent(t *testing.T) {
	tiers := source.Tiers{{"ab", "b_alt_d"}}
	catalog := recipe.Catalog{"ab": {pkgA, pkgB}, "b_alt_d": {pkgBAlt, pkgC, pkgD}}

	first, err := Resolve(tiers, []string{"a", "d"}, catalog)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Resolve(tiers, []string{"a", "d"}, catalog)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestAssignmentRecipesAndGraph(t *testing.T) {
	got, err := Resolve(source.Tiers{{"ab"}, {"cd"}}, []string{"a"},
		recipe.Catalog{"ab": {pkgA, pkgB}, "cd": {pkgA, pkgC, pkgD}})
	if err != nil {
		t.Fatal(err)
	}

	var dists []string
	for _, r := range got.Recipes() {
		dists = append(dists, r.Source+"_"+r.Dist())
	}
	want := []string{"ab_a-0.1-0", "ab_b-0.1-0", "cd_c-0.1-0"}
	if !reflect.DeepEqual(dists, want) {
		t.Errorf("Recipes() = %v, want %v", dists, want)
	}

	g := got.Graph()
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Errorf("Graph() = %d nodes, %d edges; want 3, 2", g.NodeCount(), g.EdgeCount())
	}
	if children := g.Children("b"); !reflect.DeepEqual(children, []string{"c"}) {
		t.Errorf("Children(b) = %v", children)
	}
	n, _ := g.Node("c")
	if n.Meta["tier"] != 1 {
		t.Errorf("c tier = %v, want 1", n.Meta["tier"])
	}
}
