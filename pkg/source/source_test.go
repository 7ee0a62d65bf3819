package source

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/envmanifest/pkg/errors"
)

const sourcesYAML = `
conda-recipes: {git_url: https://example.com/conda-recipes.git, git_rev: v1}
local: {path: /srv/recipes}
extra: {path: /srv/extra}
defaults: {channel: /srv/channels/defaults}
`

func TestParseSources(t *testing.T) {
	reg, err := ParseSources([]byte(sourcesYAML))
	if err != nil {
		t.Fatalf("ParseSources() error: %v", err)
	}

	want := []string{"conda-recipes", "defaults", "extra", "local"}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	cr := reg["conda-recipes"]
	if cr.Name != "conda-recipes" || cr.GitRev != "v1" {
		t.Errorf("conda-recipes = %+v", cr)
	}
	if got := cr.Dir("/root/sources"); got != filepath.Join("/root/sources", "conda-recipes") {
		t.Errorf("Dir() = %q", got)
	}
	if got := reg["local"].Dir("/root/sources"); got != "/srv/recipes" {
		t.Errorf("local Dir() = %q", got)
	}
	if !reg["defaults"].IsChannel() || reg["local"].IsChannel() {
		t.Error("IsChannel() mismatch")
	}
	if _, err := reg.Lookup("missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Lookup(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestParseSourcesInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no origin", "a: {}"},
		{"two origins", "a: {path: /x, channel: /y}"},
		{"rev without git", "a: {path: /x, git_rev: v1}"},
		{"bad name", "a/b: {path: /x}"},
		{"not a mapping", "- a\n- b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSources([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTiersValidate(t *testing.T) {
	reg := Registry{"a": {Name: "a"}, "b": {Name: "b"}, "c": {Name: "c"}}

	tests := []struct {
		name    string
		tiers   Tiers
		wantErr bool
	}{
		{"linear", Tiers{{"a"}, {"b"}}, false},
		{"paired", Tiers{{"a", "b"}, {"c"}}, false},
		{"empty", Tiers{}, true},
		{"empty tier", Tiers{{"a"}, {}}, true},
		{"duplicate across tiers", Tiers{{"a"}, {"b", "a"}}, true},
		{"duplicate within tier", Tiers{{"a", "a"}}, true},
		{"unknown", Tiers{{"a"}, {"zzz"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tiers.Validate(reg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestTiersFlatten(t *testing.T) {
	tiers := Tiers{{"a", "b"}, {"c"}}
	if got := tiers.Flatten(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Flatten() = %v", got)
	}
}

func TestLoadEnvironments(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("lts.yaml", "name: lts\nsources: [[local], [conda-recipes, extra]]\npackages: [python 2.7*, numpy, iris]\n")
	write("dev.yaml", "name: dev\nsources: [[local]]\npackages: [iris]\n")

	reg, err := ParseSources([]byte(sourcesYAML))
	if err != nil {
		t.Fatal(err)
	}

	envs, err := LoadEnvironments([]string{filepath.Join(dir, "*.yaml")}, reg)
	if err != nil {
		t.Fatalf("LoadEnvironments() error: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("got %d environments, want 2", len(envs))
	}
	if envs[0].Name != "dev" || envs[1].Name != "lts" {
		t.Errorf("environments not in lexical file order: %s, %s", envs[0].Name, envs[1].Name)
	}
	lts := envs[1]
	wantTiers := Tiers{{"local"}, {"conda-recipes", "extra"}}
	if !reflect.DeepEqual(lts.Sources, wantTiers) {
		t.Errorf("Sources = %v, want %v", lts.Sources, wantTiers)
	}
	if !reflect.DeepEqual(lts.Packages, []string{"python 2.7*", "numpy", "iris"}) {
		t.Errorf("Packages = %v", lts.Packages)
	}
	if lts.Path != filepath.Join(dir, "lts.yaml") {
		t.Errorf("Path = %q", lts.Path)
	}
}

func TestLoadEnvironmentsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadEnvironments([]string{filepath.Join(dir, "*.yaml")}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("no matches: error = %v, want INVALID_CONFIG", err)
	}

	os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: x\nsources: [[a], [a]]\npackages: [p]\n"), 0o644)
	_, err = LoadEnvironments([]string{filepath.Join(dir, "a.yaml")}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("duplicate tier source: error = %v, want INVALID_CONFIG", err)
	}

	os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: x\nsources: [[a]]\npackages: [p]\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "c.yaml"), []byte("name: x\nsources: [[a]]\npackages: [q]\n"), 0o644)
	_, err = LoadEnvironments([]string{filepath.Join(dir, "b.yaml"), filepath.Join(dir, "c.yaml")}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("duplicate env name: error = %v, want INVALID_CONFIG", err)
	}

	os.WriteFile(filepath.Join(dir, "d.yaml"), []byte("name: y\nsources: [[a]]\npackages: ['>=1']\n"), 0o644)
	_, err = LoadEnvironments([]string{filepath.Join(dir, "d.yaml")}, nil)
	if !errors.Is(err, errors.ErrCodeInvalidSpec) {
		t.Errorf("bad package spec: error = %v, want INVALID_SPEC", err)
	}
}
