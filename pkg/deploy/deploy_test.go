package deploy

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/manifest"
	"github.com/matzehuels/envmanifest/pkg/source"
)

const platform = "linux-64"

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

var lines = []manifest.Line{
	{Name: "numpy", Version: "1.9.2", Build: "py27_0", Source: "local"},
	{Name: "python", Version: "2.7.9", Build: "0", Source: "defaults"},
	{Name: "six", Version: "1.9.0", Build: "py27_0", Source: "local"},
}

// locator places "local" under a dist root and "defaults" in a channel,
// with an artifact for every line.
func locator(t *testing.T) index.Locator {
	t.Helper()
	loc := index.Locator{
		Registry: source.Registry{
			"local":    {Name: "local", Path: "/recipes"},
			"defaults": {Name: "defaults", Channel: t.TempDir()},
		},
		DistRoot: t.TempDir(),
		Platform: platform,
	}
	for _, l := range lines {
		touch(t, artifact(t, loc, l.Source, l.Dist()))
	}
	return loc
}

func artifact(t *testing.T, loc index.Locator, src, dist string) string {
	t.Helper()
	dir, err := loc.Dir(src)
	if err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, dist+index.Extension)
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name   string
		linked []string
		link   []string
		unlink []string
		empty  bool
	}{
		{
			name: "fresh prefix",
			link: []string{"numpy-1.9.2-py27_0", "python-2.7.9-0", "six-1.9.0-py27_0"},
		},
		{
			name:   "partially linked with stale",
			linked: []string{"python-2.7.9-0", "numpy-1.8.2-py27_0", "scipy-0.15-np18py27_0"},
			link:   []string{"numpy-1.9.2-py27_0", "six-1.9.0-py27_0"},
			unlink: []string{"numpy-1.8.2-py27_0", "scipy-0.15-np18py27_0"},
		},
		{
			name:   "up to date",
			linked: []string{"numpy-1.9.2-py27_0", "python-2.7.9-0", "six-1.9.0-py27_0"},
			empty:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := locator(t)
			plan, err := NewPlan(lines, loc, tt.linked)
			if err != nil {
				t.Fatalf("NewPlan() error: %v", err)
			}
			var link []string
			for _, a := range plan.Link {
				link = append(link, a.Dist)
				if a.Path != artifact(t, loc, a.Source, a.Dist) {
					t.Errorf("artifact path = %s", a.Path)
				}
			}
			if !reflect.DeepEqual(link, tt.link) {
				t.Errorf("Link = %v, want %v", link, tt.link)
			}
			if !reflect.DeepEqual(plan.Unlink, tt.unlink) {
				t.Errorf("Unlink = %v, want %v", plan.Unlink, tt.unlink)
			}
			if plan.Empty() != tt.empty {
				t.Errorf("Empty() = %v, want %v", plan.Empty(), tt.empty)
			}
			wantBySource := map[string][]string{
				"local":    {"numpy-1.9.2-py27_0", "six-1.9.0-py27_0"},
				"defaults": {"python-2.7.9-0"},
			}
			if !reflect.DeepEqual(plan.BySource, wantBySource) {
				t.Errorf("BySource = %v", plan.BySource)
			}
		})
	}
}

func TestNewPlanMissingArtifact(t *testing.T) {
	loc := locator(t)
	loc.Registry["scitools"] = source.Source{Name: "scitools", Path: "/scitools"}
	missing := append([]manifest.Line{}, lines...)
	missing = append(missing, manifest.Line{Name: "iris", Version: "1.7.3", Build: "np19py27_0", Source: "scitools"})

	_, err := NewPlan(missing, loc, nil)
	if !errors.Is(err, errors.ErrCodeMissingArtifact) {
		t.Fatalf("NewPlan() error = %v, want MISSING_ARTIFACT", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "iris-1.7.3-np19py27_0") || !strings.Contains(msg, "re-run the build") {
		t.Errorf("error message %q lacks the dist or the rebuild instruction", msg)
	}
}

func TestNewPlanUnknownSource(t *testing.T) {
	loc := locator(t)
	bad := []manifest.Line{{Name: "x", Version: "1", Build: "0", Source: "ghost"}}
	if _, err := NewPlan(bad, loc, nil); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("NewPlan() error = %v, want NOT_FOUND", err)
	}
}

func TestLinked(t *testing.T) {
	prefix := t.TempDir()
	if got, err := Linked(filepath.Join(prefix, "nope")); err != nil || got != nil {
		t.Errorf("Linked(missing) = %v, %v", got, err)
	}

	meta := filepath.Join(prefix, MetaDir)
	touch(t, filepath.Join(meta, "python-2.7.9-0.json"))
	touch(t, filepath.Join(meta, "numpy-1.9.2-py27_0.json"))
	touch(t, filepath.Join(meta, "history"))
	got, err := Linked(prefix)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"numpy-1.9.2-py27_0", "python-2.7.9-0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Linked() = %v, want %v", got, want)
	}
}
