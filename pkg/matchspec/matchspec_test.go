package matchspec

import (
	"testing"

	"github.com/matzehuels/envmanifest/pkg/errors"
)

func mustParse(t *testing.T, s string) Spec {
	t.Helper()
	spec, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", s, err)
	}
	return spec
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version string
		build   string
	}{
		{"numpy", "numpy", "", ""},
		{"numpy 1.9*", "numpy", "1.9*", ""},
		{"numpy >=1.8,<1.10 py27_*", "numpy", ">=1.8,<1.10", "py27_*"},
		{"python=2.7", "python", "2.7*", ""},
		{"python==2.7.9", "python", "==2.7.9", ""},
		{"  iris   1.7  ", "iris", "1.7", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			spec, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if spec.Name != tt.name || spec.Version != tt.version || spec.Build != tt.build {
				t.Errorf("Parse(%q) = {%q %q %q}, want {%q %q %q}",
					tt.in, spec.Name, spec.Version, spec.Build, tt.name, tt.version, tt.build)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"a b c d",
		">=1.0",
		"numpy >=",
		"numpy >1.9*",
		"numpy 1.0 [",
		"numpy >=1.0,,<2",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", in)
			}
			if !errors.Is(err, errors.ErrCodeInvalidSpec) {
				t.Errorf("Parse(%q) error code = %v, want INVALID_SPEC", in, errors.GetCode(err))
			}
		})
	}
}

func TestMatchVersion(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"numpy", "1.9.2", true},
		{"numpy *", "1.9.2", true},
		{"numpy 1.9*", "1.9.2", true},
		{"numpy 1.9*", "1.9", true},
		{"numpy 1.9.*", "1.9.0", true},
		{"numpy 1.9*", "1.10.0", false},
		{"numpy 1.9*", "1.90", false},
		{"numpy >=1.8", "1.8.0", true},
		{"numpy >=1.8", "1.10.1", true},
		{"numpy >=1.8", "1.7.1", false},
		{"numpy >=1.7,<1.9", "1.8.2", true},
		{"numpy >=1.7,<1.9", "1.9.0", false},
		{"python >=2.7,<3|>=3.4", "2.7.9", true},
		{"python >=2.7,<3|>=3.4", "3.3.0", false},
		{"python >=2.7,<3|>=3.4", "3.5.1", true},
		{"python 2.7.9", "2.7.9", true},
		{"python 2.7.9", "2.7.10", false},
		{"python 2.7", "2.7.0", true},
		{"python !=2.7", "3.5", true},
		{"python !=2.7", "2.7", false},
		{"python ==3.5", "3.5.0", true},
		{"openssl >=1.0.1", "1.0.1.4", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.version, func(t *testing.T) {
			s := mustParse(t, tt.spec)
			if got := s.MatchVersion(tt.version); got != tt.want {
				t.Errorf("%q.MatchVersion(%q) = %v, want %v", tt.spec, tt.version, got, tt.want)
			}
		})
	}
}

func TestMatchBuild(t *testing.T) {
	s := mustParse(t, "numpy 1.9* np19py27_*")
	if !s.Match("numpy", "1.9.2", "np19py27_0") {
		t.Error("expected build np19py27_0 to match")
	}
	if s.Match("numpy", "1.9.2", "np19py35_0") {
		t.Error("expected build np19py35_0 not to match")
	}
	if s.Match("scipy", "1.9.2", "np19py27_0") {
		t.Error("expected name mismatch to fail")
	}
	if !mustParse(t, "numpy").MatchBuild("anything") {
		t.Error("empty build glob should match everything")
	}
}

func TestString(t *testing.T) {
	tests := map[string]string{
		"numpy":               "numpy",
		"numpy 1.9*":          "numpy 1.9*",
		"numpy >=1.8 py27_*":  "numpy >=1.8 py27_*",
		"python=2.7":          "python 2.7*",
		"  python   2.7.9  0": "python 2.7.9 0",
	}
	for in, want := range tests {
		if got := mustParse(t, in).String(); got != want {
			t.Errorf("Parse(%q).String() = %q, want %q", in, got, want)
		}
	}
}

func TestNameAndPin(t *testing.T) {
	name, err := Name("numpy >=1.8")
	if err != nil || name != "numpy" {
		t.Errorf("Name() = %q, %v; want numpy", name, err)
	}
	if got := Pin("python", "2.7"); got != "python 2.7.*" {
		t.Errorf("Pin() = %q", got)
	}
	if !mustParse(t, Pin("python", "2.7")).MatchVersion("2.7.11") {
		t.Error("pinned spec should match patch releases")
	}
	if mustParse(t, Pin("python", "2.7")).MatchVersion("2.70") {
		t.Error("pinned spec should not match 2.70")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.9", "1.10", -1},
		{"1.10", "1.9", 1},
		{"2.7", "2.7.0", 0},
		{"3.5.1", "3.5.1", 0},
		{"1.0.0.1", "1.0.0", 1},
		{"1.0.1.4", "1.0.1.12", -1},
		{"1.9rc1", "1.9", -1},
		{"1.9", "1.9rc1", 1},
		{"1.0a", "1.0b", -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
