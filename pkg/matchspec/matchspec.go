// Package matchspec parses and evaluates package dependency constraints.
//
// A match spec has up to three whitespace-separated fields:
//
//	name [version-expression [build-glob]]
//
// Examples:
//
//	numpy
//	numpy 1.9*
//	numpy >=1.7,<1.9
//	python >=2.7,<3|>=3.4
//	python 2.7.9 0
//	python=2.7
//
// Version expressions combine atoms with "," (and) and "|" (or). An atom is
// either an operator (>=, <=, >, <, ==, =, !=) followed by a version, a
// wildcard such as "1.9*" or "1.9.*", or a bare version matched exactly.
// Versions are compared as semantic versions via Masterminds/semver when both
// sides parse, and component by component otherwise, so "1.10" sorts after
// "1.9" and "1.9.0rc1" is still comparable.
package matchspec

import (
	"fmt"
	"path"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/errors"
)

// Spec is a parsed match spec. The zero value matches nothing; use [Parse].
type Spec struct {
	Name    string // Package name
	Version string // Version expression as written (may be empty)
	Build   string // Build-string glob (may be empty)

	alternatives [][]atom
}

// Parse parses a match spec string.
func Parse(s string) (Spec, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Spec{}, errors.New(errors.ErrCodeInvalidSpec, "empty match spec")
	}
	if len(fields) > 3 {
		return Spec{}, errors.New(errors.ErrCodeInvalidSpec, "match spec %q has too many fields", s)
	}

	spec := Spec{Name: fields[0]}
	if len(fields) == 1 {
		if name, ver, ok := strings.Cut(fields[0], "="); ok {
			spec.Name = name
			switch {
			case strings.HasPrefix(ver, "="):
				spec.Version = "=" + ver
			case ver != "" && !strings.HasSuffix(ver, "*"):
				// name=1.9 is shorthand for "name 1.9*"
				spec.Version = ver + "*"
			default:
				spec.Version = ver
			}
		}
	}
	if len(fields) > 1 {
		spec.Version = fields[1]
	}
	if len(fields) > 2 {
		spec.Build = fields[2]
		if _, err := path.Match(spec.Build, ""); err != nil {
			return Spec{}, errors.Wrap(errors.ErrCodeInvalidSpec, err, "bad build pattern in %q", s)
		}
	}
	if spec.Name == "" || strings.ContainsAny(spec.Name, "<>=!|,*") {
		return Spec{}, errors.New(errors.ErrCodeInvalidSpec, "invalid package name in %q", s)
	}

	alts, err := compile(spec.Version)
	if err != nil {
		return Spec{}, errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid version expression in %q", s)
	}
	spec.alternatives = alts
	return spec, nil
}

// Name returns the bare package name of a match spec string.
func Name(s string) (string, error) {
	spec, err := Parse(s)
	if err != nil {
		return "", err
	}
	return spec.Name, nil
}

// Pin returns the spec string pinning name to a minor version series,
// e.g. Pin("python", "2.7") == "python 2.7.*".
func Pin(name, minor string) string {
	return fmt.Sprintf("%s %s.*", name, minor)
}

// String returns the spec in canonical "name version build" form.
func (s Spec) String() string {
	parts := []string{s.Name}
	if s.Version != "" || s.Build != "" {
		v := s.Version
		if v == "" {
			v = "*"
		}
		parts = append(parts, v)
	}
	if s.Build != "" {
		parts = append(parts, s.Build)
	}
	return strings.Join(parts, " ")
}

// MatchVersion reports whether version satisfies the version expression.
func (s Spec) MatchVersion(version string) bool {
	if len(s.alternatives) == 0 {
		return true
	}
	for _, all := range s.alternatives {
		ok := true
		for _, a := range all {
			if !a.match(version) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// MatchBuild reports whether build satisfies the build glob.
func (s Spec) MatchBuild(build string) bool {
	if s.Build == "" || s.Build == "*" {
		return true
	}
	ok, _ := path.Match(s.Build, build)
	return ok
}

// Match reports whether a concrete package satisfies the spec.
func (s Spec) Match(name, version, build string) bool {
	return name == s.Name && s.MatchVersion(version) && s.MatchBuild(build)
}
