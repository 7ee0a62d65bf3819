package matrix

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
)

// Pin fixes one special package to a minor version.
type Pin struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Case is one consistent combination of special package versions, sorted by
// package name. The empty case means no special constraint applies.
type Case []Pin

// NewCase returns a case holding pins, sorted by name.
func NewCase(pins ...Pin) Case {
	c := slices.Clone(Case(pins))
	slices.SortFunc(c, func(a, b Pin) int { return strings.Compare(a.Name, b.Name) })
	return c
}

// Key returns the canonical form of the case, e.g. "numpy=1.9,python=2.7".
// Two cases are equal exactly when their keys are.
func (c Case) Key() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.Name + "=" + p.Version
	}
	return strings.Join(parts, ",")
}

// String returns the case as a tuple, e.g. "(numpy 1.9, python 2.7)".
func (c Case) String() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = p.Name + " " + p.Version
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Get returns the pinned version of name.
func (c Case) Get(name string) (string, bool) {
	for _, p := range c {
		if p.Name == name {
			return p.Version, true
		}
	}
	return "", false
}

// Specs returns the pins as match specs, e.g. "python 2.7.*".
func (c Case) Specs() []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = matchspec.Pin(p.Name, p.Version)
	}
	return out
}

// RunPins returns run constraints a build of this case imposes, e.g.
// "python 2.7*".
func (c Case) RunPins() []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = p.Name + " " + p.Version + "*"
	}
	return out
}

// buildVars maps special packages to the builder variable they set.
var buildVars = map[string]string{
	Python: "CONDA_PY",
	NumPy:  "CONDA_NPY",
}

// BuildEnv returns the builder variables selecting this case, with each
// version written as an integer without its dot: python 2.7 → CONDA_PY=27.
// A pin with no builder variable is a NOT_IMPLEMENTED error.
func (c Case) BuildEnv() (map[string]string, error) {
	env := make(map[string]string, len(c))
	for _, p := range c {
		key, ok := buildVars[p.Name]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotImplemented, "package %s not yet implemented", p.Name)
		}
		n, err := strconv.Atoi(strings.ReplaceAll(p.Version, ".", ""))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidVersion, err, "%s version %q", p.Name, p.Version)
		}
		env[key] = strconv.Itoa(n)
	}
	return env, nil
}

// BuildPrefix returns the conventional build-string prefix of the case:
// "np19py27" for numpy 1.9 with python 2.7, "" for the empty case.
func (c Case) BuildPrefix() string {
	var b strings.Builder
	if v, ok := c.Get(NumPy); ok {
		b.WriteString("np" + strings.ReplaceAll(v, ".", ""))
	}
	if v, ok := c.Get(Python); ok {
		b.WriteString("py" + strings.ReplaceAll(v, ".", ""))
	}
	return b.String()
}

// compareCases orders cases pin by pin, comparing versions numerically.
func compareCases(a, b Case) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
		if c := matchspec.Compare(a[i].Version, b[i].Version); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// MinorVersion reduces a version to its first two dot components:
// "1.8.2" → "1.8". A single component is kept as is ("3" → "3"). Trailing
// non-digits on the second component are dropped ("1.9rc1" → "1.9").
// An empty version, a non-numeric major, or a minor without leading digits
// is an INVALID_VERSION error.
func MinorVersion(v string) (string, error) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	if _, err := strconv.Atoi(parts[0]); err != nil || strings.HasPrefix(parts[0], "-") {
		return "", errors.New(errors.ErrCodeInvalidVersion, "cannot derive minor version from %q", v)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	minor := parts[1]
	end := 0
	for end < len(minor) && minor[end] >= '0' && minor[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", errors.New(errors.ErrCodeInvalidVersion, "cannot derive minor version from %q", v)
	}
	return parts[0] + "." + minor[:end], nil
}
