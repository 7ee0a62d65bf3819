// Package matrix computes the version matrix of a recipe: every valid
// combination of the special packages it must be built against.
//
// Special packages have versions that are cross-linked through the index. A
// numpy build exists only for the pythons it declares, so combinations are
// discovered by reading each numpy's own python dependencies rather than
// taking a cross product. A python must satisfy all of them. Each candidate combination is then checked for
// joint satisfiability with the recipe's other build requirements, one
// solver call per case.
package matrix

import (
	"encoding/json"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
	"github.com/matzehuels/envmanifest/pkg/solver"
)

// Special package names.
const (
	Python = "python"
	NumPy  = "numpy"
	Perl   = "perl"
	R      = "r"
)

// Matrix is a set of cases keyed by [Case.Key].
type Matrix map[string]Case

// Add inserts c, collapsing duplicates.
func (m Matrix) Add(c Case) { m[c.Key()] = c }

// Len returns the number of cases.
func (m Matrix) Len() int { return len(m) }

// Cases returns the cases in a stable order.
func (m Matrix) Cases() []Case {
	cases := slices.Collect(maps.Values(m))
	slices.SortFunc(cases, compareCases)
	return cases
}

// MarshalJSON encodes the matrix as an ordered list of cases.
func (m Matrix) MarshalJSON() ([]byte, error) {
	cases := m.Cases()
	if cases == nil {
		cases = []Case{}
	}
	return json.Marshal(cases)
}

// UnmarshalJSON decodes a list of cases.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var cases []Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return err
	}
	*m = make(Matrix, len(cases))
	for _, c := range cases {
		m.Add(NewCase(c...))
	}
	return nil
}

// Options configures [Compute].
type Options struct {
	// Logger receives debug output for rejected cases. Defaults to a
	// discarding logger.
	Logger *log.Logger
}

// WithDefaults returns a copy of the options with zero values replaced.
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Compute returns the version matrix for a recipe's build dependencies.
//
// If numpy is required, each numpy in the index matching the recipe's
// constraint is paired with every python matching that numpy's own python
// dependency; a numpy declaring no python pairs with every python. If only
// python is required, there is one case per matching python. Build
// dependencies on perl or r are NOT_IMPLEMENTED.
//
// A case survives if the remaining build dependencies, by bare name, plus
// the case's pins ("python 2.7.*") are jointly satisfiable. Rejected cases
// are logged and dropped. The result is never empty: with no special
// dependency, or no surviving case, it holds the single empty case.
func Compute(buildDeps []string, idx index.Index, s solver.Solver, opts Options) (Matrix, error) {
	opts = opts.WithDefaults()
	if s == nil {
		s = solver.New(idx)
	}

	specs := make(map[string]matchspec.Spec)
	var order []string
	for _, dep := range buildDeps {
		ms, err := matchspec.Parse(dep)
		if err != nil {
			return nil, err
		}
		if _, seen := specs[ms.Name]; !seen {
			order = append(order, ms.Name)
		}
		specs[ms.Name] = ms
	}
	for _, name := range []string{Perl, R} {
		if _, ok := specs[name]; ok {
			return nil, errors.New(errors.ErrCodeNotImplemented, "%s version matrix not yet implemented", name)
		}
	}

	var raw []Case
	var err error
	if np, ok := specs[NumPy]; ok {
		delete(specs, NumPy)
		raw, err = numpyCases(np, s)
	} else if py, ok := specs[Python]; ok {
		delete(specs, Python)
		raw, err = pythonCases(py, s)
	}
	if err != nil {
		return nil, err
	}

	// Cases must also satisfy the remaining build deps, constraints included.
	var extras []string
	for _, name := range order {
		if ms, ok := specs[name]; ok {
			extras = append(extras, ms.String())
		}
	}

	m := make(Matrix)
	tried := make(map[string]bool)
	for _, c := range raw {
		if tried[c.Key()] {
			continue
		}
		tried[c.Key()] = true

		want := append(slices.Clone(extras), c.Specs()...)
		if _, err := s.Solve(want); err != nil {
			if !errors.Recoverable(err) {
				return nil, err
			}
			opts.Logger.Debug("dropping unsatisfiable case", "case", c.String(), "err", errors.UserMessage(err))
			continue
		}
		m.Add(c)
	}

	if m.Len() == 0 {
		m.Add(Case{})
	}
	return m, nil
}

func numpyCases(np matchspec.Spec, s solver.Solver) ([]Case, error) {
	numpys, err := s.Match(np.String())
	if err != nil {
		return nil, err
	}

	var cases []Case
	for _, n := range numpys {
		npMinor, err := MinorVersion(n.Version)
		if err != nil {
			return nil, err
		}
		var pyDeps []matchspec.Spec
		for _, dep := range n.Depends {
			if ms, err := matchspec.Parse(dep); err == nil && ms.Name == Python {
				pyDeps = append(pyDeps, ms)
			}
		}
		pythons, err := s.Match(Python)
		if err != nil {
			return nil, err
		}
		for _, p := range pythons {
			if !matchesAll(pyDeps, p) {
				continue
			}
			pyMinor, err := MinorVersion(p.Version)
			if err != nil {
				return nil, err
			}
			cases = append(cases, NewCase(Pin{Python, pyMinor}, Pin{NumPy, npMinor}))
		}
	}
	return cases, nil
}

// matchesAll reports whether e satisfies every spec.
func matchesAll(specs []matchspec.Spec, e index.Entry) bool {
	for _, ms := range specs {
		if !ms.Match(e.Name, e.Version, e.Build) {
			return false
		}
	}
	return true
}

func pythonCases(py matchspec.Spec, s solver.Solver) ([]Case, error) {
	pythons, err := s.Match(py.String())
	if err != nil {
		return nil, err
	}
	var cases []Case
	for _, p := range pythons {
		minor, err := MinorVersion(p.Version)
		if err != nil {
			return nil, err
		}
		cases = append(cases, NewCase(Pin{Python, minor}))
	}
	return cases, nil
}
