// Package solver answers satisfiability queries against a package index.
//
// The resolution and matrix engines only depend on the [Solver] interface.
// [New] returns a small deterministic backtracking implementation that is
// good enough for recipe-sized environments; a SAT-based solver can be
// plugged in behind the same interface.
package solver

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
)

// DefaultMaxSteps bounds the backtracking search.
const DefaultMaxSteps = 100_000

// Solver queries one immutable index.
type Solver interface {
	// Match returns every entry satisfying spec, newest first.
	Match(spec string) ([]index.Entry, error)

	// Solve selects one entry per required package name such that all
	// specs and all transitive dependencies hold. The result is sorted by
	// name. It returns an UNSATISFIABLE error if no selection exists.
	Solve(specs []string) ([]index.Entry, error)
}

// Backtracking is the reference [Solver]. It prefers the newest version of
// each package and backtracks on conflicts. Safe for concurrent use: the
// index is never modified.
type Backtracking struct {
	byName   map[string][]index.Entry
	MaxSteps int
}

// New returns a backtracking solver over idx.
func New(idx index.Index) *Backtracking {
	byName := make(map[string][]index.Entry)
	for _, e := range idx {
		byName[e.Name] = append(byName[e.Name], e)
	}
	for _, entries := range byName {
		slices.SortFunc(entries, newestFirst)
	}
	return &Backtracking{byName: byName, MaxSteps: DefaultMaxSteps}
}

func newestFirst(a, b index.Entry) int {
	if c := matchspec.Compare(b.Version, a.Version); c != 0 {
		return c
	}
	if c := cmp.Compare(b.BuildNumber, a.BuildNumber); c != 0 {
		return c
	}
	return strings.Compare(b.Build, a.Build)
}

// Match implements [Solver].
func (s *Backtracking) Match(spec string) ([]index.Entry, error) {
	ms, err := matchspec.Parse(spec)
	if err != nil {
		return nil, err
	}
	return s.candidates(ms.Name, []matchspec.Spec{ms}), nil
}

func (s *Backtracking) candidates(name string, specs []matchspec.Spec) []index.Entry {
	var out []index.Entry
	for _, e := range s.byName[name] {
		ok := true
		for _, ms := range specs {
			if !ms.Match(e.Name, e.Version, e.Build) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out
}

// Solve implements [Solver].
func (s *Backtracking) Solve(specs []string) ([]index.Entry, error) {
	cons := make(map[string][]matchspec.Spec)
	for _, raw := range specs {
		ms, err := matchspec.Parse(raw)
		if err != nil {
			return nil, err
		}
		cons[ms.Name] = append(cons[ms.Name], ms)
	}

	st := &search{solver: s, budget: s.MaxSteps}
	if st.budget <= 0 {
		st.budget = DefaultMaxSteps
	}
	chosen := make(map[string]index.Entry)
	if !st.run(chosen, cons) {
		if st.exhausted {
			return nil, errors.New(errors.ErrCodeUnsatisfiable,
				"search limit of %d steps reached solving [%s]", st.budget, strings.Join(specs, ", "))
		}
		return nil, errors.New(errors.ErrCodeUnsatisfiable,
			"no consistent selection for [%s]%s", strings.Join(specs, ", "), st.hint())
	}

	out := make([]index.Entry, 0, len(chosen))
	for _, name := range slices.Sorted(maps.Keys(chosen)) {
		out = append(out, chosen[name])
	}
	return out, nil
}

type search struct {
	solver    *Backtracking
	budget    int
	steps     int
	exhausted bool
	missing   map[string]bool
}

func (st *search) run(chosen map[string]index.Entry, cons map[string][]matchspec.Spec) bool {
	st.steps++
	if st.steps > st.budget {
		st.exhausted = true
		return false
	}

	name := ""
	for _, n := range slices.Sorted(maps.Keys(cons)) {
		if _, done := chosen[n]; !done {
			name = n
			break
		}
	}
	if name == "" {
		return true
	}

	cands := st.solver.candidates(name, cons[name])
	if len(st.solver.byName[name]) == 0 {
		if st.missing == nil {
			st.missing = make(map[string]bool)
		}
		st.missing[name] = true
	}

	for _, cand := range cands {
		next, ok := extend(cons, cand, chosen)
		if !ok {
			continue
		}
		chosen[name] = cand
		if st.run(chosen, next) {
			return true
		}
		delete(chosen, name)
		if st.exhausted {
			return false
		}
	}
	return false
}

// extend adds cand's dependencies to a copy of cons. It fails if a
// dependency is unparseable or contradicts an already chosen entry.
func extend(cons map[string][]matchspec.Spec, cand index.Entry, chosen map[string]index.Entry) (map[string][]matchspec.Spec, bool) {
	next := make(map[string][]matchspec.Spec, len(cons)+len(cand.Depends))
	for k, v := range cons {
		next[k] = v
	}
	for _, dep := range cand.Depends {
		ms, err := matchspec.Parse(dep)
		if err != nil {
			return nil, false
		}
		if prev, ok := chosen[ms.Name]; ok && !ms.Match(prev.Name, prev.Version, prev.Build) {
			return nil, false
		}
		if ms.Name == cand.Name && !ms.Match(cand.Name, cand.Version, cand.Build) {
			return nil, false
		}
		next[ms.Name] = append(slices.Clip(next[ms.Name]), ms)
	}
	return next, true
}

func (st *search) hint() string {
	if len(st.missing) == 0 {
		return ""
	}
	return "; not in index: " + strings.Join(slices.Sorted(maps.Keys(st.missing)), ", ")
}
