// Package manifest realises the locked manifest of an environment.
//
// A manifest lists every distribution the environment contains, one per
// line, as fixed-width columns:
//
//	numpy                1.9.2        py27_0       conda-recipes
//	python               2.7.9        0            defaults
//
// The columns are name, version, build string and the source the
// distribution was merged from. Lines are sorted by distribution.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/solver"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// DefaultOutfile is the manifest path pattern; "{name}" is replaced by the
// environment name.
const DefaultOutfile = "env_{name}.manifest"

// Line is one manifest entry.
type Line struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build"`
	Source  string `json:"source"`
}

// Dist returns the distribution id of the line.
func (l Line) Dist() string { return index.Dist(l.Name, l.Version, l.Build) }

// String formats the line in manifest columns.
func (l Line) String() string {
	return fmt.Sprintf("%-20s %-12s %-12s %s", l.Name, l.Version, l.Build, l.Source)
}

// Realise solves the environment's packages against its merged index. A nil
// solver uses [solver.New]. An unsatisfiable environment is an UNSATISFIABLE
// error; no partial manifest is returned.
func Realise(env source.Environment, idx index.Index, s solver.Solver) ([]Line, error) {
	if s == nil {
		s = solver.New(idx)
	}
	entries, err := s.Solve(env.Packages)
	if err != nil {
		return nil, fmt.Errorf("realise %s: %w", env.Name, err)
	}

	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		src := e.Source
		if merged, ok := idx[e.Filename()]; ok && merged.Source != "" {
			src = merged.Source
		}
		if src == "" {
			return nil, errors.New(errors.ErrCodeInternal, "%s has no source in the merged index", e.Dist())
		}
		lines = append(lines, Line{Name: e.Name, Version: e.Version, Build: e.Build, Source: src})
	}
	slices.SortFunc(lines, func(a, b Line) int {
		return strings.Compare(a.Dist()+index.Extension, b.Dist()+index.Extension)
	})
	return lines, nil
}

// Write writes lines in manifest format.
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := fmt.Fprintln(bw, l.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Parse reads a manifest. Blank lines are skipped; any other line must have
// exactly four fields.
func Parse(r io.Reader) ([]Line, error) {
	var lines []Line
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"manifest line %d: want name, version, build and source, got %q", n, sc.Text())
		}
		lines = append(lines, Line{Name: fields[0], Version: fields[1], Build: fields[2], Source: fields[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return lines, nil
}

// Outfile expands a manifest path pattern for an environment.
func Outfile(pattern, env string) string {
	if pattern == "" {
		pattern = DefaultOutfile
	}
	return strings.ReplaceAll(pattern, "{name}", env)
}

// WriteFile writes lines to path, creating its directory.
func WriteFile(path string, lines []Line) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if err := Write(f, lines); err != nil {
		f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	return f.Close()
}

// ReadFile parses the manifest at path.
func ReadFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// WriteIndex writes the environment's full merged index, source tags
// included, as dir/repodata.json.
func WriteIndex(dir string, merged index.Index) error {
	return index.WriteRepodata(dir, merged)
}
