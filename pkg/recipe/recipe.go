// Package recipe loads build recipes from source checkouts and materializes
// an environment's chosen recipes into a single working directory.
//
// A recipe is a directory holding either a conda-style meta.yaml or an
// equivalent recipe.toml:
//
//	package:
//	  name: iris
//	  version: "1.8.0"
//	build:
//	  number: 0
//	requirements:
//	  build: [python, numpy >=1.8]
//	  run: [python, numpy]
package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
)

// Recipe metadata file names, in lookup order.
const (
	MetaYAML   = "meta.yaml"
	RecipeTOML = "recipe.toml"
)

// Recipe is one buildable package definition drawn from a source.
type Recipe struct {
	Source      string
	Name        string
	Version     string
	Build       string // explicit build string; empty means derived per build case
	BuildNumber int
	BuildDeps   []string
	RunDeps     []string
	Path        string
}

// BuildString returns the build string for a build case. An explicit build
// string always wins. Otherwise the case prefix (e.g. "np19py27") is joined
// to the build number, and without a prefix the number stands alone.
func (r Recipe) BuildString(casePrefix string) string {
	if r.Build != "" {
		return r.Build
	}
	n := strconv.Itoa(r.BuildNumber)
	if casePrefix == "" {
		return n
	}
	return casePrefix + "_" + n
}

// Dist returns the distribution id of the recipe outside any build case.
func (r Recipe) Dist() string {
	return index.Dist(r.Name, r.Version, r.BuildString(""))
}

// DistFor returns the distribution id produced for a build case.
func (r Recipe) DistFor(casePrefix string) string {
	return index.Dist(r.Name, r.Version, r.BuildString(casePrefix))
}

// Deps returns run then build dependencies.
func (r Recipe) Deps() []string {
	out := make([]string, 0, len(r.RunDeps)+len(r.BuildDeps))
	out = append(out, r.RunDeps...)
	return append(out, r.BuildDeps...)
}

// Entry returns the index entry a build of r for the given case produces.
// pins are extra run constraints the case imposes, such as "python 2.7*".
func (r Recipe) Entry(casePrefix string, pins ...string) index.Entry {
	depends := append([]string(nil), r.RunDeps...)
	depends = append(depends, pins...)
	return index.Entry{
		Name:        r.Name,
		Version:     r.Version,
		Build:       r.BuildString(casePrefix),
		BuildNumber: r.BuildNumber,
		Depends:     depends,
	}
}

type metaFile struct {
	Package struct {
		Name    string `yaml:"name" toml:"name"`
		Version string `yaml:"version" toml:"version"`
	} `yaml:"package" toml:"package"`
	Build struct {
		Number int    `yaml:"number" toml:"number"`
		String string `yaml:"string" toml:"string"`
	} `yaml:"build" toml:"build"`
	Requirements struct {
		Build []string `yaml:"build" toml:"build"`
		Run   []string `yaml:"run" toml:"run"`
	} `yaml:"requirements" toml:"requirements"`
}

// IsRecipeDir reports whether dir holds recipe metadata.
func IsRecipeDir(dir string) bool {
	for _, name := range []string{MetaYAML, RecipeTOML} {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && !fi.IsDir() {
			return true
		}
	}
	return false
}

// Load reads the recipe in dir. The returned recipe has no Source set.
func Load(dir string) (Recipe, error) {
	var meta metaFile
	switch {
	case fileExists(filepath.Join(dir, MetaYAML)):
		data, err := os.ReadFile(filepath.Join(dir, MetaYAML))
		if err != nil {
			return Recipe{}, fmt.Errorf("read recipe: %w", err)
		}
		if err := yaml.Unmarshal(data, &meta); err != nil {
			return Recipe{}, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decode %s", filepath.Join(dir, MetaYAML))
		}
	case fileExists(filepath.Join(dir, RecipeTOML)):
		if _, err := toml.DecodeFile(filepath.Join(dir, RecipeTOML), &meta); err != nil {
			return Recipe{}, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decode %s", filepath.Join(dir, RecipeTOML))
		}
	default:
		return Recipe{}, errors.New(errors.ErrCodeFileNotFound, "no %s or %s in %s", MetaYAML, RecipeTOML, dir)
	}

	r := Recipe{
		Name:        strings.TrimSpace(meta.Package.Name),
		Version:     strings.TrimSpace(meta.Package.Version),
		Build:       strings.TrimSpace(meta.Build.String),
		BuildNumber: meta.Build.Number,
		BuildDeps:   meta.Requirements.Build,
		RunDeps:     meta.Requirements.Run,
		Path:        dir,
	}
	if err := r.validate(); err != nil {
		return Recipe{}, fmt.Errorf("%s: %w", dir, err)
	}
	return r, nil
}

func (r Recipe) validate() error {
	if err := errors.ValidateName("package", r.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "bad package name")
	}
	if r.Version == "" || strings.ContainsAny(r.Version, " -") {
		return errors.New(errors.ErrCodeInvalidRecipe, "package %s has invalid version %q", r.Name, r.Version)
	}
	if strings.ContainsAny(r.Build, " -") {
		return errors.New(errors.ErrCodeInvalidRecipe, "package %s has invalid build string %q", r.Name, r.Build)
	}
	if r.BuildNumber < 0 {
		return errors.New(errors.ErrCodeInvalidRecipe, "package %s has negative build number", r.Name)
	}
	for _, dep := range r.Deps() {
		if _, err := matchspec.Parse(dep); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRecipe, err, "package %s", r.Name)
		}
	}
	return nil
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
