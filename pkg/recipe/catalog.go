package recipe

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// Catalog maps source name to the recipes it provides.
type Catalog map[string][]Recipe

// Provides returns the recipes src provides for the package name, in
// catalog order.
func (c Catalog) Provides(src, name string) []Recipe {
	var out []Recipe
	for _, r := range c[src] {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// Discover walks root and loads every recipe below it, tagging each with
// src. Hidden directories are skipped and recipe directories are not
// descended into. Recipes are returned sorted by dist, then path.
func Discover(root, src string) ([]Recipe, error) {
	var recipes []Recipe
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !IsRecipeDir(path) {
			return nil
		}
		r, err := Load(path)
		if err != nil {
			return err
		}
		r.Source = src
		recipes = append(recipes, r)
		return filepath.SkipDir
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err,
				"source %s is not checked out at %s", src, root)
		}
		return nil, fmt.Errorf("discover %s: %w", src, err)
	}

	slices.SortFunc(recipes, func(a, b Recipe) int {
		if c := strings.Compare(a.Dist(), b.Dist()); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return recipes, nil
}

// LoadCatalog discovers the recipes of every named source. Channel sources
// contribute an empty recipe list.
func LoadCatalog(reg source.Registry, sourcesRoot string, names []string) (Catalog, error) {
	cat := make(Catalog, len(names))
	for _, name := range names {
		src, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		if src.IsChannel() {
			cat[name] = nil
			continue
		}
		recipes, err := Discover(src.Dir(sourcesRoot), name)
		if err != nil {
			return nil, err
		}
		cat[name] = recipes
	}
	return cat, nil
}
