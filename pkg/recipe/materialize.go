package recipe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/errors"
)

// SourceFileName is the side-channel file recording which source a
// materialized recipe was drawn from.
const SourceFileName = "source.json"

// SourceFile is the content of [SourceFileName].
type SourceFile struct {
	Name string `json:"name"`
}

// LinkName returns the directory name a recipe is materialized under.
func LinkName(r Recipe) string { return r.Source + "_" + r.Dist() }

// Materialize recreates location as a flat directory of symlinks, one per
// recipe, named "<source>_<dist>", and records the source in each recipe's
// source.json. Any previous content of location is removed first. Two
// recipes from one source with the same dist are an AMBIGUOUS_AUTHORITY
// error. It returns the created link paths in input order.
func Materialize(recipes []Recipe, location string) ([]string, error) {
	if err := os.RemoveAll(location); err != nil {
		return nil, fmt.Errorf("clear %s: %w", location, err)
	}
	if err := os.MkdirAll(location, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", location, err)
	}

	links := make([]string, 0, len(recipes))
	for _, r := range recipes {
		link := filepath.Join(location, LinkName(r))
		if _, err := os.Lstat(link); err == nil {
			return nil, errors.New(errors.ErrCodeAmbiguousAuthority,
				"%s has multiple recipes for %s", r.Source, r.Dist())
		}
		target, err := filepath.Abs(r.Path)
		if err != nil {
			return nil, err
		}
		if err := os.Symlink(target, link); err != nil {
			return nil, fmt.Errorf("link recipe %s: %w", r.Dist(), err)
		}
		if err := WriteSourceFile(link, r.Source); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}

// WriteSourceFile writes dir/source.json.
func WriteSourceFile(dir, src string) error {
	data, err := json.Marshal(SourceFile{Name: src})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, SourceFileName), data, 0o644); err != nil {
		return fmt.Errorf("write source file: %w", err)
	}
	return nil
}

// ReadSourceFile reads the source name recorded in dir/source.json.
func ReadSourceFile(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, SourceFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "recipe %s has no %s", dir, SourceFileName)
		}
		return "", err
	}
	var sf SourceFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decode %s", filepath.Join(dir, SourceFileName))
	}
	if sf.Name == "" {
		return "", errors.New(errors.ErrCodeInvalidRecipe, "%s in %s names no source", SourceFileName, dir)
	}
	return sf.Name, nil
}

// LoadMaterialized loads every recipe in a directory created by
// [Materialize], with Source taken from each source.json. Recipes are
// returned in link-name order.
func LoadMaterialized(location string) ([]Recipe, error) {
	entries, err := os.ReadDir(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no recipes materialized at %s", location)
		}
		return nil, err
	}

	var recipes []Recipe
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(location, e.Name())
		if !IsRecipeDir(dir) {
			continue
		}
		r, err := Load(dir)
		if err != nil {
			return nil, err
		}
		if r.Source, err = ReadSourceFile(dir); err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	slices.SortFunc(recipes, func(a, b Recipe) int { return strings.Compare(LinkName(a), LinkName(b)) })
	return recipes, nil
}
