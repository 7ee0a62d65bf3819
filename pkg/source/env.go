package source

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/matchspec"
)

// Environment is one environment spec: which sources to draw from, in which
// precedence, and which packages it must contain.
type Environment struct {
	Name     string   `yaml:"name" json:"name"`
	Sources  Tiers    `yaml:"sources" json:"sources"`
	Packages []string `yaml:"packages" json:"packages"`

	// Path is the file the environment was loaded from.
	Path string `yaml:"-" json:"-"`
}

// ParseEnvironment decodes one environment document and validates it against
// reg. A nil reg skips the unknown-source check.
func ParseEnvironment(data []byte, reg Registry) (Environment, error) {
	var env Environment
	if err := yaml.Unmarshal(data, &env); err != nil {
		return Environment{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode environment")
	}
	if err := env.Validate(reg); err != nil {
		return Environment{}, err
	}
	return env, nil
}

// Validate checks the environment name, its tiers and its package specs.
func (e Environment) Validate(reg Registry) error {
	if err := errors.ValidateName("environment", strings.TrimSpace(e.Name)); err != nil {
		return err
	}
	if err := e.Sources.Validate(reg); err != nil {
		return fmt.Errorf("environment %s: %w", e.Name, err)
	}
	if len(e.Packages) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "environment %s lists no packages", e.Name)
	}
	for _, p := range e.Packages {
		if _, err := matchspec.Parse(p); err != nil {
			return fmt.Errorf("environment %s: %w", e.Name, err)
		}
	}
	return nil
}

// LoadEnvironments loads every environment file matching the glob patterns.
// Matches of each pattern are loaded in lexical order. It is an error for the
// patterns to match nothing, or for two files to declare the same name.
func LoadEnvironments(patterns []string, reg Registry) ([]Environment, error) {
	var envs []Environment
	names := make(map[string]string)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad environment pattern %q", pattern)
		}
		slices.Sort(matches)
		for _, path := range matches {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read environment: %w", err)
			}
			env, err := ParseEnvironment(data, reg)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if prev, dup := names[env.Name]; dup {
				return nil, errors.New(errors.ErrCodeInvalidConfig,
					"environment %q declared in both %s and %s", env.Name, prev, path)
			}
			names[env.Name] = path
			env.Path = path
			envs = append(envs, env)
		}
	}

	if len(envs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no environment specs found matching %v", patterns)
	}
	return envs, nil
}
