// Package source loads the declarative source registry and environment specs.
//
// A source is a named origin of build recipes: a git checkout, a local
// directory, or a prebuilt channel of distributions. Environments layer
// sources into precedence [Tiers] and list the package specs they want.
//
// Both files are YAML:
//
//	# sources.yaml
//	conda-recipes: {git_url: https://github.com/conda/conda-recipes, git_rev: v1}
//	local:         {path: ~/recipes}
//	defaults:      {channel: /srv/channels/defaults}
//
//	# env.specs/lts.yaml
//	name: lts
//	sources: [[local], [conda-recipes, extra]]
//	packages: [python 2.7*, numpy, iris]
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/envmanifest/pkg/errors"
)

// Source describes where a source's recipes (or distributions) live.
// The resolution engine only ever uses the name; everything else is consumed
// by the recipe catalog and the index loader.
type Source struct {
	Name    string `yaml:"-" json:"name"`
	GitURL  string `yaml:"git_url,omitempty" json:"git_url,omitempty"`
	GitRev  string `yaml:"git_rev,omitempty" json:"git_rev,omitempty"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Channel string `yaml:"channel,omitempty" json:"channel,omitempty"`
}

// IsChannel reports whether the source is a prebuilt channel. Channels provide
// distributions to the index but no recipes.
func (s Source) IsChannel() bool { return s.Channel != "" }

// Dir returns the directory holding the source's recipes. Sources with a
// local path use it directly; git sources are expected to be checked out
// under sourcesRoot/<name>.
func (s Source) Dir(sourcesRoot string) string {
	if s.Path != "" {
		return expandHome(s.Path)
	}
	return filepath.Join(sourcesRoot, s.Name)
}

// ChannelDir returns the channel root with "~" expanded.
func (s Source) ChannelDir() string { return expandHome(s.Channel) }

// Registry maps source name to its descriptor.
type Registry map[string]Source

// Names returns the registered source names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the named source or a NOT_FOUND error.
func (r Registry) Lookup(name string) (Source, error) {
	s, ok := r[name]
	if !ok {
		return Source{}, errors.New(errors.ErrCodeNotFound, "unknown source %q", name)
	}
	return s, nil
}

// LoadSources reads a sources.yaml file.
func LoadSources(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "sources file %s", path)
		}
		return nil, fmt.Errorf("read sources: %w", err)
	}
	reg, err := ParseSources(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// ParseSources decodes and validates a sources document.
func ParseSources(data []byte) (Registry, error) {
	var raw map[string]Source
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode sources")
	}

	reg := make(Registry, len(raw))
	for name, s := range raw {
		if err := errors.ValidateName("source", name); err != nil {
			return nil, err
		}
		origins := 0
		for _, v := range []string{s.GitURL, s.Path, s.Channel} {
			if strings.TrimSpace(v) != "" {
				origins++
			}
		}
		if origins != 1 {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"source %q must set exactly one of git_url, path or channel", name)
		}
		if s.GitRev != "" && s.GitURL == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "source %q sets git_rev without git_url", name)
		}
		s.Name = name
		reg[name] = s
	}
	return reg, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
