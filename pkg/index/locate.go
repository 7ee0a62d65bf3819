package index

import (
	"fmt"
	"path/filepath"

	"github.com/matzehuels/envmanifest/pkg/source"
)

// Locator finds the on-disk index of each source. Built sources keep their
// distributions under DistRoot/<source>/<platform>; channel sources are
// read from <channel>/<platform>.
type Locator struct {
	Registry source.Registry
	DistRoot string
	Platform string
}

// Dir returns the platform directory holding the named source's
// repodata.json.
func (l Locator) Dir(name string) (string, error) {
	src, err := l.Registry.Lookup(name)
	if err != nil {
		return "", err
	}
	if src.IsChannel() {
		return filepath.Join(src.ChannelDir(), l.Platform), nil
	}
	return filepath.Join(l.DistRoot, name, l.Platform), nil
}

// Load reads the index of every source in tiers and merges them. A source
// that has built nothing yet contributes an empty index.
func (l Locator) Load(tiers source.Tiers) (map[string]Index, Index, error) {
	perSource := make(map[string]Index)
	for _, name := range tiers.Flatten() {
		dir, err := l.Dir(name)
		if err != nil {
			return nil, nil, err
		}
		idx, err := ReadRepodata(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("index of source %s: %w", name, err)
		}
		perSource[name] = idx
	}
	merged, err := Merge(perSource, tiers)
	if err != nil {
		return nil, nil, err
	}
	return perSource, merged, nil
}
