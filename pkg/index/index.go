// Package index models the package index the solver and matrix engine query,
// and merges per-source indices according to source precedence.
//
// An [Index] maps a distribution filename ("numpy-1.9.2-py27_0.tar.bz2") to
// its [Entry]. Indices are treated as immutable snapshots: after a build adds
// distributions, the caller recomputes a fresh merged index from disk instead
// of patching the one it holds.
package index

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/cache"
)

// Extension is the archive suffix of a built distribution.
const Extension = ".tar.bz2"

// Entry is the solver-relevant metadata of one distribution.
type Entry struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`

	// Source is the source the entry was merged from. Empty in per-source
	// indices.
	Source string `json:"source,omitempty"`
}

// Dist returns the distribution id "name-version-build".
func (e Entry) Dist() string { return Dist(e.Name, e.Version, e.Build) }

// Filename returns the archive name the entry is keyed by.
func (e Entry) Filename() string { return e.Dist() + Extension }

// Dist joins a distribution id.
func Dist(name, version, build string) string {
	return name + "-" + version + "-" + build
}

// Index maps distribution filename to entry.
type Index map[string]Entry

// New builds an index keyed by each entry's filename.
func New(entries ...Entry) Index {
	idx := make(Index, len(entries))
	for _, e := range entries {
		idx[e.Filename()] = e
	}
	return idx
}

// Has reports whether the index contains the distribution id.
func (idx Index) Has(dist string) bool {
	_, ok := idx[dist+Extension]
	return ok
}

// Keys returns the filenames in sorted order.
func (idx Index) Keys() []string {
	return slices.Sorted(maps.Keys(idx))
}

// Names returns the distinct package names in sorted order.
func (idx Index) Names() []string {
	seen := make(map[string]struct{})
	for _, e := range idx {
		seen[e.Name] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// ByName returns every entry for name, sorted by filename.
func (idx Index) ByName(name string) []Entry {
	var out []Entry
	for _, key := range idx.Keys() {
		if e := idx[key]; e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Hash returns a stable content hash, used to key cached matrix results.
func (idx Index) Hash() string {
	var b strings.Builder
	for _, key := range idx.Keys() {
		data, _ := json.Marshal(idx[key])
		b.WriteString(key)
		b.Write(data)
		b.WriteByte('\n')
	}
	return cache.Hash([]byte(b.String()))
}
