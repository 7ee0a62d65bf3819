package cache

import (
	"slices"
)

// Keyer builds cache keys. Implementations must return equal keys exactly
// when the cached computation would produce equal results.
type Keyer interface {
	// MatrixKey identifies the version matrix of one recipe against one
	// index snapshot.
	MatrixKey(dist string, buildDeps []string, indexHash string) string
	// ManifestKey identifies the manifest of an environment's packages
	// solved against one index snapshot.
	ManifestKey(env string, packages []string, indexHash string) string
}

// DefaultKeyer hashes every input into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// MatrixKey returns "matrix:<sha256>". Dependency order does not matter.
func (DefaultKeyer) MatrixKey(dist string, buildDeps []string, indexHash string) string {
	return hashKey("matrix", dist, sorted(buildDeps), indexHash)
}

// ManifestKey returns "manifest:<sha256>". Package order does not matter.
func (DefaultKeyer) ManifestKey(env string, packages []string, indexHash string) string {
	return hashKey("manifest", env, sorted(packages), indexHash)
}

func sorted(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	if out == nil {
		out = []string{}
	}
	return out
}
