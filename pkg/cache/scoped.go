package cache

// ScopedKeyer wraps a Keyer with a prefix, separating the entries of
// different build roots that share one backend.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "linux-64:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// MatrixKey generates a prefixed key for matrix caching.
func (k *ScopedKeyer) MatrixKey(dist string, buildDeps []string, indexHash string) string {
	return k.prefix + k.inner.MatrixKey(dist, buildDeps, indexHash)
}

// ManifestKey generates a prefixed key for manifest caching.
func (k *ScopedKeyer) ManifestKey(env string, packages []string, indexHash string) string {
	return k.prefix + k.inner.ManifestKey(env, packages, indexHash)
}
