package index

import (
	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// Merge combines per-source indices into one index following tier precedence.
//
// A package name supplied by a tier is claimed once that tier is done; lower
// tiers cannot reintroduce it, not even under a different distribution id.
// Within a tier, every source contributes. Two sources in the same tier
// emitting the identical distribution is an AMBIGUOUS_AUTHORITY error naming
// both. Merged entries are copies tagged with their source.
//
// Sources absent from perSource contribute nothing.
func Merge(perSource map[string]Index, tiers source.Tiers) (Index, error) {
	merged := make(Index)
	claimed := make(map[string]bool)

	for _, tier := range tiers {
		var touched []string
		for _, src := range tier {
			idx := perSource[src]
			for _, key := range idx.Keys() {
				e := idx[key]
				if claimed[e.Name] {
					continue
				}
				touched = append(touched, e.Name)
				if prev, dup := merged[key]; dup {
					return nil, errors.New(errors.ErrCodeAmbiguousAuthority,
						"conflicting package information for %s from %s and %s", key, prev.Source, src)
				}
				e.Depends = append([]string(nil), e.Depends...)
				e.Source = src
				merged[key] = e
			}
		}
		for _, name := range touched {
			claimed[name] = true
		}
	}
	return merged, nil
}
