package source

import (
	"github.com/matzehuels/envmanifest/pkg/errors"
)

// Tiers is an ordered list of precedence tiers, highest precedence first.
// Sources within one tier are co-equal.
type Tiers [][]string

// Validate checks that every tier is non-empty, that every name is known to
// reg, and that no source appears more than once across all tiers.
// A nil reg skips the unknown-source check.
func (t Tiers) Validate(reg Registry) error {
	if len(t) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no source tiers given")
	}
	seen := make(map[string]int)
	for i, tier := range t {
		if len(tier) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "source tier %d is empty", i)
		}
		for _, name := range tier {
			if prev, dup := seen[name]; dup {
				return errors.New(errors.ErrCodeInvalidConfig,
					"source %q appears in tier %d and tier %d", name, prev, i)
			}
			seen[name] = i
			if reg != nil {
				if _, ok := reg[name]; !ok {
					return errors.New(errors.ErrCodeInvalidConfig, "tier %d references unknown source %q", i, name)
				}
			}
		}
	}
	return nil
}

// Flatten returns all source names in precedence order.
func (t Tiers) Flatten() []string {
	var out []string
	for _, tier := range t {
		out = append(out, tier...)
	}
	return out
}
