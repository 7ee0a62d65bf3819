// Package deploy plans bringing an install prefix in line with a manifest.
//
// Planning checks that every distribution the manifest names has been
// built, then works out what to link and what to unlink. Performing the
// link itself is left to the package installer.
package deploy

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/manifest"
)

// MetaDir is the directory inside a prefix recording linked distributions,
// one <dist>.json file per distribution.
const MetaDir = "conda-meta"

// Artifact is a built distribution to link.
type Artifact struct {
	Dist   string `json:"dist"`
	Source string `json:"source"`
	Path   string `json:"path"`
}

// Plan is the set of changes that deploys a manifest.
type Plan struct {
	// BySource groups the manifest's distributions by source, in manifest
	// order.
	BySource map[string][]string `json:"by_source"`
	// Link lists the artifacts not yet linked into the prefix.
	Link []Artifact `json:"link"`
	// Unlink lists linked distributions the manifest no longer names.
	Unlink []string `json:"unlink"`
}

// Empty reports whether the prefix already matches the manifest.
func (p *Plan) Empty() bool { return len(p.Link) == 0 && len(p.Unlink) == 0 }

// NewPlan checks that the manifest's artifacts exist in their sources'
// index directories and diffs the manifest against the linked
// distributions. A missing artifact is a MISSING_ARTIFACT error.
func NewPlan(lines []manifest.Line, loc index.Locator, linked []string) (*Plan, error) {
	plan := &Plan{BySource: make(map[string][]string)}
	wanted := make(map[string]bool, len(lines))
	isLinked := make(map[string]bool, len(linked))
	for _, d := range linked {
		isLinked[d] = true
	}

	for _, l := range lines {
		dist := l.Dist()
		dir, err := loc.Dir(l.Source)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, dist+index.Extension)
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMissingArtifact, err,
				"could not find %s at %s. The build may be out of sync with the manifest; "+
					"re-run the build of this environment. A manifest does not guarantee "+
					"that every distribution still comes from an existing recipe", dist, path)
		}
		wanted[dist] = true
		plan.BySource[l.Source] = append(plan.BySource[l.Source], dist)
		if !isLinked[dist] {
			plan.Link = append(plan.Link, Artifact{Dist: dist, Source: l.Source, Path: path})
		}
	}

	for _, d := range linked {
		if !wanted[d] {
			plan.Unlink = append(plan.Unlink, d)
		}
	}
	slices.Sort(plan.Unlink)
	return plan, nil
}

// Linked returns the distributions linked into prefix, sorted. A prefix
// that does not exist has nothing linked.
func Linked(prefix string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(prefix, MetaDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	slices.Sort(out)
	return out, nil
}
