package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/envmanifest/pkg/errors"
)

// RepodataFile is the index file name inside a platform directory.
const RepodataFile = "repodata.json"

// Repodata is the on-disk index document.
type Repodata struct {
	Info     map[string]any `json:"info"`
	Packages Index          `json:"packages"`
}

// ReadRepodata reads dir/repodata.json. A missing directory or file is an
// empty index: a source that has never been built has no distributions.
func ReadRepodata(dir string) (Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, RepodataFile))
	if os.IsNotExist(err) {
		return Index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read repodata: %w", err)
	}

	var rd Repodata
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", filepath.Join(dir, RepodataFile))
	}
	if rd.Packages == nil {
		rd.Packages = Index{}
	}
	return rd.Packages, nil
}

// WriteRepodata writes idx to dir/repodata.json, creating dir as needed.
// The file is written to a temporary name and renamed into place.
func WriteRepodata(dir string, idx Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if idx == nil {
		idx = Index{}
	}
	data, err := json.MarshalIndent(Repodata{Info: map[string]any{}, Packages: idx}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode repodata: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".repodata-*.json")
	if err != nil {
		return fmt.Errorf("write repodata: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write repodata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write repodata: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, RepodataFile))
}

// Add records e in dir/repodata.json, replacing any entry with the same
// filename. It returns the updated on-disk index.
func Add(dir string, e Entry) (Index, error) {
	idx, err := ReadRepodata(dir)
	if err != nil {
		return nil, err
	}
	e.Source = ""
	idx[e.Filename()] = e
	if err := WriteRepodata(dir, idx); err != nil {
		return nil, err
	}
	return idx, nil
}
