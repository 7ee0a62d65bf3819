// Package build runs recipe builds for an environment.
//
// The [Orchestrator] walks an environment's materialized recipes in
// dependency order. For each recipe it reloads the merged index from disk,
// expands the recipe's version matrix, and hands every case whose
// distribution is not yet in the source's index to a [Builder]. A built
// distribution is recorded in the source's repodata.json, so recipes later
// in the order see it when their own index is reloaded.
package build

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/envmanifest/pkg/buildinfo"
	"github.com/matzehuels/envmanifest/pkg/errors"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/matrix"
	"github.com/matzehuels/envmanifest/pkg/recipe"
)

// Job is one build of a recipe for one matrix case.
type Job struct {
	RunID  string
	Recipe recipe.Recipe
	Case   matrix.Case
	// Env holds the builder variables selecting the case (CONDA_PY, ...).
	Env map[string]string
	// OutputDir is the source's distribution directory; the builder must
	// leave <Dist>.tar.bz2 there.
	OutputDir string
	LogPath   string
	// Channels are the index directories of the environment's sources in
	// precedence order, for resolving the build's own dependencies.
	Channels []string
}

// Dist returns the distribution id the job produces.
func (j Job) Dist() string { return j.Recipe.DistFor(j.Case.BuildPrefix()) }

// Artifact returns the path the built distribution is expected at.
func (j Job) Artifact() string { return filepath.Join(j.OutputDir, j.Dist()+index.Extension) }

// Builder builds one job.
type Builder interface {
	Build(ctx context.Context, job Job) error
}

// CommandBuilder runs an external build command with the recipe directory
// as its last argument. The case variables and the job's locations are
// passed through the environment:
//
//	CONDA_PY, CONDA_NPY       case selection
//	ENVMANIFEST_DIST          distribution id to produce
//	ENVMANIFEST_OUTPUT_DIR    where to put <dist>.tar.bz2
//	ENVMANIFEST_CHANNELS      index directories, path-list separated
//	ENVMANIFEST_RUN_ID        run identifier
//
// Output goes to the job's log file.
type CommandBuilder struct {
	Command []string
	Logger  *log.Logger
}

// NewCommandBuilder splits command on whitespace.
func NewCommandBuilder(command string, logger *log.Logger) (*CommandBuilder, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "build command must not be empty")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CommandBuilder{Command: fields, Logger: logger}, nil
}

// Build runs the command and waits for it.
func (b *CommandBuilder) Build(ctx context.Context, job Job) error {
	if err := os.MkdirAll(filepath.Dir(job.LogPath), 0o755); err != nil {
		return err
	}
	logFile, err := os.Create(job.LogPath)
	if err != nil {
		return fmt.Errorf("create build log: %w", err)
	}
	defer logFile.Close()

	args := append(slices.Clone(b.Command[1:]), job.Recipe.Path)
	cmd := exec.CommandContext(ctx, b.Command[0], args...)
	cmd.Dir = job.Recipe.Path
	cmd.Env = append(os.Environ(), jobEnv(job)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	fmt.Fprintf(logFile, "# %s run %s: %s %s\n", buildinfo.UserAgent(), job.RunID, job.Dist(), time.Now().UTC().Format(time.RFC3339))
	b.Logger.Info("Piping build output", "dist", job.Dist(), "log", job.LogPath)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeBuildFailed, err, "build of %s failed, see %s", job.Dist(), job.LogPath)
	}
	return nil
}

func jobEnv(job Job) []string {
	var env []string
	for _, k := range slices.Sorted(maps.Keys(job.Env)) {
		env = append(env, k+"="+job.Env[k])
	}
	return append(env,
		"ENVMANIFEST_DIST="+job.Dist(),
		"ENVMANIFEST_OUTPUT_DIR="+job.OutputDir,
		"ENVMANIFEST_CHANNELS="+strings.Join(job.Channels, string(os.PathListSeparator)),
		"ENVMANIFEST_RUN_ID="+job.RunID,
	)
}
