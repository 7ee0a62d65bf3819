package config

import "path/filepath"

// Layout places everything envmanifest writes under one root:
//
//	<root>/sources/<source>                      git checkouts
//	<root>/recipes/env_<env>_recipes/            materialized recipes
//	<root>/dist/<source>/<platform>/             built distributions + repodata.json
//	<root>/indices/index_for_<env>/<platform>/   merged index of an environment
type Layout struct {
	Root     string
	Platform string
}

// Layout returns the directory layout for this configuration.
func (c *Config) Layout() Layout {
	return Layout{Root: c.Root, Platform: c.Platform}
}

// SourcesRoot is where git sources are expected to be checked out.
func (l Layout) SourcesRoot() string { return filepath.Join(l.Root, "sources") }

// RecipesDir is the materialized recipe directory of an environment.
func (l Layout) RecipesDir(env string) string {
	return filepath.Join(l.Root, "recipes", "env_"+env+"_recipes")
}

// DistRoot is the distribution root shared by all sources.
func (l Layout) DistRoot() string { return filepath.Join(l.Root, "dist") }

// DistDir is the platform directory holding a source's built distributions.
func (l Layout) DistDir(source string) string {
	return filepath.Join(l.DistRoot(), source, l.Platform)
}

// IndexDir is the platform directory of an environment's merged index.
func (l Layout) IndexDir(env string) string {
	return filepath.Join(l.Root, "indices", "index_for_"+env, l.Platform)
}

// BuildLog is the log file of builds run from a recipe directory.
func (l Layout) BuildLog(recipeDir string) string {
	return filepath.Join(recipeDir, "build."+l.Platform+".log")
}
