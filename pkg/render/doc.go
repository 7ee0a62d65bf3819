// Package render draws resolved dependency graphs as node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a [dag.DAG] produced by resolution into Graphviz DOT source.
// Each package is a box; an arrow points from a package to what it depends
// on. Packages provided by a lower-priority tier are shaded by tier, and
// dependencies that no source provides are drawn as dashed boxes so gaps in
// the environment are visible at a glance.
//
// # Usage
//
//	dot := render.ToDOT(g, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [Render] selects between the two by [Format].
//
// # Dependencies
//
// SVG output uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly; no system installation is required.
package render
