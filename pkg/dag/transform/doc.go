// Package transform rewrites dependency graphs so they can be ordered.
//
// Recipes occasionally form dependency loops: a package whose tests need a
// tool that is itself built with the package. [BreakCycles] drops the back
// edges of such loops, leaving a graph [dag.DAG.TopoSort] accepts. Callers
// log the removed edges so the operator knows which dependency was ignored
// when choosing the build order.
package transform
