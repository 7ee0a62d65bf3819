// Package dag provides the directed graph used to represent resolved package
// dependencies.
//
// # Overview
//
// Each node is a package name; an edge A→B means some recipe contributing A
// depends on B at build or run time. The graph drives two things: the order
// in which recipes are built, and the rendered dependency graph.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "scipy"})
//	g.AddNode(dag.Node{ID: "numpy"})
//	g.AddEdge(dag.Edge{From: "scipy", To: "numpy"})
//
// [DAG.TopoSort] then yields "numpy" before "scipy".
//
// # Determinism
//
// Nodes, sources, sinks and the topological order are all reported in
// insertion order. Building the same graph twice yields the same build order.
//
// # Cycles
//
// Package recipes may depend on each other in a loop. [DAG.TopoSort]
// reports such graphs with [ErrGraphHasCycle]; the transform subpackage
// removes back edges so a build order exists.
package dag
