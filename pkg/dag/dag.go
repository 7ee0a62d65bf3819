package dag

import (
	"errors"
	"slices"
)

// Errors returned by graph construction and ordering.
var (
	ErrInvalidNodeID     = errors.New("node ID must not be empty")
	ErrDuplicateNodeID   = errors.New("duplicate node ID")
	ErrUnknownSourceNode = errors.New("unknown source node")
	ErrUnknownTargetNode = errors.New("unknown target node")
	ErrGraphHasCycle     = errors.New("graph contains a cycle")
)

// Metadata holds per-node or per-graph attributes such as a package's
// contributing sources.
type Metadata map[string]any

// Node is one package (or recipe) of the graph.
type Node struct {
	ID   string
	Meta Metadata
}

// Edge points From a package To one of its dependencies.
type Edge struct {
	From string
	To   string
}

// DAG is a directed dependency graph. It may hold cycles until
// transform.BreakCycles has run; [DAG.TopoSort] reports any that remain.
//
// Every listing is in insertion order. Use [New]; the zero value is not
// usable, and a DAG must not be shared between goroutines while it is
// modified.
type DAG struct {
	nodes map[string]*Node
	order []string
	edges []Edge
	out   map[string][]string
	in    map[string][]string
	meta  Metadata
}

// New creates an empty graph carrying meta.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes: make(map[string]*Node),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		meta:  meta,
	}
}

// Meta returns the graph-level metadata.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds n. The ID must be non-empty and unused.
func (d *DAG) AddNode(n Node) error {
	switch {
	case n.ID == "":
		return ErrInvalidNodeID
	case d.nodes[n.ID] != nil:
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	d.order = append(d.order, n.ID)
	return nil
}

// AddEdge connects two existing nodes.
func (d *DAG) AddEdge(e Edge) error {
	switch {
	case d.nodes[e.From] == nil:
		return ErrUnknownSourceNode
	case d.nodes[e.To] == nil:
		return ErrUnknownTargetNode
	}
	d.edges = append(d.edges, e)
	d.out[e.From] = append(d.out[e.From], e.To)
	d.in[e.To] = append(d.in[e.To], e.From)
	return nil
}

// RemoveEdge drops every edge from→to.
func (d *DAG) RemoveEdge(from, to string) {
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e == Edge{From: from, To: to} })
	d.out[from] = slices.DeleteFunc(d.out[from], func(id string) bool { return id == to })
	d.in[to] = slices.DeleteFunc(d.in[to], func(id string) bool { return id == from })
}

// Node looks up a node by ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Nodes returns the graph's nodes.
func (d *DAG) Nodes() []*Node {
	out := make([]*Node, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.nodes[id])
	}
	return out
}

// Edges returns a copy of the graph's edges.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.order) }

// EdgeCount returns the number of edges.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the dependencies of id. The slice must not be modified.
func (d *DAG) Children(id string) []string { return d.out[id] }

// Parents returns the dependents of id. The slice must not be modified.
func (d *DAG) Parents(id string) []string { return d.in[id] }

// Sources returns the nodes nothing depends on.
func (d *DAG) Sources() []*Node {
	var out []*Node
	for _, id := range d.order {
		if len(d.in[id]) == 0 {
			out = append(out, d.nodes[id])
		}
	}
	return out
}
