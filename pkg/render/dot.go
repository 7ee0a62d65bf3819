package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/envmanifest/pkg/dag"
	"github.com/matzehuels/envmanifest/pkg/errors"
)

// Format is an output format for [Render].
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatDOT, FormatSVG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unsupported graph format %q (want dot or svg)", s)
}

// Options configures diagram generation.
type Options struct {
	// Detailed adds versions and sources to node labels and draws packages
	// that no source provides. When false, only the package name is shown.
	Detailed bool
}

// tierFills shades packages by the tier that provided them; deeper tiers
// reuse the last colour.
var tierFills = []string{"white", "#e8f0fe", "#fef7e0", "#fce8e6"}

// ToDOT converts a resolution graph to Graphviz DOT source. Nodes and edges
// are written in graph order, so the output is stable.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(*n, opts.Detailed), ", "))
	}
	if opts.Detailed {
		for _, name := range missing(g) {
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\", fontcolor=grey40];\n", name, name+"\n(missing)")
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	lines := []string{n.ID}
	if v, ok := n.Meta["versions"].(string); ok && v != "" {
		lines = append(lines, v)
	}
	if srcs, ok := n.Meta["sources"].([]string); ok && len(srcs) > 0 {
		lines = append(lines, "["+strings.Join(srcs, ", ")+"]")
	}
	return strings.Join(lines, "\n")
}

func fmtAttrs(n dag.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if tier, ok := n.Meta["tier"].(int); ok && tier > 0 {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", tierFills[min(tier, len(tierFills)-1)]))
	}
	return attrs
}

func missing(g *dag.DAG) []string {
	names, _ := g.Meta()["missing"].([]string)
	var out []string
	for _, name := range names {
		if _, ok := g.Node(name); !ok {
			out = append(out, name)
		}
	}
	return out
}

// Render produces the graph in the requested format.
func Render(ctx context.Context, g *dag.DAG, format Format, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported graph format %q", format)
	}
}
