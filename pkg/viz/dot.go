// Package viz renders partition trees for inspection: Graphviz DOT text and
// SVG images. Internal nodes show their cutline and held nets, leaves show
// the nets that resolve in their region. Rendering is diagnostic only and
// never affects routing.
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gridroute/gridroute/pkg/net"
	"github.com/gridroute/gridroute/pkg/partition"
)

// Options configures partition-tree rendering.
type Options struct {
	// Detailed lists the held net names in each node label. When false,
	// nodes show only net counts.
	Detailed bool
}

// ToDOT converts a partition tree to Graphviz DOT format. The resulting
// string can be rendered with [RenderSVG].
func ToDOT(tree *partition.Tree, nl net.Netlist, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph partition_tree {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	ids := make(map[*partition.Node]int)
	next := 0
	tree.Root().Walk(func(n *partition.Node) {
		ids[n] = next
		next++
	})

	tree.Root().Walk(func(n *partition.Node) {
		label := fmtLabel(n, nl, opts.Detailed)
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if n.IsLeaf() {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", ids[n], strings.Join(attrs, ", "))
	})

	buf.WriteString("\n")
	tree.Root().Walk(func(n *partition.Node) {
		if n.Left != nil {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", ids[n], ids[n.Left])
		}
		if n.Right != nil {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", ids[n], ids[n.Right])
		}
	})

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *partition.Node, nl net.Netlist, detailed bool) string {
	var head string
	if n.IsLeaf() {
		head = fmt.Sprintf("leaf: %d nets", len(n.Nets))
	} else {
		head = fmt.Sprintf("cut %s=%d: %d nets", n.CutlineAxis, n.CutlinePos, len(n.Nets))
	}
	if !detailed || len(n.Nets) == 0 {
		return head
	}

	names := make([]string, len(n.Nets))
	for i, id := range n.Nets {
		names[i] = nl.Name(id)
	}
	return head + "\n" + strings.Join(names, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
