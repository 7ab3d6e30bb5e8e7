package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridroute/gridroute/pkg/partition"
	"github.com/gridroute/gridroute/pkg/problem"
	"github.com/gridroute/gridroute/pkg/route"
	"github.com/gridroute/gridroute/pkg/viz"
)

// partitionCommand creates the partition command for inspecting the spatial
// partition tree a problem would route with.
func (c *CLI) partitionCommand() *cobra.Command {
	var (
		bbFactor int
		dotPath  string
		svgPath  string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "partition <problem.json>",
		Short: "Inspect the spatial partition tree of a problem (debug tool)",
		Long: `Partition builds the first-iteration partition tree for a problem and
reports its shape: node count, depth, and how many nets are held at
cutline nodes versus resolved in leaves. The tree can be exported as
Graphviz DOT or rendered to SVG.`,
		Example: `  # Show tree statistics
  gridroute partition design.json

  # Export the tree
  gridroute partition design.json --dot tree.dot --svg tree.svg --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			prob, err := problem.LoadFile(args[0])
			if err != nil {
				return err
			}
			graph, netlist := prob.Build()
			state := route.NewState(graph, netlist)
			state.LoadBBoxes(netlist, bbFactor)

			prog := newProgress(logger)
			tree := partition.Build(netlist, state.BBs, graph.Grid())
			prog.done(fmt.Sprintf("Partitioned %d nets", len(prob.Nets)))

			depth, leaves, crossing := 0, 0, 0
			var measure func(n *partition.Node, level int)
			measure = func(n *partition.Node, level int) {
				if n == nil {
					return
				}
				if level > depth {
					depth = level
				}
				if n.IsLeaf() {
					leaves++
				} else {
					crossing += len(n.Nets)
				}
				measure(n.Left, level+1)
				measure(n.Right, level+1)
			}
			measure(tree.Root(), 0)

			printSuccess("partition tree built")
			printKeyValue("Nets", fmt.Sprintf("%d", len(prob.Nets)))
			printKeyValue("Nodes", fmt.Sprintf("%d", tree.CountNodes()))
			printKeyValue("Depth", fmt.Sprintf("%d", depth))
			printKeyValue("Leaves", fmt.Sprintf("%d", leaves))
			printKeyValue("At cutlines", fmt.Sprintf("%d", crossing))

			if dotPath == "" && svgPath == "" {
				return nil
			}

			dot := viz.ToDOT(tree, netlist, viz.Options{Detailed: detailed})
			if dotPath != "" {
				if err := os.WriteFile(dotPath, []byte(dot), 0o644); err != nil {
					return fmt.Errorf("write DOT: %w", err)
				}
				printFile(dotPath)
			}
			if svgPath != "" {
				spin := newSpinner("Rendering SVG...")
				spin.Start()
				svg, err := viz.RenderSVG(dot)
				spin.Stop()
				if err != nil {
					return fmt.Errorf("render SVG: %w", err)
				}
				if err := os.WriteFile(svgPath, svg, 0o644); err != nil {
					return fmt.Errorf("write SVG: %w", err)
				}
				printFile(svgPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&bbFactor, "bb-factor", 3, "bounding box expansion around net terminals")
	cmd.Flags().StringVar(&dotPath, "dot", "", "write Graphviz DOT to this file")
	cmd.Flags().StringVar(&svgPath, "svg", "", "render the tree to this SVG file")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list held net names in node labels")

	return cmd
}
