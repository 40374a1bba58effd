package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-spygen/internal/generate"
	"github.com/l3aro/go-spygen/pkg/hierarchy"
)

var (
	treeJSON  bool
	treeDepth int
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Display the instantiation tree below the top module",
	Long: `Resolve the top module and print its elaborated instantiation tree.
Instances of modules that are not defined in the RTL tree are shown in red.

Examples:
  spygen tree
  spygen tree --top soc --depth 2
  spygen tree --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := generate.New(cfg, logger())
		if err != nil {
			return err
		}
		design, err := p.Discover(cmd.Context())
		if err != nil {
			return err
		}

		top, err := hierarchy.ResolveTop(design.Registry, cfg.TopModule)
		if err != nil {
			return err
		}
		root, err := hierarchy.BuildTree(design.Registry, top, cfg.RootToken)
		if err != nil {
			return err
		}
		prune(root, treeDepth)

		if treeJSON {
			data, err := json.MarshalIndent(root, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		printTree(cmd.OutOrStdout(), root)
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVarP(&treeJSON, "json", "j", false, "Output as JSON")
	treeCmd.Flags().IntVarP(&treeDepth, "depth", "d", 0, "Maximum depth to print (0 for unlimited)")
}

// prune drops nodes deeper than depth. A depth of 0 keeps everything.
func prune(node *hierarchy.TreeNode, depth int) {
	if depth <= 0 {
		return
	}
	node.Walk(func(n *hierarchy.TreeNode, d int) {
		if d >= depth {
			n.Children = nil
		}
	})
}

func printTree(w io.Writer, root *hierarchy.TreeNode) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", bold(root.Module), counts(root))
	for i, child := range root.Children {
		printNode(w, child, "", i == len(root.Children)-1)
	}
}

func printNode(w io.Writer, node *hierarchy.TreeNode, prefix string, isLast bool) {
	connector := "├── "
	next := prefix + "│   "
	if isLast {
		connector = "└── "
		next = prefix + "    "
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if node.Unresolved {
		fmt.Fprintf(w, "%s%s%s %s\n", prefix, connector, node.Alias, red("("+node.Module+", unresolved)"))
	} else {
		fmt.Fprintf(w, "%s%s%s %s %s\n", prefix, connector, node.Alias, cyan("("+node.Module+")"), counts(node))
	}

	for i, child := range node.Children {
		printNode(w, child, next, i == len(node.Children)-1)
	}
}

func counts(node *hierarchy.TreeNode) string {
	faint := color.New(color.Faint).SprintFunc()
	return faint(fmt.Sprintf("[%d ports, %d registers]", node.Ports, node.Registers))
}
