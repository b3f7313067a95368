package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/regdsl"
	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

var (
	mapAsYAML bool
	mapAsDSL  bool
	mapRanges bool
	mapTree   bool
)

var mapCmd = &cobra.Command{
	Use:   "map [path]",
	Short: "Show the register map",
	Long: `Print the registers of the active map, optionally restricted to a group or a
single register. The map can also be exported as YAML or register DSL, which
both load back with --map.

Examples:
  ad954x map sysclk.pll
  ad954x map --tree
  ad954x map --dsl > ad9546.reg
  ad954x map --ranges`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().BoolVar(&mapAsYAML, "yaml", false, "export the declaration as YAML")
	mapCmd.Flags().BoolVar(&mapAsDSL, "dsl", false, "export the declaration and its tables as register DSL")
	mapCmd.Flags().BoolVar(&mapRanges, "ranges", false, "print the used address ranges")
	mapCmd.Flags().BoolVar(&mapTree, "tree", false, "print the group tree")
}

func runMap(cmd *cobra.Command, args []string) error {
	m, err := loadMap()
	if err != nil {
		return fmt.Errorf("failed to load register map: %w", err)
	}
	out := cmd.OutOrStdout()

	switch {
	case mapAsYAML:
		data, err := regmap.EncodeYAML(m.Decl())
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case mapAsDSL:
		return regdsl.Write(out, m.Decl(), usedTables(m))
	case mapRanges:
		ranges := m.Ranges()
		for _, r := range ranges {
			fmt.Fprintf(out, "%s  (%d)\n", r, int(r.End)-int(r.Start)+1)
		}
		fmt.Fprintf(out, "%d addresses in %d ranges\n", len(m.Addresses()), len(ranges))
		return nil
	case mapTree:
		return m.Walk(func(n *regmap.Node, depth int) error {
			if depth == 0 {
				return nil
			}
			indent := strings.Repeat("  ", depth-1)
			if n.Leaf != nil {
				fmt.Fprintf(out, "%s%s\n", indent, n.Name)
				return nil
			}
			fmt.Fprintf(out, "%s%s/\n", indent, n.Name)
			return nil
		})
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	descs, err := m.Select(path)
	if err != nil {
		return err
	}
	for _, d := range descs {
		fmt.Fprintln(out, d)
		if verbose && d.Doc != "" {
			fmt.Fprintf(out, "    %s\n", d.Doc)
		}
	}
	return nil
}
