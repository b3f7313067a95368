package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

var getRaw bool

var getCmd = &cobra.Command{
	Use:   "get [path...]",
	Short: "Read and decode registers",
	Long: `Read registers by path. A group path reads every register below it; no
argument reads the whole map with one pass over the used addresses.

Examples:
  ad954x get chip.type
  ad954x get --raw sysclk.pll
  ad954x get`,
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().BoolVarP(&getRaw, "raw", "r", false, "also print the raw bytes, LSB first")
}

func runGet(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		snap, err := s.dev.Update()
		if err != nil {
			return err
		}
		for _, p := range snap.Paths() {
			v, _ := snap.Get(p)
			fmt.Fprintf(out, "%s = %s\n", p, v)
		}
		return nil
	}

	for _, path := range args {
		descs, err := s.Map().Select(path)
		if err != nil {
			return err
		}
		for _, d := range descs {
			if err := printRead(cmd, s.dev, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func printRead(cmd *cobra.Command, dev *regmap.Device, d *regmap.Descriptor) error {
	v, raw, err := dev.ReadDescriptor(d)
	if err != nil {
		return err
	}
	if getRaw {
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s  [%s]\n", d.Path, v, formatBytes(raw))
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", d.Path, v)
	return nil
}
