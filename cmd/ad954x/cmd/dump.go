package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/ad9546"
	"github.com/OpenTraceLab/ad954x/pkg/profile"
)

var (
	dumpChip    string
	dumpMapOnly bool
	quiet       bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Dump the register space to a file",
	Long: `Read the documented register blocks byte by byte and save them. Files ending
in .cbor are written as CBOR, everything else in the vendor JSON layout
({"RegisterMap": {"0x0000": "0x18", ...}}).

Examples:
  ad954x --bus i2c --i2c-bus 1 dump profile.json
  ad954x dump --map-only --chip ad9545 snapshot.cbor`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a register dump into the device",
	Long: `Write every register of a dump in ascending address order, then issue an
I/O update. Accepts vendor JSON profiles (with or without byte order mark)
and CBOR dumps.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

var diffCmd = &cobra.Command{
	Use:   "diff <expected> [actual]",
	Short: "Compare two register dumps",
	Long: `Report every register of <expected> whose value differs in [actual]. Without
[actual] the device is dumped over the same addresses and compared.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(diffCmd)

	dumpCmd.Flags().StringVar(&dumpChip, "chip", "ad9546", "chip name recorded in the dump")
	dumpCmd.Flags().BoolVar(&dumpMapOnly, "map-only", false, "dump only the addresses used by the register map")
	for _, c := range []*cobra.Command{dumpCmd, loadCmd, diffCmd} {
		c.Flags().BoolVarP(&quiet, "quiet", "q", false, "disable progress output")
	}
}

// progressPrinter reports progress in 5% steps on w.
func progressPrinter(w io.Writer) profile.Progress {
	if quiet {
		return nil
	}
	last := -5
	return func(done, total int) {
		pct := done * 100 / total
		if pct/5 == last/5 && done != total {
			return
		}
		last = pct
		fmt.Fprintf(w, "\r%3d%%", pct)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ranges := ad9546.DumpRanges
	if dumpMapOnly {
		ranges = s.Map().Ranges()
	}
	d, err := profile.Read(s.dev, ranges, progressPrinter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	if err := profile.Save(args[0], d, dumpChip); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dumped %d registers to %s (%s)\n", len(d), args[0], profile.EncodingFor(args[0]))
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	d, err := profile.LoadFile(args[0])
	if err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := profile.Load(s.dev, d, progressPrinter(cmd.ErrOrStderr())); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d registers from %s\n", len(d), args[0])
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	expected, err := profile.LoadFile(args[0])
	if err != nil {
		return err
	}

	var actual profile.Dump
	if len(args) == 2 {
		actual, err = profile.LoadFile(args[1])
		if err != nil {
			return err
		}
	} else {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		actual = make(profile.Dump, len(expected))
		for _, a := range expected.Addresses() {
			v, err := s.dev.ReadRaw(a)
			if err != nil {
				return err
			}
			actual[a] = v
		}
	}

	out := cmd.OutOrStdout()
	diffs := profile.Diff(expected, actual)
	for _, d := range diffs {
		fmt.Fprintln(out, d)
	}
	fmt.Fprintf(out, "%d of %d registers differ\n", len(diffs), len(expected))
	return nil
}
