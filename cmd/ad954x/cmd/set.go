package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/ad9546"
	"github.com/OpenTraceLab/ad954x/pkg/regdsl"
)

var (
	setForce    bool
	setIOUpdate bool
)

var setCmd = &cobra.Command{
	Use:   "set <path=value>...",
	Short: "Write registers",
	Long: `Write one or more fields. All assignments are validated before the bus is
touched; fields sharing a register are merged into a single read-modify-write.
Values are symbols (enabled), booleans (on, true), integers (42, 0x2A) or
physical quantities (1.5). Quote labels containing spaces.

Examples:
  ad954x set sysclk.pll.freq-doubler=enabled
  ad954x set 'sysclk.pll.stability-period = 1.5' sysclk.pll.fb-div-ratio=0x40
  ad954x set 'sysclk.compensation.method1-cutoff="39 Hz"'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)

	setCmd.Flags().BoolVarP(&setForce, "force", "f", false, "write even when the register already holds the value")
	setCmd.Flags().BoolVar(&setIOUpdate, "io-update", true, "issue an I/O update after writing")
}

func runSet(cmd *cobra.Command, args []string) error {
	p, err := regdsl.NewParser()
	if err != nil {
		return err
	}
	settings, err := p.ParseAssignments("args", strings.Join(args, "\n"))
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	values, err := regdsl.Resolve(s.Map(), settings)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if setForce {
		for _, st := range settings {
			if err := s.dev.Write(st.Path, values[st.Path]); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s = %s\n", st.Path, values[st.Path])
		}
	} else {
		if _, err := s.dev.Update(); err != nil {
			return err
		}
		res, err := s.dev.Apply(values)
		if res != nil {
			for _, path := range res.Changed {
				fmt.Fprintf(out, "wrote %s = %s\n", path, values[path])
			}
			for _, path := range res.Skipped {
				fmt.Fprintf(out, "unchanged %s\n", path)
			}
		}
		if err != nil {
			return err
		}
		if len(res.Written) == 0 {
			return nil
		}
	}

	if setIOUpdate {
		return ad9546.IOUpdate(s.dev)
	}
	return nil
}
