package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

// statusSections are the groups shown by "status" without arguments.
var statusSections = []string{"sysclk", "pll", "eeprom", "misc", "temperature", "ref", "irq"}

var statusCmd = &cobra.Command{
	Use:   "status [section...]",
	Short: "Show device status",
	Long: `Read the device once and print the status groups: sysclk, pll, eeprom, misc,
temperature, ref and irq. Any group path of the map is accepted as a section.

Examples:
  ad954x status
  ad954x status sysclk pll.ch0`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	sections := args
	if len(sections) == 0 {
		sections = statusSections
	}
	// Validate before touching the bus.
	selected := make([][]*regmap.Descriptor, len(sections))
	for i, sec := range sections {
		descs, err := s.Map().Select(sec)
		if err != nil {
			return err
		}
		selected[i] = descs
	}

	snap, err := s.dev.Update()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	info := s.bus.Info()
	fmt.Fprintf(out, "Device status (%s, slave 0x%02X)\n", info.Label(), info.Slave)
	for i, sec := range sections {
		fmt.Fprintf(out, "\n%s:\n", sec)
		for _, d := range selected[i] {
			v, _ := snap.Get(d.Path)
			name := strings.TrimPrefix(strings.TrimPrefix(d.Path, sec), regmap.PathSeparator)
			if name == "" {
				name = d.Name()
			}
			fmt.Fprintf(out, "  %-40s %s\n", name, v)
		}
	}
	return nil
}
