package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/bus"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available I2C interfaces",
	Long: `Scan the host for CP2112 USB-to-I2C bridges and Linux i2c-dev nodes and print
a summary of the detected transports. Use this to select --bus and --i2c-bus
before running other commands.`,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	infos, err := bus.DiscoverInterfaces(ctx)
	if err != nil {
		return fmt.Errorf("discover interfaces: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No interfaces found.")
		return nil
	}

	fmt.Fprintln(out, "Detected I2C interfaces:")
	for _, iface := range infos {
		switch {
		case iface.VendorID != 0:
			fmt.Fprintf(out, "  - %s [%s] (VID:PID %04X:%04X serial %q)\n",
				iface.Label(), iface.Kind, iface.VendorID, iface.ProductID, iface.Serial)
		default:
			fmt.Fprintf(out, "  - %s [%s]\n", iface.Label(), iface.Kind)
		}
	}
	return nil
}
