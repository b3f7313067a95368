package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/ad954x/pkg/ad9546"
)

var (
	calibSysclk bool
	calibAll    bool

	resetSoft     bool
	resetKeep     bool
	resetWatchdog bool
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Run a device calibration",
	Long: `Request a calibration. Required whenever the system clock VCO frequency is
changed. --all calibrates the system clock, DPLLs and APLLs.`,
	RunE: runCalibrate,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the device",
	Long: `--soft performs a soft reset; when the Mx pins select it an EEPROM download
follows. --keep-registers resets the device but keeps register contents.
--watchdog restarts the watchdog timer.`,
	RunE: runReset,
}

var tempCmd = &cobra.Command{
	Use:   "temperature",
	Short: "Read the die temperature",
	RunE:  runTemperature,
}

var (
	tempLow  float64
	tempHigh float64
)

func init() {
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tempCmd)

	calibrateCmd.Flags().BoolVar(&calibSysclk, "sysclk", false, "calibrate the system clock")
	calibrateCmd.Flags().BoolVar(&calibAll, "all", false, "calibrate system clock, DPLLs and APLLs")

	resetCmd.Flags().BoolVar(&resetSoft, "soft", false, "soft reset")
	resetCmd.Flags().BoolVar(&resetKeep, "keep-registers", false, "soft reset keeping register values")
	resetCmd.Flags().BoolVar(&resetWatchdog, "watchdog", false, "restart the watchdog timer")

	tempCmd.Flags().Float64Var(&tempLow, "threshold-low", 0, "set the warning threshold low [°C]")
	tempCmd.Flags().Float64Var(&tempHigh, "threshold-high", 0, "set the warning threshold high [°C]")
	tempCmd.MarkFlagsRequiredTogether("threshold-low", "threshold-high")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	if !calibSysclk && !calibAll {
		return fmt.Errorf("nothing to calibrate: pass --sysclk and/or --all")
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := ad9546.Calibrate(s.dev, calibSysclk, calibAll); err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "calibration requested")
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetSoft && !resetKeep && !resetWatchdog {
		return fmt.Errorf("nothing to reset: pass --soft, --keep-registers or --watchdog")
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	out := cmd.OutOrStdout()

	if resetSoft {
		if err := ad9546.SoftReset(s.dev); err != nil {
			return err
		}
		fmt.Fprintln(out, "soft reset")
	}
	if resetKeep {
		if err := ad9546.SoftResetKeepRegisters(s.dev); err != nil {
			return err
		}
		fmt.Fprintln(out, "soft reset (registers kept)")
	}
	if resetWatchdog {
		if err := ad9546.ResetWatchdog(s.dev); err != nil {
			return err
		}
		fmt.Fprintln(out, "watchdog restarted")
	}
	return nil
}

func runTemperature(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	out := cmd.OutOrStdout()

	if cmd.Flags().Changed("threshold-low") {
		if err := ad9546.SetTemperatureThresholds(s.dev, tempLow, tempHigh); err != nil {
			return err
		}
		fmt.Fprintf(out, "warning window [%.2f, %.2f] °C\n", tempLow, tempHigh)
	}
	t, err := ad9546.Temperature(s.dev)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "temperature: %.3f °C\n", t)
	return nil
}
