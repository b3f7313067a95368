package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose      bool
	busName      string
	i2cBus       int
	slaveAddr    string
	serialFilter string
	mapFile      string
	fakeSeed     int64
	simProfile   string
	configFile   string

	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "ad954x",
	Short: "AD9545/AD9546 clock synchronizer register tool",
	Long: `Inspect and configure AD9545/AD9546 clock synchronizers through their
register map. Registers are addressed by dotted paths (sysclk.pll.freq-doubler)
and values are decoded to booleans, integers, physical quantities or symbols.

Examples:
  ad954x interfaces                                  # List I2C adapters
  ad954x --bus i2c --i2c-bus 1 status sysclk pll     # Lock status
  ad954x --bus cp2112 get chip                       # Chip identification
  ad954x set sysclk.pll.freq-doubler=enabled         # Write a field
  ad954x dump profile.json                           # Full register dump`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging on stderr)")
	pf.StringVarP(&busName, "bus", "b", "fake", "bus backend: fake, sim, i2c, cp2112")
	pf.IntVar(&i2cBus, "i2c-bus", 0, "i2c-dev bus number (/dev/i2c-N)")
	pf.StringVarP(&slaveAddr, "addr", "a", "0x48", "7-bit I2C slave address")
	pf.StringVar(&serialFilter, "serial", "", "CP2112 serial number")
	pf.StringVarP(&mapFile, "map", "m", "", "register map file (.yaml or register DSL); built-in AD9546 map when empty")
	pf.Int64Var(&fakeSeed, "seed", 1, "fake bus: random seed")
	pf.StringVar(&simProfile, "sim-profile", "", "sim bus: preload registers from a dump file")
	pf.StringVar(&configFile, "config", "", "YAML config file (default $XDG_CONFIG_HOME/ad954x/config.yaml)")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := applyConfig(cmd); err != nil {
		return err
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}
