package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/ad954x/pkg/bus"
	"github.com/OpenTraceLab/ad954x/pkg/profile"
	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProfile(t *testing.T, regs map[uint16]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.json")
	require.NoError(t, profile.Save(path, profile.Dump(regs), ""))
	return path
}

func TestCommandsE2E(t *testing.T) {
	sim := writeProfile(t, map[uint16]byte{
		0x0003: 0x05,
		0x0201: 0x01,
		0x3001: 0x13,
		0x3003: 0x80,
		0x3004: 0x0C,
	})

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "map group",
			args:        []string{"map", "sysclk.pll"},
			wantContain: []string{"sysclk.pll.freq-doubler [0x0201/0x01] rw complex:enable", "sysclk.pll.ref-freq"},
		},
		{
			name:        "map tree",
			args:        []string{"map", "--tree"},
			wantContain: []string{"sysclk/", "  pll/", "    freq-doubler"},
		},
		{
			name:        "map ranges",
			args:        []string{"map", "--ranges"},
			wantContain: []string{"0x0200-0x0209  (10)", "ranges"},
		},
		{
			name:        "map unknown path",
			args:        []string{"map", "sysclk.nope"},
			wantErr:     true,
		},
		{
			name:        "get from simulator",
			args:        []string{"--bus", "sim", "--sim-profile", sim, "get", "chip.type", "sysclk.pll.freq-doubler"},
			wantContain: []string{"chip.type = 0x05", "sysclk.pll.freq-doubler = enabled"},
		},
		{
			name:        "get raw",
			args:        []string{"--bus", "sim", "--sim-profile", sim, "get", "--raw", "temperature.reading"},
			wantContain: []string{"temperature.reading = 25  [80 0C]"},
		},
		{
			name:        "get all",
			args:        []string{"--bus", "sim", "--sim-profile", sim, "get"},
			wantContain: []string{"chip.type = 0x05", "pll.ch0.locked = true", "pll.ch1.locked = false"},
		},
		{
			name:        "set writes changed fields",
			args:        []string{"--bus", "sim", "--sim-profile", sim, "set", "sysclk.pll.freq-doubler=enabled", "sysclk.pll.fb-div-ratio=0x40"},
			wantContain: []string{"wrote sysclk.pll.fb-div-ratio = 0x40", "unchanged sysclk.pll.freq-doubler"},
		},
		{
			name:        "set quoted symbol",
			args:        []string{"--bus", "sim", "set", `sysclk.compensation.method1-cutoff="39 Hz"`},
			wantContain: []string{"wrote sysclk.compensation.method1-cutoff = 39 Hz"},
		},
		{
			name:    "set read-only",
			args:    []string{"--bus", "sim", "set", "chip.type=1"},
			wantErr: true,
		},
		{
			name:    "set unknown symbol",
			args:    []string{"--bus", "sim", "set", "sysclk.pll.freq-doubler=sometimes"},
			wantErr: true,
		},
		{
			name:    "set syntax",
			args:    []string{"--bus", "sim", "set", "sysclk.pll.freq-doubler"},
			wantErr: true,
		},
		{
			name:        "status sections",
			args:        []string{"--bus", "sim", "--sim-profile", sim, "status", "sysclk"},
			wantContain: []string{"sysclk:", "locked", "true", "pll.freq-doubler"},
		},
		{
			name:        "status defaults",
			args:        []string{"--bus", "sim", "--sim-profile", sim, "status"},
			wantContain: []string{"eeprom:", "temperature:", "reading"},
		},
		{
			name:        "temperature",
			args:        []string{"--bus", "sim", "--sim-profile", sim, "temperature"},
			wantContain: []string{"temperature: 25.000 °C"},
		},
		{
			name:        "calibrate",
			args:        []string{"--bus", "sim", "calibrate", "--all"},
			wantContain: []string{"calibration requested"},
		},
		{
			name:    "calibrate nothing",
			args:    []string{"--bus", "sim", "calibrate"},
			wantErr: true,
		},
		{
			name:        "reset",
			args:        []string{"--bus", "sim", "reset", "--soft", "--watchdog"},
			wantContain: []string{"soft reset", "watchdog restarted"},
		},
		{
			name:    "unknown bus",
			args:    []string{"--bus", "spi", "get", "chip.type"},
			wantErr: true,
		},
		{
			name:    "bad slave address",
			args:    []string{"--bus", "sim", "--addr", "0x90", "get", "chip.type"},
			wantErr: true,
		},
		{
			name:    "sim profile needs sim bus",
			args:    []string{"--bus", "fake", "--sim-profile", sim, "get", "chip.type"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err, output)
			for _, want := range tt.wantContain {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestDumpDiffE2E(t *testing.T) {
	dir := t.TempDir()
	cborPath := filepath.Join(dir, "fake.cbor")
	jsonPath := filepath.Join(dir, "fake.json")

	out, err := run(t, "--bus", "fake", "--seed", "7", "dump", "--quiet", cborPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(cbor)")

	_, err = run(t, "--bus", "fake", "--seed", "7", "dump", "--quiet", "--map-only", jsonPath)
	require.NoError(t, err)

	full, err := profile.LoadFile(cborPath)
	require.NoError(t, err)
	mapOnly, err := profile.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Greater(t, len(full), len(mapOnly))

	out, err = run(t, "diff", cborPath, cborPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 of ")

	out, err = run(t, "--bus", "sim", "--sim-profile", jsonPath, "diff", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "0 of ")

	out, err = run(t, "--bus", "sim", "diff", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "reg 0x")

	out, err = run(t, "--bus", "sim", "load", "--quiet", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded")
}

func TestMapExportRoundTripE2E(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct{ flag, file string }{
		{"--dsl", "ad9546.reg"},
		{"--yaml", "ad9546.yaml"},
	} {
		t.Run(tc.file, func(t *testing.T) {
			exported, err := run(t, "map", tc.flag)
			require.NoError(t, err)
			path := filepath.Join(dir, tc.file)
			require.NoError(t, os.WriteFile(path, []byte(exported), 0o644))

			builtin, err := run(t, "map")
			require.NoError(t, err)
			reloaded, err := run(t, "--map", path, "map")
			require.NoError(t, err)
			assert.Equal(t, builtin, reloaded)
		})
	}
}

func TestConfigFile(t *testing.T) {
	sim := writeProfile(t, map[uint16]byte{0x0003: 0x07})
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("bus: sim\nsim-profile: "+sim+"\naddr: \"0x4A\"\n"), 0o644))

	out, err := run(t, "--config", cfg, "get", "chip.type")
	require.NoError(t, err)
	assert.Contains(t, out, "chip.type = 0x07")

	// Flags on the command line win.
	_, err = run(t, "--config", cfg, "--bus", "fake", "get", "chip.type")
	assert.Error(t, err, "sim-profile from the file conflicts with --bus fake")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "map")
	assert.Error(t, err)
}

func TestShell(t *testing.T) {
	resetFlags(rootCmd)
	m, err := loadMap()
	require.NoError(t, err)
	sim := bus.NewSim(map[uint16]byte{0x0003: 0x05, 0x0201: 0x80})
	dev, err := regmap.NewDevice(sim, m)
	require.NoError(t, err)

	var out bytes.Buffer
	sh, err := newShell(&session{bus: sim, dev: dev}, &out)
	require.NoError(t, err)

	require.NoError(t, sh.exec("get chip.type"))
	assert.Contains(t, out.String(), "chip.type = 0x05")

	require.NoError(t, sh.exec("update"))
	require.NoError(t, sh.exec("set sysclk.pll.freq-doubler = enabled, sysclk.pll.input-div = 3"))
	assert.Equal(t, byte(0x87), sim.Peek(0x0201))

	out.Reset()
	sim.Poke(0x3001, 0x01)
	require.NoError(t, sh.exec("diff"))
	assert.Contains(t, out.String(), "sysclk.locked: false -> true")

	out.Reset()
	require.NoError(t, sh.exec("peek 0x0201"))
	assert.Equal(t, "0x0201 = 0x87\n", out.String())
	require.NoError(t, sh.exec("poke 0x0200 0x40"))
	assert.Equal(t, byte(0x40), sim.Peek(0x0200))

	out.Reset()
	require.NoError(t, sh.exec("info sysclk.pll.stability-period"))
	assert.Contains(t, out.String(), "width 20 bits, scaling 0.01")

	require.NoError(t, sh.exec(""))
	assert.Error(t, sh.exec("set"))
	assert.Error(t, sh.exec("get nope"))
	assert.Error(t, sh.exec("bogus"))
	assert.Error(t, sh.exec("poke 0x10"))
	assert.ErrorIs(t, sh.exec("quit"), errQuit)

	out.Reset()
	require.NoError(t, sh.exec("help"))
	assert.True(t, strings.HasPrefix(out.String(), "Commands:"))
}
