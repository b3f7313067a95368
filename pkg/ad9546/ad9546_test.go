package ad9546

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/ad954x/pkg/bus"
	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

func newDevice(t *testing.T, initial map[uint16]byte) (*regmap.Device, *bus.Sim) {
	t.Helper()
	m, err := Map()
	require.NoError(t, err)
	sim := bus.NewSim(initial)
	dev, err := regmap.NewDevice(sim, m)
	require.NoError(t, err)
	return dev, sim
}

func TestTablesLoad(t *testing.T) {
	r, err := Tables()
	require.NoError(t, err)

	for _, name := range []string{
		"enable", "available", "active", "done",
		"pin:logics", "pin:diff-modes", "pin:currents",
		"modes", "autosync", "unmutings", "couplings", "bandwidth",
		"slew-rate-threshold", "comp-sources", "comp:dpll:selector", "comp:cutoffs",
	} {
		_, ok := r.Table(name)
		assert.True(t, ok, name)
	}

	src, _ := r.Table("comp-sources")
	label, ok := src.Label(11)
	require.True(t, ok)
	assert.Equal(t, "aux-REF2", label)

	slew, _ := r.Table("slew-rate-threshold")
	label, _ = slew.Label(0)
	assert.Equal(t, "0", label)
}

func TestMapBuilds(t *testing.T) {
	m, err := Map()
	require.NoError(t, err)
	again, err := Map()
	require.NoError(t, err)
	assert.Same(t, m, again)

	assert.Equal(t, uint16(0x0000), m.MinAddress())
	assert.Equal(t, uint16(0x320C), m.MaxAddress())

	// Every enumerated field resolves to a table.
	for _, d := range m.Descriptors() {
		if d.Format.Kind != regmap.FormatEnum {
			continue
		}
		_, ok := m.Tables().Table(d.Format.Table)
		assert.True(t, ok, "%s: table %s", d.Path, d.Format.Table)
	}
}

func TestMapFields(t *testing.T) {
	m, err := Map()
	require.NoError(t, err)

	tests := []struct {
		path  string
		addrs []uint16
		masks []uint8
	}{
		{"chip.type", []uint16{0x0003}, []uint8{0xFF}},
		{"sysclk.pll.ref-freq", []uint16{0x0202, 0x0203, 0x0204, 0x0205, 0x0206}, []uint8{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
		{"sysclk.pll.stability-period", []uint16{0x0207, 0x0208, 0x0209}, []uint8{0xFF, 0xFF, 0x0F}},
		{"pll.ch0.locked", []uint16{0x3001}, []uint8{0x10}},
		{"pll.ch1.locked", []uint16{0x3001}, []uint8{0x20}},
		{"pll.ch1.digital.freq-locked", []uint16{0x3200}, []uint8{0x04}},
		{"pll.ch1.analog.phase-locked", []uint16{0x3200}, []uint8{0x08}},
		{"pll.ch1.digital.ftw-history", []uint16{0x3203, 0x3204, 0x3205, 0x3206, 0x3207, 0x3208}, []uint8{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x1F}},
		{"eeprom.busy.uploading", []uint16{0x3000}, []uint8{0x01}},
		{"temperature.reading", []uint16{0x3003, 0x3004}, []uint8{0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, err := m.Lookup(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.addrs, d.Addresses)
			assert.Equal(t, tt.masks, d.Masks)
		})
	}
}

func TestDecodeChipScenario(t *testing.T) {
	dev, _ := newDevice(t, map[uint16]byte{
		0x0003: 0x05,
		0x0201: 0x01,
		0x3001: 0x13,
		0x3003: 0x80,
		0x3004: 0x0C,
	})
	snap, err := dev.Update()
	require.NoError(t, err)

	get := func(path string) regmap.Value {
		v, ok := snap.Get(path)
		require.True(t, ok, path)
		return v
	}
	assert.Equal(t, "0x05", get("chip.type").String())
	assert.Equal(t, regmap.Symbol("enabled"), get("sysclk.pll.freq-doubler"))
	assert.Equal(t, regmap.Bool(true), get("sysclk.locked"))
	assert.Equal(t, regmap.Bool(true), get("sysclk.stable"))
	assert.Equal(t, regmap.Bool(true), get("pll.ch0.locked"))
	assert.Equal(t, regmap.Bool(false), get("pll.ch1.locked"))
	assert.InDelta(t, 25.0, float64(get("temperature.reading").(regmap.Float)), 1e-9)
}

func TestIOUpdate(t *testing.T) {
	dev, sim := newDevice(t, nil)
	require.NoError(t, IOUpdate(dev))
	assert.Equal(t, []bus.Op{{Kind: bus.OpWrite, Addr: 0x000F, Value: 0x01}}, sim.Writes())
}

func TestCalibrate(t *testing.T) {
	dev, sim := newDevice(t, nil)
	require.NoError(t, Calibrate(dev, true, true))

	io := bus.Op{Kind: bus.OpWrite, Addr: 0x000F, Value: 0x01}
	assert.Equal(t, []bus.Op{
		{Kind: bus.OpWrite, Addr: 0x2000, Value: 0x00}, io,
		{Kind: bus.OpWrite, Addr: 0x2000, Value: 0x06}, io,
		{Kind: bus.OpWrite, Addr: 0x2000, Value: 0x00}, io,
	}, sim.Writes())

	sim.ResetLog()
	require.NoError(t, Calibrate(dev, true, false))
	assert.Equal(t, byte(0x04), sim.Writes()[2].Value)

	assert.Error(t, Calibrate(dev, false, false))
}

func TestSoftReset(t *testing.T) {
	dev, sim := newDevice(t, map[uint16]byte{0x0000: 0x18})
	require.NoError(t, SoftReset(dev))
	assert.Equal(t, []bus.Op{
		{Kind: bus.OpWrite, Addr: 0x0000, Value: 0x99},
		{Kind: bus.OpWrite, Addr: 0x0000, Value: 0x18},
	}, sim.Writes())
}

func TestSoftResetKeepRegisters(t *testing.T) {
	dev, sim := newDevice(t, map[uint16]byte{0x0001: 0x44})
	require.NoError(t, SoftResetKeepRegisters(dev))
	assert.Equal(t, []bus.Op{
		{Kind: bus.OpWrite, Addr: 0x0001, Value: 0x44},
		{Kind: bus.OpWrite, Addr: 0x0001, Value: 0x40},
	}, sim.Writes())
}

func TestResetWatchdog(t *testing.T) {
	dev, sim := newDevice(t, map[uint16]byte{0x2005: 0x01})
	require.NoError(t, ResetWatchdog(dev))
	assert.Equal(t, []bus.Op{{Kind: bus.OpWrite, Addr: 0x2005, Value: 0x81}}, sim.Writes())
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		lsb, msb byte
		want     float64
	}{
		{0x00, 0x00, 0},
		{0x80, 0x0C, 25},
		{0x00, 0xF6, -20},
		{0x01, 0x00, 1.0 / 128},
	}
	for _, tt := range tests {
		dev, _ := newDevice(t, map[uint16]byte{0x3003: tt.lsb, 0x3004: tt.msb})
		got, err := Temperature(dev)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12)
	}
}

func TestSetTemperatureThresholds(t *testing.T) {
	dev, sim := newDevice(t, nil)
	require.NoError(t, SetTemperatureThresholds(dev, -20, 85))

	assert.Equal(t, byte(0x00), sim.Peek(0x2903))
	assert.Equal(t, byte(0xF6), sim.Peek(0x2904))
	assert.Equal(t, byte(0x80), sim.Peek(0x2905))
	assert.Equal(t, byte(0x2A), sim.Peek(0x2906))
	ops := sim.Writes()
	assert.Equal(t, uint16(0x000F), ops[len(ops)-1].Addr)

	assert.Error(t, SetTemperatureThresholds(dev, 50, 10))
}

func TestDumpRanges(t *testing.T) {
	for i, r := range DumpRanges {
		assert.LessOrEqual(t, r.Start, r.End, r)
		if i > 0 {
			assert.Greater(t, r.Start, DumpRanges[i-1].End+1, "ranges are sorted and disjoint")
		}
	}
	assert.Equal(t, 2, DumpSize(DumpRanges[:1]))

	// Every declared address is part of a full dump.
	m, err := Map()
	require.NoError(t, err)
	for _, a := range m.Addresses() {
		found := false
		for _, r := range DumpRanges {
			if a >= r.Start && a <= r.End {
				found = true
				break
			}
		}
		assert.True(t, found, "0x%04X", a)
	}
}
