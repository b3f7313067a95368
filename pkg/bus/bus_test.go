package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAddress(t *testing.T) {
	msb, lsb := SplitAddress(0x1234)
	assert.Equal(t, byte(0x12), msb)
	assert.Equal(t, byte(0x34), lsb)
}

func TestSimReadWrite(t *testing.T) {
	sim := NewSim(map[uint16]byte{0x0003: 0x05})

	v, err := sim.ReadReg(0x0003)
	require.NoError(t, err)
	assert.Equal(t, byte(0x05), v)

	v, err = sim.ReadReg(0xFFFF)
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), v, "unwritten registers read as zero")

	require.NoError(t, sim.WriteReg(0x0010, 0xA5))
	assert.Equal(t, byte(0xA5), sim.Peek(0x0010))

	assert.Equal(t, []Op{
		{Kind: OpRead, Addr: 0x0003, Value: 0x05},
		{Kind: OpRead, Addr: 0xFFFF, Value: 0x00},
		{Kind: OpWrite, Addr: 0x0010, Value: 0xA5},
	}, sim.Ops())
	assert.Len(t, sim.Writes(), 1)

	last, ok := sim.LastOp()
	require.True(t, ok)
	assert.Equal(t, "write 0x0010=0xA5", last.String())

	sim.ResetLog()
	_, ok = sim.LastOp()
	assert.False(t, ok)
	assert.Equal(t, byte(0xA5), sim.Peek(0x0010), "ResetLog keeps registers")
}

func TestSimHooks(t *testing.T) {
	boom := errors.New("nack")
	sim := NewSim(nil)
	sim.OnRead = func(addr uint16) (byte, bool, error) {
		switch addr {
		case 0x3001:
			return 0x11, true, nil
		case 0x3002:
			return 0, false, boom
		}
		return 0, false, nil
	}
	sim.OnWrite = func(addr uint16, _ byte) error {
		if addr == 0x0000 {
			return boom
		}
		return nil
	}

	v, err := sim.ReadReg(0x3001)
	require.NoError(t, err)
	assert.Equal(t, byte(0x11), v)

	_, err = sim.ReadReg(0x3002)
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "read", be.Op)
	assert.Equal(t, uint16(0x3002), be.Addr)
	assert.ErrorIs(t, err, boom)

	err = sim.WriteReg(0x0000, 0x81)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, byte(0x00), sim.Peek(0x0000), "rejected write leaves register untouched")
}

func TestFakeIsRepeatable(t *testing.T) {
	a, b := NewFake(7), NewFake(7)
	for i := 0; i < 32; i++ {
		va, err := a.ReadReg(uint16(i))
		require.NoError(t, err)
		vb, err := b.ReadReg(uint16(i))
		require.NoError(t, err)
		assert.Equal(t, va, vb)
	}
	require.NoError(t, a.WriteReg(0x0000, 0x01))
	reads, writes := a.Counts()
	assert.Equal(t, 32, reads)
	assert.Equal(t, 1, writes)
}

func TestErrorFormatting(t *testing.T) {
	err := writeError(0x000F, errors.New("timeout"))
	assert.Equal(t, "bus: write 0x000F: timeout", err.Error())
}

func TestInfoLabel(t *testing.T) {
	assert.Equal(t, "desc", Info{Kind: KindSim, Description: "desc"}.Label())
	assert.Equal(t, "i2c-dev (/dev/i2c-1)", Info{Kind: KindI2CDev, Path: "/dev/i2c-1"}.Label())
	assert.Equal(t, "cp2112 (10C4:EA90)", Info{Kind: KindCP2112, VendorID: 0x10C4, ProductID: 0xEA90}.Label())
	assert.Equal(t, "fake", Info{Kind: KindFake}.Label())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindFake, false},
		{"fake", KindFake, false},
		{"Sim", KindSim, false},
		{"i2c", KindI2CDev, false},
		{"i2c-dev", KindI2CDev, false},
		{"cp2112", KindCP2112, false},
		{"spi", KindUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenSoftwareBackends(t *testing.T) {
	b, err := Open(Config{Kind: KindSim, Initial: map[uint16]byte{0x000C: 0x56}})
	require.NoError(t, err)
	v, err := b.ReadReg(0x000C)
	require.NoError(t, err)
	assert.Equal(t, byte(0x56), v)
	assert.Equal(t, KindSim, b.Info().Kind)

	b, err = Open(Config{Kind: KindFake, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, KindFake, b.Info().Kind)

	_, err = Open(Config{Kind: KindSim, Address: 0x80})
	assert.Error(t, err)

	_, err = Open(Config{Kind: "spi"})
	assert.Error(t, err)
}

func TestI2CBusNumber(t *testing.T) {
	assert.Equal(t, 3, i2cBusNumber("/dev/i2c-3"))
	assert.Equal(t, 12, i2cBusNumber("/dev/i2c-12"))
	assert.Equal(t, -1, i2cBusNumber("/dev/ttyUSB0"))
	assert.Equal(t, -1, i2cBusNumber("/dev/i2c-x"))
}
