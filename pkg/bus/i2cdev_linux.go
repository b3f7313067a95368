//go:build linux

package bus

import (
	"fmt"
	"sync"

	"github.com/platinasystems/i2c"
)

// I2CDev reaches the chip through the Linux i2c-dev interface. The 16-bit
// register address is sent as the SMBus command byte (MSB) followed by the
// first data byte (LSB).
type I2CDev struct {
	mu    sync.Mutex
	bus   i2c.Bus
	num   int
	slave int
	open  bool
}

// OpenI2CDev opens /dev/i2c-<busNum> and binds it to the 7-bit slave address.
func OpenI2CDev(busNum, slave int) (*I2CDev, error) {
	d := &I2CDev{num: busNum, slave: slave}
	if err := d.bus.Open(busNum); err != nil {
		return nil, fmt.Errorf("bus: open i2c-%d: %w", busNum, err)
	}
	if err := d.bus.ForceSlaveAddress(slave); err != nil {
		d.bus.Close()
		return nil, fmt.Errorf("bus: i2c-%d slave 0x%02X: %w", busNum, slave, err)
	}
	d.open = true
	return d, nil
}

func (d *I2CDev) Info() Info {
	return Info{
		Kind:        KindI2CDev,
		Name:        "i2c-dev",
		Description: fmt.Sprintf("Linux i2c-dev bus %d, slave 0x%02X", d.num, d.slave),
		Path:        fmt.Sprintf("/dev/i2c-%d", d.num),
		Slave:       d.slave,
	}
}

func (d *I2CDev) ReadReg(addr uint16) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return 0, readError(addr, fmt.Errorf("bus closed"))
	}

	msb, lsb := SplitAddress(addr)
	var sd i2c.SMBusData
	sd[0] = lsb
	if err := d.bus.Do(i2c.Write, msb, i2c.ByteData, &sd); err != nil {
		return 0, readError(addr, err)
	}
	if err := d.bus.Do(i2c.Read, 0, i2c.Byte, &sd); err != nil {
		return 0, readError(addr, err)
	}
	return sd[0], nil
}

func (d *I2CDev) WriteReg(addr uint16, value byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open {
		return writeError(addr, fmt.Errorf("bus closed"))
	}

	msb, lsb := SplitAddress(addr)
	var sd i2c.SMBusData
	sd[0] = lsb
	sd[1] = value
	if err := d.bus.Do(i2c.Write, msb, i2c.WordData, &sd); err != nil {
		return writeError(addr, err)
	}
	return nil
}

func (d *I2CDev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil
	}
	d.open = false
	d.bus.Close()
	return nil
}
