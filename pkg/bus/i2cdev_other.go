//go:build !linux

package bus

// I2CDev is only available on Linux.
type I2CDev struct{}

// OpenI2CDev always fails outside Linux.
func OpenI2CDev(busNum, slave int) (*I2CDev, error) {
	return nil, ErrNotImplemented
}

func (d *I2CDev) Info() Info {
	return Info{Kind: KindI2CDev, Name: "i2c-dev"}
}

func (d *I2CDev) ReadReg(addr uint16) (byte, error) {
	return 0, readError(addr, ErrNotImplemented)
}

func (d *I2CDev) WriteReg(addr uint16, value byte) error {
	return writeError(addr, ErrNotImplemented)
}

func (d *I2CDev) Close() error {
	return nil
}
