package bus

import (
	"fmt"
	"strings"
)

// DefaultAddress is the AD9545/46 7-bit I2C address with both address
// strap pins low.
const DefaultAddress = 0x48

// Config selects and parameterizes a backend.
type Config struct {
	Kind    Kind
	I2CBus  int    // i2c-dev bus number
	Address int    // 7-bit slave address (0 selects DefaultAddress)
	Serial  string // CP2112 serial filter
	Seed    int64  // fake bus seed
	Initial map[uint16]byte
}

// ParseKind maps a user-provided backend name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fake":
		return KindFake, nil
	case "sim", "simulator":
		return KindSim, nil
	case "i2c", "i2c-dev", "i2cdev":
		return KindI2CDev, nil
	case "cp2112", "usb":
		return KindCP2112, nil
	default:
		return KindUnknown, fmt.Errorf("bus: unknown backend %q", s)
	}
}

// Open creates the backend described by cfg.
func Open(cfg Config) (Bus, error) {
	addr := cfg.Address
	if addr == 0 {
		addr = DefaultAddress
	}
	if addr < 0 || addr > 0x7F {
		return nil, fmt.Errorf("bus: slave address 0x%X out of 7-bit range", addr)
	}

	switch cfg.Kind {
	case KindFake, "":
		return NewFake(cfg.Seed), nil
	case KindSim:
		return NewSim(cfg.Initial), nil
	case KindI2CDev:
		d, err := OpenI2CDev(cfg.I2CBus, addr)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindCP2112:
		c, err := OpenCP2112(cfg.Serial, addr)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("bus: unknown backend %q", string(cfg.Kind))
	}
}
