package ad9546

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/ad954x/pkg/regmap"
)

// Control registers and bits.
const (
	RegSerialConfig  = 0x0000
	RegSerialConfig2 = 0x0001
	RegIOUpdate      = 0x000F
	RegCalibration   = 0x2000
	RegWatchdog      = 0x2005
	RegTemperature   = 0x3003

	softResetBits      = 0x81 // soft reset, mirrored in bit 7
	keepRegistersBit   = 0x04
	calibrateSysclkBit = 0x04
	calibrateAllBit    = 0x02
	watchdogResetBit   = 0x80
)

// RawAccess is byte level register access. *regmap.Device implements it.
type RawAccess interface {
	ReadRaw(addr uint16) (byte, error)
	WriteRaw(addr uint16, value byte) error
}

// IOUpdate transfers buffered register writes to the active register set.
func IOUpdate(dev RawAccess) error {
	return dev.WriteRaw(RegIOUpdate, 0x01)
}

// Calibrate requests a system clock calibration and/or a full calibration
// (system clock, DPLLs and APLLs). The request bits are set, latched with an
// I/O update, then cleared again.
func Calibrate(dev RawAccess, sysclk, all bool) error {
	if !sysclk && !all {
		return fmt.Errorf("ad9546: calibrate: nothing requested")
	}
	var bits byte
	if sysclk {
		bits |= calibrateSysclkBit
	}
	if all {
		bits |= calibrateAllBit
	}
	for _, v := range []byte{0x00, bits, 0x00} {
		if err := dev.WriteRaw(RegCalibration, v); err != nil {
			return err
		}
		if err := IOUpdate(dev); err != nil {
			return err
		}
	}
	return nil
}

// pulse sets bits in addr and clears them again, preserving the other bits.
func pulse(dev RawAccess, addr uint16, bits byte) error {
	cur, err := dev.ReadRaw(addr)
	if err != nil {
		return err
	}
	cur &^= bits
	if err := dev.WriteRaw(addr, cur|bits); err != nil {
		return err
	}
	return dev.WriteRaw(addr, cur)
}

// SoftReset resets the device. When the Mx pins select it, an EEPROM
// download follows.
func SoftReset(dev RawAccess) error {
	return pulse(dev, RegSerialConfig, softResetBits)
}

// SoftResetKeepRegisters resets the device state machines but keeps the
// register contents.
func SoftResetKeepRegisters(dev RawAccess) error {
	return pulse(dev, RegSerialConfig2, keepRegistersBit)
}

// ResetWatchdog restarts the watchdog timer. The bit is self-clearing.
func ResetWatchdog(dev RawAccess) error {
	cur, err := dev.ReadRaw(RegWatchdog)
	if err != nil {
		return err
	}
	return dev.WriteRaw(RegWatchdog, cur|watchdogResetBit)
}

// Temperature reads the die temperature sensor in °C.
func Temperature(dev RawAccess) (float64, error) {
	lsb, err := dev.ReadRaw(RegTemperature)
	if err != nil {
		return 0, err
	}
	msb, err := dev.ReadRaw(RegTemperature + 1)
	if err != nil {
		return 0, err
	}
	return float64(int16(uint16(msb)<<8|uint16(lsb))) * TemperatureLSB, nil
}

// SetTemperatureThresholds programs the temperature warning window and
// latches it with an I/O update.
func SetTemperatureThresholds(dev *regmap.Device, low, high float64) error {
	if math.IsNaN(low) || math.IsNaN(high) || low > high {
		return fmt.Errorf("ad9546: invalid temperature window [%g, %g]", low, high)
	}
	if _, err := dev.Apply(map[string]regmap.Value{
		"temperature.threshold-low":  regmap.Float(low),
		"temperature.threshold-high": regmap.Float(high),
	}); err != nil {
		return err
	}
	return IOUpdate(dev)
}
